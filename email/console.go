package email

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 60

// Console печатает ход проверки в человекочитаемом виде
type Console struct {
	w io.Writer
}

// NewConsole создает вывод хода проверки в w
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{w: w}
}

// Section печатает заголовок, обрамленный линиями
func (c *Console) Section(title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(c.w, "\n%s\n%s\n%s\n", rule, title, rule)
}

// Step печатает начало шага проверки
func (c *Console) Step(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// OK печатает успешный результат шага
func (c *Console) OK(format string, args ...any) {
	fmt.Fprintf(c.w, "✅ "+format+"\n", args...)
}

// Fail печатает сообщение об ошибке
func (c *Console) Fail(format string, args ...any) {
	fmt.Fprintf(c.w, "❌ "+format+"\n", args...)
}

// Item печатает элемент списка с отступом
func (c *Console) Item(text string) {
	fmt.Fprintf(c.w, "   - %s\n", text)
}

// finish печатает итог пробы
func (c *Console) finish(outcome Outcome) {
	if outcome.Passed {
		c.OK("%s тест PASSED для %s", outcome.Protocol, outcome.Label)
		return
	}
	c.Fail("%s", outcome.Failure.diagnostic(outcome.Protocol))
}
