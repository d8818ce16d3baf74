package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"mail-tester/email"
	"mail-tester/service"
)

// Коды завершения процесса
const (
	ExitOK     = 0
	ExitFailed = 1
)

const ruleWidth = 60

var (
	passText = color.New(color.FgGreen, color.Bold).Sprint("✅ PASS")
	failText = color.New(color.FgRed, color.Bold).Sprint("❌ FAIL")
)

// Write печатает итоговые таблицы по протоколам и вердикт.
// Возвращает код завершения: 0, если все пробы прошли, иначе 1.
func Write(w io.Writer, rs *service.ResultSet) int {
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintf(w, "\n%s\nSUMMARY (run %s)\n%s\n", rule, rs.RunID, rule)

	writeTable(w, email.ProtocolIMAP, rs.IMAP)
	writeTable(w, email.ProtocolSMTP, rs.SMTP)

	if rs.Interrupted {
		fmt.Fprintf(w, "\nПроверка прервана: обработано учетных записей %d\n", len(rs.IMAP))
	}

	if rs.AllPassed() {
		fmt.Fprintf(w, "\n%s\n🎉 ALL TESTS PASSED!\n%s\n\n", rule, rule)
		return ExitOK
	}

	fmt.Fprintf(w, "\n%s\n❌ SOME TESTS FAILED - Check logs above\n%s\n\n", rule, rule)
	return ExitFailed
}

func writeTable(w io.Writer, protocol email.Protocol, outcomes []email.Outcome) {
	fmt.Fprintf(w, "\n%s Results:\n", protocol)

	table := tablewriter.NewWriter(w)
	table.Header("Account", "Status", "Time", "Details")

	for _, o := range outcomes {
		status := passText
		details := ""
		if !o.Passed {
			status = failText
			if o.Failure != nil {
				details = fmt.Sprintf("%s at %s", o.Failure.Kind, o.Failure.Step)
			}
		}
		_ = table.Append(o.Label, status, elapsed(o), details)
	}

	_ = table.Render()
}

// elapsed печатает длительность пробы без лишней точности
func elapsed(o email.Outcome) string {
	if o.Elapsed <= 0 {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", o.Elapsed.Seconds()) + "s"
}
