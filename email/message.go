package email

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

const (
	dryRunSubject = "Test from mail-tester"
	dryRunBody    = "Test message from mail-tester"
)

// BuildDryRunMessage формирует текстовое письмо от address самому себе.
// Результат только проверяется на корректность и никуда не отправляется.
func BuildDryRunMessage(address string) ([]byte, error) {
	from := []*mail.Address{{Address: address}}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", from)
	h.SetAddressList("To", from)
	h.SetSubject(dryRunSubject)
	h.SetMessageID(fmt.Sprintf("%s@%s", uuid.NewString(), messageIDHost(address)))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования заголовков: %w", err)
	}
	if _, err := io.WriteString(w, dryRunBody); err != nil {
		w.Close()
		return nil, fmt.Errorf("ошибка записи тела письма: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("ошибка формирования письма: %w", err)
	}

	return buf.Bytes(), nil
}

// messageIDHost берет домен из адреса для правой части Message-ID
func messageIDHost(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
