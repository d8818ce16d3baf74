package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/dustin/go-humanize"

	"mail-tester/settings"
)

// SMTPProbe проверяет вход на SMTP сервер через STARTTLS.
// Письмо формируется, но никогда не отправляется.
type SMTPProbe struct {
	server    settings.ServerConfig
	timeouts  settings.TimeoutConfig
	console   *Console
	rootCAs   *x509.CertPool // nil - системное хранилище сертификатов
	localName string
}

// NewSMTPProbe создает SMTP пробу
func NewSMTPProbe(cfg *settings.Config, console *Console) *SMTPProbe {
	return &SMTPProbe{
		server:    cfg.SMTP,
		timeouts:  cfg.Timeouts,
		console:   console,
		localName: "localhost",
	}
}

// Probe выполняет подключение, STARTTLS, AUTH, подготовку письма и QUIT.
// Ошибки не возвращаются: любая из них превращается в неудачный Outcome.
func (p *SMTPProbe) Probe(ctx context.Context, account settings.Account) Outcome {
	p.console.Section(fmt.Sprintf("Проверка SMTP для %s (%s)", account.Name, account.Email))

	start := time.Now()
	step, err := p.run(ctx, account)
	outcome := newOutcome(ProtocolSMTP, account.Name, start, step, err)

	p.console.finish(outcome)
	logOutcome(outcome, account)

	return outcome
}

func (p *SMTPProbe) run(ctx context.Context, account settings.Account) (Step, error) {
	addr := p.server.Addr()

	// Порт 587 использует STARTTLS - сначала обычное соединение, потом переключение на TLS
	p.console.Step("Подключение к %s...", addr)
	dialer := &net.Dialer{Timeout: p.timeouts.Connect}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return StepConnect, err
	}
	defer conn.Close()

	// Отмена контекста прерывает зависшие операции ввода-вывода
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	if p.timeouts.Operation > 0 {
		_ = conn.SetDeadline(time.Now().Add(p.timeouts.Operation))
	}

	client, err := smtp.NewClient(conn, p.server.Host)
	if err != nil {
		return StepConnect, err
	}
	defer client.Close()

	if err := client.Hello(p.localName); err != nil {
		return StepConnect, err
	}
	p.console.OK("Соединение установлено")

	p.console.Step("Включение TLS...")
	if ok, _ := client.Extension("STARTTLS"); !ok {
		return StepStartTLS, ErrStartTLSNotSupported
	}
	if err := client.StartTLS(&tls.Config{
		ServerName: p.server.Host,
		RootCAs:    p.rootCAs,
	}); err != nil {
		return StepStartTLS, err
	}
	p.console.OK("TLS включен")

	p.console.Step("Вход под %s...", account.Email)
	if ok, _ := client.Extension("AUTH"); !ok {
		return StepLogin, ErrAuthNotSupported
	}
	if err := client.Auth(smtp.PlainAuth("", account.Email, account.Password, p.server.Host)); err != nil {
		return StepLogin, err
	}
	p.console.OK("Вход выполнен")

	// Письмо самому себе только формируется, на сервер ничего не передается
	p.console.Step("Проверка возможности отправки (dry-run)...")
	msg, err := BuildDryRunMessage(account.Email)
	if err != nil {
		return StepCompose, err
	}
	p.console.OK("Письмо подготовлено (%s, не отправлено)", humanize.Bytes(uint64(len(msg))))

	if err := client.Quit(); err != nil {
		return StepQuit, err
	}

	return "", nil
}
