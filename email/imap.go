package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"mail-tester/logger"
	"mail-tester/settings"
)

// Количество папок, которые выводятся на консоль
const shownMailboxes = 5

// imapSession команды IMAP, которые использует проба
type imapSession interface {
	Login(username, password string) error
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Logout() error
	Close() error
}

type imapDialFunc func(ctx context.Context, server settings.ServerConfig, timeouts settings.TimeoutConfig, tlsConfig *tls.Config) (imapSession, error)

// IMAPProbe проверяет вход в почтовый ящик по IMAP с неявным TLS
type IMAPProbe struct {
	server   settings.ServerConfig
	timeouts settings.TimeoutConfig
	console  *Console
	rootCAs  *x509.CertPool // nil - системное хранилище сертификатов
	dial     imapDialFunc
}

// NewIMAPProbe создает IMAP пробу
func NewIMAPProbe(cfg *settings.Config, console *Console) *IMAPProbe {
	return &IMAPProbe{
		server:   cfg.IMAP,
		timeouts: cfg.Timeouts,
		console:  console,
		dial:     dialIMAP,
	}
}

// Probe выполняет подключение, вход, LIST, SELECT INBOX и LOGOUT.
// Ошибки не возвращаются: любая из них превращается в неудачный Outcome.
func (p *IMAPProbe) Probe(ctx context.Context, account settings.Account) Outcome {
	p.console.Section(fmt.Sprintf("Проверка IMAP для %s (%s)", account.Name, account.Email))

	start := time.Now()
	step, err := p.run(ctx, account)
	outcome := newOutcome(ProtocolIMAP, account.Name, start, step, err)

	p.console.finish(outcome)
	logOutcome(outcome, account)

	return outcome
}

func (p *IMAPProbe) run(ctx context.Context, account settings.Account) (Step, error) {
	addr := p.server.Addr()

	p.console.Step("Подключение к %s...", addr)
	session, err := p.dial(ctx, p.server, p.timeouts, &tls.Config{
		ServerName: p.server.Host,
		RootCAs:    p.rootCAs,
	})
	if err != nil {
		return StepConnect, err
	}
	defer session.Close()
	p.console.OK("SSL соединение установлено")

	p.console.Step("Вход под %s...", account.Email)
	if err := session.Login(account.Email, account.Password); err != nil {
		return StepLogin, serverReply(err)
	}
	p.console.OK("Вход выполнен")

	p.console.Step("Получение списка папок...")
	mailboxes, err := listMailboxes(session)
	if err != nil {
		return StepList, serverReply(err)
	}
	p.console.OK("Найдено папок: %d", len(mailboxes))
	for i, name := range mailboxes {
		if i == shownMailboxes {
			break
		}
		p.console.Item(name)
	}

	p.console.Step("Выбор %s...", imap.InboxName)
	mbox, err := session.Select(imap.InboxName, false)
	if err != nil {
		return StepSelect, serverReply(err)
	}
	p.console.OK("В %s писем: %s", imap.InboxName, humanize.Comma(int64(mbox.Messages)))

	if err := session.Logout(); err != nil {
		return StepLogout, serverReply(err)
	}

	return "", nil
}

// listMailboxes возвращает имена всех папок ящика
func listMailboxes(session imapSession) ([]string, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- session.List("", "*", mailboxes)
	}()

	names := make([]string, 0, 16)
	for m := range mailboxes {
		names = append(names, m.Name)
	}

	if err := <-done; err != nil {
		return nil, err
	}
	return names, nil
}

// statusError ответ NO или BAD на команду IMAP.
// go-imap возвращает такие ответы как обычные ошибки с текстом сервера.
type statusError struct {
	err error
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

// serverReply отличает отказ сервера от обрыва соединения
func serverReply(err error) error {
	if err == nil || isConnError(err) || isTLSError(err) {
		return err
	}
	return &statusError{err: err}
}

// imapConn закрывает TCP соединение при любом исходе пробы
type imapConn struct {
	*client.Client
	conn net.Conn
	stop func() bool
}

func (c *imapConn) Close() error {
	c.stop()
	return c.conn.Close()
}

// dialIMAP устанавливает SSL/TLS соединение и читает приветствие сервера
func dialIMAP(ctx context.Context, server settings.ServerConfig, timeouts settings.TimeoutConfig, tlsConfig *tls.Config) (imapSession, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeouts.Connect},
		Config:    tlsConfig,
	}

	conn, err := dialer.DialContext(ctx, "tcp", server.Addr())
	if err != nil {
		return nil, err
	}

	// Отмена контекста прерывает зависшие операции ввода-вывода
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	if timeouts.Operation > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeouts.Operation))
	}

	c, err := client.New(conn)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, err
	}

	if logger.Log != nil {
		c.ErrorLog = zap.NewStdLog(logger.Log.With(zap.String("component", "imap/client")))
	}

	return &imapConn{Client: c, conn: conn, stop: stop}, nil
}
