package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"time"

	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"mail-tester/logger"
	"mail-tester/settings"
)

// Protocol протокол, который проверяет проба
type Protocol string

const (
	ProtocolIMAP Protocol = "IMAP"
	ProtocolSMTP Protocol = "SMTP"
)

// Step шаг пробы, на котором произошла ошибка
type Step string

const (
	StepConnect  Step = "connect"
	StepStartTLS Step = "starttls"
	StepLogin    Step = "login"
	StepList     Step = "list"
	StepSelect   Step = "select"
	StepCompose  Step = "compose"
	StepLogout   Step = "logout"
	StepQuit     Step = "quit"
)

// FailureKind категория ошибки пробы
type FailureKind int

const (
	KindUnclassified FailureKind = iota
	KindAuthentication
	KindTransport
	KindProtocol
)

func (k FailureKind) String() string {
	switch k {
	case KindAuthentication:
		return "Authentication"
	case KindTransport:
		return "TransportOrCertificate"
	case KindProtocol:
		return "Protocol"
	default:
		return "Unclassified"
	}
}

var (
	// ErrStartTLSNotSupported сервер не объявил расширение STARTTLS
	ErrStartTLSNotSupported = errors.New("сервер не поддерживает STARTTLS")
	// ErrAuthNotSupported сервер не объявил расширение AUTH
	ErrAuthNotSupported = errors.New("сервер не поддерживает AUTH")
)

// Failure описывает причину неудачной пробы
type Failure struct {
	Kind FailureKind
	Step Step
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (%s): %v", f.Kind, f.Step, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Outcome результат одной пробы для одной учетной записи
type Outcome struct {
	Protocol Protocol
	Label    string
	Passed   bool
	Failure  *Failure
	Elapsed  time.Duration
}

// newOutcome формирует результат пробы. err == nil означает успех
func newOutcome(protocol Protocol, label string, start time.Time, step Step, err error) Outcome {
	outcome := Outcome{
		Protocol: protocol,
		Label:    label,
		Passed:   err == nil,
		Elapsed:  time.Since(start),
	}
	if err != nil {
		outcome.Failure = &Failure{
			Kind: Classify(step, err),
			Step: step,
			Err:  err,
		}
	}
	return outcome
}

// Classify определяет категорию ошибки по шагу и типу ошибки
func Classify(step Step, err error) FailureKind {
	if err == nil {
		return KindUnclassified
	}

	// Ошибки TLS и проверки сертификата важнее шага, на котором они возникли
	if isTLSError(err) {
		return KindTransport
	}

	var statusErr *statusError
	var replyErr *textproto.Error
	isServerReply := errors.As(err, &statusErr) || errors.As(err, &replyErr)

	if step == StepLogin && (isServerReply || errors.Is(err, client.ErrLoginDisabled)) {
		return KindAuthentication
	}

	if isServerReply || errors.Is(err, ErrStartTLSNotSupported) || errors.Is(err, ErrAuthNotSupported) {
		return KindProtocol
	}

	return KindUnclassified
}

// isConnError ошибки сети и обрыва соединения, а не ответ сервера
func isConnError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	var alertErr tls.AlertError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &alertErr)
}

// diagnostic возвращает строку для консоли в зависимости от категории ошибки
func (f *Failure) diagnostic(protocol Protocol) string {
	switch f.Kind {
	case KindAuthentication:
		return fmt.Sprintf("%s: ошибка аутентификации: %v", protocol, f.Err)
	case KindTransport:
		return fmt.Sprintf("%s: ошибка SSL/TLS: %v", protocol, f.Err)
	case KindProtocol:
		return fmt.Sprintf("%s: ошибка протокола: %v", protocol, f.Err)
	default:
		return fmt.Sprintf("%s: непредвиденная ошибка: %T: %v", protocol, f.Err, f.Err)
	}
}

// logOutcome пишет результат пробы в лог
func logOutcome(outcome Outcome, account settings.Account) {
	if logger.Log == nil {
		return
	}

	fields := []zap.Field{
		zap.String("protocol", string(outcome.Protocol)),
		zap.String("account", outcome.Label),
		zap.String("email", account.Email),
		zap.Duration("elapsed", outcome.Elapsed),
	}

	if outcome.Passed {
		logger.Log.Info("Проверка пройдена", fields...)
		return
	}

	fields = append(fields,
		zap.String("kind", outcome.Failure.Kind.String()),
		zap.String("step", string(outcome.Failure.Step)),
		zap.Error(outcome.Failure.Err))
	logger.Log.Warn("Проверка не пройдена", fields...)
}
