package service

import (
	"context"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"mail-tester/email"
	"mail-tester/logger"
	"mail-tester/settings"
)

// Prober проверка одного протокола для одной учетной записи.
// Реализация обязана перехватывать все ошибки и возвращать Outcome.
type Prober interface {
	Probe(ctx context.Context, account settings.Account) email.Outcome
}

// ResultSet результаты прогона в порядке учетных записей
type ResultSet struct {
	RunID       string
	IMAP        []email.Outcome
	SMTP        []email.Outcome
	Interrupted bool
}

// Service последовательно проверяет все учетные записи по IMAP и SMTP
type Service struct {
	imap Prober
	smtp Prober
}

// NewService создает сервис с IMAP и SMTP пробами из конфигурации
func NewService(cfg *settings.Config, console *email.Console) *Service {
	return New(email.NewIMAPProbe(cfg, console), email.NewSMTPProbe(cfg, console))
}

// New создает сервис с заданными пробами
func New(imapProber, smtpProber Prober) *Service {
	return &Service{
		imap: imapProber,
		smtp: smtpProber,
	}
}

// Run проверяет каждую учетную запись сначала по IMAP, затем по SMTP.
// Неудача одной пробы не прерывает прогон; прерывает только отмена ctx.
func (s *Service) Run(ctx context.Context, accounts []settings.Account) *ResultSet {
	rs := &ResultSet{
		RunID: xid.New().String(),
		IMAP:  make([]email.Outcome, 0, len(accounts)),
		SMTP:  make([]email.Outcome, 0, len(accounts)),
	}

	if logger.Log != nil {
		logger.Log.Info("Запуск проверки учетных записей",
			zap.String("runID", rs.RunID),
			zap.Int("accounts", len(accounts)))
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}

		rs.IMAP = append(rs.IMAP, s.imap.Probe(ctx, account))
		rs.SMTP = append(rs.SMTP, s.smtp.Probe(ctx, account))
	}

	// Отмена во время последней пробы тоже считается прерыванием
	if ctx.Err() != nil {
		rs.Interrupted = true
		if logger.Log != nil {
			logger.Log.Warn("Проверка прервана",
				zap.String("runID", rs.RunID),
				zap.Int("processed", len(rs.IMAP)),
				zap.Int("accounts", len(accounts)))
		}
	}

	if logger.Log != nil {
		logger.Log.Info("Проверка завершена",
			zap.String("runID", rs.RunID),
			zap.Int("processed", len(rs.IMAP)),
			zap.Bool("allPassed", rs.AllPassed()))
	}

	return rs
}

// AllPassed true, если прогон не прерван и все пробы обоих протоколов успешны
func (rs *ResultSet) AllPassed() bool {
	if rs.Interrupted {
		return false
	}
	for _, outcomes := range [][]email.Outcome{rs.IMAP, rs.SMTP} {
		for _, o := range outcomes {
			if !o.Passed {
				return false
			}
		}
	}
	return true
}
