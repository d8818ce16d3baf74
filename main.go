package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"mail-tester/email"
	"mail-tester/logger"
	"mail-tester/report"
	"mail-tester/service"
	"mail-tester/settings"
)

const banner = `
    ╔════════════════════════════════════════════════════════════╗
    ║   Mail Server Connection Tester                            ║
    ╚════════════════════════════════════════════════════════════╝
`

func main() {
	status := report.ExitOK

	if err := newApp(&status).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		status = report.ExitFailed
	}

	if logger.Log != nil {
		_ = logger.Log.Sync()
	}
	os.Exit(status)
}

// newApp описывает командную строку; код завершения проверки пишется в status
func newApp(status *int) *cli.App {
	return &cli.App{
		Name:  "mail-tester",
		Usage: "проверка входа в почтовые ящики по IMAP и SMTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "settings/settings.ini",
				Usage:   "путь к файлу настроек",
				EnvVars: []string{"MAIL_TESTER_CONFIG"},
			},
		},
		Action: func(c *cli.Context) error {
			var err error
			*status, err = run(c.Context, c.String("config"))
			return err
		},
	}
}

// run загружает настройки, проверяет все учетные записи и печатает отчет
func run(ctx context.Context, configPath string) (int, error) {
	cfg, err := initializeConfig(configPath)
	if err != nil {
		return report.ExitFailed, err
	}

	ctx, stop := setupSignalHandling(ctx)
	defer stop()

	fmt.Fprint(os.Stdout, banner)

	console := email.NewConsole(os.Stdout)
	rs := service.NewService(cfg, console).Run(ctx, cfg.Accounts)

	return report.Write(os.Stdout, rs), nil
}

// initializeConfig загружает конфигурацию и инициализирует логгер
func initializeConfig(path string) (*settings.Config, error) {
	cfg, err := settings.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if err := logger.InitLogger(cfg.Log); err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	logger.Log.Info("Конфигурация загружена",
		zap.String("config", path),
		zap.String("imap", cfg.IMAP.Addr()),
		zap.String("smtp", cfg.SMTP.Addr()),
		zap.Int("accounts", len(cfg.Accounts)),
		zap.Duration("connectTimeout", cfg.Timeouts.Connect),
		zap.Duration("operationTimeout", cfg.Timeouts.Operation))

	return cfg, nil
}

// setupSignalHandling отменяет контекст по сигналу завершения
func setupSignalHandling(parent context.Context) (context.Context, context.CancelFunc) {
	signals := []os.Signal{os.Interrupt, syscall.SIGTERM}
	if runtime.GOOS != "windows" {
		signals = append(signals, syscall.SIGHUP)
	}

	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, signals...)

	go func() {
		select {
		case sig := <-sigChan:
			if logger.Log != nil {
				logger.Log.Info("Получен сигнал, проверка прерывается",
					zap.String("signal", sig.String()))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
