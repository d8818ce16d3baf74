package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"mail-tester/settings"
)

// Log глобальный логгер приложения. nil до вызова InitLogger
var Log *zap.Logger

// InitLogger инициализирует логгер по секции [Log] конфигурации
func InitLogger(cfg settings.LogConfig) error {
	level := levelFromConfig(cfg.LogLevel)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := make([]zapcore.Core, 0, 2)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return fmt.Errorf("не удалось создать каталог логов: %w", err)
		}

		// Ротация файла логов
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxArchiveFiles,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(writer),
			level,
		))
	}

	// Консольный вывод идет в stderr, чтобы не смешиваться с отчетом
	if cfg.Console {
		consoleCfg := encoderCfg
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	if len(cores) == 0 {
		Log = zap.NewNop()
		return nil
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

// levelFromConfig переводит числовой уровень из settings.ini в уровень zap.
// 5 и выше - Debug, 4 - Info, 2-3 - Warn, 1 - Error, 0 - Fatal
func levelFromConfig(logLevel int) zapcore.Level {
	switch {
	case logLevel >= 5:
		return zapcore.DebugLevel
	case logLevel == 4:
		return zapcore.InfoLevel
	case logLevel >= 2:
		return zapcore.WarnLevel
	case logLevel == 1:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}
