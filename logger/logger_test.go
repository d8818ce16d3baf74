package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"mail-tester/settings"
)

func TestLevelFromConfig(t *testing.T) {
	cases := map[int]zapcore.Level{
		0: zapcore.FatalLevel,
		1: zapcore.ErrorLevel,
		2: zapcore.WarnLevel,
		3: zapcore.WarnLevel,
		4: zapcore.InfoLevel,
		5: zapcore.DebugLevel,
		9: zapcore.DebugLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, levelFromConfig(in), "LogLevel=%d", in)
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	t.Cleanup(func() { Log = nil })

	path := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, InitLogger(settings.LogConfig{LogLevel: 4, File: path, MaxSizeMB: 1}))
	require.NotNil(t, Log)

	Log.Info("проверка записи")
	Log.Debug("не должно попасть в файл")
	_ = Log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "проверка записи")
	assert.NotContains(t, string(data), "не должно попасть в файл")
}

func TestInitLoggerWithoutSinks(t *testing.T) {
	t.Cleanup(func() { Log = nil })

	require.NoError(t, InitLogger(settings.LogConfig{LogLevel: 4}))
	require.NotNil(t, Log)
	Log.Info("ничего не пишет")
}
