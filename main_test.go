package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail-tester/report"
)

func TestHelpExitsOK(t *testing.T) {
	status := report.ExitOK
	app := newApp(&status)
	app.Writer = io.Discard

	require.NoError(t, app.Run([]string{"mail-tester", "--help"}))
	assert.Equal(t, report.ExitOK, status)
}

func TestMissingConfigFails(t *testing.T) {
	status := report.ExitOK
	app := newApp(&status)
	app.Writer = io.Discard

	err := app.Run([]string{"mail-tester", "--config", filepath.Join(t.TempDir(), "missing.ini")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка загрузки конфигурации")
	assert.Equal(t, report.ExitFailed, status)
}
