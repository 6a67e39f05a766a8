package logger_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func TestLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Info("restored cache")

	assert.Contains(t, buf.String(), "restored cache")
	assert.Contains(t, buf.String(), "INFO")
}

func TestLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Warn("dataset version unknown")

	assert.Contains(t, buf.String(), "dataset version unknown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Error(os.ErrPermission)

	assert.Contains(t, buf.String(), "permission denied")
	assert.Contains(t, buf.String(), "ERROR")
}

func TestLogger_ErrorMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.NewWithWriter(&buf)

	lg.Error(zerr.With(zerr.Wrap(errors.New("boom"), "failed to open store"), "bucket", "regression"))

	out := buf.String()
	assert.Contains(t, out, "failed to open store")
	assert.Contains(t, out, "bucket=regression")
}

func TestLogger_SetOutput(t *testing.T) {
	var first, second bytes.Buffer
	lg := logger.NewWithWriter(&first)

	lg.SetOutput(&second)
	lg.Info("moved")

	assert.Empty(t, first.String())
	assert.True(t, strings.Contains(second.String(), "moved"))
}
