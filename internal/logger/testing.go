package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewTest returns a logger that writes through t.Log.
func NewTest(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}
