package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bankist.app/internal/auth"
	"bankist.app/internal/obs"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer obs.SetLogger(zap.New(core))()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = auth.ContextWithSession(ctx, "sess-42")

	require.NoError(t, LogEvent(ctx, "bank.transfer", map[string]any{"to": "jd", "amount": "100"}))

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "audit", fields["type"])
	assert.Equal(t, "bank.transfer", fields["event"])
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "sess-42", fields["session_id"])
	assert.Equal(t, "jd", fields["to"])
	assert.Equal(t, "100", fields["amount"])
}

func TestLogEventRequiresName(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer obs.SetLogger(zap.New(core))()

	assert.Error(t, LogEvent(context.Background(), "  ", nil))
	assert.Zero(t, logs.Len())
}

func TestLogEventWithoutContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	defer obs.SetLogger(zap.New(core))()

	require.NoError(t, LogEvent(context.Background(), "bank.sort", nil))
	fields := logs.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "session_id")
}
