package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	l, err := New(true, "warn")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	l, err = New(false, "")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	_, err = New(false, "loud")
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithLogger(context.Background(), l)))

	fallback := zap.NewExample()
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))
	assert.Same(t, l, FromContextOr(WithLogger(context.Background(), l), fallback))
	assert.NotNil(t, FromContextOr(context.Background(), nil))
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "edge-1234abcd", RequestID("edge-1234abcd"))

	minted := RequestID("")
	assert.True(t, strings.HasPrefix(minted, "req_"))
	assert.Len(t, minted, len("req_")+36)

	assert.NotEqual(t, "bad id\nwith newline", RequestID("bad id\nwith newline"))
	assert.NotEqual(t, "short", RequestID("short"))
}
