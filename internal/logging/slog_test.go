package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "text")
	require.NoError(t, err)
	return l, &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		level string
		log   func(l Logger)
		want  []string
	}{
		{"DEBUG", func(l Logger) { l.Debug(ctx, "blob written", "bytes", 42) }, []string{"msg=\"blob written\"", "bytes=42"}},
		{"INFO", func(l Logger) { l.Info(ctx, "link created", "id", "sl_1") }, []string{"msg=\"link created\"", "id=sl_1"}},
		{"WARN", func(l Logger) { l.Warn(ctx, "link expired", "id", "sl_2") }, []string{"msg=\"link expired\"", "id=sl_2"}},
		{"ERROR", func(l Logger) { l.Error(ctx, "sweep failed", "error", "locked") }, []string{"msg=\"sweep failed\"", "error=locked"}},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			l, buf := newTestLogger(t)
			tc.log(l)
			out := buf.String()
			assert.Contains(t, out, "level="+tc.level)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestSlogLogger_With(t *testing.T) {
	l, buf := newTestLogger(t)

	l.With("link_id", "sl_123", "role", "client").Info(context.Background(), "resolved", "mode", "presentation")

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(line, "\n")+1)
	for _, s := range []string{"level=INFO", "msg=resolved", "link_id=sl_123", "role=client", "mode=presentation"} {
		assert.Contains(t, line, s)
	}
}

func TestNew_FormatsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown", "n", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	_, err = New(&buf, "loud", "text")
	require.Error(t, err)

	_, err = New(&buf, "info", "xml")
	require.Error(t, err)
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	l := Discard()
	ctx := context.TODO()
	l.Debug(ctx, "x")
	l.Info(ctx, "x")
	l.With("a", 1).Warn(ctx, "x")
	l.Error(ctx, "x")
}
