package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMultiHandler_SkipsNil(t *testing.T) {
	t.Parallel()
	mh := NewMultiHandler(nil, slog.NewJSONHandler(&bytes.Buffer{}, nil), nil)
	assert.Len(t, mh.handlers, 1)
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()
	debug := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})
	errOnly := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	assert.True(t, NewMultiHandler(debug, errOnly).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewMultiHandler(errOnly).Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_HandleFansOutByLevel(t *testing.T) {
	t.Parallel()
	var all, errs bytes.Buffer
	log := slog.New(NewMultiHandler(
		slog.NewJSONHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	log.Info("info line")
	log.Error("error line", "student", "이서연")

	assert.Len(t, decodeLines(t, &all), 2)
	errEntries := decodeLines(t, &errs)
	require.Len(t, errEntries, 1)
	assert.Equal(t, "이서연", errEntries[0]["student"])
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()
	var a, b bytes.Buffer
	mh := NewMultiHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	log := slog.New(mh.WithAttrs([]slog.Attr{slog.String("module", "snapshot")}).WithGroup("upload"))

	log.Info("done", "bytes", 42)

	for _, buf := range []*bytes.Buffer{&a, &b} {
		entries := decodeLines(t, buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "snapshot", entries[0]["module"])
		group, ok := entries[0]["upload"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(42), group["bytes"])
	}
}

type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()
	errA, errB := errors.New("a"), errors.New("b")
	var buf bytes.Buffer
	mh := NewMultiHandler(failingHandler{errA}, slog.NewJSONHandler(&buf, nil), failingHandler{errB})

	err := mh.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "x", 0))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, decodeLines(t, &buf), 1)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func TestMultiHandler_Concurrent(t *testing.T) {
	t.Parallel()
	var a, b lockedBuffer
	log := slog.New(NewMultiHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			log.Info("concurrent", "i", i)
		}(i)
	}
	wg.Wait()

	assert.Len(t, decodeLines(t, &a.buf), 20)
	assert.Len(t, decodeLines(t, &b.buf), 20)
}
