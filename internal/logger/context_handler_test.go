package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/attendance-go/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		setup   func(context.Context) context.Context
		want    map[string]string
		missing []string
	}{
		{
			name: "all values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-abc")
				ctx = ctxutil.WithDate(ctx, "2024-03-06")
				return ctxutil.WithStage(ctx, "draft")
			},
			want: map[string]string{"request_id": "req-abc", "date": "2024-03-06", "stage": "draft"},
		},
		{
			name: "partial",
			setup: func(ctx context.Context) context.Context {
				return ctxutil.WithStage(ctx, "final")
			},
			want:    map[string]string{"stage": "final"},
			missing: []string{"request_id", "date"},
		},
		{
			name:    "empty context",
			setup:   func(ctx context.Context) context.Context { return ctx },
			missing: []string{"request_id", "date", "stage"},
		},
		{
			name: "empty strings skipped",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "")
				return ctxutil.WithDate(ctx, "2024-03-06")
			},
			want:    map[string]string{"date": "2024-03-06"},
			missing: []string{"request_id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))

			log.InfoContext(tt.setup(context.Background()), "hello")

			entries := decodeLines(t, &buf)
			require.Len(t, entries, 1)
			for k, v := range tt.want {
				assert.Equal(t, v, entries[0][k], k)
			}
			for _, k := range tt.missing {
				assert.NotContains(t, entries[0], k)
			}
		})
	}
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewJSONHandler(&buf, nil))
	log := slog.New(h.WithAttrs([]slog.Attr{slog.String("module", "app")}))

	ctx := ctxutil.WithRequestID(context.Background(), "req-9")
	log.InfoContext(ctx, "with attrs")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "app", entries[0]["module"])
	assert.Equal(t, "req-9", entries[0]["request_id"])

	_, ok := h.WithGroup("g").(*ContextHandler)
	assert.True(t, ok)
}

func TestContextHandler_ThroughLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithDate(context.Background(), "2024-03-06")
	log.InfoContext(ctx, "committed")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "2024-03-06", entries[0]["date"])
	assert.Equal(t, "committed", entries[0]["message"])
}
