package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	lokiFlushInterval = 5 * time.Second
	lokiBatchSize     = 100
)

// LokiHandler is a slog.Handler that pushes log lines to a Loki endpoint.
// Records are batched and flushed either when the batch fills or on a
// periodic timer, so the hot path never blocks on the network.
type LokiHandler struct {
	url    string
	labels map[string]string
	client *http.Client
	level  slog.Level
	attrs  []slog.Attr

	// buf is shared across WithAttrs clones so all variants of the
	// handler feed one batch.
	buf *lokiBuffer
}

type lokiBuffer struct {
	mu         sync.Mutex
	entries    []lokiEntry
	batchSize  int
	flushTimer *time.Timer
}

type lokiEntry struct {
	ts   time.Time
	line string
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

// LokiOption configures a LokiHandler.
type LokiOption func(*LokiHandler)

// WithLokiLabels adds stream labels to pushed logs.
func WithLokiLabels(labels map[string]string) LokiOption {
	return func(h *LokiHandler) {
		for k, v := range labels {
			h.labels[k] = v
		}
	}
}

// WithLokiLevel sets the minimum level pushed to Loki.
func WithLokiLevel(level slog.Level) LokiOption {
	return func(h *LokiHandler) {
		h.level = level
	}
}

// NewLokiHandler creates a handler pushing to the given Loki endpoint,
// e.g. "http://localhost:3100/loki/api/v1/push".
func NewLokiHandler(url string, opts ...LokiOption) *LokiHandler {
	h := &LokiHandler{
		url:    url,
		labels: map[string]string{"job": "lagd"},
		client: &http.Client{Timeout: 5 * time.Second},
		level:  slog.LevelInfo,
		buf:    &lokiBuffer{batchSize: lokiBatchSize},
	}

	for _, opt := range opts {
		opt(h)
	}

	h.buf.flushTimer = time.AfterFunc(lokiFlushInterval, func() {
		_ = h.Flush()
		h.buf.flushTimer.Reset(lokiFlushInterval)
	})

	return h
}

// Enabled implements slog.Handler.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	line := h.formatRecord(r)

	h.buf.mu.Lock()
	h.buf.entries = append(h.buf.entries, lokiEntry{ts: r.Time, line: line})
	full := len(h.buf.entries) >= h.buf.batchSize
	h.buf.mu.Unlock()

	if full {
		go func() { _ = h.Flush() }()
	}
	return nil
}

func (h *LokiHandler) formatRecord(r slog.Record) string {
	data := map[string]any{
		"level": r.Level.String(),
		"msg":   r.Message,
		"time":  r.Time.Format(time.RFC3339Nano),
	}
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.Any()
		return true
	})

	b, _ := json.Marshal(data)
	return string(b)
}

// WithAttrs implements slog.Handler.
func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &LokiHandler{
		url:    h.url,
		labels: h.labels,
		client: h.client,
		level:  h.level,
		attrs:  append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		buf:    h.buf,
	}
	return clone
}

// WithGroup implements slog.Handler. Groups are flattened; Loki streams
// are label-based, not nested.
func (h *LokiHandler) WithGroup(string) slog.Handler {
	return h
}

// Flush pushes all buffered entries to Loki.
func (h *LokiHandler) Flush() error {
	h.buf.mu.Lock()
	if len(h.buf.entries) == 0 {
		h.buf.mu.Unlock()
		return nil
	}
	batch := h.buf.entries
	h.buf.entries = nil
	h.buf.mu.Unlock()

	values := make([][]string, len(batch))
	for i, e := range batch {
		values[i] = []string{strconv.FormatInt(e.ts.UnixNano(), 10), e.line}
	}

	body, err := json.Marshal(lokiPush{
		Streams: []lokiStream{{Stream: h.labels, Values: values}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal loki push: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create loki request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push logs to loki: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("loki returned status %d", resp.StatusCode)
	}
	return nil
}

// Close flushes remaining logs and stops the periodic flush.
func (h *LokiHandler) Close() error {
	if h.buf.flushTimer != nil {
		h.buf.flushTimer.Stop()
	}
	return h.Flush()
}
