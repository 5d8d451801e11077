package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gitbounty/core/types"
)

// CodeRuntimeFailure is reported for failures raised by the runtime itself or
// by programs that do not expose their own error codes.
const CodeRuntimeFailure uint32 = 0xFFFF

// Receipt describes the outcome of a single Execute call.
type Receipt struct {
	ID     string         `json:"id"`
	Digest []byte         `json:"digest"`
	Logs   []string       `json:"logs"`
	Events []*types.Event `json:"events"`
	// Err is empty on success. FailedInstruction is -1 unless a specific
	// instruction failed.
	Err               string `json:"error,omitempty"`
	Code              uint32 `json:"code"`
	FailedInstruction int    `json:"failedInstruction"`
}

// Success reports whether the transaction committed.
func (r *Receipt) Success() bool {
	return r != nil && r.Err == ""
}

// ErrorCoder is implemented by programs that map their errors onto stable
// numeric codes.
type ErrorCoder interface {
	ErrorCode(err error) uint32
}

// logCollector captures program log lines into the receipt and forwards
// every record to the operator's handler.
type logCollector struct {
	mu      *sync.Mutex
	lines   *[]string
	program string
	next    slog.Handler
}

func newLogCollector(lines *[]string, next slog.Handler) *logCollector {
	return &logCollector{mu: &sync.Mutex{}, lines: lines, next: next}
}

func (c *logCollector) forProgram(name string) *logCollector {
	clone := *c
	clone.program = name
	return &clone
}

func (c *logCollector) Enabled(context.Context, slog.Level) bool { return true }

func (c *logCollector) Handle(ctx context.Context, rec slog.Record) error {
	var b strings.Builder
	if c.program != "" {
		b.WriteString(c.program)
		b.WriteString(": ")
	}
	b.WriteString(rec.Message)
	rec.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", attr.Key, attr.Value)
		return true
	})
	c.mu.Lock()
	*c.lines = append(*c.lines, b.String())
	c.mu.Unlock()

	if c.next != nil && c.next.Enabled(ctx, rec.Level) {
		return c.next.Handle(ctx, rec)
	}
	return nil
}

func (c *logCollector) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *c
	if c.next != nil {
		clone.next = c.next.WithAttrs(attrs)
	}
	return &clone
}

func (c *logCollector) WithGroup(name string) slog.Handler {
	clone := *c
	if c.next != nil {
		clone.next = c.next.WithGroup(name)
	}
	return &clone
}
