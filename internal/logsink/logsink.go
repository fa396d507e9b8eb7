// Package logsink buffers log records emitted before the real logger is
// attached (spec.md §4.5 step 1: "a logger is not yet available this early
// in startup, so log records are buffered"), then replays them into the
// real hclog.Logger once one exists.
package logsink

import (
	"sync"

	hclog "github.com/hashicorp/go-hclog"
)

type record struct {
	level hclog.Level
	msg   string
	args  []interface{}
}

// Buffer only stores records, ring-fashion, until Replay hands them to a
// real logger. It offers hclog's level methods but does not implement the
// full hclog.Logger interface; its name is fixed at construction, and it
// has no level of its own, so every record is kept.
type Buffer struct {
	mu      sync.Mutex
	name    string
	records []record
	cap     int
}

// New constructs a Buffer that keeps at most capacity records, dropping the
// oldest once full (a pathological early-startup loop should not grow
// memory without bound).
func New(name string, capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 256
	}
	return &Buffer{name: name, cap: capacity}
}

func (b *Buffer) append(level hclog.Level, msg string, args []interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, record{level: level, msg: msg, args: args})
	if len(b.records) > b.cap {
		b.records = b.records[len(b.records)-b.cap:]
	}
}

func (b *Buffer) Trace(msg string, args ...interface{}) { b.append(hclog.Trace, msg, args) }
func (b *Buffer) Debug(msg string, args ...interface{}) { b.append(hclog.Debug, msg, args) }
func (b *Buffer) Info(msg string, args ...interface{})  { b.append(hclog.Info, msg, args) }
func (b *Buffer) Warn(msg string, args ...interface{})  { b.append(hclog.Warn, msg, args) }
func (b *Buffer) Error(msg string, args ...interface{}) { b.append(hclog.Error, msg, args) }

// Replay hands every buffered record to dst, in arrival order, and clears
// the buffer (spec.md §4.5 step 1: "once a real logger is attached, every
// buffered record is replayed against it").
func (b *Buffer) Replay(dst hclog.Logger) {
	b.mu.Lock()
	records := b.records
	b.records = nil
	b.mu.Unlock()

	for _, r := range records {
		switch r.level {
		case hclog.Trace:
			dst.Trace(r.msg, r.args...)
		case hclog.Debug:
			dst.Debug(r.msg, r.args...)
		case hclog.Warn:
			dst.Warn(r.msg, r.args...)
		case hclog.Error:
			dst.Error(r.msg, r.args...)
		default:
			dst.Info(r.msg, r.args...)
		}
	}
}

// Len reports the number of records currently buffered, for tests.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
