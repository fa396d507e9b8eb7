package logsink

import (
	"bytes"
	"strings"
	"testing"

	hclog "github.com/hashicorp/go-hclog"
)

func TestBufferAccumulatesAndLen(t *testing.T) {
	b := New("early", 0)
	b.Info("starting up")
	b.Warn("degraded mode")
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestBufferEvictsOldestWhenOverCapacity(t *testing.T) {
	b := New("early", 2)
	b.Info("first")
	b.Info("second")
	b.Info("third")
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after eviction", b.Len())
	}
}

func TestReplayPreservesOrderAndClears(t *testing.T) {
	b := New("early", 0)
	b.Info("one")
	b.Warn("two")
	b.Error("three")

	var out bytes.Buffer
	dst := hclog.New(&hclog.LoggerOptions{
		Name:   "real",
		Output: &out,
		Level:  hclog.Trace,
	})
	b.Replay(dst)

	if b.Len() != 0 {
		t.Fatalf("Len() after Replay = %d, want 0", b.Len())
	}
	text := out.String()
	iOne := strings.Index(text, "one")
	iTwo := strings.Index(text, "two")
	iThree := strings.Index(text, "three")
	if iOne < 0 || iTwo < 0 || iThree < 0 {
		t.Fatalf("replayed output missing a record: %q", text)
	}
	if !(iOne < iTwo && iTwo < iThree) {
		t.Fatalf("replayed records out of order: %q", text)
	}
}

func TestReplayOfEmptyBufferIsNoop(t *testing.T) {
	b := New("early", 0)
	var out bytes.Buffer
	dst := hclog.New(&hclog.LoggerOptions{Name: "real", Output: &out, Level: hclog.Trace})
	b.Replay(dst)
	if out.Len() != 0 {
		t.Fatalf("expected no output from replaying an empty buffer, got %q", out.String())
	}
}
