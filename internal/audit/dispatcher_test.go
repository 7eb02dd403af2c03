package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type collectSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	ctx := context.Background()
	for i, eventType := range []string{"login_success", "logout", "login_failure"} {
		d.Emit(ctx, Event{
			Timestamp: time.Now(),
			EventType: eventType,
			UserID:    "u1",
			Success:   i != 2,
		})
	}
	d.Close()

	got := sink.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].EventType != "login_success" || got[2].EventType != "login_failure" {
		t.Fatalf("expected delivery in emit order, got %v", got)
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{}, &collectSink{})
	if d != nil {
		t.Fatalf("expected nil dispatcher when disabled, got %v", d)
	}

	// Nil receivers must stay safe for every method.
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	if got := d.Dropped(); got != 0 {
		t.Fatalf("expected 0 dropped, got %d", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 5; i++ {
		d.Emit(ctx, Event{EventType: "login_success"})
	}

	deadline := time.After(2 * time.Second)
	for d.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected dropped events")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(block)
	d.Close()

	if got := d.Dropped(); got < 1 || got > 4 {
		t.Fatalf("expected between 1 and 4 dropped, got %d", got)
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	sink := &collectSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		d.Emit(ctx, Event{EventType: "logout"})
	}
	d.Close()

	if got := len(sink.snapshot()); got != 10 {
		t.Fatalf("expected all 10 buffered events delivered, got %d", got)
	}

	// Emits after Close are ignored.
	d.Emit(ctx, Event{EventType: "logout"})
	if got := len(sink.snapshot()); got != 10 {
		t.Fatalf("expected no delivery after close, got %d", got)
	}
}

func TestChannelSinkDelivers(t *testing.T) {
	sink := NewChannelSink(1)
	sink.Emit(context.Background(), Event{EventType: "reveal_granted"})

	select {
	case event := <-sink.Events():
		if event.EventType != "reveal_granted" {
			t.Fatalf("expected reveal_granted, got %q", event.EventType)
		}
	default:
		t.Fatal("expected buffered event")
	}
}

func TestJSONWriterSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EventType: "login_success",
		UserID:    "u1",
		Success:   true,
		Metadata:  map[string]string{"method": "credentials"},
	})
	sink.Emit(context.Background(), Event{EventType: "logout"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.EventType != "login_success" || !decoded.Success {
		t.Fatalf("unexpected event: %+v", decoded)
	}
	if decoded.Metadata["method"] != "credentials" {
		t.Fatalf("expected metadata preserved, got %v", decoded.Metadata)
	}
}
