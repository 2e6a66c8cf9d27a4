package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) total() (batches, entries int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.batches {
		entries += len(b)
	}
	return len(p.batches), entries
}

func TestCollectorAggregatesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "fetch failed", map[string]interface{}{"error": errors.New("timeout")}, "a.go:1")
	}
	c.AddLog("error", "other", nil, "b.go:2")
	c.Close()

	batches, entries := pub.total()
	if batches != 1 || entries != 2 {
		t.Fatalf("expected 1 batch with 2 entries, got %d/%d", batches, entries)
	}
	if pub.topic != "logs" {
		t.Fatalf("unexpected topic %s", pub.topic)
	}
	for _, e := range pub.batches[0] {
		if e.Message == "fetch failed" {
			if e.Count != 3 {
				t.Fatalf("expected count 3, got %d", e.Count)
			}
			if e.Fields["error"] != "timeout" {
				t.Fatalf("error field should be text, got %v", e.Fields["error"])
			}
		}
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x")
	c.AddLog("error", "b", nil, "x")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := pub.total(); n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("threshold flush did not happen")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	l.Error("boom", String("ticker", "AAPL"))
	l.Warn("not collected")
	l.RemoveCollector()

	if _, entries := pub.total(); entries != 1 {
		t.Fatalf("expected 1 collected entry, got %d", entries)
	}
}
