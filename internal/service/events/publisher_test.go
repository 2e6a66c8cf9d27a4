package events

import (
	"context"
	"errors"
	"testing"

	"TraderBlock/internal/domain/models"
)

type recordingProducer struct {
	topic string
	key   string
	value interface{}
}

func (r *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	r.topic, r.key, r.value = topic, string(key), value
	return nil
}

type failingSink struct{ calls int }

func (f *failingSink) PublishAnalysis(context.Context, models.AnalysisEvent) error {
	f.calls++
	return errors.New("down")
}

func TestKafkaPublisherKeysByTicker(t *testing.T) {
	rp := &recordingProducer{}
	p := NewKafkaPublisher(rp, "analysis.computed")
	if err := p.PublishAnalysis(context.Background(), models.AnalysisEvent{Ticker: "NVDA"}); err != nil {
		t.Fatal(err)
	}
	if rp.topic != "analysis.computed" || rp.key != "NVDA" {
		t.Fatalf("unexpected publish topic=%s key=%s", rp.topic, rp.key)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	a, b := &failingSink{}, &failingSink{}
	rp := &recordingProducer{}
	m := Multi{a, nil, NewKafkaPublisher(rp, "t"), b}
	err := m.PublishAnalysis(context.Background(), models.AnalysisEvent{Ticker: "X"})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if a.calls != 1 || b.calls != 1 || rp.key != "X" {
		t.Fatalf("every sink must be called")
	}
}
