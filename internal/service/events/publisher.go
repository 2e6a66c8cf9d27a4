package events

import (
	"context"
	"errors"

	"TraderBlock/internal/domain/models"
	"TraderBlock/internal/domain/repository"
)

// MessagePublisher is the subset of the Kafka producer used here.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaPublisher writes analysis events to a topic keyed by ticker, so the
// events of one ticker stay ordered within a partition.
type KafkaPublisher struct {
	producer MessagePublisher
	topic    string
}

func NewKafkaPublisher(p MessagePublisher, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: p, topic: topic}
}

func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, ev models.AnalysisEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Ticker), ev)
}

// Multi publishes to every sink and joins their errors.
type Multi []repository.AnalysisPublisher

func (m Multi) PublishAnalysis(ctx context.Context, ev models.AnalysisEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishAnalysis(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
