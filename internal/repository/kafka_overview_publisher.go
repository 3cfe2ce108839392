package repository

import (
	"context"

	"Karion/internal/domain/models"
	domrepo "Karion/internal/domain/repository"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaOverviewPublisher publishes overviews as JSON, keyed by the evaluation clock label.
type KafkaOverviewPublisher struct {
	p     producer
	topic string
}

func NewKafkaOverviewPublisher(p producer, topic string) *KafkaOverviewPublisher {
	return &KafkaOverviewPublisher{p: p, topic: topic}
}

func (k *KafkaOverviewPublisher) PublishOverview(ctx context.Context, o *models.MarketOverview) error {
	return k.p.Publish(ctx, k.topic, []byte(o.LastUpdate), o)
}

func (k *KafkaOverviewPublisher) Close() error { return k.p.Close() }

var _ domrepo.OverviewPublisher = (*KafkaOverviewPublisher)(nil)
