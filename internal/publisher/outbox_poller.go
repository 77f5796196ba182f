package publisher

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/ledger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic = "storefront-checkout-events"
	batchSize    = 100
)

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*ledger.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	ExpireAbandoned(ctx context.Context, staleBefore time.Time) (int64, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller publishes journaled checkout events to Kafka and expires
// attempts that were abandoned mid-flow.
type OutboxPoller struct {
	eventTick    time.Duration
	sweepTick    time.Duration
	abandonAfter time.Duration
	repo         OutboxRepository
	writer       MessageWriter
	log          *zap.Logger
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

func NewOutboxPoller(repo OutboxRepository, writer MessageWriter, log *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		eventTick:    time.Second,
		sweepTick:    time.Minute,
		abandonAfter: 30 * time.Minute,
		repo:         repo,
		writer:       writer,
		log:          log,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	sweepTicker := time.NewTicker(p.sweepTick)
	defer eventTicker.Stop()
	defer sweepTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-sweepTicker.C:
			p.sweepAbandoned(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Drain publishes pending events until none are left or one fails, and
// returns how many were published.
func (p *OutboxPoller) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			return total, nil
		}
		for _, event := range events {
			if err := p.publish(ctx, event); err != nil {
				return total, err
			}
			total++
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		p.log.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.log.Warn("failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Error(err))
			continue
		}
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *ledger.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.RecordOutboxPublish(event.EventType, false)
		return err
	}
	metrics.RecordOutboxPublish(event.EventType, true)

	// a failed mark re-publishes the event on the next tick; consumers dedupe by attempt id
	return p.repo.MarkEventAsProcessed(ctx, event.ID)
}

func (p *OutboxPoller) sweepAbandoned(ctx context.Context) {
	n, err := p.repo.ExpireAbandoned(ctx, time.Now().Add(-p.abandonAfter))
	if err != nil {
		p.log.Error("failed to expire abandoned checkout attempts", zap.Error(err))
		return
	}
	if n > 0 {
		p.log.Info("expired abandoned checkout attempts", zap.Int64("count", n))
	}
}
