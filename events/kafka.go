// Package events publishes cart lifecycle events to Kafka for downstream
// consumers such as checkout and abandoned-cart mailers.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/junaidrashid-git/storefront-api/cart"
)

// Publisher is a cart.Notifier. Writes are asynchronous; delivery failures
// are logged and counted, never surfaced to the request.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger

	// OnResult, when set, observes every completed batch.
	OnResult func(err error)
}

// NewPublisher returns nil when brokersCSV names no broker.
func NewPublisher(brokersCSV, topic string, log *zap.Logger) *Publisher {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil
	}
	p := &Publisher{log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion:   p.completed,
	}
	return p
}

func splitBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (p *Publisher) completed(msgs []kafka.Message, err error) {
	if err != nil {
		p.log.Warn("cart events not delivered", zap.Int("count", len(msgs)), zap.Error(err))
	}
	if p.OnResult != nil {
		p.OnResult(err)
	}
}

func (p *Publisher) CartChanged(ctx context.Context, e cart.Event) {
	msg, err := Message(e)
	if err != nil {
		p.log.Error("encode cart event", zap.String("cart_id", e.CartID), zap.Error(err))
		return
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("enqueue cart event", zap.String("cart_id", e.CartID), zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Message encodes an event keyed by cart id, so one cart's events stay
// ordered within a partition.
func Message(e cart.Event) (kafka.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.CartID),
		Value: data,
		Time:  e.At.UTC(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}, nil
}
