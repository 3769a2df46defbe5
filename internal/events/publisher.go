// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TopicWithdrawals = "commission.withdrawals"
	TopicWallets     = "commission.wallets"
	TopicCommissions = "commission.items"
)

// Publisher dispatches domain events to the notification side-channel.
type Publisher interface {
	PublishWithdrawal(ctx context.Context, event WithdrawalEvent) error
	PublishWallet(ctx context.Context, event WalletEvent) error
	PublishCommission(ctx context.Context, event CommissionEvent) error
}

// KafkaPublisher writes events to Kafka, keyed by agent so per-agent ordering
// is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
	}
	return err
}

func (p *KafkaPublisher) PublishWithdrawal(ctx context.Context, event WithdrawalEvent) error {
	return p.publish(ctx, TopicWithdrawals, event.AgentID, event)
}

func (p *KafkaPublisher) PublishWallet(ctx context.Context, event WalletEvent) error {
	return p.publish(ctx, TopicWallets, event.AgentID, event)
}

func (p *KafkaPublisher) PublishCommission(ctx context.Context, event CommissionEvent) error {
	return p.publish(ctx, TopicCommissions, event.AgentID, event)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured (local development,
// tests). Events are dropped silently.
type NoopPublisher struct{}

func (NoopPublisher) PublishWithdrawal(context.Context, WithdrawalEvent) error { return nil }
func (NoopPublisher) PublishWallet(context.Context, WalletEvent) error         { return nil }
func (NoopPublisher) PublishCommission(context.Context, CommissionEvent) error { return nil }
