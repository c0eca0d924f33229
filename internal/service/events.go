package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"linkmart/internal/config"
	"linkmart/internal/model"
	"linkmart/internal/repository"

	"gorm.io/gorm"
)

// events writes outbox rows in the caller's transaction; job.OutboxSender
// relays them to Kafka.
type events struct {
	outboxRepo *repository.OutboxRepository
	topics     config.KafkaTopicConfig
}

func newEvents(db *gorm.DB, cfg *config.Config) *events {
	return &events{
		outboxRepo: repository.NewOutboxRepository(db),
		topics:     cfg.Kafka.Topic,
	}
}

func (e *events) ledger(ctx context.Context, tx *gorm.DB, eventType, key string, payload map[string]interface{}) error {
	return e.write(ctx, tx, e.topics.LedgerEvents, eventType, key, payload)
}

func (e *events) admin(ctx context.Context, tx *gorm.DB, eventType, key string, payload map[string]interface{}) error {
	return e.write(ctx, tx, e.topics.AdminNotify, eventType, key, payload)
}

func (e *events) write(ctx context.Context, tx *gorm.DB, topic, eventType, key string, payload map[string]interface{}) error {
	payload["event"] = eventType
	payload["occurred_at"] = time.Now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		EventType:  eventType,
		Payload:    string(body),
		Status:     model.OutboxStatusPending,
	}
	if err := e.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox message: %w", err)
	}
	return nil
}
