// Package job runs the background work that keeps the ledger honest: relaying
// outbox events, reconciling stale deposits and syncing dispatched boosts.
package job

import (
	"context"
	"sync"
	"time"

	"linkmart/internal/config"
	"linkmart/internal/infrastructure/mq"
	"linkmart/internal/metrics"
	"linkmart/internal/model"
	"linkmart/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ============================================================================
// Outbox relay
// ============================================================================
//
// Services write outbox_message rows in the same transaction as the ledger
// change they describe. This job polls PENDING rows in creation order and
// publishes each one:
//
//   - publish ok            -> SENT
//   - publish failed        -> retry_count + 1, stays PENDING
//   - last allowed attempt  -> FAILED (retry_count + 1), left for
//     POST /admin/outbox/retry
//
// Delivery is at least once: a crash between Publish and MarkSent sends the
// row again, and consumers dedupe on the message key.

// OutboxSender relays pending outbox rows to the publisher.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	maxRetries int
	interval   time.Duration
	batchSize  int
	log        *logrus.Entry

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewOutboxSender(db *gorm.DB, cfg *config.Config, publisher mq.Publisher) *OutboxSender {
	maxRetries := cfg.Business.MaxRetryCount
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		maxRetries: maxRetries,
		interval:   500 * time.Millisecond,
		batchSize:  100,
		log:        logrus.WithField("component", "outbox_sender"),
		stopCh:     make(chan struct{}),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("outbox sender stopping: context done")
			return
		case <-s.stopCh:
			s.log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// RunOnce sends one batch of pending messages and reports how many went out.
func (s *OutboxSender) RunOnce(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.WithError(err).Error("load pending outbox messages")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	logger := s.log.WithFields(logrus.Fields{
		"id":    msg.ID,
		"topic": msg.Topic,
		"key":   msg.MessageKey,
		"event": msg.EventType,
	})

	err := s.publisher.Publish(ctx, msg.Topic, msg.MessageKey, []byte(msg.Payload))
	if err == nil {
		metrics.RecordOutbox("sent")
		if err := s.outboxRepo.MarkSent(ctx, msg.ID); err != nil {
			// the row stays pending and is sent again; consumers dedupe on key
			logger.WithError(err).Error("mark outbox message sent")
		}
		return true
	}

	logger = logger.WithError(err).WithField("retry_count", msg.RetryCount+1)

	// MarkAsFailed bumps retry_count itself
	if msg.RetryCount+1 >= s.maxRetries {
		metrics.RecordOutbox("failed")
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			logger.WithError(err).Error("mark outbox message failed")
			return false
		}
		logger.Error("outbox message gave up after max retries")
		return false
	}

	metrics.RecordOutbox("retry")
	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		logger.WithError(err).Error("increment outbox retry count")
	}
	logger.Warn("publish outbox message")
	return false
}
