package job

import (
	"context"
	"fmt"
	"time"

	"linkmart/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DepositReconciler re-verifies deposits stuck in pending.
type DepositReconciler interface {
	ReconcileStale(ctx context.Context, limit int) (int, error)
}

// BoostSyncer polls the provider for boosts still processing.
type BoostSyncer interface {
	SyncDispatched(ctx context.Context, limit int) (int, error)
}

// Scheduler runs the periodic reconciliation jobs on cron schedules.
type Scheduler struct {
	cron      *cron.Cron
	deposits  DepositReconciler
	boosts    BoostSyncer
	batchSize int
	timeout   time.Duration
	log       *logrus.Entry
}

func NewScheduler(cfg *config.Config, deposits DepositReconciler, boosts BoostSyncer) (*Scheduler, error) {
	log := logrus.WithField("component", "scheduler")
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(log)),
			cron.SkipIfStillRunning(cron.PrintfLogger(log)),
		)),
		deposits:  deposits,
		boosts:    boosts,
		batchSize: 50,
		timeout:   2 * time.Minute,
		log:       log,
	}

	if _, err := s.cron.AddFunc(schedule(cfg.Business.ReconcileSchedule, "@every 5m"), s.ReconcileDeposits); err != nil {
		return nil, fmt.Errorf("schedule deposit reconciler: %w", err)
	}
	if _, err := s.cron.AddFunc(schedule(cfg.Business.BoostSyncSchedule, "@every 2m"), s.SyncBoosts); err != nil {
		return nil, fmt.Errorf("schedule boost sync: %w", err)
	}
	return s, nil
}

func schedule(spec, fallback string) string {
	if spec == "" {
		return fallback
	}
	return spec
}

func (s *Scheduler) Start() {
	s.log.WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) ReconcileDeposits() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	settled, err := s.deposits.ReconcileStale(ctx, s.batchSize)
	if err != nil {
		s.log.WithError(err).Error("reconcile stale deposits")
		return
	}
	if settled > 0 {
		s.log.WithField("settled", settled).Info("stale deposits reconciled")
	}
}

func (s *Scheduler) SyncBoosts() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	updated, err := s.boosts.SyncDispatched(ctx, s.batchSize)
	if err != nil {
		s.log.WithError(err).Error("sync dispatched boosts")
		return
	}
	if updated > 0 {
		s.log.WithField("updated", updated).Info("dispatched boosts synced")
	}
}
