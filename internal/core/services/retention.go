package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-labs/pickup-core/internal/core/ports/driven"
)

// RetentionLockName is the distributed lock guarding the sweep.
const RetentionLockName = "retention-sweep"

// RetentionSweeper deletes intakes past their retention period.
//
// For multi-worker deployments, configure a DistributedLock so that only
// one instance sweeps per run.
type RetentionSweeper struct {
	store     driven.IntakeStore
	lock      driven.DistributedLock
	retention time.Duration
	lockTTL   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// RetentionConfig holds configuration for the sweeper.
type RetentionConfig struct {
	Store     driven.IntakeStore
	Lock      driven.DistributedLock // Optional: distributed lock for multi-instance coordination
	Retention time.Duration          // How long intakes are kept (default: 30 days)
	LockTTL   time.Duration          // TTL for the distributed lock (default: 10m)
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewRetentionSweeper creates a new sweeper.
func NewRetentionSweeper(cfg RetentionConfig) *RetentionSweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 10 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &RetentionSweeper{
		store:     cfg.Store,
		lock:      cfg.Lock,
		retention: retention,
		lockTTL:   lockTTL,
		now:       now,
		logger:    logger,
	}
}

// Run performs one sweep and returns how many intakes were deleted.
// A sweep is skipped when another instance holds the lock or the lock
// backend is unavailable.
func (s *RetentionSweeper) Run(ctx context.Context) (int64, error) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, RetentionLockName, s.lockTTL)
		if err != nil {
			s.logger.Warn("failed to acquire retention lock", "error", err)
			return 0, nil
		}
		if !acquired {
			s.logger.Debug("retention lock held by another instance, skipping sweep")
			return 0, nil
		}
		defer func() {
			if err := s.lock.Release(ctx, RetentionLockName); err != nil {
				s.logger.Warn("failed to release retention lock", "error", err)
			}
		}()
	}

	cutoff := s.now().Add(-s.retention)
	removed, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}

	s.logger.Info("retention sweep finished", "cutoff", cutoff, "removed", removed)
	return removed, nil
}
