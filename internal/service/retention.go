package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/repository"
)

// RelayRetentionService prunes relayed chat messages past their audit
// window. Signals are never touched: accepted signals are append-only.
type RelayRetentionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	MaxAge time.Duration
}

func (s *RelayRetentionService) Sweep(ctx context.Context) error {
	if s == nil || s.Repo == nil || s.MaxAge <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-s.MaxAge)
	removed, err := s.Repo.DeleteRelayMessagesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if s.Logger != nil && removed > 0 {
		s.Logger.Info("relay retention sweep",
			zap.Int64("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}
