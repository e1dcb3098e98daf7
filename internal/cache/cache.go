package cache

import (
	"context"
	"time"

	"go-opname-ws/internal/repository"

	"github.com/google/uuid"
)

// SummaryCache stores opname progress summaries per session
type SummaryCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*repository.OpnameSummary, bool, error)
	Set(ctx context.Context, summary *repository.OpnameSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}

type NoopSummaryCache struct{}

func (NoopSummaryCache) Get(_ context.Context, _ uuid.UUID) (*repository.OpnameSummary, bool, error) {
	return nil, false, nil
}

func (NoopSummaryCache) Set(_ context.Context, _ *repository.OpnameSummary, _ time.Duration) error {
	return nil
}

func (NoopSummaryCache) Invalidate(_ context.Context, _ uuid.UUID) error {
	return nil
}
