package interfaces

import (
	"context"
	"io"

	"donorhub/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Notifier tells operators about finished bulk assignment runs.
type Notifier interface {
	NotifyRun(ctx context.Context, run *models.AssignmentRun) error
}

// ObjectStore keeps exported reports.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}
