package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
)

// IOutboxRepository stores order events until they are published.
type IOutboxRepository interface {
	Insert(ctx context.Context, msg outbox.OutboxMessage) error

	// GetPendingMessages returns up to limit messages due at now that still have retries left,
	// oldest due first.
	GetPendingMessages(ctx context.Context, limit int, now time.Time) ([]outbox.OutboxMessage, error)

	Delete(ctx context.Context, id int64) error

	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
