package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/memory"
	outboxmodel "github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	err       error
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, _, routingKey, _ string, _ []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, routingKey)

	return nil
}

func TestWorker_PublishesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := memory.NewUnitOfWork(store).OutboxRepository()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, outboxmodel.OutboxMessage{
		QueueName:   "storefront.order.created",
		RoutingKey:  "storefront.order.created",
		Payload:     []byte(`{"id":"1"}`),
		ContentType: "application/json",
		MaxRetries:  5,
		NextRetryAt: now,
	}))

	pub := &fakePublisher{}
	w := NewWorker(repo, pub)
	w.now = func() time.Time { return now }

	w.ProcessMessages(ctx)

	assert.Equal(t, []string{"storefront.order.created"}, pub.published)
	_, _, messages := store.Counts()
	assert.Zero(t, messages)
}

func TestWorker_FailureSchedulesBackoff(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUnitOfWork(memory.NewStore()).OutboxRepository()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Insert(ctx, outboxmodel.OutboxMessage{
		RoutingKey:  "storefront.order.created",
		MaxRetries:  5,
		NextRetryAt: now,
	}))

	w := NewWorker(repo, &fakePublisher{err: errors.New("broker down")})
	w.now = func() time.Time { return now }

	w.ProcessMessages(ctx)

	pending, err := repo.GetPendingMessages(ctx, 10, now)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pending, err = repo.GetPendingMessages(ctx, 10, now.Add(60*time.Second))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, "broker down", pending[0].LastError)
	assert.True(t, pending[0].NextRetryAt.Equal(now.Add(60*time.Second)))
}

func TestWorker_BackoffDoubles(t *testing.T) {
	w := NewWorker(nil, nil)

	assert.Equal(t, 60*time.Second, w.backoff(1))
	assert.Equal(t, 120*time.Second, w.backoff(2))
	assert.Equal(t, 240*time.Second, w.backoff(3))
}
