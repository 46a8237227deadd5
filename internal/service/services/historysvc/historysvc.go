// Package historysvc remembers which products a customer ordered so listings can show
// them first. The history is a hint: failures are logged and never surface to callers.
package historysvc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/corray333/backend-labs/storefront/internal/dal/kvstore"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/spf13/viper"
)

// Store is a local key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// HistoryService reads and appends the previously ordered product ids.
type HistoryService struct {
	store Store
	key   string
}

type option func(*HistoryService)

// MustNewHistoryService creates a new HistoryService.
func MustNewHistoryService(opts ...option) *HistoryService {
	s := &HistoryService{key: viper.GetString("history.key")}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		panic("historysvc: store is required")
	}
	if s.key == "" {
		s.key = "previousOrders"
	}

	return s
}

// WithStore sets the backing store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStore(store Store) option {
	return func(s *HistoryService) {
		s.store = store
	}
}

// WithKey overrides the storage key.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithKey(key string) option {
	return func(s *HistoryService) {
		s.key = key
	}
}

// Load returns the recorded ids in insertion order. Missing or unreadable history is empty.
func (s *HistoryService) Load(ctx context.Context) []string {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			slog.Warn("Error reading order history", "error", err)
		}

		return []string{}
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("Order history is corrupt, starting over", "error", err)

		return []string{}
	}

	return ids
}

// Record appends ids not yet present, keeping the first-seen order.
func (s *HistoryService) Record(ctx context.Context, ids ...string) {
	current := s.Load(ctx)
	updated := merge(current, ids)
	if len(updated) == len(current) {
		return
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		slog.Warn("Error encoding order history", "error", err)

		return
	}
	if err := s.store.Set(ctx, s.key, raw); err != nil {
		slog.Warn("Error saving order history", "error", err)
	}
}

// Prioritize moves products found in history to the front, keeping relative order in both groups.
func (s *HistoryService) Prioritize(ctx context.Context, products []product.Product) []product.Product {
	return Prioritize(products, s.Load(ctx))
}

func merge(current, ids []string) []string {
	seen := make(map[string]struct{}, len(current)+len(ids))
	out := slices.Clone(current)
	for _, id := range current {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}

// Prioritize is a stable partition: products whose id is in history come first.
func Prioritize(products []product.Product, history []string) []product.Product {
	if len(history) == 0 {
		return slices.Clone(products)
	}

	known := make(map[string]struct{}, len(history))
	for _, id := range history {
		known[id] = struct{}{}
	}

	out := make([]product.Product, 0, len(products))
	rest := make([]product.Product, 0, len(products))
	for _, p := range products {
		if _, ok := known[p.ID]; ok {
			out = append(out, p)
		} else {
			rest = append(rest, p)
		}
	}

	return append(out, rest...)
}
