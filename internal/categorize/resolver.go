package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/category"
)

//go:generate mockgen -source=resolver.go -destination=resolver_mock.go -package=categorize
type CategoryLister interface {
	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]*category.Category, error)
}

type HistoryFinder interface {
	LatestCategory(ctx context.Context, ownerID uuid.UUID, description, excludeExternalID string) (*uuid.UUID, error)
}

type Resolver struct {
	categories CategoryLister
	history    HistoryFinder
	cache      *Cache
}

func NewResolver(categories CategoryLister, history HistoryFinder, cache *Cache) *Resolver {
	return &Resolver{categories: categories, history: history, cache: cache}
}

// Resolve picks a category for one statement item. Tiers are tried in order:
// description dictionary, merchant code, the owner's own history, then the
// owner's "Uncategorized" category. A nil id means no tier matched.
func (r *Resolver) Resolve(ctx context.Context, ownerID uuid.UUID, description string, mcc int, externalID string) (*uuid.UUID, error) {
	description = strings.TrimSpace(description)

	tables, err := r.cache.Tables()
	if err != nil {
		return nil, err
	}

	idx, err := r.cache.Index(ctx, ownerID, r.categories.ListCategories)
	if err != nil {
		return nil, err
	}

	if description != "" {
		if name, ok := tables.Description(description); ok {
			if id, ok := idx.Lookup(name); ok {
				return &id, nil
			}

			slog.Debug("dictionary category missing for owner", "owner_id", ownerID, "category", name)
		}
	}

	if mcc > 0 {
		if name, ok := tables.MCC(mcc); ok {
			if id, ok := idx.Lookup(name); ok {
				return &id, nil
			}
		}
	}

	if description != "" {
		id, err := r.history.LatestCategory(ctx, ownerID, description, externalID)
		if err != nil {
			return nil, fmt.Errorf("history lookup: %w", err)
		}

		if id != nil {
			return id, nil
		}
	}

	return idx.Fallback(), nil
}
