package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
)

var (
	ErrStoreDisabled = goerr.New("backing store is not configured")
	ErrItemNotFound  = goerr.New("item not found in backing store")
)

// Repository is the backing document store for item persistence. It owns the
// authoritative persisted version of each item; the in-memory collection is a
// working copy superseded by the store only through an explicit rollback.
type Repository interface {
	// IsEnabled reports whether the store is configured and reachable
	IsEnabled() bool

	// UpdateItem merges the given fields into the stored item and returns the
	// resulting canonical record
	UpdateItem(ctx context.Context, id model.ItemID, fields map[string]any) (*model.Item, error)

	// FetchItem retrieves the authoritative record for one item. It returns
	// ErrItemNotFound if no such item exists.
	FetchItem(ctx context.Context, id model.ItemID) (*model.Item, error)

	// SaveFinalDataset writes verified items into the named collection and
	// returns the number of items written
	SaveFinalDataset(ctx context.Context, items []*model.Item, collection string) (int, error)
}

// Disabled returns a null Repository for the unconfigured case. Every
// operation fails with ErrStoreDisabled.
func Disabled() Repository {
	return &disabledRepo{}
}

type disabledRepo struct{}

func (r *disabledRepo) IsEnabled() bool { return false }

func (r *disabledRepo) UpdateItem(ctx context.Context, id model.ItemID, fields map[string]any) (*model.Item, error) {
	return nil, goerr.Wrap(ErrStoreDisabled, "update item")
}

func (r *disabledRepo) FetchItem(ctx context.Context, id model.ItemID) (*model.Item, error) {
	return nil, goerr.Wrap(ErrStoreDisabled, "fetch item")
}

func (r *disabledRepo) SaveFinalDataset(ctx context.Context, items []*model.Item, collection string) (int, error) {
	return 0, goerr.Wrap(ErrStoreDisabled, "save final dataset")
}
