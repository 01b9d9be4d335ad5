// Package syncer persists item edits to the backing document store while
// tolerating concurrent local mutation during the in-flight save.
//
// The protocol is lock-free: the dirty flag is cleared optimistically before
// the persist call, so an edit made while the save is in flight re-sets it.
// After the call resolves, the flag decides whether the store's canonical
// record may be merged back. The collection store's copy-on-write updates make
// that check a plain flag read. Callers must not issue two concurrent saves
// for the same item ID.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/repository"
	"github.com/m-mizutani/winnow/pkg/usecase/collection"
	"github.com/m-mizutani/winnow/pkg/utils/logging"
)

// DefaultSavedStateTTL is how long an item displays the "saved" state before
// reverting to idle
const DefaultSavedStateTTL = 10 * time.Second

// Coordinator flushes dirty items to the backing store one at a time
type Coordinator struct {
	store    *collection.Store
	repo     repository.Repository
	notifier adapter.Notifier
	savedTTL time.Duration

	mu     sync.Mutex
	timers map[model.ItemID]*time.Timer
}

// Option is a functional option for Coordinator
type Option func(*Coordinator)

// WithSavedStateTTL overrides the "saved" display duration
func WithSavedStateTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		c.savedTTL = d
	}
}

// New creates a save Coordinator
func New(store *collection.Store, repo repository.Repository, notifier adapter.Notifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		repo:     repo,
		notifier: notifier,
		savedTTL: DefaultSavedStateTTL,
		timers:   make(map[model.ItemID]*time.Timer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save persists one item's current edits.
//
// The dirty flag is cleared before the persist call is issued. If the user
// edits the item while the call is in flight, the flag flips back to true and
// the store's returned record is discarded for content fields, preserving the
// newer local edit for its own subsequent save. Locally derived dedup and
// discard fields are always kept across the merge.
func (c *Coordinator) Save(ctx context.Context, id model.ItemID) error {
	if !c.repo.IsEnabled() {
		c.notifier.Error("backing store is not configured")
		return goerr.Wrap(repository.ErrStoreDisabled, "save", goerr.Value("item_id", id))
	}

	// Capture the outgoing content in the same atomic mutation that clears
	// the dirty flag, so no edit can slip between the two.
	var outgoing *model.Item
	if err := c.store.Apply(id, func(it *model.Item) {
		it.SaveState = model.SaveStateSaving
		it.HasUnsavedChanges = false
		outgoing = it.Clone()
	}); err != nil {
		return err
	}

	saved, err := c.repo.UpdateItem(ctx, id, saveFields(outgoing))
	if err != nil {
		_ = c.store.Apply(id, func(it *model.Item) {
			it.HasUnsavedChanges = true
			it.SaveState = model.SaveStateIdle
		})
		c.notifier.Error("failed to save item")
		return goerr.Wrap(err, "failed to save item", goerr.Value("item_id", id))
	}

	if applyErr := c.store.Apply(id, func(it *model.Item) {
		if !it.HasUnsavedChanges {
			mergeCanonical(it, saved)
		} else {
			logging.From(ctx).Debug("item edited during save, keeping local content",
				"item_id", id)
		}
		it.SaveState = model.SaveStateSaved
	}); applyErr != nil {
		return applyErr
	}

	c.scheduleIdle(id)
	c.notifier.Success("item saved")
	return nil
}

// Rollback replaces the local item with the authoritative backing-store
// record and clears the dirty flag. Locally derived dedup fields are kept,
// since they are an analysis artifact, not persisted authority.
func (c *Coordinator) Rollback(ctx context.Context, id model.ItemID) error {
	if !c.repo.IsEnabled() {
		c.notifier.Error("backing store is not configured")
		return goerr.Wrap(repository.ErrStoreDisabled, "rollback", goerr.Value("item_id", id))
	}

	stored, err := c.repo.FetchItem(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			c.notifier.Error("no saved version found for item")
		} else {
			c.notifier.Error("failed to fetch saved item")
		}
		return goerr.Wrap(err, "failed to fetch saved item", goerr.Value("item_id", id))
	}

	return c.store.Apply(id, func(it *model.Item) {
		isDup, groupID := it.IsDuplicate, it.DuplicateGroupID

		*it = *stored.Clone()
		it.ID = id
		it.IsDuplicate = isDup
		it.DuplicateGroupID = groupID
		it.HasUnsavedChanges = false
		it.SaveState = model.SaveStateIdle
	})
}

// Close cancels pending saved-state reverts
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
}

func (c *Coordinator) scheduleIdle(id model.ItemID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.timers[id]; ok {
		prev.Stop()
	}
	c.timers[id] = time.AfterFunc(c.savedTTL, func() {
		_ = c.store.Apply(id, func(it *model.Item) {
			if it.SaveState == model.SaveStateSaved {
				it.SaveState = model.SaveStateIdle
			}
		})
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
	})
}

// saveFields builds the field subset sent to the backing store. Multi-turn
// items send the message sequence, single-turn items send query, reasoning
// and answer. Shared curation fields go either way.
func saveFields(item *model.Item) map[string]any {
	// The group tag is sent even when empty so a merge clears a stale tag
	// left by an earlier grouped save.
	fields := map[string]any{
		"score":              item.Score,
		"is_duplicate":       item.IsDuplicate,
		"is_discarded":       item.IsDiscarded,
		"duplicate_group_id": string(item.DuplicateGroupID),
	}

	if item.IsMultiTurn() {
		fields["messages"] = item.Messages
	} else {
		fields["query"] = item.Query
		fields["reasoning"] = item.Reasoning
		fields["answer"] = item.Answer
	}

	return fields
}

// mergeCanonical copies content fields from the store's canonical record into
// the local item, preserving locally derived dedup and discard state
func mergeCanonical(local, canonical *model.Item) {
	isDup, groupID, discarded := local.IsDuplicate, local.DuplicateGroupID, local.IsDiscarded

	local.Query = canonical.Query
	local.Reasoning = canonical.Reasoning
	local.Answer = canonical.Answer
	if canonical.Messages != nil {
		local.Messages = make([]model.Message, len(canonical.Messages))
		copy(local.Messages, canonical.Messages)
	}
	local.Score = canonical.Score
	local.Status = canonical.Status
	local.Error = canonical.Error
	local.UpdatedAt = canonical.UpdatedAt

	local.IsDuplicate = isDup
	local.DuplicateGroupID = groupID
	local.IsDiscarded = discarded
}
