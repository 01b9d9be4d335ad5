// Package dedup groups items by normalized content key and resolves
// duplicate groups deterministically.
package dedup

import (
	"sort"

	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/usecase/collection"
)

// Analyze recomputes duplicate grouping over the supplied items in place.
// All dedup fields are reset first, then items sharing a normalized content
// key form a group tagged with a fresh single-use group ID. Discarded items
// never participate. A group always has at least two members.
func Analyze(items []*model.Item) {
	for _, item := range items {
		item.IsDuplicate = false
		item.DuplicateGroupID = ""
	}

	byKey := make(map[string][]*model.Item)
	keys := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsDiscarded {
			continue
		}
		key := item.Key()
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], item)
	}

	for _, key := range keys {
		group := byKey[key]
		if len(group) < 2 {
			continue
		}
		groupID := model.NewGroupID()
		for _, item := range group {
			item.IsDuplicate = true
			item.DuplicateGroupID = groupID
		}
	}
}

// Engine runs duplicate analysis and resolution against a collection store
type Engine struct {
	store    *collection.Store
	notifier adapter.Notifier
}

// New creates a dedup Engine bound to a store
func New(store *collection.Store, notifier adapter.Notifier) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
	}
}

// Rescan runs duplicate analysis over a defensive copy of the collection and
// commits the result. Items whose dedup fields changed are marked dirty, since
// those fields are persisted alongside the item. The commit is skipped if the
// collection size changed while the pass ran.
func (e *Engine) Rescan() {
	before := e.store.Snapshot()
	scanned := make([]*model.Item, len(before))
	for i, item := range before {
		scanned[i] = item.Clone()
	}

	Analyze(scanned)

	if e.store.Len() != len(before) {
		e.notifier.Info("collection changed during re-scan, skipping")
		return
	}

	prior := make(map[model.ItemID]*model.Item, len(before))
	for _, item := range before {
		prior[item.ID] = item
	}

	for _, item := range scanned {
		old, ok := prior[item.ID]
		if !ok {
			continue
		}
		if old.IsDuplicate != item.IsDuplicate || old.DuplicateGroupID != item.DuplicateGroupID {
			item.HasUnsavedChanges = true
		}
	}
	e.store.Replace(scanned)

	e.notifier.Success("duplicate scan finished")
}

// ToggleDuplicate flips one item's duplicate flag as a manual override and
// marks it dirty. Group membership and other group members are untouched; a
// subsequent Rescan recomputes grouping from scratch and may override this.
func (e *Engine) ToggleDuplicate(id model.ItemID) error {
	return e.store.Apply(id, func(item *model.Item) {
		item.IsDuplicate = !item.IsDuplicate
		item.HasUnsavedChanges = true
	})
}

// AutoResolve discards every member of each duplicate group except the
// top-ranked one. Rank is score descending, ties broken by answer length
// descending. Already-discarded items are excluded from grouping, so running
// AutoResolve on a resolved collection is a no-op.
func (e *Engine) AutoResolve() int {
	groups := make(map[model.GroupID][]*model.Item)
	for _, item := range e.store.Items() {
		if item.IsDiscarded || !item.IsDuplicate || item.DuplicateGroupID == "" {
			continue
		}
		groups[item.DuplicateGroupID] = append(groups[item.DuplicateGroupID], item)
	}

	resolved := 0
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].Score != members[j].Score {
				return members[i].Score > members[j].Score
			}
			return members[i].AnswerLen() > members[j].AnswerLen()
		})
		for _, loser := range members[1:] {
			err := e.store.Apply(loser.ID, func(item *model.Item) {
				item.IsDiscarded = true
				item.HasUnsavedChanges = true
			})
			if err != nil {
				// Item vanished between snapshot and apply; do not count it
				continue
			}
			resolved++
		}
	}

	return resolved
}
