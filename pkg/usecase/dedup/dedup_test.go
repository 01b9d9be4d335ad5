package dedup_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/usecase/collection"
	"github.com/m-mizutani/winnow/pkg/usecase/dedup"
)

type silentNotifier struct{}

func (silentNotifier) Info(string)    {}
func (silentNotifier) Success(string) {}
func (silentNotifier) Error(string)   {}

func mustGet(t *testing.T, store *collection.Store, id model.ItemID) *model.Item {
	t.Helper()
	item, err := store.Get(id)
	gt.NoError(t, err)
	return item
}

func newItem(id, query string, score float64) *model.Item {
	return &model.Item{
		ID:    model.ItemID(id),
		Query: query,
		Score: score,
	}
}

func TestAnalyzeGroupsByNormalizedKey(t *testing.T) {
	items := []*model.Item{
		newItem("a", "What is Go?", 0.9),
		newItem("b", "  what is go?  ", 0.8),
		newItem("c", "Something else", 0.7),
	}

	dedup.Analyze(items)

	gt.True(t, items[0].IsDuplicate)
	gt.True(t, items[1].IsDuplicate)
	gt.False(t, items[2].IsDuplicate)
	gt.NotEqual(t, items[0].DuplicateGroupID, model.GroupID(""))
	gt.Equal(t, items[0].DuplicateGroupID, items[1].DuplicateGroupID)
	gt.Equal(t, items[2].DuplicateGroupID, model.GroupID(""))
}

func TestAnalyzeGroupsEmptyKeysTogether(t *testing.T) {
	blank := newItem("a", "   ", 0.4)
	empty := newItem("b", "", 0.6)
	items := []*model.Item{
		blank,
		empty,
		newItem("c", "real question", 0.5),
	}

	dedup.Analyze(items)

	// Items with no meaningful content normalize to the same empty key and
	// form one group like any other key
	gt.True(t, blank.IsDuplicate)
	gt.True(t, empty.IsDuplicate)
	gt.NotEqual(t, blank.DuplicateGroupID, model.GroupID(""))
	gt.Equal(t, blank.DuplicateGroupID, empty.DuplicateGroupID)
	gt.False(t, items[2].IsDuplicate)
}

func TestAnalyzeNoSingletonGroups(t *testing.T) {
	items := []*model.Item{
		newItem("a", "q1", 0.5),
		newItem("b", "q2", 0.5),
		newItem("c", "q3", 0.5),
	}

	dedup.Analyze(items)

	for _, item := range items {
		gt.False(t, item.IsDuplicate)
		gt.Equal(t, item.DuplicateGroupID, model.GroupID(""))
	}
}

func TestAnalyzeEveryDuplicateSharesGroup(t *testing.T) {
	items := []*model.Item{
		newItem("a", "x", 0.1),
		newItem("b", "x", 0.2),
		newItem("c", "y", 0.3),
		newItem("d", "y", 0.4),
		newItem("e", "y", 0.5),
	}

	dedup.Analyze(items)

	bySize := map[model.GroupID]int{}
	for _, item := range items {
		if item.IsDuplicate {
			gt.NotEqual(t, item.DuplicateGroupID, model.GroupID(""))
			bySize[item.DuplicateGroupID]++
		}
	}
	gt.Equal(t, len(bySize), 2)
	for _, n := range bySize {
		gt.Number(t, n).GreaterOrEqual(2)
	}
}

func TestAnalyzeExcludesDiscarded(t *testing.T) {
	discarded := newItem("a", "same", 0.9)
	discarded.IsDiscarded = true
	items := []*model.Item{
		discarded,
		newItem("b", "same", 0.8),
	}

	dedup.Analyze(items)

	gt.False(t, items[0].IsDuplicate)
	gt.False(t, items[1].IsDuplicate)
}

func TestAnalyzeIdempotentMembership(t *testing.T) {
	items := []*model.Item{
		newItem("a", "q", 0.1),
		newItem("b", "q", 0.2),
		newItem("c", "r", 0.3),
	}

	dedup.Analyze(items)
	first := make([]bool, len(items))
	for i, item := range items {
		first[i] = item.IsDuplicate
	}

	dedup.Analyze(items)
	for i, item := range items {
		gt.Equal(t, item.IsDuplicate, first[i])
	}
}

func TestAnalyzeResetsStaleFlags(t *testing.T) {
	stale := newItem("a", "unique", 0.5)
	stale.IsDuplicate = true
	stale.DuplicateGroupID = model.GroupID("old-group")

	items := []*model.Item{stale, newItem("b", "other", 0.5)}
	dedup.Analyze(items)

	gt.False(t, stale.IsDuplicate)
	gt.Equal(t, stale.DuplicateGroupID, model.GroupID(""))
}

func TestRescanMarksChangedItemsDirty(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("a", "q", 0.1),
		newItem("b", "q", 0.2),
		newItem("c", "r", 0.3),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()

	a := mustGet(t, store, "a")
	b := mustGet(t, store, "b")
	c := mustGet(t, store, "c")

	gt.True(t, a.IsDuplicate)
	gt.True(t, a.HasUnsavedChanges)
	gt.True(t, b.HasUnsavedChanges)
	gt.False(t, c.IsDuplicate)
	gt.False(t, c.HasUnsavedChanges)
}

func TestRescanRedirtiesOnNewGroupID(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("a", "q", 0.1),
		newItem("b", "q", 0.2),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()

	// Clear dirt as if the items were saved, then re-scan. Membership is
	// unchanged, but each pass issues a fresh group ID and the group tag is
	// persisted state, so members come back dirty.
	store.ApplyAll(func(item *model.Item) {
		item.HasUnsavedChanges = false
	})
	engine.Rescan()

	a := mustGet(t, store, "a")
	gt.True(t, a.IsDuplicate)
	gt.True(t, a.HasUnsavedChanges)
}

func TestToggleDuplicate(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("a", "q", 0.1),
		newItem("b", "q", 0.2),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()
	store.ApplyAll(func(item *model.Item) {
		item.HasUnsavedChanges = false
	})

	gt.NoError(t, engine.ToggleDuplicate("a"))

	a := mustGet(t, store, "a")
	b := mustGet(t, store, "b")
	gt.False(t, a.IsDuplicate)
	gt.True(t, a.HasUnsavedChanges)
	// Group membership and the other member are untouched
	gt.NotEqual(t, a.DuplicateGroupID, model.GroupID(""))
	gt.True(t, b.IsDuplicate)
	gt.False(t, b.HasUnsavedChanges)
}

func TestToggleUnknownItem(t *testing.T) {
	store := collection.New()
	engine := dedup.New(store, silentNotifier{})
	gt.Error(t, engine.ToggleDuplicate("nope"))
}

func TestAutoResolveKeepsBestScore(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("winner", "q", 0.9),
		newItem("loser", "q", 0.7),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()
	gt.Equal(t, engine.AutoResolve(), 1)

	winner := mustGet(t, store, "winner")
	loser := mustGet(t, store, "loser")
	gt.False(t, winner.IsDiscarded)
	gt.True(t, loser.IsDiscarded)
	gt.True(t, loser.HasUnsavedChanges)
}

func TestAutoResolveTieBreaksOnAnswerLength(t *testing.T) {
	long := newItem("long", "q", 0.8)
	long.Answer = "this answer is quite a bit longer than the other one here."
	short := newItem("short", "q", 0.8)
	short.Answer = "short one."

	store := collection.New()
	store.Replace([]*model.Item{short, long})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()
	engine.AutoResolve()

	gt.False(t, mustGet(t, store, "long").IsDiscarded)
	gt.True(t, mustGet(t, store, "short").IsDiscarded)
}

func TestAutoResolveCountsOnlyApplied(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("a", "q", 0.9),
		newItem("b", "q", 0.5),
		newItem("c", "q", 0.3),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()

	// Drop item c right after the first discard lands, so the second apply
	// has nothing to hit
	var dropped bool
	store.OnChange(func(int) {
		if dropped {
			return
		}
		dropped = true
		kept := make([]*model.Item, 0, 2)
		for _, item := range store.Items() {
			if item.ID != "c" {
				kept = append(kept, item)
			}
		}
		store.Replace(kept)
	})

	gt.Equal(t, engine.AutoResolve(), 1)
	gt.True(t, mustGet(t, store, "b").IsDiscarded)
}

func TestAutoResolveIdempotent(t *testing.T) {
	store := collection.New()
	store.Replace([]*model.Item{
		newItem("a", "q", 0.9),
		newItem("b", "q", 0.7),
		newItem("c", "q", 0.5),
	})

	engine := dedup.New(store, silentNotifier{})
	engine.Rescan()
	gt.Equal(t, engine.AutoResolve(), 2)

	discardedOnce := discardSet(store)

	// Losers are discarded and excluded from grouping, so a second pass is
	// a no-op.
	engine.Rescan()
	gt.Equal(t, engine.AutoResolve(), 0)
	gt.Equal(t, discardSet(store), discardedOnce)
}

func discardSet(store *collection.Store) map[model.ItemID]bool {
	set := map[model.ItemID]bool{}
	for _, item := range store.Items() {
		if item.IsDiscarded {
			set[item.ID] = true
		}
	}
	return set
}
