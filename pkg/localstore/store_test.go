package localstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/winnow/pkg/localstore"
	"github.com/m-mizutani/winnow/pkg/model"
)

func openStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "winnow.db"))
	gt.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newSession(name string) *model.Session {
	now := time.Now().Truncate(time.Second)
	return &model.Session{
		ID:        model.NewSessionID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	session := newSession("batch-7")
	gt.NoError(t, store.PutSession(ctx, session))

	loaded, err := store.GetSession(ctx, session.ID)
	gt.NoError(t, err)
	gt.Equal(t, loaded.ID, session.ID)
	gt.Equal(t, loaded.Name, "batch-7")
	gt.Nil(t, loaded.Analytics)
}

func TestGetSessionNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.GetSession(context.Background(), "no-such-session")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, localstore.ErrSessionNotFound))
}

func TestUpdateSessionAnalytics(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	session := newSession("batch-8")
	gt.NoError(t, store.PutSession(ctx, session))

	snapshot := &model.AnalyticsSnapshot{
		TotalItems:     10,
		CompletedItems: 8,
		ErrorItems:     2,
		SuccessRate:    80,
		LastUpdated:    time.Now(),
	}
	gt.NoError(t, store.UpdateSessionAnalytics(ctx, session.ID, snapshot))

	loaded, err := store.GetSession(ctx, session.ID)
	gt.NoError(t, err)
	gt.NotNil(t, loaded.Analytics)
	gt.Equal(t, loaded.Analytics.TotalItems, 10)
	gt.Equal(t, loaded.Analytics.SuccessRate, 80.0)
}

func TestUpdateAnalyticsUnknownSession(t *testing.T) {
	store := openStore(t)
	err := store.UpdateSessionAnalytics(context.Background(), "missing", &model.AnalyticsSnapshot{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, localstore.ErrSessionNotFound))
}

func TestItemsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	session := newSession("batch-9")
	gt.NoError(t, store.PutSession(ctx, session))

	items := []*model.Item{
		{
			ID:                "item-1",
			Query:             "q1",
			Answer:            "a1",
			Score:             0.9,
			HasUnsavedChanges: true,
		},
		{
			ID: "item-2",
			Messages: []model.Message{
				{Role: model.RoleUser, Content: "hi"},
			},
			IsDiscarded: true,
		},
	}
	gt.NoError(t, store.PutItems(ctx, session.ID, items))

	loaded, err := store.GetItems(ctx, session.ID)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(2)

	gt.Equal(t, loaded[0].ID, model.ItemID("item-1"))
	gt.True(t, loaded[0].HasUnsavedChanges) // dirty flag survives reload
	gt.Equal(t, loaded[0].SaveState, model.SaveStateIdle)
	gt.A(t, loaded[1].Messages).Length(1)
	gt.True(t, loaded[1].IsDiscarded)
}

func TestPutItemsReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	session := newSession("batch-10")
	gt.NoError(t, store.PutSession(ctx, session))

	gt.NoError(t, store.PutItems(ctx, session.ID, []*model.Item{
		{ID: "old-1"}, {ID: "old-2"},
	}))
	gt.NoError(t, store.PutItems(ctx, session.ID, []*model.Item{
		{ID: "new-1"},
	}))

	loaded, err := store.GetItems(ctx, session.ID)
	gt.NoError(t, err)
	gt.A(t, loaded).Length(1)
	gt.Equal(t, loaded[0].ID, model.ItemID("new-1"))
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	first := newSession("first")
	first.UpdatedAt = time.Now().Add(-time.Hour)
	second := newSession("second")

	gt.NoError(t, store.PutSession(ctx, first))
	gt.NoError(t, store.PutSession(ctx, second))

	sessions, err := store.ListSessions(ctx)
	gt.NoError(t, err)
	gt.A(t, sessions).Length(2)
	gt.Equal(t, sessions[0].Name, "second") // most recently updated first
}
