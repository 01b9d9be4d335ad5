package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/localstore"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/usecase/analytics"
	"github.com/m-mizutani/winnow/pkg/usecase/collection"
	"github.com/urfave/cli/v3"
)

// itemArg returns the item ID positional argument
func itemArg(c *cli.Command) (model.ItemID, error) {
	id := c.Args().First()
	if id == "" {
		return "", goerr.New("item ID argument is required")
	}
	return model.ItemID(id), nil
}

// workspace binds one session's working collection and analytics cache for
// the duration of a command
type workspace struct {
	local    *localstore.Store
	session  *model.Session
	items    *collection.Store
	cache    *analytics.Cache
	notifier adapter.Notifier
}

// openWorkspace loads the session and its working items from the local store
func (cfg *config) openWorkspace(ctx context.Context) (*workspace, error) {
	if cfg.sessionID == "" {
		return nil, goerr.New("session ID is required (use --session)")
	}

	local, err := cfg.newLocalStore()
	if err != nil {
		return nil, err
	}

	session, err := local.GetSession(ctx, model.SessionID(cfg.sessionID))
	if err != nil {
		local.Close()
		return nil, err
	}

	items, err := local.GetItems(ctx, session.ID)
	if err != nil {
		local.Close()
		return nil, err
	}

	store := collection.New()
	store.Replace(items)

	cache := analytics.New(store, local, session.ID)
	cache.Load(session.Analytics)

	return &workspace{
		local:    local,
		session:  session,
		items:    store,
		cache:    cache,
		notifier: cfg.newNotifier(),
	}, nil
}

// flush writes the working collection and session record back to the local
// store
func (w *workspace) flush(ctx context.Context) error {
	if err := w.local.PutItems(ctx, w.session.ID, w.items.Items()); err != nil {
		return goerr.Wrap(err, "failed to persist working items")
	}

	w.session.Analytics = w.cache.Update(ctx, false)
	w.session.UpdatedAt = time.Now()
	if err := w.local.PutSession(ctx, w.session); err != nil {
		return goerr.Wrap(err, "failed to persist session")
	}
	return nil
}

// Close tears down the analytics cache before releasing the database, so no
// debounced recompute can write to a closed store
func (w *workspace) Close() {
	w.cache.Close()
	_ = w.local.Close()
}
