package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/localstore"
	"github.com/m-mizutani/winnow/pkg/repository"
	"github.com/m-mizutani/winnow/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	// Local store
	dbPath    string
	sessionID string

	// Backing document store
	project    string
	database   string
	collection string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db",
			Usage:       "Path to local session database",
			Value:       "winnow.db",
			Sources:     cli.EnvVars("WINNOW_DB"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "session",
			Aliases:     []string{"s"},
			Usage:       "Session ID to operate on",
			Sources:     cli.EnvVars("WINNOW_SESSION"),
			Destination: &cfg.sessionID,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("WINNOW_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// storeFlags returns flags for the backing document store
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Aliases:     []string{"c"},
			Usage:       "Firestore collection holding item documents",
			Value:       "items",
			Sources:     cli.EnvVars("WINNOW_COLLECTION"),
			Destination: &cfg.collection,
		},
	}
}

// setup applies the logging configuration
func (cfg *config) setup() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newLocalStore opens the local session database
func (cfg *config) newLocalStore() (*localstore.Store, error) {
	if cfg.dbPath == "" {
		return nil, goerr.New("local database path is required")
	}
	store, err := localstore.Open(cfg.dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open local store")
	}
	return store, nil
}

// newRepository creates the backing document store. An unset project yields
// the disabled null repository; save and rollback report the configuration
// error at operation time.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return repository.Disabled(), nil
	}
	repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database, cfg.collection)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newNotifier creates the user notification sink
func (cfg *config) newNotifier() adapter.Notifier {
	return adapter.NewConsoleNotifier(os.Stderr)
}
