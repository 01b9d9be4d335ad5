package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/usecase/syncer"
	"github.com/urfave/cli/v3"
)

func saveCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Save every item with unsaved changes",
			Destination: &all,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)

	return &cli.Command{
		Name:      "save",
		Usage:     "Persist item edits to the backing document store",
		ArgsUsage: "[item-id]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			coord := syncer.New(ws.items, repo, ws.notifier)
			defer coord.Close()

			var targets []model.ItemID
			if all {
				for _, item := range ws.items.Items() {
					if item.HasUnsavedChanges {
						targets = append(targets, item.ID)
					}
				}
			} else {
				id, err := itemArg(c)
				if err != nil {
					return err
				}
				targets = append(targets, id)
			}

			// One in-flight save per item; the CLI serializes naturally
			for _, id := range targets {
				if err := coord.Save(ctx, id); err != nil {
					return err
				}
			}
			fmt.Fprintf(c.Root().Writer, "Saved %d item(s)\n", len(targets))

			return ws.flush(ctx)
		},
	}
}

func rollbackCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, storeFlags(&cfg)...)

	return &cli.Command{
		Name:      "rollback",
		Usage:     "Replace a local item with its saved backing-store version",
		ArgsUsage: "<item-id>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			id, err := itemArg(c)
			if err != nil {
				return err
			}

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			coord := syncer.New(ws.items, repo, ws.notifier)
			defer coord.Close()

			if err := coord.Rollback(ctx, id); err != nil {
				return err
			}

			return ws.flush(ctx)
		},
	}
}
