package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/winnow/pkg/usecase/dedup"
	"github.com/urfave/cli/v3"
)

func scanCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "scan",
		Usage: "Re-scan the session's collection for duplicate items",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			engine := dedup.New(ws.items, ws.notifier)
			engine.Rescan()

			dups := 0
			for _, item := range ws.items.Items() {
				if item.IsDuplicate {
					dups++
				}
			}
			fmt.Fprintf(c.Root().Writer, "%d duplicate item(s) in %d\n", dups, ws.items.Len())

			return ws.flush(ctx)
		},
	}
}

func resolveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "resolve",
		Usage: "Auto-resolve duplicate groups, keeping the best-scored member",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			engine := dedup.New(ws.items, ws.notifier)
			discarded := engine.AutoResolve()
			fmt.Fprintf(c.Root().Writer, "Discarded %d duplicate item(s)\n", discarded)

			return ws.flush(ctx)
		},
	}
}

func toggleCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "toggle",
		Usage:     "Manually flip one item's duplicate flag",
		ArgsUsage: "<item-id>",
		Flags:     globalFlags(&cfg),
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

			engine := dedup.New(ws.items, ws.notifier)
			if err := engine.ToggleDuplicate(id); err != nil {
				return err
			}

			return ws.flush(ctx)
		},
	}
}
