package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func listCommand() *cli.Command {
	var (
		cfg       config
		showItems bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "items",
			Usage:       "List items of the selected session instead of sessions",
			Destination: &showItems,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List sessions, or items of one session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			if showItems {
				ws, err := cfg.openWorkspace(ctx)
				if err != nil {
					return err
				}
				defer ws.Close()

				for _, item := range ws.items.Items() {
					fmt.Fprintf(c.Root().Writer, "%s  score=%.2f%s%s%s\n",
						item.ID, item.Score,
						mark(item.IsDuplicate, "  [dup]"),
						mark(item.IsDiscarded, "  [discarded]"),
						mark(item.HasUnsavedChanges, "  [unsaved]"),
					)
				}
				return nil
			}

			local, err := cfg.newLocalStore()
			if err != nil {
				return err
			}
			defer local.Close()

			sessions, err := local.ListSessions(ctx)
			if err != nil {
				return err
			}
			for _, session := range sessions {
				fmt.Fprintf(c.Root().Writer, "%s  %s  (updated %s)\n",
					session.ID, session.Name, session.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func mark(cond bool, label string) string {
	if cond {
		return label
	}
	return ""
}
