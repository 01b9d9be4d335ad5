package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Recompute analytics even if the cached snapshot is still valid",
			Destination: &force,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "stats",
		Usage: "Show the session's analytics snapshot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			snapshot := ws.cache.Update(ctx, force)

			w := c.Root().Writer
			fmt.Fprintf(w, "Items:         %d\n", snapshot.TotalItems)
			fmt.Fprintf(w, "Completed:     %d\n", snapshot.CompletedItems)
			fmt.Fprintf(w, "Errors:        %d\n", snapshot.ErrorItems)
			fmt.Fprintf(w, "Tokens:        %d\n", snapshot.TotalTokens)
			fmt.Fprintf(w, "Cost:          $%.4f\n", snapshot.TotalCost)
			fmt.Fprintf(w, "Avg response:  %.0f ms\n", snapshot.AvgResponseTimeMs)
			fmt.Fprintf(w, "Success rate:  %.1f%%\n", snapshot.SuccessRate)
			fmt.Fprintf(w, "As of:         %s\n", snapshot.LastUpdated.Format("2006-01-02 15:04:05"))

			ws.session.Analytics = snapshot
			return ws.flush(ctx)
		},
	}
}
