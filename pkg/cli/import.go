package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/urfave/cli/v3"
)

func importCommand() *cli.Command {
	var (
		cfg       config
		inputPath string
		name      string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "Path to JSON file containing generated items",
			Sources:     cli.EnvVars("WINNOW_INPUT"),
			Destination: &inputPath,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Session name",
			Destination: &name,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "import",
		Usage: "Create a new session from a JSON file of generated items",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			if inputPath == "" {
				return goerr.New("input file path is required")
			}

			raw, err := os.ReadFile(inputPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.Value("path", inputPath))
			}

			var items []*model.Item
			if err := json.Unmarshal(raw, &items); err != nil {
				return goerr.Wrap(err, "failed to parse items JSON")
			}

			now := time.Now()
			for _, item := range items {
				if item.ID == "" {
					item.ID = model.NewItemID()
				}
				if item.CreatedAt.IsZero() {
					item.CreatedAt = now
				}
				item.SaveState = model.SaveStateIdle
			}

			local, err := cfg.newLocalStore()
			if err != nil {
				return err
			}
			defer local.Close()

			session := &model.Session{
				ID:        model.NewSessionID(),
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if session.Name == "" {
				session.Name = inputPath
			}

			if err := local.PutSession(ctx, session); err != nil {
				return err
			}
			if err := local.PutItems(ctx, session.ID, items); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Session created: %s (%d items)\n", session.ID, len(items))
			return nil
		},
	}
}
