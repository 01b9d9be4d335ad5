package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/usecase/export"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var (
		cfg         config
		outputPath  string
		profilePath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file path (defaults to synth_verified_<date>.json)",
			Destination: &outputPath,
		},
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "YAML field selection profile",
			Sources:     cli.EnvVars("WINNOW_EXPORT_PROFILE"),
			Destination: &profilePath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export verified items as a JSON file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			selection := export.DefaultSelection()
			if profilePath != "" {
				selection, err = export.LoadSelection(profilePath)
				if err != nil {
					return err
				}
			}

			if outputPath == "" {
				outputPath = export.Filename(time.Now())
			}

			f, err := os.Create(outputPath)
			if err != nil {
				return goerr.Wrap(err, "failed to create output file", goerr.Value("path", outputPath))
			}
			defer f.Close()

			if err := export.WriteJSON(f, ws.items.Items(), selection); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Exported to %s\n", outputPath)
			return nil
		},
	}
}

func pushCommand() *cli.Command {
	var (
		cfg      config
		token    string
		repoID   string
		filename string
		isPublic bool
		format   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "token",
			Usage:       "Access token for the dataset hub",
			Sources:     cli.EnvVars("WINNOW_HUB_TOKEN"),
			Destination: &token,
		},
		&cli.StringFlag{
			Name:        "repo",
			Aliases:     []string{"r"},
			Usage:       "Hub repository (bucket) to push into",
			Sources:     cli.EnvVars("WINNOW_HUB_REPO"),
			Destination: &repoID,
		},
		&cli.StringFlag{
			Name:        "filename",
			Usage:       "Object name for the uploaded dataset",
			Destination: &filename,
		},
		&cli.BoolFlag{
			Name:        "public",
			Usage:       "Make the uploaded dataset publicly readable",
			Destination: &isPublic,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Dataset format (jsonl or parquet)",
			Value:       string(adapter.FormatJSONL),
			Destination: &format,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "push",
		Usage: "Push verified items to the dataset hub",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setup()

			ws, err := cfg.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if filename == "" {
				filename = "synth_verified_" + time.Now().Format("2006-01-02") + "." + format
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " uploading dataset..."
			sp.Start()
			url, err := export.Push(ctx, adapter.NewStorageHub(), token, repoID,
				ws.items.Items(), filename, isPublic, adapter.Format(format))
			sp.Stop()
			if err != nil {
				ws.notifier.Error("dataset push failed")
				return err
			}

			ws.notifier.Success("dataset pushed")
			fmt.Fprintf(c.Root().Writer, "%s\n", url)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	var (
		cfg        config
		collection string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "into",
			Usage:       "Backing-store collection for the final dataset",
			Value:       "verified",
			Sources:     cli.EnvVars("WINNOW_FINAL_COLLECTION"),
			Destination: &collection,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storeFlags(&cfg)...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Save the verified dataset into the backing document store",
		Flags: flags,
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

			count, err := export.SaveFinal(ctx, repo, ws.items.Items(), collection)
			if err != nil {
				ws.notifier.Error("failed to save final dataset")
				return err
			}

			ws.notifier.Success("final dataset saved")
			fmt.Fprintf(c.Root().Writer, "Saved %d item(s) into %s\n", count, collection)
			return nil
		},
	}
}
