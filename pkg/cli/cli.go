package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "winnow",
		Usage: "Curate collections of generated records",
		Commands: []*cli.Command{
			importCommand(),
			listCommand(),
			scanCommand(),
			resolveCommand(),
			toggleCommand(),
			saveCommand(),
			rollbackCommand(),
			statsCommand(),
			exportCommand(),
			pushCommand(),
			verifyCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
