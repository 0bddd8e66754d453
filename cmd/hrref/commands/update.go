package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willibrandon/hrref/cmd/hrref/output"
	"github.com/willibrandon/hrref/core"
)

// NewUpdateCommand creates the update command
func NewUpdateCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "update <entity> <json>",
		Short: "Write a record (not implemented)",
		Long: `Validate an update for a city, position, division or employee record.

The write path is not implemented: a valid request always fails with
"update is not implemented" and exit code 3.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("data for %s is not valid JSON", args[0])
			}

			ctx := cmd.Context()
			rt, err := openRuntime(ctx, cmd, console)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(ctx); cerr != nil && err == nil {
					err = cerr
				}
			}()

			err = rt.app.Update(ctx, core.UpdateRequest{Entity: args[0], Data: json.RawMessage(args[1])})
			if errors.Is(err, core.ErrNotImplemented) {
				return &ExitError{Code: ExitCodeNotImplemented, Err: err}
			}
			return err
		},
	}
}
