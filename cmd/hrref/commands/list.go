package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/willibrandon/hrref/cmd/hrref/output"
)

// List views.
const (
	viewCities    = "cities"
	viewPositions = "positions"
)

type listOptions struct {
	format string
}

// NewListCommand creates the list command
func NewListCommand(console *output.Console) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list <cities|positions>",
		Short: "List employees with resolved reference names",
		Long: `List every employee joined with reference names.

  cities     first name and city
  positions  first name, position and division

Unknown references print as "-" in text output and "" in JSON.`,
		Example: `  hrref list cities
  hrref list positions --format json --store-driver sqlite --store-path hr.db`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{viewCities, viewPositions},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, console, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format (text, json)")
	return cmd
}

func runList(cmd *cobra.Command, console *output.Console, view string, opts *listOptions) (err error) {
	format, err := output.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if view != viewCities && view != viewPositions {
		return fmt.Errorf("unknown view %q (want %s or %s)", view, viewCities, viewPositions)
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

	start := time.Now()
	var (
		header []string
		rows   [][]string
		items  any
	)
	switch view {
	case viewCities:
		list, err := rt.app.ListEmployeesWithCityName(ctx)
		if err != nil {
			return err
		}
		header = []string{"NAME", "CITY"}
		for _, e := range list {
			rows = append(rows, []string{e.Name, e.City})
		}
		items = list
	case viewPositions:
		list, err := rt.app.ListEmployeesWithPositionAndDivision(ctx)
		if err != nil {
			return err
		}
		header = []string{"NAME", "POSITION", "DIVISION"}
		for _, e := range list {
			rows = append(rows, []string{e.Name, e.Position, e.Division})
		}
		items = list
	}

	if format == output.FormatJSON {
		return output.WriteJSON(console.Out(), output.NewEmployeeListOutput(view, items, len(rows), start))
	}
	if err := output.WriteTable(console.Out(), header, rows); err != nil {
		return err
	}
	console.Detail("%d employees in %dms", len(rows), output.MeasureElapsed(start))
	return nil
}
