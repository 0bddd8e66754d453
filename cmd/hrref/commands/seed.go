package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/willibrandon/hrref/cmd/hrref/config"
	"github.com/willibrandon/hrref/cmd/hrref/output"
	"github.com/willibrandon/hrref/core"
	"github.com/willibrandon/hrref/store"
)

var (
	demoCities    = []string{"New York", "Berlin", "Lisbon", "Osaka", "Toronto"}
	demoPositions = []string{"Engineer", "Designer", "Analyst", "Manager", "Recruiter"}
	demoDivisions = []string{"Platform", "Payments", "Growth", "People", "Research"}
	demoFirst     = []string{"Ann", "Bo", "Chidi", "Dana", "Emil", "Fatima", "Goran", "Hana"}
	demoLast      = []string{"Lee", "Kim", "Okafor", "Silva", "Novak", "Haddad", "Ito"}
)

type seedOptions struct {
	cities    int
	positions int
	divisions int
	employees int
	orphans   int
	apply     bool
}

// NewSeedCommand creates the seed command
func NewSeedCommand(console *output.Console) *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <fixture.json>",
		Short: "Generate a demo fixture",
		Long: `Generate a demo fixture with UUID identifiers and write it to a file.

With --apply the fixture is also loaded into the configured store.`,
		Example: `  hrref seed demo.json
  hrref seed demo.json --employees 500 --apply --store-driver sqlite --store-path hr.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, console, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.cities, "cities", 3, "Number of cities")
	cmd.Flags().IntVar(&opts.positions, "positions", 3, "Number of positions")
	cmd.Flags().IntVar(&opts.divisions, "divisions", 3, "Number of divisions")
	cmd.Flags().IntVar(&opts.employees, "employees", 10, "Number of employees")
	cmd.Flags().IntVar(&opts.orphans, "orphans", 0, "Employees whose references point at missing records")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Load the fixture into the configured store")
	return cmd
}

func runSeed(cmd *cobra.Command, console *output.Console, path string, opts *seedOptions) (err error) {
	fx, err := generateFixture(opts)
	if err != nil {
		return err
	}
	if err := fx.Save(path); err != nil {
		return err
	}
	console.Success("Wrote %d employees to %s", len(fx[store.CategoryEmployee]), path)

	if !opts.apply {
		return nil
	}

	ctx := cmd.Context()
	rt, err := openRuntime(ctx, cmd, console, func(c *config.Config) { c.Store.Fixture = path })
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if rt.cfg.Store.Driver == store.DriverMemory {
		console.Warning("the memory store does not outlive this process")
	}
	console.Success("Loaded %s into the %s store", path, rt.cfg.Store.Driver)
	return nil
}

func generateFixture(opts *seedOptions) (store.Fixture, error) {
	if opts.cities < 1 || opts.positions < 1 || opts.divisions < 1 {
		return nil, fmt.Errorf("at least one city, position and division is required")
	}
	if opts.employees < 0 || opts.orphans < 0 || opts.orphans > opts.employees {
		return nil, fmt.Errorf("orphans must be between 0 and the number of employees")
	}

	fx := store.Fixture{}
	cities := make([]string, opts.cities)
	for i := range cities {
		cities[i] = uuid.NewString()
		if err := fx.Add(store.CategoryCity, core.City{UUID: cities[i], Name: pick(demoCities, i)}); err != nil {
			return nil, err
		}
	}
	positions := make([]string, opts.positions)
	for i := range positions {
		positions[i] = uuid.NewString()
		if err := fx.Add(store.CategoryPosition, core.Position{UUID: positions[i], Name: pick(demoPositions, i)}); err != nil {
			return nil, err
		}
	}
	divisions := make([]string, opts.divisions)
	for i := range divisions {
		divisions[i] = uuid.NewString()
		d := core.Division{UUID: divisions[i], Name: pick(demoDivisions, i), CityUUID: cities[i%len(cities)]}
		if err := fx.Add(store.CategoryDivision, d); err != nil {
			return nil, err
		}
	}

	for i := range opts.employees {
		e := core.Employee{
			UUID:         uuid.NewString(),
			FirstName:    demoFirst[i%len(demoFirst)],
			LastName:     demoLast[i%len(demoLast)],
			CityUUID:     cities[i%len(cities)],
			PositionUUID: positions[i%len(positions)],
			DivisionUUID: divisions[i%len(divisions)],
		}
		if i >= opts.employees-opts.orphans {
			e.CityUUID = uuid.NewString()
			e.PositionUUID = uuid.NewString()
			e.DivisionUUID = uuid.NewString()
		}
		if err := fx.Add(store.CategoryEmployee, e); err != nil {
			return nil, err
		}
	}
	return fx, nil
}

// pick cycles through names, numbering repeats.
func pick(names []string, i int) string {
	name := names[i%len(names)]
	if round := i / len(names); round > 0 {
		return fmt.Sprintf("%s %d", name, round+1)
	}
	return name
}
