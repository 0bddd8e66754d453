package cli

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/hrref/cmd/hrref/config"
	"github.com/willibrandon/hrref/cmd/hrref/output"
)

// Console is the global console for CLI commands
var Console *output.Console

var rootCmd *cobra.Command

// NewRootCommand builds the root command writing through console. Subcommands
// are attached by the caller.
func NewRootCommand(console *output.Console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hrref",
		Short: "Employee directory with cached reference names",
		Long: `hrref lists employees joined with the names of the cities, positions and
divisions they reference. Reference tables are fetched once per process and
shared by every concurrent request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := cmd.Flags().GetString("verbosity")
			if err != nil {
				return err
			}
			verbosity, err := output.ParseVerbosity(v)
			if err != nil {
				return err
			}
			console.SetVerbosity(verbosity)
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			// Show help when no command is provided
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("verbosity", "v", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	config.BindFlags(cmd.PersistentFlags())
	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	Console = output.DefaultConsole()
	rootCmd = NewRootCommand(Console)
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
