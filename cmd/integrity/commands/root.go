package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"counsel/internal/platform/config"
)

var versionString = "dev"

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(version, commit, date string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the integrity CLI.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "integrity",
		Short: "Referential-integrity validation and repair for guild records",
		Long: `integrity scans a guild's staff, cases, applications, jobs, retainers,
feedback, and reminders for dangling or inconsistent references, and repairs
the ones that have a safe automatic fix.

Configuration comes from defaults, the YAML file given by --config (or
$COUNSEL_CONFIG), and environment variables, in that order.`,
		Version: versionString,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default $"+config.EnvConfigPath+")")

	load := func() (config.Config, error) {
		if configPath == "" {
			return config.FromEnv()
		}
		return config.Load(configPath)
	}

	root.AddCommand(
		newServeCommand(load),
		newScanCommand(load),
		newRepairCommand(load),
		newRulesCommand(load),
	)
	return root
}

type loadFunc func() (config.Config, error)
