package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulandar/roundtable/internal/config"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "roundtable.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rt",
		Short: "Roundtable — simulated expert discussions",
		Long:  "Roundtable runs moderated multi-expert discussions backed by LLM personas, with a versioned store for the documents they produce.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRolesCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newDocCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rt %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig reads the config file at path. The default path is optional:
// when it does not exist, built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
