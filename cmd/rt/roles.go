package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/roundtable/internal/roles"
)

func newRolesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List the configured personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Roundtable config file")
	return cmd
}

func runRoles(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry, err := roles.LoadRegistry(cfg.RolesFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODEL\tDESCRIPTION")
	for _, p := range registry.All() {
		name := p.Name
		if p.ID == cfg.Moderator {
			name += " (moderator)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, name, p.Model, p.Description)
	}
	return w.Flush()
}
