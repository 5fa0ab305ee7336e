package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/roundtable/internal/db"
	"github.com/zulandar/roundtable/internal/docstore"
)

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Inspect stored documents",
	}

	cmd.AddCommand(newDocListCmd())
	cmd.AddCommand(newDocShowCmd())
	cmd.AddCommand(newDocVersionsCmd())
	return cmd
}

// openStore connects to the configured database and returns a Store.
func openStore(configPath string) (*docstore.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	return docstore.New(gormDB), nil
}

func newDocListCmd() *cobra.Command {
	var (
		configPath      string
		includeArchived bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}
			docs, err := store.List(includeArchived)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, "No documents.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFORMAT\tVERSION\tMODIFIED BY\tUPDATED")
			for _, d := range docs {
				title := d.Title
				if d.Archived {
					title += " (archived)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					d.ID, title, d.Format, d.Version, d.LastModifiedBy,
					d.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Roundtable config file")
	cmd.Flags().BoolVarP(&includeArchived, "all", "a", false, "include archived documents")
	return cmd
}

func newDocShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}
			doc, err := store.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (v%d, %s)\n", doc.Title, doc.Version, doc.Format)
			fmt.Fprintf(out, "Created by %s, last modified by %s\n", doc.CreatedBy, doc.LastModifiedBy)
			if len(doc.Tags) > 0 {
				fmt.Fprintf(out, "Tags: %s\n", strings.Join(doc.Tags, ", "))
			}
			fmt.Fprintf(out, "\n%s\n", doc.Content)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Roundtable config file")
	return cmd
}

func newDocVersionsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "versions <id>",
		Short: "List a document's version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}
			versions, err := store.Versions(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tCREATED BY\tCREATED\tCHANGE")
			for _, v := range versions {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					v.Version, v.CreatedBy, v.CreatedAt.Format("2006-01-02 15:04"), v.ChangeDescription)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Roundtable config file")
	return cmd
}
