package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/roundtable/internal/db"
	"github.com/zulandar/roundtable/internal/directive"
	"github.com/zulandar/roundtable/internal/docstore"
	"github.com/zulandar/roundtable/internal/gemini"
	"github.com/zulandar/roundtable/internal/herald"
	"github.com/zulandar/roundtable/internal/meeting"
	"github.com/zulandar/roundtable/internal/roles"
	"github.com/zulandar/roundtable/internal/server"
	"github.com/zulandar/roundtable/internal/turn"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Roundtable API server",
		Long:  "Serves the chat, meeting, and document APIs. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Roundtable config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	registry, err := roles.LoadRegistry(cfg.RolesFile)
	if err != nil {
		return err
	}
	if !registry.Has(cfg.Moderator) {
		return fmt.Errorf("moderator role %q is not defined", cfg.Moderator)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	gen, err := gemini.NewClient(cfg.Gemini)
	if err != nil {
		return err
	}

	meetings := meeting.NewRegistry(registry)
	docs := docstore.New(gormDB)
	exec := directive.NewExecutor(meetings, registry, docs)

	turns, err := turn.New(turn.Opts{
		Roles:         registry,
		Meetings:      meetings,
		Generator:     gen,
		Executor:      exec,
		ModeratorID:   cfg.Moderator,
		HistoryWindow: cfg.History.Window,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Opts{
		Config:   cfg,
		Roles:    registry,
		Meetings: meetings,
		Turns:    turns,
		Docs:     docs,
		Herald:   herald.FromConfig(cfg.Herald),
		Out:      cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}
