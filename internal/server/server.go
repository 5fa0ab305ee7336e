// Package server exposes the discussion API over HTTP: chat streaming via
// SSE, session administration, the persona catalog, and document CRUD.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/roundtable/internal/config"
	"github.com/zulandar/roundtable/internal/docstore"
	"github.com/zulandar/roundtable/internal/herald"
	"github.com/zulandar/roundtable/internal/meeting"
	"github.com/zulandar/roundtable/internal/roles"
	"github.com/zulandar/roundtable/internal/turn"
)

// Opts holds the dependencies for a Server.
type Opts struct {
	Config   *config.Config
	Roles    *roles.Registry
	Meetings *meeting.Registry
	Turns    *turn.Orchestrator
	Docs     *docstore.Store
	Herald   *herald.Herald
	Out      io.Writer
}

// Server wires the API handlers to the discussion components.
type Server struct {
	cfg      *config.Config
	roles    *roles.Registry
	meetings *meeting.Registry
	turns    *turn.Orchestrator
	docs     *docstore.Store
	herald   *herald.Herald
	out      io.Writer
}

func New(opts Opts) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("server: Config is required")
	}
	if opts.Roles == nil {
		return nil, fmt.Errorf("server: Roles is required")
	}
	if opts.Meetings == nil {
		return nil, fmt.Errorf("server: Meetings is required")
	}
	if opts.Turns == nil {
		return nil, fmt.Errorf("server: Turns is required")
	}
	if opts.Docs == nil {
		return nil, fmt.Errorf("server: Docs is required")
	}
	if opts.Herald == nil {
		opts.Herald = herald.New()
	}
	return &Server{
		cfg:      opts.Config,
		roles:    opts.Roles,
		meetings: opts.Meetings,
		turns:    opts.Turns,
		docs:     opts.Docs,
		herald:   opts.Herald,
		out:      opts.Out,
	}, nil
}

// Start launches the HTTP server and the idle-session sweeper. It blocks
// until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	stopSweeper, err := s.startSweeper(ctx)
	if err != nil {
		return err
	}
	defer stopSweeper()

	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if s.out != nil {
		fmt.Fprintf(s.out, "Roundtable API listening on http://localhost:%d\n", s.cfg.Server.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/chat", s.handleChat)

	api.GET("/meeting", s.handleMeetingGet)
	api.POST("/meeting", s.handleMeetingCreate)
	api.DELETE("/meeting", s.handleMeetingDelete)

	api.GET("/roles", s.handleRoles)

	docs := api.Group("/documents")
	docs.GET("", s.handleDocumentList)
	docs.POST("", s.handleDocumentCreate)
	docs.GET("/:id", s.handleDocumentGet)
	docs.PUT("/:id", s.handleDocumentUpdate)
	docs.DELETE("/:id", s.handleDocumentPurge)
	docs.GET("/:id/versions", s.handleDocumentVersions)
	docs.GET("/:id/versions/:n", s.handleDocumentVersion)
	docs.POST("/:id/restore", s.handleDocumentRestore)
	docs.POST("/:id/archive", s.handleDocumentArchive)
	docs.POST("/:id/unarchive", s.handleDocumentUnarchive)
}

func (s *Server) handleRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": s.roles.All()})
}
