package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/shelfbridge/internal/bridge"
	"github.com/desertthunder/shelfbridge/internal/repositories"
	"github.com/desertthunder/shelfbridge/internal/server"
	"github.com/desertthunder/shelfbridge/internal/shared"
	"github.com/desertthunder/shelfbridge/internal/stream"
	"github.com/urfave/cli/v3"
)

const updateBuffer = 64

// pipeline holds the bridge components for one process.
type pipeline struct {
	session    *bridge.Session
	resolver   *bridge.Resolver
	manager    *bridge.Manager
	translator *bridge.Translator
	publisher  *bridge.Publisher
	supervisor *bridge.Supervisor
}

// newPipeline wires stream, resolver, translator and publisher into a supervisor.
//
// db may be nil, in which case neither cache is used.
func (r *Runner) newPipeline(db *sql.DB) *pipeline {
	cfg := r.config
	abs := r.source()
	mt := r.destination()

	session := bridge.NewSession()
	resolver := bridge.NewResolver(cfg.Source, abs)

	manager := bridge.NewManager(
		stream.NewClient(cfg.Source.URL, shared.WithLogger(r.logger, "component", "stream")),
		resolver,
		session,
		bridge.ManagerConfig{
			Event:       cfg.Bridge.EventName(),
			Backoff:     cfg.Bridge.Backoff(),
			AuthTimeout: cfg.Bridge.AuthTimeout(),
		},
		shared.WithLogger(r.logger, "component", "connection"),
	)

	translator := bridge.NewTranslator(abs, session, shared.WithLogger(r.logger, "component", "translator"))
	publisher := bridge.NewPublisher(mt, shared.WithLogger(r.logger, "component", "publisher"))

	if db != nil {
		translator.SetRecorder(repositories.NewItemCacheAdapter(repositories.NewItemRepository(db)))
		if !resolver.Static() {
			manager.SetCredentialCache(r.credentialCache(db, abs))
		}
	}

	supervisor := bridge.NewSupervisor(manager, translator, publisher, cfg.Bridge.Backoff(), shared.WithLogger(r.logger, "component", "supervisor"))

	return &pipeline{
		session:    session,
		resolver:   resolver,
		manager:    manager,
		translator: translator,
		publisher:  publisher,
		supervisor: supervisor,
	}
}

// setUpdates routes status updates from every component to ch.
func (p *pipeline) setUpdates(ch chan<- bridge.Update) {
	p.manager.SetUpdates(ch)
	p.supervisor.SetUpdates(ch)
}

// Run starts the bridge and blocks until the process is interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	useTUI := cmd.Bool("tui")
	if useTUI {
		fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("cache database unavailable, continuing without it", "error", err)
	}
	if db != nil {
		defer db.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := r.newPipeline(db)

	if r.config.Server.Port > 0 {
		go r.serveHealth(ctx, p)
	}

	r.logger.Info("starting bridge",
		"source", r.config.Source.URL,
		"destination", r.config.Destination.URL,
		"event", r.config.Bridge.EventName(),
		"static_token", p.resolver.Static(),
	)

	if useTUI {
		updates := make(chan bridge.Update, updateBuffer)
		p.setUpdates(updates)
		return r.runMonitor(ctx, cancel, p, updates)
	}

	return p.supervisor.Run(ctx)
}

// serveHealth runs the health endpoint until ctx is done.
func (r *Runner) serveHealth(ctx context.Context, p *pipeline) {
	logger := shared.WithLogger(r.logger, "component", "server")

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(logger), server.RequestLogger(logger))
	router.Handler(server.NewHealthHandler(p.session, p.supervisor))

	srv := server.New(r.config.Server.Address(), router, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("health server stopped", "error", err)
	}
}
