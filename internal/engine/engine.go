package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/symlinkarr/internal/cache"
	"github.com/jon4hz/symlinkarr/internal/config"
	"github.com/jon4hz/symlinkarr/internal/database"
	"github.com/jon4hz/symlinkarr/internal/metadata"
	"github.com/jon4hz/symlinkarr/internal/metadata/omdb"
	"github.com/jon4hz/symlinkarr/internal/parser"
	"github.com/jon4hz/symlinkarr/internal/resolver"
	"github.com/jon4hz/symlinkarr/internal/scanner"
	"github.com/jon4hz/symlinkarr/internal/scheduler"
	"github.com/jon4hz/symlinkarr/internal/symlinker"
)

// Engine reconciles the torrent directory with the library.
// In serve mode it runs the reconciliation periodically.
type Engine struct {
	cfg       *config.Config
	db        *database.Client
	library   *scanner.LibraryScanner
	torrents  *scanner.TorrentScanner
	linker    *symlinker.Symlinker
	metadata  *metadata.CachedService
	scheduler *scheduler.Scheduler
}

type options struct {
	service metadata.Service
	titles  parser.TitleParser
}

// Option configures an Engine.
type Option func(*options)

// WithMetadataService replaces the OMDb client.
func WithMetadataService(s metadata.Service) Option {
	return func(o *options) {
		o.service = s
	}
}

// WithTitleParser replaces the default release name parser.
func WithTitleParser(p parser.TitleParser) Option {
	return func(o *options) {
		o.titles = p
	}
}

// New creates a new Engine instance.
func New(cfg *config.Config, db *database.Client, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.service == nil {
		o.service = omdb.New(cfg.Metadata)
	}

	sched, err := scheduler.New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	var ttl time.Duration
	if cfg.Cache != nil {
		ttl = cfg.Cache.TTL
	}
	service := metadata.NewCached(o.service, cache.NewInstance(cfg.Cache), ttl)

	e := &Engine{
		cfg:       cfg,
		db:        db,
		library:   scanner.NewLibraryScanner(db, cfg.Paths.Library, cfg.Directories),
		torrents:  scanner.NewTorrentScanner(db, cfg.Paths.Torrents, parser.New(o.titles), resolver.New(service)),
		linker:    symlinker.New(db, cfg.Paths.Library, cfg.Directories),
		metadata:  service,
		scheduler: sched,
	}

	if err := e.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}
	return e, nil
}

// Reconcile runs one reconciliation: library scan, torrent scan,
// media resolution and the link pass.
func (e *Engine) Reconcile(ctx context.Context) error {
	runID := uuid.New().String()
	start := time.Now()
	log.Info("Starting reconciliation", "run_id", runID)

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"library scan", e.library.FullScan},
		{"torrent scan", e.torrents.FullScan},
		{"media resolution", e.torrents.AddMissingMediaToTorrents},
		{"link pass", func(ctx context.Context) error {
			linked, err := e.LinkPending(ctx)
			if linked > 0 {
				log.Info("Created symlinks", "run_id", runID, "count", linked)
			}
			return err
		}},
	}

	for _, step := range steps {
		stepStart := time.Now()
		if err := step.fn(ctx); err != nil {
			log.Error("Reconciliation step failed", "run_id", runID, "step", step.name, "error", err)
			return fmt.Errorf("%s: %w", step.name, err)
		}
		log.Debug("Finished reconciliation step", "run_id", runID, "step", step.name, "duration", time.Since(stepStart))
	}

	stats, err := e.db.Stats(ctx)
	if err != nil {
		return err
	}
	log.Info("Reconciliation finished",
		"run_id", runID,
		"duration", time.Since(start).Round(time.Millisecond),
		"media", stats.Media,
		"torrents", stats.Torrents,
		"unresolved", stats.UnresolvedTorrents,
		"linked", stats.LinkedFiles,
		"pending", stats.PendingFiles,
	)
	return nil
}
