// Package bootstrap assembles the process from configuration: statistics,
// layouts, capture, the draft service and its HTTP surface.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/okian/draftlens/internal/adapters/capture"
	"github.com/okian/draftlens/internal/adapters/http/api"
	"github.com/okian/draftlens/internal/adapters/http/swagger"
	"github.com/okian/draftlens/internal/adapters/layoutstore"
	"github.com/okian/draftlens/internal/adapters/repository"
	service "github.com/okian/draftlens/internal/app"
	"github.com/okian/draftlens/internal/config"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/engine"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/pkg/logger"
)

var _ api.Dependencies = (*service.Service)(nil)

// App is the wired process.
type App struct {
	Config  *config.Config
	Stats   *repository.SnapshotStore
	Mapper  *layout.Mapper
	Service *service.Service
	Mux     *http.ServeMux

	redis *layoutstore.Redis
	log   logger.Logger
}

// Build wires every component from cfg. factory opens inference sessions.
func Build(ctx context.Context, cfg *config.Config, factory classifier.SessionFactory, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}
	a := &App{Config: cfg, log: log}

	a.Stats = repository.NewSnapshotStore(
		repository.WithSnapshotPath(cfg.StatsPath),
		repository.WithReloadInterval(cfg.StatsReloadInterval()),
		repository.WithLogger(log.Named("stats")),
	)
	if err := a.Stats.Reload(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadStats, err)
	}

	presets, err := LoadPresetFile(ctx, cfg.LayoutsPath, log)
	if err != nil {
		return nil, err
	}

	var custom layout.CustomStore = layoutstore.NewMemory()
	if cfg.RedisURL != "" {
		r, err := layoutstore.NewRedis(ctx, cfg.RedisURL,
			layoutstore.WithKey(cfg.RedisLayoutKey),
			layoutstore.WithLogger(log.Named("layoutstore")))
		if err != nil {
			return nil, err
		}
		a.redis = r
		custom = r
	}
	a.Mapper = layout.NewMapper(presets, custom, layout.WithLogger(log.Named("layout")))

	var src capture.Source
	if cfg.ScreenshotPath != "" {
		src = capture.FileSource{Path: cfg.ScreenshotPath}
	}
	shots := capture.NewCache(src,
		capture.WithTTL(cfg.CaptureTTL()),
		capture.WithInterval(cfg.PrefetchInterval()),
		capture.WithLogger(log.Named("capture")))

	a.Service = service.New(a.Stats.Repositories(), a.Mapper,
		service.WithLogger(log.Named("service")),
		service.WithSessionFactory(factory),
		service.WithClassifierInit(classifier.InitOptions{
			ModelPath:       cfg.ModelPath,
			ClassNamesPath:  cfg.ClassNamesPath,
			UseAcceleration: cfg.UseAcceleration,
		}),
		service.WithEagerInit(cfg.EagerInit),
		service.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		service.WithSettings(engine.Settings{
			OPThreshold:   cfg.OPThreshold,
			TrapThreshold: cfg.TrapThreshold,
			Language:      cfg.Language,
		}),
		service.WithCapture(shots),
		service.WithQueueSize(cfg.RequestQueueSize),
		service.WithScanTimeout(cfg.ScanTimeout()),
	)

	a.Mux = http.NewServeMux()
	swagger.Register(ctx, a.Mux)
	api.NewServer(a.Service).Register(ctx, a.Mux)
	return a, nil
}

// Start begins the snapshot reload loop and the draft service.
func (a *App) Start(ctx context.Context) error {
	a.Stats.Start(ctx)
	return a.Service.Start(ctx)
}

// Close stops the service and releases stores.
func (a *App) Close() error {
	a.Service.Stop()
	_ = a.Stats.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn(context.Background(), "redis close failed", logger.Error(err))
			return err
		}
	}
	return nil
}

// LoadPresetFile reads the layout preset document at path. Count mismatches
// are logged and kept.
func LoadPresetFile(ctx context.Context, path string, log logger.Logger) (map[string]layout.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadLayouts, err)
	}
	defer func() { _ = f.Close() }()

	presets, warnings, err := layout.LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadLayouts, path, err)
	}
	for _, w := range warnings {
		log.Warn(ctx, "layout preset incomplete",
			logger.String("resolution", w.Resolution), logger.String("violation", w.Violation.String()))
	}
	if _, ok := presets[layout.BaseResolution.String()]; !ok {
		log.Warn(ctx, "base layout missing; unknown resolutions cannot be scaled",
			logger.String("base", layout.BaseResolution.String()))
	}
	return presets, nil
}
