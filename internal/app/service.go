// Package service owns the draft session: it guards the single in-flight
// scan, drives the classifier worker and the analysis engine, and exposes
// the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/draftlens/internal/adapters/capture"
	"github.com/okian/draftlens/internal/adapters/mq/queue"
	"github.com/okian/draftlens/internal/adapters/mq/worker"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/engine"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/internal/domain/staleness"
	"github.com/okian/draftlens/internal/domain/stats"
	"github.com/okian/draftlens/internal/domain/types"
	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

const (
	defaultQueueSize      = 4
	defaultScanTimeout    = 15 * time.Second
	defaultThreshold      = 0.9
	workerShutdownTimeout = 5 * time.Second
	selectionRerunTimeout = 5 * time.Second

	scanModeInitial = "initial"
	scanModeRescan  = "rescan"
)

// Classifier is the request/response boundary to the classifier worker.
type Classifier interface {
	Init(ctx context.Context, o classifier.InitOptions) (string, error)
	Scan(ctx context.Context, screenshot []byte, l layout.Layout, threshold float64, initial bool) (model.RawScan, error)
	Dispose(ctx context.Context) error
}

// lastScan is what a selection change re-runs the engine on.
type lastScan struct {
	input   engine.RescanInput
	initial bool
}

// Service implements the API dependencies for draft analysis.
type Service struct {
	mu sync.RWMutex

	// Core components
	repos    stats.Repositories
	mapper   *layout.Mapper
	engine   *engine.Engine
	capture  *capture.Cache
	queue    *queue.InMemoryQueue
	worker   *worker.ClassifierWorker
	client   Classifier
	factory  classifier.SessionFactory
	settings engine.Settings

	// Configuration
	initOpts    classifier.InitOptions
	eagerInit   bool
	threshold   float64
	queueSize   int
	scanTimeout time.Duration
	now         func() time.Time

	// Classifier lifecycle
	initMu   sync.Mutex
	provider string

	// Session
	scanning atomic.Bool
	started  bool
	active   bool
	state    engine.State
	last     *lastScan
	payload  *types.Payload
	gaps     *staleness.Report

	runCtx context.Context
	cancel context.CancelFunc

	logger logger.Logger
}

// New constructs a Service over the statistics repositories and layout mapper.
func New(repos stats.Repositories, mapper *layout.Mapper, opts ...Option) *Service {
	s := &Service{
		repos:       repos,
		mapper:      mapper,
		settings:    engine.DefaultSettings(),
		threshold:   defaultThreshold,
		queueSize:   defaultQueueSize,
		scanTimeout: defaultScanTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.capture == nil {
		s.capture = capture.NewCache(nil, capture.WithLogger(s.logger))
	}
	s.engine = engine.New(repos, engine.WithSettings(s.settings))
	return s
}

// Start launches the classifier worker and, when configured, loads the model.
// Classifier failures here are logged; a later scan retries the load.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.factory == nil {
		return ErrNoSessionFactory
	}

	s.logger.Info(ctx, "starting draft service...")
	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewClassifierWorker(s.queue,
		classifier.New(s.factory, classifier.WithLogger(s.logger.Named("classifier"))),
		worker.WithLogger(s.logger.Named("worker")))
	go s.worker.Run(s.runCtx)
	s.client = worker.NewClient(s.queue, s.worker)
	s.started = true

	if s.eagerInit {
		if err := s.ensureClassifier(ctx); err != nil {
			s.logger.Warn(ctx, "eager classifier init failed, will retry on scan", logger.Error(err))
		}
	}
	if report, err := s.detectGaps(ctx); err != nil {
		s.logger.Warn(ctx, "model gap check skipped", logger.Error(err))
	} else {
		s.gaps = report
	}

	s.logger.Info(ctx, "draft service started",
		logger.Int("queueSize", s.queueSize),
		logger.Float64("confidenceThreshold", s.threshold),
		logger.Bool("eagerInit", s.eagerInit))
	return nil
}

// Stop stops prefetching, shuts the worker down and releases the model.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping draft service...")

	s.capture.Stop()
	s.capture.Clear()

	shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
	defer cancel()
	if err := s.worker.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(ctx, "worker shutdown", logger.Error(err))
	}
	_ = s.queue.Close()
	s.cancel()

	s.initMu.Lock()
	s.provider = ""
	s.initMu.Unlock()

	s.started = false
	s.active = false
	s.logger.Info(ctx, "draft service stopped")
}

// Activate starts a fresh draft session and begins prefetching captures.
func (s *Service) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.resetSessionLocked()
	s.active = true
	s.capture.Start(s.runCtx)
	s.logger.Info(ctx, "draft session activated")
	return nil
}

// Deactivate stops prefetching and drops the cached capture.
func (s *Service) Deactivate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.capture.Stop()
	s.capture.Clear()
	s.active = false
	s.logger.Info(ctx, "draft session deactivated")
	return nil
}

func (s *Service) resetSessionLocked() {
	s.state = engine.State{}
	s.last = nil
	s.payload = nil
	s.capture.Clear()
	metrics.UpdatePoolSize("ultimate", 0)
	metrics.UpdatePoolSize("standard", 0)
	metrics.UpdatePickedTotal(0)
}

// Scan classifies a screenshot and advances the session. A nil screenshot
// takes one from the capture cache. A scan that starts while another is
// running fails with ErrScanInProgress; the running scan is unaffected.
// A rescan with no session yet is run as an initial scan.
func (s *Service) Scan(ctx context.Context, initial bool, screenshot []byte) (types.Payload, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return types.Payload{}, ErrNotStarted
	}

	if !s.scanning.CompareAndSwap(false, true) {
		metrics.RecordScanRejected()
		s.logger.Warn(ctx, "scan rejected, another scan is in flight")
		return types.Payload{}, ErrScanInProgress
	}
	defer s.scanning.Store(false)
	metrics.SetScanInFlight(true)
	defer metrics.SetScanInFlight(false)

	ctx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	s.mu.RLock()
	initial = initial || !s.state.Started()
	s.mu.RUnlock()
	mode := scanModeRescan
	if initial {
		mode = scanModeInitial
	}

	start := s.now()
	p, err := s.scan(ctx, initial, screenshot)
	metrics.RecordScanDuration(mode, float64(s.now().Sub(start).Milliseconds()))
	if err != nil {
		metrics.RecordScan(mode, "error")
		metrics.RecordErrorByComponent("service", "scan")
		s.logger.Error(ctx, "scan failed", logger.String("mode", mode), logger.Error(err))
		return types.Payload{}, err
	}
	metrics.RecordScan(mode, "success")
	s.logger.Info(ctx, "scan finished",
		logger.String("mode", mode),
		logger.String("resolution", p.TargetResolution),
		logger.Int("heroModels", len(p.HeroModels)),
		logger.Int("selectedAbilities", len(p.ScanData.SelectedAbilities)),
		logger.Duration("elapsed", s.now().Sub(start)))
	return p, nil
}

func (s *Service) scan(ctx context.Context, initial bool, screenshot []byte) (types.Payload, error) {
	if screenshot == nil {
		shot, err := s.capture.Get(ctx)
		if err != nil {
			return types.Payload{}, fmt.Errorf("%w: %w", ErrInvalidScreenshot, err)
		}
		screenshot = shot
	}
	res, err := classifier.ScreenshotResolution(screenshot)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%w: %w", ErrInvalidScreenshot, err)
	}

	l, src, err := s.mapper.Get(ctx, res)
	if err != nil {
		return types.Payload{}, fmt.Errorf("%w: %s: %w", ErrUnsupportedResolution, res, err)
	}
	s.logger.Debug(ctx, "layout resolved", logger.String("resolution", res.String()), logger.String("source", string(src)))

	if err := s.ensureClassifier(ctx); err != nil {
		return types.Payload{}, err
	}
	raw, err := s.client.Scan(ctx, screenshot, l, s.threshold, initial)
	if err != nil {
		return types.Payload{}, s.classifyError(err)
	}

	view := engine.View{
		HeroCoords:       l.Heroes,
		TargetResolution: res.String(),
		ScaleFactor:      s.mapper.ScaleFactor(res),
	}
	rescanIn := engine.RescanInput{
		Slots:         append(append([]model.ScanResult{}, raw.Ultimates...), raw.Standard...),
		SelectedSlots: raw.SelectedAbilities,
		View:          view,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		p  types.Payload
		st engine.State
	)
	if initial {
		p, st, err = s.engine.InitialScan(ctx, engine.InitialInput{Raw: raw, ModelCoords: l.Models, View: view})
	} else {
		p, st, err = s.engine.Rescan(ctx, s.state, rescanIn)
	}
	if err != nil {
		return types.Payload{}, err
	}
	s.commitLocked(p, st, &lastScan{input: rescanIn, initial: initial})
	return p, nil
}

// classifyError maps worker failures onto service sentinels.
func (s *Service) classifyError(err error) error {
	switch {
	case errors.Is(err, classifier.ErrDecode):
		return fmt.Errorf("%w: %w", ErrInvalidScreenshot, err)
	case errors.Is(err, classifier.ErrEmptyBatch):
		return fmt.Errorf("%w: %w", ErrUnsupportedResolution, err)
	case errors.Is(err, classifier.ErrNotInitialized),
		errors.Is(err, worker.ErrStopped),
		errors.Is(err, queue.ErrClosed),
		errors.Is(err, queue.ErrFull):
		s.initMu.Lock()
		s.provider = ""
		s.initMu.Unlock()
		return fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	default:
		return fmt.Errorf("classify: %w", err)
	}
}

func (s *Service) commitLocked(p types.Payload, st engine.State, last *lastScan) {
	s.state = st
	s.last = last
	s.payload = &p
	metrics.UpdatePoolSize("ultimate", len(st.InitialPoolAbilitiesCache.Ultimates))
	metrics.UpdatePoolSize("standard", len(st.InitialPoolAbilitiesCache.Standard))
	metrics.UpdatePickedTotal(len(st.PickedAbilitiesCache))
}

// ensureClassifier loads the model once; a failed load is retried on the
// next call.
func (s *Service) ensureClassifier(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.provider != "" {
		return nil
	}
	provider, err := s.client.Init(ctx, s.initOpts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}
	s.provider = provider
	s.logger.Info(ctx, "classifier initialized", logger.String("executionProvider", provider))
	return nil
}

// SelectMySpot toggles the user's hero slot and rebuilds the last payload.
func (s *Service) SelectMySpot(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error) {
	return s.reselect(ctx, func(st engine.State) engine.State { return st.WithMySpot(heroOrder, dbHeroID) })
}

// SelectMyModel toggles the user's hero model and rebuilds the last payload.
func (s *Service) SelectMyModel(ctx context.Context, heroOrder int, dbHeroID *int) (types.Payload, error) {
	return s.reselect(ctx, func(st engine.State) engine.State { return st.WithMyModel(heroOrder, dbHeroID) })
}

func (s *Service) reselect(ctx context.Context, apply func(engine.State) engine.State) (types.Payload, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return types.Payload{}, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	ctx, cancel := context.WithTimeout(ctx, selectionRerunTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return types.Payload{}, ErrNotStarted
	}
	if s.last == nil {
		return types.Payload{}, ErrNoSession
	}
	p, st, err := s.engine.Rescan(ctx, apply(s.state), s.last.input)
	if err != nil {
		return types.Payload{}, err
	}
	p.InitialSetup = s.last.initial
	s.commitLocked(p, st, s.last)
	return p, nil
}

// Payload returns the most recent scan result.
func (s *Service) Payload() (types.Payload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.payload == nil {
		return types.Payload{}, false
	}
	return *s.payload, true
}

// State returns a copy of the session state.
func (s *Service) State() engine.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Settings returns the engine thresholds.
func (s *Service) Settings() engine.Settings { return s.engine.Settings() }

// ModelGaps compares the classifier's class list with the statistics store.
// A nil report means the two agree.
func (s *Service) ModelGaps(ctx context.Context) (*staleness.Report, error) {
	report, err := s.detectGaps(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.gaps = report
	s.mu.Unlock()
	return report, nil
}

func (s *Service) detectGaps(ctx context.Context) (*staleness.Report, error) {
	names, err := classifier.LoadClassNames(s.initOpts.ClassNamesPath)
	if err != nil {
		return nil, err
	}
	db, err := s.repos.Abilities.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("ability names: %w", err)
	}
	report := staleness.DetectModelGaps(names, db, nil, s.now())
	if report == nil {
		metrics.UpdateModelGaps(0, 0)
	} else {
		metrics.UpdateModelGaps(len(report.MissingFromModel), len(report.StaleInModel))
		s.logger.Warn(ctx, "classifier and statistics disagree",
			logger.Int("missingFromModel", len(report.MissingFromModel)),
			logger.Int("staleInModel", len(report.StaleInModel)))
	}
	return report, nil
}

// Layout resolves the layout used for res.
func (s *Service) Layout(ctx context.Context, res model.Resolution) (layout.Layout, layout.Source, float64, error) {
	l, src, err := s.mapper.Get(ctx, res)
	if err != nil {
		return layout.Layout{}, src, 0, fmt.Errorf("%w: %s: %w", ErrUnsupportedResolution, res, err)
	}
	return l, src, s.mapper.ScaleFactor(res), nil
}

// SaveCustomLayout stores a user layout for res.
func (s *Service) SaveCustomLayout(ctx context.Context, res model.Resolution, l layout.Layout) ([]layout.Violation, error) {
	return s.mapper.SaveCustom(ctx, res, l)
}

// DeleteCustomLayout removes the user layout for res.
func (s *Service) DeleteCustomLayout(ctx context.Context, res model.Resolution) error {
	return s.mapper.DeleteCustom(ctx, res)
}

// CustomLayouts lists resolutions with a saved custom layout.
func (s *Service) CustomLayouts(ctx context.Context) ([]string, error) {
	return s.mapper.CustomResolutions(ctx)
}

// CalibrateLayout fits four anchors against the base layout for res.
func (s *Service) CalibrateLayout(ctx context.Context, res model.Resolution, anchors []layout.Anchor) (layout.Layout, []layout.Violation, error) {
	return s.mapper.CalibrateCustom(ctx, res, anchors)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.initMu.Lock()
	provider := s.provider
	s.initMu.Unlock()

	out := map[string]interface{}{
		"started":             s.started,
		"active":              s.active,
		"scanInFlight":        s.scanning.Load(),
		"classifierReady":     provider != "",
		"executionProvider":   provider,
		"confidenceThreshold": s.threshold,
		"poolSize":            len(s.state.PoolNames()),
		"pickedCount":         len(s.state.PickedAbilitiesCache),
		"prefetching":         s.capture.Running(),
		"modelGaps":           s.gaps != nil,
	}
	if s.started {
		out["queueLength"] = s.queue.Len(context.Background())
	}
	return out
}
