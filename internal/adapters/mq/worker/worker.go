// Package worker runs the classifier on its own goroutine and answers
// init, scan and dispose requests taken off the queue.
package worker

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/okian/draftlens/internal/adapters/mq/queue"
	"github.com/okian/draftlens/internal/domain/classifier"
	"github.com/okian/draftlens/internal/domain/layout"
	"github.com/okian/draftlens/internal/domain/model"
	"github.com/okian/draftlens/pkg/logger"
	"github.com/okian/draftlens/pkg/metrics"
)

// Request and Response are the worker protocol messages.
type (
	Request  = classifier.Request
	Response = classifier.Response
)

// Classifier is the model the worker owns.
type Classifier interface {
	Init(ctx context.Context, o classifier.InitOptions) (string, error)
	ScanLayout(img image.Image, l layout.Layout, threshold float64) (model.RawScan, error)
	Dispose() error
}

// Queue defines how workers receive requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// Worker processes classifier requests.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the loop and releases the classifier.
	Shutdown(ctx context.Context) error
}

// ClassifierWorker implements Worker over a single classifier session.
type ClassifierWorker struct {
	queue      Queue
	classifier Classifier
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewClassifierWorker creates a new worker with configuration options.
func NewClassifierWorker(q Queue, c Classifier, opts ...Option) *ClassifierWorker {
	w := &ClassifierWorker{
		queue:      q,
		classifier: c,
		name:       "classifier-worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Done is closed once Run has returned.
func (w *ClassifierWorker) Done() <-chan struct{} { return w.done }

// Run starts the worker loop. Requests still queued when it stops are
// answered with ErrStopped.
func (w *ClassifierWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.reject(requests)
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			req.Respond(w.handle(ctx, req))
		}
	}
}

func (w *ClassifierWorker) reject(requests <-chan Request) {
	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return
			}
			req.Respond(Response{Status: classifier.StatusError, Err: ErrStopped})
		default:
			return
		}
	}
}

// Shutdown stops the loop, then disposes of the classifier.
func (w *ClassifierWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}

	if err := w.classifier.Dispose(); err != nil {
		return fmt.Errorf("dispose classifier: %w", err)
	}
	return nil
}

// handle maps one request to its response. Errors never escape as panics
// or closed channels; they come back as StatusError.
func (w *ClassifierWorker) handle(ctx context.Context, req Request) Response { //nolint:gocritic // hugeParam: passed by value for channel semantics
	var resp Response
	switch req.Type {
	case classifier.RequestInit:
		resp = w.init(ctx, req)
	case classifier.RequestScan:
		resp = w.scan(ctx, req)
	case classifier.RequestDispose:
		resp = Response{Status: classifier.StatusSuccess}
		if err := w.classifier.Dispose(); err != nil {
			resp = Response{Status: classifier.StatusError, Err: err}
		}
	default:
		resp = Response{Status: classifier.StatusError, Err: fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)}
	}

	metrics.RecordWorkerRequest(string(req.Type), string(resp.Status))
	if resp.Err != nil {
		metrics.RecordErrorByComponent("worker", string(req.Type))
		w.logger.Error(ctx, "request failed",
			logger.String("request_id", req.ID.String()),
			logger.String("type", string(req.Type)),
			logger.Error(resp.Err))
	}
	return resp
}

func (w *ClassifierWorker) init(ctx context.Context, req Request) Response { //nolint:gocritic // hugeParam
	provider, err := w.classifier.Init(ctx, req.Init)
	if err != nil {
		return Response{Status: classifier.StatusError, Err: err}
	}
	return Response{Status: classifier.StatusReady, ExecutionProvider: provider}
}

func (w *ClassifierWorker) scan(ctx context.Context, req Request) Response { //nolint:gocritic // hugeParam
	start := time.Now()
	img, err := classifier.DecodeScreenshot(req.Screenshot)
	if err != nil {
		return Response{Status: classifier.StatusError, Err: err, IsInitialScan: req.IsInitialScan}
	}
	raw, err := w.classifier.ScanLayout(img, req.Layout, req.ConfidenceThreshold)
	if err != nil {
		return Response{Status: classifier.StatusError, Err: err, IsInitialScan: req.IsInitialScan}
	}
	w.logger.Debug(ctx, "scan classified",
		logger.String("request_id", req.ID.String()),
		logger.Duration("elapsed", time.Since(start)))
	return Response{Status: classifier.StatusSuccess, Results: raw, IsInitialScan: req.IsInitialScan}
}

// Client sends requests to a worker and waits for the answer.
type Client struct {
	queue  queue.Queue
	worker *ClassifierWorker
}

// NewClient binds a client to the queue a worker reads.
func NewClient(q queue.Queue, w *ClassifierWorker) *Client {
	return &Client{queue: q, worker: w}
}

// Do enqueues req and waits for its response, the context or the worker.
// A StatusError response is returned as an error.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) { //nolint:gocritic // hugeParam
	if err := c.queue.Enqueue(ctx, req); err != nil {
		return Response{}, fmt.Errorf("enqueue %s: %w", req.Type, err)
	}
	select {
	case resp := <-req.Reply():
		if resp.Status == classifier.StatusError {
			return resp, resp.Err
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-c.worker.Done():
		return Response{}, ErrStopped
	}
}

// Init asks the worker to load the model; it returns the execution provider.
func (c *Client) Init(ctx context.Context, o classifier.InitOptions) (string, error) {
	resp, err := c.Do(ctx, classifier.NewInitRequest(o))
	if err != nil {
		return "", err
	}
	return resp.ExecutionProvider, nil
}

// Scan classifies a screenshot against a layout.
func (c *Client) Scan(ctx context.Context, screenshot []byte, l layout.Layout, threshold float64, initial bool) (model.RawScan, error) {
	resp, err := c.Do(ctx, classifier.NewScanRequest(screenshot, l, threshold, initial))
	if err != nil {
		return model.RawScan{}, err
	}
	return resp.Results, nil
}

// Dispose asks the worker to release the session.
func (c *Client) Dispose(ctx context.Context) error {
	_, err := c.Do(ctx, classifier.NewDisposeRequest())
	return err
}
