package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/google/uuid"

	"github.com/hkbatradar/Spectrogram/pkg/audio/analyzers"
)

// Render statuses reported to the Observer
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusSuperseded = "superseded"
)

var (
	// ErrClosed is returned by Submit after Close
	ErrClosed = errors.New("render worker closed")
	// ErrSuperseded completes a job that a newer request replaced
	ErrSuperseded = errors.New("render superseded by a newer request")
)

// Frame is a finished render handed to the Surface
type Frame struct {
	ID    uuid.UUID
	Tag   string
	Image *analyzers.SpectrogramImage
}

// Surface receives finished frames. Only the worker goroutine calls
// Present.
type Surface interface {
	Present(frame Frame) error
}

// Observer is notified of every finished job
type Observer interface {
	ObserveRender(status string, d time.Duration)
}

// Request is one render job. The worker takes ownership of Samples; the
// caller must not touch the slice after Submit.
type Request struct {
	Samples []float32
	Params  analyzers.RenderParams
	// Tag names the frame for the surface, typically the source file
	Tag string
}

// Completion reports the end of a job. Err is nil on success, ErrSuperseded
// when a newer request replaced the job, or the render or surface error.
type Completion struct {
	ID       uuid.UUID
	Image    *analyzers.SpectrogramImage
	Err      error
	Duration time.Duration
}

// Status maps the completion onto a metrics status label
func (c Completion) Status() string {
	switch {
	case c.Err == nil:
		return StatusOK
	case errors.Is(c.Err, ErrSuperseded):
		return StatusSuperseded
	default:
		return StatusError
	}
}

// Config holds the collaborators of a Worker
type Config struct {
	Renderer *analyzers.SpectrogramRenderer
	Surface  Surface
	Logger   logging.Logger
	Observer Observer
	// OnComplete is called once per job. Replaced jobs complete on the
	// goroutine that replaced them.
	OnComplete func(Completion)
}

type job struct {
	id   uuid.UUID
	req  Request
	done chan Completion
}

// Worker renders one request at a time. A new request cancels the one in
// flight and replaces any that has not started yet.
type Worker struct {
	renderer   *analyzers.SpectrogramRenderer
	surface    Surface
	logger     logging.Logger
	observer   Observer
	onComplete func(Completion)

	mu      sync.Mutex
	pending *job
	cancel  context.CancelFunc
	closed  bool

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

// NewWorker starts a render worker
func NewWorker(cfg Config) *Worker {
	if cfg.Renderer == nil {
		cfg.Renderer = analyzers.NewSpectrogramRenderer(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefaultLogger()
	}

	w := &Worker{
		renderer:   cfg.Renderer,
		surface:    cfg.Surface,
		observer:   cfg.Observer,
		onComplete: cfg.OnComplete,
		logger: cfg.Logger.WithFields(logging.Fields{
			"component": "render_worker",
		}),
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()
	return w
}

// Submit queues req, cancelling the render in flight. It returns the job ID
// carried by the matching Completion.
func (w *Worker) Submit(req Request) (uuid.UUID, error) {
	j, err := w.enqueue(req)
	if err != nil {
		return uuid.Nil, err
	}
	return j.id, nil
}

// Render submits req and waits for its completion. It stops waiting when ctx
// is done; the job itself keeps its place until replaced.
func (w *Worker) Render(ctx context.Context, req Request) (Completion, error) {
	j, err := w.enqueue(req)
	if err != nil {
		return Completion{}, err
	}
	select {
	case c := <-j.done:
		return c, c.Err
	case <-ctx.Done():
		return Completion{ID: j.id}, ctx.Err()
	}
}

func (w *Worker) enqueue(req Request) (*job, error) {
	j := &job{id: uuid.New(), req: req, done: make(chan Completion, 1)}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	replaced := w.pending
	w.pending = j
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()

	if replaced != nil {
		w.complete(replaced, Completion{ID: replaced.id, Err: ErrSuperseded})
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}

	w.logger.Debug("Render request submitted", logging.Fields{
		"job_id":   j.id.String(),
		"samples":  len(req.Samples),
		"fft_size": req.Params.FFTSize,
		"overlap":  req.Params.OverlapPercent,
	})
	return j, nil
}

// Close cancels any work and waits for the worker goroutine to exit. Jobs
// not yet finished complete with ErrSuperseded.
func (w *Worker) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()

	if pending != nil {
		w.complete(pending, Completion{ID: pending.id, Err: ErrSuperseded})
	}
	close(w.quit)
	w.wg.Wait()
	return nil
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.quit:
			return
		case <-w.wake:
		}

		for {
			j, ctx, cancel := w.next()
			if j == nil {
				break
			}
			w.run(ctx, j)
			cancel()

			w.mu.Lock()
			w.cancel = nil
			w.mu.Unlock()
		}
	}
}

// next takes the pending job and arms its cancellation
func (w *Worker) next() (*job, context.Context, context.CancelFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil || w.closed {
		return nil, nil, nil
	}
	j := w.pending
	w.pending = nil
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	return j, ctx, cancel
}

func (w *Worker) run(ctx context.Context, j *job) {
	logger := w.logger.WithFields(logging.Fields{
		"job_id": j.id.String(),
	})

	start := time.Now()
	img, err := w.renderer.Render(ctx, j.req.Samples, j.req.Params)
	// the buffer is released with the job
	j.req.Samples = nil

	if errors.Is(err, context.Canceled) {
		logger.Debug("Render superseded")
		w.complete(j, Completion{ID: j.id, Err: ErrSuperseded, Duration: time.Since(start)})
		return
	}
	if err != nil {
		logger.Error(err, "Spectrogram render failed")
		w.complete(j, Completion{ID: j.id, Err: fmt.Errorf("failed to render spectrogram: %w", err), Duration: time.Since(start)})
		return
	}

	if w.surface != nil {
		if err := w.surface.Present(Frame{ID: j.id, Tag: j.req.Tag, Image: img}); err != nil {
			logger.Error(err, "Failed to present spectrogram")
			w.complete(j, Completion{ID: j.id, Err: fmt.Errorf("failed to present spectrogram: %w", err), Duration: time.Since(start)})
			return
		}
	}

	elapsed := time.Since(start)
	logger.Debug("Render completed", logging.Fields{
		"width":       img.Width,
		"height":      img.Height,
		"duration_ms": elapsed.Milliseconds(),
	})
	w.complete(j, Completion{ID: j.id, Image: img, Duration: elapsed})
}

func (w *Worker) complete(j *job, c Completion) {
	if w.observer != nil {
		w.observer.ObserveRender(c.Status(), c.Duration)
	}
	if w.onComplete != nil {
		w.onComplete(c)
	}
	j.done <- c
}
