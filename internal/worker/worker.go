// Package worker evaluates frames and records the results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/derbytrack/packzone/internal/legality"
	"github.com/derbytrack/packzone/internal/logging"
	"github.com/derbytrack/packzone/internal/session"
	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

const instrumentationName = "github.com/derbytrack/packzone/internal/worker"

// ErrEvaluationPanic wraps a panic recovered while evaluating one frame.
var ErrEvaluationPanic = errors.New("evaluation panicked")

// EvaluateFunc computes the evaluation of one snapshot.
type EvaluateFunc func(t track.Track, skaters []core.Skater, method core.Method) core.Evaluation

// MetricsWriter receives one point per evaluated frame. *influx.Manager
// implements it.
type MetricsWriter interface {
	RecordEvaluation(ctx context.Context, sessionID uuid.UUID, fe core.FrameEvaluation) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Logger  *slog.Logger
	Track   track.Track
	Method  core.Method
	Backend storage.Backend
	Metrics MetricsWriter
	Session *session.Context

	// BufferSize is the frame queue length. Zero means 256.
	BufferSize int
	// Evaluate defaults to legality.EvaluateLegality.
	Evaluate EvaluateFunc
	// Meter defaults to the global OTel meter.
	Meter metric.Meter
}

// Manager evaluates frames for the active session and hands the results to
// the storage backend and the metrics writer.
type Manager struct {
	deps Dependencies

	evaluated metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram

	frames   atomic.Uint64
	failures atomic.Uint64
}

// Stats summarizes the work done since the manager was created.
type Stats struct {
	Frames   uint64
	Failures uint64
}

// NewManager creates a new worker manager.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewManager(deps Dependencies) (*Manager, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Method == "" {
		deps.Method = core.MethodSector
	}
	if deps.Session == nil {
		deps.Session = session.NewContext()
	}
	if deps.BufferSize <= 0 {
		deps.BufferSize = 256
	}
	if deps.Evaluate == nil {
		deps.Evaluate = legality.EvaluateLegality
	}
	deps.Logger = deps.Logger.With("component", "worker")

	m := &Manager{deps: deps}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	var err error
	m.evaluated, err = meter.Int64Counter(
		"worker.frames.evaluated",
		metric.WithDescription("Total frames evaluated"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluated counter: %w", err)
	}

	m.failed, err = meter.Int64Counter(
		"worker.frames.failed",
		metric.WithDescription("Total frames that could not be evaluated or recorded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"worker.evaluation.duration",
		metric.WithDescription("Time spent evaluating one frame"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return m, nil
}

// Session returns the session context frames are recorded for.
func (m *Manager) Session() *session.Context {
	return m.deps.Session
}

// Stats returns the frame and failure counts.
func (m *Manager) Stats() Stats {
	return Stats{Frames: m.frames.Load(), Failures: m.failures.Load()}
}

// StartSession begins a session on the session context and the backend.
func (m *Manager) StartSession(name string, method core.Method, start time.Time) (*core.Session, error) {
	if method == "" {
		method = m.deps.Method
	}
	s := m.deps.Session.Start(name, method, start)
	if m.deps.Backend != nil {
		if err := m.deps.Backend.StartSession(s); err != nil {
			m.deps.Session.End()
			return nil, fmt.Errorf("failed to start session: %w", err)
		}
	}
	m.deps.Logger.Info("Session started", "session", s.ID.String(), "name", s.Name, "method", s.Method)
	return s, nil
}

// EndSession closes the active session on the backend.
func (m *Manager) EndSession() (*core.Session, error) {
	frames := m.deps.Session.Frames()
	s := m.deps.Session.End()
	if s == nil {
		return nil, storage.ErrNoSession
	}
	if m.deps.Backend != nil {
		if err := m.deps.Backend.EndSession(); err != nil {
			return s, fmt.Errorf("failed to end session: %w", err)
		}
	}
	m.deps.Logger.Info("Session ended", "session", s.ID.String(), "frames", frames)
	return s, nil
}

// Evaluate computes the evaluation of frame without recording it. A panic in
// the geometry is returned as an error wrapping ErrEvaluationPanic.
func (m *Manager) Evaluate(frame core.Frame) (fe core.FrameEvaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: frame %d: %v", ErrEvaluationPanic, frame.Index, r)
		}
	}()

	method := m.deps.Method
	if s := m.deps.Session.Get(); s != nil && s.Method != "" {
		method = s.Method
	}
	e := m.deps.Evaluate(m.deps.Track, frame.Skaters, method)
	return core.FrameEvaluation{Frame: frame.Index, Time: frame.Time, Evaluation: e}, nil
}

// Record hands an evaluation to the backend and the metrics writer.
func (m *Manager) Record(ctx context.Context, fe core.FrameEvaluation) error {
	s := m.deps.Session.Get()
	if s == nil {
		return storage.ErrNoSession
	}
	if m.deps.Backend != nil {
		if err := m.deps.Backend.RecordEvaluation(&fe); err != nil {
			return fmt.Errorf("failed to record frame %d: %w", fe.Frame, err)
		}
	}
	if m.deps.Metrics != nil {
		if err := m.deps.Metrics.RecordEvaluation(ctx, s.ID, fe); err != nil {
			// metrics are best effort
			m.deps.Logger.WarnContext(ctx, "Failed to write metrics", "error", err)
		}
	}
	m.deps.Session.CountFrame()
	return nil
}

func (m *Manager) recordDuration(ctx context.Context, fe core.FrameEvaluation) {
	m.duration.Record(ctx, float64(fe.Evaluation.Duration.Microseconds())/1000,
		metric.WithAttributes(attribute.String("method", string(fe.Evaluation.Method))))
}

// Process evaluates and records one frame. Failures are logged and counted
// and returned to the caller.
func (m *Manager) Process(ctx context.Context, frame core.Frame) (core.FrameEvaluation, error) {
	ctx = logging.WithFrame(logging.WithSession(ctx, m.deps.Session.ID()), frame.Index)

	fe, err := m.Evaluate(frame)
	if err == nil {
		m.recordDuration(ctx, fe)
		err = m.Record(ctx, fe)
	}
	m.frames.Add(1)
	if err != nil {
		m.failures.Add(1)
		m.failed.Add(ctx, 1)
		m.deps.Logger.ErrorContext(ctx, "Frame failed", "frame", frame.Index, "error", err)
		return fe, err
	}

	m.evaluated.Add(ctx, 1)
	m.deps.Logger.DebugContext(ctx, "Frame evaluated",
		"frame", frame.Index, "pack", len(fe.Evaluation.Pack), "duration", fe.Evaluation.Duration)
	return fe, nil
}

// EvaluateBatch evaluates frames with at most concurrency goroutines and
// records the results in input order. Frames that fail are logged, counted
// and left out; the returned slice holds the recorded evaluations.
func (m *Manager) EvaluateBatch(ctx context.Context, frames []core.Frame, concurrency int) ([]core.FrameEvaluation, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]core.FrameEvaluation, len(frames))
	errs := make([]error, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range frames {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = m.Evaluate(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]core.FrameEvaluation, 0, len(frames))
	for i, fe := range results {
		fctx := logging.WithFrame(logging.WithSession(ctx, m.deps.Session.ID()), frames[i].Index)
		err := errs[i]
		if err == nil {
			m.recordDuration(fctx, fe)
			err = m.Record(fctx, fe)
		}
		m.frames.Add(1)
		if err != nil {
			m.failures.Add(1)
			m.failed.Add(fctx, 1)
			m.deps.Logger.ErrorContext(fctx, "Frame failed", "frame", frames[i].Index, "error", err)
			continue
		}
		m.evaluated.Add(fctx, 1)
		out = append(out, fe)
	}
	return out, nil
}
