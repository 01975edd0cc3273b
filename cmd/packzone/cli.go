package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/database"
	"github.com/derbytrack/packzone/internal/dispatcher"
	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/influx"
	"github.com/derbytrack/packzone/internal/legality"
	"github.com/derbytrack/packzone/internal/logging"
	"github.com/derbytrack/packzone/internal/model"
	"github.com/derbytrack/packzone/internal/model/convert"
	"github.com/derbytrack/packzone/internal/monitor"
	"github.com/derbytrack/packzone/internal/parser"
	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/internal/storage/memory"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/internal/worker"
	"github.com/derbytrack/packzone/pkg/core"
)

// methodArg returns the method named in args[i], or the configured one.
func methodArg(args []string, i int) (core.Method, error) {
	if len(args) > i {
		return core.ParseMethod(args[i])
	}
	return config.GetMethod()
}

func loadTrack() (track.Config, track.Track, error) {
	cfg, err := config.GetTrackConfig()
	if err != nil {
		return track.Config{}, track.Track{}, err
	}
	t, err := track.New(cfg)
	if err != nil {
		return track.Config{}, track.Track{}, err
	}
	return cfg, t, nil
}

// loadGeoref returns nil when georeferencing is disabled.
func loadGeoref() (*geo.Georef, error) {
	cfg := config.GetGeorefConfig()
	if !cfg.Enabled {
		return nil, nil
	}
	g, err := geo.NewGeoref(cfg.Longitude, cfg.Latitude, cfg.Heading)
	if err != nil {
		return nil, fmt.Errorf("georef config: %w", err)
	}
	return g, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func evaluateCommand(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("evaluate: no snapshot file provided")
	}
	method, err := methodArg(args, 1)
	if err != nil {
		return err
	}
	_, t, err := loadTrack()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading snapshot: %w", err)
	}
	frame, err := parser.NewParser(Logger).ParseSnapshot(data)
	if err != nil {
		return fmt.Errorf("error parsing snapshot: %w", err)
	}

	e := legality.EvaluateLegality(t, frame.Skaters, method)
	Logger.Info("Evaluated snapshot", "frame", frame.Index, "method", method, "pack", len(e.Pack), "duration", e.Duration)
	return writeJSON(out, core.FrameEvaluation{Frame: frame.Index, Time: frame.Time, Evaluation: e})
}

func trackCommand(out io.Writer) error {
	cfg, t, err := loadTrack()
	if err != nil {
		return err
	}
	return writeJSON(out, struct {
		Config            track.Config `json:"config"`
		MeasurementRadius float64      `json:"measurementRadius"`
		HalfCircle        float64      `json:"halfCircle"`
		Straight          float64      `json:"straight"`
		MeasurementLength float64      `json:"measurementLength"`
	}{
		Config:            cfg,
		MeasurementRadius: t.MeasurementRadius,
		HalfCircle:        t.HalfCircle,
		Straight:          t.Straight,
		MeasurementLength: t.MeasurementLength,
	})
}

func replayCommand(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("replay: no frames file provided")
	}
	method, err := methodArg(args, 1)
	if err != nil {
		return err
	}
	trackCfg, t, err := loadTrack()
	if err != nil {
		return err
	}
	georef, err := loadGeoref()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("error opening frames: %w", err)
	}
	defer f.Close()

	backend, err := createStorageBackend(config.GetStorageConfig(), trackCfg, georef)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer backend.Close()

	deps := worker.Dependencies{
		Logger:     Logger,
		Track:      t,
		Method:     method,
		Backend:    backend,
		BufferSize: config.GetWorkerConfig().BufferSize,
	}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		im := influx.NewManager(logging.NewZerolog(logFileWriter(), config.GetString("logLevel"), "influx"), influxCfg)
		if err := im.Connect(ctx); err != nil {
			Logger.Warn("InfluxDB unavailable, metrics disabled", "error", err)
		} else {
			deps.Metrics = im
			defer im.Close()
		}
	}

	wm, err := worker.NewManager(deps)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	s, err := wm.StartSession(name, method, time.Now().UTC())
	if err != nil {
		return err
	}

	monCfg := config.GetMonitorConfig()
	mon := monitor.NewService(monitor.Dependencies{
		Logger:     Logger,
		Worker:     wm,
		Backend:    backend,
		StatusPath: monCfg.StatusFile,
		Interval:   monCfg.Interval,
	})
	if err := mon.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}

	if concurrency := config.GetWorkerConfig().Concurrency; concurrency > 1 {
		err = replayBatched(ctx, wm, f, deps.BufferSize, concurrency)
	} else {
		err = replayDispatched(ctx, wm, f)
	}

	mon.Stop()
	if _, endErr := wm.EndSession(); endErr != nil {
		err = errors.Join(err, endErr)
	}
	if err != nil {
		return err
	}

	stats := wm.Stats()
	fmt.Fprintf(out, "session %s (%s): %d frames, %d failed\n", s.ID, s.Method, stats.Frames, stats.Failures)
	if exp, ok := backend.(storage.Exportable); ok {
		fmt.Fprintf(out, "exported to %s\n", exp.GetExportedFilePath())
	}
	return nil
}

// replayDispatched streams frames through the dispatcher, one at a time in
// arrival order.
func replayDispatched(ctx context.Context, wm *worker.Manager, r io.Reader) error {
	d, err := dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return err
	}
	wm.RegisterHandlers(d)
	defer d.Close()

	return parser.NewParser(Logger).ReadFrames(r, func(f core.Frame) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := d.Dispatch(dispatcher.Event{Command: worker.CommandFrame, Payload: f})
		return err
	})
}

// replayBatched evaluates chunks of size frames concurrently.
func replayBatched(ctx context.Context, wm *worker.Manager, r io.Reader, size, concurrency int) error {
	batch := make([]core.Frame, 0, size)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := wm.EvaluateBatch(ctx, batch, concurrency)
		batch = batch[:0]
		return err
	}

	err := parser.NewParser(Logger).ReadFrames(r, func(f core.Frame) error {
		batch = append(batch, f)
		if len(batch) < size {
			return nil
		}
		return flush()
	})
	if err != nil {
		return err
	}
	return flush()
}

func exportCommand(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("export: no session ID provided")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}
	georef, err := loadGeoref()
	if err != nil {
		return err
	}

	dbm := database.NewManager(logging.NewZerolog(logFileWriter(), config.GetString("logLevel"), "database"))
	if len(args) > 1 {
		err = dbm.OpenSqlite(args[1])
	} else {
		err = dbm.Connect()
	}
	if err != nil {
		return err
	}
	defer dbm.Close()

	txStart := time.Now()
	s, frames, err := loadSession(dbm.DB, id)
	if err != nil {
		return err
	}
	Logger.Info("Loaded session", "session", id.String(), "frames", len(frames), "duration", time.Since(txStart))

	memCfg := config.GetStorageConfig().Memory
	if err := os.MkdirAll(memCfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(memCfg.OutputDir, storage.SessionFileName(s.Name, s.StartTime, memCfg.CompressOutput))
	if err := memory.WriteExport(path, memory.BuildExport(s, frames, georef), memCfg.CompressOutput); err != nil {
		return err
	}
	fmt.Fprintf(out, "exported %d frames to %s\n", len(frames), path)
	return nil
}

// loadSession reads a stored session and rebuilds its frame evaluations.
func loadSession(db *gorm.DB, id uuid.UUID) (core.Session, []core.FrameEvaluation, error) {
	var session model.Session
	if err := db.First(&session, "id = ?", id).Error; err != nil {
		return core.Session{}, nil, fmt.Errorf("error getting session: %w", err)
	}

	var frames []model.Frame
	err := db.Where("session_id = ?", id).Order("frame_index ASC").Find(&frames).Error
	if err != nil {
		return core.Session{}, nil, fmt.Errorf("error getting frames: %w", err)
	}

	var states []model.SkaterState
	err = db.Where("session_id = ?", id).Order("frame_index ASC, id ASC").Find(&states).Error
	if err != nil {
		return core.Session{}, nil, fmt.Errorf("error getting skater states: %w", err)
	}
	statesByFrame := map[uint][]model.SkaterState{}
	for _, st := range states {
		statesByFrame[st.FrameIndex] = append(statesByFrame[st.FrameIndex], st)
	}

	var boundaries []model.PackBoundary
	if err := db.Where("session_id = ?", id).Find(&boundaries).Error; err != nil {
		return core.Session{}, nil, fmt.Errorf("error getting pack boundaries: %w", err)
	}
	boundaryByFrame := map[uint]*model.PackBoundary{}
	for i := range boundaries {
		boundaryByFrame[boundaries[i].FrameIndex] = &boundaries[i]
	}

	out := make([]core.FrameEvaluation, 0, len(frames))
	for _, f := range frames {
		out = append(out, convert.RowsToCore(convert.Rows{
			Frame:    f,
			Skaters:  statesByFrame[f.FrameIndex],
			Boundary: boundaryByFrame[f.FrameIndex],
		}))
	}
	return convert.SessionToCore(session), out, nil
}
