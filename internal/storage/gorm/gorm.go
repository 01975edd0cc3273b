// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/derbytrack/packzone/internal/database"
	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/model"
	"github.com/derbytrack/packzone/internal/model/convert"
	"github.com/derbytrack/packzone/internal/queue"
	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

const (
	defaultBatchInterval = 2 * time.Second
	maxBatchSize         = 5000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
	Georef *geo.Georef
	Track  track.Config

	// BatchInterval is how often queued rows are written. Zero means 2s.
	BatchInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Frames         *queue.Queue[model.Frame]
	SkaterStates   *queue.Queue[model.SkaterState]
	PackBoundaries *queue.Queue[model.PackBoundary]
}

func newQueues() *queues {
	return &queues{
		Frames:         queue.New[model.Frame](),
		SkaterStates:   queue.New[model.SkaterState](),
		PackBoundaries: queue.New[model.PackBoundary](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Pointer[uuid.UUID]
	frames    atomic.Uint64

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.BatchInterval <= 0 {
		deps.BatchInterval = defaultBatchInterval
	}
	deps.Logger = deps.Logger.With("component", "storage:gorm")
	return &Backend{
		deps: deps,
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		db, err := database.GetPostgresDBStandalone()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.deps.Logger.Info("Migrating schema")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() { close(b.stopChan) })
	<-b.done
	return b.Flush()
}

// StartSession inserts the session row synchronously so queued rows can
// reference it.
func (b *Backend) StartSession(s *core.Session) error {
	row := convert.CoreToSession(*s, b.deps.Track, b.deps.Georef)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	id := s.ID
	b.sessionID.Store(&id)
	b.frames.Store(0)
	b.deps.Logger.Info("Session started", "session", id.String(), "name", s.Name, "method", s.Method)
	return nil
}

// EndSession flushes the queues and stamps the end time and frame count on
// the session row.
func (b *Backend) EndSession() error {
	id := b.sessionID.Swap(nil)
	if id == nil {
		return storage.ErrNoSession
	}
	if err := b.Flush(); err != nil {
		return err
	}

	frames := b.frames.Load()
	err := b.deps.DB.Model(&model.Session{}).
		Where("id = ?", *id).
		Updates(map[string]any{
			"end_time":    time.Now().UTC(),
			"frame_count": frames,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	b.deps.Logger.Info("Session ended", "session", id.String(), "frames", frames)
	return nil
}

// RecordEvaluation converts a frame evaluation into rows and queues them.
func (b *Backend) RecordEvaluation(fe *core.FrameEvaluation) error {
	id := b.sessionID.Load()
	if id == nil {
		return storage.ErrNoSession
	}

	rows := convert.CoreToRows(*id, *fe, b.deps.Georef)
	b.queues.Frames.Push(rows.Frame)
	b.queues.SkaterStates.Push(rows.Skaters...)
	if rows.Boundary != nil {
		b.queues.PackBoundaries.Push(*rows.Boundary)
	}
	b.frames.Add(1)
	return nil
}

// Pending returns the number of rows waiting to be written.
func (b *Backend) Pending() int {
	if b.queues == nil {
		return 0
	}
	return b.queues.Frames.Len() + b.queues.SkaterStates.Len() + b.queues.PackBoundaries.Len()
}

// Flush writes all queued rows. Rows of a failed batch are put back on their
// queue and the first error is returned.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	if b.queues == nil {
		return nil
	}
	log := b.deps.Logger
	for _, err := range []error{
		writeQueue(b.deps.DB, b.queues.Frames, "frames", log),
		writeQueue(b.deps.DB, b.queues.SkaterStates, "skater states", log),
		writeQueue(b.deps.DB, b.queues.PackBoundaries, "pack boundaries", log),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Warn("Batch write failed, retrying next tick", "error", err)
			}
		}
	}
}

// writeQueue drains a queue into the database, one transaction per batch.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	for {
		items := q.TakeBatch(maxBatchSize)
		if len(items) == 0 {
			return nil
		}

		start := time.Now()
		tx := db.Begin()
		if tx.Error != nil {
			q.Requeue(items)
			return fmt.Errorf("failed to begin %s batch: %w", name, tx.Error)
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			tx.Rollback()
			q.Requeue(items)
			log.Error("Error creating rows", "table", name, "count", len(items), "error", err)
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := tx.Commit().Error; err != nil {
			q.Requeue(items)
			return fmt.Errorf("failed to commit %s: %w", name, err)
		}
		log.Debug("Wrote rows", "table", name, "count", len(items), "duration", time.Since(start))
	}
}
