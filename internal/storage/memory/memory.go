// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/pkg/core"
)

// Backend keeps the frames of a session in memory and exports them to JSON
// when the session ends.
type Backend struct {
	cfg     config.MemoryConfig
	georef  *geo.Georef
	session *core.Session
	frames  []core.FrameEvaluation

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend. A nil georef exports track coordinates
// only.
func New(cfg config.MemoryConfig, georef *geo.Georef) *Backend {
	return &Backend{
		cfg:    cfg,
		georef: georef,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.frames = nil
	return nil
}

// EndSession exports the session and clears it.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	err := b.exportJSON()
	b.session = nil
	b.frames = nil
	return err
}

// RecordEvaluation appends a frame to the active session.
func (b *Backend) RecordEvaluation(fe *core.FrameEvaluation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	rec := *fe
	rec.Evaluation.Skaters = core.CloneSkaters(fe.Evaluation.Skaters)
	b.frames = append(b.frames, rec)
	return nil
}

// Frames returns a copy of the frames recorded in the active session.
func (b *Backend) Frames() []core.FrameEvaluation {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.FrameEvaluation, len(b.frames))
	copy(out, b.frames)
	return out
}

// GetExportedFilePath returns the path of the last exported session file.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
