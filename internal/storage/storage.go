// internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derbytrack/packzone/pkg/core"
)

// ErrNoSession is returned when a frame is recorded outside a session.
var ErrNoSession = errors.New("no active session")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// RecordEvaluation stores one evaluated frame of the active session.
	RecordEvaluation(fe *core.FrameEvaluation) error
}

// Exportable is an optional interface for storage backends that write one
// file per session.
type Exportable interface {
	GetExportedFilePath() string
}

// SessionFileName builds the export file name for a session:
// <name>_<20060102_150405>.json, with .gz appended when compressed.
func SessionFileName(name string, start time.Time, compressed bool) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "session"
	}
	name = strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(name)

	fileName := fmt.Sprintf("%s_%s.json", name, start.Format("20060102_150405"))
	if compressed {
		fileName += ".gz"
	}
	return fileName
}
