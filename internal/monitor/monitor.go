package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/derbytrack/packzone/internal/storage"
	"github.com/derbytrack/packzone/internal/worker"
)

const defaultInterval = time.Second

// PendingProvider is an optional interface that backends can implement to
// expose how many rows are still waiting to be written.
type PendingProvider interface {
	Pending() int
}

// Status is one snapshot of replay progress
type Status struct {
	Time        time.Time `json:"time"`
	Session     string    `json:"session"`
	Frames      uint64    `json:"frames"`
	Failures    uint64    `json:"failures"`
	PendingRows int       `json:"pendingRows"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger  *slog.Logger
	Worker  *worker.Manager
	Backend storage.Backend

	// StatusPath is rewritten with the latest status every Interval.
	// Empty only logs.
	StatusPath string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	return &Service{
		deps: deps,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current replay status
func (s *Service) GetStatus() Status {
	stats := s.deps.Worker.Stats()
	status := Status{
		Time:     time.Now().UTC(),
		Session:  s.deps.Worker.Session().ID(),
		Frames:   stats.Frames,
		Failures: stats.Failures,
	}
	if p, ok := s.deps.Backend.(PendingProvider); ok {
		status.PendingRows = p.Pending()
	}
	return status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		var err error
		statusFile, err = os.Create(s.deps.StatusPath)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(statusFile)
	return nil
}

func (s *Service) run(statusFile *os.File) {
	defer close(s.done)
	if statusFile != nil {
		defer statusFile.Close()
	}

	logger := s.deps.Logger
	logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			// last word
			s.report(statusFile)
			return
		case <-ticker.C:
			s.report(statusFile)
		}
	}
}

func (s *Service) report(statusFile *os.File) {
	status := s.GetStatus()
	s.deps.Logger.Debug("Status",
		"session", status.Session,
		"frames", status.Frames,
		"failures", status.Failures,
		"pendingRows", status.PendingRows)

	if statusFile == nil {
		return
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	if err := statusFile.Truncate(0); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
		return
	}
	if _, err := statusFile.WriteAt(append(data, '\n'), 0); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
	}
}

// Stop stops the status monitor after a final report
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	<-done
}
