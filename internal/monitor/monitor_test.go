package monitor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/storage/memory"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/internal/worker"
	"github.com/derbytrack/packzone/pkg/core"
)

// pendingBackend reports a fixed number of pending rows
type pendingBackend struct {
	*memory.Backend
	pending int
}

func (b *pendingBackend) Pending() int { return b.pending }

func newTestService(t *testing.T, statusPath string) (*Service, *worker.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := &pendingBackend{Backend: memory.New(config.MemoryConfig{OutputDir: t.TempDir()}, nil), pending: 7}

	wm, err := worker.NewManager(worker.Dependencies{Logger: logger, Track: track.Default(), Backend: backend})
	require.NoError(t, err)

	return NewService(Dependencies{
		Logger:     logger,
		Worker:     wm,
		Backend:    backend,
		StatusPath: statusPath,
		Interval:   10 * time.Millisecond,
	}), wm
}

func TestNewService_Defaults(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Equal(t, defaultInterval, s.deps.Interval)
	assert.NotNil(t, s.deps.Logger)
	assert.False(t, s.IsRunning())
	// stopping a service that never ran is harmless
	s.Stop()
}

func TestGetStatus(t *testing.T) {
	s, wm := newTestService(t, "")

	status := s.GetStatus()
	assert.Empty(t, status.Session)
	assert.Equal(t, 7, status.PendingRows)

	sess, err := wm.StartSession("status", core.MethodSector, time.Now())
	require.NoError(t, err)
	_, err = wm.Process(context.Background(), core.Frame{Skaters: []core.Skater{
		{ID: 1, Team: core.TeamA, Position: core.Position{X: 0, Y: -6}},
	}})
	require.NoError(t, err)

	status = s.GetStatus()
	assert.Equal(t, sess.ID.String(), status.Session)
	assert.Equal(t, uint64(1), status.Frames)
	assert.Equal(t, uint64(0), status.Failures)
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s, _ := newTestService(t, path)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	// starting twice is a no-op
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && len(data) > 0
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var status Status
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, 7, status.PendingRows)
}

func TestStart_BadStatusPath(t *testing.T) {
	s, _ := newTestService(t, filepath.Join(t.TempDir(), "missing", "status.json"))
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}
