package sqlitestorage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derbytrack/packzone/internal/database"
	"github.com/derbytrack/packzone/internal/legality"
	"github.com/derbytrack/packzone/internal/model"
	"github.com/derbytrack/packzone/internal/storage"
	gormstorage "github.com/derbytrack/packzone/internal/storage/gorm"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T, cfg Config) *Backend {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.GetSqliteDBStandalone(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	b, err := New(cfg, gormstorage.Dependencies{
		DB:            db,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Track:         track.DefaultConfig(),
		BatchInterval: time.Hour,
	})
	require.NoError(t, err)
	return b
}

func frame(index uint) *core.FrameEvaluation {
	skaters := []core.Skater{
		{ID: 1, Team: core.TeamA, Position: core.Position{X: 0, Y: -6}},
		{ID: 2, Team: core.TeamB, Position: core.Position{X: 2, Y: -6}},
	}
	return &core.FrameEvaluation{
		Frame:      index,
		Time:       time.Date(2026, 3, 1, 18, 0, int(index), 0, time.UTC),
		Evaluation: legality.EvaluateLegality(track.Default(), skaters, core.MethodSector),
	}
}

func countFrames(t *testing.T, path string) int64 {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.OpenSqlite(path))
	defer m.Close()

	var n int64
	require.NoError(t, m.DB.Model(&model.Frame{}).Count(&n).Error)
	return n
}

func TestEndSession_DumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	b := newTestBackend(t, Config{DumpPath: path})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(core.NewSession("dump", core.MethodSector, time.Now())))
	require.NoError(t, b.RecordEvaluation(frame(0)))
	require.NoError(t, b.RecordEvaluation(frame(1)))
	require.NoError(t, b.EndSession())

	assert.Equal(t, int64(2), countFrames(t, path))
}

func TestClose_WritesFinalDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.db")
	b := newTestBackend(t, Config{DumpPath: path, DumpInterval: time.Hour})
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(core.NewSession("close", core.MethodSector, time.Now())))
	require.NoError(t, b.RecordEvaluation(frame(0)))
	require.NoError(t, b.Close())

	assert.Equal(t, int64(1), countFrames(t, path))
}

func TestDumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.db")
	b := newTestBackend(t, Config{DumpPath: path, DumpInterval: 20 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b := newTestBackend(t, Config{})
	require.NoError(t, b.Init())

	assert.NoError(t, b.Dump())
	require.NoError(t, b.StartSession(core.NewSession("nodump", core.MethodSector, time.Now())))
	require.NoError(t, b.EndSession())
	assert.NoError(t, b.Close())
}

func TestClose_WithoutInit(t *testing.T) {
	b := newTestBackend(t, Config{DumpPath: filepath.Join(t.TempDir(), "never.db")})
	assert.NoError(t, b.Close())
}
