package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/database"
	"github.com/derbytrack/packzone/internal/legality"
	gormstorage "github.com/derbytrack/packzone/internal/storage/gorm"
	"github.com/derbytrack/packzone/internal/storage/memory"
	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

const snapshot = `{"frame":4,"skaters":[
	{"id":1,"team":"A","x":-1,"y":-6},
	{"id":2,"team":"B","x":1,"y":-6},
	{"id":3,"team":"A","x":3,"y":-6},
	{"id":4,"team":"B","x":-6,"y":-6},
	{"id":5,"team":"A","isJammer":true,"x":0,"y":6}
]}`

// setupTest loads config defaults and silences logging.
func setupTest(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	// no config file: defaults only
	_ = config.Load(dir)
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(nil, &out))
	assert.Equal(t, 0, run([]string{"VERSION"}, &out))
	assert.Contains(t, out.String(), AppName+" "+CurrentVersion)
}

func TestEvaluateCommand(t *testing.T) {
	dir := setupTest(t)
	path := writeFile(t, dir, "snap.json", snapshot)

	var out bytes.Buffer
	require.NoError(t, evaluateCommand([]string{path, "rectangle"}, &out))

	var fe core.FrameEvaluation
	require.NoError(t, json.Unmarshal(out.Bytes(), &fe))
	assert.Equal(t, uint(4), fe.Frame)
	assert.Equal(t, core.MethodRectangle, fe.Evaluation.Method)
	assert.Equal(t, []int{1, 2, 3}, fe.Evaluation.Pack)
	require.Len(t, fe.Evaluation.Skaters, 5)
	assert.True(t, fe.Evaluation.Skaters[4].Derived.InPlay, "jammer in bounds")
}

func TestEvaluateCommand_Errors(t *testing.T) {
	dir := setupTest(t)
	path := writeFile(t, dir, "snap.json", snapshot)

	assert.Error(t, evaluateCommand(nil, io.Discard))
	assert.Error(t, evaluateCommand([]string{filepath.Join(dir, "missing.json")}, io.Discard))
	assert.Error(t, evaluateCommand([]string{path, "triangle"}, io.Discard))
	bad := writeFile(t, dir, "bad.json", `{"skaters":[{"id":1,"team":"C"}]}`)
	assert.Error(t, evaluateCommand([]string{bad}, io.Discard))
}

func TestTrackCommand(t *testing.T) {
	setupTest(t)

	var out bytes.Buffer
	require.NoError(t, trackCommand(&out))

	var got struct {
		Config            track.Config `json:"config"`
		MeasurementLength float64      `json:"measurementLength"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, track.DefaultConfig(), got.Config)
	assert.InDelta(t, track.Default().MeasurementLength, got.MeasurementLength, 1e-9)
}

func frameLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `{"frame":%d,"skaters":[{"id":1,"team":"A","x":%g,"y":-6},{"id":2,"team":"B","x":1,"y":-6}]}`+"\n", i, float64(i%3)-1)
	}
	return b.String()
}

func TestReplayCommand_Memory(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			dir := setupTest(t)
			outDir := filepath.Join(dir, "out")
			viper.Set("storage.memory.outputDir", outDir)
			viper.Set("storage.memory.compressOutput", false)
			viper.Set("worker.concurrency", concurrency)
			viper.Set("worker.bufferSize", 4)
			path := writeFile(t, dir, "bout.jsonl", frameLines(10))

			var out bytes.Buffer
			require.NoError(t, replayCommand(context.Background(), []string{path, "sector"}, &out))
			assert.Contains(t, out.String(), "10 frames, 0 failed")

			matches, err := filepath.Glob(filepath.Join(outDir, "bout_*.json"))
			require.NoError(t, err)
			require.Len(t, matches, 1)

			f, err := os.Open(matches[0])
			require.NoError(t, err)
			defer f.Close()
			var export memory.SessionExport
			require.NoError(t, json.NewDecoder(f).Decode(&export))
			assert.Equal(t, "bout", export.Name)
			require.Len(t, export.Frames, 10)
			for i, fr := range export.Frames {
				assert.Equal(t, uint(i), fr.Frame)
			}
		})
	}
}

func TestReplayCommand_BadInput(t *testing.T) {
	dir := setupTest(t)
	viper.Set("storage.memory.outputDir", filepath.Join(dir, "out"))
	path := writeFile(t, dir, "broken.jsonl", frameLines(2)+"{not json\n")

	err := replayCommand(context.Background(), []string{path}, io.Discard)
	assert.ErrorContains(t, err, "line 3")
}

func TestLoadSession(t *testing.T) {
	setupTest(t)
	db, err := database.GetSqliteDBStandalone("file:TestLoadSession?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	b := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: Logger, Track: track.DefaultConfig(), BatchInterval: time.Hour})
	require.NoError(t, b.Init())
	defer b.Close()

	s := core.NewSession("stored", core.MethodSector, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	require.NoError(t, b.StartSession(s))
	skaters := []core.Skater{
		{ID: 1, Team: core.TeamA, Position: core.Position{X: 0, Y: -6}},
		{ID: 2, Team: core.TeamB, Position: core.Position{X: 1, Y: -6}},
	}
	for _, i := range []uint{2, 0, 1} {
		fe := core.FrameEvaluation{Frame: i, Time: s.StartTime, Evaluation: legality.EvaluateLegality(track.Default(), skaters, core.MethodSector)}
		require.NoError(t, b.RecordEvaluation(&fe))
	}
	require.NoError(t, b.EndSession())

	got, frames, err := loadSession(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Name)
	require.Len(t, frames, 3)
	for i, fe := range frames {
		assert.Equal(t, uint(i), fe.Frame)
		assert.Equal(t, []int{1, 2}, fe.Evaluation.Pack)
		assert.Len(t, fe.Evaluation.Skaters, 2)
	}

	_, _, err = loadSession(db, core.NewSession("", core.MethodSector, time.Now()).ID)
	assert.Error(t, err)
}
