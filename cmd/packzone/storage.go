package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/database"
	"github.com/derbytrack/packzone/internal/geo"
	"github.com/derbytrack/packzone/internal/logging"
	"github.com/derbytrack/packzone/internal/storage"
	gormstorage "github.com/derbytrack/packzone/internal/storage/gorm"
	"github.com/derbytrack/packzone/internal/storage/memory"
	sqlitestorage "github.com/derbytrack/packzone/internal/storage/sqlite"
	"github.com/derbytrack/packzone/internal/track"
)

func createStorageBackend(storageCfg config.StorageConfig, trackCfg track.Config, georef *geo.Georef) (storage.Backend, error) {
	deps := gormstorage.Dependencies{
		Logger:        Logger,
		Georef:        georef,
		Track:         trackCfg,
		BatchInterval: storageCfg.BatchInterval,
	}

	switch storageCfg.Type {
	case "postgres":
		dbm := database.NewManager(logging.NewZerolog(logFileWriter(), config.GetString("logLevel"), "database"))
		if err := dbm.Connect(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		deps.DB = dbm.DB
		if dbm.ShouldSaveLocal {
			// Postgres is down; keep the session in SQLite and dump it next
			// to the memory exports.
			dumpPath := storageCfg.SQLite.Path
			if dumpPath == "" {
				dumpPath = filepath.Join(storageCfg.Memory.OutputDir,
					fmt.Sprintf("%s_%s.db", AppName, SessionStartTime.Format("20060102_150405")))
			}
			if err := os.MkdirAll(filepath.Dir(dumpPath), 0755); err != nil {
				return nil, fmt.Errorf("failed to create dump directory: %w", err)
			}
			Logger.Warn("Postgres unavailable, using SQLite storage backend", "dumpPath", dumpPath)
			return sqlitestorage.New(sqlitestorage.Config{
				DumpInterval: storageCfg.SQLite.DumpInterval,
				DumpPath:     dumpPath,
			}, deps)
		}
		Logger.Info("Postgres storage backend initialized")
		return gormstorage.New(deps), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     storageCfg.SQLite.Path,
		}, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "dumpPath", storageCfg.SQLite.Path)
		return backend, nil

	default:
		Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory, georef), nil
	}
}
