package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/derbytrack/packzone/internal/track"
	"github.com/derbytrack/packzone/pkg/core"
)

// ConfigFileName is looked up in the directory passed to Load.
const ConfigFileName = "packzone.cfg.json"

// ErrInvalidTrack is returned by GetTrackConfig for non-physical dimensions.
var ErrInvalidTrack = track.ErrInvalidTrack

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	BatchInterval time.Duration `json:"batchInterval" mapstructure:"batchInterval"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
}

// InfluxConfig holds InfluxDB connection settings
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL is the server address built from protocol, host and port.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// WorkerConfig sizes the frame queue and the batch evaluator
type WorkerConfig struct {
	BufferSize  int `json:"bufferSize" mapstructure:"bufferSize"`
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// MonitorConfig controls the replay status monitor
type MonitorConfig struct {
	StatusFile string        `json:"statusFile" mapstructure:"statusFile"`
	Interval   time.Duration `json:"interval" mapstructure:"interval"`
}

// GeorefConfig anchors the track origin on the globe.
// Heading is the bearing of the +x axis in degrees clockwise from north.
type GeorefConfig struct {
	Enabled   bool    `json:"enabled" mapstructure:"enabled"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Heading   float64 `json:"heading" mapstructure:"heading"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(ConfigFileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./packzone-logs")
	viper.SetDefault("method", string(core.MethodSector))

	defaults := track.DefaultConfig()
	viper.SetDefault("track.straightHalfLength", defaults.StraightHalfLength)
	viper.SetDefault("track.outerCenterOffset", defaults.OuterCenterOffset)
	viper.SetDefault("track.innerRadius", defaults.InnerRadius)
	viper.SetDefault("track.outerRadius", defaults.OuterRadius)
	viper.SetDefault("track.measurementInset", defaults.MeasurementInset)
	viper.SetDefault("track.skaterRadius", defaults.SkaterRadius)
	viper.SetDefault("track.engagementDistance", defaults.EngagementDistance)
	viper.SetDefault("track.packDistance", defaults.PackDistance)
	viper.SetDefault("track.rectangleCutoff", defaults.RectangleCutoff)

	viper.SetDefault("worker.bufferSize", 256)
	viper.SetDefault("worker.concurrency", 4)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.batchInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./evaluations")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "packzone")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "packzone")
	viper.SetDefault("influx.bucket", "pack_metrics")
	viper.SetDefault("influx.backupPath", "./pack_metrics.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.statusFile", "")
	viper.SetDefault("monitor.interval", "1s")

	viper.SetDefault("georef.enabled", false)
	viper.SetDefault("georef.longitude", 0.0)
	viper.SetDefault("georef.latitude", 0.0)
	viper.SetDefault("georef.heading", 0.0)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetTrackConfig returns the configured track dimensions, validated.
func GetTrackConfig() (track.Config, error) {
	cfg := track.Config{
		StraightHalfLength: viper.GetFloat64("track.straightHalfLength"),
		OuterCenterOffset:  viper.GetFloat64("track.outerCenterOffset"),
		InnerRadius:        viper.GetFloat64("track.innerRadius"),
		OuterRadius:        viper.GetFloat64("track.outerRadius"),
		MeasurementInset:   viper.GetFloat64("track.measurementInset"),
		SkaterRadius:       viper.GetFloat64("track.skaterRadius"),
		EngagementDistance: viper.GetFloat64("track.engagementDistance"),
		PackDistance:       viper.GetFloat64("track.packDistance"),
		RectangleCutoff:    viper.GetFloat64("track.rectangleCutoff"),
	}
	if err := cfg.Validate(); err != nil {
		return track.Config{}, fmt.Errorf("track config: %w", err)
	}
	return cfg, nil
}

// GetMethod returns the configured measurement method.
func GetMethod() (core.Method, error) {
	return core.ParseMethod(viper.GetString("method"))
}

// GetStorageConfig returns the storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		BatchInterval: viper.GetDuration("storage.batchInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetWorkerConfig returns the worker settings. Non-positive values fall
// back to a single slot.
func GetWorkerConfig() WorkerConfig {
	cfg := WorkerConfig{
		BufferSize:  viper.GetInt("worker.bufferSize"),
		Concurrency: viper.GetInt("worker.concurrency"),
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}

// GetGeorefConfig returns the georeferencing anchor.
func GetGeorefConfig() GeorefConfig {
	return GeorefConfig{
		Enabled:   viper.GetBool("georef.enabled"),
		Longitude: viper.GetFloat64("georef.longitude"),
		Latitude:  viper.GetFloat64("georef.latitude"),
		Heading:   viper.GetFloat64("georef.heading"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}
