package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/derbytrack/packzone/internal/config"
	"github.com/derbytrack/packzone/internal/logging"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "packzone"
)

// file paths
var (
	// ConfigDir holds packzone.cfg.json. PACKZONE_CONFIG_DIR overrides the
	// working directory.
	ConfigDir string

	LogFilePath string
	LogFile     *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	SessionStartTime time.Time = time.Now()
)

const usage = `usage: packzone <command> [arguments]

commands:
  evaluate <snapshot.json> [method]   evaluate one snapshot and print the result
  replay <frames.jsonl> [method]      evaluate a recording and store the results
  track                               print the configured track geometry
  export <sessionID> [sqlite file]    export a stored session to JSON
  version                             print the version
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	command := strings.ToLower(args[0])
	if command == "version" {
		fmt.Fprintf(out, "%s %s (built %s)\n", AppName, CurrentVersion, BuildDate)
		return 0
	}

	setup()
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "evaluate":
		err = evaluateCommand(args[1:], out)
	case "replay":
		err = replayCommand(ctx, args[1:], out)
	case "track":
		err = trackCommand(out)
	case "export":
		err = exportCommand(args[1:], out)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		Logger.Error("Command failed", "command", command, "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// setup loads the config and initializes logging. Logs go to a file in
// logsDir, or stderr when the file cannot be created, so stdout stays
// reserved for command output.
func setup() {
	// Initialize slog manager on stderr until the config is loaded
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(os.Stderr, "info")
	Logger = SlogManager.Logger()

	ConfigDir = os.Getenv("PACKZONE_CONFIG_DIR")
	if ConfigDir == "" {
		ConfigDir = "."
	}
	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", ConfigDir)
	}

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Warn("Failed to create logs dir", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, AppName, SessionStartTime)
	// keep the previous log of the same second
	if _, err := os.Stat(LogFilePath); err == nil {
		os.Rename(LogFilePath, LogFilePath+".old")
	}

	var err error
	var logOut io.Writer = os.Stderr
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	} else {
		logOut = LogFile
	}

	var extra []slog.Handler
	if config.GetBool("graylog.enabled") {
		h, err := logging.NewGraylogHandler(config.GetString("graylog.address"), config.GetString("logLevel"))
		if err != nil {
			Logger.Warn("Failed to connect to Graylog", "error", err)
		} else {
			extra = append(extra, h)
		}
	}

	SlogManager.Setup(logOut, config.GetString("logLevel"), extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Starting up", "version", CurrentVersion, "build", BuildDate, "logFile", LogFilePath)
}

// logFileWriter returns the log file for the zerolog managers, or nil
// without one.
func logFileWriter() io.Writer {
	if LogFile == nil {
		return nil
	}
	return LogFile
}

func closeLog() {
	if LogFile != nil {
		LogFile.Close()
	}
}
