package utils

import (
	"log/slog"
	"os"
	"strings"
)

var (
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
)

// InitLogger configures the package loggers for a module. Informational
// output goes to stdout and errors to stderr, both tagged with the module
// name. An unknown level string falls back to info; debug level also
// annotates records with their source position.
func InitLogger(logLevel string, moduleName string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	InfoLog = slog.New(slog.NewTextHandler(os.Stdout, opts)).With("module", moduleName)
	ErrorLog = slog.New(slog.NewTextHandler(os.Stderr, opts)).With("module", moduleName)
}

func init() {
	// Sane defaults until a main installs its own configuration.
	InitLogger("info", "os-primitives")
}
