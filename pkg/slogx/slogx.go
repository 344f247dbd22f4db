package slogx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler built by New.
type Config struct {
	Service string
	Version string
	Env     string
	Level   string // debug, info, warn or error
	Format  string // json or text

	// Output defaults to os.Stdout.
	Output io.Writer
}

// ParseLevel accepts the usual level names in any case. The empty string
// is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("slogx: unknown log level %q", s)
}

// New builds the process logger, stamps every record with service, version
// and env, and installs it as the slog default. Source positions are
// included in dev.
func New(cfg Config) *slog.Logger {
	level, _ := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.Env == "dev"}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(h).With("service", cfg.Service, "version", cfg.Version, "env", cfg.Env)
	slog.SetDefault(logger)
	return logger
}
