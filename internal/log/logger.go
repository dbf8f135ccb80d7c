// Package log builds the process-wide slog logger. The API server and the
// export worker write to one stream in deployment, so every record carries a
// component attribute telling them apart.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger with its component baked in. The base handler is
// kept so derived loggers can swap components without stacking attributes.
type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler // optional; a text handler on stdout is built from Level when nil
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: "api"}
}

func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}
	return &Logger{Logger: logger, handler: handler, component: cfg.Component}
}

// With returns a logger carrying additional attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), handler: l.handler, component: l.component}
}

// WithComponent returns a logger for a different component, rebuilt from the
// base handler so the old component attribute is replaced, not appended.
func (l *Logger) WithComponent(component string) *Logger {
	logger := slog.New(l.handler)
	if component != "" {
		logger = logger.With("component", component)
	}
	return &Logger{Logger: logger, handler: l.handler, component: component}
}

// SetDefault routes the package-level slog calls through this logger, so
// request handlers logging via slog.InfoContext inherit the component too.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
