package logutil

import (
	"fmt"
	"sync"

	"github.com/evdnx/golog"
)

var (
	mu     sync.Mutex
	shared *golog.Logger
	level  = golog.InfoLevel
)

// levelNames maps the logLevel configuration values onto golog levels.
var levelNames = map[string]golog.Level{
	"debug":   golog.DebugLevel,
	"info":    golog.InfoLevel,
	"warning": golog.WarnLevel,
	"error":   golog.ErrorLevel,
	"fatal":   golog.FatalLevel,
}

// SetLevel switches the shared logger to the named level. An already built
// logger is rebuilt so the change takes effect on configuration reload.
func SetLevel(name string) error {
	lvl, ok := levelNames[name]
	if !ok {
		return fmt.Errorf("unknown log level %q", name)
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	if shared != nil {
		shared = newLogger(lvl)
	}
	return nil
}

// Default returns the shared logger, building it on first use.
func Default() *golog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if shared == nil {
		shared = newLogger(level)
	}
	return shared
}

func newLogger(lvl golog.Level) *golog.Logger {
	logger, err := golog.NewLogger(
		golog.WithStdOutProvider(golog.ConsoleEncoder),
		golog.WithLevel(lvl),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return logger
}
