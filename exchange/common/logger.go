package common

import (
	"github.com/evdnx/golog"

	"github.com/evdnx/goxchange/internal/logutil"
)

// DefaultLogger returns the lazily initialized shared logger.
func DefaultLogger() *golog.Logger {
	return logutil.Default()
}
