// Package logger holds the process-wide zap sugared logger. Init picks the
// encoder from the environment name; Get hands out the shared instance and
// lazily falls back to a development logger when Init was never called, so
// tests and one-off tools log without any setup.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the shared logger once. "production" gets JSON output;
// anything else gets the console encoder. Later calls are ignored.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		if env == "production" {
			base, err = zap.NewProduction()
		} else {
			base, err = zap.NewDevelopment()
		}

		if err != nil {
			// A process that cannot build a logger still runs; it just
			// logs nothing.
			base = zap.NewNop()
		}

		sugar = base.Sugar()
	})
}

// Get returns the shared sugared logger, initializing a development one on
// first use if needed.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes buffered entries. Deferred from main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
