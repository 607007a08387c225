// Package cleanup provides background worker
package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/interfaces"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.Cache
	config *Config
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.Cache, config *Config) *Worker {
	return &Worker{
		cache:  cache,
		config: config,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, horizon: %v, verbose: %v)",
		w.config.CleanupInterval, w.config.IdleHorizon, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.performCleanup()
		}
	}
}

// performCleanup evicts idle cache entries past the configured horizon
func (w *Worker) performCleanup() {
	start := time.Now()
	reporter := NewReporter(w.cache)

	if w.config.VerboseReporting {
		reporter.LogStage("PERIODIC CACHE CLEANUP")
		fmt.Print(reporter.GenerateReport())
	}

	purged := w.cache.PurgeIdle(w.config.IdleHorizon)

	duration := time.Since(start)
	if purged > 0 {
		reporter.LogSuccess("Cache cleanup finished: %d idle entries evicted in %v", purged, duration)
	} else if w.config.VerboseReporting {
		reporter.LogInfo("Cache cleanup completed - no idle entries found (%v)", duration)
	}
}
