// Package coordinator debounces cache invalidation under change-event storms.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/interfaces"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// Config holds the coordinator's quiet windows, sourced from the central
// config package.
type Config struct {
	RecordQuietWindow time.Duration
	ListQuietWindow   time.Duration
	QueueSize         int
}

// NewConfig creates a coordinator configuration by reading values from
// the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		RecordQuietWindow: config.RecordQuietWindow,
		ListQuietWindow:   config.ListQuietWindow,
		QueueSize:         256,
	}
}

// event is one invalidation request. An empty recordID targets only the
// list scope.
type event struct {
	recordID string
	at       time.Time
}

// Stats is a point-in-time snapshot of coordinator activity.
type Stats struct {
	Honored    int64 `json:"honored"`
	Suppressed int64 `json:"suppressed"`
	Dropped    int64 `json:"dropped"`
}

// Coordinator serializes invalidation requests through a single queue and
// honors at most one per scope within each quiet window. Honoring a
// request marks the scope stale in the cache and schedules a background
// re-fetch; requests inside the window are absorbed.
type Coordinator struct {
	cache  interfaces.Cache
	cfg    *Config
	logger *logging.ChanneledLogger

	queue chan event

	mu         sync.Mutex
	lastRecord map[string]time.Time
	lastList   time.Time
	stats      Stats

	refreshRecord func(recordID string)
	refreshList   func()
}

func New(cache interfaces.Cache, cfg *Config, logger *logging.ChanneledLogger) *Coordinator {
	return &Coordinator{
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
		queue:      make(chan event, cfg.QueueSize),
		lastRecord: make(map[string]time.Time),
	}
}

// OnRecordRefresh registers the background re-fetch hook for a record
// scope. Must be called before Start.
func (c *Coordinator) OnRecordRefresh(fn func(recordID string)) {
	c.refreshRecord = fn
}

// OnListRefresh registers the background re-fetch hook for the list
// scope. Must be called before Start.
func (c *Coordinator) OnListRefresh(fn func()) {
	c.refreshList = fn
}

// Start runs the coordinator loop until the context is cancelled.
// Requests are processed strictly in arrival order.
func (c *Coordinator) Start(ctx context.Context) {
	if c.logger != nil {
		c.logger.Cache().Info("Invalidation coordinator started",
			"recordWindow", c.cfg.RecordQuietWindow, "listWindow", c.cfg.ListQuietWindow)
	}

	for {
		select {
		case <-ctx.Done():
			if c.logger != nil {
				c.logger.Cache().Info("Invalidation coordinator stopping")
			}
			return
		case ev := <-c.queue:
			c.process(ev)
		}
	}
}

// Invalidate requests invalidation of one record. The record's list
// memberships may have changed too, so the list scope is invalidated
// alongside it, each scope debounced by its own window.
func (c *Coordinator) Invalidate(recordID string) {
	c.enqueue(event{recordID: recordID, at: time.Now()})
}

// InvalidateList requests invalidation of the list scope only.
func (c *Coordinator) InvalidateList() {
	c.enqueue(event{at: time.Now()})
}

func (c *Coordinator) enqueue(ev event) {
	select {
	case c.queue <- ev:
	default:
		c.mu.Lock()
		c.stats.Dropped++
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Cache().Warn("Invalidation queue full, dropping request", "recordId", ev.recordID)
		}
	}
}

func (c *Coordinator) process(ev event) {
	c.mu.Lock()

	var honorRecord, honorList bool
	if ev.recordID != "" {
		if ev.at.Sub(c.lastRecord[ev.recordID]) >= c.cfg.RecordQuietWindow {
			c.lastRecord[ev.recordID] = ev.at
			honorRecord = true
		}
	}
	if ev.at.Sub(c.lastList) >= c.cfg.ListQuietWindow {
		c.lastList = ev.at
		honorList = true
	}

	if honorRecord || honorList {
		c.stats.Honored++
	} else {
		c.stats.Suppressed++
	}
	c.mu.Unlock()

	if honorRecord {
		c.cache.MarkRecordStale(ev.recordID)
		if c.refreshRecord != nil {
			go c.refreshRecord(ev.recordID)
		}
		if c.logger != nil {
			c.logger.Cache().Debug("Record invalidation honored", "recordId", ev.recordID)
		}
	}
	if honorList {
		c.cache.MarkListsStale()
		if c.refreshList != nil {
			go c.refreshList()
		}
		if c.logger != nil {
			c.logger.Cache().Debug("List invalidation honored")
		}
	}
	if !honorRecord && !honorList && c.logger != nil {
		c.logger.Cache().Debug("Invalidation absorbed by quiet window", "recordId", ev.recordID)
	}
}

// Snapshot returns current coordinator counters for the ops surface.
func (c *Coordinator) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
