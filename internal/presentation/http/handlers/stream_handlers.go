package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/messaging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

const maxStreamConnections = 1000

var activeStreamConnections int64

// StreamHandlers contains the change-event streaming HTTP handlers
type StreamHandlers struct {
	broadcaster *messaging.SSEBroadcaster
	logger      *logging.ChanneledLogger
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger) *StreamHandlers {
	return &StreamHandlers{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetUpdates handles GET /api/v1/updates - establishes the Server-Sent Events
// connection that carries record and list change notifications to the portal.
func (h *StreamHandlers) GetUpdates(c *gin.Context) {
	start := time.Now()
	h.logger.Sync().Debug("Received SSE connection request", "method", c.Request.Method, "path", c.Request.URL.Path)

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		h.logger.Sync().Error("SSE connection request missing session ID")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required for SSE connection"})
		return
	}

	currentConnections := atomic.LoadInt64(&activeStreamConnections)
	if currentConnections >= maxStreamConnections {
		h.logger.Sync().Warn("SSE connection limit reached",
			"sessionId", sessionID,
			"currentConnections", currentConnections,
			"maxConnections", maxStreamConnections)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "SSE connection limit reached. Please try again later.",
		})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	ch := h.broadcaster.AddClient(sessionID)

	atomic.AddInt64(&activeStreamConnections, 1)
	defer func() {
		atomic.AddInt64(&activeStreamConnections, -1)
		h.broadcaster.RemoveClient(ch, sessionID)
	}()

	// Send initial connection confirmation
	fmt.Fprintf(c.Writer, "data: {\"type\":\"connected\",\"sessionId\":%q,\"timestamp\":%q}\n\n", sessionID, time.Now().Format(time.RFC3339))
	c.Writer.Flush()

	clientCtx := c.Request.Context()

	h.logger.Sync().Info("SSE connection established",
		"sessionId", sessionID,
		"totalConnections", atomic.LoadInt64(&activeStreamConnections),
		"setupDuration", time.Since(start))

	// Heartbeat keeps intermediaries from closing the idle stream
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.Sync().Info("SSE connection closed by client",
				"sessionId", sessionID,
				"connectionDuration", time.Since(connectionStart))
			return
		case message, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(c.Writer, message)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": heartbeat %s\n\n", time.Now().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
