package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/caseboardhq/caseboard-go/internal/application/container"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/messaging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var opsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// OpsHandlers handles the operator dashboard endpoints
type OpsHandlers struct {
	container *container.Container
}

// NewOpsHandlers creates new ops handlers
func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{
		container: container,
	}
}

// GetStatus handles GET /api/ops/status - one-shot status snapshot
func (h *OpsHandlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.OpsBroadcaster.Snapshot())
}

// GetCacheStats handles GET /api/ops/cache/stats
func (h *OpsHandlers) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache":        h.container.CacheManager.Stats(),
		"invalidation": h.container.Coordinator.Snapshot(),
	})
}

// PostInvalidateRecord handles POST /api/ops/cache/invalidate/:id - requests a
// debounced refresh of a single record
func (h *OpsHandlers) PostInvalidateRecord(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record ID is required"})
		return
	}

	h.container.SyncService.Invalidate(recordID)
	c.JSON(http.StatusAccepted, gin.H{
		"message":  "invalidation requested",
		"recordId": recordID,
	})
}

// PostInvalidateList handles POST /api/ops/cache/invalidate-list
func (h *OpsHandlers) PostInvalidateList(c *gin.Context) {
	h.container.SyncService.InvalidateList()
	c.JSON(http.StatusAccepted, gin.H{"message": "list invalidation requested"})
}

// PostCacheReset handles POST /api/ops/cache/reset - drops all cached entries
func (h *OpsHandlers) PostCacheReset(c *gin.Context) {
	h.container.CacheManager.Reset()
	h.container.Logger.Cache().Warn("Cache reset by operator")
	c.JSON(http.StatusOK, gin.H{"message": "cache reset"})
}

// PostRefetch handles POST /api/ops/refetch/:key - forces a fresh load of a
// record identified by uuid or case number
func (h *OpsHandlers) PostRefetch(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record key is required"})
		return
	}

	if err := h.container.SyncService.Refetch(key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "refetch requested", "key": key})
}

// PostRealtimeReset handles POST /api/ops/realtime/reset - restarts the
// reconnection cycle with a fresh attempt budget
func (h *OpsHandlers) PostRealtimeReset(c *gin.Context) {
	h.container.Supervisor.Reset()
	c.JSON(http.StatusOK, gin.H{
		"message": "reconnect cycle restarted",
		"online":  h.container.Supervisor.Online(),
	})
}

// PostRealtimePause handles POST /api/ops/realtime/pause - suspends the
// reconnection cycle while the network is known to be down
func (h *OpsHandlers) PostRealtimePause(c *gin.Context) {
	h.container.Supervisor.Pause()
	c.JSON(http.StatusOK, gin.H{
		"message": "reconnect cycle paused",
		"paused":  true,
	})
}

// PostRealtimeResume handles POST /api/ops/realtime/resume - lifts a pause
// and retries the held attempt immediately
func (h *OpsHandlers) PostRealtimeResume(c *gin.Context) {
	h.container.Supervisor.Resume()
	c.JSON(http.StatusOK, gin.H{
		"message": "reconnect cycle resumed",
		"paused":  h.container.Supervisor.Paused(),
		"online":  h.container.Supervisor.Online(),
	})
}

// StreamStatus handles GET /api/ops/ws - upgrades to a websocket that receives
// the status payload on each broadcast tick
func (h *OpsHandlers) StreamStatus(c *gin.Context) {
	conn, err := opsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.System().Error("Ops websocket upgrade failed", "error", err)
		return
	}

	client := &messaging.OpsClient{
		Conn: conn,
		Send: make(chan []byte, 8),
	}
	h.container.OpsBroadcaster.Register(client)

	go func() {
		defer conn.Close()
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()

	// Read loop exists only to detect the close frame.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.container.OpsBroadcaster.Unregister(client)
}

// GetLogLevels handles GET /api/ops/logs/levels - returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}
	c.JSON(http.StatusOK, logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/ops/logs/levels - sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var level slog.Level
	switch req.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
