// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/application/services"
	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// RecordHandlers contains all case record HTTP handlers
type RecordHandlers struct {
	recordService *services.RecordService
	syncService   *services.SyncService
	logger        *logging.ChanneledLogger
}

// NewRecordHandlers creates record handlers with injected dependencies
func NewRecordHandlers(recordService *services.RecordService, syncService *services.SyncService, logger *logging.ChanneledLogger) *RecordHandlers {
	return &RecordHandlers{
		recordService: recordService,
		syncService:   syncService,
		logger:        logger,
	}
}

// GetAllRecords returns the full record list using cache-first pattern
func (h *RecordHandlers) GetAllRecords(c *gin.Context) {
	start := time.Now()
	h.logger.Records().Debug("Received get all records request", "method", c.Request.Method, "path", c.Request.URL.Path)

	recordList, err := h.recordService.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Records().Info("Get all records request completed", "count", len(recordList), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"records": recordList,
		"count":   len(recordList),
	})
}

// GetRecordByKey returns a specific record by uuid or case number
func (h *RecordHandlers) GetRecordByKey(c *gin.Context) {
	start := time.Now()
	h.logger.Records().Debug("Received get record request", "method", c.Request.Method, "path", c.Request.URL.Path, "key", c.Param("key"))

	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record key is required"})
		return
	}

	record, err := h.recordService.GetByKey(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	h.logger.Records().Info("Get record request completed", "key", key, "recordId", record.ID, "duration", time.Since(start))
	c.JSON(http.StatusOK, record)
}

// CreateRecord creates a new case record
func (h *RecordHandlers) CreateRecord(c *gin.Context) {
	var record records.CaseRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	stored, err := h.recordService.Create(&record)
	if err != nil {
		var vErr *records.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": vErr.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.syncService.InvalidateList()
	c.JSON(http.StatusCreated, gin.H{
		"message":  "record created successfully",
		"recordId": stored.ID,
	})
}

// UpdateRecord updates an existing case record
func (h *RecordHandlers) UpdateRecord(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record ID is required"})
		return
	}

	var record records.CaseRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Ensure ID matches URL parameter
	record.ID = recordID

	if err := h.recordService.Update(&record); err != nil {
		var vErr *records.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": vErr.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.syncService.Invalidate(recordID)
	c.JSON(http.StatusOK, gin.H{
		"message":  "record updated successfully",
		"recordId": recordID,
	})
}

// DeleteRecord deletes a case record
func (h *RecordHandlers) DeleteRecord(c *gin.Context) {
	recordID := c.Param("id")
	if recordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "record ID is required"})
		return
	}

	if err := h.recordService.Delete(recordID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.syncService.Invalidate(recordID)
	c.JSON(http.StatusOK, gin.H{
		"message":  "record deleted successfully",
		"recordId": recordID,
	})
}
