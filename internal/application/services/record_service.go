// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories and domain entities.
package services

import (
	"fmt"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/domain/repositories"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
)

// RecordService orchestrates record operations with cache-first repository pattern
type RecordService struct {
	recordRepo repositories.RecordRepository
	logger     *logging.ChanneledLogger
}

// NewRecordService creates a new record application service
func NewRecordService(recordRepo repositories.RecordRepository, logger *logging.ChanneledLogger) *RecordService {
	return &RecordService{
		recordRepo: recordRepo,
		logger:     logger,
	}
}

// GetByKey resolves a lookup key by its shape. Canonical IDs load
// directly, case numbers go through the index, anything else gets a
// best-effort lookup against both.
func (s *RecordService) GetByKey(key string) (*records.CaseRecord, error) {
	switch records.ClassifyKey(key) {
	case records.KeyUUID:
		return s.GetByID(key)
	case records.KeyCaseNumber:
		return s.GetByCaseNumber(key)
	default:
		// Degraded mode: the key shape is unrecognized, so live sync
		// cannot target it, but the lookup itself still runs.
		s.logger.Records().Debug("Unrecognized record key shape, best-effort lookup", "key", key)
		record, err := s.recordRepo.FindByCaseNumber(key)
		if err != nil {
			return nil, fmt.Errorf("failed to get record by key %s: %w", key, err)
		}
		if record != nil {
			return record, nil
		}
		record, err = s.recordRepo.FindByID(key)
		if err != nil {
			return nil, fmt.Errorf("failed to get record by key %s: %w", key, err)
		}
		return record, nil
	}
}

// GetByID returns a record by canonical ID (cache-first)
func (s *RecordService) GetByID(id string) (*records.CaseRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("record ID cannot be empty")
	}

	record, err := s.recordRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return record, nil
}

// GetByCaseNumber returns a record by its human-facing case number (cache-first)
func (s *RecordService) GetByCaseNumber(caseNumber string) (*records.CaseRecord, error) {
	record, err := s.recordRepo.FindByCaseNumber(caseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get record by case number %s: %w", caseNumber, err)
	}
	return record, nil
}

// GetAll returns every record (cache-first on the master ID list)
func (s *RecordService) GetAll() ([]*records.CaseRecord, error) {
	result, err := s.recordRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get all records: %w", err)
	}
	return result, nil
}

// Create validates and stores a new record
func (s *RecordService) Create(record *records.CaseRecord) (*records.CaseRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}

	if err := s.recordRepo.Store(record); err != nil {
		return nil, err
	}
	s.logger.Records().Info("Record created", "id", record.ID, "category", record.Category)
	return record, nil
}

// Update validates and writes the user-editable fields of a record
func (s *RecordService) Update(record *records.CaseRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	if err := s.recordRepo.Update(record); err != nil {
		return err
	}
	s.logger.Records().Info("Record updated", "id", record.ID)
	return nil
}

// Delete removes a record
func (s *RecordService) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	if err := s.recordRepo.Delete(id); err != nil {
		return err
	}
	s.logger.Records().Info("Record deleted", "id", id)
	return nil
}
