// Package records provides the investigation record repository
package records

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/caching/interfaces"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/persistence/database"
	"github.com/caseboardhq/caseboard-go/pkg/config"
)

// ListKeyAll is the filter signature of the unfiltered list query.
const ListKeyAll = "all"

type RecordRepository struct {
	db     *database.DB
	cache  interfaces.Cache
	logger *logging.ChanneledLogger
	group  singleflight.Group
}

func NewRecordRepository(db *database.DB, cache interfaces.Cache, logger *logging.ChanneledLogger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// FindByID retrieves one record, cache-first. Concurrent misses for the
// same ID share a single database load.
func (r *RecordRepository) FindByID(id string) (*records.CaseRecord, error) {
	if record, found := r.cache.GetRecord(id); found {
		return record, nil
	}

	result, err, _ := r.group.Do("record:"+id, func() (any, error) {
		record, err := r.loadFromDB(id)
		if err != nil {
			return nil, err
		}
		if record != nil {
			r.cache.SetRecord(record)
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*records.CaseRecord), nil
}

// FindByCaseNumber resolves a human-facing case number and loads the record.
func (r *RecordRepository) FindByCaseNumber(caseNumber string) (*records.CaseRecord, error) {
	if id, found := r.cache.GetRecordIDByCaseNumber(caseNumber); found {
		return r.FindByID(id)
	}

	id, err := r.getIDByCaseNumberFromDB(caseNumber)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return r.FindByID(id)
}

// FindAll retrieves every record, employing a cache-first strategy on the
// master ID list. Concurrent list misses share a single load.
func (r *RecordRepository) FindAll() ([]*records.CaseRecord, error) {
	if ids, found := r.cache.GetList(ListKeyAll); found {
		return r.findByIDs(ids)
	}

	result, err, _ := r.group.Do("list:"+ListKeyAll, func() (any, error) {
		ids, err := r.loadAllIDsFromDB()
		if err != nil {
			return nil, err
		}
		r.cache.SetList(ListKeyAll, ids)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return r.findByIDs(result.([]string))
}

func (r *RecordRepository) findByIDs(ids []string) ([]*records.CaseRecord, error) {
	result := make([]*records.CaseRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.FindByID(id)
		if err != nil {
			return nil, err
		}
		if record != nil {
			result = append(result, record)
		}
	}
	return result, nil
}

// Store validates and inserts a new record, assigning a server-side ID
// when the caller left it empty.
func (r *RecordRepository) Store(record *records.CaseRecord) error {
	patch, err := records.ToAPIFormat(record)
	if err != nil {
		return err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	contactJSON, _ := json.Marshal(patch.ContactInfo)
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `INSERT INTO investigations (id, case_number, title, category, priority, description, details, location, contact_info, created_by, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing record insert", "id", record.ID)

	err = r.withRetry("insert record", func() error {
		_, execErr := r.db.Exec(query, record.ID, nullable(record.CaseNumber), patch.Title,
			patch.Category, patch.Priority, patch.Description, patch.Details, patch.Location,
			string(contactJSON), nullable(record.CreatedBy), now.Format(time.RFC3339), now.Format(time.RFC3339))
		return execErr
	})
	if err != nil {
		r.logger.Database().Error("Record insert failed", "error", err.Error(), "id", record.ID)
		return fmt.Errorf("failed to insert record: %w", err)
	}

	r.logger.Database().Info("Record insert completed", "id", record.ID, "duration", time.Since(start))
	r.logSlow(query, time.Since(start))

	r.cache.SetRecord(record)
	r.cache.MarkListsStale()
	return nil
}

// Update validates and writes the user-editable fields of a record.
func (r *RecordRepository) Update(record *records.CaseRecord) error {
	patch, err := records.ToAPIFormat(record)
	if err != nil {
		return err
	}

	contactJSON, _ := json.Marshal(patch.ContactInfo)
	now := time.Now().UTC()
	record.UpdatedAt = now

	query := `UPDATE investigations SET title = ?, category = ?, priority = ?, description = ?,
              details = ?, location = ?, contact_info = ?, updated_at = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing record update", "id", record.ID)

	err = r.withRetry("update record", func() error {
		_, execErr := r.db.Exec(query, patch.Title, patch.Category, patch.Priority,
			patch.Description, patch.Details, patch.Location, string(contactJSON),
			now.Format(time.RFC3339), record.ID)
		return execErr
	})
	if err != nil {
		r.logger.Database().Error("Record update failed", "error", err.Error(), "id", record.ID)
		return fmt.Errorf("failed to update record: %w", err)
	}

	r.logger.Database().Info("Record update completed", "id", record.ID, "duration", time.Since(start))
	r.logSlow(query, time.Since(start))

	r.cache.SetRecord(record)
	r.cache.MarkListsStale()
	return nil
}

// Delete removes a record and evicts it from the cache.
func (r *RecordRepository) Delete(id string) error {
	query := `DELETE FROM investigations WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing record delete", "id", id)

	err := r.withRetry("delete record", func() error {
		_, execErr := r.db.Exec(query, id)
		return execErr
	})
	if err != nil {
		r.logger.Database().Error("Record delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete record: %w", err)
	}

	r.logger.Database().Info("Record delete completed", "id", id, "duration", time.Since(start))
	r.logSlow(query, time.Since(start))

	r.cache.RemoveRecord(id)
	r.cache.MarkListsStale()
	return nil
}

func (r *RecordRepository) loadFromDB(id string) (*records.CaseRecord, error) {
	query := `SELECT id, case_number, title, category, priority, description, details, location, images, contact_info, created_by, created_at, updated_at
              FROM investigations WHERE id = ?`

	start := time.Now()

	var raw *records.WireRecord
	err := r.withRetry("load record", func() error {
		row := r.db.QueryRow(query, id)
		wire, scanErr := scanWireRecord(row)
		if scanErr != nil {
			return scanErr
		}
		raw = wire
		return nil
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load record", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	r.logSlow(query, time.Since(start))

	result := records.ToUIFormat(raw)
	if !result.OK {
		r.logger.Records().Warn("Rejecting malformed record from store", "id", id, "error", result.Err)
		return nil, fmt.Errorf("malformed record %s: %w", id, result.Err)
	}
	return result.Record, nil
}

func (r *RecordRepository) getIDByCaseNumberFromDB(caseNumber string) (string, error) {
	query := `SELECT id FROM investigations WHERE case_number = ?`

	var id string
	err := r.withRetry("resolve case number", func() error {
		return r.db.QueryRow(query, caseNumber).Scan(&id)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to resolve case number: %w", err)
	}
	return id, nil
}

func (r *RecordRepository) loadAllIDsFromDB() ([]string, error) {
	query := `SELECT id FROM investigations ORDER BY updated_at DESC`

	start := time.Now()
	r.logger.Database().Debug("Loading all record IDs from database")

	var ids []string
	err := r.withRetry("load record IDs", func() error {
		rows, queryErr := r.db.Query(query)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		ids = ids[:0]
		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				return scanErr
			}
			ids = append(ids, id)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Database().Error("Failed to query record IDs", "error", err.Error())
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	r.logger.Database().Info("Loaded record IDs from database", "count", len(ids), "duration", time.Since(start))
	r.logSlow(query, time.Since(start))
	return ids, nil
}

// withRetry runs op with capped exponential delays between attempts.
// sql.ErrNoRows is terminal and never retried.
func (r *RecordRepository) withRetry(label string, op func() error) error {
	var err error
	for attempt := 1; attempt <= config.FetchMaxAttempts; attempt++ {
		err = op()
		if err == nil || err == sql.ErrNoRows {
			return err
		}
		if attempt == config.FetchMaxAttempts {
			break
		}

		delay := config.FetchBaseDelay << (attempt - 1)
		if delay > config.FetchMaxDelay {
			delay = config.FetchMaxDelay
		}
		r.logger.Database().Warn("Retrying database operation",
			"op", label, "attempt", attempt, "delay", delay, "error", err.Error())
		time.Sleep(delay)
	}
	return err
}

func (r *RecordRepository) logSlow(query string, duration time.Duration) {
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
