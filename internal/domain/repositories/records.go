// Package repositories defines the repository interfaces for investigation
// records. These abstract the data persistence details, ensuring the core
// application is clean and decoupled from the database.
package repositories

import (
	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
)

type RecordRepository interface {
	FindByID(id string) (*records.CaseRecord, error)
	FindByCaseNumber(caseNumber string) (*records.CaseRecord, error)
	FindAll() ([]*records.CaseRecord, error)
	Store(record *records.CaseRecord) error
	Update(record *records.CaseRecord) error
	Delete(id string) error
}
