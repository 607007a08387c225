package records

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/caseboardhq/caseboard-go/internal/domain/entities/records"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanWireRecord maps one investigations row into the raw wire shape.
// Column-level normalization stays out of here; ToUIFormat owns it.
func scanWireRecord(row rowScanner) (*records.WireRecord, error) {
	var (
		id, title                       sql.NullString
		caseNumber, category, priority  sql.NullString
		description, details, location  sql.NullString
		imagesJSON, contactJSON         sql.NullString
		createdBy, createdAt, updatedAt sql.NullString
	)

	if err := row.Scan(&id, &caseNumber, &title, &category, &priority, &description,
		&details, &location, &imagesJSON, &contactJSON, &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	wire := &records.WireRecord{
		ID:          id.String,
		Title:       title.String,
		CaseNumber:  optional(caseNumber),
		Category:    optional(category),
		Priority:    optional(priority),
		Description: optional(description),
		Details:     optional(details),
		Location:    optional(location),
		CreatedBy:   optional(createdBy),
		CreatedAt:   parseTimestamp(createdAt),
		UpdatedAt:   parseTimestamp(updatedAt),
	}

	if imagesJSON.Valid && imagesJSON.String != "" {
		if err := json.Unmarshal([]byte(imagesJSON.String), &wire.Images); err != nil {
			wire.Images = nil
		}
	}
	if contactJSON.Valid && contactJSON.String != "" {
		if err := json.Unmarshal([]byte(contactJSON.String), &wire.ContactInfo); err != nil {
			wire.ContactInfo = nil
		}
	}

	return wire, nil
}

func optional(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	value := s.String
	return &value
}

func parseTimestamp(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s.String); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s.String); err == nil {
		return t
	}
	return time.Time{}
}
