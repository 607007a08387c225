// Package records defines the application's core investigation-record
// domain entities and the wire/UI conversion layer.
package records

import "time"

// Category is the closed set of investigation categories.
type Category string

const (
	CategoryWantedPerson        Category = "wanted-person"
	CategoryMissingPerson       Category = "missing-person"
	CategoryUnidentifiedRemains Category = "unidentified-deceased"
	CategoryStolenProperty      Category = "stolen-property"
)

// DefaultCategory is applied when the store carries no category.
const DefaultCategory = CategoryMissingPerson

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryWantedPerson,
		CategoryMissingPerson,
		CategoryUnidentifiedRemains,
		CategoryStolenProperty,
	}
}

// IsValid reports whether c is a member of the closed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryWantedPerson, CategoryMissingPerson, CategoryUnidentifiedRemains, CategoryStolenProperty:
		return true
	}
	return false
}

// Priority is the record's triage level.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
	PriorityNew    Priority = "new"
)

// DefaultPriority is applied when the store carries no priority.
const DefaultPriority = PriorityNormal

// IsValid reports whether p is a recognized priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityNew:
		return true
	}
	return false
}

// CaseImage is one attached image in the UI model.
type CaseImage struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// ContactInfo is the narrowed contact bag. The wire format carries this as a
// free-form object; the UI model only ever sees these four fields.
type ContactInfo struct {
	Person       string `json:"person" validate:"required"`
	Phone        string `json:"phone" validate:"required,phonechars"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Organization string `json:"organization,omitempty"`
}

// CaseRecord is the normalized UI-internal shape of an investigation record.
// Write validation tags apply only through ValidateForSave; reads go through
// the permissive read rules in ToUIFormat.
type CaseRecord struct {
	ID          string      `json:"id"`
	CaseNumber  string      `json:"caseNumber,omitempty"`
	Title       string      `json:"title" validate:"required"`
	Category    Category    `json:"category" validate:"required,casecategory"`
	Priority    Priority    `json:"priority" validate:"omitempty,casepriority"`
	Description string      `json:"description" validate:"required"`
	Details     string      `json:"details,omitempty"`
	Location    string      `json:"location,omitempty"`
	MainImage   *CaseImage  `json:"mainImage,omitempty"`
	MoreImages  []CaseImage `json:"moreImages,omitempty"`
	Contact     ContactInfo `json:"contact"`
	CreatedBy   string      `json:"createdBy,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Images returns the full attachment list, main image first.
func (r *CaseRecord) Images() []CaseImage {
	if r.MainImage == nil {
		return append([]CaseImage(nil), r.MoreImages...)
	}
	out := make([]CaseImage, 0, len(r.MoreImages)+1)
	out = append(out, *r.MainImage)
	out = append(out, r.MoreImages...)
	return out
}
