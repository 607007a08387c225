package records

import (
	"fmt"
)

// ConversionError is the structured failure carried by a ConversionResult.
type ConversionError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConversionResult is a tagged success/failure value. It is never partially
// populated: either OK is true and Record is a fully normalized CaseRecord,
// or OK is false and Err describes the failure.
type ConversionResult struct {
	OK     bool
	Record *CaseRecord
	Err    *ConversionError
}

func conversionFailure(field, reason string) ConversionResult {
	return ConversionResult{OK: false, Err: &ConversionError{Field: field, Reason: reason}}
}

// ToUIFormat normalizes a raw wire record into the UI-internal shape.
// It never panics; malformed input yields the failure variant so callers can
// branch on one boolean and fall back to a safe-default view.
func ToUIFormat(raw *WireRecord) ConversionResult {
	if raw == nil {
		return conversionFailure("record", "wire record is nil")
	}
	if raw.ID == "" {
		return conversionFailure("id", "is required")
	}
	if raw.Title == "" {
		return conversionFailure("title", "is required")
	}

	rec := &CaseRecord{
		ID:        raw.ID,
		Title:     raw.Title,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}

	if raw.CaseNumber != nil {
		rec.CaseNumber = *raw.CaseNumber
	}
	if raw.Description != nil {
		rec.Description = *raw.Description
	}
	if raw.Details != nil {
		rec.Details = *raw.Details
	}
	if raw.Location != nil {
		rec.Location = *raw.Location
	}
	if raw.CreatedBy != nil {
		rec.CreatedBy = *raw.CreatedBy
	}

	// Missing category/priority default; present but unrecognized values are
	// malformed data, not legacy looseness.
	rec.Category = DefaultCategory
	if raw.Category != nil && *raw.Category != "" {
		c := Category(*raw.Category)
		if !c.IsValid() {
			return conversionFailure("category", fmt.Sprintf("unrecognized category %q", *raw.Category))
		}
		rec.Category = c
	}

	rec.Priority = DefaultPriority
	if raw.Priority != nil && *raw.Priority != "" {
		p := Priority(*raw.Priority)
		if !p.IsValid() {
			return conversionFailure("priority", fmt.Sprintf("unrecognized priority %q", *raw.Priority))
		}
		rec.Priority = p
	}

	// First attachment becomes the main image, the remainder the extras.
	for i, img := range raw.Images {
		if img.ID == "" || img.URL == "" {
			return conversionFailure("images", fmt.Sprintf("image %d is missing id or url", i))
		}
		ui := CaseImage{ID: img.ID, URL: img.URL}
		if img.Caption != nil {
			ui.Caption = *img.Caption
		}
		if i == 0 {
			main := ui
			rec.MainImage = &main
		} else {
			rec.MoreImages = append(rec.MoreImages, ui)
		}
	}

	contact, cerr := narrowContact(raw.ContactInfo)
	if cerr != nil {
		return ConversionResult{OK: false, Err: cerr}
	}
	rec.Contact = contact

	return ConversionResult{OK: true, Record: rec}
}

// narrowContact pulls the four known contact fields out of the free-form
// wire bag, type-checking each. A present key with a non-string value is
// malformed data and fails the whole conversion.
func narrowContact(bag map[string]any) (ContactInfo, *ConversionError) {
	var contact ContactInfo
	if bag == nil {
		return contact, nil
	}

	fields := []struct {
		key string
		dst *string
	}{
		{"person", &contact.Person},
		{"phone", &contact.Phone},
		{"email", &contact.Email},
		{"organization", &contact.Organization},
	}

	for _, f := range fields {
		v, present := bag[f.key]
		if !present || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return ContactInfo{}, &ConversionError{
				Field:  "contact." + f.key,
				Reason: fmt.Sprintf("expected string, got %T", v),
			}
		}
		*f.dst = s
	}

	return contact, nil
}

// ToAPIFormat maps a UI record back to the wire patch shape used for writes.
// The stricter write validation runs first; an invalid record never reaches
// the data service.
func ToAPIFormat(rec *CaseRecord) (*WirePatch, error) {
	if rec == nil {
		return nil, &ValidationError{Field: "record", Reason: "is nil"}
	}
	if err := ValidateForSave(rec); err != nil {
		return nil, err
	}

	patch := &WirePatch{
		Title:       rec.Title,
		Category:    string(rec.Category),
		Priority:    string(rec.Priority),
		Description: rec.Description,
		ContactInfo: contactBag(rec.Contact),
	}
	if rec.Details != "" {
		details := rec.Details
		patch.Details = &details
	}
	if rec.Location != "" {
		location := rec.Location
		patch.Location = &location
	}

	return patch, nil
}

// contactBag rebuilds the wire contact object, sanitizing on the way out.
func contactBag(c ContactInfo) map[string]any {
	bag := map[string]any{
		"person": c.Person,
		"phone":  SanitizePhone(c.Phone),
	}
	if email := SanitizeEmail(c.Email); email != "" {
		bag["email"] = email
	}
	if c.Organization != "" {
		bag["organization"] = c.Organization
	}
	return bag
}
