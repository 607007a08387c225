package records

import "time"

// WireImage is one entry of the images column.
type WireImage struct {
	ID      string  `json:"id"`
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

// WireRecord is the raw record shape as stored by the data service, before
// UI-side normalization. Optional columns are pointers or untyped bags; this
// shape is never handed to the UI directly.
type WireRecord struct {
	ID          string         `json:"id"`
	CaseNumber  *string        `json:"case_number,omitempty"`
	Title       string         `json:"title"`
	Category    *string        `json:"category,omitempty"`
	Priority    *string        `json:"priority,omitempty"`
	Description *string        `json:"description,omitempty"`
	Details     *string        `json:"details,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Images      []WireImage    `json:"images,omitempty"`
	ContactInfo map[string]any `json:"contact_info,omitempty"`
	CreatedBy   *string        `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// WirePatch carries the user-editable fields of a record back to the data
// service. Images are absent on purpose: attachments travel through the
// upload flow, not through record mutation.
type WirePatch struct {
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Priority    string         `json:"priority"`
	Description string         `json:"description"`
	Details     *string        `json:"details,omitempty"`
	Location    *string        `json:"location,omitempty"`
	ContactInfo map[string]any `json:"contact_info"`
}
