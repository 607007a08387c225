package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validWireRecord() *WireRecord {
	return &WireRecord{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		CaseNumber:  strPtr("2024-K-001"),
		Title:       "Missing person near riverside",
		Category:    strPtr("missing-person"),
		Priority:    strPtr("urgent"),
		Description: strPtr("Last seen on the east bank."),
		Details:     strPtr("Wearing a green coat."),
		Location:    strPtr("Riverside district"),
		Images: []WireImage{
			{ID: "img-1", URL: "https://cdn.example.com/img-1.jpg", Caption: strPtr("Portrait")},
			{ID: "img-2", URL: "https://cdn.example.com/img-2.jpg"},
		},
		ContactInfo: map[string]any{
			"person": "Insp. Kovacs",
			"phone":  "+36 1 234 5678",
			"email":  "kovacs@example.com",
		},
		CreatedBy: strPtr("user-7"),
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC),
	}
}

func TestToUIFormat_ValidRecord(t *testing.T) {
	result := ToUIFormat(validWireRecord())
	require.True(t, result.OK)
	require.NotNil(t, result.Record)
	require.Nil(t, result.Err)

	rec := result.Record
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", rec.ID)
	assert.Equal(t, "2024-K-001", rec.CaseNumber)
	assert.Equal(t, CategoryMissingPerson, rec.Category)
	assert.Equal(t, PriorityUrgent, rec.Priority)

	require.NotNil(t, rec.MainImage)
	assert.Equal(t, "img-1", rec.MainImage.ID)
	assert.Equal(t, "Portrait", rec.MainImage.Caption)
	require.Len(t, rec.MoreImages, 1)
	assert.Equal(t, "img-2", rec.MoreImages[0].ID)

	assert.Equal(t, "Insp. Kovacs", rec.Contact.Person)
	assert.Equal(t, "+36 1 234 5678", rec.Contact.Phone)
	assert.Equal(t, "kovacs@example.com", rec.Contact.Email)
}

func TestToUIFormat_DefaultsForMissingOptionals(t *testing.T) {
	raw := &WireRecord{
		ID:    "rec-1",
		Title: "Bare legacy record",
	}

	result := ToUIFormat(raw)
	require.True(t, result.OK)

	rec := result.Record
	assert.Equal(t, DefaultCategory, rec.Category)
	assert.Equal(t, DefaultPriority, rec.Priority)
	assert.Nil(t, rec.MainImage)
	assert.Empty(t, rec.MoreImages)
	assert.Empty(t, rec.Contact.Person)
	assert.Empty(t, rec.Description)
}

func TestToUIFormat_NilAndMissingRequired(t *testing.T) {
	result := ToUIFormat(nil)
	require.False(t, result.OK)
	assert.Nil(t, result.Record, "failure variant must not carry a partial record")
	assert.NotEmpty(t, result.Err.Reason)

	result = ToUIFormat(&WireRecord{Title: "no id"})
	require.False(t, result.OK)
	assert.Equal(t, "id", result.Err.Field)

	result = ToUIFormat(&WireRecord{ID: "rec-1"})
	require.False(t, result.OK)
	assert.Equal(t, "title", result.Err.Field)
}

func TestToUIFormat_WrongTypeInContactBag(t *testing.T) {
	raw := validWireRecord()
	raw.ContactInfo["phone"] = 12345678

	result := ToUIFormat(raw)
	require.False(t, result.OK)
	assert.Nil(t, result.Record)
	assert.Equal(t, "contact.phone", result.Err.Field)
	assert.Contains(t, result.Err.Reason, "expected string")
}

func TestToUIFormat_UnrecognizedCategory(t *testing.T) {
	raw := validWireRecord()
	raw.Category = strPtr("alien-abduction")

	result := ToUIFormat(raw)
	require.False(t, result.OK)
	assert.Equal(t, "category", result.Err.Field)
}

func TestToUIFormat_ImageMissingURL(t *testing.T) {
	raw := validWireRecord()
	raw.Images = []WireImage{{ID: "img-1"}}

	result := ToUIFormat(raw)
	require.False(t, result.OK)
	assert.Equal(t, "images", result.Err.Field)
}

func TestRoundTrip_EditableFieldsUnchanged(t *testing.T) {
	raw := validWireRecord()

	result := ToUIFormat(raw)
	require.True(t, result.OK)

	patch, err := ToAPIFormat(result.Record)
	require.NoError(t, err)

	assert.Equal(t, raw.Title, patch.Title)
	assert.Equal(t, *raw.Category, patch.Category)
	assert.Equal(t, *raw.Priority, patch.Priority)
	assert.Equal(t, *raw.Description, patch.Description)
	require.NotNil(t, patch.Details)
	assert.Equal(t, *raw.Details, *patch.Details)
	require.NotNil(t, patch.Location)
	assert.Equal(t, *raw.Location, *patch.Location)
	assert.Equal(t, raw.ContactInfo["person"], patch.ContactInfo["person"])
	assert.Equal(t, raw.ContactInfo["phone"], patch.ContactInfo["phone"])
	assert.Equal(t, raw.ContactInfo["email"], patch.ContactInfo["email"])
}

func TestToAPIFormat_RejectsInvalidRecord(t *testing.T) {
	result := ToUIFormat(validWireRecord())
	require.True(t, result.OK)

	rec := result.Record
	rec.Title = ""

	patch, err := ToAPIFormat(rec)
	assert.Nil(t, patch)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestToAPIFormat_OmitsBlankOptionalContact(t *testing.T) {
	result := ToUIFormat(validWireRecord())
	require.True(t, result.OK)

	rec := result.Record
	rec.Contact.Email = ""
	rec.Contact.Organization = ""

	patch, err := ToAPIFormat(rec)
	require.NoError(t, err)
	_, hasEmail := patch.ContactInfo["email"]
	assert.False(t, hasEmail, "blank email is omitted from the bag")
	_, hasOrg := patch.ContactInfo["organization"]
	assert.False(t, hasOrg)
}
