package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKey_UUID(t *testing.T) {
	assert.Equal(t, KeyUUID, ClassifyKey("550e8400-e29b-41d4-a716-446655440000"))
	assert.Equal(t, KeyUUID, ClassifyKey("550E8400-E29B-41D4-A716-446655440000"), "uppercase hex is still canonical")
}

func TestClassifyKey_CaseNumber(t *testing.T) {
	cases := []string{
		"POL-2025-K-649864-A",
		"2024-K-001",
		"2024-K-123456",
		"ABC-1999-Z-999",
	}
	for _, key := range cases {
		assert.Equal(t, KeyCaseNumber, ClassifyKey(key), "key %q", key)
	}
}

func TestClassifyKey_Unknown(t *testing.T) {
	cases := []string{
		"my-custom-slug",
		"",
		"550e8400-e29b-41d4-a716",          // truncated uuid
		"2024-KK-001",                      // two letters
		"24-K-001",                         // two-digit year
		"2024-K-12",                        // too few digits
		"2024-K-1234567",                   // too many digits
		"pol-2025-K-649864-A",              // lowercase prefix
		"550e8400e29b41d4a716446655440000", // undashed uuid
	}
	for _, key := range cases {
		assert.Equal(t, KeyUnknown, ClassifyKey(key), "key %q", key)
	}
}

func TestClassifyKey_Deterministic(t *testing.T) {
	// Same input, same tag, every time.
	for i := 0; i < 10; i++ {
		assert.Equal(t, KeyCaseNumber, ClassifyKey("2024-K-001"))
	}
}
