package records

import "regexp"

// KeyKind tags how a lookup key should be interpreted.
type KeyKind string

const (
	// KeyUUID is a canonical server-assigned identifier.
	KeyUUID KeyKind = "uuid"
	// KeyCaseNumber is a human-assigned case number.
	KeyCaseNumber KeyKind = "case_number"
	// KeyUnknown disables targeted live sync for the lookup; fetches still run.
	KeyUnknown KeyKind = "unknown"
)

var (
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// Case numbers look like 2024-K-001 or POL-2025-K-649864-A:
	// optional literal prefix, 4-digit year, one uppercase letter,
	// 3-6 digits, optional trailing letter.
	caseNumberPattern = regexp.MustCompile(`^(?:[A-Z]+-)?[0-9]{4}-[A-Z]-[0-9]{3,6}(?:-[A-Z])?$`)
)

// ClassifyKey tags a lookup key as a uuid, a case number, or unknown.
// Pure and total; rules are checked in order.
func ClassifyKey(key string) KeyKind {
	if uuidPattern.MatchString(key) {
		return KeyUUID
	}
	if caseNumberPattern.MatchString(key) {
		return KeyCaseNumber
	}
	return KeyUnknown
}
