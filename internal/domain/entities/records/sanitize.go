package records

import (
	"regexp"
	"strings"
)

var (
	// phoneCharsPattern is the permissive set a phone field may contain.
	phoneCharsPattern = regexp.MustCompile(`^[0-9+()\-\s./]+$`)
	phoneStripPattern = regexp.MustCompile(`[^0-9+()\-\s./]`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SanitizePhone strips disallowed characters from a phone number rather than
// rejecting the whole payload.
func SanitizePhone(phone string) string {
	return strings.TrimSpace(phoneStripPattern.ReplaceAllString(phone, ""))
}

// SanitizeEmail returns the trimmed email, or the empty string when the value
// does not parse as an address. Blanking beats rejecting here: email is an
// optional field.
func SanitizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}
