package realtime

import "github.com/caseboardhq/caseboard-go/internal/infrastructure/security"

// nextRef mints a sortable ref for correlating events in the logs.
func nextRef() string {
	return security.GenerateULID()
}
