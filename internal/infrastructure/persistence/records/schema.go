package records

import (
	"fmt"

	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/persistence/database"
)

// EnsureSchema creates the investigations table when the local sqlite
// store is used. The hosted data service manages its own schema.
func EnsureSchema(db *database.DB, logger *logging.ChanneledLogger) error {
	query := `CREATE TABLE IF NOT EXISTS investigations (
        id TEXT PRIMARY KEY,
        case_number TEXT UNIQUE,
        title TEXT NOT NULL,
        category TEXT,
        priority TEXT,
        description TEXT,
        details TEXT,
        location TEXT,
        images TEXT,
        contact_info TEXT,
        created_by TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_investigations_case_number ON investigations(case_number);
    CREATE INDEX IF NOT EXISTS idx_investigations_updated_at ON investigations(updated_at);`

	if _, err := db.Exec(query); err != nil {
		logger.Database().Error("Schema setup failed", "error", err.Error())
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	logger.Database().Info("Investigations schema verified")
	return nil
}
