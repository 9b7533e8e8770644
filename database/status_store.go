// database/status_store.go
package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/kaitak/fehdwatch/models"
)

// GetSystemStatus reads the ingestion status singleton. A missing row is not
// an error: it means no crawl has ever run, and callers report not_started.
func GetSystemStatus() (*models.SystemStatus, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	var status models.SystemStatus
	err := DB.QueryRow(`
		SELECT key, value, updated_at FROM system WHERE key = $1
	`, models.StatusKey).Scan(&status.Key, &status.Value, &status.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query system status: %w", err)
	}
	return &status, nil
}

// SetSystemStatus upserts the ingestion status singleton.
func SetSystemStatus(value string) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	_, err := DB.Exec(`
		INSERT INTO system (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()
	`, models.StatusKey, value)
	if err != nil {
		return fmt.Errorf("failed to set system status to %s: %w", value, err)
	}

	log.Printf("Database: System status set to %q\n", value)
	return nil
}
