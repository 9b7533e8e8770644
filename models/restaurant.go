// models/restaurant.go
package models

import "time"

// DefaultLicenceType is used when the upstream entry carries no licence
// classification of its own.
const DefaultLicenceType = "General Restaurant Licence"

// Restaurant is the canonical licensed-restaurant record. JSON tags match the
// column names so the browser table can consume rows directly.
type Restaurant struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	District    *string   `db:"district" json:"district"`
	Address     *string   `db:"address" json:"address"`
	LicenceNo   string    `db:"licence_no" json:"licence_no"`
	LicenceType string    `db:"licence_type" json:"licence_type"`
	ValidTil    *string   `db:"valid_til" json:"valid_til"` // ISO date (YYYY-MM-DD); nil when the upstream expiry was absent or unparseable
	FirstSeen   time.Time `db:"first_seen" json:"first_seen"`
	NewFlag     bool      `db:"new_flag" json:"new_flag"`
}

// SystemStatus is the single persisted row tracking how far ingestion has
// progressed. Exactly one row with key "status" exists after the first crawl.
type SystemStatus struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StatusKey is the fixed key of the status singleton.
const StatusKey = "status"

// Ingestion states. StatusNotStarted is implicit: it is reported when the
// singleton row does not exist yet and is never written.
const (
	StatusNotStarted     = "not_started"
	StatusPreviewDone    = "preview_done"
	StatusSeeded         = "seeded"
	StatusTestDataLoaded = "test_data_loaded"
)
