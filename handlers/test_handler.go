// handlers/test_handler.go
package handlers

import (
	"log"
	"net/http"

	"github.com/kaitak/fehdwatch/scraper"
	"github.com/kaitak/fehdwatch/services"
)

// Seams for tests.
var (
	loadSampleData = services.LoadSampleData
	probeUpstream  = scraper.ProbeUpstream
)

// LoadSampleDataHandler serves POST /test/load-sample-data. It seeds a fixed
// demo dataset, bypassing the live site entirely.
func LoadSampleDataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	result, err := loadSampleData()
	if err != nil {
		log.Printf("ERROR Handler: Failed to load sample data: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load sample data")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Sample data loaded successfully",
		"result":  result,
	})
}

// ProbeUpstreamHandler serves GET /debug/fehd-probe, reporting what the
// upstream listing page currently returns.
func ProbeUpstreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	respondWithJSON(w, http.StatusOK, probeUpstream())
}
