// handlers/job_handler.go
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/services"
)

// Seams for tests to substitute the status store and the crawler.
var (
	fetchStatus = database.GetSystemStatus
	runCrawl    = func(currentStatus string, opts models.CrawlOptions) (models.CrawlResult, string, error) {
		crawler, err := services.NewFEHDCrawler()
		if err != nil {
			return models.CrawlResult{}, currentStatus, err
		}
		return crawler.Run(currentStatus, opts)
	}
)

// TriggerCrawlHandler serves POST /jobs/crawl. A preview run is the default;
// ?full=true crawls everything. Once the system is seeded, preview runs are
// refused so a stray manual trigger cannot churn the dataset.
func TriggerCrawlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	opts := models.CrawlOptions{
		Full: r.URL.Query().Get("full") == "true",
	}
	if v := r.URL.Query().Get("startPage"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			opts.StartPage = page
		}
	}

	status, err := fetchStatus()
	if err != nil {
		log.Printf("ERROR Handler: Failed to read system status: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to read system status")
		return
	}
	currentStatus := models.StatusNotStarted
	if status != nil {
		currentStatus = status.Value
	}

	if currentStatus == models.StatusSeeded && !opts.Full {
		respondWithError(w, http.StatusBadRequest, "Database already seeded. Use weekly cron job for updates.")
		return
	}

	log.Printf("Handler: Starting crawl (full=%t, status=%s)\n", opts.Full, currentStatus)
	result, newStatus, err := runCrawl(currentStatus, opts)
	if err != nil {
		log.Printf("ERROR Handler: Crawl failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Crawl failed: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, models.CrawlResponse{
		Success: true,
		Result:  result,
		Status:  newStatus,
	})
}

// GetJobStatusHandler serves GET /jobs/status.
func GetJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	status, err := fetchStatus()
	if err != nil {
		log.Printf("ERROR Handler: Failed to read system status: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to read system status")
		return
	}

	payload := map[string]interface{}{
		"status":      models.StatusNotStarted,
		"lastUpdated": nil,
	}
	if status != nil {
		payload["status"] = status.Value
		payload["lastUpdated"] = status.UpdatedAt.Format(time.RFC3339)
	}
	respondWithJSON(w, http.StatusOK, payload)
}
