// services/crawl_service.go
package services

import (
	"fmt"
	"log"
	"time"

	"github.com/kaitak/fehdwatch/config"
	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/scraper"
)

// recencyWindow is how long a restaurant keeps its new flag after first
// being seen.
const recencyWindow = 30 * 24 * time.Hour

// maxConsecutivePageFailures ends a paged run that keeps hitting fetch
// errors, so an upstream outage cannot spin the loop forever.
const maxConsecutivePageFailures = 5

// Source supplies raw upstream entries. Paged sources are pulled page by
// page; whole-payload sources arrive in one fetch. Fetch methods return the
// format that actually produced the entries, since auto mode may fall back
// from XML to CSV mid-fetch.
type Source interface {
	Paged() bool
	FetchPage(page int) ([]scraper.RawEntry, scraper.SourceFormat, error)
	FetchAll() ([]scraper.RawEntry, scraper.SourceFormat, error)
}

// CrawlStore is the slice of the store a crawl run writes to.
type CrawlStore interface {
	UpsertRestaurant(r *models.Restaurant) (bool, error)
	ClearExpiredNewFlags(cutoff time.Time) (int64, error)
	SetSystemStatus(value string) error
}

// Crawler orchestrates one ingestion run: fetch, normalize, upsert, sweep
// stale new flags, advance the system status.
type Crawler struct {
	source         Source
	store          CrawlStore
	recordsPerPage int
	previewLimit   int
	totalEstimate  int
	pageDelay      time.Duration
	now            func() time.Time
}

// NewCrawler builds a crawler over an explicit source and store, sized from
// the loaded configuration.
func NewCrawler(source Source, store CrawlStore) *Crawler {
	cfg := config.AppConfig.Crawler
	return &Crawler{
		source:         source,
		store:          store,
		recordsPerPage: cfg.RecordsPerPage,
		previewLimit:   cfg.PreviewLimit,
		totalEstimate:  cfg.TotalRecordsEstimate,
		pageDelay:      cfg.PageDelay,
		now:            time.Now,
	}
}

// NewFEHDCrawler wires the crawler to the live FEHD site and the SQL store.
func NewFEHDCrawler() (*Crawler, error) {
	format, err := scraper.FormatByName(config.AppConfig.Crawler.Format)
	if err != nil {
		return nil, err
	}
	return NewCrawler(&fehdSource{format: format}, dbCrawlStore{}), nil
}

// fehdSource adapts the scraper fetchers to the Source interface, honoring
// the configured format.
type fehdSource struct {
	format scraper.SourceFormat
}

func (s *fehdSource) Paged() bool { return s.format.Paged }

func (s *fehdSource) FetchPage(page int) ([]scraper.RawEntry, scraper.SourceFormat, error) {
	var entries []scraper.RawEntry
	var err error
	switch s.format.Name {
	case "json":
		entries, err = scraper.FetchDataPage(page)
	case "html":
		entries, err = scraper.FetchListingPage(page)
	default:
		return nil, s.format, fmt.Errorf("format %s is not paged", s.format.Name)
	}
	return entries, s.format, err
}

func (s *fehdSource) FetchAll() ([]scraper.RawEntry, scraper.SourceFormat, error) {
	return scraper.FetchRestaurantPayload()
}

// dbCrawlStore adapts the package-level database functions to CrawlStore.
type dbCrawlStore struct{}

func (dbCrawlStore) UpsertRestaurant(r *models.Restaurant) (bool, error) {
	return database.UpsertRestaurant(r)
}

func (dbCrawlStore) ClearExpiredNewFlags(cutoff time.Time) (int64, error) {
	return database.ClearExpiredNewFlags(cutoff)
}

func (dbCrawlStore) SetSystemStatus(value string) error {
	return database.SetSystemStatus(value)
}

// Run executes one crawl and returns the run counters plus the status the
// system advanced to. currentStatus is the status observed before the run;
// a full crawl resuming after a completed preview skips the records the
// preview already ingested.
func (c *Crawler) Run(currentStatus string, opts models.CrawlOptions) (models.CrawlResult, string, error) {
	limit := c.previewLimit
	startOffset := 0
	if opts.Full {
		limit = 0
		if currentStatus == models.StatusPreviewDone {
			startOffset = c.previewLimit
		}
	}
	if opts.StartPage > 0 {
		startOffset = (opts.StartPage - 1) * c.recordsPerPage
	}

	var result models.CrawlResult
	var err error
	if c.source.Paged() {
		result, err = c.runPaged(startOffset, limit)
	} else {
		result, err = c.runWholePayload(startOffset, limit)
	}
	if err != nil {
		return result, currentStatus, err
	}

	cutoff := c.now().Add(-recencyWindow)
	if _, sweepErr := c.store.ClearExpiredNewFlags(cutoff); sweepErr != nil {
		log.Printf("ERROR Service: Failed to clear expired new flags: %v", sweepErr)
		result.Errors++
	}

	newStatus := models.StatusPreviewDone
	if opts.Full {
		newStatus = models.StatusSeeded
	}
	if err := c.store.SetSystemStatus(newStatus); err != nil {
		return result, currentStatus, fmt.Errorf("crawl succeeded but status update failed: %w", err)
	}

	log.Printf("Service: Crawl complete. Processed %d records (%d new, %d updated, %d errors). Status: %s\n",
		result.TotalRecords, result.NewRecords, result.UpdatedRecords, result.Errors, newStatus)
	return result, newStatus, nil
}

// runPaged walks the paged source from the computed start page. The first
// page failing is fatal (the source is unreachable or its shape changed);
// later page failures are counted and skipped, up to a consecutive-failure
// cap. An empty page ends the run. The politeness delay applies between
// every pair of fetches, failed fetches included.
func (c *Crawler) runPaged(startOffset, limit int) (models.CrawlResult, error) {
	var result models.CrawlResult

	startPage := startOffset/c.recordsPerPage + 1
	pageBudget := 0
	if c.totalEstimate > 0 {
		pageBudget = (c.totalEstimate + c.recordsPerPage - 1) / c.recordsPerPage
	}

	consecutiveFailures := 0
	for page := startPage; ; page++ {
		if pageBudget > 0 && page > pageBudget {
			break
		}
		if limit > 0 && result.TotalRecords >= limit {
			break
		}
		if page > startPage {
			time.Sleep(c.pageDelay)
		}

		entries, format, err := c.source.FetchPage(page)
		if err != nil {
			if page == startPage {
				return result, fmt.Errorf("failed to fetch first page %d: %w", page, err)
			}
			log.Printf("ERROR Service: Failed to fetch page %d: %v", page, err)
			result.Errors++
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutivePageFailures {
				log.Printf("ERROR Service: %d consecutive page failures, ending crawl at page %d", consecutiveFailures, page)
				break
			}
			continue
		}
		consecutiveFailures = 0
		if len(entries) == 0 {
			log.Printf("Service: Page %d is empty, ending crawl\n", page)
			break
		}

		if limit > 0 && result.TotalRecords+len(entries) > limit {
			entries = entries[:limit-result.TotalRecords]
		}
		c.processEntries(entries, format, &result)
	}
	return result, nil
}

// runWholePayload ingests a single bulk payload, honoring the start offset
// and record limit.
func (c *Crawler) runWholePayload(startOffset, limit int) (models.CrawlResult, error) {
	var result models.CrawlResult

	entries, format, err := c.source.FetchAll()
	if err != nil {
		return result, fmt.Errorf("failed to fetch restaurant payload: %w", err)
	}
	if len(entries) == 0 {
		return result, fmt.Errorf("restaurant payload contained no entries")
	}

	if startOffset >= len(entries) {
		return result, nil
	}
	entries = entries[startOffset:]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	c.processEntries(entries, format, &result)
	return result, nil
}

func (c *Crawler) processEntries(entries []scraper.RawEntry, format scraper.SourceFormat, result *models.CrawlResult) {
	for _, entry := range entries {
		result.TotalRecords++

		restaurant, err := scraper.Normalize(entry, format)
		if err != nil {
			result.Errors++
			continue
		}

		isNew, err := c.store.UpsertRestaurant(restaurant)
		if err != nil {
			log.Printf("ERROR Service: Failed to upsert restaurant licence %s: %v", restaurant.LicenceNo, err)
			result.Errors++
			continue
		}
		if isNew {
			result.NewRecords++
		} else {
			result.UpdatedRecords++
		}
	}
}
