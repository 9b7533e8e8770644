// services/crawl_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/scraper"
)

func makeEntries(start, count int) []scraper.RawEntry {
	entries := make([]scraper.RawEntry, 0, count)
	for i := start; i < start+count; i++ {
		entries = append(entries, scraper.RawEntry{Fields: map[string]string{
			"NAME":       fmt.Sprintf("Restaurant %04d", i),
			"DISTRICT":   "Central",
			"ADDRESS":    fmt.Sprintf("%d Queen's Road Central", i),
			"LICENCE_NO": fmt.Sprintf("LIC-%04d", i),
			"EXPIRY":     "27-09-2026",
		}})
	}
	return entries
}

// fakeSource serves a fixed entry list either whole or sliced into pages.
type fakeSource struct {
	entries      []scraper.RawEntry
	paged        bool
	perPage      int
	failPages    map[int]error
	fetchedPages []int
	fetchTimes   []time.Time
}

func (s *fakeSource) Paged() bool { return s.paged }

func (s *fakeSource) FetchAll() ([]scraper.RawEntry, scraper.SourceFormat, error) {
	return s.entries, scraper.FormatXML, nil
}

func (s *fakeSource) FetchPage(page int) ([]scraper.RawEntry, scraper.SourceFormat, error) {
	s.fetchedPages = append(s.fetchedPages, page)
	s.fetchTimes = append(s.fetchTimes, time.Now())
	if err := s.failPages[page]; err != nil {
		return nil, scraper.FormatXML, err
	}
	start := (page - 1) * s.perPage
	if start >= len(s.entries) {
		return nil, scraper.FormatXML, nil
	}
	end := start + s.perPage
	if end > len(s.entries) {
		end = len(s.entries)
	}
	return s.entries[start:end], scraper.FormatXML, nil
}

func newTestCrawler(source Source, store CrawlStore) *Crawler {
	return &Crawler{
		source:         source,
		store:          store,
		recordsPerPage: 50,
		previewLimit:   100,
		totalEstimate:  300,
		pageDelay:      0,
		now:            time.Now,
	}
}

func TestPreviewRunCapsAtLimit(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250)}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, newStatus, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{})
	require.NoError(t, err)

	assert.Equal(t, 100, result.TotalRecords)
	assert.Equal(t, 100, result.NewRecords)
	assert.Equal(t, 0, result.UpdatedRecords)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, models.StatusPreviewDone, newStatus)

	status, err := store.GetSystemStatus()
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.StatusPreviewDone, status.Value)
}

func TestFullRunResumesAfterPreview(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250)}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	_, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{})
	require.NoError(t, err)

	result, newStatus, err := crawler.Run(models.StatusPreviewDone, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	// The 100 preview records are skipped, not reprocessed.
	assert.Equal(t, 150, result.TotalRecords)
	assert.Equal(t, 150, result.NewRecords)
	assert.Equal(t, 0, result.UpdatedRecords)
	assert.Equal(t, models.StatusSeeded, newStatus)

	_, total, err := store.ListRestaurants(models.RestaurantQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 250, total)
}

func TestFullRunFromScratchProcessesEverything(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250)}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, newStatus, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, 250, result.TotalRecords)
	assert.Equal(t, 250, result.NewRecords)
	assert.Equal(t, models.StatusSeeded, newStatus)
}

func TestRerunUpdatesInsteadOfDuplicating(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 50)}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	_, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	result, _, err := crawler.Run(models.StatusSeeded, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, 50, result.TotalRecords)
	assert.Equal(t, 0, result.NewRecords)
	assert.Equal(t, 50, result.UpdatedRecords)

	_, total, err := store.ListRestaurants(models.RestaurantQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 50, total)
}

func TestRejectedEntriesAreCountedNotFatal(t *testing.T) {
	entries := makeEntries(0, 10)
	entries[3].Fields["NAME"] = "   "
	entries[7].Fields["LICENCE_NO"] = ""
	source := &fakeSource{entries: entries}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, 10, result.TotalRecords)
	assert.Equal(t, 8, result.NewRecords)
	assert.Equal(t, 2, result.Errors)
}

func TestPagedPreviewStartsAtPageOne(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250), paged: true, perPage: 50}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, newStatus, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, source.fetchedPages)
	assert.Equal(t, 100, result.TotalRecords)
	assert.Equal(t, models.StatusPreviewDone, newStatus)
}

func TestPagedFullRunResumesAtComputedPage(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250), paged: true, perPage: 50}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, newStatus, err := crawler.Run(models.StatusPreviewDone, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	// previewLimit 100 / 50 per page: resume at page 3.
	require.NotEmpty(t, source.fetchedPages)
	assert.Equal(t, 3, source.fetchedPages[0])
	assert.Equal(t, 150, result.TotalRecords)
	assert.Equal(t, models.StatusSeeded, newStatus)
}

func TestPagedRunStopsOnEmptyPage(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 120), paged: true, perPage: 50}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, source.fetchedPages)
	assert.Equal(t, 120, result.TotalRecords)
}

func TestPagedRunFirstPageFailureIsFatal(t *testing.T) {
	source := &fakeSource{
		entries:   makeEntries(0, 100),
		paged:     true,
		perPage:   50,
		failPages: map[int]error{1: errors.New("connection refused")},
	}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	_, newStatus, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{})
	require.Error(t, err)
	assert.Equal(t, models.StatusNotStarted, newStatus)

	status, err := store.GetSystemStatus()
	require.NoError(t, err)
	assert.Nil(t, status, "a failed run must not advance the status")
}

func TestPagedRunLaterPageFailureIsCounted(t *testing.T) {
	source := &fakeSource{
		entries:   makeEntries(0, 150),
		paged:     true,
		perPage:   50,
		failPages: map[int]error{2: errors.New("gateway timeout")},
	}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	result, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, 100, result.TotalRecords)
	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, source.fetchedPages, 3)
}

func TestPagedRunDelaysBetweenFetchesEvenOnFailure(t *testing.T) {
	source := &fakeSource{
		entries: makeEntries(0, 200),
		paged:   true,
		perPage: 50,
		failPages: map[int]error{
			2: errors.New("gateway timeout"),
			3: errors.New("gateway timeout"),
		},
	}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)
	crawler.pageDelay = 20 * time.Millisecond

	_, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(source.fetchTimes), 4)
	for i := 1; i < len(source.fetchTimes); i++ {
		gap := source.fetchTimes[i].Sub(source.fetchTimes[i-1])
		assert.GreaterOrEqual(t, gap, crawler.pageDelay,
			"fetch of page %d followed the previous fetch too quickly", source.fetchedPages[i])
	}
}

func TestPagedRunStopsAfterConsecutiveFailures(t *testing.T) {
	failPages := make(map[int]error)
	for page := 2; page <= 20; page++ {
		failPages[page] = errors.New("gateway timeout")
	}
	source := &fakeSource{
		entries:   makeEntries(0, 1000),
		paged:     true,
		perPage:   50,
		failPages: failPages,
	}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)
	// No page budget: the failure cap alone must end the run.
	crawler.totalEstimate = 0

	result, newStatus, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, source.fetchedPages)
	assert.Equal(t, 50, result.TotalRecords)
	assert.Equal(t, 5, result.Errors)
	assert.Equal(t, models.StatusSeeded, newStatus)
}

func TestStartPageOverride(t *testing.T) {
	source := &fakeSource{entries: makeEntries(0, 250), paged: true, perPage: 50}
	store := database.NewMemoryStore()
	crawler := newTestCrawler(source, store)

	_, _, err := crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true, StartPage: 4})
	require.NoError(t, err)

	assert.Equal(t, 4, source.fetchedPages[0])
}

func TestRunSweepsExpiredNewFlags(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	store := database.NewMemoryStore()

	// Seed a record first seen 40 days ago.
	store.Now = func() time.Time { return now.Add(-40 * 24 * time.Hour) }
	stale := &models.Restaurant{Name: "Old Timer", LicenceNo: "LIC-OLD", LicenceType: models.DefaultLicenceType}
	_, err := store.UpsertRestaurant(stale)
	require.NoError(t, err)
	store.Now = func() time.Time { return now }

	source := &fakeSource{entries: makeEntries(0, 5)}
	crawler := newTestCrawler(source, store)
	crawler.now = func() time.Time { return now }

	_, _, err = crawler.Run(models.StatusNotStarted, models.CrawlOptions{Full: true})
	require.NoError(t, err)

	rows, _, err := store.ListRestaurants(models.RestaurantQuery{Search: "Old Timer"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].NewFlag)
}
