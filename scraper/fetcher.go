// scraper/fetcher.go
package scraper

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kaitak/fehdwatch/config"
)

// userAgent mimics a desktop browser. The upstream site serves an error page
// to unidentified clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const dataSubType = "All Licensed General Restaurants"

func get(rawURL, accept string) ([]byte, error) {
	client := &http.Client{Timeout: config.AppConfig.Crawler.RequestTimeout}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", rawURL, err)
	}
	return body, nil
}

// FetchRestaurantPayload downloads the bulk export and parses it. It tries
// the XML export first; when that fails or yields no entries it falls back
// to the CSV export. The returned format matches whichever source produced
// the entries.
func FetchRestaurantPayload() ([]RawEntry, SourceFormat, error) {
	urls := config.AppConfig.FEHDURLs

	body, err := get(urls.RestaurantXML, "application/xml")
	if err == nil {
		entries, parseErr := ParseXMLEntries(body)
		if parseErr == nil && len(entries) > 0 {
			log.Printf("Scraper: Parsed %d entries from XML export\n", len(entries))
			return entries, FormatXML, nil
		}
		log.Printf("WARN Scraper: XML export yielded no entries, falling back to CSV")
	} else {
		log.Printf("WARN Scraper: XML export fetch failed (%v), falling back to CSV", err)
	}

	body, err = get(urls.RestaurantCSV, "text/csv")
	if err != nil {
		return nil, SourceFormat{}, fmt.Errorf("failed to fetch CSV export: %w", err)
	}
	entries, err := ParseCSVEntries(body)
	if err != nil {
		return nil, SourceFormat{}, fmt.Errorf("failed to parse CSV export: %w", err)
	}
	log.Printf("Scraper: Parsed %d entries from CSV export\n", len(entries))
	return entries, FormatCSV, nil
}

// FetchDataPage fetches one page of the JSON data endpoint.
func FetchDataPage(page int) ([]RawEntry, error) {
	endpoint := config.AppConfig.FEHDURLs.DataEndpoint
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("subType", dataSubType)
	params.Set("licenseType", "General Restaurant Licence")
	params.Set("lang", "en-us")

	client := &http.Client{Timeout: config.AppConfig.Crawler.RequestTimeout}
	req, err := http.NewRequest(http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create data page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching data page %d", resp.StatusCode, page)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read data page %d: %w", page, err)
	}
	return ParseJSONEntries(body)
}

// FetchListingPage fetches one page of the HTML listing and extracts its
// table rows.
func FetchListingPage(page int) ([]RawEntry, error) {
	listURL := fmt.Sprintf("%s?page=%d", config.AppConfig.FEHDURLs.ListingPage, page)
	body, err := get(listURL, "text/html")
	if err != nil {
		return nil, err
	}
	return ParseHTMLTableEntries(body)
}

// ProbeResult summarizes what the upstream listing page currently serves.
// Exposed through a debug endpoint to diagnose upstream markup changes
// without reading server logs.
type ProbeResult struct {
	URL           string `json:"url"`
	StatusOK      bool   `json:"statusOk"`
	ContentLength int    `json:"contentLength"`
	HasTable      bool   `json:"hasTable"`
	HasTbody      bool   `json:"hasTbody"`
	RowCount      int    `json:"rowCount"`
	Snippet       string `json:"snippet"`
	Error         string `json:"error,omitempty"`
}

// ProbeUpstream fetches the first listing page and reports its shape.
func ProbeUpstream() ProbeResult {
	listURL := fmt.Sprintf("%s?page=1", config.AppConfig.FEHDURLs.ListingPage)
	result := ProbeResult{URL: listURL}

	body, err := get(listURL, "text/html")
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.StatusOK = true
	result.ContentLength = len(body)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.HasTable = doc.Find("table").Length() > 0
	result.HasTbody = doc.Find("tbody").Length() > 0
	result.RowCount = doc.Find("table tr").Length()

	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 500 {
		snippet = snippet[:500]
	}
	result.Snippet = snippet
	return result
}
