// models/api_models.go
package models

// CrawlOptions selects the breadth of an ingestion run. StartPage overrides
// the computed start position when set (1-based).
type CrawlOptions struct {
	Full      bool `json:"full"`
	StartPage int  `json:"startPage,omitempty"`
}

// CrawlResult aggregates the per-run counters returned by /jobs/crawl.
type CrawlResult struct {
	TotalRecords   int `json:"totalRecords"`
	NewRecords     int `json:"newRecords"`
	UpdatedRecords int `json:"updatedRecords"`
	Errors         int `json:"errors"`
}

// RestaurantQuery carries the filter, sort and pagination parameters of the
// restaurant listing endpoint.
type RestaurantQuery struct {
	District string `json:"district,omitempty"`
	Search   string `json:"search,omitempty"`
	Sort     string `json:"sort,omitempty"` // "valid_til" or "newest" (default)
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// RestaurantListResponse is the body of GET /api/restaurants. Total counts the
// filtered set before pagination.
type RestaurantListResponse struct {
	Restaurants []Restaurant `json:"restaurants"`
	Total       int          `json:"total"`
}

// CrawlResponse is the body of a successful POST /jobs/crawl.
type CrawlResponse struct {
	Success bool        `json:"success"`
	Result  CrawlResult `json:"result"`
	Status  string      `json:"status"`
}
