// services/sample_data_service.go
package services

import (
	"fmt"
	"log"

	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
)

func strPtr(s string) *string { return &s }

// sampleRestaurants is a small fixed set for exercising the read API and the
// browser table without touching the live site.
var sampleRestaurants = []models.Restaurant{
	{Name: "Maxim's Palace", District: strPtr("Central"), Address: strPtr("2/F, City Hall, 5 Edinburgh Place, Central"), LicenceNo: "TEST-001", LicenceType: models.DefaultLicenceType, ValidTil: strPtr("2025-12-31")},
	{Name: "Tsui Wah Restaurant", District: strPtr("Causeway Bay"), Address: strPtr("G/F, 15 Jardine's Bazaar, Causeway Bay"), LicenceNo: "TEST-002", LicenceType: models.DefaultLicenceType, ValidTil: strPtr("2025-11-30")},
	{Name: "Din Tai Fung", District: strPtr("Tsim Sha Tsui"), Address: strPtr("Shop 130, 3/F, Silvercord, 30 Canton Road, Tsim Sha Tsui"), LicenceNo: "TEST-003", LicenceType: models.DefaultLicenceType, ValidTil: strPtr("2025-10-31")},
	{Name: "Cafe de Coral", District: strPtr("Wan Chai"), Address: strPtr("G/F, 88 Lockhart Road, Wan Chai"), LicenceNo: "TEST-004", LicenceType: models.DefaultLicenceType, ValidTil: strPtr("2025-09-30")},
	{Name: "Tai Hing", District: strPtr("Mong Kok"), Address: strPtr("1/F, 580 Nathan Road, Mong Kok"), LicenceNo: "TEST-005", LicenceType: models.DefaultLicenceType, ValidTil: strPtr("2025-08-31")},
}

// LoadSampleData upserts the fixed sample set and marks the system as
// carrying test data. Safe to call repeatedly.
func LoadSampleData() (models.CrawlResult, error) {
	var result models.CrawlResult

	for i := range sampleRestaurants {
		r := sampleRestaurants[i]
		isNew, err := database.UpsertRestaurant(&r)
		if err != nil {
			log.Printf("ERROR Service: Failed to upsert sample restaurant %s: %v", r.LicenceNo, err)
			result.Errors++
			continue
		}
		result.TotalRecords++
		if isNew {
			result.NewRecords++
		} else {
			result.UpdatedRecords++
		}
	}

	if err := database.SetSystemStatus(models.StatusTestDataLoaded); err != nil {
		return result, fmt.Errorf("sample data loaded but status update failed: %w", err)
	}

	log.Printf("Service: Loaded %d sample restaurants (%d new, %d updated)\n",
		result.TotalRecords, result.NewRecords, result.UpdatedRecords)
	return result, nil
}
