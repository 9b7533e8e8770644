// services/restaurant_service.go
package services

import (
	"fmt"

	"github.com/kaitak/fehdwatch/database"
	"github.com/kaitak/fehdwatch/models"
)

// GetRestaurants returns one page of the stored restaurant set plus the
// total filtered count. An empty result is a slice, not nil, so the API
// serializes it as [].
func GetRestaurants(q models.RestaurantQuery) ([]models.Restaurant, int, error) {
	restaurants, total, err := database.ListRestaurants(q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	return restaurants, total, nil
}

// GetDistricts returns every district present in the stored set.
func GetDistricts() ([]string, error) {
	districts, err := database.ListDistricts()
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	if districts == nil {
		districts = []string{}
	}
	return districts, nil
}
