// handlers/restaurant_handler.go
package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/kaitak/fehdwatch/models"
	"github.com/kaitak/fehdwatch/services"
)

// Seams for tests to substitute the service layer.
var (
	listRestaurants = services.GetRestaurants
	listDistricts   = services.GetDistricts
)

// GetRestaurantsHandler serves GET /api/restaurants with optional district,
// search, sort, limit and offset query parameters.
func GetRestaurantsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := models.RestaurantQuery{
		District: r.URL.Query().Get("district"),
		Search:   r.URL.Query().Get("search"),
		Sort:     r.URL.Query().Get("sort"),
		Limit:    100,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			query.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			query.Offset = offset
		}
	}

	restaurants, total, err := listRestaurants(query)
	if err != nil {
		log.Printf("ERROR Handler: Failed to fetch restaurants: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch restaurants")
		return
	}

	respondWithJSON(w, http.StatusOK, models.RestaurantListResponse{
		Restaurants: restaurants,
		Total:       total,
	})
}

// GetDistrictsHandler serves GET /api/districts.
func GetDistrictsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	districts, err := listDistricts()
	if err != nil {
		log.Printf("ERROR Handler: Failed to fetch districts: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch districts")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string][]string{"districts": districts})
}
