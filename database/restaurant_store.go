// database/restaurant_store.go
package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kaitak/fehdwatch/models"
)

const restaurantColumns = `
	id, name, district, address, licence_no, licence_type,
	to_char(valid_til, 'YYYY-MM-DD'), first_seen, new_flag`

// FindRestaurantMatch resolves an incoming record against the stored set.
// Precedence: licence number first, then name+address. Returns the id of the
// winning row, or nil when nothing matches. More than one candidate is a
// data-quality condition; the lowest-id row within the precedence order wins
// and the collision is logged.
func FindRestaurantMatch(licenceNo, name string, address *string) (*int64, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(`
		SELECT id
		FROM restaurants
		WHERE licence_no = $1
		   OR (name = $2 AND address IS NOT DISTINCT FROM $3)
		ORDER BY (licence_no = $1) DESC, id
		LIMIT 2
	`, licenceNo, name, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query restaurant match for licence %s: %w", licenceNo, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan restaurant match row: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating restaurant match rows: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > 1 {
		log.Printf("WARN Database: Multiple stored restaurants match licence %s / name %q; acting on id %d", licenceNo, name, ids[0])
	}
	return &ids[0], nil
}

// UpsertRestaurant persists a normalized record as either a new or updated
// row and reports whether it was newly created. Updates overwrite every
// mutable field and clear the new flag; inserts stamp first_seen and set it.
// Re-running with identical input converges to the same stored state.
func UpsertRestaurant(r *models.Restaurant) (bool, error) {
	if DB == nil {
		return false, fmt.Errorf("database connection is not initialized")
	}

	matchID, err := FindRestaurantMatch(r.LicenceNo, r.Name, r.Address)
	if err != nil {
		return false, err
	}

	if matchID != nil {
		_, err = DB.Exec(`
			UPDATE restaurants
			SET name = $1, district = $2, address = $3, licence_no = $4,
			    licence_type = $5, valid_til = $6::date, new_flag = FALSE
			WHERE id = $7
		`, r.Name, r.District, r.Address, r.LicenceNo, r.LicenceType, r.ValidTil, *matchID)
		if err != nil {
			return false, fmt.Errorf("failed to update restaurant licence %s: %w", r.LicenceNo, err)
		}
		r.ID = *matchID
		r.NewFlag = false
		return false, nil
	}

	var id int64
	var firstSeen time.Time
	err = DB.QueryRow(`
		INSERT INTO restaurants (name, district, address, licence_no, licence_type, valid_til, first_seen, new_flag)
		VALUES ($1, $2, $3, $4, $5, $6::date, NOW(), TRUE)
		RETURNING id, first_seen
	`, r.Name, r.District, r.Address, r.LicenceNo, r.LicenceType, r.ValidTil).Scan(&id, &firstSeen)
	if err != nil {
		return false, fmt.Errorf("failed to insert restaurant licence %s: %w", r.LicenceNo, err)
	}
	r.ID = id
	r.FirstSeen = firstSeen
	r.NewFlag = true
	return true, nil
}

// buildListFilter translates the query filters into a WHERE clause and its
// arguments. Split out so the SQL shape is testable without a live database.
func buildListFilter(q models.RestaurantQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.District != "" {
		args = append(args, q.District)
		clauses = append(clauses, fmt.Sprintf("district = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// listOrderBy maps the sort selector to an ORDER BY clause. Expiry sort puts
// missing dates last; the default surfaces recently added rows first, newest
// first within each group.
func listOrderBy(sort string) string {
	if sort == "valid_til" {
		return "ORDER BY valid_til DESC NULLS LAST"
	}
	return "ORDER BY new_flag DESC, first_seen DESC"
}

// ListRestaurants returns one page of the filtered restaurant set plus the
// total count of the filtered set before pagination.
func ListRestaurants(q models.RestaurantQuery) ([]models.Restaurant, int, error) {
	if DB == nil {
		return nil, 0, fmt.Errorf("database connection is not initialized")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := buildListFilter(q)

	var total int
	err := DB.QueryRow("SELECT COUNT(*) FROM restaurants "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count restaurants: %w", err)
	}

	pageArgs := append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM restaurants %s %s LIMIT $%d OFFSET $%d",
		restaurantColumns, where, listOrderBy(q.Sort), len(args)+1, len(args)+2)

	rows, err := DB.Query(query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan restaurant row: %w", err)
		}
		restaurants = append(restaurants, r)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating restaurant rows: %w", err)
	}

	return restaurants, total, nil
}

func scanRestaurant(rows *sql.Rows) (models.Restaurant, error) {
	var r models.Restaurant
	var district, address, validTil sql.NullString

	err := rows.Scan(
		&r.ID, &r.Name, &district, &address, &r.LicenceNo, &r.LicenceType,
		&validTil, &r.FirstSeen, &r.NewFlag,
	)
	if err != nil {
		return r, err
	}
	if district.Valid {
		r.District = &district.String
	}
	if address.Valid {
		r.Address = &address.String
	}
	if validTil.Valid {
		r.ValidTil = &validTil.String
	}
	return r, nil
}

// ListDistricts returns every distinct non-null district, alphabetically.
func ListDistricts() ([]string, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.Query(`
		SELECT DISTINCT district FROM restaurants
		WHERE district IS NOT NULL
		ORDER BY district
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query districts: %w", err)
	}
	defer rows.Close()

	var districts []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan district row: %w", err)
		}
		districts = append(districts, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating district rows: %w", err)
	}
	return districts, nil
}

// ClearExpiredNewFlags drops the new flag on every row first seen strictly
// before the cutoff. Returns how many rows were cleared.
func ClearExpiredNewFlags(cutoff time.Time) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.Exec(`
		UPDATE restaurants SET new_flag = FALSE
		WHERE new_flag = TRUE AND first_seen < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired new flags: %w", err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read cleared row count: %w", err)
	}
	if cleared > 0 {
		log.Printf("Database: Cleared new flag on %d restaurants first seen before %s\n", cleared, cutoff.Format("2006-01-02"))
	}
	return cleared, nil
}
