// database/memory_store.go
package database

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kaitak/fehdwatch/models"
)

// MemoryStore mirrors the SQL store semantics in memory. Tests run crawl and
// listing logic against it without a Postgres instance.
type MemoryStore struct {
	mu          sync.Mutex
	restaurants []models.Restaurant
	status      *models.SystemStatus
	nextID      int64

	// Now is swappable so tests can pin first_seen timestamps.
	Now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, Now: time.Now}
}

func (s *MemoryStore) match(licenceNo, name string, address *string) int {
	byIdentity := -1
	for i, r := range s.restaurants {
		if r.LicenceNo == licenceNo {
			return i
		}
		if byIdentity == -1 && r.Name == name && ptrEqual(r.Address, address) {
			byIdentity = i
		}
	}
	return byIdentity
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// UpsertRestaurant applies the same match-then-write rules as the SQL store
// and reports whether a new row was created.
func (s *MemoryStore) UpsertRestaurant(r *models.Restaurant) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.match(r.LicenceNo, r.Name, r.Address); i >= 0 {
		stored := &s.restaurants[i]
		stored.Name = r.Name
		stored.District = r.District
		stored.Address = r.Address
		stored.LicenceNo = r.LicenceNo
		stored.LicenceType = r.LicenceType
		stored.ValidTil = r.ValidTil
		stored.NewFlag = false
		r.ID = stored.ID
		r.FirstSeen = stored.FirstSeen
		r.NewFlag = false
		return false, nil
	}

	r.ID = s.nextID
	s.nextID++
	r.FirstSeen = s.Now()
	r.NewFlag = true
	s.restaurants = append(s.restaurants, *r)
	return true, nil
}

// ClearExpiredNewFlags drops the new flag on rows first seen before cutoff.
func (s *MemoryStore) ClearExpiredNewFlags(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for i := range s.restaurants {
		r := &s.restaurants[i]
		if r.NewFlag && r.FirstSeen.Before(cutoff) {
			r.NewFlag = false
			cleared++
		}
	}
	return cleared, nil
}

// ListRestaurants filters, sorts and paginates like the SQL store.
func (s *MemoryStore) ListRestaurants(q models.RestaurantQuery) ([]models.Restaurant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []models.Restaurant
	for _, r := range s.restaurants {
		if q.District != "" && (r.District == nil || *r.District != q.District) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(q.Search)) {
			continue
		}
		filtered = append(filtered, r)
	}

	if q.Sort == "valid_til" {
		// ISO dates compare correctly as strings; nil sorts last.
		sort.SliceStable(filtered, func(i, j int) bool {
			a, b := filtered[i].ValidTil, filtered[j].ValidTil
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return *a > *b
		})
	} else {
		sort.SliceStable(filtered, func(i, j int) bool {
			if filtered[i].NewFlag != filtered[j].NewFlag {
				return filtered[i].NewFlag
			}
			return filtered[i].FirstSeen.After(filtered[j].FirstSeen)
		})
	}

	total := len(filtered)

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]models.Restaurant, end-offset)
	copy(page, filtered[offset:end])
	return page, total, nil
}

// ListDistricts returns distinct non-null districts alphabetically.
func (s *MemoryStore) ListDistricts() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var districts []string
	for _, r := range s.restaurants {
		if r.District == nil || seen[*r.District] {
			continue
		}
		seen[*r.District] = true
		districts = append(districts, *r.District)
	}
	sort.Strings(districts)
	return districts, nil
}

func (s *MemoryStore) GetSystemStatus() (*models.SystemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return nil, nil
	}
	cp := *s.status
	return &cp, nil
}

func (s *MemoryStore) SetSystemStatus(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = &models.SystemStatus{Key: models.StatusKey, Value: value, UpdatedAt: s.Now()}
	return nil
}
