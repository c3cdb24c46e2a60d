// Package memory implements storage.Provider over in-process maps. It is the
// fallback when the durable store cannot be opened, and the reference the
// SQL backends are tested against.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/models"
)

type Store struct {
	mu         sync.Mutex
	trackables map[int64]models.Trackable
	counts     map[int64]models.Count

	nextTrackableID int64
	nextCountID     int64
}

func New() *Store {
	return &Store{
		trackables:      make(map[int64]models.Trackable),
		counts:          make(map[int64]models.Count),
		nextTrackableID: 1,
		nextCountID:     1,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) GetAllTrackables() ([]models.Trackable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trackables := make([]models.Trackable, 0, len(s.trackables))
	for _, t := range s.trackables {
		trackables = append(trackables, t)
	}
	sort.Slice(trackables, func(i, j int) bool {
		if trackables[i].Order != trackables[j].Order {
			return trackables[i].Order < trackables[j].Order
		}
		return trackables[i].ID < trackables[j].ID
	})
	return trackables, nil
}

func (s *Store) CreateTrackable(name, color string, order int) (models.Trackable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.Trackable{
		ID:    s.nextTrackableID,
		Name:  name,
		Color: color,
		Order: order,
	}
	s.nextTrackableID++
	s.trackables[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTrackable(t models.Trackable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackables[t.ID]; !ok {
		return errors.NotFound(fmt.Sprintf("update trackable %d", t.ID))
	}
	s.trackables[t.ID] = t
	return nil
}

func (s *Store) UpdateTrackableOrders(updates []models.OrderUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching anything
	for _, u := range updates {
		if _, ok := s.trackables[u.ID]; !ok {
			return errors.NotFound(fmt.Sprintf("reorder trackable %d", u.ID))
		}
	}
	for _, u := range updates {
		t := s.trackables[u.ID]
		t.Order = u.Order
		s.trackables[u.ID] = t
	}
	return nil
}

func (s *Store) DeleteTrackable(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackables[id]; !ok {
		return errors.NotFound(fmt.Sprintf("delete trackable %d", id))
	}
	delete(s.trackables, id)

	for countID, c := range s.counts {
		if c.TrackableID == id {
			delete(s.counts, countID)
		}
	}
	return nil
}

func (s *Store) GetCount(trackableID int64, date string) (*models.Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.findCount(trackableID, date); ok {
		return &c, nil
	}
	return nil, nil
}

func (s *Store) GetAllCounts(trackableID int64) ([]models.Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := []models.Count{}
	for _, c := range s.counts {
		if c.TrackableID == trackableID {
			counts = append(counts, c)
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Date > counts[j].Date
	})
	return counts, nil
}

func (s *Store) IncrementCount(trackableID int64, date string) (models.Count, error) {
	return s.upsertCount("increment count", trackableID, date, 1, func(current int) int {
		return current + 1
	})
}

func (s *Store) DecrementCount(trackableID int64, date string) (models.Count, error) {
	return s.upsertCount("decrement count", trackableID, date, 0, func(current int) int {
		return max(0, current-1)
	})
}

func (s *Store) SetCount(trackableID int64, date string, count int) (models.Count, error) {
	return s.upsertCount("set count", trackableID, date, count, func(int) int {
		return count
	})
}

// upsertCount creates the (trackableID, date) row with initial or applies
// next to the existing value.
func (s *Store) upsertCount(op string, trackableID int64, date string, initial int, next func(int) int) (models.Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackables[trackableID]; !ok {
		return models.Count{}, errors.NotFound(fmt.Sprintf("%s for trackable %d", op, trackableID))
	}

	if existing, ok := s.findCount(trackableID, date); ok {
		existing.Count = next(existing.Count)
		s.counts[existing.ID] = existing
		return existing, nil
	}

	c := models.Count{
		ID:          s.nextCountID,
		Date:        date,
		TrackableID: trackableID,
		Count:       initial,
	}
	s.nextCountID++
	s.counts[c.ID] = c
	return c, nil
}

// findCount must be called with mu held
func (s *Store) findCount(trackableID int64, date string) (models.Count, bool) {
	for _, c := range s.counts {
		if c.TrackableID == trackableID && c.Date == date {
			return c, true
		}
	}
	return models.Count{}, false
}
