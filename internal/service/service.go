// Package service is the single entry point the rest of carrot uses for
// persistence. It picks a backend, and reports failures as nil, false or
// empty results after logging them.
package service

import (
	"strings"
	"time"

	"github.com/julianstephens/carrot/internal/config"
	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/logger"
	"github.com/julianstephens/carrot/internal/models"
	"github.com/julianstephens/carrot/internal/storage"
	"github.com/julianstephens/carrot/internal/storage/memory"
	"github.com/julianstephens/carrot/internal/storage/postgres"
	"github.com/julianstephens/carrot/internal/storage/sqlite"
)

type Service struct {
	store    storage.Provider
	now      func() time.Time
	location *time.Location
}

type Option func(*Service)

// WithClock replaces time.Now for TodayString
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone dates are formatted in
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// New opens the durable backend described by cfg. If it cannot be opened
// the service runs on an in-memory store for the life of the process.
func New(cfg config.Config, opts ...Option) *Service {
	return NewWithProvider(openProvider(cfg), opts...)
}

func NewWithProvider(p storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    p,
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func openProvider(cfg config.Config) storage.Provider {
	if cfg.UsesPostgres() {
		store, err := postgres.Open(cfg.DatabaseURL)
		if err == nil {
			return store
		}
		logger.Warn("Failed to open PostgreSQL store, falling back to in-memory storage", "error", err)
		return memory.New()
	}

	store, err := sqlite.Open(cfg.DataDir)
	if err == nil {
		return store
	}
	logger.Warn("Failed to open SQLite store, falling back to in-memory storage", "dir", cfg.DataDir, "error", err)
	return memory.New()
}

func (s *Service) Close() error {
	return s.store.Close()
}

// TodayString returns the current date as YYYY-MM-DD in the service's location
func (s *Service) TodayString() string {
	return s.DateString(s.now())
}

// DateString formats t as YYYY-MM-DD in the service's location
func (s *Service) DateString(t time.Time) string {
	return t.In(s.location).Format(constants.DateFormat)
}

// Trackables

func (s *Service) GetAllTrackables() []models.Trackable {
	trackables, err := s.store.GetAllTrackables()
	if err != nil {
		logger.Error("Failed to load trackables", "error", err)
		return []models.Trackable{}
	}
	return trackables
}

// CreateTrackable creates a trackable with the next palette color and no
// explicit order. Returns nil if name is blank or the store fails.
func (s *Service) CreateTrackable(name string) *models.Trackable {
	if strings.TrimSpace(name) == "" {
		logger.Warn("Refusing to create trackable with empty name")
		return nil
	}
	n := len(s.GetAllTrackables())
	color := constants.Palette[n%len(constants.Palette)]
	return s.CreateTrackableWith(name, color, constants.UnorderedSortOrder)
}

func (s *Service) CreateTrackableWith(name, color string, order int) *models.Trackable {
	name = strings.TrimSpace(name)
	if name == "" {
		logger.Warn("Refusing to create trackable with empty name")
		return nil
	}
	if color == "" {
		color = constants.DefaultColor
	}
	if !models.ValidColor(color) {
		logger.Warn("Refusing to create trackable with invalid color", "color", color)
		return nil
	}

	t, err := s.store.CreateTrackable(name, color, order)
	if err != nil {
		logger.Error("Failed to create trackable", "name", name, "error", err)
		return nil
	}
	return &t
}

func (s *Service) UpdateTrackable(t models.Trackable) bool {
	t.Name = strings.TrimSpace(t.Name)
	if t.Color == "" {
		t.Color = constants.DefaultColor
	}
	if t.Name == "" || !models.ValidColor(t.Color) {
		logger.Warn("Refusing to save invalid trackable", "id", t.ID, "name", t.Name, "color", t.Color)
		return false
	}
	if err := s.store.UpdateTrackable(t); err != nil {
		logger.Error("Failed to update trackable", "id", t.ID, "error", err)
		return false
	}
	return true
}

func (s *Service) UpdateTrackableOrders(updates []models.OrderUpdate) bool {
	if err := s.store.UpdateTrackableOrders(updates); err != nil {
		logger.Error("Failed to reorder trackables", "count", len(updates), "error", err)
		return false
	}
	return true
}

func (s *Service) DeleteTrackable(id int64) bool {
	if err := s.store.DeleteTrackable(id); err != nil {
		logger.Error("Failed to delete trackable", "id", id, "error", err)
		return false
	}
	return true
}

// Counts

func (s *Service) GetCount(trackableID int64, date string) *models.Count {
	if !validDate(date) {
		return nil
	}
	c, err := s.store.GetCount(trackableID, date)
	if err != nil {
		logger.Error("Failed to load count", "trackable", trackableID, "date", date, "error", err)
		return nil
	}
	return c
}

func (s *Service) GetAllCounts(trackableID int64) []models.Count {
	counts, err := s.store.GetAllCounts(trackableID)
	if err != nil {
		logger.Error("Failed to load counts", "trackable", trackableID, "error", err)
		return []models.Count{}
	}
	return counts
}

func (s *Service) IncrementCount(trackableID int64, date string) *models.Count {
	if !validDate(date) {
		return nil
	}
	c, err := s.store.IncrementCount(trackableID, date)
	if err != nil {
		logger.Error("Failed to increment count", "trackable", trackableID, "date", date, "error", err)
		return nil
	}
	return &c
}

func (s *Service) DecrementCount(trackableID int64, date string) *models.Count {
	if !validDate(date) {
		return nil
	}
	c, err := s.store.DecrementCount(trackableID, date)
	if err != nil {
		logger.Error("Failed to decrement count", "trackable", trackableID, "date", date, "error", err)
		return nil
	}
	return &c
}

func (s *Service) SetCount(trackableID int64, date string, count int) *models.Count {
	if !validDate(date) {
		return nil
	}
	c, err := s.store.SetCount(trackableID, date, count)
	if err != nil {
		logger.Error("Failed to set count", "trackable", trackableID, "date", date, "count", count, "error", err)
		return nil
	}
	return &c
}

func validDate(date string) bool {
	if models.ValidDate(date) {
		return true
	}
	logger.Warn("Rejecting malformed date", "date", date)
	return false
}
