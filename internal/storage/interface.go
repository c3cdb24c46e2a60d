package storage

import "github.com/julianstephens/carrot/internal/models"

// Provider is the storage contract shared by every backend. Failures are
// *errors.StorageError values carrying ErrNotFound, ErrStorageIO or
// ErrInvalidData.
type Provider interface {
	// Trackables

	// GetAllTrackables returns every trackable ordered by Order, then ID.
	GetAllTrackables() ([]models.Trackable, error)
	CreateTrackable(name, color string, order int) (models.Trackable, error)
	UpdateTrackable(models.Trackable) error
	// UpdateTrackableOrders applies every update or none of them. An unknown
	// ID fails the whole batch with ErrNotFound.
	UpdateTrackableOrders(updates []models.OrderUpdate) error
	// DeleteTrackable removes the trackable and all of its counts.
	DeleteTrackable(id int64) error

	// Counts

	// GetCount returns nil when no row exists for the pair. It never creates one.
	GetCount(trackableID int64, date string) (*models.Count, error)
	// GetAllCounts returns the trackable's counts, most recent date first.
	GetAllCounts(trackableID int64) ([]models.Count, error)
	IncrementCount(trackableID int64, date string) (models.Count, error)
	// DecrementCount never takes a count below zero.
	DecrementCount(trackableID int64, date string) (models.Count, error)
	// SetCount stores count as given; negative values are not clamped.
	SetCount(trackableID int64, date string, count int) (models.Count, error)

	// Lifecycle
	Close() error
}
