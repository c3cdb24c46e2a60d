package service

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/carrot/internal/config"
	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/models"
	"github.com/julianstephens/carrot/internal/storage/memory"
)

// failingStore fails every call with the configured error
type failingStore struct {
	err error
}

func (f failingStore) GetAllTrackables() ([]models.Trackable, error) { return nil, f.err }
func (f failingStore) CreateTrackable(string, string, int) (models.Trackable, error) {
	return models.Trackable{}, f.err
}
func (f failingStore) UpdateTrackable(models.Trackable) error           { return f.err }
func (f failingStore) UpdateTrackableOrders([]models.OrderUpdate) error { return f.err }
func (f failingStore) DeleteTrackable(int64) error                      { return f.err }
func (f failingStore) GetCount(int64, string) (*models.Count, error)    { return nil, f.err }
func (f failingStore) GetAllCounts(int64) ([]models.Count, error)       { return nil, f.err }
func (f failingStore) IncrementCount(int64, string) (models.Count, error) {
	return models.Count{}, f.err
}
func (f failingStore) DecrementCount(int64, string) (models.Count, error) {
	return models.Count{}, f.err
}
func (f failingStore) SetCount(int64, string, int) (models.Count, error) {
	return models.Count{}, f.err
}
func (f failingStore) Close() error { return nil }

func newMemoryService() *Service {
	return NewWithProvider(memory.New())
}

func TestNewUsesSQLiteInDataDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{DataDir: dir}

	svc := New(cfg)
	created := svc.CreateTrackable("Water")
	require.NotNil(t, created)
	require.NoError(t, svc.Close())

	_, err := os.Stat(filepath.Join(dir, "carrot.db"))
	require.NoError(t, err)

	svc = New(cfg)
	defer svc.Close()
	trackables := svc.GetAllTrackables()
	require.Len(t, trackables, 1)
	assert.Equal(t, *created, trackables[0])
}

func TestNewFallsBackToMemory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	svc := New(config.Config{DataDir: file})
	defer svc.Close()

	created := svc.CreateTrackable("Pushups")
	require.NotNil(t, created)
	assert.Equal(t, int64(1), created.ID)

	c := svc.IncrementCount(created.ID, "2024-05-01")
	require.NotNil(t, c)
	assert.Equal(t, 1, c.Count)
}

func TestCreateTrackableCyclesPalette(t *testing.T) {
	svc := newMemoryService()

	for i := 0; i < 12; i++ {
		created := svc.CreateTrackable("t")
		require.NotNil(t, created)
		assert.Equal(t, constants.Palette[i%len(constants.Palette)], created.Color, "trackable %d", i)
		assert.Equal(t, constants.UnorderedSortOrder, created.Order)
	}

	all := svc.GetAllTrackables()
	require.Len(t, all, 12)
	assert.Equal(t, constants.Palette[0], all[10].Color)
	assert.Equal(t, constants.Palette[1], all[11].Color)
}

func TestCreateTrackableTrimsAndRejectsEmptyNames(t *testing.T) {
	svc := newMemoryService()

	created := svc.CreateTrackable("  Read  ")
	require.NotNil(t, created)
	assert.Equal(t, "Read", created.Name)

	assert.Nil(t, svc.CreateTrackable(""))
	assert.Nil(t, svc.CreateTrackable("   "))
	assert.Nil(t, svc.CreateTrackableWith("\t", "#007AFF", 0))
	assert.Len(t, svc.GetAllTrackables(), 1)
}

func TestCreateTrackableWith(t *testing.T) {
	svc := newMemoryService()

	created := svc.CreateTrackableWith("Water", "#007AFF", 3)
	require.NotNil(t, created)
	assert.Equal(t, "#007AFF", created.Color)
	assert.Equal(t, 3, created.Order)

	defaulted := svc.CreateTrackableWith("Steps", "", -1)
	require.NotNil(t, defaulted)
	assert.Equal(t, constants.DefaultColor, defaulted.Color)

	assert.Nil(t, svc.CreateTrackableWith("Bad", "blue", 0))
}

func TestUpdateAndDeleteTrackable(t *testing.T) {
	svc := newMemoryService()
	created := svc.CreateTrackable("Water")
	require.NotNil(t, created)

	updated := *created
	updated.Name = " Hydrate "
	updated.Color = "#5AC8FA"
	require.True(t, svc.UpdateTrackable(updated))

	all := svc.GetAllTrackables()
	require.Len(t, all, 1)
	assert.Equal(t, "Hydrate", all[0].Name)
	assert.Equal(t, "#5AC8FA", all[0].Color)

	updated.Color = ""
	require.True(t, svc.UpdateTrackable(updated))
	assert.Equal(t, constants.DefaultColor, svc.GetAllTrackables()[0].Color)

	updated.Color = "teal"
	assert.False(t, svc.UpdateTrackable(updated))

	updated.Color = "#5AC8FA"
	updated.Name = ""
	assert.False(t, svc.UpdateTrackable(updated))

	missing := models.Trackable{ID: 42, Name: "Ghost", Color: "#FF9500"}
	assert.False(t, svc.UpdateTrackable(missing))

	assert.True(t, svc.DeleteTrackable(created.ID))
	assert.False(t, svc.DeleteTrackable(created.ID))
	assert.Empty(t, svc.GetAllTrackables())
}

func TestUpdateTrackableOrders(t *testing.T) {
	svc := newMemoryService()
	a := svc.CreateTrackable("a")
	b := svc.CreateTrackable("b")
	require.NotNil(t, a)
	require.NotNil(t, b)

	require.True(t, svc.UpdateTrackableOrders([]models.OrderUpdate{
		{ID: a.ID, Order: 1},
		{ID: b.ID, Order: 0},
	}))
	all := svc.GetAllTrackables()
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	assert.False(t, svc.UpdateTrackableOrders([]models.OrderUpdate{{ID: 99, Order: 0}}))
}

func TestCountOperations(t *testing.T) {
	svc := newMemoryService()
	tr := svc.CreateTrackable("Pushups")
	require.NotNil(t, tr)
	const day = "2024-03-10"

	assert.Nil(t, svc.GetCount(tr.ID, day))

	for i := 1; i <= 3; i++ {
		c := svc.IncrementCount(tr.ID, day)
		require.NotNil(t, c)
		assert.Equal(t, i, c.Count)
	}

	c := svc.DecrementCount(tr.ID, day)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.Count)

	c = svc.SetCount(tr.ID, day, 40)
	require.NotNil(t, c)
	assert.Equal(t, 40, c.Count)

	got := svc.GetCount(tr.ID, day)
	require.NotNil(t, got)
	assert.Equal(t, 40, got.Count)

	assert.Len(t, svc.GetAllCounts(tr.ID), 1)
}

func TestCountOperationsRejectMalformedDates(t *testing.T) {
	svc := newMemoryService()
	tr := svc.CreateTrackable("Water")
	require.NotNil(t, tr)

	for _, date := range []string{"", "2024-3-1", "2024-02-30", "tomorrow"} {
		assert.Nil(t, svc.IncrementCount(tr.ID, date), date)
		assert.Nil(t, svc.DecrementCount(tr.ID, date), date)
		assert.Nil(t, svc.SetCount(tr.ID, date, 1), date)
		assert.Nil(t, svc.GetCount(tr.ID, date), date)
	}
	assert.Empty(t, svc.GetAllCounts(tr.ID))
}

func TestCountOperationsOnUnknownTrackable(t *testing.T) {
	svc := newMemoryService()

	assert.Nil(t, svc.IncrementCount(7, "2024-01-01"))
	assert.Nil(t, svc.DecrementCount(7, "2024-01-01"))
	assert.Nil(t, svc.SetCount(7, "2024-01-01", 3))
	assert.Empty(t, svc.GetAllCounts(7))
}

func TestBackendErrorsBecomeZeroValues(t *testing.T) {
	for _, cause := range []error{
		errors.StorageIO("op", stderrors.New("disk I/O error")),
		errors.InvalidData("op", stderrors.New("bad row")),
		errors.NotFound("op"),
	} {
		svc := NewWithProvider(failingStore{err: cause})

		trackables := svc.GetAllTrackables()
		assert.NotNil(t, trackables)
		assert.Empty(t, trackables)
		assert.Nil(t, svc.CreateTrackable("Water"))
		assert.Nil(t, svc.CreateTrackableWith("Water", "#007AFF", 0))
		assert.False(t, svc.UpdateTrackable(models.Trackable{ID: 1, Name: "x", Color: "#007AFF"}))
		assert.False(t, svc.UpdateTrackableOrders([]models.OrderUpdate{{ID: 1, Order: 0}}))
		assert.False(t, svc.DeleteTrackable(1))

		counts := svc.GetAllCounts(1)
		assert.NotNil(t, counts)
		assert.Empty(t, counts)
		assert.Nil(t, svc.GetCount(1, "2024-01-01"))
		assert.Nil(t, svc.IncrementCount(1, "2024-01-01"))
		assert.Nil(t, svc.DecrementCount(1, "2024-01-01"))
		assert.Nil(t, svc.SetCount(1, "2024-01-01", 2))
	}
}

func TestDateStrings(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	fixed := time.Date(2024, time.February, 29, 20, 30, 0, 0, time.UTC)

	svc := NewWithProvider(memory.New(),
		WithClock(func() time.Time { return fixed }),
		WithLocation(tokyo),
	)

	// 20:30 UTC is already the next day in Tokyo
	assert.Equal(t, "2024-03-01", svc.TodayString())
	assert.Equal(t, "2024-02-29", NewWithProvider(memory.New(),
		WithClock(func() time.Time { return fixed }),
		WithLocation(time.UTC),
	).TodayString())

	assert.Equal(t, "2023-12-31", svc.DateString(time.Date(2023, time.December, 31, 0, 0, 0, 0, tokyo)))
}
