package models

import (
	"regexp"
	"time"

	"github.com/julianstephens/carrot/internal/constants"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Trackable represents a habit or goal whose occurrences are counted per day
type Trackable struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // #RRGGBB
	Order int    `json:"order"` // -1 means unordered
}

// NewTrackable returns an unpersisted trackable with the default color and order
func NewTrackable(name string) Trackable {
	return Trackable{
		Name:  name,
		Color: constants.DefaultColor,
		Order: constants.UnorderedSortOrder,
	}
}

// IsPersisted reports whether the trackable has been assigned an ID by a store
func (t Trackable) IsPersisted() bool {
	return t.ID > 0
}

// Count is the tally of a trackable for a single calendar day
type Count struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"` // YYYY-MM-DD format
	TrackableID int64  `json:"trackable_id"`
	Count       int    `json:"count"`
}

// NewCount returns an unpersisted zero count for the given trackable and day
func NewCount(trackableID int64, date string) Count {
	return Count{
		Date:        date,
		TrackableID: trackableID,
	}
}

// OrderUpdate assigns a new sort order to a trackable
type OrderUpdate struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}

// ValidColor reports whether s is a #RRGGBB hex color
func ValidColor(s string) bool {
	return colorPattern.MatchString(s)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date
func ValidDate(s string) bool {
	if len(s) != len(constants.DateFormat) {
		return false
	}
	_, err := time.Parse(constants.DateFormat, s)
	return err == nil
}
