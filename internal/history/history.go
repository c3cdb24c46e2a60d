// Package history turns a trackable's sparse daily counts into dense,
// display-ready day sequences and CSV exports.
package history

import (
	"sort"
	"time"

	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/models"
)

// Source is the read side of the persistence facade
type Source interface {
	GetAllTrackables() []models.Trackable
	GetAllCounts(trackableID int64) []models.Count
}

// DefaultRange returns the trailing window ending on now's calendar day
func DefaultRange(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -(constants.HistoryWindowDays - 1)), now
}

// Build returns one entry per calendar day from start to end inclusive,
// most recent first. Days without a stored count have Count 0. Days are
// computed in start's location; a start after end is clamped to end.
func Build(src Source, trackableID int64, start, end time.Time) []models.HistoryEntry {
	loc := start.Location()
	first := midnight(start)
	last := midnight(end.In(loc))
	if first.After(last) {
		first = last
	}

	byDate := countsByDate(src.GetAllCounts(trackableID))

	var entries []models.HistoryEntry
	for day := last; !day.Before(first); day = day.AddDate(0, 0, -1) {
		entries = append(entries, entryFor(day, byDate))
	}
	return entries
}

// Ascending returns a copy of entries ordered oldest first
func Ascending(entries []models.HistoryEntry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func Summarize(entries []models.HistoryEntry) models.Summary {
	var s models.Summary
	if len(entries) > 0 {
		s.Max = entries[0].Count
	}
	for _, e := range entries {
		s.Total += e.Count
		if e.Count > s.Max {
			s.Max = e.Count
		}
	}
	if len(entries) > 0 {
		s.Average = float64(s.Total) / float64(len(entries))
	}
	return s
}

func entryFor(day time.Time, byDate map[string]int) models.HistoryEntry {
	ds := day.Format(constants.DateFormat)
	return models.HistoryEntry{
		ID:         ds,
		Date:       day,
		DateString: ds,
		Day:        day.Day(),
		Month:      day.Format("Jan"),
		DayOfWeek:  day.Weekday().String(),
		Count:      byDate[ds],
	}
}

func countsByDate(counts []models.Count) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Date] = c.Count
	}
	return m
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
