package models

import "time"

// HistoryEntry is one day of a trackable's history, labelled for display
type HistoryEntry struct {
	ID         string    `json:"id"` // same as DateString
	Date       time.Time `json:"date"`
	DateString string    `json:"date_string"`
	Day        int       `json:"day"`
	Month      string    `json:"month"`       // abbreviated, e.g. "Jan"
	DayOfWeek  string    `json:"day_of_week"` // e.g. "Monday"
	Count      int       `json:"count"`
}

// Summary aggregates a run of history entries
type Summary struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"`
	Max     int     `json:"max"`
}
