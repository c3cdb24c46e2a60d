package history

import (
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/models"
)

// CSV renders entries as a Date,Count table in the order given. Rows are
// newline-separated with no trailing newline.
func CSV(entries []models.HistoryEntry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Date,Count")
	for _, e := range entries {
		lines = append(lines, e.DateString+","+strconv.Itoa(e.Count))
	}
	return strings.Join(lines, "\n")
}

// AllCSV renders one column per trackable over the trailing window ending
// on now, most recent day first. Returns "" when there are no trackables.
func AllCSV(src Source, now time.Time) string {
	trackables := src.GetAllTrackables()
	if len(trackables) == 0 {
		return ""
	}

	header := []string{"Date"}
	columns := make([]map[string]int, len(trackables))
	for i, t := range trackables {
		header = append(header, csvName(t.Name))
		columns[i] = countsByDate(src.GetAllCounts(t.ID))
	}

	lines := make([]string, 0, constants.HistoryWindowDays+1)
	lines = append(lines, strings.Join(header, ","))

	today := midnight(now)
	for i := 0; i < constants.HistoryWindowDays; i++ {
		ds := today.AddDate(0, 0, -i).Format(constants.DateFormat)
		row := []string{ds}
		for _, byDate := range columns {
			row = append(row, strconv.Itoa(byDate[ds]))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// csvName quotes names that contain a comma. Other characters, quotes
// included, pass through unchanged.
func csvName(name string) string {
	if strings.Contains(name, ",") {
		return `"` + name + `"`
	}
	return name
}
