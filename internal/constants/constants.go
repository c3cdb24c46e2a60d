package constants

const (
	AppName            = "carrot"
	DefaultKeyringUser = "database-connection"
	Version            = "v0.3.0"

	// DateFormat is the date key format used for counts (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DatabaseFileName is the SQLite file created inside the data directory
	DatabaseFileName = "carrot.db"

	// LogDirName and LogFileName locate the rotating log inside the data directory
	LogDirName  = "logs"
	LogFileName = "carrot.log"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "carrot-"
	BackupFileSuffix = ".db"

	// DefaultColor is the trackable color used when none is given
	DefaultColor = "#FF9500"

	// UnorderedSortOrder marks a trackable with no explicit position; it sorts
	// before any explicitly ordered trackable.
	UnorderedSortOrder = -1

	// HistoryWindowDays is the length of the default trailing history window
	// and of the all-trackables CSV export.
	HistoryWindowDays = 30

	// PostgresSchema is the search_path used for the PostgreSQL backend
	PostgresSchema = AppName
)

// Palette is cycled through when trackables are created without an explicit
// color: the nth trackable gets Palette[n % len(Palette)].
var Palette = [...]string{
	"#FF9500", // orange
	"#007AFF", // blue
	"#34C759", // green
	"#FF3B30", // red
	"#AF52DE", // purple
	"#FF2D55", // pink
	"#5AC8FA", // teal
	"#FFCC00", // yellow
	"#5856D6", // indigo
	"#A2845E", // brown
}
