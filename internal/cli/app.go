package cli

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/carrot/internal/config"
	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/logger"
)

// App is the kong command tree
type App struct {
	Version     kong.VersionFlag `help:"Show version and exit."`
	DataDir     string           `help:"Directory holding the database, logs and backups." type:"path"`
	DatabaseURL string           `name:"database-url" help:"PostgreSQL connection string. Credentials must NOT be embedded; use .pgpass or the OS keyring."`
	Debug       bool             `help:"Log debug output to stderr."`

	List    ListCmd    `cmd:"" help:"List trackables." default:"1"`
	Add     AddCmd     `cmd:"" help:"Add a trackable."`
	Edit    EditCmd    `cmd:"" help:"Edit a trackable."`
	Reorder ReorderCmd `cmd:"" help:"Set sort orders, all or nothing."`
	Delete  DeleteCmd  `cmd:"" help:"Delete a trackable and its counts."`
	Inc     IncCmd     `cmd:"" help:"Increment a day's count."`
	Dec     DecCmd     `cmd:"" help:"Decrement a day's count (never below zero)."`
	Set     SetCmd     `cmd:"" help:"Set a day's count."`
	Counts  CountsCmd  `cmd:"" help:"Show every recorded count for a trackable."`
	History HistoryCmd `cmd:"" help:"Show a trackable's daily history."`
	Export  ExportCmd  `cmd:"" help:"Export history as CSV."`
	Migrate MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Backup  struct {
		Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    BackupListCmd    `cmd:"" help:"List available backups."`
		Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	DBURL struct {
		Set   DBURLSetCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Clear DBURLClearCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" name:"db-url" help:"Manage the PostgreSQL connection string."`
}

// config layers command-line flags over cfg
func (a *App) config(cfg config.Config) config.Config {
	if a.DataDir != "" {
		cfg.DataDir = a.DataDir
	}
	if url := strings.TrimSpace(a.DatabaseURL); url != "" {
		cfg.DatabaseURL = url
	}
	if a.Debug {
		cfg.Debug = true
	}
	return cfg
}

// Execute parses args and runs the selected command
func Execute(args []string, out io.Writer, in io.Reader, opts ...kong.Option) error {
	var app App
	options := append([]kong.Option{
		kong.Name(constants.AppName),
		kong.Description("Count the things you do, one day at a time."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	}, opts...)

	parser, err := kong.New(&app, options...)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := app.config(config.Load())
	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		// Logging is best effort; the command still runs
		logger.Logger = logger.New(os.Stderr, cfg.Debug)
		logger.Warn("Failed to initialize file logging", "error", err)
	}
	logger.Debug("Running command", "command", kctx.Command(), "backend", backendName(cfg))

	ctx := NewContext(cfg, out, in)
	defer ctx.Close()

	return kctx.Run(ctx)
}

func backendName(cfg config.Config) string {
	if cfg.UsesPostgres() {
		return "postgres"
	}
	return "sqlite"
}
