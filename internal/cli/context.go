package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/carrot/internal/backup"
	"github.com/julianstephens/carrot/internal/config"
	"github.com/julianstephens/carrot/internal/logger"
	"github.com/julianstephens/carrot/internal/models"
	"github.com/julianstephens/carrot/internal/service"
)

// Context is passed to every command's Run method
type Context struct {
	Config config.Config
	Out    io.Writer
	In     io.Reader
	Now    func() time.Time

	svc *service.Service
}

func NewContext(cfg config.Config, out io.Writer, in io.Reader) *Context {
	return &Context{
		Config: cfg,
		Out:    out,
		In:     in,
		Now:    time.Now,
	}
}

// Service opens the persistence facade on first use
func (c *Context) Service() *service.Service {
	if c.svc == nil {
		c.svc = service.New(c.Config, service.WithClock(c.Now))
	}
	return c.svc
}

// Close releases the facade if one was opened
func (c *Context) Close() error {
	if c.svc == nil {
		return nil
	}
	err := c.svc.Close()
	c.svc = nil
	return err
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// PerformAutomaticBackup snapshots the SQLite database if it exists and
// logs rather than fails on error
func (c *Context) PerformAutomaticBackup() {
	if c.Config.UsesPostgres() {
		return
	}
	if _, err := os.Stat(c.Config.DatabasePath()); err != nil {
		return
	}
	if _, err := backup.NewManager(c.Config.DatabasePath()).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// resolveDate returns date, or today's date when empty
func (c *Context) resolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return c.Service().TodayString(), nil
	}
	if !models.ValidDate(date) {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return date, nil
}

// parseDay parses a YYYY-MM-DD flag in the local time zone, returning
// fallback when s is empty
func parseDay(s string, fallback time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	if !models.ValidDate(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return time.ParseInLocation("2006-01-02", s, time.Local)
}

// findTrackable looks a trackable up by ID
func (c *Context) findTrackable(id int64) (models.Trackable, error) {
	for _, t := range c.Service().GetAllTrackables() {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Trackable{}, fmt.Errorf("trackable %d not found", id)
}

// parseOrderAssignment parses ID=ORDER
func parseOrderAssignment(s string) (models.OrderUpdate, error) {
	id, order, ok := strings.Cut(s, "=")
	if !ok {
		return models.OrderUpdate{}, fmt.Errorf("invalid assignment %q: expected ID=ORDER", s)
	}
	parsedID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return models.OrderUpdate{}, fmt.Errorf("invalid trackable ID in %q: %w", s, err)
	}
	parsedOrder, err := strconv.Atoi(strings.TrimSpace(order))
	if err != nil {
		return models.OrderUpdate{}, fmt.Errorf("invalid order in %q: %w", s, err)
	}
	return models.OrderUpdate{ID: parsedID, Order: parsedOrder}, nil
}
