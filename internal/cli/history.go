package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/carrot/internal/history"
)

const maxBarWidth = 40

var headerStyle = lipgloss.NewStyle().Bold(true)

type HistoryCmd struct {
	ID        int64  `arg:"" help:"Trackable ID."`
	Start     string `help:"First day as YYYY-MM-DD (default: 29 days before end)."`
	End       string `help:"Last day as YYYY-MM-DD (default: today)."`
	Ascending bool   `help:"Show oldest day first."`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	t, err := ctx.findTrackable(c.ID)
	if err != nil {
		return err
	}

	end, err := parseDay(c.End, ctx.Now())
	if err != nil {
		return err
	}
	defaultStart, _ := history.DefaultRange(end)
	start, err := parseDay(c.Start, defaultStart)
	if err != nil {
		return err
	}

	entries := history.Build(ctx.Service(), c.ID, start, end)
	if c.Ascending {
		entries = history.Ascending(entries)
	}

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color))
	ctx.println(headerStyle.Render(t.Name))
	for _, e := range entries {
		ctx.printf("%s %s %3d %s\n",
			e.DayOfWeek[:3],
			e.DateString,
			e.Count,
			bar.Render(strings.Repeat("█", max(0, min(e.Count, maxBarWidth)))),
		)
	}

	s := history.Summarize(entries)
	ctx.println(dimStyle.Render(fmt.Sprintf("total %d, average %.2f/day, max %d over %d days", s.Total, s.Average, s.Max, len(entries))))
	return nil
}

type ExportCmd struct {
	ID     int64  `arg:"" optional:"" help:"Trackable ID (omit with --all)."`
	All    bool   `help:"Export every trackable over the last 30 days."`
	Start  string `help:"First day as YYYY-MM-DD (default: 29 days before end)."`
	End    string `help:"Last day as YYYY-MM-DD (default: today)."`
	Output string `short:"o" help:"Write CSV to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *Context) error {
	var csv string
	if c.All || c.ID == 0 {
		csv = history.AllCSV(ctx.Service(), ctx.Now())
		if csv == "" {
			return fmt.Errorf("nothing to export: no trackables")
		}
	} else {
		if _, err := ctx.findTrackable(c.ID); err != nil {
			return err
		}
		end, err := parseDay(c.End, ctx.Now())
		if err != nil {
			return err
		}
		defaultStart, _ := history.DefaultRange(end)
		start, err := parseDay(c.Start, defaultStart)
		if err != nil {
			return err
		}
		csv = history.CSV(history.Build(ctx.Service(), c.ID, start, end))
	}

	if c.Output == "" {
		ctx.println(csv)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(csv), 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	ctx.printf("Exported to %s\n", c.Output)
	return nil
}
