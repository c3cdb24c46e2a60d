package cli

import (
	"fmt"

	"github.com/julianstephens/carrot/internal/models"
)

type IncCmd struct {
	ID   int64  `arg:"" help:"Trackable ID."`
	Date string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *IncCmd) Run(ctx *Context) error {
	return applyCount(ctx, c.ID, c.Date, "increment", func(date string) *models.Count {
		return ctx.Service().IncrementCount(c.ID, date)
	})
}

type DecCmd struct {
	ID   int64  `arg:"" help:"Trackable ID."`
	Date string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *DecCmd) Run(ctx *Context) error {
	return applyCount(ctx, c.ID, c.Date, "decrement", func(date string) *models.Count {
		return ctx.Service().DecrementCount(c.ID, date)
	})
}

type SetCmd struct {
	ID    int64  `arg:"" help:"Trackable ID."`
	Count int    `arg:"" help:"New count for the day."`
	Date  string `help:"Day as YYYY-MM-DD (default: today)."`
}

func (c *SetCmd) Run(ctx *Context) error {
	return applyCount(ctx, c.ID, c.Date, "set", func(date string) *models.Count {
		return ctx.Service().SetCount(c.ID, date, c.Count)
	})
}

func applyCount(ctx *Context, id int64, date, verb string, fn func(date string) *models.Count) error {
	date, err := ctx.resolveDate(date)
	if err != nil {
		return err
	}
	t, err := ctx.findTrackable(id)
	if err != nil {
		return err
	}

	c := fn(date)
	if c == nil {
		return fmt.Errorf("failed to %s count for trackable %d", verb, id)
	}
	ctx.printf("%s %s on %s: %d\n", swatch(t.Color), t.Name, c.Date, c.Count)
	return nil
}

type CountsCmd struct {
	ID int64 `arg:"" help:"Trackable ID."`
}

func (c *CountsCmd) Run(ctx *Context) error {
	t, err := ctx.findTrackable(c.ID)
	if err != nil {
		return err
	}

	counts := ctx.Service().GetAllCounts(c.ID)
	if len(counts) == 0 {
		ctx.printf("No counts recorded for %s.\n", t.Name)
		return nil
	}

	ctx.printf("%s %s\n", swatch(t.Color), t.Name)
	for _, count := range counts {
		ctx.printf("  %s  %d\n", count.Date, count.Count)
	}
	return nil
}
