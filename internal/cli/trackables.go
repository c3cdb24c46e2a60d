package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/models"
)

var (
	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func swatch(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}

func paletteColor(n int) string {
	return constants.Palette[n%len(constants.Palette)]
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *Context) error {
	trackables := ctx.Service().GetAllTrackables()
	if len(trackables) == 0 {
		ctx.println("No trackables found.")
		return nil
	}

	for _, t := range trackables {
		order := "-"
		if t.Order >= 0 {
			order = strconv.Itoa(t.Order)
		}
		ctx.printf("%s %s %s %s\n",
			idStyle.Render(fmt.Sprintf("%3d", t.ID)),
			swatch(t.Color),
			t.Name,
			dimStyle.Render(fmt.Sprintf("(%s, order %s)", t.Color, order)),
		)
	}
	return nil
}

type AddCmd struct {
	Name  string `arg:"" help:"Trackable name."`
	Color string `help:"Color as #RRGGBB (default: next palette color)."`
	Order int    `help:"Sort order; -1 leaves it unordered." default:"-1"`
}

func (c *AddCmd) Run(ctx *Context) error {
	var created *models.Trackable
	if c.Color == "" && c.Order == -1 {
		created = ctx.Service().CreateTrackable(c.Name)
	} else {
		if c.Color == "" {
			// keep palette cycling when only the order is given
			all := ctx.Service().GetAllTrackables()
			c.Color = paletteColor(len(all))
		}
		if !models.ValidColor(c.Color) {
			return fmt.Errorf("invalid color %q: expected #RRGGBB", c.Color)
		}
		created = ctx.Service().CreateTrackableWith(c.Name, c.Color, c.Order)
	}

	if created == nil {
		if strings.TrimSpace(c.Name) == "" {
			return errors.New("trackable name cannot be empty")
		}
		return errors.New("failed to create trackable")
	}

	ctx.printf("Added trackable %d: %s %s\n", created.ID, swatch(created.Color), created.Name)
	return nil
}

type EditCmd struct {
	ID    int64  `arg:"" help:"Trackable ID."`
	Name  string `help:"New name."`
	Color string `help:"New color as #RRGGBB."`
	Order string `help:"New sort order (-1 for unordered)."`
}

func (c *EditCmd) Run(ctx *Context) error {
	t, err := ctx.findTrackable(c.ID)
	if err != nil {
		return err
	}

	if c.Name != "" {
		t.Name = c.Name
	}
	if c.Color != "" {
		if !models.ValidColor(c.Color) {
			return fmt.Errorf("invalid color %q: expected #RRGGBB", c.Color)
		}
		t.Color = c.Color
	}
	if c.Order != "" {
		order, err := strconv.Atoi(c.Order)
		if err != nil {
			return fmt.Errorf("invalid order %q: %w", c.Order, err)
		}
		t.Order = order
	}

	if !ctx.Service().UpdateTrackable(t) {
		return fmt.Errorf("failed to update trackable %d", c.ID)
	}
	ctx.printf("Updated trackable %d\n", c.ID)
	return nil
}

type ReorderCmd struct {
	Assignments []string `arg:"" help:"One or more ID=ORDER pairs."`
}

func (c *ReorderCmd) Run(ctx *Context) error {
	updates := make([]models.OrderUpdate, 0, len(c.Assignments))
	for _, a := range c.Assignments {
		u, err := parseOrderAssignment(a)
		if err != nil {
			return err
		}
		updates = append(updates, u)
	}

	if !ctx.Service().UpdateTrackableOrders(updates) {
		return errors.New("failed to reorder trackables; no changes were made")
	}
	ctx.printf("Reordered %d trackable(s)\n", len(updates))
	return nil
}

type DeleteCmd struct {
	ID int64 `arg:"" help:"Trackable ID."`
}

func (c *DeleteCmd) Run(ctx *Context) error {
	if !ctx.Service().DeleteTrackable(c.ID) {
		return fmt.Errorf("failed to delete trackable %d", c.ID)
	}
	ctx.printf("Deleted trackable %d and its counts\n", c.ID)
	return nil
}
