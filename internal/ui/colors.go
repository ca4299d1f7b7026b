package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/pinmap/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// CategoryBadge renders the category label in its palette colours.
func CategoryBadge(c models.Category) string {
	p := c.Palette()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(p.Text)).
		Background(lipgloss.Color(p.Background)).
		Padding(0, 1).
		Render(string(c))
}

// Pin renders the marker glyph in the category's text colour.
func Pin(c models.Category) string {
	return NewBold(c.Palette().Text).Render("●")
}
