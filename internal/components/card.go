package components

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Row is one labelled line of a card.
type Row struct {
	Label string
	Value string
}

// CardData represents the content of a card.
type CardData struct {
	Title    string
	Subtitle string
	// Status selects the accent colour: "ok", "warning", "error" or empty.
	Status string
	Rows   []Row
}

// Card renders a bordered summary box. Rows keep their given order.
type Card struct {
	data  CardData
	width int
}

// NewCard creates a new card with the given data.
func NewCard(data CardData) *Card {
	return &Card{data: data, width: 72}
}

// WithWidth sets the card width. Values wider than the width are wrapped.
func (c *Card) WithWidth(width int) *Card {
	c.width = width
	return c
}

// View renders the card.
func (c *Card) View() string {
	accent := statusSlot(c.data.Status)
	box := Style(lipgloss.NewStyle(), Bordered(), BorderColour(accent))
	title := Style(lipgloss.NewStyle(), Bold(), Foreground(accent))
	label := Style(lipgloss.NewStyle(), Foreground(PaletteMuted))

	var lines []string
	header := title.Render(c.data.Title)
	if c.data.Subtitle != "" {
		header += " " + label.Render(c.data.Subtitle)
	}
	lines = append(lines, header)

	labelWidth := 0
	for _, r := range c.data.Rows {
		if n := utf8.RuneCountInString(r.Label); n > labelWidth {
			labelWidth = n
		}
	}

	valueWidth := c.width - labelWidth - 2 - 2*GetTheme().Padding - 2
	for _, r := range c.data.Rows {
		value := r.Value
		if value == "" {
			value = "-"
		}
		pad := strings.Repeat(" ", labelWidth-utf8.RuneCountInString(r.Label))
		for i, part := range wrap(value, valueWidth) {
			if i == 0 {
				lines = append(lines, label.Render(r.Label)+pad+"  "+part)
				continue
			}
			lines = append(lines, strings.Repeat(" ", labelWidth+2)+part)
		}
	}

	return box.Render(strings.Join(lines, "\n"))
}

func statusSlot(status string) PaletteSlot {
	switch status {
	case "ok":
		return PaletteSuccess
	case "warning":
		return PaletteWarning
	case "error":
		return PaletteDanger
	default:
		return PalettePrimary
	}
}

// wrap splits text on spaces so no line exceeds width runes. Words longer
// than width are broken.
func wrap(text string, width int) []string {
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}

		switch {
		case current == "":
			current = word
		case utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
