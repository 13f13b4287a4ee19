package components

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ColourSet is a semantic colour with the colour used for text on top of it.
type ColourSet struct {
	Base   lipgloss.AdaptiveColor
	OnBase lipgloss.AdaptiveColor
}

// Palette describes semantic colour slots used by components.
type Palette struct {
	Primary ColourSet
	Surface ColourSet
	Success ColourSet
	Warning ColourSet
	Danger  ColourSet
	Info    ColourSet
	Muted   ColourSet
}

// Theme represents the global styling theme for components.
type Theme struct {
	Palette Palette
	Border  lipgloss.Border
	Padding int
}

// DefaultTheme returns the stock theme.
func DefaultTheme() Theme {
	return Theme{
		Palette: Palette{
			Primary: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#3b82f6", Dark: "#60a5fa"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#0f172a"},
			},
			Surface: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#f8fafc", Dark: "#1e293b"},
				OnBase: lipgloss.AdaptiveColor{Light: "#111827", Dark: "#f1f5f9"},
			},
			Success: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#052e16"},
			},
			Warning: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#422006"},
			},
			Danger: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#450a0a"},
			},
			Info: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#083344"},
			},
			Muted: ColourSet{
				Base:   lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"},
				OnBase: lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#0f172a"},
			},
		},
		Border:  lipgloss.RoundedBorder(),
		Padding: 1,
	}
}

var (
	themeMu sync.RWMutex
	current = DefaultTheme()
)

// SetTheme replaces the active theme.
func SetTheme(theme Theme) {
	themeMu.Lock()
	current = theme
	themeMu.Unlock()
}

// GetTheme returns the active theme.
func GetTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return current
}

// StyleApplier represents a function that can apply styling to a lipgloss.Style
type StyleApplier interface {
	Apply(base lipgloss.Style, theme Theme) lipgloss.Style
}

// StyleFunc implements StyleApplier for a function type
type StyleFunc func(lipgloss.Style, Theme) lipgloss.Style

func (fn StyleFunc) Apply(base lipgloss.Style, theme Theme) lipgloss.Style {
	return fn(base, theme)
}

// Style applies a series of modifiers to create a final style
func Style(base lipgloss.Style, appliers ...StyleApplier) lipgloss.Style {
	theme := GetTheme()
	for _, applier := range appliers {
		base = applier.Apply(base, theme)
	}
	return base
}

// PaletteSlot provides access to a semantic colour slot.
type PaletteSlot func(Palette) ColourSet

var (
	PalettePrimary PaletteSlot = func(p Palette) ColourSet { return p.Primary }
	PaletteSurface PaletteSlot = func(p Palette) ColourSet { return p.Surface }
	PaletteSuccess PaletteSlot = func(p Palette) ColourSet { return p.Success }
	PaletteWarning PaletteSlot = func(p Palette) ColourSet { return p.Warning }
	PaletteDanger  PaletteSlot = func(p Palette) ColourSet { return p.Danger }
	PaletteInfo    PaletteSlot = func(p Palette) ColourSet { return p.Info }
	PaletteMuted   PaletteSlot = func(p Palette) ColourSet { return p.Muted }
)

// Foreground applies a semantic foreground colour.
func Foreground(slot PaletteSlot) StyleFunc {
	return func(base lipgloss.Style, theme Theme) lipgloss.Style {
		return base.Foreground(slot(theme.Palette).Base)
	}
}

// BorderColour draws the border in a semantic colour.
func BorderColour(slot PaletteSlot) StyleFunc {
	return func(base lipgloss.Style, theme Theme) lipgloss.Style {
		return base.BorderForeground(slot(theme.Palette).Base)
	}
}

// Bordered applies the theme border and padding.
func Bordered() StyleFunc {
	return func(base lipgloss.Style, theme Theme) lipgloss.Style {
		return base.Border(theme.Border).Padding(0, theme.Padding)
	}
}

// Bold makes text bold.
func Bold() StyleFunc {
	return func(base lipgloss.Style, _ Theme) lipgloss.Style {
		return base.Bold(true)
	}
}
