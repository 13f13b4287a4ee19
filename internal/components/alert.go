package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlertVariant selects the alert colour.
type AlertVariant int

const (
	AlertVariantInfo AlertVariant = iota
	AlertVariantSuccess
	AlertVariantWarning
	AlertVariantError
)

// Alert represents a message alert component
type Alert struct {
	variant AlertVariant
	title   string
	message string
}

// NewAlert creates a new alert.
func NewAlert(variant AlertVariant, title, message string) *Alert {
	return &Alert{variant: variant, title: title, message: message}
}

// View renders the alert
func (a *Alert) View() string {
	slot := alertSlot(a.variant)

	var content []string
	if a.title != "" {
		content = append(content, Style(lipgloss.NewStyle(), Bold(), Foreground(slot)).Render(a.title))
	}
	if a.message != "" {
		content = append(content, a.message)
	}

	return Style(lipgloss.NewStyle(), Bordered(), BorderColour(slot)).Render(strings.Join(content, "\n"))
}

func alertSlot(variant AlertVariant) PaletteSlot {
	switch variant {
	case AlertVariantSuccess:
		return PaletteSuccess
	case AlertVariantWarning:
		return PaletteWarning
	case AlertVariantError:
		return PaletteDanger
	default:
		return PaletteInfo
	}
}

// SuccessAlert creates a success alert
func SuccessAlert(message string) *Alert {
	return NewAlert(AlertVariantSuccess, "Success", message)
}

// ErrorAlert creates an error alert
func ErrorAlert(message string) *Alert {
	return NewAlert(AlertVariantError, "Error", message)
}

// WarningAlert creates a warning alert
func WarningAlert(message string) *Alert {
	return NewAlert(AlertVariantWarning, "Warning", message)
}

// InfoAlert creates an info alert
func InfoAlert(message string) *Alert {
	return NewAlert(AlertVariantInfo, "Info", message)
}
