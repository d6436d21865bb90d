// Package palette maps event types to display styles.
package palette

import (
	"strings"

	"teamcal/internal/models"
)

// Theme selects the light or dark variant of a descriptor.
type Theme int

const (
	Light Theme = iota
	Dark
)

// ParseTheme accepts "light" or "dark"; anything else is Light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), "dark") {
		return Dark
	}
	return Light
}

func (t Theme) String() string {
	if t == Dark {
		return "dark"
	}
	return "light"
}

// Descriptor is the visual style of an event type.
type Descriptor struct {
	Class      string // CSS-style class name, event-<type> or event-default
	Label      string // human label for pickers and legends
	Swatch     string // single accent colour used in pickers
	Background string
	Border     string
	Gradient   string
	Text       string
}

type variant struct {
	background, border, gradFrom, gradTo string
}

type entry struct {
	class, label, swatch string
	light, dark          variant
}

var table = map[models.EventType]entry{
	models.TypeMeeting: {
		class: "event-meeting", label: "Meeting", swatch: "#4f46e5",
		light: variant{"#4f46e5", "#4338ca", "#4338ca", "#6366f1"},
		dark:  variant{"#4338ca", "#3730a3", "#3730a3", "#4338ca"},
	},
	models.TypeHoliday: {
		class: "event-holiday", label: "Holiday", swatch: "#ef4444",
		light: variant{"#ef4444", "#b91c1c", "#ef4444", "#f87171"},
		dark:  variant{"#b91c1c", "#991b1b", "#991b1b", "#b91c1c"},
	},
	models.TypeDeadline: {
		class: "event-deadline", label: "Deadline", swatch: "#f59e0b",
		light: variant{"#f59e0b", "#d97706", "#f59e0b", "#fbbf24"},
		dark:  variant{"#b45309", "#92400e", "#92400e", "#b45309"},
	},
	models.TypeEvent: {
		class: "event-event", label: "Event", swatch: "#8b5cf6",
		light: variant{"#8b5cf6", "#7c3aed", "#8b5cf6", "#a78bfa"},
		dark:  variant{"#7c3aed", "#6d28d9", "#6d28d9", "#7c3aed"},
	},
	models.TypeTraining: {
		class: "event-training", label: "Training", swatch: "#10b981",
		light: variant{"#10b981", "#059669", "#10b981", "#34d399"},
		dark:  variant{"#059669", "#047857", "#047857", "#059669"},
	},
}

var fallback = entry{
	class: "event-default", label: "Other", swatch: "#4f46e5",
	light: variant{"#4f46e5", "#4338ca", "#4338ca", "#6366f1"},
	dark:  variant{"#4338ca", "#3730a3", "#3730a3", "#4338ca"},
}

// For returns the descriptor for t. Unknown or empty types get the default.
func For(t models.EventType, theme Theme) Descriptor {
	e, ok := table[t]
	if !ok {
		e = fallback
	}
	v := e.light
	if theme == Dark {
		v = e.dark
	}
	return Descriptor{
		Class:      e.class,
		Label:      e.label,
		Swatch:     e.swatch,
		Background: v.background,
		Border:     v.border,
		Gradient:   "linear-gradient(135deg, " + v.gradFrom + ", " + v.gradTo + ")",
		Text:       "#ffffff",
	}
}

// Default returns the descriptor used for unknown types.
func Default(theme Theme) Descriptor {
	return For("", theme)
}
