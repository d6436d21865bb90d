package palette

import (
	"testing"

	"teamcal/internal/models"
)

func TestFor_SameTypeSameDescriptor(t *testing.T) {
	a := models.Event{ID: "e1", Type: models.TypeHoliday}
	b := models.Event{ID: "e2", Type: models.TypeHoliday}
	if For(a.Type, Light) != For(b.Type, Light) {
		t.Fatalf("holiday events got different descriptors")
	}
	if got := For(a.Type, Light).Class; got != "event-holiday" {
		t.Fatalf("unexpected class %q", got)
	}
}

func TestFor_UnknownGetsDefault(t *testing.T) {
	for _, theme := range []Theme{Light, Dark} {
		got := For("unknown-value", theme)
		if got != Default(theme) {
			t.Fatalf("unknown type should map to default for %s theme: %+v", theme, got)
		}
		if got.Class != "event-default" {
			t.Fatalf("unexpected default class %q", got.Class)
		}
	}
}

func TestFor_EveryKnownTypeIsDistinct(t *testing.T) {
	seen := map[string]models.EventType{}
	for _, typ := range models.EventTypes {
		d := For(typ, Light)
		if d.Class == "event-default" {
			t.Fatalf("%s fell back to default", typ)
		}
		if prev, dup := seen[d.Class]; dup {
			t.Fatalf("%s and %s share class %s", typ, prev, d.Class)
		}
		seen[d.Class] = typ
	}
}

func TestFor_ThemeChangesBackground(t *testing.T) {
	if For(models.TypeMeeting, Light).Background == For(models.TypeMeeting, Dark).Background {
		t.Fatalf("dark theme should use a darker background")
	}
	if ParseTheme("DARK") != Dark || ParseTheme("") != Light {
		t.Fatalf("unexpected ParseTheme result")
	}
}
