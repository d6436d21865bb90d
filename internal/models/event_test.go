package models

import (
	"reflect"
	"testing"
	"time"
)

func TestEvent_AllDay(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"same day midnight", day, day, true},
		{"timed", day.Add(9 * time.Hour), day.Add(10 * time.Hour), false},
		{"midnight to midnight next day", day, day.AddDate(0, 0, 1), false},
		{"start midnight end timed", day, day.Add(time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := Event{Start: tc.start, End: tc.end}
			if got := e.AllDay(); got != tc.want {
				t.Fatalf("AllDay() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEvent_CloneIsIndependent(t *testing.T) {
	e := Event{ID: "e1", Attendees: []string{"u1", "u2"}}
	c := e.Clone()
	c.Attendees[0] = "changed"
	if e.Attendees[0] != "u1" {
		t.Fatalf("clone shares attendee slice with original")
	}
}

func TestEvent_CloneKeepsEmptyAttendees(t *testing.T) {
	c := Event{ID: "e1", Attendees: []string{}}.Clone()
	if c.Attendees == nil {
		t.Fatalf("clone turned an empty attendee list into nil")
	}
	if n := (Event{ID: "e2"}).Clone(); n.Attendees != nil {
		t.Fatalf("clone of nil attendees = %#v", n.Attendees)
	}
}

func TestEvent_InvertedRangeIsTolerated(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	e := Event{Start: start, End: start.Add(-time.Hour)}
	if d := e.Duration(); d != 0 {
		t.Fatalf("expected zero duration for inverted range, got %s", d)
	}
	if !e.Overlaps(start.Add(-time.Minute), start.Add(time.Minute)) {
		t.Fatalf("expected inverted event to still overlap its start")
	}
	if e.AllDay() {
		t.Fatalf("inverted timed event must not be all-day")
	}
}

func TestDedupeIDs(t *testing.T) {
	got := DedupeIDs([]string{"u1", "", "u2", "u1", " u3 ", "u2"})
	want := []string{"u1", "u2", "u3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeIDs = %v, want %v", got, want)
	}
	if got := DedupeIDs(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestParseEventType(t *testing.T) {
	if got, err := ParseEventType(" Holiday "); err != nil || got != TypeHoliday {
		t.Fatalf("ParseEventType = %q, %v", got, err)
	}
	if _, err := ParseEventType("party"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParseLocalTime(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	got, err := ParseLocalTime("2024-01-01T09:00", loc)
	if err != nil {
		t.Fatalf("ParseLocalTime error: %v", err)
	}
	if !got.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, loc)) {
		t.Fatalf("unexpected time: %s", got)
	}
	got, err = ParseLocalTime("2024-01-01T09:00:00Z", loc)
	if err != nil {
		t.Fatalf("ParseLocalTime error: %v", err)
	}
	if !got.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %s", got)
	}
	if _, err := ParseLocalTime("tomorrow", loc); err == nil {
		t.Fatalf("expected error for free text")
	}
}
