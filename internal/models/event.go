package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// EventType classifies a calendar event. The set is fixed; values outside it
// are tolerated on read and rendered with the default style.
type EventType string

const (
	TypeMeeting  EventType = "meeting"
	TypeHoliday  EventType = "holiday"
	TypeDeadline EventType = "deadline"
	TypeEvent    EventType = "event"
	TypeTraining EventType = "training"
)

// DefaultEventType is used for new drafts and for records that arrive without a type.
const DefaultEventType = TypeMeeting

// EventTypes lists the known types in picker order.
var EventTypes = []EventType{TypeMeeting, TypeDeadline, TypeHoliday, TypeEvent, TypeTraining}

// Known reports whether t is one of the fixed event types.
func (t EventType) Known() bool {
	for _, k := range EventTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseEventType normalises user input into an EventType.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Known() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Event is a committed calendar event as held by the event store.
type Event struct {
	ID          string    // Assigned by the calendar service on creation
	Title       string    // Required
	Description string    // Optional free text
	Start       time.Time // Start of the event
	End         time.Time // End of the event, expected to be >= Start
	Type        EventType // One of EventTypes, unknown values render with the default style
	Location    string    // Optional
	Attendees   []string  // User ids
	CreatedBy   string    // User id of the creator, set by the server
}

// AllDay reports whether the event starts and ends on the same calendar day
// with both timestamps at midnight.
func (e Event) AllDay() bool {
	sy, sm, sd := e.Start.Date()
	ey, em, ed := e.End.Date()
	if sy != ey || sm != em || sd != ed {
		return false
	}
	return isMidnight(e.Start) && isMidnight(e.End)
}

// Clone returns a copy that shares no mutable state with e.
func (e Event) Clone() Event {
	out := e
	out.Attendees = slices.Clone(e.Attendees)
	return out
}

// Duration returns End-Start, or zero when the range is inverted.
func (e Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the event intersects [from, to].
func (e Event) Overlaps(from, to time.Time) bool {
	end := e.End
	if end.Before(e.Start) {
		end = e.Start
	}
	if !from.IsZero() && end.Before(from) {
		return false
	}
	if !to.IsZero() && e.Start.After(to) {
		return false
	}
	return true
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// DedupeIDs removes empty and repeated ids, keeping first occurrence order.
func DedupeIDs(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
