// Package ics renders calendar events as iCalendar data.
package ics

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"teamcal/internal/models"
)

const (
	ProductID = "-//teamcal//EN"
	uidDomain = "teamcal"
)

// Directory resolves user ids for ORGANIZER and ATTENDEE properties.
type Directory interface {
	Lookup(id string) (models.User, bool)
}

// Encoder converts events to VEVENT components.
type Encoder struct {
	dir Directory
	now func() time.Time
}

// NewEncoder returns an Encoder. dir may be nil, in which case no
// participants are written.
func NewEncoder(dir Directory) *Encoder {
	return &Encoder{dir: dir, now: time.Now}
}

// UID is the stable iCalendar UID for an event.
func UID(e models.Event) string {
	return fmt.Sprintf("%s@%s", e.ID, uidDomain)
}

// Calendar wraps events in a VCALENDAR.
func (enc *Encoder) Calendar(name string, events []models.Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}
	for _, e := range events {
		cal.Children = append(cal.Children, enc.Event(e))
	}
	return cal
}

// Single wraps one event in its own VCALENDAR, the shape a CalDAV object needs.
func (enc *Encoder) Single(e models.Event) *ical.Calendar {
	return enc.Calendar("", []models.Event{e})
}

// Encode writes events as one iCalendar stream.
func (enc *Encoder) Encode(w io.Writer, name string, events []models.Event) error {
	if err := ical.NewEncoder(w).Encode(enc.Calendar(name, events)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// Event converts e to a VEVENT. All-day events use DATE values with an
// exclusive end on the following day.
func (enc *Encoder) Event(e models.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(e))
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, enc.now().UTC())

	if e.AllDay() {
		ve.Props.SetDate(ical.PropDateTimeStart, e.Start)
		ve.Props.SetDate(ical.PropDateTimeEnd, e.Start.AddDate(0, 0, 1))
	} else {
		end := e.End
		if end.Before(e.Start) {
			end = e.Start
		}
		ve.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	}

	if e.Description != "" {
		ve.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Type != "" {
		ve.Props.SetText(ical.PropCategories, string(e.Type))
	}

	if enc.dir == nil {
		return ve
	}
	if u, ok := enc.dir.Lookup(e.CreatedBy); ok && u.Email != "" {
		ve.Props.Add(participant(ical.PropOrganizer, u))
	}
	for _, id := range e.Attendees {
		u, ok := enc.dir.Lookup(id)
		if !ok || u.Email == "" {
			continue
		}
		ve.Props.Add(participant(ical.PropAttendee, u))
	}
	return ve
}

func participant(name string, u models.User) *ical.Prop {
	p := ical.NewProp(name)
	p.SetText(fmt.Sprintf("mailto:%s", u.Email))
	if u.Name != "" {
		p.Params.Set(ical.ParamCommonName, u.Name)
	}
	return p
}
