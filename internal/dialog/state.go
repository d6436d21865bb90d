package dialog

import (
	"slices"
	"time"

	"teamcal/internal/api"
	"teamcal/internal/attendees"
	"teamcal/internal/models"
)

// Mode names the editing surface that is shown.
type Mode string

const (
	ModeClosed Mode = "closed"
	ModeView   Mode = "view"
	ModeEdit   Mode = "edit"
	ModeCreate Mode = "create"
)

// State is one of Closed, Viewing, Editing or Creating. The set is closed:
// only this package can add variants.
type State interface {
	Mode() Mode
	isState()
}

// Closed means no dialog is open.
type Closed struct{}

// Viewing shows a committed event read-only.
type Viewing struct {
	Event models.Event
}

// Editing holds the in-progress changes to a committed event.
type Editing struct {
	Draft Draft
}

// Creating holds a new event that has not been submitted yet.
type Creating struct {
	Draft Draft
}

func (Closed) Mode() Mode   { return ModeClosed }
func (Viewing) Mode() Mode  { return ModeView }
func (Editing) Mode() Mode  { return ModeEdit }
func (Creating) Mode() Mode { return ModeCreate }

func (Closed) isState()   {}
func (Viewing) isState()  {}
func (Editing) isState()  {}
func (Creating) isState() {}

// Draft is the editable copy of an event. Attendees are kept as options and
// only become ids in Input.
type Draft struct {
	ID          string // empty while creating
	CreatedBy   string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Type        models.EventType
	Location    string
	Attendees   []attendees.Option
}

// Input projects the draft to the record sent to the server.
func (d Draft) Input() api.EventInput {
	return api.EventInput{
		Title:       d.Title,
		Description: d.Description,
		Start:       d.Start,
		End:         d.End,
		Type:        d.Type,
		Location:    d.Location,
		Attendees:   attendees.ToIDs(d.Attendees),
	}
}

// AttendeeIDs returns the ids of the selected attendees.
func (d Draft) AttendeeIDs() []string {
	return attendees.ToIDs(d.Attendees)
}

func (d Draft) clone() Draft {
	out := d
	out.Attendees = slices.Clone(d.Attendees)
	return out
}

func newDraft(start, end time.Time) Draft {
	return Draft{
		Start:     start,
		End:       end,
		Type:      models.DefaultEventType,
		Attendees: []attendees.Option{},
	}
}

func draftFromEvent(e models.Event, r *attendees.Resolver) Draft {
	return Draft{
		ID:          e.ID,
		CreatedBy:   e.CreatedBy,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Type:        e.Type,
		Location:    e.Location,
		Attendees:   r.ToOptions(e.Attendees),
	}
}

func cloneState(s State) State {
	switch st := s.(type) {
	case Viewing:
		return Viewing{Event: st.Event.Clone()}
	case Editing:
		return Editing{Draft: st.Draft.clone()}
	case Creating:
		return Creating{Draft: st.Draft.clone()}
	default:
		return Closed{}
	}
}
