// Package dialog drives the single event dialog: which surface is shown, the
// draft being edited, and the save, delete and cancel actions.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"teamcal/internal/access"
	"teamcal/internal/api"
	"teamcal/internal/attendees"
	"teamcal/internal/models"
	"teamcal/internal/notify"
	"teamcal/internal/store"
)

var (
	// ErrNotPermitted is returned when the signed-in role lacks the manage capability.
	ErrNotPermitted = errors.New("not permitted for this role")
	// ErrInvalidTransition is returned when an action is not valid in the current mode.
	ErrInvalidTransition = errors.New("action not available in this mode")
	// ErrBusy is returned while a save or delete is in flight.
	ErrBusy = errors.New("a save or delete is already in progress")
	// ErrNotConfirmed is returned when a delete was not confirmed.
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// DeletePrompt is shown to the Confirmer before a delete is issued.
const DeletePrompt = "Are you sure? You won't be able to revert this!"

const defaultDuration = time.Hour

// Backend performs the remote mutations.
type Backend interface {
	CreateEvent(ctx context.Context, in api.EventInput) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, in api.EventInput) (models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) { return f(prompt) }

// Dialog is the event dialog state machine. Only one instance exists per
// session; every open replaces whatever was shown before.
type Dialog struct {
	store    *store.Store
	resolver *attendees.Resolver
	backend  Backend
	notifier notify.Notifier
	gate     access.Gate
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
	busy  bool
}

// New returns a closed dialog.
func New(logger *slog.Logger, st *store.Store, resolver *attendees.Resolver, backend Backend, notifier notify.Notifier, gate access.Gate) *Dialog {
	return &Dialog{
		store:    st,
		resolver: resolver,
		backend:  backend,
		notifier: notifier,
		gate:     gate,
		logger:   logger,
		now:      time.Now,
		state:    Closed{},
	}
}

// SetClock overrides the time source used for new drafts.
func (d *Dialog) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// State returns a copy of the current state.
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneState(d.state)
}

// Mode returns the current mode.
func (d *Dialog) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Mode()
}

// Busy reports whether a save or delete is in flight.
func (d *Dialog) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// CanManage reports whether create, edit and delete are available.
func (d *Dialog) CanManage() bool {
	return d.gate.CanManage()
}

// NewEvent opens the create surface with a fresh draft starting now and
// lasting one hour.
func (d *Dialog) NewEvent() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	start := d.now().Truncate(time.Minute)
	d.state = Creating{Draft: newDraft(start, start.Add(defaultDuration))}
	return nil
}

// SelectSlot opens the create surface for an empty grid slot.
func (d *Dialog) SelectSlot(start, end time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOpen(); err != nil {
		return err
	}
	if start.IsZero() {
		start = d.now().Truncate(time.Minute)
	}
	if end.IsZero() {
		end = start.Add(defaultDuration)
	}
	d.state = Creating{Draft: newDraft(start, end)}
	return nil
}

// SelectEvent opens the view surface on a committed event. Any role may view.
func (d *Dialog) SelectEvent(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	ev, err := d.store.Get(id)
	if err != nil {
		return fmt.Errorf("failed to open event %s: %w", id, err)
	}
	d.state = Viewing{Event: ev}
	return nil
}

// Edit switches from view to edit, seeding the draft from the viewed event.
func (d *Dialog) Edit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	v, ok := d.state.(Viewing)
	if !ok {
		return fmt.Errorf("edit from %s: %w", d.state.Mode(), ErrInvalidTransition)
	}
	if !d.gate.CanManage() {
		return ErrNotPermitted
	}
	d.state = Editing{Draft: draftFromEvent(v.Event, d.resolver)}
	return nil
}

// UpdateDraft applies fn to the draft in edit or create mode.
func (d *Dialog) UpdateDraft(fn func(*Draft)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	switch st := d.state.(type) {
	case Editing:
		dr := st.Draft.clone()
		fn(&dr)
		d.state = Editing{Draft: dr}
	case Creating:
		dr := st.Draft.clone()
		fn(&dr)
		d.state = Creating{Draft: dr}
	default:
		return fmt.Errorf("update draft in %s: %w", d.state.Mode(), ErrInvalidTransition)
	}
	return nil
}

// AddAttendee selects a directory user as attendee.
func (d *Dialog) AddAttendee(id string) error {
	opt, ok := d.resolver.Option(id)
	if !ok {
		return fmt.Errorf("unknown user %q", id)
	}
	return d.UpdateDraft(func(dr *Draft) {
		if !attendees.Contains(dr.Attendees, opt.Value) {
			dr.Attendees = append(dr.Attendees, opt)
		}
	})
}

// RemoveAttendee deselects an attendee.
func (d *Dialog) RemoveAttendee(id string) error {
	id = strings.TrimSpace(id)
	return d.UpdateDraft(func(dr *Draft) {
		dr.Attendees = attendees.Without(dr.Attendees, id)
	})
}

// Cancel discards the draft in edit or create mode and closes the dialog.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	switch d.state.(type) {
	case Editing, Creating:
		d.state = Closed{}
		return nil
	default:
		return fmt.Errorf("cancel from %s: %w", d.state.Mode(), ErrInvalidTransition)
	}
}

// Close dismisses the dialog from any mode, discarding any draft.
func (d *Dialog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return ErrBusy
	}
	d.state = Closed{}
	return nil
}

// Save submits the draft. Creating posts a new event and appends it to the
// store; Editing puts the full record and replaces the store entry. On
// failure the dialog stays open with the draft untouched and one error
// notification is emitted.
func (d *Dialog) Save(ctx context.Context) error {
	_, err := d.Commit(ctx)
	return err
}

// Commit is Save returning the committed event.
func (d *Dialog) Commit(ctx context.Context) (models.Event, error) {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return models.Event{}, ErrBusy
	}
	var (
		draft    Draft
		creating bool
	)
	switch st := d.state.(type) {
	case Editing:
		draft = st.Draft.clone()
	case Creating:
		draft = st.Draft.clone()
		creating = true
	default:
		mode := d.state.Mode()
		d.mu.Unlock()
		return models.Event{}, fmt.Errorf("save from %s: %w", mode, ErrInvalidTransition)
	}
	d.busy = true
	d.mu.Unlock()

	ev, err := d.submit(ctx, draft, creating)
	if err == nil && creating && ev.ID == "" {
		d.logger.Warn("Created event came back without an id, reloading.", "title", draft.Title)
		if lerr := d.store.Load(ctx); lerr != nil {
			d.logger.Error("Failed to reload events after create", "error", lerr)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	if err != nil {
		d.logger.Error("Failed to save event", "title", draft.Title, "id", draft.ID, "error", err)
		d.notifier.Error("Error", fmt.Sprintf("Failed to save event: %v", err))
		return models.Event{}, err
	}

	if creating {
		if ev.ID != "" {
			d.store.Insert(ev)
		}
		d.logger.Info("Event created.", "id", ev.ID, "title", ev.Title)
		d.notifier.Success("Success!", "Event created successfully")
	} else {
		if ev.CreatedBy == "" {
			ev.CreatedBy = draft.CreatedBy
		}
		if !d.store.Replace(draft.ID, ev) {
			d.logger.Warn("Updated event is no longer in the store.", "id", draft.ID)
		}
		d.logger.Info("Event updated.", "id", ev.ID, "title", ev.Title)
		d.notifier.Success("Success!", "Event updated successfully")
	}
	d.state = Closed{}
	return ev.Clone(), nil
}

func (d *Dialog) submit(ctx context.Context, draft Draft, creating bool) (models.Event, error) {
	if err := d.validate(draft); err != nil {
		return models.Event{}, err
	}

	done := d.notifier.Progress("Saving...")
	defer done()

	in := draft.Input()
	if creating {
		return d.backend.CreateEvent(ctx, in)
	}
	return d.backend.UpdateEvent(ctx, draft.ID, in)
}

// Delete removes the viewed event after confirm approves it. Without
// approval no request is sent and ErrNotConfirmed is returned.
func (d *Dialog) Delete(ctx context.Context, confirm Confirmer) error {
	d.mu.Lock()
	if d.busy {
		d.mu.Unlock()
		return ErrBusy
	}
	v, ok := d.state.(Viewing)
	if !ok {
		mode := d.state.Mode()
		d.mu.Unlock()
		return fmt.Errorf("delete from %s: %w", mode, ErrInvalidTransition)
	}
	if !d.gate.CanManage() {
		d.mu.Unlock()
		return ErrNotPermitted
	}
	if confirm == nil {
		d.mu.Unlock()
		return ErrNotConfirmed
	}
	d.busy = true
	d.mu.Unlock()

	id := v.Event.ID
	err := d.confirmAndDelete(ctx, confirm, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	if errors.Is(err, ErrNotConfirmed) {
		return err
	}
	if err != nil {
		d.logger.Error("Failed to delete event", "id", id, "error", err)
		d.notifier.Error("Error", fmt.Sprintf("Failed to delete event: %v", err))
		return err
	}

	d.store.Remove(id)
	d.state = Closed{}
	d.logger.Info("Event deleted.", "id", id)
	d.notifier.Success("Deleted!", "The event has been deleted.")
	return nil
}

func (d *Dialog) confirmAndDelete(ctx context.Context, confirm Confirmer, id string) error {
	ok, err := confirm.Confirm(DeletePrompt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConfirmed, err)
	}
	if !ok {
		return ErrNotConfirmed
	}

	done := d.notifier.Progress("Deleting...")
	defer done()
	return d.backend.DeleteEvent(ctx, id)
}

// checkOpen guards the create surface. Caller holds d.mu.
func (d *Dialog) checkOpen() error {
	if d.busy {
		return ErrBusy
	}
	if !d.gate.CanManage() {
		return ErrNotPermitted
	}
	return nil
}
