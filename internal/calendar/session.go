// Package calendar wires the calendar components for one signed-in session
// and exposes what a grid or agenda renderer needs.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"teamcal/internal/access"
	"teamcal/internal/api"
	"teamcal/internal/attendees"
	"teamcal/internal/dialog"
	"teamcal/internal/directory"
	"teamcal/internal/models"
	"teamcal/internal/notify"
	"teamcal/internal/palette"
	"teamcal/internal/store"
)

// Options configures a Session.
type Options struct {
	APIURL        string
	Credentials   oauth2.TokenSource
	Role          string
	ElevatedRoles []string
	Theme         palette.Theme
	Location      *time.Location
	Notifier      notify.Notifier
}

// Session owns the directory, the event store and the dialog.
type Session struct {
	Client    *api.Client
	Directory *directory.Cache
	Store     *store.Store
	Resolver  *attendees.Resolver
	Dialog    *dialog.Dialog
	Gate      access.Gate

	notifier notify.Notifier
	theme    palette.Theme
	loc      *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	loadErr error
}

// New builds a session. Nothing is fetched until Mount.
func New(logger *slog.Logger, opts Options) (*Session, error) {
	client, err := api.NewClient(logger, opts.APIURL, opts.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	n := opts.Notifier
	if n == nil {
		n = notify.NewLog(logger)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	dir := directory.New(logger, client)
	st := store.New(logger, client, n)
	res := attendees.NewResolver(dir)
	gate := access.NewGate(opts.Role, opts.ElevatedRoles)

	return &Session{
		Client:    client,
		Directory: dir,
		Store:     st,
		Resolver:  res,
		Dialog:    dialog.New(logger, st, res, client, n, gate),
		Gate:      gate,
		notifier:  n,
		theme:     opts.Theme,
		loc:       loc,
		logger:    logger,
	}, nil
}

// Mount loads the events and the user directory. A failed event load is
// returned and kept as the inline error state. A failed user load is only
// reported; events stay usable with unresolved names.
func (s *Session) Mount(ctx context.Context) error {
	s.logger.Info("Mounting calendar.")
	err := s.Store.Load(ctx)
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()

	if errors.Is(err, api.ErrMissingCredential) {
		return err
	}

	if uerr := s.Directory.Load(ctx); uerr != nil {
		s.logger.Error("Failed to load users", "error", uerr)
		s.notifier.Error("Error", fmt.Sprintf("Failed to load users: %v", uerr))
	}
	return err
}

// Reload refetches the events only.
func (s *Session) Reload(ctx context.Context) error {
	err := s.Store.Load(ctx)
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	return err
}

// LoadErr returns the error of the last event load, shown in place of the grid.
func (s *Session) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Location is the display time zone.
func (s *Session) Location() *time.Location { return s.loc }

// Theme is the active palette variant.
func (s *Session) Theme() palette.Theme { return s.theme }

// SlotSelected is the grid signal for an empty range.
func (s *Session) SlotSelected(start, end time.Time) error {
	return s.Dialog.SelectSlot(start, end)
}

// EventSelected is the grid signal for an existing event.
func (s *Session) EventSelected(id string) error {
	return s.Dialog.SelectEvent(id)
}

// Entry is one rendered agenda row.
type Entry struct {
	Event  models.Event
	Style  palette.Descriptor
	AllDay bool
}

// Agenda returns the events overlapping [from, to], sorted by start, in the
// display zone. Zero bounds are open. When types is non-empty only those
// types are kept.
func (s *Session) Agenda(from, to time.Time, types ...models.EventType) []Entry {
	keep := map[models.EventType]bool{}
	for _, t := range types {
		keep[t] = true
	}
	var out []Entry
	for _, e := range s.Store.Between(from, to) {
		if len(keep) > 0 && !keep[e.Type] {
			continue
		}
		allDay := e.AllDay()
		e.Start = e.Start.In(s.loc)
		e.End = e.End.In(s.loc)
		out = append(out, Entry{Event: e, Style: palette.For(e.Type, s.theme), AllDay: allDay})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Event.Start.Before(out[j].Event.Start)
	})
	return out
}

// Details is the view-mode content for one event.
type Details struct {
	Event     models.Event
	Style     palette.Descriptor
	Creator   string
	Attendees []attendees.Card
	AllDay    bool
}

// Describe resolves an event's creator and attendees for display.
func (s *Session) Describe(e models.Event) Details {
	creator := directory.UnknownUser
	if e.CreatedBy != "" {
		creator = s.Directory.DisplayName(e.CreatedBy)
	}
	allDay := e.AllDay()
	e.Start = e.Start.In(s.loc)
	e.End = e.End.In(s.loc)
	return Details{
		Event:     e,
		Style:     palette.For(e.Type, s.theme),
		Creator:   creator,
		Attendees: s.Resolver.Describe(e.Attendees),
		AllDay:    allDay,
	}
}
