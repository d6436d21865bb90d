// Package store keeps the committed calendar events for the current session.
// It only ever reflects server-confirmed data.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"teamcal/internal/models"
	"teamcal/internal/notify"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("event not found")

// Loader fetches the full event list.
type Loader interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// Store is the ordered event collection the calendar renders from.
type Store struct {
	loader   Loader
	notifier notify.Notifier
	logger   *slog.Logger

	mu     sync.RWMutex
	events []models.Event
}

// New returns an empty store.
func New(logger *slog.Logger, loader Loader, notifier notify.Notifier) *Store {
	return &Store{loader: loader, notifier: notifier, logger: logger}
}

// Load replaces the whole collection with a fresh fetch. On error the store
// is emptied and the failure is reported to the notifier.
func (s *Store) Load(ctx context.Context) error {
	events, err := s.loader.ListEvents(ctx)
	if err != nil {
		s.mu.Lock()
		s.events = nil
		s.mu.Unlock()
		s.logger.Error("Failed to load events", "error", err)
		s.notifier.Error("Error", fmt.Sprintf("Failed to load events: %v", err))
		return fmt.Errorf("failed to load events: %w", err)
	}

	list := make([]models.Event, 0, len(events))
	for _, e := range events {
		list = append(list, e.Clone())
	}
	s.mu.Lock()
	s.events = list
	s.mu.Unlock()

	s.logger.Info("Loaded calendar events.", "count", len(list))
	s.notifier.Success("Success", "Calendar events loaded successfully")
	return nil
}

// Insert appends a newly committed event.
func (s *Store) Insert(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e.Clone())
}

// Replace swaps the event with the given id. It reports whether a match was found.
func (s *Store) Replace(id string, e models.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i] = e.Clone()
			return true
		}
	}
	return false
}

// Remove drops the event with the given id. It reports whether a match was found.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i:i], s.events[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the event with the given id.
func (s *Store) Get(id string) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return models.Event{}, ErrNotFound
}

// Events returns copies of all events in store order.
func (s *Store) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	return out
}

// Between returns copies of the events overlapping [from, to]. A zero bound
// is open.
func (s *Store) Between(from, to time.Time) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for _, e := range s.events {
		if e.Overlaps(from, to) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Len returns the number of events held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
