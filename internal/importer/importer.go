// Package importer copies holidays from an external calendar into the shared
// calendar through the event dialog.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"teamcal/internal/dialog"
	"teamcal/internal/google"
	"teamcal/internal/models"
)

// State keeps track of which items have been imported.
// The key is the source item id, the value is the shared calendar event id.
type State map[string]string

// Source lists items of an external calendar.
type Source interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]google.Item, error)
}

// Editor is the part of the dialog the importer drives.
type Editor interface {
	NewEvent() error
	UpdateDraft(fn func(*dialog.Draft)) error
	Commit(ctx context.Context) (models.Event, error)
	Cancel() error
}

// Existing lists the committed events, used to skip holidays that are
// already on the calendar.
type Existing interface {
	Events() []models.Event
}

// Result counts what one run did.
type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

// Importer orchestrates the import from one source calendar.
type Importer struct {
	logger     *slog.Logger
	source     Source
	editor     Editor
	existing   Existing
	calendarID string
	statePath  string
	state      State
	dryRun     bool
}

// New creates an Importer and loads the state file at statePath.
func New(logger *slog.Logger, source Source, editor Editor, existing Existing, calendarID, statePath string, dryRun bool) (*Importer, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, errors.New("source calendar id is required")
	}
	state, err := loadState(statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load import state: %w", err)
		}
		logger.Info("No import state file found, starting fresh.", "file", statePath)
		state = make(State)
	}

	return &Importer{
		logger:     logger,
		source:     source,
		editor:     editor,
		existing:   existing,
		calendarID: calendarID,
		statePath:  statePath,
		state:      state,
		dryRun:     dryRun,
	}, nil
}

// Run imports every item in [from, to) that has not been imported before.
// A failing item is logged and counted; the run continues with the next one.
func (im *Importer) Run(ctx context.Context, from, to time.Time) (Result, error) {
	im.logger.Info("Starting holiday import.", "calendarID", im.calendarID)
	var res Result

	items, err := im.source.ListEvents(ctx, im.calendarID, from, to)
	if err != nil {
		return res, fmt.Errorf("failed to fetch source events: %w", err)
	}
	im.logger.Info("Fetched source events.", "count", len(items))

	seen := im.committedKeys()
	for _, item := range items {
		if _, done := im.state[item.ID]; done {
			im.logger.Debug("Item already imported, skipping.", "title", item.Title, "id", item.ID)
			res.Skipped++
			continue
		}
		if seen[key(item.Title, item.Start)] {
			im.logger.Debug("Holiday already on the calendar, skipping.", "title", item.Title)
			res.Skipped++
			continue
		}

		if im.dryRun {
			im.logger.Info("[DRY RUN] Would create holiday", "title", item.Title, "start", item.Start)
			res.Imported++
			continue
		}

		id, err := im.importItem(ctx, item)
		if errors.Is(err, dialog.ErrNotPermitted) {
			return res, err
		}
		if err != nil {
			im.logger.Error("Failed to import item", "title", item.Title, "error", err)
			res.Failed++
			continue
		}
		im.state[item.ID] = id
		res.Imported++
	}

	if !im.dryRun {
		if err := im.saveState(); err != nil {
			im.logger.Error("Failed to save import state", "error", err)
		}
	}

	im.logger.Info("Holiday import finished.", "imported", res.Imported, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// State returns a copy of the import state.
func (im *Importer) State() State {
	out := make(State, len(im.state))
	for k, v := range im.state {
		out[k] = v
	}
	return out
}

func (im *Importer) importItem(ctx context.Context, item google.Item) (string, error) {
	if err := im.editor.NewEvent(); err != nil {
		return "", err
	}
	err := im.editor.UpdateDraft(func(d *dialog.Draft) {
		d.Title = item.Title
		d.Description = item.Description
		d.Location = item.Location
		d.Start = item.Start
		d.End = item.End
		d.Type = models.TypeHoliday
	})
	if err != nil {
		_ = im.editor.Cancel()
		return "", err
	}
	ev, err := im.editor.Commit(ctx)
	if err != nil {
		_ = im.editor.Cancel()
		return "", err
	}
	return ev.ID, nil
}

func (im *Importer) committedKeys() map[string]bool {
	out := map[string]bool{}
	if im.existing == nil {
		return out
	}
	for _, e := range im.existing.Events() {
		if e.Type == models.TypeHoliday {
			out[key(e.Title, e.Start)] = true
		}
	}
	return out
}

func key(title string, start time.Time) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + start.UTC().Format(time.RFC3339)
}

// loadState loads the import state from the JSON file.
func loadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

// saveState saves the current import state to the JSON file.
func (im *Importer) saveState() error {
	data, err := json.MarshalIndent(im.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import state: %w", err)
	}
	return os.WriteFile(im.statePath, data, 0o644)
}
