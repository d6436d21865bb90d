// Package caldav mirrors the shared calendar into a CalDAV collection.
package caldav

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"teamcal/internal/ics"
	"teamcal/internal/models"
)

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "teamcal/1.0")
	return t.Transport.RoundTrip(req)
}

// objectStore is the subset of the WebDAV client the publisher writes with.
type objectStore interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	ReadDir(ctx context.Context, name string, recursive bool) ([]webdav.FileInfo, error)
	RemoveAll(ctx context.Context, name string) error
}

// calendarFinder discovers collections on the server.
type calendarFinder interface {
	FindCurrentUserPrincipal(ctx context.Context) (string, error)
	FindCalendarHomeSet(ctx context.Context, principal string) (string, error)
	FindCalendars(ctx context.Context, calendarHomeSet string) ([]caldav.Calendar, error)
}

// Result summarises one publish run.
type Result struct {
	Written int
	Removed int
	Failed  int
}

// Publisher writes one calendar object per event and removes objects whose
// events no longer exist. The target collection is owned by teamcal.
type Publisher struct {
	store        objectStore
	finder       calendarFinder
	enc          *ics.Encoder
	logger       *slog.Logger
	calendarPath string
	dryRun       bool
}

// NewPublisher connects to endpoint and resolves the collection named
// calendarName.
func NewPublisher(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string, enc *ics.Encoder) (*Publisher, error) {
	httpClient := &http.Client{Transport: &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	p := &Publisher{store: webdavClient, finder: caldavClient, enc: enc, logger: logger}
	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := p.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	p.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)
	return p, nil
}

// SetDryRun makes Publish log instead of writing.
func (p *Publisher) SetDryRun(v bool) { p.dryRun = v }

// Publish mirrors events into the collection.
func (p *Publisher) Publish(ctx context.Context, events []models.Event) (Result, error) {
	var res Result
	keep := make(map[string]bool, len(events))

	for _, e := range events {
		if e.ID == "" {
			continue
		}
		name := objectName(e.ID)
		keep[name] = true
		if p.dryRun {
			p.logger.Info("[DRY RUN] Would publish event", "title", e.Title, "id", e.ID)
			continue
		}
		if err := p.put(ctx, name, p.enc.Single(e)); err != nil {
			p.logger.Error("Failed to publish event", "title", e.Title, "id", e.ID, "error", err)
			res.Failed++
			continue
		}
		res.Written++
	}

	existing, err := p.store.ReadDir(ctx, p.calendarPath, false)
	if err != nil {
		return res, fmt.Errorf("failed to list calendar objects: %w", err)
	}
	for _, fi := range existing {
		base := path.Base(fi.Path)
		if fi.IsDir || !strings.HasSuffix(base, ".ics") || keep[base] {
			continue
		}
		if p.dryRun {
			p.logger.Info("[DRY RUN] Would remove stale object", "path", fi.Path)
			continue
		}
		if err := p.store.RemoveAll(ctx, fi.Path); err != nil {
			p.logger.Error("Failed to remove stale object", "path", fi.Path, "error", err)
			res.Failed++
			continue
		}
		res.Removed++
	}

	p.logger.Info("Publish finished.", "written", res.Written, "removed", res.Removed, "failed", res.Failed)
	return res, nil
}

func (p *Publisher) put(ctx context.Context, name string, cal *ical.Calendar) error {
	w, err := p.store.Create(ctx, path.Join(p.calendarPath, name))
	if err != nil {
		return fmt.Errorf("failed to create object on CalDAV server: %w", err)
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		w.Close()
		return fmt.Errorf("failed to encode event to iCal format: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one
// with the matching name.
func (p *Publisher) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := p.finder.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}
	homeSetPath, err := p.finder.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	calendars, err := p.finder.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

func objectName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(id) + ".ics"
}
