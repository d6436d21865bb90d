package caldav

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"

	"teamcal/internal/ics"
	"teamcal/internal/models"
)

type memStore struct {
	objects map[string][]byte
	removed []string
	failOn  string
}

type memWriter struct {
	bytes.Buffer
	name  string
	store *memStore
}

func (w *memWriter) Close() error {
	w.store.objects[w.name] = w.Bytes()
	return nil
}

func (m *memStore) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if m.failOn != "" && strings.HasSuffix(name, m.failOn) {
		return nil, errors.New("forbidden")
	}
	return &memWriter{name: name, store: m}, nil
}

func (m *memStore) ReadDir(ctx context.Context, name string, recursive bool) ([]webdav.FileInfo, error) {
	out := []webdav.FileInfo{{Path: name + "/", IsDir: true}}
	for p := range m.objects {
		if path.Dir(p) == name {
			out = append(out, webdav.FileInfo{Path: p})
		}
	}
	return out, nil
}

func (m *memStore) RemoveAll(ctx context.Context, name string) error {
	delete(m.objects, name)
	m.removed = append(m.removed, name)
	return nil
}

type fakeFinder struct {
	calendars []caldav.Calendar
}

func (f fakeFinder) FindCurrentUserPrincipal(ctx context.Context) (string, error) {
	return "/principals/me/", nil
}

func (f fakeFinder) FindCalendarHomeSet(ctx context.Context, principal string) (string, error) {
	return "/calendars/me/", nil
}

func (f fakeFinder) FindCalendars(ctx context.Context, home string) ([]caldav.Calendar, error) {
	return f.calendars, nil
}

func newPublisher(store *memStore) *Publisher {
	return &Publisher{
		store:        store,
		finder:       fakeFinder{},
		enc:          ics.NewEncoder(nil),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		calendarPath: "/calendars/me/team",
	}
}

func events() []models.Event {
	at := func(h int) time.Time { return time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC) }
	return []models.Event{
		{ID: "e1", Title: "One", Start: at(9), End: at(10)},
		{ID: "e2", Title: "Two", Start: at(11), End: at(12)},
		{Title: "draft without id"},
	}
}

func TestPublish_WritesAndRemovesStale(t *testing.T) {
	store := &memStore{objects: map[string][]byte{
		"/calendars/me/team/old.ics": []byte("BEGIN:VCALENDAR"),
		"/calendars/me/team/e1.ics":  []byte("stale copy"),
	}}
	p := newPublisher(store)

	res, err := p.Publish(context.Background(), events())
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res.Written != 2 || res.Removed != 1 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}

	var names []string
	for name := range store.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	want := []string{"/calendars/me/team/e1.ics", "/calendars/me/team/e2.ics"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("objects = %v, want %v", names, want)
	}
	if !bytes.Contains(store.objects["/calendars/me/team/e1.ics"], []byte("UID:e1@teamcal")) {
		t.Errorf("object body = %s", store.objects["/calendars/me/team/e1.ics"])
	}
}

func TestPublish_DryRunChangesNothing(t *testing.T) {
	store := &memStore{objects: map[string][]byte{"/calendars/me/team/old.ics": nil}}
	p := newPublisher(store)
	p.SetDryRun(true)

	res, err := p.Publish(context.Background(), events())
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res != (Result{}) || len(store.objects) != 1 || len(store.removed) != 0 {
		t.Errorf("dry run changed state: %+v %v", res, store.objects)
	}
}

func TestPublish_CountsFailures(t *testing.T) {
	store := &memStore{objects: map[string][]byte{}, failOn: "e2.ics"}
	p := newPublisher(store)

	res, err := p.Publish(context.Background(), events())
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if res.Written != 1 || res.Failed != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestFindCalendar(t *testing.T) {
	p := newPublisher(&memStore{})
	p.finder = fakeFinder{calendars: []caldav.Calendar{
		{Path: "/calendars/me/personal/", Name: "Personal"},
		{Path: "/calendars/me/team/", Name: "Team"},
	}}

	got, err := p.findCalendar(context.Background(), "Team")
	if err != nil || got != "/calendars/me/team/" {
		t.Errorf("findCalendar = %q, %v", got, err)
	}
	if _, err := p.findCalendar(context.Background(), "Missing"); err == nil {
		t.Error("expected error for missing calendar")
	}
}

func TestObjectName(t *testing.T) {
	if got := objectName("a/../b"); strings.Contains(got, "/") {
		t.Errorf("objectName leaked a separator: %q", got)
	}
}
