package importer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"teamcal/internal/apitest"
	"teamcal/internal/calendar"
	"teamcal/internal/credentials"
	"teamcal/internal/dialog"
	"teamcal/internal/google"
	"teamcal/internal/models"
	"teamcal/internal/notify"
)

type fakeSource struct {
	items []google.Item
	err   error
	calls int
}

func (f *fakeSource) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]google.Item, error) {
	f.calls++
	return f.items, f.err
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func holidays() []google.Item {
	return []google.Item{
		{ID: "g1", Title: "Christmas", Start: day(12, 25), End: day(12, 25), AllDay: true},
		{ID: "g2", Title: "Boxing Day", Start: day(12, 26), End: day(12, 26), AllDay: true},
		{ID: "g3", Title: "New Year", Start: day(1, 1), End: day(1, 1), AllDay: true},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mountSession(t *testing.T, srv *apitest.Server, role string) *calendar.Session {
	t.Helper()
	s, err := calendar.New(testLogger(), calendar.Options{
		APIURL:      srv.URL,
		Credentials: credentials.Static("tok"),
		Role:        role,
		Notifier:    &notify.Recorder{},
	})
	if err != nil {
		t.Fatalf("calendar.New error: %v", err)
	}
	if err := s.Mount(context.Background()); err != nil {
		t.Fatalf("Mount error: %v", err)
	}
	return s
}

func TestRun_ImportsAndRecordsState(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	srv.AddEvents(apitest.EventRecord{ID: "e1", Title: "New Year", StartDate: "2024-01-01T00:00:00Z", EndDate: "2024-01-01T00:00:00Z", Type: "holiday"})
	s := mountSession(t, srv, "CEO")
	statePath := filepath.Join(t.TempDir(), "state.json")

	im, err := New(testLogger(), &fakeSource{items: holidays()}, s.Dialog, s.Store, "holidays", statePath, false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	res, err := im.Run(context.Background(), day(1, 1), day(12, 31))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(srv.Events()) != 3 || s.Store.Len() != 3 {
		t.Errorf("server %d events, store %d", len(srv.Events()), s.Store.Len())
	}
	for _, e := range s.Store.Events() {
		if e.Type != models.TypeHoliday || !e.AllDay() {
			t.Errorf("imported event not an all-day holiday: %+v", e)
		}
	}

	data, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("state file not written: %v", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	if state["g1"] != "ev-1" || state["g2"] != "ev-2" {
		t.Errorf("state = %v", state)
	}
	if s.Dialog.Mode() != dialog.ModeClosed {
		t.Errorf("dialog left open in %s", s.Dialog.Mode())
	}

	again, err := New(testLogger(), &fakeSource{items: holidays()}, s.Dialog, s.Store, "holidays", statePath, false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	res, err = again.Run(context.Background(), day(1, 1), day(12, 31))
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if res.Imported != 0 || res.Skipped != 3 {
		t.Errorf("second run result = %+v", res)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	s := mountSession(t, srv, "CEO")
	statePath := filepath.Join(t.TempDir(), "state.json")

	im, err := New(testLogger(), &fakeSource{items: holidays()}, s.Dialog, s.Store, "holidays", statePath, true)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	res, err := im.Run(context.Background(), day(1, 1), day(12, 31))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Imported != 3 {
		t.Errorf("result = %+v", res)
	}
	if len(srv.Events()) != 0 {
		t.Errorf("dry run created %d events", len(srv.Events()))
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Errorf("dry run wrote state file: %v", err)
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	s := mountSession(t, srv, "CEO")
	srv.Fail(http.MethodPost, "/calendar", http.StatusInternalServerError)

	im, err := New(testLogger(), &fakeSource{items: holidays()}, s.Dialog, s.Store, "holidays", filepath.Join(t.TempDir(), "s.json"), false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	res, err := im.Run(context.Background(), day(1, 1), day(12, 31))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Failed != 1 || res.Imported != 2 {
		t.Errorf("result = %+v", res)
	}
	if _, ok := im.State()["g1"]; ok {
		t.Error("failed item recorded as imported")
	}
	if s.Dialog.Mode() != dialog.ModeClosed {
		t.Errorf("dialog left open in %s", s.Dialog.Mode())
	}
}

func TestRun_RequiresElevatedRole(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	s := mountSession(t, srv, "Engineer")

	im, err := New(testLogger(), &fakeSource{items: holidays()}, s.Dialog, s.Store, "holidays", filepath.Join(t.TempDir(), "s.json"), false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := im.Run(context.Background(), day(1, 1), day(12, 31)); !errors.Is(err, dialog.ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}
	if len(srv.Events()) != 0 {
		t.Error("unprivileged import reached the server")
	}
}

func TestRun_SourceError(t *testing.T) {
	im, err := New(testLogger(), &fakeSource{err: errors.New("quota exceeded")}, nil, nil, "holidays", filepath.Join(t.TempDir(), "s.json"), false)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := im.Run(context.Background(), day(1, 1), day(12, 31)); err == nil {
		t.Fatal("expected error")
	}
}

func TestNew_RejectsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(testLogger(), &fakeSource{}, nil, nil, "holidays", path, false); err == nil {
		t.Fatal("expected error for corrupt state")
	}
}
