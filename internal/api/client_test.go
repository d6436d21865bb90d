package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"teamcal/internal/apitest"
	"teamcal/internal/credentials"
	"teamcal/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, srv *apitest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(testLogger(), srv.URL+"/", credentials.Static(token))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestListEvents_MapsWireFields(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	srv.AddEvents(apitest.EventRecord{
		ID:        "e1",
		Title:     "Standup",
		StartDate: "2024-01-01T09:00",
		EndDate:   "2024-01-01T10:00:00.000Z",
		Type:      "meeting",
		Attendees: []string{"u1", "u1", "u2"},
		CreatedBy: "u9",
	})
	c := newTestClient(t, srv, "tok")

	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.ID != "e1" || e.Title != "Standup" || e.Type != models.TypeMeeting || e.CreatedBy != "u9" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if !e.Start.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)) || !e.End.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected times: %s - %s", e.Start, e.End)
	}
	if !reflect.DeepEqual(e.Attendees, []string{"u1", "u2"}) {
		t.Fatalf("attendees not deduplicated: %v", e.Attendees)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Authorization != "Bearer tok" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	if reqs[0].RequestID == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestListEvents_PopulatedAttendeeObjects(t *testing.T) {
	data := []byte(`{"_id":"e2","title":"T","startDate":"2024-02-01T00:00:00Z","endDate":"2024-02-01T00:00:00Z",
		"attendees":[{"_id":"u1","name":"Alice"},"u2",null],"createdBy":{"_id":"u3","name":"Carol"}}`)
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	e := w.toModel()
	if !reflect.DeepEqual(e.Attendees, []string{"u1", "u2"}) {
		t.Fatalf("unexpected attendees: %v", e.Attendees)
	}
	if e.CreatedBy != "u3" {
		t.Fatalf("unexpected creator: %q", e.CreatedBy)
	}
	if !e.AllDay() {
		t.Fatalf("expected all-day event")
	}
}

func TestMissingCredential_FailsBeforeRequest(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	c := newTestClient(t, srv, "")

	if _, err := c.ListEvents(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if err := c.DeleteEvent(context.Background(), "e1"); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if n := srv.RequestCount(); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestCreateEvent_SendsPlainIDs(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	srv.CreatorID = "u-ceo"
	c := newTestClient(t, srv, "tok")

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(context.Background(), EventInput{
		Title:     "Review",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"u1", "u2", "u1"},
	})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if ev.ID != "ev-1" || ev.CreatedBy != "u-ceo" || ev.Type != models.TypeMeeting {
		t.Fatalf("unexpected event: %+v", ev)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodPost || reqs[0].Path != "/calendar" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	var body map[string]any
	if err := json.Unmarshal(reqs[0].Body, &body); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if _, ok := body["_id"]; ok {
		t.Fatalf("create body must not carry an id: %s", reqs[0].Body)
	}
	atts, ok := body["attendees"].([]any)
	if !ok || len(atts) != 2 {
		t.Fatalf("unexpected attendees payload: %s", reqs[0].Body)
	}
	for _, a := range atts {
		if _, isString := a.(string); !isString {
			t.Fatalf("attendee is not a plain id: %#v", a)
		}
	}
	if body["type"] != "meeting" {
		t.Fatalf("expected default type meeting, got %v", body["type"])
	}
}

func TestUpdateEvent_PutsByID(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	srv.AddEvents(apitest.EventRecord{ID: "e1", Title: "Old", CreatedBy: "u9", StartDate: "2024-01-01T09:00:00Z", EndDate: "2024-01-01T10:00:00Z"})
	c := newTestClient(t, srv, "tok")

	start := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	ev, err := c.UpdateEvent(context.Background(), "e1", EventInput{Title: "New", Start: start, End: start.Add(time.Hour), Type: models.TypeTraining})
	if err != nil {
		t.Fatalf("UpdateEvent error: %v", err)
	}
	if ev.ID != "e1" || ev.Title != "New" || ev.CreatedBy != "u9" || ev.Type != models.TypeTraining {
		t.Fatalf("unexpected event: %+v", ev)
	}
	reqs := srv.Requests()
	if reqs[0].Method != http.MethodPut || reqs[0].Path != "/calendar/e1" {
		t.Fatalf("unexpected request: %+v", reqs[0])
	}
	if got := srv.Events()[0].Title; got != "New" {
		t.Fatalf("server not updated: %q", got)
	}
}

func TestDeleteEvent_StatusError(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	c := newTestClient(t, srv, "tok")

	err := c.DeleteEvent(context.Background(), "missing")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Message != "event not found" || se.Op != "delete event" {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestWrongToken_IsStatusError(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	c := newTestClient(t, srv, "other")

	_, err := c.ListUsers(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	srv := apitest.NewServer(t, "tok")
	srv.AddUsers(apitest.UserRecord{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: "CEO", Category: "Management", Status: "active"})
	c := newTestClient(t, srv, "tok")

	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers error: %v", err)
	}
	want := models.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: "CEO", Category: "Management", Status: "active"}
	if len(users) != 1 || users[0] != want {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	if _, err := NewClient(testLogger(), "ftp://example.com", credentials.Static("x")); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
	if _, err := NewClient(testLogger(), "http://example.com", nil); err == nil {
		t.Fatalf("expected error for nil credential provider")
	}
}

func TestCreateEvent_MissingIDIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/calendar" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"event":{"title":"Retro"}}`))
	}))
	defer srv.Close()

	c, err := NewClient(testLogger(), srv.URL, credentials.Static("tok"))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	start := time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(context.Background(), EventInput{Title: "Retro", Start: start, End: start.Add(time.Hour), Type: models.TypeMeeting})
	if err != nil {
		t.Fatalf("CreateEvent error: %v", err)
	}
	if ev.ID != "" || ev.Title != "Retro" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
