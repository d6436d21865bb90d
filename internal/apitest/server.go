// Package apitest provides an in-memory calendar service for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// EventRecord is an event as the service stores it.
type EventRecord struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Type        string   `json:"type"`
	Location    string   `json:"location"`
	Attendees   []string `json:"attendees"`
	CreatedBy   string   `json:"createdBy"`
}

// UserRecord is a directory entry as the service stores it.
type UserRecord struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// Request is a recorded inbound request.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	Body          []byte
}

// Server is a fake calendar service backed by chi.
type Server struct {
	*httptest.Server

	Token     string
	CreatorID string

	mu       sync.Mutex
	events   []EventRecord
	users    []UserRecord
	requests []Request
	failures map[string]int
	nextID   int
}

// NewServer starts a fake service that accepts the given bearer token.
// It is closed automatically when the test ends.
func NewServer(t testing.TB, token string) *Server {
	t.Helper()
	s := &Server{
		Token:     token,
		CreatorID: "creator",
		failures:  map[string]int{},
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// AddEvents seeds stored events.
func (s *Server) AddEvents(events ...EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// AddUsers seeds the directory.
func (s *Server) AddUsers(users ...UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, users...)
}

// Fail makes the next request matching method and path answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Events returns a copy of the stored events.
func (s *Server) Events() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EventRecord(nil), s.events...)
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns how many requests reached the server.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recordMiddleware)
	r.Use(s.failureMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/calendar", s.handleListEvents)
	r.Post("/calendar", s.handleCreateEvent)
	r.Put("/calendar/{id}", s.handleUpdateEvent)
	r.Delete("/calendar/{id}", s.handleDeleteEvent)
	r.Get("/users", s.handleListUsers)
	return r
}

func (s *Server) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		status, ok := s.failures[key]
		if ok {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if ok {
			writeError(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": s.Events()})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var rec EventRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if rec.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	s.mu.Lock()
	s.nextID++
	rec.ID = fmt.Sprintf("ev-%d", s.nextID)
	rec.CreatedBy = s.CreatorID
	s.events = append(s.events, rec)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"event": rec})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var rec EventRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			rec.ID = id
			rec.CreatedBy = s.events[i].CreatedBy
			s.events[i] = rec
			writeJSON(w, http.StatusOK, map[string]any{"event": rec})
			return
		}
	}
	writeError(w, http.StatusNotFound, "event not found")
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"message": "Event deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "event not found")
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	users := append([]UserRecord(nil), s.users...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
