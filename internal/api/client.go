// Package api is the request layer for the calendar and user endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"teamcal/internal/credentials"
	"teamcal/internal/models"
)

// ErrMissingCredential is returned before any request is sent when no
// bearer token is available.
var ErrMissingCredential = credentials.ErrMissing

const userAgent = "teamcal/1.0"

// EventInput is the full record submitted on create and update.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Type        models.EventType
	Location    string
	Attendees   []string // user ids
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to %s: %s (HTTP %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s: HTTP %d", e.Op, e.StatusCode)
}

// customTransport stamps every request with the client identity and a request id.
type customTransport struct {
	Transport http.RoundTripper
}

// RoundTrip adds the User-Agent and X-Request-ID headers.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	return t.Transport.RoundTrip(req)
}

// Client talks to the calendar service. It carries no timeout and never
// retries; callers bound requests through the context.
type Client struct {
	baseURL string
	http    *http.Client
	creds   oauth2.TokenSource
	logger  *slog.Logger
}

// NewClient creates a Client for the service rooted at baseURL.
func NewClient(logger *slog.Logger, baseURL string, creds oauth2.TokenSource) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}
	if creds == nil {
		return nil, errors.New("credential provider is required")
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Transport: &customTransport{Transport: http.DefaultTransport}},
		creds:   creds,
		logger:  logger,
	}, nil
}

// ListEvents fetches every event visible to the signed-in user.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var resp eventsResponse
	if err := c.do(ctx, http.MethodGet, "/calendar", "fetch events", nil, &resp); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(resp.Events))
	for _, w := range resp.Events {
		events = append(events, w.toModel())
	}
	c.logger.Debug("Fetched calendar events", "count", len(events))
	return events, nil
}

// CreateEvent submits a new event. The returned event carries the
// server-assigned id and creator with the submitted fields. A 2xx answer
// without an id still means the event was stored; the id is then left empty
// and the caller has to reload to learn it.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (models.Event, error) {
	body := in.body()
	var resp eventResponse
	if err := c.do(ctx, http.MethodPost, "/calendar", "create event", body, &resp); err != nil {
		return models.Event{}, err
	}
	if resp.Event.ID == "" {
		c.logger.Warn("Create response has no event id.", "title", body.Title)
	}
	ev := committed(resp.Event.ID, body)
	ev.CreatedBy = string(resp.Event.CreatedBy)
	c.logger.Debug("Created calendar event", "id", ev.ID, "title", ev.Title)
	return ev, nil
}

// UpdateEvent replaces the event with the given id by the submitted record.
// CreatedBy is taken from the response when present and left empty otherwise.
func (c *Client) UpdateEvent(ctx context.Context, id string, in EventInput) (models.Event, error) {
	if strings.TrimSpace(id) == "" {
		return models.Event{}, errors.New("failed to update event: missing event id")
	}
	body := in.body()
	var resp eventResponse
	if err := c.do(ctx, http.MethodPut, "/calendar/"+url.PathEscape(id), "update event", body, &resp); err != nil {
		return models.Event{}, err
	}
	ev := committed(id, body)
	ev.CreatedBy = string(resp.Event.CreatedBy)
	c.logger.Debug("Updated calendar event", "id", id, "title", ev.Title)
	return ev, nil
}

// DeleteEvent removes the event with the given id.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("failed to delete event: missing event id")
	}
	if err := c.do(ctx, http.MethodDelete, "/calendar/"+url.PathEscape(id), "delete event", nil, nil); err != nil {
		return err
	}
	c.logger.Debug("Deleted calendar event", "id", id)
	return nil
}

// ListUsers fetches the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var resp usersResponse
	if err := c.do(ctx, http.MethodGet, "/users", "fetch users", nil, &resp); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(resp.Users))
	for _, w := range resp.Users {
		users = append(users, w.toModel())
	}
	c.logger.Debug("Fetched users", "count", len(users))
	return users, nil
}

func committed(id string, b eventBody) models.Event {
	return models.Event{
		ID:          id,
		Title:       b.Title,
		Description: b.Description,
		Start:       b.StartDate,
		End:         b.EndDate,
		Type:        models.EventType(b.Type),
		Location:    b.Location,
		Attendees:   append([]string(nil), b.Attendees...),
	}
}

func (c *Client) token() (*oauth2.Token, error) {
	tok, err := c.creds.Token()
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	if tok == nil || strings.TrimSpace(tok.AccessToken) == "" {
		return nil, ErrMissingCredential
	}
	return tok, nil
}

func (c *Client) do(ctx context.Context, method, path, op string, body, out any) error {
	tok, err := c.token()
	if err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tok.SetAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	e := &StatusError{Op: op, StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorResponse
	if json.Unmarshal(data, &body) == nil {
		e.Message = body.Message
		if e.Message == "" {
			e.Message = body.Error
		}
	}
	return e
}
