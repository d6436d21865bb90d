package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"teamcal/internal/models"
)

// wireEvent is the calendar record as returned by the service.
type wireEvent struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   wireTime  `json:"startDate"`
	EndDate     wireTime  `json:"endDate"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Attendees   []userRef `json:"attendees"`
	CreatedBy   userRef   `json:"createdBy,omitempty"`
}

// eventBody is the request payload for create and update. Attendees are
// plain user ids and nothing else.
type eventBody struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Attendees   []string  `json:"attendees"`
}

type wireUser struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

type eventsResponse struct {
	Events []wireEvent `json:"events"`
}

type eventResponse struct {
	Event wireEvent `json:"event"`
}

type usersResponse struct {
	Users []wireUser `json:"users"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (w wireEvent) toModel() models.Event {
	ids := make([]string, 0, len(w.Attendees))
	for _, a := range w.Attendees {
		ids = append(ids, string(a))
	}
	return models.Event{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Start:       w.StartDate.Time,
		End:         w.EndDate.Time,
		Type:        models.EventType(w.Type),
		Location:    w.Location,
		Attendees:   models.DedupeIDs(ids),
		CreatedBy:   string(w.CreatedBy),
	}
}

func (w wireUser) toModel() models.User {
	return models.User{
		ID:       w.ID,
		Name:     w.Name,
		Email:    w.Email,
		Role:     w.Role,
		Category: w.Category,
		Status:   w.Status,
	}
}

func (in EventInput) body() eventBody {
	t := in.Type
	if t == "" {
		t = models.DefaultEventType
	}
	return eventBody{
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.Start,
		EndDate:     in.End,
		Type:        string(t),
		Location:    in.Location,
		Attendees:   models.DedupeIDs(in.Attendees),
	}
}

// userRef decodes either a bare user id or a populated user object.
type userRef string

func (r *userRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = userRef(s)
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*r = userRef(obj.ID)
		return nil
	default:
		return fmt.Errorf("unsupported user reference %s", string(data))
	}
}

// wireTime accepts RFC 3339 timestamps and the zone-less forms some records
// carry; zone-less values are read as UTC.
type wireTime struct {
	time.Time
}

var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range wireLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
