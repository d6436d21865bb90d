package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
	dateLayout      = "2006-01-02"
)

// Item is one event read from a Google calendar.
type Item struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
	loc     *time.Location
}

// NewClient creates a read-only Google Calendar client from the token saved
// by the auth flow. All-day dates are placed in loc.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, tokenFile string, loc *time.Location) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'google-auth' command first", tokenFile, err)
	}

	return NewClientWithOptions(ctx, logger, loc, option.WithHTTPClient(config.Client(ctx, token)))
}

// NewClientWithOptions creates a client with explicit API options.
func NewClientWithOptions(ctx context.Context, logger *slog.Logger, loc *time.Location, opts ...option.ClientOption) (*CalendarClient, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarClient{service: service, logger: logger, loc: loc}, nil
}

// ListEvents fetches the events of calendarID that intersect [from, to),
// following every result page.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Item, error) {
	c.logger.Debug("Fetching Google events", "calendarID", calendarID, "from", from, "to", to)

	var items []Item
	call := c.service.Events.List(calendarID).
		Context(ctx).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime")
	err := call.Pages(ctx, func(page *calendar.Events) error {
		items = append(items, c.toItems(page.Items)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "calendarID", calendarID)
	return items, nil
}

// ListCalendars returns the ids and names of the calendars visible to the account.
func (c *CalendarClient) ListCalendars(ctx context.Context) (map[string]string, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	out := make(map[string]string, len(list.Items))
	for _, item := range list.Items {
		out[item.Id] = item.Summary
	}
	return out, nil
}

// toItems converts Google Calendar events. Date-only events become all-day
// items whose End is the last covered day.
func (c *CalendarClient) toItems(events []*calendar.Event) []Item {
	var out []Item
	for _, ev := range events {
		if ev.Start == nil || ev.End == nil {
			continue
		}
		item := Item{
			ID:          ev.Id,
			Title:       ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
		}
		var err error
		switch {
		case ev.Start.Date != "":
			item.AllDay = true
			item.Start, item.End, err = c.dateRange(ev.Start.Date, ev.End.Date)
		default:
			item.Start, err = time.Parse(time.RFC3339, ev.Start.DateTime)
			if err == nil {
				item.End, err = time.Parse(time.RFC3339, ev.End.DateTime)
			}
		}
		if err != nil {
			c.logger.Warn("Skipping event with unreadable time", "id", ev.Id, "title", ev.Summary, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out
}

func (c *CalendarClient) dateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endDate == "" {
		return start, start, nil
	}
	end, err := time.ParseInLocation(dateLayout, endDate, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// Google's end date is exclusive.
	end = end.AddDate(0, 0, -1)
	if end.Before(start) {
		end = start
	}
	return start, end, nil
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes explicit client credentials over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// SaveToken saves a token to a file path readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
