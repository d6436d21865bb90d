package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"teamcal/internal/attendees"
	"teamcal/internal/calendar"
	"teamcal/internal/dialog"
	"teamcal/internal/directory"
	"teamcal/internal/models"
)

const (
	dateLayout     = "Mon 2006-01-02"
	dateTimeLayout = "Mon 2006-01-02 15:04"
	clockLayout    = "15:04"
)

// PrintAgenda writes one line per entry.
func PrintAgenda(w io.Writer, entries []calendar.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No events.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t[%s]\t%s\n", e.Event.ID, when(e.Event, e.AllDay), e.Style.Label, e.Event.Title)
	}
	tw.Flush()
}

// PrintDetails writes the view-mode content of one event.
func PrintDetails(w io.Writer, d calendar.Details) {
	e := d.Event
	fmt.Fprintf(w, "%s  [%s]\n", e.Title, d.Style.Label)
	fmt.Fprintf(w, "  id:        %s\n", e.ID)
	fmt.Fprintf(w, "  when:      %s\n", when(e, d.AllDay))
	if e.Location != "" {
		fmt.Fprintf(w, "  location:  %s\n", e.Location)
	}
	if e.Description != "" {
		fmt.Fprintf(w, "  about:     %s\n", e.Description)
	}
	fmt.Fprintf(w, "  created by %s\n", d.Creator)
	if len(d.Attendees) == 0 {
		fmt.Fprintln(w, "  no attendees")
		return
	}
	fmt.Fprintf(w, "  attendees (%d):\n", len(d.Attendees))
	for _, c := range d.Attendees {
		printCard(w, c)
	}
}

func printCard(w io.Writer, c attendees.Card) {
	line := fmt.Sprintf("    (%s) %s", c.Initial, c.Name)
	if c.Detail != "" {
		line += " <" + c.Detail + ">"
	}
	if c.Status != "" && c.Status != models.StatusActive {
		line += " [" + c.Status + "]"
	}
	fmt.Fprintln(w, line)
}

// PrintDraft writes the editable fields of a draft.
func PrintDraft(w io.Writer, d dialog.Draft, loc *time.Location) {
	if d.ID != "" {
		fmt.Fprintf(w, "  id:          %s\n", d.ID)
	}
	fmt.Fprintf(w, "  title:       %s\n", d.Title)
	fmt.Fprintf(w, "  type:        %s\n", d.Type)
	fmt.Fprintf(w, "  start:       %s\n", formatTime(d.Start, loc))
	fmt.Fprintf(w, "  end:         %s\n", formatTime(d.End, loc))
	fmt.Fprintf(w, "  location:    %s\n", d.Location)
	fmt.Fprintf(w, "  description: %s\n", d.Description)
	labels := make([]string, 0, len(d.Attendees))
	for _, o := range d.Attendees {
		labels = append(labels, fmt.Sprintf("%s (%s)", o.Label, o.Value))
	}
	fmt.Fprintf(w, "  attendees:   %s\n", strings.Join(labels, ", "))
}

// PrintUsers writes the directory grouped by category.
func PrintUsers(w io.Writer, groups []directory.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\n", g.Category)
		for _, u := range g.Users {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", u.ID, directory.DisplayName(u), u.Role, u.Email)
		}
	}
	tw.Flush()
}

// PrintOptions writes attendee search results.
func PrintOptions(w io.Writer, opts []attendees.Option) {
	if len(opts) == 0 {
		fmt.Fprintln(w, "No matching users.")
		return
	}
	for _, o := range opts {
		fmt.Fprintf(w, "  %s\t%s\n", o.Value, o.Label)
	}
}

func when(e models.Event, allDay bool) string {
	if allDay {
		return e.Start.Format(dateLayout) + " (all day)"
	}
	if sameDay(e.Start, e.End) {
		return e.Start.Format(dateTimeLayout) + "-" + e.End.Format(clockLayout)
	}
	return e.Start.Format(dateTimeLayout) + " - " + e.End.Format(dateTimeLayout)
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format(dateTimeLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
