// Package attendees converts between the wire form of an attendee list
// (plain user ids) and the edit-surface form (selectable options).
package attendees

import (
	"hash/fnv"
	"strings"

	"teamcal/internal/directory"
	"teamcal/internal/models"
)

// Directory is the lookup the resolver needs.
type Directory interface {
	Lookup(id string) (models.User, bool)
	Users() []models.User
}

// Option is one selectable attendee on the edit surface. It is derived data
// and is never sent to the server.
type Option struct {
	Value  string      // user id
	Label  string      // display name
	Source models.User // directory record the option was built from
}

// Card is the read-only attendee summary shown in view mode.
type Card struct {
	ID      string
	Name    string
	Detail  string // email, or role when there is no email
	Status  string
	Initial string
	Color   string // #rrggbb, stable per user id
	Known   bool
}

// Resolver maps between ids and options against a directory snapshot.
type Resolver struct {
	dir Directory
}

// NewResolver returns a resolver over dir.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ToOptions expands ids into options. Ids missing from the directory are
// dropped; repeated ids yield one option.
func (r *Resolver) ToOptions(ids []string) []Option {
	out := make([]Option, 0, len(ids))
	for _, id := range models.DedupeIDs(ids) {
		u, ok := r.dir.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, NewOption(u))
	}
	return out
}

// ToIDs projects options back to the wire id list.
func ToIDs(opts []Option) []string {
	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.Value)
	}
	return models.DedupeIDs(ids)
}

// NewOption builds the option for a directory record.
func NewOption(u models.User) Option {
	return Option{Value: u.ID, Label: directory.DisplayName(u), Source: u}
}

// Option returns the option for a single id, if the id is known.
func (r *Resolver) Option(id string) (Option, bool) {
	u, ok := r.dir.Lookup(strings.TrimSpace(id))
	if !ok {
		return Option{}, false
	}
	return NewOption(u), true
}

// Search returns options for every directory user whose name, email, role or
// category contains query, case-insensitively. An empty query matches all.
func (r *Resolver) Search(query string) []Option {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Option
	for _, u := range r.dir.Users() {
		if q == "" || matches(u, q) {
			out = append(out, NewOption(u))
		}
	}
	return out
}

func matches(u models.User, q string) bool {
	for _, field := range []string{u.Name, u.Email, u.Role, u.Category} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Describe builds view-mode cards. Unlike ToOptions it keeps unknown ids and
// renders them as directory.UnknownUser.
func (r *Resolver) Describe(ids []string) []Card {
	cards := make([]Card, 0, len(ids))
	for _, id := range models.DedupeIDs(ids) {
		u, ok := r.dir.Lookup(id)
		if !ok {
			cards = append(cards, Card{
				ID:      id,
				Name:    directory.UnknownUser,
				Initial: "?",
				Color:   AvatarColor(id),
			})
			continue
		}
		detail := u.Email
		if detail == "" {
			detail = u.Role
		}
		cards = append(cards, Card{
			ID:      id,
			Name:    directory.DisplayName(u),
			Detail:  detail,
			Status:  u.Status,
			Initial: initial(directory.DisplayName(u)),
			Color:   AvatarColor(id),
			Known:   true,
		})
	}
	return cards
}

// Contains reports whether opts already holds id.
func Contains(opts []Option, id string) bool {
	for _, o := range opts {
		if o.Value == id {
			return true
		}
	}
	return false
}

// Without returns opts minus the option for id.
func Without(opts []Option, id string) []Option {
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if o.Value != id {
			out = append(out, o)
		}
	}
	return out
}

// avatarSwatches are dark enough to carry a white initial.
var avatarSwatches = []string{
	"#1976d2", "#388e3c", "#d32f2f", "#7b1fa2", "#f57c00",
	"#0097a7", "#5d4037", "#c2185b", "#455a64", "#512da8",
}

// AvatarColor picks a stable swatch for a user id.
func AvatarColor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return avatarSwatches[h.Sum32()%uint32(len(avatarSwatches))]
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}
