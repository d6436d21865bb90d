package attendees

import (
	"reflect"
	"slices"
	"testing"

	"teamcal/internal/models"
)

type fakeDirectory map[string]models.User

func (d fakeDirectory) Lookup(id string) (models.User, bool) {
	u, ok := d[id]
	return u, ok
}

func (d fakeDirectory) Users() []models.User {
	out := make([]models.User, 0, len(d))
	for _, id := range []string{"u1", "u2", "u3"} {
		if u, ok := d[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

func testDirectory() fakeDirectory {
	return fakeDirectory{
		"u1": {ID: "u1", Name: "Alice", Email: "alice@example.com", Role: "CEO", Status: "active"},
		"u2": {ID: "u2", Email: "bob@example.com", Role: "Engineer"},
		"u3": {ID: "u3", Name: "Carol", Role: "Designer", Category: "Design", Status: "inactive"},
	}
}

func TestToOptions_ScenarioAlice(t *testing.T) {
	r := NewResolver(fakeDirectory{"u1": {ID: "u1", Name: "Alice"}})
	opts := r.ToOptions([]string{"u1"})
	if len(opts) != 1 || opts[0].Value != "u1" || opts[0].Label != "Alice" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts[0].Source.ID != "u1" {
		t.Fatalf("option must carry its source record")
	}
}

func TestToOptions_DropsUnknownAndDuplicates(t *testing.T) {
	r := NewResolver(testDirectory())
	opts := r.ToOptions([]string{"u2", "ghost", "u1", "u2"})
	if got := ToIDs(opts); !reflect.DeepEqual(got, []string{"u2", "u1"}) {
		t.Fatalf("unexpected ids: %v", got)
	}
	if opts[0].Label != "bob@example.com" {
		t.Fatalf("label should fall back to email, got %q", opts[0].Label)
	}
}

func TestRoundTrip_IdempotentForKnownIDs(t *testing.T) {
	r := NewResolver(testDirectory())
	ids := []string{"u3", "u1", "u2"}
	once := ToIDs(r.ToOptions(ids))
	twice := ToIDs(r.ToOptions(once))
	if !reflect.DeepEqual(once, ids) || !reflect.DeepEqual(twice, ids) {
		t.Fatalf("round trip not idempotent: %v -> %v -> %v", ids, once, twice)
	}
}

func TestRoundTrip_LosesUnknownIDs(t *testing.T) {
	r := NewResolver(testDirectory())
	got := ToIDs(r.ToOptions([]string{"u1", "ghost"}))
	if !reflect.DeepEqual(got, []string{"u1"}) {
		t.Fatalf("unknown id should be dropped, got %v", got)
	}
}

func TestToIDs_EmptyIsNonNil(t *testing.T) {
	if got := ToIDs(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestDescribe_UnknownPlaceholder(t *testing.T) {
	r := NewResolver(testDirectory())
	cards := r.Describe([]string{"u1", "ghost", "u2"})
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	if cards[0].Name != "Alice" || cards[0].Detail != "alice@example.com" || cards[0].Initial != "A" || !cards[0].Known {
		t.Fatalf("unexpected card: %+v", cards[0])
	}
	if cards[1].Name != "Unknown User" || cards[1].Initial != "?" || cards[1].Known {
		t.Fatalf("unexpected placeholder card: %+v", cards[1])
	}
	if cards[2].Name != "bob@example.com" || cards[2].Detail != "bob@example.com" {
		t.Fatalf("unexpected card: %+v", cards[2])
	}
}

func TestAvatarColor_Deterministic(t *testing.T) {
	a, b := AvatarColor("u1"), AvatarColor("u1")
	if a != b {
		t.Fatalf("colour not stable: %s vs %s", a, b)
	}
	for _, id := range []string{"u1", "u2", "", "a-much-longer-user-id"} {
		if c := AvatarColor(id); !slices.Contains(avatarSwatches, c) {
			t.Fatalf("AvatarColor(%q) = %q, not a swatch", id, c)
		}
	}
}

func TestDescribe_InitialFollowsDisplayName(t *testing.T) {
	r := NewResolver(testDirectory())
	cards := r.Describe([]string{"u2"})
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if cards[0].Name != "bob@example.com" || cards[0].Initial != "B" {
		t.Fatalf("email-only user card = %+v", cards[0])
	}
}

func TestSearch(t *testing.T) {
	r := NewResolver(testDirectory())
	got := ToIDs(r.Search("design"))
	if !reflect.DeepEqual(got, []string{"u3"}) {
		t.Fatalf("Search(design) = %v", got)
	}
	if all := r.Search(""); len(all) != 3 {
		t.Fatalf("empty query should match all, got %d", len(all))
	}
}

func TestWithoutAndContains(t *testing.T) {
	r := NewResolver(testDirectory())
	opts := r.ToOptions([]string{"u1", "u2"})
	if !Contains(opts, "u2") {
		t.Fatalf("expected u2 present")
	}
	opts = Without(opts, "u2")
	if Contains(opts, "u2") || len(opts) != 1 {
		t.Fatalf("unexpected options after removal: %+v", opts)
	}
}
