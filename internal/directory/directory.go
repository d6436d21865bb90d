// Package directory holds the read-only snapshot of user records used to
// resolve attendee and creator ids to names.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"teamcal/internal/models"
)

// UnknownUser is shown for ids that are not in the snapshot.
const UnknownUser = "Unknown User"

// otherCategory groups users without a category.
const otherCategory = "Other"

// Fetcher loads the full user list.
type Fetcher interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Group is a category of users as shown in the attendee picker.
type Group struct {
	Category string
	Users    []models.User
}

// Cache is the per-session user snapshot. It is only replaced by Load.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu     sync.RWMutex
	users  []models.User
	byID   map[string]models.User
	loaded bool
}

// New returns an empty cache that loads from fetcher.
func New(logger *slog.Logger, fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		byID:    map[string]models.User{},
	}
}

// Load fetches the user list and replaces the snapshot. On failure the
// previous snapshot is kept.
func (c *Cache) Load(ctx context.Context) error {
	users, err := c.fetcher.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	c.Set(users)
	c.logger.Info("Loaded user directory.", "count", len(users))
	return nil
}

// Set replaces the snapshot directly.
func (c *Cache) Set(users []models.User) {
	byID := make(map[string]models.User, len(users))
	list := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if _, dup := byID[u.ID]; dup {
			continue
		}
		byID[u.ID] = u
		list = append(list, u)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = list
	c.byID = byID
	c.loaded = true
}

// Loaded reports whether a snapshot has been taken.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Lookup returns the user with the given id.
func (c *Cache) Lookup(id string) (models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.byID[id]
	return u, ok
}

// Users returns a copy of the snapshot in fetch order.
func (c *Cache) Users() []models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.User(nil), c.users...)
}

// Len returns the number of users in the snapshot.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// DisplayName returns the user's name, falling back to email and then to
// UnknownUser.
func (c *Cache) DisplayName(id string) string {
	u, ok := c.Lookup(id)
	if !ok {
		return UnknownUser
	}
	return DisplayName(u)
}

// DisplayName picks the best human label for u.
func DisplayName(u models.User) string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if email := strings.TrimSpace(u.Email); email != "" {
		return email
	}
	return UnknownUser
}

// Grouped returns users grouped by category, categories sorted by name with
// "Other" last, users in snapshot order.
func (c *Cache) Grouped() []Group {
	users := c.Users()
	index := map[string]int{}
	var groups []Group
	for _, u := range users {
		cat := strings.TrimSpace(u.Category)
		if cat == "" {
			cat = otherCategory
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Users = append(groups[i].Users, u)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Category, groups[j].Category
		if a == otherCategory || b == otherCategory {
			return b == otherCategory && a != otherCategory
		}
		return a < b
	})
	return groups
}
