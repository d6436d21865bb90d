// Package access derives the calendar write capability from the signed-in role.
// The check is a client-side convenience; the server authorises writes itself.
package access

import "strings"

// DefaultElevatedRoles hold the manage capability when nothing is configured.
var DefaultElevatedRoles = []string{"CEO"}

// Gate answers whether the current user may create, edit and delete events.
type Gate struct {
	role   string
	manage bool
}

// NewGate evaluates role against the elevated role list. Comparison ignores
// case and surrounding spaces.
func NewGate(role string, elevated []string) Gate {
	if len(elevated) == 0 {
		elevated = DefaultElevatedRoles
	}
	role = strings.TrimSpace(role)
	g := Gate{role: role}
	for _, r := range elevated {
		if role != "" && strings.EqualFold(role, strings.TrimSpace(r)) {
			g.manage = true
			break
		}
	}
	return g
}

// CanManage reports the elevated capability.
func (g Gate) CanManage() bool {
	return g.manage
}

// Role returns the evaluated role.
func (g Gate) Role() string {
	return g.role
}
