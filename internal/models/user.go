package models

// StatusActive is the status value the directory uses for enabled accounts.
const StatusActive = "active"

// User is a directory record. The calendar never mutates it.
type User struct {
	ID       string
	Name     string
	Email    string
	Role     string
	Category string
	Status   string
}

// Active reports whether the user account is enabled.
func (u User) Active() bool {
	return u.Status == StatusActive
}
