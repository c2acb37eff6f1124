package models

// RoleType defines the acting user's role within an organization
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"
	RoleStudent RoleType = "STUDENT"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Scope selects which records of a series an update or delete touches
type Scope string

const (
	ScopeSingle Scope = "single" // only the addressed record
	ScopeFuture Scope = "future" // the addressed record and every occurrence of its series from now on
)

// ParseScope converts a query value into a Scope. Empty means single.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeSingle:
		return ScopeSingle, true
	case ScopeFuture:
		return ScopeFuture, true
	}
	return "", false
}
