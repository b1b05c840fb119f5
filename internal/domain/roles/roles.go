// Package roles is the closed role hierarchy used by every permission check.
package roles

import "strings"

// Role is ordered by privilege. Unknown sits below every real role so that
// unrecognised role data denies every check.
type Role int

const (
	Unknown Role = iota
	Visitor
	Member
	Researcher
	Admin
)

var names = map[Role]string{
	Visitor:    "Visitor",
	Member:     "Member",
	Researcher: "Researcher",
	Admin:      "Admin",
}

// All lists the real roles in ascending order.
func All() []Role {
	return []Role{Visitor, Member, Researcher, Admin}
}

// Parse resolves a stored role name. Matching ignores case and surrounding space.
func Parse(name string) Role {
	n := strings.TrimSpace(name)
	for r, s := range names {
		if strings.EqualFold(s, n) {
			return r
		}
	}
	return Unknown
}

func (r Role) Level() int {
	if _, ok := names[r]; !ok {
		return 0
	}
	return int(r)
}

func (r Role) String() string {
	if s, ok := names[r]; ok {
		return s
	}
	return "Unknown"
}

func (r Role) Valid() bool {
	return r.Level() > 0
}

// AtLeast reports whether r satisfies required.
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Level() >= required.Level()
}

// Between reports lo <= r <= hi.
func (r Role) Between(lo, hi Role) bool {
	return r.Valid() && r.Level() >= lo.Level() && r.Level() <= hi.Level()
}

// NamesBetween returns the stored names of every role in [lo, hi].
func NamesBetween(lo, hi Role) []string {
	var out []string
	for _, r := range All() {
		if r.Between(lo, hi) {
			out = append(out, r.String())
		}
	}
	return out
}
