package wiki

// Member roles, ordered by privilege. A page is readable by a member when
// the member's role is at least the page's read role.
const (
	RoleAnonymous = iota
	RoleMember
	RoleModerator
	RoleAdmin
)

// Member identifies the requester on whose behalf a parse or query runs.
// The parser holds no permission logic itself; it threads the member through
// every nested graph query so the store can filter uniformly.
type Member struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
	Role int    `db:"role"`
}

// Anonymous returns the unauthenticated member identity.
func Anonymous() *Member {
	return &Member{ID: 0, Role: RoleAnonymous}
}

// CanRead reports whether the member may read a page with the given read role.
func (m *Member) CanRead(readRole int) bool {
	if m == nil {
		return readRole <= RoleAnonymous
	}
	return m.Role >= readRole
}
