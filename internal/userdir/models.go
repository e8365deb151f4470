package userdir

import (
	"time"

	relieferrors "wrldrelief/pkg/relieferrors"
)

// Role is a named capability held by an address. Defined per module rather
// than shared with the campaign ports to keep coupling one-directional.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
	RoleVerifier  Role = "verifier"
)

var validRoles = map[Role]bool{
	RoleDonor:     true,
	RoleRecipient: true,
	RoleOrganizer: true,
	RoleAdmin:     true,
	RoleVerifier:  true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", relieferrors.Newf(relieferrors.CodeInvalidInput, "invalid role %q", s)
	}
	return r, nil
}

// User is the directory record for one address. Roles is a set: donation
// eligibility requires any of DONOR or RECIPIENT, not DONOR exclusively.
type User struct {
	Address       string
	DisplayName   string
	Verified      bool
	Roles         map[Role]bool
	TotalDonated  int64
	TotalReceived int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRole reports whether the user holds the role.
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Roles[role]
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Roles = make(map[Role]bool, len(u.Roles))
	for r, ok := range u.Roles {
		cp.Roles[r] = ok
	}
	return &cp
}
