package domain

// Caller identifies who is invoking a use case. It is passed explicitly to
// every service method; the zero value is an anonymous caller.
type Caller struct {
	IdentityRef string
	UserID      string // empty until the identity has been synced to a user record
	Role        Role
	Status      UserStatus
}

// Anonymous is the caller used for public catalog reads.
var Anonymous = Caller{}

func (c Caller) IsAuthenticated() bool {
	return c.IdentityRef != ""
}

// IsAdmin requires an active account: suspending an admin revokes admin rights.
func (c Caller) IsAdmin() bool {
	return c.IsAuthenticated() && c.Role == RoleAdmin && c.Status == UserActive
}

// CanActFor reports whether the caller may read or act on userID's data.
func (c Caller) CanActFor(userID string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.UserID != "" && c.UserID == userID
}
