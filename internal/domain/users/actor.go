package users

// Actor is the authenticated caller of an operation. A zero UserID means guest.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) IsGuest() bool { return a.UserID == 0 }

// CanAccess reports whether the actor may read or change something owned by ownerID.
func (a Actor) CanAccess(ownerID *uint) bool {
	if a.IsAdmin() {
		return true
	}
	return ownerID != nil && !a.IsGuest() && *ownerID == a.UserID
}
