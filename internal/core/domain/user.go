package domain

import (
	"errors"
	"time"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus gates whether a user may place orders.
type UserStatus string

const (
	UserPending   UserStatus = "pending"
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known user status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserPending, UserActive, UserSuspended:
		return true
	}
	return false
}

var ErrUserNotFound = errors.New("user not found")

// User is a storefront customer or administrator, keyed by the reference the
// external identity provider hands out on sign-in.
type User struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	IdentityRef string     `json:"identity_ref" bson:"identity_ref"`
	Email       string     `json:"email" bson:"email"`
	Name        string     `json:"name,omitempty" bson:"name,omitempty"`
	Status      UserStatus `json:"status" bson:"status"`
	Role        Role       `json:"role" bson:"role"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// UserSummary is the slice of a user exposed alongside orders in admin views.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}
