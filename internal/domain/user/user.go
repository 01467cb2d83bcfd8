// Package user holds the identity and address-book read models the
// fulfillment core consumes. Authentication happens at the boundary; the
// core trusts the resolved Actor it is handed.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Lookup errors.
var (
	ErrNotFound        = errors.New("user not found")
	ErrAddressNotFound = errors.New("shipping address not found")
)

// Role is the coarse permission level of an actor.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Actor is the acting identity for a core operation, resolved by the calling
// boundary and passed explicitly. Core operations never read identity from
// ambient state.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User is a storefront account.
type User struct {
	ID       string
	Email    string
	FullName string
	Role     Role
}

// Address is a postal address owned by a user.
type Address struct {
	ID      string
	UserID  string
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// Directory resolves user identifiers to accounts.
type Directory interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// AddressBook resolves address identifiers to postal addresses.
type AddressBook interface {
	GetByID(ctx context.Context, id string) (*Address, error)
}
