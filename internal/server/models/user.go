package models

import "time"

// User is the identity record shared by every credential store backend.
// Empty PasswordHash means the account has no local password; empty
// GoogleID means no Google identity is linked.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	GoogleID     string
	Picture      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// HasExternalIdentity reports whether a Google identity is linked.
func (u *User) HasExternalIdentity() bool {
	return u.GoogleID != ""
}

// Clone returns a copy safe to hand out of a store.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
