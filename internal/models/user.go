package models

import (
	"strings"
	"time"
)

// Principal is the signed-in identity reported by the identity provider.
type Principal struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName,omitempty"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	ProviderID    string    `json:"providerId,omitempty"`
	IDToken       string    `json:"-"`
	RefreshToken  string    `json:"-"`
	ExpiresAt     time.Time `json:"-"`
}

// Name returns the display name, falling back to the local part of the email.
func (p Principal) Name() string {
	return p.User().Name()
}

// Profile returns the body of the backend user upsert.
func (p Principal) Profile() UserProfile {
	return UserProfile{
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		UID:         p.UID,
	}
}

// User returns the identity fields shown by pages.
func (p Principal) User() SessionUser {
	return SessionUser{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
	}
}

// SessionUser is the signed-in user as seen by pages. It carries no credentials.
type SessionUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Name returns the display name, falling back to the local part of the email.
func (u SessionUser) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// UserProfile is the backend user record kept in sync with the identity provider.
type UserProfile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	UID         string `json:"uid"`
}

// UserExists is the body of the user existence check.
type UserExists struct {
	Exists bool `json:"exists"`
}

// Clone returns a copy of p, or nil when p is nil.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
