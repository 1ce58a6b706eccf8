package auth

import (
	"errors"
	"strings"
	"time"
)

// Profile holds optional contact details. A nil field means the user has
// not provided it yet.
type Profile struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	ZipCode   *string `json:"zipCode,omitempty"`
}

// Empty reports whether no field has been provided.
func (p Profile) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.Address == nil && p.City == nil && p.State == nil && p.ZipCode == nil
}

// User is the identity exposed to pages through a Session.
type User struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	Image      *string  `json:"image,omitempty"`
	Role       Role     `json:"role"`
	IsVerified bool     `json:"isVerified"`
	Profile    *Profile `json:"profile,omitempty"`
}

// Session is an authenticated actor for the duration of a visit.
type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// Token is the minimal claim set needed to rebuild a session.
type Token struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Token returns the claims carried for this session.
func (s Session) Token() Token {
	return Token{UserID: s.User.ID, Role: s.User.Role}
}

// NewToken builds claims, normalizing the role.
func NewToken(userID string, role string) Token {
	return Token{UserID: userID, Role: NormalizeRole(role)}
}

// RawUser is an untyped user record as delivered by a provider or read
// from storage, before validation.
type RawUser struct {
	ID         string
	Email      string
	Name       string
	Image      string
	Role       string
	IsVerified bool
	Profile    Profile
}

var (
	ErrMissingUserID = errors.New("auth: user id is required")
	ErrMissingEmail  = errors.New("auth: email is required")
)

// NewSession validates a raw user and maps it to a Session.
func NewSession(raw RawUser, expires time.Time) (Session, error) {
	u, err := NewUser(raw)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Expires: expires}, nil
}

// NewUser validates a raw user record. Id and email are mandatory; a
// missing name is derived from the profile or the email.
func NewUser(raw RawUser) (User, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return User{}, ErrMissingUserID
	}
	email := strings.TrimSpace(raw.Email)
	if email == "" {
		return User{}, ErrMissingEmail
	}

	u := User{
		ID:         id,
		Email:      email,
		Name:       strings.TrimSpace(raw.Name),
		Role:       NormalizeRole(raw.Role),
		IsVerified: raw.IsVerified,
	}
	if raw.Image != "" {
		img := raw.Image
		u.Image = &img
	}
	if !raw.Profile.Empty() {
		p := raw.Profile
		u.Profile = &p
	}
	if u.Name == "" {
		u.Name = DisplayName(raw.Profile, email)
	}
	return u, nil
}

// DisplayName joins first and last name when present, falling back to the
// local part of the email address.
func DisplayName(p Profile, email string) string {
	var parts []string
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*p.LastName))
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Ptr returns a pointer to s, or nil for an empty string.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
