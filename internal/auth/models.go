// Package auth holds the user registry and credential flow. Users double as
// the voter directory: the admission engine resolves voter locations
// through this package.
package auth

import (
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/eligibility"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/geography"
)

type Role string

const (
	RoleVoter Role = "VOTER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	CountyID       *int
	ConstituencyID *string
	WardID         *string
	CreatedAt      time.Time
}

// Location maps the nullable registration columns onto the eligibility
// model; missing levels come back as zero values, which the admission
// engine treats as an incomplete registration.
func (u User) Location() eligibility.Location {
	var loc eligibility.Location
	if u.CountyID != nil {
		loc.CountyID = *u.CountyID
	}
	if u.ConstituencyID != nil {
		loc.ConstituencyID = *u.ConstituencyID
	}
	if u.WardID != nil {
		loc.WardID = *u.WardID
	}
	return loc
}

// Profile is the client-facing user shape with location names resolved.
type Profile struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Email        string                  `json:"email,omitempty"`
	Role         Role                    `json:"role"`
	County       *geography.County       `json:"county"`
	Constituency *geography.Constituency `json:"constituency"`
	Ward         *geography.Ward         `json:"ward"`
}

// Session is returned from login and registration.
type Session struct {
	Token string  `json:"token"`
	Role  Role    `json:"role"`
	User  Profile `json:"user"`
}
