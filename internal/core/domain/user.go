package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminUsername is the reserved administrator account. It always exists and
// can never be deleted, deactivated, or have its password changed through the
// management endpoints.
const AdminUsername = "admin"

// User models one account together with its synced reading progress.
// Progress records are embedded, keyed by document hash.
type User struct {
	ID              string              `json:"id"`
	Username        string              `json:"username"`
	PasswordHash    string              `json:"-"`
	IsActive        bool                `json:"isActive"`
	IsAdministrator bool                `json:"isAdministrator"`
	Documents       map[string]Progress `json:"-"`
}

// Document returns the progress record for the given hash, if present.
func (u *User) Document(documentHash string) (Progress, bool) {
	p, ok := u.Documents[documentHash]
	return p, ok
}

// UserSummary is the safe representation of a User returned by the
// management API. It never carries the password hash.
type UserSummary struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	IsActive        bool   `json:"isActive"`
	IsAdministrator bool   `json:"isAdministrator"`
	DocumentCount   int    `json:"documentCount"`
}

// Summary builds the management-facing view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		IsActive:        u.IsActive,
		IsAdministrator: u.IsAdministrator,
		DocumentCount:   len(u.Documents),
	}
}

// Progress is one reading-position snapshot for a (user, document) pair.
// Every field except Timestamp is supplied by the client and stored opaquely;
// Timestamp is always stamped by the server in UTC.
type Progress struct {
	DocumentHash string          `json:"documentHash"`
	Progress     string          `json:"progress"`
	Percentage   decimal.Decimal `json:"percentage"`
	Device       string          `json:"device"`
	DeviceID     string          `json:"deviceId"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Claims is the immutable identity assertion produced by authentication.
// It is evaluated fresh on every request; there are no sessions or tokens.
type Claims struct {
	Username      string
	Active        bool
	Administrator bool
}
