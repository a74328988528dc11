package models

import "time"

// MUser is the authenticated caller identity. The auth layer proper lives
// outside this service; here a bearer token simply resolves to a row.
type MUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
