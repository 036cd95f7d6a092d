package domain

import "time"

// Customer represents a registered shopper profile. The cart subsystem
// consumes it only as an ownership key.
type Customer struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName is the shopper's full name when both parts are set, else the
// login handle.
func (c Customer) DisplayName() string {
	if c.FirstName != "" && c.LastName != "" {
		return c.FirstName + " " + c.LastName
	}
	return c.Username
}
