package domain

import "time"

// Dealer represents a dealership account on the platform.
type Dealer struct {
	ID             string
	Email          string
	DealershipName string
	PasswordHash   []byte
	CreatedAt      time.Time
}
