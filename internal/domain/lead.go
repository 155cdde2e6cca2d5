package domain

import "time"

// Lead is a sales inquiry captured from a dealer's marketing site.
type Lead struct {
	ID        string
	DealerID  string
	Name      string
	Email     string
	Phone     string
	Message   string
	Source    string
	CreatedAt time.Time
}
