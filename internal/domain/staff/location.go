package staff

import "time"

// Location is a merchant site. PIN logins must name one that exists.
type Location struct {
	ID         string
	MerchantID string
	Name       string
	IsActive   bool
	CreatedAt  time.Time
}
