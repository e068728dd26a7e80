package staff

import "context"

// Repository is the credential store consumed by PIN authentication.
type Repository interface {
	// FindActiveByMerchant returns active staff of the merchant in insertion
	// order. A non-empty locationID keeps only staff who can access it.
	FindActiveByMerchant(ctx context.Context, merchantID, locationID string) ([]*Credential, error)

	// FindByID returns nil, nil when no staff member has the id.
	FindByID(ctx context.Context, id string) (*Credential, error)

	UpdatePinHash(ctx context.Context, id, hash string) error

	UpdateLastLogin(ctx context.Context, id string) error

	// Create stores a new credential, used by seeding.
	Create(ctx context.Context, credential *Credential) error

	// HasLocation reports whether locationID is an active location of the
	// merchant.
	HasLocation(ctx context.Context, merchantID, locationID string) (bool, error)

	CreateLocation(ctx context.Context, location *Location) error
}
