package merchant

import "context"

// Repository is the merchant account store.
type Repository interface {
	// FindByLogin matches login against the email case-insensitively, then
	// against the username. It returns nil, nil when neither matches.
	FindByLogin(ctx context.Context, login string) (*Account, error)

	// FindByID returns nil, nil when no account has the id.
	FindByID(ctx context.Context, id string) (*Account, error)

	UpdatePasswordHash(ctx context.Context, id, hash string) error

	UpdateLastLogin(ctx context.Context, id string) error

	Create(ctx context.Context, account *Account) error
}

// PasswordHasher hashes and verifies merchant passwords. Verify returns
// ErrPasswordMismatch on a wrong password.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}
