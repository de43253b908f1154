package directory

import "context"

// NewAccount is the input for account creation. Password travels in
// plaintext only this far; the repository hashes it before anything is
// written. An empty password stores no credential at all.
type NewAccount struct {
	Email    string
	Password string
	Role     Role
	Profile  Profile
}

// Repository is the persistence port for accounts and their profiles.
// Implementations translate backend faults into the package sentinels and
// never leak driver errors.
type Repository interface {
	Create(ctx context.Context, na NewAccount) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context, f Filter) ([]Account, error)
	Total(ctx context.Context, f Filter) (int, error)
	Update(ctx context.Context, id string, upd AccountUpdate) (Account, error)

	// Delete removes the account and its profile, returning the record's
	// last state before removal.
	Delete(ctx context.Context, id string) (Account, error)

	// VerifyCredential checks the password against the stored hash.
	// Accounts without a credential always fail the check.
	VerifyCredential(ctx context.Context, email, password string) (Account, bool, error)
}
