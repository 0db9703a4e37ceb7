package accounts

import "context"

// Repo persists accounts. Create reports uniqueness conflicts as
// *StorageError with KindUniqueViolation and the violated Constraint.
type Repo interface {
	GetByIdentityKey(ctx context.Context, identityKey string) (Account, error)
	GetByID(ctx context.Context, accountID string) (Account, error)
	Create(ctx context.Context, account Account) error
	// ConsumeCredit atomically decrements credits_remaining for a non-ultimate
	// account holding at least one credit and returns the updated row.
	ConsumeCredit(ctx context.Context, accountID string) (Account, error)
}
