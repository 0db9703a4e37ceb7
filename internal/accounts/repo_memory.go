package accounts

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo stores accounts in memory and enforces the same unique indexes
// as the Postgres schema.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byKey   map[string]string
	byEmail map[string]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Account),
		byKey:   make(map[string]string),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepo) GetByIdentityKey(ctx context.Context, identityKey string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[identityKey]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, accountID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byID[accountID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *MemoryRepo) Create(ctx context.Context, account Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[account.IdentityKey]; exists {
		return &StorageError{Kind: KindUniqueViolation, Constraint: ConstraintIdentityKey, Code: "23505"}
	}
	emailKey := strings.ToLower(account.Email)
	if _, exists := r.byEmail[emailKey]; exists {
		return &StorageError{Kind: KindUniqueViolation, Constraint: ConstraintEmail, Code: "23505"}
	}
	r.byID[account.ID] = account
	r.byKey[account.IdentityKey] = account.ID
	r.byEmail[emailKey] = account.ID
	return nil
}

func (r *MemoryRepo) ConsumeCredit(ctx context.Context, accountID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byID[accountID]
	if !ok || acct.Unlimited() || acct.CreditsRemaining < 1 {
		return Account{}, ErrNoCredits
	}
	acct.CreditsRemaining--
	acct.UpdatedAt = time.Now().UTC()
	r.byID[accountID] = acct
	return acct, nil
}

// SetPlan changes an account's plan and credit balance. Plan upgrades have
// no public surface; this exists for seeding and tests.
func (r *MemoryRepo) SetPlan(accountID string, plan Plan, credits int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byID[accountID]
	if !ok {
		return
	}
	acct.Plan = plan
	acct.CreditsRemaining = credits
	if credits > acct.CreditsTotal {
		acct.CreditsTotal = credits
	}
	r.byID[accountID] = acct
}

var _ Repo = (*MemoryRepo)(nil)
