package accounts

import "time"

// Plan is the billing tier of an account.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanUltimate Plan = "ultimate"
)

// FreeCredits is the number of generation credits a new account starts with.
const FreeCredits = 1

// Account is the billing and credit ledger entry for one identity.
type Account struct {
	ID               string    `json:"id"`
	IdentityKey      string    `json:"identityKey"`
	Email            string    `json:"email"`
	Plan             Plan      `json:"plan"`
	CreditsRemaining int       `json:"creditsRemaining"`
	CreditsTotal     int       `json:"creditsTotal"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Unlimited reports whether the plan bypasses credit accounting.
func (a Account) Unlimited() bool {
	return a.Plan == PlanUltimate
}

func newFreeAccount(id, identityKey, email string, now time.Time) Account {
	return Account{
		ID:               id,
		IdentityKey:      identityKey,
		Email:            email,
		Plan:             PlanFree,
		CreditsRemaining: FreeCredits,
		CreditsTotal:     FreeCredits,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
