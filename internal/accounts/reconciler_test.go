package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	profile IdentityProfile
	ok      bool
	err     error
}

func (s stubResolver) Resolve(ctx context.Context, key string) (IdentityProfile, bool, error) {
	return s.profile, s.ok, s.err
}

func newTestReconciler(repo Repo, resolver IdentityResolver) *Reconciler {
	r := NewReconciler(repo, resolver)
	var n atomic.Int64
	r.NewID = func() string { return fmt.Sprintf("acct-%d", n.Add(1)) }
	return r
}

func TestResolveProvisionsFreeAccount(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, nil)

	acct, err := r.Resolve(context.Background(), Identity{Key: "google:1", Email: "Jane@Example.com"})
	require.NoError(t, err)

	assert.Equal(t, PlanFree, acct.Plan)
	assert.Equal(t, 1, acct.CreditsRemaining)
	assert.Equal(t, 1, acct.CreditsTotal)
	assert.Equal(t, "jane@example.com", acct.Email)

	again, err := r.Resolve(context.Background(), Identity{Key: "google:1"})
	require.NoError(t, err)
	assert.Equal(t, acct.ID, again.ID)
}

func TestResolveEmailFallbackOrder(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, stubResolver{profile: IdentityProfile{Email: "provider@example.com"}, ok: true})

	acct, err := r.Resolve(context.Background(), Identity{Key: "google:2"})
	require.NoError(t, err)
	assert.Equal(t, "provider@example.com", acct.Email)

	r.Resolver = stubResolver{err: errors.New("provider down")}
	acct, err = r.Resolve(context.Background(), Identity{Key: "google:3"})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderEmail("google:3"), acct.Email)
}

func TestResolveConcurrentFirstRequestsYieldOneAccount(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, nil)

	const n = 32
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			acct, err := r.Resolve(context.Background(), Identity{Key: "google:race", Email: "race@example.com"})
			ids[i] = acct.ID
			errs[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	repo.mu.RLock()
	defer repo.mu.RUnlock()
	assert.Len(t, repo.byID, 1)
}

func TestResolveEmailCollisionCreatesDisambiguatedAccount(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, nil)

	first, err := r.Resolve(context.Background(), Identity{Key: "google:owner", Email: "shared@example.com"})
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), Identity{Key: "clerk:user_ab12CD34", Email: "shared@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "clerk:user_ab12CD34", second.IdentityKey)
	assert.NotEqual(t, "shared@example.com", second.Email)
	assert.True(t, strings.HasPrefix(second.Email, "shared+"))
	assert.Contains(t, second.Email, "ab12cd34")
	assert.True(t, strings.HasSuffix(second.Email, "@example.com."+disambiguationMarker))
	assert.Equal(t, DisambiguateEmail("shared@example.com", "clerk:user_ab12CD34"), second.Email)
}

func TestResolveEmailCollisionKeysDifferingOnlyInCase(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, nil)
	ctx := context.Background()

	_, err := r.Resolve(ctx, Identity{Key: "google:owner", Email: "shared@example.com"})
	require.NoError(t, err)

	a, err := r.Resolve(ctx, Identity{Key: "clerk:user_2xAB12cd34", Email: "shared@example.com"})
	require.NoError(t, err)
	b, err := r.Resolve(ctx, Identity{Key: "clerk:user_9yab12CD34", Email: "shared@example.com"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Email, b.Email)
	assert.Contains(t, a.Email, "ab12cd34")
	assert.Contains(t, b.Email, "ab12cd34")

	again, err := r.Resolve(ctx, Identity{Key: "clerk:user_9yab12CD34", Email: "shared@example.com"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, again.ID)
}

func TestResolveEmailCollisionFallsBackWhenTaggedAddressTaken(t *testing.T) {
	repo := NewMemoryRepo()
	r := newTestReconciler(repo, nil)
	ctx := context.Background()
	key := "clerk:user_ab12CD34"

	_, err := r.Resolve(ctx, Identity{Key: "google:owner", Email: "shared@example.com"})
	require.NoError(t, err)
	squatter := DisambiguateEmail("shared@example.com", key)
	_, err = r.Resolve(ctx, Identity{Key: "google:squatter", Email: squatter})
	require.NoError(t, err)

	acct, err := r.Resolve(ctx, Identity{Key: key, Email: "shared@example.com"})
	require.NoError(t, err)
	assert.Equal(t, key, acct.IdentityKey)
	assert.NotEqual(t, squatter, acct.Email)
	assert.True(t, strings.HasPrefix(acct.Email, "shared+"))
	assert.True(t, strings.HasSuffix(acct.Email, "@example.com."+disambiguationMarker))
}

func TestResolveEmailCollisionSecondAttemptFailureIsFatal(t *testing.T) {
	emailTaken := &StorageError{Kind: KindUniqueViolation, Constraint: ConstraintEmail, Code: "23505"}
	repo := &scriptedRepo{
		getResults: []error{ErrNotFound, ErrNotFound},
		createErrs: []error{emailTaken, emailTaken, emailTaken},
	}
	r := newTestReconciler(repo, nil)

	_, err := r.Resolve(context.Background(), Identity{Key: "google:11", Email: "z@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconciliationFailed)
	assert.Equal(t, 3, repo.createCalls)
}

// scriptedRepo lets tests force specific storage outcomes.
type scriptedRepo struct {
	getResults  []error
	getAccount  Account
	createErrs  []error
	createCalls int
	getCalls    int
}

func (s *scriptedRepo) GetByIdentityKey(ctx context.Context, key string) (Account, error) {
	i := s.getCalls
	s.getCalls++
	if i < len(s.getResults) && s.getResults[i] != nil {
		return Account{}, s.getResults[i]
	}
	if i < len(s.getResults) {
		return s.getAccount, nil
	}
	return Account{}, ErrNotFound
}

func (s *scriptedRepo) GetByID(ctx context.Context, id string) (Account, error) {
	return Account{}, ErrNotFound
}

func (s *scriptedRepo) Create(ctx context.Context, account Account) error {
	i := s.createCalls
	s.createCalls++
	if i < len(s.createErrs) {
		return s.createErrs[i]
	}
	return nil
}

func (s *scriptedRepo) ConsumeCredit(ctx context.Context, id string) (Account, error) {
	return Account{}, ErrNoCredits
}

func TestResolveIdentityRaceRefetchFailureIsFatal(t *testing.T) {
	repo := &scriptedRepo{
		getResults: []error{ErrNotFound, ErrNotFound},
		createErrs: []error{&StorageError{Kind: KindUniqueViolation, Constraint: ConstraintIdentityKey, Code: "23505"}},
	}
	r := newTestReconciler(repo, nil)

	_, err := r.Resolve(context.Background(), Identity{Key: "google:9", Email: "x@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconciliationFailed)
	assert.Equal(t, "23505", StorageCode(err))
}

func TestResolveIdentityRaceRefetchSucceeds(t *testing.T) {
	winner := Account{ID: "winner", IdentityKey: "google:9", Plan: PlanFree, CreditsRemaining: 1, CreditsTotal: 1}
	repo := &scriptedRepo{
		getResults: []error{ErrNotFound, nil},
		getAccount: winner,
		createErrs: []error{&StorageError{Kind: KindUniqueViolation, Constraint: ConstraintIdentityKey, Code: "23505"}},
	}
	r := newTestReconciler(repo, nil)

	acct, err := r.Resolve(context.Background(), Identity{Key: "google:9", Email: "x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "winner", acct.ID)
}

func TestResolveOtherStorageFailureCarriesCode(t *testing.T) {
	repo := &scriptedRepo{
		getResults: []error{ErrNotFound},
		createErrs: []error{&StorageError{Kind: KindOther, Code: "53300", Err: errors.New("too many connections")}},
	}
	r := newTestReconciler(repo, nil)

	_, err := r.Resolve(context.Background(), Identity{Key: "google:10", Email: "y@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReconciliationFailed)
	assert.Equal(t, "53300", StorageCode(err))
}

func TestResolveRequiresIdentityKey(t *testing.T) {
	r := newTestReconciler(NewMemoryRepo(), nil)
	_, err := r.Resolve(context.Background(), Identity{Key: "  "})
	assert.ErrorIs(t, err, ErrReconciliationFailed)
}

func TestDisambiguateEmailWithoutDomain(t *testing.T) {
	got := DisambiguateEmail("not-an-email", "google:!!!")
	assert.True(t, strings.HasPrefix(got, "not-an-email+"))
	assert.True(t, strings.HasSuffix(got, "@unknown."+disambiguationMarker))
}
