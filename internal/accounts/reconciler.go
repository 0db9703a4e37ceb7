package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/shared/util"
)

const (
	placeholderEmailDomain   = "users.placeholder.invalid"
	disambiguationMarker     = "dup.invalid"
	disambiguationSuffixSize = 8
)

// Identity is the caller as seen by the session layer.
type Identity struct {
	Key         string
	Email       string
	DisplayName string
}

// IdentityProfile is what the identity provider knows about a key.
type IdentityProfile struct {
	Email       string
	DisplayName string
}

// IdentityResolver looks up provider-side profile data for an identity key.
type IdentityResolver interface {
	Resolve(ctx context.Context, identityKey string) (IdentityProfile, bool, error)
}

// Reconciler maps an identity to exactly one account, provisioning a free
// account on first use. It holds no locks: concurrent first requests for the
// same key are serialized by the store's unique constraints.
type Reconciler struct {
	Repo     Repo
	Resolver IdentityResolver
	Now      func() time.Time
	NewID    func() string
}

// NewReconciler constructs a Reconciler. resolver may be nil.
func NewReconciler(repo Repo, resolver IdentityResolver) *Reconciler {
	return &Reconciler{
		Repo:     repo,
		Resolver: resolver,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
	}
}

// Resolve returns the account for id.Key, creating it if absent.
// Fatal failures wrap ErrReconciliationFailed; the storage code, when known,
// is available through StorageCode.
func (r *Reconciler) Resolve(ctx context.Context, id Identity) (Account, error) {
	key := strings.TrimSpace(id.Key)
	if key == "" {
		return Account{}, fmt.Errorf("%w: identity key is required", ErrReconciliationFailed)
	}

	acct, err := r.Repo.GetByIdentityKey(ctx, key)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, reconcileFailure(key, "lookup", err)
	}

	email := r.contactEmail(ctx, key, id)
	acct = newFreeAccount(r.NewID(), key, email, r.Now())
	err = r.Repo.Create(ctx, acct)
	if err == nil {
		telemetry.Info("account.provisioned", map[string]any{
			"account_id":   acct.ID,
			"identity_key": key,
			"plan":         string(acct.Plan),
		})
		return acct, nil
	}

	var se *StorageError
	if !errors.As(err, &se) || se.Kind != KindUniqueViolation {
		return Account{}, reconcileFailure(key, "create", err)
	}

	switch se.Constraint {
	case ConstraintIdentityKey:
		return r.refetch(ctx, key, err)
	case ConstraintEmail:
		return r.resolveEmailCollision(ctx, key, email)
	default:
		return Account{}, reconcileFailure(key, "create", err)
	}
}

// refetch handles losing a creation race: the winner's row must now exist.
func (r *Reconciler) refetch(ctx context.Context, key string, cause error) (Account, error) {
	acct, err := r.Repo.GetByIdentityKey(ctx, key)
	if err != nil {
		return Account{}, reconcileFailure(key, "refetch", errors.Join(cause, err))
	}
	return acct, nil
}

// resolveEmailCollision provisions a second account under a disambiguated
// email when another identity already owns the address.
func (r *Reconciler) resolveEmailCollision(ctx context.Context, key, email string) (Account, error) {
	acct, err := r.Repo.GetByIdentityKey(ctx, key)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, reconcileFailure(key, "refetch", err)
	}

	alt := DisambiguateEmail(email, key)
	telemetry.Warn("account.email_disambiguated", map[string]any{
		"identity_key":   key,
		"original_email": email,
		"assigned_email": alt,
	})

	acct = newFreeAccount(r.NewID(), key, alt, r.Now())
	err = r.Repo.Create(ctx, acct)
	if err == nil {
		return acct, nil
	}
	if IsUniqueViolation(err, ConstraintIdentityKey) {
		return r.refetch(ctx, key, err)
	}
	if !IsUniqueViolation(err, ConstraintEmail) {
		return Account{}, reconcileFailure(key, "create_disambiguated", err)
	}

	// The tagged address is taken too, e.g. registered verbatim by a real user.
	fallback := hashedEmail(email, key)
	telemetry.Warn("account.email_disambiguated", map[string]any{
		"identity_key":   key,
		"original_email": email,
		"assigned_email": fallback,
		"attempt":        2,
	})
	acct = newFreeAccount(r.NewID(), key, fallback, r.Now())
	err = r.Repo.Create(ctx, acct)
	if err == nil {
		return acct, nil
	}
	if IsUniqueViolation(err, ConstraintIdentityKey) {
		return r.refetch(ctx, key, err)
	}
	return Account{}, reconcileFailure(key, "create_disambiguated", err)
}

func (r *Reconciler) contactEmail(ctx context.Context, key string, id Identity) string {
	if email := normalizeEmail(id.Email); email != "" {
		return email
	}
	if r.Resolver != nil {
		profile, ok, err := r.Resolver.Resolve(ctx, key)
		if err != nil {
			telemetry.Warn("account.identity_resolve_failed", map[string]any{
				"identity_key": key,
				"error":        err.Error(),
			})
		} else if ok {
			if email := normalizeEmail(profile.Email); email != "" {
				return email
			}
		}
	}
	return PlaceholderEmail(key)
}

// PlaceholderEmail is the contact address used when neither the session nor
// the identity provider supplies one.
func PlaceholderEmail(identityKey string) string {
	return "user-" + util.ShortHash(identityKey, 16) + "@" + placeholderEmailDomain
}

// DisambiguateEmail derives a unique address from email for an identity whose
// real address is already owned by another account: the original address is
// kept, tagged with a readable identity-key fragment plus a digest of the full
// key, under a marker domain. Keys differing only in case or punctuation get
// different addresses.
func DisambiguateEmail(email, identityKey string) string {
	digest := util.ShortHash(identityKey, disambiguationSuffixSize)
	tag := digest
	if fragment := util.Tail(util.Slug(identityKey), disambiguationSuffixSize); fragment != "" {
		tag = fragment + "-" + digest
	}
	return tagEmail(email, tag)
}

func hashedEmail(email, identityKey string) string {
	return tagEmail(email, util.ShortHash(identityKey, 32))
}

func tagEmail(email, tag string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" {
		domain = "unknown"
	}
	return fmt.Sprintf("%s+%s@%s.%s", local, tag, domain, disambiguationMarker)
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func reconcileFailure(key, step string, err error) error {
	telemetry.Error("account.reconcile_failed", map[string]any{
		"identity_key": key,
		"step":         step,
		"storage_code": StorageCode(err),
		"error":        err.Error(),
	})
	return fmt.Errorf("%w: %s: %w", ErrReconciliationFailed, step, err)
}
