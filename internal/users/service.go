package users

import (
	"context"
	"errors"
	"strings"

	"resume-builder/internal/accounts"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth so the account
// reconciler can find a contact email for callers whose token lacks one.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// Resolve implements accounts.IdentityResolver.
func (s *Service) Resolve(ctx context.Context, identityKey string) (accounts.IdentityProfile, bool, error) {
	user, err := s.GetByID(ctx, identityKey)
	if errors.Is(err, ErrNotFound) {
		return accounts.IdentityProfile{}, false, nil
	}
	if err != nil {
		return accounts.IdentityProfile{}, false, err
	}
	return accounts.IdentityProfile{Email: user.Email, DisplayName: user.DisplayName}, true, nil
}

var _ accounts.IdentityResolver = (*Service)(nil)
