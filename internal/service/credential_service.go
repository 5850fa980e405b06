package service

import (
	"context"
	"fmt"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/repository"
	pkgcache "github.com/marketmate/marketmate-backend/pkg/cache"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// CredentialView is the masked listing entry returned to the frontend
type CredentialView struct {
	Type        domain.CredentialType `json:"type"`
	MaskedToken string                `json:"masked_token"`
	PageID      string                `json:"page_id,omitempty"`
	AdAccountID string                `json:"ad_account_id,omitempty"`
	ProfileName string                `json:"profile_name,omitempty"`
	IsActive    bool                  `json:"is_active"`
}

// CredentialService backs the manual credential-entry screens
type CredentialService struct {
	store repository.CredentialStore
	cache pkgcache.Service
}

// NewCredentialService creates a new CredentialService. cache may be nil.
func NewCredentialService(store repository.CredentialStore, cache pkgcache.Service) *CredentialService {
	return &CredentialService{store: store, cache: cache}
}

// Save overwrites one credential document and drops every cache entry
// derived from the user's credentials
func (s *CredentialService) Save(ctx context.Context, userID string, cred *domain.Credential) error {
	if !domain.IsValidCredentialType(cred.Type) {
		return fmt.Errorf("%w: unknown credential type %q", common.ErrInvalidInput, cred.Type)
	}
	if cred.AccessToken == "" {
		return fmt.Errorf("%w: accessToken is required", common.ErrInvalidInput)
	}

	if err := s.store.Save(ctx, userID, cred); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			pkglogger.Warn("invalidate cache for user %s: %v", userID, err)
		}
	}
	return nil
}

// List returns the user's connected platforms with tokens masked
func (s *CredentialService) List(ctx context.Context, userID string) ([]CredentialView, error) {
	creds, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]CredentialView, 0, len(creds))
	for _, c := range creds {
		views = append(views, CredentialView{
			Type:        c.Type,
			MaskedToken: c.MaskedToken(),
			PageID:      c.PageID,
			AdAccountID: c.AdAccountID,
			ProfileName: c.ProfileName,
			IsActive:    c.IsActive,
		})
	}
	return views, nil
}

// Deactivate marks a credential inactive; the document itself is kept
func (s *CredentialService) Deactivate(ctx context.Context, userID string, t domain.CredentialType) error {
	if !domain.IsValidCredentialType(t) {
		return fmt.Errorf("%w: unknown credential type %q", common.ErrInvalidInput, t)
	}
	if err := s.store.Deactivate(ctx, userID, t); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			pkglogger.Warn("invalidate cache for user %s: %v", userID, err)
		}
	}
	return nil
}
