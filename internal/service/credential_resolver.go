package service

import (
	"context"

	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/repository"
	pkgcache "github.com/marketmate/marketmate-backend/pkg/cache"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// CredentialResolver turns stored credential documents into the resolved
// configuration the ads pipeline runs with. The fallback order is a
// first-class contract:
//
//  1. access token / ad account id: credentials/facebook_ads, else
//     credentials/facebook, else the configured env defaults;
//  2. page id: always credentials/facebook (creatives need a page
//     regardless of which ads credential source won), else the env default.
type CredentialResolver struct {
	store repository.CredentialStore
	cache pkgcache.Service

	// Env-provided fallbacks (FACEBOOK_AD_ACCOUNT_ID, FACEBOOK_PAGE_ID)
	DefaultAdAccountID string
	DefaultPageID      string
}

// NewCredentialResolver creates a resolver. cache may be nil.
func NewCredentialResolver(store repository.CredentialStore, cache pkgcache.Service) *CredentialResolver {
	return &CredentialResolver{store: store, cache: cache}
}

// ResolveAdsConfig resolves the ads access token, ad account id and page id
// for a user, or fails with MissingCredentialsError naming every field that
// could not be resolved. Read-only: no documents are written.
func (r *CredentialResolver) ResolveAdsConfig(ctx context.Context, userID string) (*domain.AdsConfig, error) {
	if r.cache != nil {
		var cached domain.AdsConfig
		if err := r.cache.GetAdsConfig(ctx, userID, &cached); err == nil && cached.AccessToken != "" {
			return &cached, nil
		}
	}

	adsCred, err := r.store.Get(ctx, userID, domain.CredentialFacebookAds)
	if err != nil {
		return nil, err
	}
	fbCred, err := r.store.Get(ctx, userID, domain.CredentialFacebook)
	if err != nil {
		return nil, err
	}

	cfg := &domain.AdsConfig{}

	if adsCred != nil && adsCred.AccessToken != "" {
		cfg.AccessToken = adsCred.AccessToken
		cfg.AdAccountID = adsCred.AdAccountID
	} else if fbCred != nil && fbCred.AccessToken != "" {
		// Page-level credentials reused as an approximation of ads
		// credentials when no dedicated ads credential was connected.
		pkglogger.Warn("user %s has no facebook_ads credential, falling back to facebook", userID)
		cfg.AccessToken = fbCred.AccessToken
		cfg.AdAccountID = fbCred.AdAccountID
	}

	if cfg.AdAccountID == "" {
		cfg.AdAccountID = r.DefaultAdAccountID
	}

	if fbCred != nil && fbCred.PageID != "" {
		cfg.PageID = fbCred.PageID
	} else if adsCred != nil && adsCred.PageID != "" {
		cfg.PageID = adsCred.PageID
	} else {
		cfg.PageID = r.DefaultPageID
	}

	// PageID stays empty when nothing provides one. The pipeline checks it
	// before its first external call and reports the page-specific error;
	// campaign-only creation runs fine without a page.
	var missing []string
	if cfg.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if cfg.AdAccountID == "" {
		missing = append(missing, "adAccountId")
	}
	if len(missing) > 0 {
		return nil, &domain.MissingCredentialsError{Missing: missing}
	}

	if r.cache != nil {
		if err := r.cache.SetAdsConfig(ctx, userID, cfg); err != nil {
			pkglogger.Warn("failed to cache ads config for %s: %v", userID, err)
		}
	}
	return cfg, nil
}

// InstagramUserID returns the connected Instagram business account id, or
// empty when none is configured. Errors other than absence propagate.
func (r *CredentialResolver) InstagramUserID(ctx context.Context, userID string) (string, string, error) {
	cred, err := r.store.Get(ctx, userID, domain.CredentialInstagram)
	if err != nil {
		return "", "", err
	}
	if cred == nil || !cred.IsActive {
		return "", "", nil
	}
	return cred.InstagramUserID, cred.AccessToken, nil
}
