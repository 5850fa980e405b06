package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/repository"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

const (
	defaultLinkedInAuthBase = "https://www.linkedin.com"
	defaultLinkedInAPIBase  = "https://api.linkedin.com"
)

// ProviderError is a rejection from the provider's token endpoint. Handlers
// map it to 400 with the provider's own description passed through.
type ProviderError struct {
	Description string
}

func (e *ProviderError) Error() string {
	return e.Description
}

// OAuthService exchanges authorization codes for access tokens and persists
// the resulting credential documents
type OAuthService struct {
	store    repository.CredentialStore
	graph    *GraphClient
	facebook domain.OAuthConfig
	linkedin domain.OAuthConfig
	http     *http.Client

	// Overridable for tests
	LinkedInAuthBase string
	LinkedInAPIBase  string
}

// NewOAuthService creates a new OAuthService
func NewOAuthService(store repository.CredentialStore, graph *GraphClient, facebook, linkedin domain.OAuthConfig) *OAuthService {
	return &OAuthService{
		store:            store,
		graph:            graph,
		facebook:         facebook,
		linkedin:         linkedin,
		http:             &http.Client{Timeout: 10 * time.Second},
		LinkedInAuthBase: defaultLinkedInAuthBase,
		LinkedInAPIBase:  defaultLinkedInAPIBase,
	}
}

// ExchangeFacebookCode exchanges a Facebook authorization code, fetches the
// user's profile and managed pages, probes the first page for a linked
// Instagram business account, and persists the credential documents.
func (s *OAuthService) ExchangeFacebookCode(ctx context.Context, req domain.ExchangeRequest) (*domain.ExchangeResult, error) {
	if s.facebook.ClientID == "" || s.facebook.ClientSecret == "" {
		return nil, common.ErrMissingAppCredentials
	}

	tokenResp, err := s.graph.Get(ctx, "oauth/access_token", url.Values{
		"client_id":     {s.facebook.ClientID},
		"client_secret": {s.facebook.ClientSecret},
		"redirect_uri":  {req.RedirectURI},
		"code":          {req.Code},
	})
	if err != nil {
		if ge, ok := err.(*GraphError); ok {
			return nil, &ProviderError{Description: ge.Message}
		}
		return nil, err
	}
	userToken := stringField(tokenResp, "access_token")
	if userToken == "" {
		return nil, &ProviderError{Description: "no access token in provider response"}
	}

	// Profile and page listing are independent; fetch them concurrently.
	var profile domain.FacebookProfile
	var pages domain.FacebookPageList

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := s.graph.Get(gctx, "me", url.Values{
			"fields":       {"id,name,email"},
			"access_token": {userToken},
		})
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		profile.ID = stringField(resp, "id")
		profile.Name = stringField(resp, "name")
		profile.Email = stringField(resp, "email")
		return nil
	})
	g.Go(func() error {
		resp, err := s.graph.Get(gctx, "me/accounts", url.Values{
			"access_token": {userToken},
		})
		if err != nil {
			return fmt.Errorf("fetch pages: %w", err)
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &pages)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &domain.ExchangeResult{
		Success:     true,
		UserID:      req.UserID,
		Provider:    string(domain.OAuthProviderFacebook),
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
	}

	cred := &domain.Credential{
		Type:        domain.CredentialFacebook,
		AccessToken: userToken,
		ProfileID:   profile.ID,
		ProfileName: profile.Name,
	}

	if len(pages.Data) > 0 {
		page := pages.Data[0]
		// The page-level token is what downstream publish and creative
		// calls need; it replaces the short-lived user token.
		cred.AccessToken = page.AccessToken
		cred.PageID = page.ID
		result.PageID = page.ID
		result.PageName = page.Name

		if ig := s.instagramAccountFor(ctx, page); ig != nil {
			result.InstagramID = ig.ID
			igCred := &domain.Credential{
				Type:            domain.CredentialInstagram,
				AccessToken:     page.AccessToken,
				PageID:          page.ID,
				InstagramUserID: ig.ID,
			}
			if err := s.store.Save(ctx, req.UserID, igCred); err != nil {
				return nil, fmt.Errorf("save instagram credential: %w", err)
			}
		}
	}

	if err := s.store.Save(ctx, req.UserID, cred); err != nil {
		return nil, fmt.Errorf("save facebook credential: %w", err)
	}
	return result, nil
}

// instagramAccountFor probes a page for a linked Instagram business
// account. Absence is normal and returns nil.
func (s *OAuthService) instagramAccountFor(ctx context.Context, page domain.FacebookPage) *domain.InstagramBusinessAccount {
	resp, err := s.graph.Get(ctx, page.ID, url.Values{
		"fields":       {"instagram_business_account"},
		"access_token": {page.AccessToken},
	})
	if err != nil {
		pkglogger.Warn("instagram account probe for page %s: %v", page.ID, err)
		return nil
	}
	igRaw, ok := resp["instagram_business_account"].(map[string]interface{})
	if !ok {
		return nil
	}
	id, _ := igRaw["id"].(string)
	if id == "" {
		return nil
	}
	return &domain.InstagramBusinessAccount{ID: id}
}

// ExchangeLinkedInCode exchanges a LinkedIn authorization code, fetches the
// basic profile and administered organization pages, and persists the
// linkedin credential. Request-level client id/secret overrides win over
// the configured app credentials.
func (s *OAuthService) ExchangeLinkedInCode(ctx context.Context, req domain.ExchangeRequest) (*domain.ExchangeResult, error) {
	clientID := req.ClientID
	clientSecret := req.ClientSecret
	if clientID == "" {
		clientID = s.linkedin.ClientID
	}
	if clientSecret == "" {
		clientSecret = s.linkedin.ClientSecret
	}
	if clientID == "" || clientSecret == "" {
		return nil, common.ErrMissingAppCredentials
	}

	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {req.Code},
		"redirect_uri":  {req.RedirectURI},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}

	tokenResp, err := s.postForm(ctx, s.LinkedInAuthBase+"/oauth/v2/accessToken", params)
	if err != nil {
		return nil, err
	}
	if desc, ok := tokenResp["error_description"].(string); ok && desc != "" {
		return nil, &ProviderError{Description: desc}
	}
	if errCode, ok := tokenResp["error"].(string); ok && errCode != "" {
		return nil, &ProviderError{Description: errCode}
	}
	accessToken := stringField(tokenResp, "access_token")
	if accessToken == "" {
		return nil, &ProviderError{Description: "no access token in provider response"}
	}

	profile, err := s.linkedInProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	result := &domain.ExchangeResult{
		Success:     true,
		UserID:      req.UserID,
		Provider:    string(domain.OAuthProviderLinkedIn),
		ProfileID:   profile.Sub,
		ProfileName: profile.Name,
	}

	cred := &domain.Credential{
		Type:           domain.CredentialLinkedIn,
		AccessToken:    accessToken,
		LinkedInPageID: profile.Sub,
		ProfileID:      profile.Sub,
		ProfileName:    profile.Name,
	}

	// Organization lookup is best-effort: a personal account with no
	// administered pages is still a successful connection.
	if org := s.linkedInOrganization(ctx, accessToken); org != nil {
		cred.LinkedInPageID = org.ID
		cred.IsOrganizationPage = true
		result.OrgID = org.ID
	}

	if err := s.store.Save(ctx, req.UserID, cred); err != nil {
		return nil, fmt.Errorf("save linkedin credential: %w", err)
	}
	return result, nil
}

func (s *OAuthService) linkedInProfile(ctx context.Context, accessToken string) (*domain.LinkedInProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.LinkedInAPIBase+"/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch linkedin profile failed (http %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile domain.LinkedInProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("parse profile response: %w", err)
	}
	return &profile, nil
}

// linkedInOrganization returns the first organization the user administers,
// or nil
func (s *OAuthService) linkedInOrganization(ctx context.Context, accessToken string) *domain.LinkedInOrganization {
	u := s.LinkedInAPIBase + "/v2/organizationAcls?q=roleAssignee&role=ADMINISTRATOR&state=APPROVED"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.http.Do(req)
	if err != nil {
		pkglogger.Warn("linkedin organization lookup: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil
	}

	var payload struct {
		Elements []struct {
			Organization string `json:"organization"` // urn:li:organization:<id>
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || len(payload.Elements) == 0 {
		return nil
	}

	urn := payload.Elements[0].Organization
	id := urn[strings.LastIndex(urn, ":")+1:]
	if id == "" {
		return nil
	}
	return &domain.LinkedInOrganization{ID: id}
}

func (s *OAuthService) postForm(ctx context.Context, endpoint string, params url.Values) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response body: %w", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	return result, nil
}
