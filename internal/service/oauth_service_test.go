package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
)

func facebookGraphServer(t *testing.T, withPage, withInstagram bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/"+DefaultGraphVersion+"/")

		switch {
		case path == "oauth/access_token":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "user-token"})
		case path == "me":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "fb-1", "name": "Jane Doe", "email": "jane@example.com"})
		case path == "me/accounts":
			pages := []interface{}{}
			if withPage {
				pages = append(pages, map[string]string{
					"id": "page-1", "name": "My Page", "category": "Business", "access_token": "page-token",
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": pages})
		case path == "page-1":
			resp := map[string]interface{}{"id": "page-1"}
			if withInstagram {
				resp["instagram_business_account"] = map[string]interface{}{"id": "ig-1"}
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": "unknown path " + path},
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExchangeFacebookCodeStoresPageCredential(t *testing.T) {
	server := facebookGraphServer(t, true, true)
	store := new(MockCredentialStore)
	store.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewOAuthService(store, NewGraphClientWithBase(server.URL),
		domain.OAuthConfig{ClientID: "app", ClientSecret: "secret"},
		domain.OAuthConfig{})

	result, err := svc.ExchangeFacebookCode(context.Background(), domain.ExchangeRequest{
		Code: "code-1", RedirectURI: "https://app.example.com/cb", UserID: "u1",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "fb-1", result.ProfileID)
	assert.Equal(t, "page-1", result.PageID)
	assert.Equal(t, "ig-1", result.InstagramID)

	// Both the facebook and the derived instagram credential are saved, and
	// the page token replaces the user token.
	var saved []*domain.Credential
	for _, call := range store.Calls {
		if call.Method == "Save" {
			saved = append(saved, call.Arguments.Get(2).(*domain.Credential))
		}
	}
	assert.Len(t, saved, 2)
	byType := map[domain.CredentialType]*domain.Credential{}
	for _, c := range saved {
		byType[c.Type] = c
	}
	assert.Equal(t, "page-token", byType[domain.CredentialFacebook].AccessToken)
	assert.Equal(t, "page-1", byType[domain.CredentialFacebook].PageID)
	assert.Equal(t, "ig-1", byType[domain.CredentialInstagram].InstagramUserID)
}

func TestExchangeFacebookCodeWithoutPages(t *testing.T) {
	server := facebookGraphServer(t, false, false)
	store := new(MockCredentialStore)
	store.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewOAuthService(store, NewGraphClientWithBase(server.URL),
		domain.OAuthConfig{ClientID: "app", ClientSecret: "secret"},
		domain.OAuthConfig{})

	result, err := svc.ExchangeFacebookCode(context.Background(), domain.ExchangeRequest{
		Code: "code-1", UserID: "u1",
	})

	assert.NoError(t, err)
	assert.Empty(t, result.PageID)
	assert.Empty(t, result.InstagramID)

	// Only the facebook credential, keeping the user token.
	var saved []*domain.Credential
	for _, call := range store.Calls {
		if call.Method == "Save" {
			saved = append(saved, call.Arguments.Get(2).(*domain.Credential))
		}
	}
	assert.Len(t, saved, 1)
	assert.Equal(t, "user-token", saved[0].AccessToken)
}

func TestExchangeFacebookCodeMissingAppCredentials(t *testing.T) {
	svc := NewOAuthService(new(MockCredentialStore), NewGraphClient(),
		domain.OAuthConfig{}, domain.OAuthConfig{})

	_, err := svc.ExchangeFacebookCode(context.Background(), domain.ExchangeRequest{Code: "c", UserID: "u1"})
	assert.ErrorIs(t, err, common.ErrMissingAppCredentials)
}

func TestExchangeFacebookCodeProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "This authorization code has expired.", "code": 100},
		})
	}))
	defer server.Close()

	svc := NewOAuthService(new(MockCredentialStore), NewGraphClientWithBase(server.URL),
		domain.OAuthConfig{ClientID: "app", ClientSecret: "secret"},
		domain.OAuthConfig{})

	_, err := svc.ExchangeFacebookCode(context.Background(), domain.ExchangeRequest{Code: "expired", UserID: "u1"})

	// The provider's own description passes through.
	provErr, ok := err.(*ProviderError)
	assert.True(t, ok)
	assert.Equal(t, "This authorization code has expired.", provErr.Description)
}

func linkedInServer(t *testing.T, withOrg bool, tokenBody map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/oauth/v2/accessToken":
			_ = json.NewEncoder(w).Encode(tokenBody)
		case r.URL.Path == "/v2/userinfo":
			assert.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"sub": "person-1", "name": "Jane Doe"})
		case r.URL.Path == "/v2/organizationAcls":
			if !withOrg {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"elements": []interface{}{}})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"elements": []interface{}{
					map[string]string{"organization": "urn:li:organization:54321"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExchangeLinkedInCodeOrganizationPage(t *testing.T) {
	server := linkedInServer(t, true, map[string]interface{}{"access_token": "li-token"})
	store := new(MockCredentialStore)
	store.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewOAuthService(store, NewGraphClient(),
		domain.OAuthConfig{},
		domain.OAuthConfig{ClientID: "li-app", ClientSecret: "li-secret"})
	svc.LinkedInAuthBase = server.URL
	svc.LinkedInAPIBase = server.URL

	result, err := svc.ExchangeLinkedInCode(context.Background(), domain.ExchangeRequest{
		Code: "code-1", UserID: "u1",
	})

	assert.NoError(t, err)
	assert.Equal(t, "54321", result.OrgID)

	cred := store.Calls[0].Arguments.Get(2).(*domain.Credential)
	assert.Equal(t, domain.CredentialLinkedIn, cred.Type)
	assert.Equal(t, "54321", cred.LinkedInPageID)
	assert.True(t, cred.IsOrganizationPage)
}

func TestExchangeLinkedInCodePersonalProfile(t *testing.T) {
	server := linkedInServer(t, false, map[string]interface{}{"access_token": "li-token"})
	store := new(MockCredentialStore)
	store.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewOAuthService(store, NewGraphClient(),
		domain.OAuthConfig{},
		domain.OAuthConfig{ClientID: "li-app", ClientSecret: "li-secret"})
	svc.LinkedInAuthBase = server.URL
	svc.LinkedInAPIBase = server.URL

	result, err := svc.ExchangeLinkedInCode(context.Background(), domain.ExchangeRequest{
		Code: "code-1", UserID: "u1",
	})

	assert.NoError(t, err)
	assert.Empty(t, result.OrgID)

	cred := store.Calls[0].Arguments.Get(2).(*domain.Credential)
	assert.Equal(t, "person-1", cred.LinkedInPageID)
	assert.False(t, cred.IsOrganizationPage)
}

func TestExchangeLinkedInCodeProviderRejection(t *testing.T) {
	server := linkedInServer(t, false, map[string]interface{}{
		"error":             "invalid_grant",
		"error_description": "The authorization code is invalid.",
	})

	svc := NewOAuthService(new(MockCredentialStore), NewGraphClient(),
		domain.OAuthConfig{},
		domain.OAuthConfig{ClientID: "li-app", ClientSecret: "li-secret"})
	svc.LinkedInAuthBase = server.URL
	svc.LinkedInAPIBase = server.URL

	_, err := svc.ExchangeLinkedInCode(context.Background(), domain.ExchangeRequest{Code: "bad", UserID: "u1"})

	provErr, ok := err.(*ProviderError)
	assert.True(t, ok)
	assert.Equal(t, "The authorization code is invalid.", provErr.Description)
}

func TestExchangeLinkedInCodeMissingAppCredentials(t *testing.T) {
	svc := NewOAuthService(new(MockCredentialStore), NewGraphClient(),
		domain.OAuthConfig{}, domain.OAuthConfig{})

	_, err := svc.ExchangeLinkedInCode(context.Background(), domain.ExchangeRequest{Code: "c", UserID: "u1"})
	assert.ErrorIs(t, err, common.ErrMissingAppCredentials)
}

func TestExchangeLinkedInCodeRequestOverridesWin(t *testing.T) {
	var gotClientID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth/v2/accessToken":
			_ = r.ParseForm()
			gotClientID = r.PostForm.Get("client_id")
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "li-token"})
		case "/v2/userinfo":
			_ = json.NewEncoder(w).Encode(map[string]string{"sub": "person-1", "name": "Jane"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"elements": []interface{}{}})
		}
	}))
	defer server.Close()

	store := new(MockCredentialStore)
	store.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewOAuthService(store, NewGraphClient(),
		domain.OAuthConfig{},
		domain.OAuthConfig{ClientID: "configured", ClientSecret: "configured-secret"})
	svc.LinkedInAuthBase = server.URL
	svc.LinkedInAPIBase = server.URL

	_, err := svc.ExchangeLinkedInCode(context.Background(), domain.ExchangeRequest{
		Code: "c", UserID: "u1", ClientID: "override", ClientSecret: "override-secret",
	})

	assert.NoError(t, err)
	assert.Equal(t, "override", gotClientID)
}
