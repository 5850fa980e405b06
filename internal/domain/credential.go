package domain

import (
	"fmt"
	"strings"
	"time"
)

// CredentialType identifies which platform a credential document belongs to
type CredentialType string

const (
	CredentialFacebook    CredentialType = "facebook"
	CredentialFacebookAds CredentialType = "facebook_ads"
	CredentialInstagram   CredentialType = "instagram"
	CredentialLinkedIn    CredentialType = "linkedin"
	CredentialGoogle      CredentialType = "google"
)

// IsValidCredentialType reports whether t names a supported platform
func IsValidCredentialType(t CredentialType) bool {
	switch t {
	case CredentialFacebook, CredentialFacebookAds, CredentialInstagram, CredentialLinkedIn, CredentialGoogle:
		return true
	default:
		return false
	}
}

// Credential is one platform's stored access token and identifiers for one
// user. Maps to users/{userId}/credentials/{type}; one document per
// (user, type), overwritten on re-save and never versioned.
type Credential struct {
	Type               CredentialType `firestore:"type" json:"type"`
	AccessToken        string         `firestore:"accessToken" json:"-"`
	PageID             string         `firestore:"pageId,omitempty" json:"page_id,omitempty"`
	AdAccountID        string         `firestore:"adAccountId,omitempty" json:"ad_account_id,omitempty"`
	InstagramUserID    string         `firestore:"instagramUserId,omitempty" json:"instagram_user_id,omitempty"`
	LinkedInPageID     string         `firestore:"linkedInPageId,omitempty" json:"linkedin_page_id,omitempty"`
	IsOrganizationPage bool           `firestore:"isOrganizationPage,omitempty" json:"is_organization_page,omitempty"`
	CampaignID         string         `firestore:"campaignId,omitempty" json:"campaign_id,omitempty"`
	ProfileID          string         `firestore:"profileId,omitempty" json:"profile_id,omitempty"`
	ProfileName        string         `firestore:"profileName,omitempty" json:"profile_name,omitempty"`
	CreatedAt          time.Time      `firestore:"createdAt" json:"created_at"`
	LastValidated      time.Time      `firestore:"lastValidated" json:"last_validated"`
	IsActive           bool           `firestore:"isActive" json:"is_active"`
}

// MaskedToken returns the access token with all but the last four characters
// hidden, for list responses
func (c *Credential) MaskedToken() string {
	if len(c.AccessToken) <= 4 {
		return "****"
	}
	return "****" + c.AccessToken[len(c.AccessToken)-4:]
}

// AdsConfig is the resolved configuration the campaign pipeline runs with.
// Produced by the credential resolver from facebook_ads with a facebook
// fallback; never constructed with missing fields.
type AdsConfig struct {
	AccessToken string `json:"-"`
	AdAccountID string `json:"ad_account_id"`
	PageID      string `json:"page_id"`
}

// MissingCredentialsError reports which fields could not be resolved from
// either credential source
type MissingCredentialsError struct {
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("missing credentials: %s (please reconnect your Facebook account)", strings.Join(e.Missing, ", "))
}

// MissingPageIdError is returned when an ad creative is requested without a
// configured Facebook page
type MissingPageIdError struct{}

func (e *MissingPageIdError) Error() string {
	return "missing page id: a Facebook page is required to create ad creatives"
}
