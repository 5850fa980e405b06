package domain

// OAuthProvider represents supported OAuth providers
type OAuthProvider string

const (
	OAuthProviderFacebook OAuthProvider = "facebook"
	OAuthProviderLinkedIn OAuthProvider = "linkedin"
)

// OAuthConfig holds app credentials for an OAuth provider
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
}

// ExchangeRequest is the code-exchange payload shared by both providers.
// ClientID/ClientSecret overrides are honored for LinkedIn only.
type ExchangeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirectUri"`
	UserID       string `json:"userId"`
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// FacebookProfile is the Graph API user profile shape
type FacebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// FacebookPage is one entry of the managed-pages listing. The page-level
// access token is what downstream publish and creative calls use.
type FacebookPage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	AccessToken string `json:"access_token"`
}

// FacebookPageList wraps the Graph API "data" envelope
type FacebookPageList struct {
	Data []FacebookPage `json:"data"`
}

// InstagramBusinessAccount is the Instagram account linked to a page
type InstagramBusinessAccount struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// LinkedInProfile is the basic profile returned by the LinkedIn userinfo
// endpoint
type LinkedInProfile struct {
	Sub       string `json:"sub"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	GivenName string `json:"given_name,omitempty"`
}

// LinkedInOrganization is one organization page the user administers
type LinkedInOrganization struct {
	ID   string `json:"id"`
	Name string `json:"localizedName"`
}

// ExchangeResult is returned to the frontend after a successful
// code exchange and credential persist
type ExchangeResult struct {
	Success     bool   `json:"success"`
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
	ProfileID   string `json:"profile_id,omitempty"`
	ProfileName string `json:"profile_name,omitempty"`
	PageID      string `json:"page_id,omitempty"`
	PageName    string `json:"page_name,omitempty"`
	InstagramID string `json:"instagram_id,omitempty"`
	OrgID       string `json:"organization_id,omitempty"`
}
