package domain

import "fmt"

// LinkedInPostRequest is the direct-publish payload
type LinkedInPostRequest struct {
	Content            string `json:"content"`
	LinkedInPageID     string `json:"linkedInPageId"`
	AccessToken        string `json:"accessToken"`
	IsOrganizationPage bool   `json:"isOrganizationPage"`
}

// AuthorURN derives the UGC post author from the page flag
func (r *LinkedInPostRequest) AuthorURN() string {
	if r.IsOrganizationPage {
		return fmt.Sprintf("urn:li:organization:%s", r.LinkedInPageID)
	}
	return fmt.Sprintf("urn:li:person:%s", r.LinkedInPageID)
}

// LinkedInPostResult reports the provider's post id
type LinkedInPostResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	Error   string `json:"error,omitempty"`
}
