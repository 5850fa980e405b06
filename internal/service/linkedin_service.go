package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marketmate/marketmate-backend/internal/domain"
)

// LinkedInService publishes UGC posts directly with a caller-supplied
// access token. Single call, provider response surfaced verbatim.
type LinkedInService struct {
	http *http.Client

	// Overridable for tests
	APIBase string
}

// NewLinkedInService creates a new LinkedInService
func NewLinkedInService() *LinkedInService {
	return &LinkedInService{
		http:    &http.Client{Timeout: 15 * time.Second},
		APIBase: defaultLinkedInAPIBase,
	}
}

// ugcPost is the LinkedIn UGC post payload
type ugcPost struct {
	Author          string                 `json:"author"`
	LifecycleState  string                 `json:"lifecycleState"`
	SpecificContent map[string]interface{} `json:"specificContent"`
	Visibility      map[string]string      `json:"visibility"`
}

// PublishPost creates a UGC post authored by the page or person named in
// the request and returns the provider's post id
func (s *LinkedInService) PublishPost(ctx context.Context, post domain.LinkedInPostRequest) (string, error) {
	payload := ugcPost{
		Author:         post.AuthorURN(),
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": post.Content},
				"shareMediaCategory": "NONE",
			},
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIBase+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+post.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read publish response: %w", err)
	}

	if resp.StatusCode >= 300 {
		// Pass the provider's message through untouched.
		var apiErr struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return "", fmt.Errorf("linkedin publish failed: %s", apiErr.Message)
		}
		return "", fmt.Errorf("linkedin publish failed (http %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// The post id arrives in the body or the X-RestLi-Id header depending
	// on the endpoint version.
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err == nil && created.ID != "" {
		return created.ID, nil
	}
	if id := resp.Header.Get("X-RestLi-Id"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("linkedin publish succeeded but no post id was returned")
}
