package service

import (
	"context"
	"fmt"
	"net/url"
)

// InstagramService publishes content to an Instagram business account via
// the Graph API two-call sequence: create a media container, then publish
// it. Callers that treat the post as best-effort catch the error and keep
// going.
type InstagramService struct {
	graph *GraphClient
}

// NewInstagramService creates a new InstagramService
func NewInstagramService(graph *GraphClient) *InstagramService {
	return &InstagramService{graph: graph}
}

// PublishImage uploads an image post and returns the published media id
func (s *InstagramService) PublishImage(ctx context.Context, igUserID, accessToken, imageURL, caption string) (string, error) {
	container, err := s.graph.PostForm(ctx, igUserID+"/media", url.Values{
		"image_url":    {imageURL},
		"caption":      {caption},
		"access_token": {accessToken},
	})
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}
	containerID := stringField(container, "id")
	if containerID == "" {
		return "", fmt.Errorf("create media container: no id in response")
	}

	published, err := s.graph.PostForm(ctx, igUserID+"/media_publish", url.Values{
		"creation_id":  {containerID},
		"access_token": {accessToken},
	})
	if err != nil {
		return "", fmt.Errorf("publish media container: %w", err)
	}
	mediaID := stringField(published, "id")
	if mediaID == "" {
		return "", fmt.Errorf("publish media container: no id in response")
	}
	return mediaID, nil
}
