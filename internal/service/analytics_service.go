package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/repository"
	pkgcache "github.com/marketmate/marketmate-backend/pkg/cache"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// AnalyticsService fetches post engagement metrics from the Graph API,
// computes the derived numbers, and snapshots them into Firestore with a
// short-lived Redis cache in front.
type AnalyticsService struct {
	graph *GraphClient
	creds repository.CredentialStore
	store repository.AnalyticsStore
	cache pkgcache.Service

	nowFn func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService. cache may be nil.
func NewAnalyticsService(graph *GraphClient, creds repository.CredentialStore, store repository.AnalyticsStore, cache pkgcache.Service) *AnalyticsService {
	return &AnalyticsService{
		graph: graph,
		creds: creds,
		store: store,
		cache: cache,
		nowFn: time.Now,
	}
}

// GetPostMetrics returns metrics for one post, from cache unless refresh is
// set. Supported platforms: facebook, instagram.
func (s *AnalyticsService) GetPostMetrics(ctx context.Context, userID, platform, postID string, refresh bool) (*domain.PostMetrics, error) {
	if platform != "facebook" && platform != "instagram" {
		return nil, fmt.Errorf("%w: unsupported platform %q", common.ErrInvalidInput, platform)
	}

	if !refresh && s.cache != nil {
		var cached domain.PostMetrics
		if err := s.cache.GetAnalytics(ctx, userID, platform, postID, &cached); err == nil && cached.PostID != "" {
			return &cached, nil
		}
	}

	credType := domain.CredentialFacebook
	if platform == "instagram" {
		credType = domain.CredentialInstagram
	}
	cred, err := s.creds.Get(ctx, userID, credType)
	if err != nil {
		return nil, err
	}
	if cred == nil || cred.AccessToken == "" {
		return nil, &domain.MissingCredentialsError{Missing: []string{"accessToken"}}
	}

	var metrics *domain.PostMetrics
	if platform == "facebook" {
		metrics, err = s.fetchFacebookMetrics(ctx, postID, cred.AccessToken)
	} else {
		metrics, err = s.fetchInstagramMetrics(ctx, postID, cred.AccessToken)
	}
	if err != nil {
		return nil, err
	}

	metrics.FetchedAt = s.nowFn()
	metrics.Compute()

	if err := s.store.Save(ctx, userID, metrics); err != nil {
		// Snapshot persistence is not worth failing the read for.
		pkglogger.Warn("save analytics snapshot %s_%s for %s: %v", platform, postID, userID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetAnalytics(ctx, userID, platform, postID, metrics); err != nil {
			pkglogger.Warn("cache analytics snapshot %s_%s: %v", platform, postID, err)
		}
	}
	return metrics, nil
}

// FetchPostMetrics fetches metrics with an explicit caller-supplied token,
// bypassing the credential store, the snapshot store, and the cache. Serves
// the preview endpoint.
func (s *AnalyticsService) FetchPostMetrics(ctx context.Context, platform, postID, accessToken string) (*domain.PostMetrics, error) {
	var metrics *domain.PostMetrics
	var err error
	switch platform {
	case "facebook":
		metrics, err = s.fetchFacebookMetrics(ctx, postID, accessToken)
	case "instagram":
		metrics, err = s.fetchInstagramMetrics(ctx, postID, accessToken)
	default:
		return nil, fmt.Errorf("%w: unsupported platform %q", common.ErrInvalidInput, platform)
	}
	if err != nil {
		return nil, err
	}
	metrics.FetchedAt = s.nowFn()
	metrics.Compute()
	return metrics, nil
}

func (s *AnalyticsService) fetchFacebookMetrics(ctx context.Context, postID, token string) (*domain.PostMetrics, error) {
	resp, err := s.graph.Get(ctx, postID, url.Values{
		"fields":       {"likes.summary(true),comments.summary(true),shares"},
		"access_token": {token},
	})
	if err != nil {
		return nil, err
	}

	m := &domain.PostMetrics{PostID: postID, Platform: "facebook"}
	m.Likes = summaryTotal(resp, "likes")
	m.Comments = summaryTotal(resp, "comments")
	if shares, ok := resp["shares"].(map[string]interface{}); ok {
		if count, ok := shares["count"].(float64); ok {
			m.Shares = int(count)
		}
	}

	// Insights need a page token and may be absent for older posts; missing
	// metrics stay zero rather than failing the whole read.
	insights, err := s.graph.Get(ctx, postID+"/insights", url.Values{
		"metric":       {"post_impressions,post_clicks"},
		"access_token": {token},
	})
	if err != nil {
		pkglogger.Warn("fetch insights for post %s: %v", postID, err)
		return m, nil
	}
	m.Impressions, m.Clicks = insightValues(insights)
	return m, nil
}

func (s *AnalyticsService) fetchInstagramMetrics(ctx context.Context, mediaID, token string) (*domain.PostMetrics, error) {
	resp, err := s.graph.Get(ctx, mediaID, url.Values{
		"fields":       {"like_count,comments_count"},
		"access_token": {token},
	})
	if err != nil {
		return nil, err
	}

	m := &domain.PostMetrics{PostID: mediaID, Platform: "instagram"}
	if v, ok := resp["like_count"].(float64); ok {
		m.Likes = int(v)
	}
	if v, ok := resp["comments_count"].(float64); ok {
		m.Comments = int(v)
	}

	insights, err := s.graph.Get(ctx, mediaID+"/insights", url.Values{
		"metric":       {"impressions"},
		"access_token": {token},
	})
	if err != nil {
		pkglogger.Warn("fetch insights for media %s: %v", mediaID, err)
		return m, nil
	}
	m.Impressions, _ = insightValues(insights)
	return m, nil
}

// summaryTotal reads <field>.summary.total_count
func summaryTotal(resp map[string]interface{}, field string) int {
	obj, ok := resp[field].(map[string]interface{})
	if !ok {
		return 0
	}
	summary, ok := obj["summary"].(map[string]interface{})
	if !ok {
		return 0
	}
	if total, ok := summary["total_count"].(float64); ok {
		return int(total)
	}
	return 0
}

// insightValues extracts impressions and clicks from the insights data
// array; metrics not present come back zero
func insightValues(resp map[string]interface{}) (impressions, clicks int) {
	data, ok := resp["data"].([]interface{})
	if !ok {
		return 0, 0
	}
	for _, item := range data {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		values, ok := entry["values"].([]interface{})
		if !ok || len(values) == 0 {
			continue
		}
		first, ok := values[0].(map[string]interface{})
		if !ok {
			continue
		}
		v, ok := first["value"].(float64)
		if !ok {
			continue
		}
		switch name {
		case "post_impressions", "impressions":
			impressions = int(v)
		case "post_clicks":
			clicks = int(v)
		}
	}
	return impressions, clicks
}
