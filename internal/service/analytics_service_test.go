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

// MockAnalyticsStore is a mock implementation of repository.AnalyticsStore
type MockAnalyticsStore struct {
	mock.Mock
}

func (m *MockAnalyticsStore) Get(ctx context.Context, userID, platform, postID string) (*domain.PostMetrics, error) {
	args := m.Called(ctx, userID, platform, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostMetrics), args.Error(1)
}

func (m *MockAnalyticsStore) Save(ctx context.Context, userID string, metrics *domain.PostMetrics) error {
	args := m.Called(ctx, userID, metrics)
	return args.Error(0)
}

// metricsGraphServer answers the post-fields call and optionally the
// insights call
func metricsGraphServer(t *testing.T, insightsAvailable bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if strings.HasSuffix(r.URL.Path, "/insights") {
			if !insightsAvailable {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{"message": "Insights unavailable", "code": 10},
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []interface{}{
					map[string]interface{}{
						"name":   "post_impressions",
						"values": []interface{}{map[string]interface{}{"value": 200}},
					},
					map[string]interface{}{
						"name":   "post_clicks",
						"values": []interface{}{map[string]interface{}{"value": 5}},
					},
				},
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"likes":    map[string]interface{}{"summary": map[string]interface{}{"total_count": 10}},
			"comments": map[string]interface{}{"summary": map[string]interface{}{"total_count": 2}},
			"shares":   map[string]interface{}{"count": 1},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func facebookCredStore() *MockCredentialStore {
	store := new(MockCredentialStore)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebook).Return(&domain.Credential{
		Type:        domain.CredentialFacebook,
		AccessToken: "token",
		IsActive:    true,
	}, nil)
	return store
}

func TestGetPostMetricsComputesDerivedFields(t *testing.T) {
	server := metricsGraphServer(t, true)
	creds := facebookCredStore()
	analytics := new(MockAnalyticsStore)
	analytics.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewAnalyticsService(NewGraphClientWithBase(server.URL), creds, analytics, nil)
	m, err := svc.GetPostMetrics(context.Background(), "u1", "facebook", "post-1", false)

	assert.NoError(t, err)
	assert.Equal(t, 10, m.Likes)
	assert.Equal(t, 2, m.Comments)
	assert.Equal(t, 1, m.Shares)
	assert.Equal(t, 5, m.Clicks)
	assert.Equal(t, 200, m.Impressions)
	assert.Equal(t, 18, m.Engagement)
	assert.InDelta(t, 2.5, m.CTR, 0.0001)
	assert.False(t, m.FetchedAt.IsZero())
	analytics.AssertCalled(t, "Save", mock.Anything, "u1", mock.Anything)
}

func TestGetPostMetricsInsightsUnavailable(t *testing.T) {
	server := metricsGraphServer(t, false)
	creds := facebookCredStore()
	analytics := new(MockAnalyticsStore)
	analytics.On("Save", mock.Anything, "u1", mock.Anything).Return(nil)

	svc := NewAnalyticsService(NewGraphClientWithBase(server.URL), creds, analytics, nil)
	m, err := svc.GetPostMetrics(context.Background(), "u1", "facebook", "post-1", false)

	// Missing insights degrade to zeros instead of failing the read.
	assert.NoError(t, err)
	assert.Equal(t, 0, m.Impressions)
	assert.Equal(t, 0, m.Clicks)
	assert.Equal(t, 13, m.Engagement)
	assert.Zero(t, m.CTR)
}

func TestGetPostMetricsUnsupportedPlatform(t *testing.T) {
	svc := NewAnalyticsService(NewGraphClient(), new(MockCredentialStore), new(MockAnalyticsStore), nil)
	_, err := svc.GetPostMetrics(context.Background(), "u1", "tiktok", "post-1", false)

	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGetPostMetricsMissingCredential(t *testing.T) {
	store := new(MockCredentialStore)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebook).Return(nil, nil)

	svc := NewAnalyticsService(NewGraphClient(), store, new(MockAnalyticsStore), nil)
	_, err := svc.GetPostMetrics(context.Background(), "u1", "facebook", "post-1", false)

	assert.Error(t, err)
	assert.IsType(t, &domain.MissingCredentialsError{}, err)
}

func TestFetchPostMetricsInstagram(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/insights") {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []interface{}{
					map[string]interface{}{
						"name":   "impressions",
						"values": []interface{}{map[string]interface{}{"value": 90}},
					},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"like_count":     float64(4),
			"comments_count": float64(3),
		})
	}))
	defer server.Close()

	svc := NewAnalyticsService(NewGraphClientWithBase(server.URL), new(MockCredentialStore), new(MockAnalyticsStore), nil)
	m, err := svc.FetchPostMetrics(context.Background(), "instagram", "media-1", "tok")

	assert.NoError(t, err)
	assert.Equal(t, 4, m.Likes)
	assert.Equal(t, 3, m.Comments)
	assert.Equal(t, 90, m.Impressions)
	assert.Equal(t, 7, m.Engagement)
}
