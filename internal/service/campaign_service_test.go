package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/marketmate/marketmate-backend/internal/domain"
)

// graphStub records every Graph API call and answers each endpoint with a
// canned response. Failing endpoints return a Graph-style error body.
type graphStub struct {
	server   *httptest.Server
	calls    []string
	params   map[string]map[string]string
	failures map[string]string // endpoint suffix -> error message
}

func newGraphStub(t *testing.T) *graphStub {
	t.Helper()
	stub := &graphStub{
		params:   make(map[string]map[string]string),
		failures: make(map[string]string),
	}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/"+DefaultGraphVersion+"/")
		stub.calls = append(stub.calls, path)

		_ = r.ParseForm()
		recorded := make(map[string]string)
		for k := range r.PostForm {
			recorded[k] = r.PostForm.Get(k)
		}
		stub.params[path] = recorded

		w.Header().Set("Content-Type", "application/json")
		for suffix, msg := range stub.failures {
			if strings.HasSuffix(path, suffix) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{"message": msg, "code": 100},
				})
				return
			}
		}
		if strings.HasSuffix(path, "/adimages") {
			// Image uploads answer with a hash, not an id.
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"images": map[string]interface{}{
					"a.png": map[string]interface{}{"hash": "hash-" + path},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "id-" + path})
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *graphStub) failOn(suffix, message string) {
	s.failures[suffix] = message
}

func adsStoreFor(userID string) *MockCredentialStore {
	store := new(MockCredentialStore)
	store.On("Get", mock.Anything, userID, domain.CredentialFacebookAds).Return(&domain.Credential{
		Type:        domain.CredentialFacebookAds,
		AccessToken: "ads-token",
		AdAccountID: "999", // no act_ prefix on purpose
		IsActive:    true,
	}, nil)
	store.On("Get", mock.Anything, userID, domain.CredentialFacebook).Return(&domain.Credential{
		Type:        domain.CredentialFacebook,
		AccessToken: "fb-token",
		PageID:      "page-1",
		IsActive:    true,
	}, nil)
	return store
}

func newTestCampaignService(stub *graphStub, store *MockCredentialStore) *CampaignService {
	graph := NewGraphClientWithBase(stub.server.URL)
	resolver := NewCredentialResolver(store, nil)
	return NewCampaignService(graph, resolver, NewInstagramService(graph), store)
}

func TestRunAdFromPostStepOrder(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Spring Sale",
		PostID:       "post-7",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{
		"act_999/campaigns",
		"act_999/adsets",
		"act_999/ads",
	}, stub.calls)
	assert.Equal(t, "id-act_999/campaigns", result.CampaignID)
	assert.Equal(t, "id-act_999/adsets", result.AdSetID)
	assert.Equal(t, "id-act_999/ads", result.AdID)
	assert.Empty(t, result.CreativeID)

	// The ad references the organic post as its object story.
	creative := stub.params["act_999/ads"]["creative"]
	assert.JSONEq(t, `{"object_story_id":"page-1_post-7"}`, creative)
}

func TestRunFullCampaignStepOrder(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		Variant:      domain.VariantFullCampaign,
		CampaignName: "Launch",
		ImageURL:     "https://example.com/a.png",
		LinkURL:      "https://example.com",
		Message:      "Buy now",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{
		"act_999/campaigns",
		"act_999/adsets",
		"act_999/adimages",
		"act_999/adcreatives",
		"act_999/ads",
	}, stub.calls)
	assert.NotEmpty(t, result.CreativeID)
}

func TestRunCampaignFailureStopsDownstream(t *testing.T) {
	stub := newGraphStub(t)
	stub.failOn("/campaigns", "Invalid objective")
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Doomed",
		PostID:       "post-1",
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StepCreateCampaign, result.FailedStep)
	assert.Contains(t, result.Error, "Invalid objective")
	// No downstream call ever fires after the campaign step fails.
	assert.Equal(t, []string{"act_999/campaigns"}, stub.calls)
}

func TestRunAdSetFailureKeepsCampaignID(t *testing.T) {
	stub := newGraphStub(t)
	stub.failOn("/adsets", "Daily budget too low")
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Partial",
		PostID:       "post-1",
	})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, domain.StepCreateAdSet, result.FailedStep)
	// Nothing is rolled back: the orphaned campaign id stays in the report.
	assert.Equal(t, "id-act_999/campaigns", result.CampaignID)
	assert.Equal(t, []string{"act_999/campaigns", "act_999/adsets"}, stub.calls)
}

func TestRunFullCampaignRequiresPage(t *testing.T) {
	stub := newGraphStub(t)
	store := new(MockCredentialStore)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebookAds).Return(&domain.Credential{
		Type:        domain.CredentialFacebookAds,
		AccessToken: "ads-token",
		AdAccountID: "999",
	}, nil)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebook).Return(nil, nil)
	svc := newTestCampaignService(stub, store)

	_, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		Variant:      domain.VariantFullCampaign,
		CampaignName: "No Page",
		ImageURL:     "https://example.com/a.png",
		LinkURL:      "https://example.com",
		Message:      "m",
	})

	assert.Error(t, err)
	assert.IsType(t, &domain.MissingPageIdError{}, err)
	// Fails before the first external call.
	assert.Empty(t, stub.calls)
}

func TestRunAdFromPostRequiresPage(t *testing.T) {
	stub := newGraphStub(t)
	store := new(MockCredentialStore)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebookAds).Return(&domain.Credential{
		Type:        domain.CredentialFacebookAds,
		AccessToken: "ads-token",
		AdAccountID: "999",
	}, nil)
	store.On("Get", mock.Anything, "u1", domain.CredentialFacebook).Return(nil, nil)
	svc := newTestCampaignService(stub, store)

	// Without a page there is no way to form "<pageId>_<postId>"; the run
	// must not create a campaign and ad set it cannot finish.
	_, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "No Page",
		PostID:       "post-7",
	})

	assert.Error(t, err)
	assert.IsType(t, &domain.MissingPageIdError{}, err)
	assert.Empty(t, stub.calls)
}

func TestRunDefaultScheduleWindow(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return now }

	_, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Scheduled",
		PostID:       "post-1",
	})
	assert.NoError(t, err)

	params := stub.params["act_999/adsets"]
	start, perr := time.Parse(time.RFC3339, params["start_time"])
	assert.NoError(t, perr)
	end, perr := time.Parse(time.RFC3339, params["end_time"])
	assert.NoError(t, perr)

	assert.True(t, start.Equal(now.Add(time.Minute)), "start should be one minute out, got %s", start)
	assert.Equal(t, 48*time.Hour, end.Sub(start))
	assert.Equal(t, "PAUSED", params["status"])
	assert.Equal(t, "1000", params["daily_budget"])
}

func TestRunTargetingCountriesConverted(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	svc := newTestCampaignService(stub, store)

	_, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Geo",
		PostID:       "post-1",
		Targeting:    domain.Targeting{Countries: []string{"United States", "Germany"}},
	})
	assert.NoError(t, err)

	var targeting map[string]interface{}
	assert.NoError(t, json.Unmarshal([]byte(stub.params["act_999/adsets"]["targeting"]), &targeting))
	geo := targeting["geo_locations"].(map[string]interface{})
	assert.Equal(t, []interface{}{"US", "DE"}, geo["countries"])
}

func TestRunInstagramCrossPostIsBestEffort(t *testing.T) {
	stub := newGraphStub(t)
	stub.failOn("/media", "Media upload rejected")
	store := adsStoreFor("u1")
	store.On("Get", mock.Anything, "u1", domain.CredentialInstagram).Return(&domain.Credential{
		Type:            domain.CredentialInstagram,
		AccessToken:     "ig-token",
		InstagramUserID: "ig-user",
		IsActive:        true,
	}, nil)
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName:  "Cross Post",
		PostID:        "post-1",
		ImageURL:      "https://example.com/a.png",
		Caption:       "hello",
		InstagramPost: true,
	})

	assert.NoError(t, err)
	// The Instagram failure never fails the run.
	assert.True(t, result.Success)
	assert.Empty(t, result.InstagramPostID)
	assert.Empty(t, result.FailedStep)

	var igStep *domain.StepResult
	for i := range result.Steps {
		if result.Steps[i].Step == domain.StepInstagramPost {
			igStep = &result.Steps[i]
		}
	}
	assert.NotNil(t, igStep)
	assert.False(t, igStep.Succeeded)
}

func TestRunInstagramCrossPostSuccess(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	store.On("Get", mock.Anything, "u1", domain.CredentialInstagram).Return(&domain.Credential{
		Type:            domain.CredentialInstagram,
		AccessToken:     "ig-token",
		InstagramUserID: "ig-user",
		IsActive:        true,
	}, nil)
	svc := newTestCampaignService(stub, store)

	result, err := svc.Run(context.Background(), "u1", domain.PipelineRequest{
		CampaignName:  "Cross Post",
		PostID:        "post-1",
		ImageURL:      "https://example.com/a.png",
		Caption:       "hello",
		InstagramPost: true,
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "id-ig-user/media_publish", result.InstagramPostID)
}

func TestCreateCampaignOnlyPersistsID(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	store.On("UpdateFields", mock.Anything, "u1", domain.CredentialFacebookAds, mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["campaignId"] == "id-act_999/campaigns"
	})).Return(nil)
	svc := newTestCampaignService(stub, store)

	result, err := svc.CreateCampaignOnly(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Shell",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"act_999/campaigns"}, stub.calls)
	store.AssertCalled(t, "UpdateFields", mock.Anything, "u1", domain.CredentialFacebookAds, mock.Anything)
}

func TestCreateCampaignOnlyPersistFailureIsNonFatal(t *testing.T) {
	stub := newGraphStub(t)
	store := adsStoreFor("u1")
	store.On("UpdateFields", mock.Anything, "u1", domain.CredentialFacebookAds, mock.Anything).
		Return(fmt.Errorf("firestore unavailable"))
	svc := newTestCampaignService(stub, store)

	result, err := svc.CreateCampaignOnly(context.Background(), "u1", domain.PipelineRequest{
		CampaignName: "Shell",
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
}
