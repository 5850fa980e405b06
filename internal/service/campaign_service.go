package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/repository"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// Default schedule window when the caller supplies no dates: the ad set
// starts one minute out and runs for 48 hours.
const (
	adSetStartDelay = time.Minute
	adSetDuration   = 48 * time.Hour
)

// CampaignService runs the ad-campaign creation pipeline:
// campaign → ad set → [creative] → ad. Strictly sequential; a failing step
// aborts the run and nothing created beforehand is rolled back. The
// returned PipelineResult lists every step and external id so operators can
// clean up orphans by hand.
type CampaignService struct {
	graph     *GraphClient
	resolver  *CredentialResolver
	instagram *InstagramService
	store     repository.CredentialStore

	nowFn func() time.Time
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(graph *GraphClient, resolver *CredentialResolver, instagram *InstagramService, store repository.CredentialStore) *CampaignService {
	return &CampaignService{
		graph:     graph,
		resolver:  resolver,
		instagram: instagram,
		store:     store,
		nowFn:     time.Now,
	}
}

// Run executes the pipeline for one request. A credential resolution
// failure returns an error before any external call; once the first step
// has fired, failures are reported through the PipelineResult instead so
// partial external state is never silent.
func (s *CampaignService) Run(ctx context.Context, userID string, req domain.PipelineRequest) (*domain.PipelineResult, error) {
	if req.Variant == "" {
		req.Variant = domain.VariantAdFromPost
	}
	cfg, err := s.resolver.ResolveAdsConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Both variants need a page: the ad-from-post flow builds its story
	// reference as "<pageId>_<postId>" and the full flow attaches the
	// creative to the page. Fail before any external call rather than
	// after a campaign and ad set already exist.
	if cfg.PageID == "" {
		return nil, &domain.MissingPageIdError{}
	}

	result := &domain.PipelineResult{}
	account := NormalizeAdAccountID(cfg.AdAccountID)

	campaignID, err := s.createCampaign(ctx, account, cfg.AccessToken, req)
	result.Record(domain.StepCreateCampaign, campaignID, err)
	if err != nil {
		return result, nil
	}

	// Best-effort Instagram cross-post. Runs between campaign and ad set in
	// the ad-from-post flow; its failure never aborts the pipeline.
	if req.Variant == domain.VariantAdFromPost && req.InstagramPost && req.ImageURL != "" && req.Caption != "" {
		s.crossPostInstagram(ctx, userID, req, result)
	}

	adSetID, err := s.createAdSet(ctx, account, cfg.AccessToken, campaignID, req)
	result.Record(domain.StepCreateAdSet, adSetID, err)
	if err != nil {
		return result, nil
	}

	var creativeID string
	if req.Variant == domain.VariantFullCampaign {
		creativeID, err = s.createCreative(ctx, account, cfg.AccessToken, cfg.PageID, req)
		result.Record(domain.StepCreateCreative, creativeID, err)
		if err != nil {
			return result, nil
		}
	}

	adID, err := s.createAd(ctx, account, cfg.AccessToken, cfg.PageID, adSetID, creativeID, req)
	result.Record(domain.StepCreateAd, adID, err)
	if err != nil {
		return result, nil
	}

	result.Success = true
	return result, nil
}

// CreateCampaignOnly creates just a campaign and persists its id onto the
// user's facebook_ads credential for later runs
func (s *CampaignService) CreateCampaignOnly(ctx context.Context, userID string, req domain.PipelineRequest) (*domain.PipelineResult, error) {
	cfg, err := s.resolver.ResolveAdsConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.PipelineResult{}
	account := NormalizeAdAccountID(cfg.AdAccountID)

	campaignID, err := s.createCampaign(ctx, account, cfg.AccessToken, req)
	result.Record(domain.StepCreateCampaign, campaignID, err)
	if err != nil {
		return result, nil
	}

	if err := s.persistCampaignID(ctx, userID, cfg, campaignID); err != nil {
		// The campaign exists on the platform; losing the local reference
		// is worth a warning, not a failed run.
		pkglogger.Warn("persist campaign id %s for user %s: %v", campaignID, userID, err)
	}

	result.Success = true
	return result, nil
}

func (s *CampaignService) persistCampaignID(ctx context.Context, userID string, cfg *domain.AdsConfig, campaignID string) error {
	existing, err := s.store.Get(ctx, userID, domain.CredentialFacebookAds)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.store.Save(ctx, userID, &domain.Credential{
			Type:        domain.CredentialFacebookAds,
			AccessToken: cfg.AccessToken,
			AdAccountID: cfg.AdAccountID,
			PageID:      cfg.PageID,
			CampaignID:  campaignID,
		})
	}
	return s.store.UpdateFields(ctx, userID, domain.CredentialFacebookAds, map[string]interface{}{
		"campaignId": campaignID,
	})
}

func (s *CampaignService) createCampaign(ctx context.Context, account, token string, req domain.PipelineRequest) (string, error) {
	objective := req.Objective
	if objective == "" {
		objective = "OUTCOME_TRAFFIC"
	}
	status := req.Status
	if status == "" {
		status = "PAUSED"
	}

	resp, err := s.graph.PostForm(ctx, account+"/campaigns", url.Values{
		"name":                  {req.CampaignName},
		"objective":             {objective},
		"status":                {status},
		"special_ad_categories": {"[]"},
		"access_token":          {token},
	})
	if err != nil {
		return "", err
	}
	id := stringField(resp, "id")
	if id == "" {
		return "", fmt.Errorf("create campaign: no id in response")
	}
	return id, nil
}

// scheduleWindow returns the ad set start/end times. Caller-supplied dates
// win; otherwise start is now+1min and end is exactly 48h after start.
func (s *CampaignService) scheduleWindow(req domain.PipelineRequest) (time.Time, time.Time) {
	if req.StartDate != nil && req.EndDate != nil {
		return *req.StartDate, *req.EndDate
	}
	start := s.nowFn().Add(adSetStartDelay)
	return start, start.Add(adSetDuration)
}

func (s *CampaignService) createAdSet(ctx context.Context, account, token, campaignID string, req domain.PipelineRequest) (string, error) {
	start, end := s.scheduleWindow(req)

	budget := req.DailyBudget
	if budget <= 0 {
		budget = 1000
	}

	countries := req.Targeting.Countries
	if len(countries) == 0 {
		countries = []string{"US"}
	}
	codes := domain.ConvertCountryNames(countries)

	targetingSpec := map[string]interface{}{
		"geo_locations": map[string]interface{}{"countries": codes},
	}
	if req.Targeting.AgeMin > 0 {
		targetingSpec["age_min"] = req.Targeting.AgeMin
	}
	if req.Targeting.AgeMax > 0 {
		targetingSpec["age_max"] = req.Targeting.AgeMax
	}
	if len(req.Targeting.Genders) > 0 {
		targetingSpec["genders"] = req.Targeting.Genders
	}
	targeting := mustJSON(targetingSpec)

	resp, err := s.graph.PostForm(ctx, account+"/adsets", url.Values{
		"name":              {req.CampaignName + " - Ad Set"},
		"campaign_id":       {campaignID},
		"daily_budget":      {strconv.FormatInt(budget, 10)},
		"billing_event":     {"IMPRESSIONS"},
		"optimization_goal": {"LINK_CLICKS"},
		"bid_strategy":      {"LOWEST_COST_WITHOUT_CAP"},
		"targeting":         {targeting},
		"start_time":        {start.UTC().Format(time.RFC3339)},
		"end_time":          {end.UTC().Format(time.RFC3339)},
		"status":            {"PAUSED"},
		"access_token":      {token},
	})
	if err != nil {
		return "", err
	}
	id := stringField(resp, "id")
	if id == "" {
		return "", fmt.Errorf("create ad set: no id in response")
	}
	return id, nil
}

func (s *CampaignService) createCreative(ctx context.Context, account, token, pageID string, req domain.PipelineRequest) (string, error) {
	upload, err := s.graph.PostForm(ctx, account+"/adimages", url.Values{
		"url":          {req.ImageURL},
		"access_token": {token},
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	hash, err := extractImageHash(upload)
	if err != nil {
		return "", err
	}

	storySpec := mustJSON(map[string]interface{}{
		"page_id": pageID,
		"link_data": map[string]interface{}{
			"link":       req.LinkURL,
			"message":    req.Message,
			"image_hash": hash,
		},
	})

	resp, err := s.graph.PostForm(ctx, account+"/adcreatives", url.Values{
		"name":              {req.CampaignName + " - Creative"},
		"object_story_spec": {storySpec},
		"access_token":      {token},
	})
	if err != nil {
		return "", err
	}
	id := stringField(resp, "id")
	if id == "" {
		return "", fmt.Errorf("create creative: no id in response")
	}
	return id, nil
}

func (s *CampaignService) createAd(ctx context.Context, account, token, pageID, adSetID, creativeID string, req domain.PipelineRequest) (string, error) {
	var creative string
	if req.Variant == domain.VariantAdFromPost {
		// Promote the existing organic post via its object story reference.
		creative = mustJSON(map[string]string{"object_story_id": pageID + "_" + req.PostID})
	} else {
		creative = mustJSON(map[string]string{"creative_id": creativeID})
	}

	resp, err := s.graph.PostForm(ctx, account+"/ads", url.Values{
		"name":         {req.CampaignName + " - Ad"},
		"adset_id":     {adSetID},
		"creative":     {creative},
		"status":       {"PAUSED"},
		"access_token": {token},
	})
	if err != nil {
		return "", err
	}
	id := stringField(resp, "id")
	if id == "" {
		return "", fmt.Errorf("create ad: no id in response")
	}
	return id, nil
}

func (s *CampaignService) crossPostInstagram(ctx context.Context, userID string, req domain.PipelineRequest, result *domain.PipelineResult) {
	igUserID, igToken, err := s.resolver.InstagramUserID(ctx, userID)
	if err != nil || igUserID == "" {
		if err != nil {
			pkglogger.Warn("instagram credential lookup for %s: %v", userID, err)
		}
		return
	}

	mediaID, err := s.instagram.PublishImage(ctx, igUserID, igToken, req.ImageURL, req.Caption)
	if err != nil {
		pkglogger.Warn("instagram cross-post for %s failed: %v", userID, err)
	}
	result.RecordBestEffort(domain.StepInstagramPost, mediaID, err)
}

// mustJSON renders a request sub-object. The inputs are maps of plain
// values, so marshalling cannot fail in practice.
func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
