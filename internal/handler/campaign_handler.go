package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/middleware"
	"github.com/marketmate/marketmate-backend/internal/service"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// CampaignHandler exposes the ad-campaign pipeline
type CampaignHandler struct {
	campaignService *service.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// CreateAd promotes an existing page post: campaign → ad set → ad, with an
// optional best-effort Instagram cross-post
// POST /api/v1/ads
func (h *CampaignHandler) CreateAd(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req domain.PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	req.Variant = domain.VariantAdFromPost

	var missing []string
	if req.CampaignName == "" {
		missing = append(missing, "campaign_name")
	}
	if req.PostID == "" {
		missing = append(missing, "post_id")
	}
	if len(missing) > 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "), nil)
		return
	}

	h.run(c, userID, req)
}

// CreateFullCampaign builds a campaign from scratch: campaign → ad set →
// image upload + creative → ad
// POST /api/v1/campaigns/full
func (h *CampaignHandler) CreateFullCampaign(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req domain.PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	req.Variant = domain.VariantFullCampaign

	var missing []string
	if req.CampaignName == "" {
		missing = append(missing, "campaign_name")
	}
	if req.ImageURL == "" {
		missing = append(missing, "image_url")
	}
	if req.LinkURL == "" {
		missing = append(missing, "link_url")
	}
	if req.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "), nil)
		return
	}

	h.run(c, userID, req)
}

// CreateCampaign creates a campaign shell only and remembers its id on the
// user's ads credential
// POST /api/v1/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req domain.PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if req.CampaignName == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: campaign_name", nil)
		return
	}

	result, err := h.campaignService.CreateCampaignOnly(c.Request.Context(), userID, req)
	if err != nil {
		h.writeResolveError(c, userID, err)
		return
	}
	observeSteps(result)
	common.SuccessResponse(c, result)
}

// run executes the pipeline and returns the step report. Step failures after
// the first external call are reported inside the result, not as an HTTP
// error, since partial external state already exists.
func (h *CampaignHandler) run(c *gin.Context, userID string, req domain.PipelineRequest) {
	result, err := h.campaignService.Run(c.Request.Context(), userID, req)
	if err != nil {
		h.writeResolveError(c, userID, err)
		return
	}
	observeSteps(result)
	common.SuccessResponse(c, result)
}

// writeResolveError handles failures that happen before the pipeline's first
// external call
func (h *CampaignHandler) writeResolveError(c *gin.Context, userID string, err error) {
	var missingCreds *domain.MissingCredentialsError
	var missingPage *domain.MissingPageIdError
	switch {
	case errors.As(err, &missingCreds):
		common.ErrorResponse(c, http.StatusBadRequest, missingCreds.Error(), nil)
	case errors.As(err, &missingPage):
		common.ErrorResponse(c, http.StatusBadRequest, missingPage.Error(), nil)
	default:
		pkglogger.Error("campaign pipeline for user %s: %v", userID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Campaign creation failed", nil)
	}
}

func observeSteps(result *domain.PipelineResult) {
	for _, step := range result.Steps {
		middleware.ObservePipelineStep(string(step.Step), step.Succeeded)
	}
}
