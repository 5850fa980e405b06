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

// AnalyticsHandler serves post engagement metrics
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetPostMetrics returns metrics for one post, cached unless ?refresh=1
// GET /api/v1/analytics/:platform/:postId
func (h *AnalyticsHandler) GetPostMetrics(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	platform := c.Param("platform")
	postID := c.Param("postId")
	refresh := c.Query("refresh") == "1" || c.Query("refresh") == "true"

	metrics, err := h.analyticsService.GetPostMetrics(c.Request.Context(), userID, platform, postID, refresh)
	if err != nil {
		var missingCreds *domain.MissingCredentialsError
		switch {
		case errors.Is(err, common.ErrInvalidInput):
			common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
		case errors.As(err, &missingCreds):
			common.ErrorResponse(c, http.StatusBadRequest, missingCreds.Error(), nil)
		default:
			pkglogger.Error("fetch metrics %s/%s for user %s: %v", platform, postID, userID, err)
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch metrics", nil)
		}
		return
	}

	common.SuccessResponse(c, metrics)
}

type previewMetricsRequest struct {
	Platform    string `json:"platform"`
	PostID      string `json:"postId"`
	AccessToken string `json:"accessToken"`
}

// PreviewPostMetrics fetches metrics with a caller-supplied token, without
// touching stored credentials, the snapshot store, or the cache
// POST /api/v1/analytics/preview
func (h *AnalyticsHandler) PreviewPostMetrics(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req previewMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	var missing []string
	if req.Platform == "" {
		missing = append(missing, "platform")
	}
	if req.PostID == "" {
		missing = append(missing, "postId")
	}
	if req.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if len(missing) > 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "), nil)
		return
	}

	metrics, err := h.analyticsService.FetchPostMetrics(c.Request.Context(), req.Platform, req.PostID, req.AccessToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		pkglogger.Error("preview metrics %s/%s for user %s: %v", req.Platform, req.PostID, userID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to fetch metrics", nil)
		return
	}

	common.SuccessResponse(c, metrics)
}
