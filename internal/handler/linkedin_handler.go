package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/service"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// LinkedInHandler handles direct LinkedIn publishing
type LinkedInHandler struct {
	linkedInService *service.LinkedInService
}

// NewLinkedInHandler creates a new LinkedInHandler
func NewLinkedInHandler(linkedInService *service.LinkedInService) *LinkedInHandler {
	return &LinkedInHandler{linkedInService: linkedInService}
}

// PublishPost creates a text post on the page or profile named in the request
// POST /api/v1/linkedin/posts
func (h *LinkedInHandler) PublishPost(c *gin.Context) {
	var req domain.LinkedInPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	var missing []string
	if req.Content == "" {
		missing = append(missing, "content")
	}
	if req.LinkedInPageID == "" {
		missing = append(missing, "linkedInPageId")
	}
	if req.AccessToken == "" {
		missing = append(missing, "accessToken")
	}
	if len(missing) > 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "), nil)
		return
	}

	postID, err := h.linkedInService.PublishPost(c.Request.Context(), req)
	if err != nil {
		pkglogger.Error("linkedin publish for %s: %v", req.LinkedInPageID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	common.SuccessResponse(c, domain.LinkedInPostResult{Success: true, PostID: postID})
}
