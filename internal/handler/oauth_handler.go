package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/service"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// OAuthHandler handles authorization-code exchange for the connect flows
type OAuthHandler struct {
	oauthService *service.OAuthService
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(oauthService *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

// ExchangeFacebook exchanges a Facebook authorization code and stores the
// resulting credentials
// POST /api/v1/oauth/facebook/exchange
func (h *OAuthHandler) ExchangeFacebook(c *gin.Context) {
	var req domain.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if !h.validExchangeRequest(c, req) {
		return
	}

	result, err := h.oauthService.ExchangeFacebookCode(c.Request.Context(), req)
	if err != nil {
		h.writeExchangeError(c, "facebook", err)
		return
	}
	common.SuccessResponse(c, result)
}

// ExchangeLinkedIn exchanges a LinkedIn authorization code and stores the
// resulting credentials
// POST /api/v1/oauth/linkedin/exchange
func (h *OAuthHandler) ExchangeLinkedIn(c *gin.Context) {
	var req domain.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if !h.validExchangeRequest(c, req) {
		return
	}

	result, err := h.oauthService.ExchangeLinkedInCode(c.Request.Context(), req)
	if err != nil {
		h.writeExchangeError(c, "linkedin", err)
		return
	}
	common.SuccessResponse(c, result)
}

// validExchangeRequest rejects requests with missing fields before any
// provider call, enumerating what was absent
func (h *OAuthHandler) validExchangeRequest(c *gin.Context, req domain.ExchangeRequest) bool {
	var missing []string
	if req.Code == "" {
		missing = append(missing, "code")
	}
	if req.RedirectURI == "" {
		missing = append(missing, "redirectUri")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "), nil)
		return false
	}
	return true
}

// writeExchangeError maps exchange failures: provider rejections pass their
// description through as 400, missing app credentials are a server
// configuration problem, everything else stays opaque.
func (h *OAuthHandler) writeExchangeError(c *gin.Context, provider string, err error) {
	var provErr *service.ProviderError
	if errors.As(err, &provErr) {
		common.ErrorResponse(c, http.StatusBadRequest, provErr.Description, nil)
		return
	}
	if errors.Is(err, common.ErrMissingAppCredentials) {
		common.ErrorResponse(c, http.StatusInternalServerError, "Server configuration error", nil)
		return
	}
	pkglogger.Error("%s code exchange: %v", provider, err)
	common.ErrorResponse(c, http.StatusInternalServerError, "Token exchange failed", nil)
}
