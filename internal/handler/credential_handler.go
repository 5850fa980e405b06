package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/middleware"
	"github.com/marketmate/marketmate-backend/internal/service"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
)

// CredentialHandler backs the manual credential management screens
type CredentialHandler struct {
	credentialService *service.CredentialService
}

// NewCredentialHandler creates a new CredentialHandler
func NewCredentialHandler(credentialService *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentialService: credentialService}
}

// saveCredentialRequest is the manual-entry payload. The token is accepted
// here and never echoed back.
type saveCredentialRequest struct {
	AccessToken        string `json:"accessToken"`
	PageID             string `json:"pageId"`
	AdAccountID        string `json:"adAccountId"`
	InstagramUserID    string `json:"instagramUserId"`
	LinkedInPageID     string `json:"linkedInPageId"`
	IsOrganizationPage bool   `json:"isOrganizationPage"`
}

// Save stores or overwrites one platform credential for the current user
// PUT /api/v1/credentials/:type
func (h *CredentialHandler) Save(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req saveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	cred := &domain.Credential{
		Type:               domain.CredentialType(c.Param("type")),
		AccessToken:        req.AccessToken,
		PageID:             req.PageID,
		AdAccountID:        req.AdAccountID,
		InstagramUserID:    req.InstagramUserID,
		LinkedInPageID:     req.LinkedInPageID,
		IsOrganizationPage: req.IsOrganizationPage,
	}

	if err := h.credentialService.Save(c.Request.Context(), userID, cred); err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		pkglogger.Error("save credential %s for user %s: %v", cred.Type, userID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to save credential", nil)
		return
	}

	common.SuccessResponse(c, gin.H{"type": cred.Type})
}

// List returns the user's connected platforms with tokens masked
// GET /api/v1/credentials
func (h *CredentialHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	views, err := h.credentialService.List(c.Request.Context(), userID)
	if err != nil {
		pkglogger.Error("list credentials for user %s: %v", userID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list credentials", nil)
		return
	}

	common.SuccessResponse(c, views)
}

// Deactivate marks one credential inactive without deleting the document
// DELETE /api/v1/credentials/:type
func (h *CredentialHandler) Deactivate(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	credType := domain.CredentialType(c.Param("type"))
	if err := h.credentialService.Deactivate(c.Request.Context(), userID, credType); err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		pkglogger.Error("deactivate credential %s for user %s: %v", credType, userID, err)
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to deactivate credential", nil)
		return
	}

	common.SuccessResponse(c, gin.H{"type": credType})
}
