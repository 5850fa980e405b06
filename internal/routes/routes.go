package routes

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/handler"
	"github.com/marketmate/marketmate-backend/internal/middleware"
	"github.com/marketmate/marketmate-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	oauthHandler *handler.OAuthHandler,
	campaignHandler *handler.CampaignHandler,
	linkedInHandler *handler.LinkedInHandler,
	credentialHandler *handler.CredentialHandler,
	analyticsHandler *handler.AnalyticsHandler,
	authClient *fbauth.Client,
	jwtManager *jwt.Manager,
	pipelineLimiter gin.HandlerFunc,
) {
	api := router.Group("/api/v1")

	// Connect flows and direct publishing are called by the SPA before a
	// backend session exists; the exchanged code/token is the proof of
	// identity.
	oauth := api.Group("/oauth")
	oauth.POST("/facebook/exchange", oauthHandler.ExchangeFacebook)
	oauth.POST("/linkedin/exchange", oauthHandler.ExchangeLinkedIn)

	api.POST("/linkedin/posts", linkedInHandler.PublishPost)

	// Everything below requires an authenticated user.
	authed := api.Group("", middleware.Auth(authClient, jwtManager))

	// Pipeline runs fan out several Graph API calls per request, so they get
	// a tighter per-user limit on top of the global one.
	pipelines := authed.Group("")
	if pipelineLimiter != nil {
		pipelines.Use(pipelineLimiter)
	}
	pipelines.POST("/ads", campaignHandler.CreateAd)
	pipelines.POST("/campaigns/full", campaignHandler.CreateFullCampaign)
	pipelines.POST("/campaigns", campaignHandler.CreateCampaign)

	credentials := authed.Group("/credentials")
	credentials.GET("", credentialHandler.List)
	credentials.PUT("/:type", credentialHandler.Save)
	credentials.DELETE("/:type", credentialHandler.Deactivate)

	authed.GET("/analytics/:platform/:postId", analyticsHandler.GetPostMetrics)
	authed.POST("/analytics/preview", analyticsHandler.PreviewPostMetrics)
}
