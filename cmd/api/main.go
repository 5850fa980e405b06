package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/marketmate/marketmate-backend/docs"
	"github.com/marketmate/marketmate-backend/internal/config"
	"github.com/marketmate/marketmate-backend/internal/domain"
	"github.com/marketmate/marketmate-backend/internal/handler"
	"github.com/marketmate/marketmate-backend/internal/middleware"
	"github.com/marketmate/marketmate-backend/internal/repository"
	"github.com/marketmate/marketmate-backend/internal/routes"
	"github.com/marketmate/marketmate-backend/internal/service"
	pkgcache "github.com/marketmate/marketmate-backend/pkg/cache"
	pkgfirebase "github.com/marketmate/marketmate-backend/pkg/firebase"
	"github.com/marketmate/marketmate-backend/pkg/jwt"
	pkglogger "github.com/marketmate/marketmate-backend/pkg/logger"
	pkgredis "github.com/marketmate/marketmate-backend/pkg/redis"
)

// @title           MarketMate Backend API
// @version         1.0
// @description     Social media campaign management backend: Meta and LinkedIn publishing, ad pipelines, and post analytics
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Firebase ID token using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// Firebase: auth for ID token verification, Firestore for credential and
	// analytics documents.
	var authClient *fbauth.Client
	var credentialStore repository.CredentialStore
	var analyticsStore repository.AnalyticsStore

	fbApp, err := pkgfirebase.NewApp(ctx, pkgfirebase.Config{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		pkglogger.Warn("Firebase init failed: %v (continuing without Firebase)", err)
	} else {
		if authClient, err = pkgfirebase.NewAuthClient(ctx, fbApp); err != nil {
			pkglogger.Warn("Firebase auth init failed: %v", err)
			authClient = nil
		}
		firestoreClient, fsErr := pkgfirebase.NewFirestoreClient(ctx, fbApp)
		if fsErr != nil {
			pkglogger.Warn("Firestore init failed: %v (continuing without Firestore)", fsErr)
		} else {
			defer firestoreClient.Close()
			credentialStore = repository.NewCredentialRepository(firestoreClient)
			analyticsStore = repository.NewAnalyticsRepository(firestoreClient)
			pkglogger.Info("Connected to Firestore (project %s)", cfg.Firebase.ProjectID)
		}
	}
	if credentialStore == nil {
		log.Fatal("Firestore is required for credential storage; set FIREBASE_PROJECT_ID and credentials")
	}
	if authClient == nil {
		// The HS256 fallback is a local convenience only. Letting it carry
		// production auth, possibly with an unset secret, would accept
		// attacker-minted tokens.
		if !cfg.IsDevelopment() {
			log.Fatal("Firebase auth is required outside development; refusing to start on the local JWT fallback")
		}
		if cfg.JWT.Secret == "" {
			log.Fatal("JWT_SECRET must be set when running without Firebase auth")
		}
	}

	// Redis cache in front of Firestore reads and the Graph API
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}

	var cacheService pkgcache.Service
	if redisClient != nil {
		cacheService = pkgcache.NewService(redisClient)
		pkglogger.Info("Cache service initialized")
	}

	// Dev-only fallback when no Firebase auth client is available; the
	// manager itself refuses to verify with an empty secret.
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	graph := service.NewGraphClient()
	resolver := service.NewCredentialResolver(credentialStore, cacheService)
	resolver.DefaultAdAccountID = cfg.Facebook.AdAccountID
	resolver.DefaultPageID = cfg.Facebook.PageID

	instagramService := service.NewInstagramService(graph)
	campaignService := service.NewCampaignService(graph, resolver, instagramService, credentialStore)
	oauthService := service.NewOAuthService(
		credentialStore,
		graph,
		domain.OAuthConfig{ClientID: cfg.Facebook.AppID, ClientSecret: cfg.Facebook.AppSecret},
		domain.OAuthConfig{ClientID: cfg.LinkedIn.ClientID, ClientSecret: cfg.LinkedIn.ClientSecret},
	)
	linkedInService := service.NewLinkedInService()
	analyticsService := service.NewAnalyticsService(graph, credentialStore, analyticsStore, cacheService)
	credentialService := service.NewCredentialService(credentialStore, cacheService)

	oauthHandler := handler.NewOAuthHandler(oauthService)
	campaignHandler := handler.NewCampaignHandler(campaignService)
	linkedInHandler := handler.NewLinkedInHandler(linkedInService)
	credentialHandler := handler.NewCredentialHandler(credentialService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS: the SPA calls the exchange and publish endpoints from the browser
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	corsConfig := cors.Config{
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:        86400,
	}
	if allowOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = splitAndTrim(allowOrigins, ",")
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.InputSanitizer())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	if redisClient != nil && !cfg.IsDevelopment() {
		rateCfg := middleware.DefaultRateLimitConfig()
		if cfg.RateLimit.RequestsPerMinute > 0 {
			rateCfg.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		}
		router.Use(middleware.RateLimit(redisClient, rateCfg))
	}

	var pipelineLimiter gin.HandlerFunc
	if redisClient != nil && !cfg.IsDevelopment() {
		pipelineLimiter = middleware.RateLimitPerUser(redisClient, 10)
	}

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		if cacheService != nil {
			redisStatus = "ok"
			if err := cacheService.Ping(c.Request.Context()); err != nil {
				redisStatus = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "marketmate-backend",
			"redis":   redisStatus,
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(
		router,
		oauthHandler,
		campaignHandler,
		linkedInHandler,
		credentialHandler,
		analyticsHandler,
		authClient,
		jwtManager,
		pipelineLimiter,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pkglogger.Info("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
