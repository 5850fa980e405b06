package middleware

import (
	"errors"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/marketmate/marketmate-backend/internal/common"
	"github.com/marketmate/marketmate-backend/pkg/jwt"
)

// Auth verifies the caller's identity before any handler work happens. A Firebase
// ID token is the production path; when no Firebase auth client is wired
// (local development, tests) a locally-issued HS256 token is accepted
// instead. Missing or invalid tokens abort with 401 before any network or
// Firestore call.
func Auth(authClient *fbauth.Client, jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header", nil)
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}
		tokenString := parts[1]

		// 3. Verify token
		if authClient != nil {
			token, err := authClient.VerifyIDToken(c.Request.Context(), tokenString)
			if err != nil {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
				c.Abort()
				return
			}
			c.Set("userID", token.UID)
			c.Next()
			return
		}

		if jwtManager == nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "Authentication is not configured", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		// 4. Store user info in context
		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}
