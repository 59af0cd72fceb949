package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// TokenVerifier resolves a bearer token to a user ID. Token issuance and
// validation live outside this service.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Auth resolves the caller's identity and stores it in the request context.
// Tokens come from the Authorization header or, for websocket upgrades that
// cannot set headers from browsers, a "token" query parameter. In dev-like
// environments a plain X-User-Id header is accepted instead.
func Auth(verifier TokenVerifier, env string) gin.HandlerFunc {
	devLike := env == "dev" || env == "local"

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		token, malformed := bearerToken(c)
		if malformed {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "malformed authorization header", nil)
			return
		}
		if token != "" {
			if verifier == nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "token verification not configured", nil)
				return
			}
			userID, err := verifier.Verify(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, userID)
			c.Next()
			return
		}

		if devLike {
			if raw := strings.TrimSpace(c.GetHeader("X-User-Id")); raw != "" {
				userID, err := strconv.ParseInt(raw, 10, 64)
				if err == nil && userID > 0 {
					c.Set(userIDKey, userID)
					c.Next()
					return
				}
			}
		}

		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
	}
}

// bearerToken extracts the caller's token. A present Authorization header
// that is not a bearer token is reported as malformed rather than ignored,
// so it cannot fall through to weaker identity paths.
func bearerToken(c *gin.Context) (token string, malformed bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", true
		}
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		return token, token == ""
	}
	return strings.TrimSpace(c.Query("token")), false
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) int64 {
	if c == nil {
		return 0
	}
	return c.GetInt64(userIDKey)
}
