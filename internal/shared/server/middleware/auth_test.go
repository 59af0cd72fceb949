package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type staticVerifier struct {
	userID int64
	err    error
}

func (v staticVerifier) Verify(string) (int64, error) {
	return v.userID, v.err
}

func newAuthRouter(verifier TokenVerifier, env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(verifier, env))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserIDFromContext(c)})
	})
	return router
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	router := newAuthRouter(staticVerifier{userID: 42}, "production")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	router := newAuthRouter(staticVerifier{err: errors.New("expired")}, "production")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsMalformedAuthorizationHeader(t *testing.T) {
	router := newAuthRouter(nil, "dev")

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer   ", "token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		// A malformed header must not fall through to the dev identity path.
		req.Header.Set("X-User-Id", "7")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

func TestAuthDevHeaderFallback(t *testing.T) {
	router := newAuthRouter(nil, "dev")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "7")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthDevHeaderIgnoredInProduction(t *testing.T) {
	router := newAuthRouter(nil, "production")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "7")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthQueryTokenForWebsocketPath(t *testing.T) {
	router := newAuthRouter(staticVerifier{userID: 9}, "production")

	req := httptest.NewRequest(http.MethodGet, "/whoami?token=ws-token", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
