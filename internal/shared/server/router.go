package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/jobs"
	"resumematch-backend/internal/notify"
	"resumematch-backend/internal/resumes"
	"resumematch-backend/internal/shared/config"
	"resumematch-backend/internal/shared/metrics"
	"resumematch-backend/internal/shared/server/middleware"
	"resumematch-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config        config.Config
	Verifier      middleware.TokenVerifier
	ResumeHandler *resumes.Handler
	JobsHandler   *jobs.Handler
	Registry      *notify.Registry
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	authed := middleware.Auth(deps.Verifier, deps.Config.Env)

	api := r.Group("/api/v1")
	api.Use(authed)
	deps.ResumeHandler.RegisterRoutes(api)
	deps.JobsHandler.RegisterRoutes(api)

	ws := r.Group("/ws")
	ws.Use(authed)
	ws.GET("/updates", notify.WSHandler(deps.Registry))

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
