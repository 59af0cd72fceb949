package resumes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/extract"
	"resumematch-backend/internal/shared/server/middleware"
	"resumematch-backend/internal/shared/server/respond"
	"resumematch-backend/internal/tasks"
)

// Handler wires HTTP handlers to the resume service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/upload", h.upload)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/active", h.getActive)
	rg.GET("/resumes/:id", h.get)
	rg.POST("/resumes/:id/analyze", h.analyze)
	rg.POST("/resumes/:id/activate", h.activate)
	rg.DELETE("/resumes/:id", h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file field is required", nil)
		return
	}
	defer file.Close()

	resume, err := h.Svc.Upload(c.Request.Context(), userID, header.Filename, file)
	if err != nil {
		var ve extract.ValidationError
		switch {
		case errors.As(err, &ve):
			respond.Error(c, http.StatusBadRequest, "validation_error", ve.Reason, nil)
		case errors.Is(err, tasks.ErrShuttingDown):
			respond.Error(c, http.StatusServiceUnavailable, "shutting_down", "service is shutting down", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload resume", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, ToResponse(resume))
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID, ok := paramID(c)
	if !ok {
		return
	}

	err := h.Svc.StartAnalysis(c.Request.Context(), userID, resumeID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusAccepted, gin.H{
			"resume_id": resumeID,
			"status":    StatusExtracting,
		})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrRunInProgress):
		respond.Error(c, http.StatusConflict, "run_in_progress", "analysis already in progress for this resume", nil)
	case errors.Is(err, tasks.ErrShuttingDown):
		respond.Error(c, http.StatusServiceUnavailable, "shutting_down", "service is shutting down", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
	}
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list resumes", nil)
		return
	}

	resp := make([]Response, 0, len(items))
	for _, resume := range items {
		resp = append(resp, ToResponse(resume))
	}
	respond.JSON(c, http.StatusOK, gin.H{"resumes": resp})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID, ok := paramID(c)
	if !ok {
		return
	}

	resume, err := h.Svc.Get(c.Request.Context(), userID, resumeID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, ToResponse(resume))
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch resume", nil)
	}
}

func (h *Handler) getActive(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	resume, err := h.Svc.Repo.GetActiveByUser(c.Request.Context(), userID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, ToResponse(resume))
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "no active resume", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch active resume", nil)
	}
}

func (h *Handler) activate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID, ok := paramID(c)
	if !ok {
		return
	}

	err := h.Svc.Activate(c.Request.Context(), userID, resumeID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"resume_id": resumeID, "is_active": true})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to activate resume", nil)
	}
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID, ok := paramID(c)
	if !ok {
		return
	}

	err := h.Svc.Delete(c.Request.Context(), userID, resumeID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"resume_id": resumeID, "deleted": true})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete resume", nil)
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resume id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
