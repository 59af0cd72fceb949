package jobs

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/resumes"
	"resumematch-backend/internal/shared/server/middleware"
	"resumematch-backend/internal/shared/server/respond"
	"resumematch-backend/internal/tasks"
)

// Handler wires HTTP handlers to the jobs service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches job and match routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs", h.createJob)
	rg.POST("/jobs/match", h.createAndMatch)
	rg.POST("/jobs/quick-match", h.quickMatch)
	rg.GET("/jobs", h.listJobs)
	rg.GET("/jobs/:id", h.getJob)
	rg.DELETE("/jobs/:id", h.deleteJob)
	rg.POST("/jobs/:id/match", h.submitMatch)
	rg.GET("/matches", h.listMatches)
	rg.GET("/matches/stats", h.matchStats)
	rg.GET("/matches/:id", h.getMatch)
	rg.DELETE("/matches/:id", h.deleteMatch)
}

type createJobRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *Handler) createJob(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	job, err := h.Svc.CreateJob(c.Request.Context(), userID, req.Title, req.Description)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusCreated, ToJobResponse(job))
	case errors.Is(err, ErrEmptyDescription):
		respond.Error(c, http.StatusBadRequest, "validation_error", "job description is required", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create job", nil)
	}
}

type submitMatchRequest struct {
	ResumeID int64 `json:"resume_id"`
}

type createAndMatchRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ResumeID    int64  `json:"resume_id"`
}

// createAndMatch persists the job description and launches matching against
// the given resume, or the caller's active one, in a single call.
func (h *Handler) createAndMatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req createAndMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resumeID := req.ResumeID
	if resumeID == 0 {
		active, err := h.Svc.Resumes.GetActiveByUser(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "no active resume; upload one or pass resume_id", nil)
			return
		}
		resumeID = active.ID
	}

	job, err := h.Svc.CreateJob(c.Request.Context(), userID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, ErrEmptyDescription) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "job description is required", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create job", nil)
		}
		return
	}

	err = h.Svc.SubmitMatch(c.Request.Context(), userID, resumeID, job.ID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusAccepted, gin.H{
			"resume_id": resumeID,
			"job_id":    job.ID,
			"status":    "matching",
		})
	case errors.Is(err, resumes.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrResumeNotReady):
		respond.Error(c, http.StatusConflict, "resume_not_ready", "resume has not been analyzed yet", nil)
	case errors.Is(err, ErrMatchInProgress):
		respond.Error(c, http.StatusConflict, "run_in_progress", "matching already in progress for this resume and job", nil)
	case errors.Is(err, tasks.ErrShuttingDown):
		respond.Error(c, http.StatusServiceUnavailable, "shutting_down", "service is shutting down", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start matching", nil)
	}
}

func (h *Handler) submitMatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	jobID, ok := paramID(c)
	if !ok {
		return
	}

	var req submitMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resumeID := req.ResumeID
	if resumeID == 0 {
		active, err := h.Svc.Resumes.GetActiveByUser(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "no active resume; upload one or pass resume_id", nil)
			return
		}
		resumeID = active.ID
	}

	err := h.Svc.SubmitMatch(c.Request.Context(), userID, resumeID, jobID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusAccepted, gin.H{
			"resume_id": resumeID,
			"job_id":    jobID,
			"status":    "matching",
		})
	case errors.Is(err, resumes.ErrNotFound), errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume or job not found", nil)
	case errors.Is(err, ErrResumeNotReady):
		respond.Error(c, http.StatusConflict, "resume_not_ready", "resume has not been analyzed yet", nil)
	case errors.Is(err, ErrMatchInProgress):
		respond.Error(c, http.StatusConflict, "run_in_progress", "matching already in progress for this resume and job", nil)
	case errors.Is(err, tasks.ErrShuttingDown):
		respond.Error(c, http.StatusServiceUnavailable, "shutting_down", "service is shutting down", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start matching", nil)
	}
}

type quickMatchRequest struct {
	Description string `json:"description"`
	ResumeID    int64  `json:"resume_id"`
}

// quickMatch scores ad hoc job text against a resume and returns the result
// directly; nothing is persisted.
func (h *Handler) quickMatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req quickMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	resumeID := req.ResumeID
	if resumeID == 0 {
		active, err := h.Svc.Resumes.GetActiveByUser(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "no active resume; upload one or pass resume_id", nil)
			return
		}
		resumeID = active.ID
	}

	match, err := h.Svc.QuickMatch(c.Request.Context(), userID, resumeID, req.Description)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{
			"resume_id":       resumeID,
			"fit_score":       match.FitScore,
			"strengths":       match.Strengths,
			"missing_skills":  match.MissingSkills,
			"recommendations": match.Recommendations,
		})
	case errors.Is(err, ErrEmptyDescription):
		respond.Error(c, http.StatusBadRequest, "validation_error", "job description is required", nil)
	case errors.Is(err, resumes.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrResumeNotReady):
		respond.Error(c, http.StatusConflict, "resume_not_ready", "resume has not been analyzed yet", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to score match", nil)
	}
}

func (h *Handler) deleteMatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	matchID, ok := paramID(c)
	if !ok {
		return
	}
	err := h.Svc.DeleteMatch(c.Request.Context(), userID, matchID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"match_id": matchID, "deleted": true})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "match not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete match", nil)
	}
}

func (h *Handler) listJobs(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	items, err := h.Svc.ListJobs(c.Request.Context(), userID, queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list jobs", nil)
		return
	}
	resp := make([]JobResponse, 0, len(items))
	for _, job := range items {
		resp = append(resp, ToJobResponse(job))
	}
	respond.JSON(c, http.StatusOK, gin.H{"jobs": resp})
}

func (h *Handler) getJob(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	jobID, ok := paramID(c)
	if !ok {
		return
	}
	job, err := h.Svc.GetJob(c.Request.Context(), userID, jobID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, ToJobResponse(job))
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch job", nil)
	}
}

func (h *Handler) deleteJob(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	jobID, ok := paramID(c)
	if !ok {
		return
	}
	err := h.Svc.DeleteJob(c.Request.Context(), userID, jobID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, gin.H{"job_id": jobID, "deleted": true})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete job", nil)
	}
}

func (h *Handler) listMatches(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	items, err := h.Svc.ListMatches(c.Request.Context(), userID, queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list matches", nil)
		return
	}
	resp := make([]MatchResponse, 0, len(items))
	for _, match := range items {
		resp = append(resp, ToMatchResponse(match))
	}
	respond.JSON(c, http.StatusOK, gin.H{"matches": resp})
}

func (h *Handler) getMatch(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	matchID, ok := paramID(c)
	if !ok {
		return
	}
	match, err := h.Svc.GetMatch(c.Request.Context(), userID, matchID)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, ToMatchResponse(match))
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "match not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch match", nil)
	}
}

func (h *Handler) matchStats(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	stats, err := h.Svc.MatchStats(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute stats", nil)
		return
	}
	respond.JSON(c, http.StatusOK, stats)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id must be a positive integer", nil)
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
