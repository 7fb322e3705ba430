package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/soulsync/internal/api/middleware"
	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/repository"
	"github.com/timmy/soulsync/internal/service"
)

// JobHandler handles report job endpoints.
type JobHandler struct {
	jobService *service.JobService
}

// NewJobHandler creates a new job handler.
// Parameters:
//   - jobService: job service instance.
// Returns:
//   - *JobHandler: initialized handler.
func NewJobHandler(jobService *service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
	}
}

// SubmitJobRequest is the body of POST /api/v1/jobs.
type SubmitJobRequest struct {
	JobID     string          `json:"job_id" binding:"required"`
	Blueprint json.RawMessage `json:"blueprint" binding:"required"`
}

// SubmitJob handles POST /api/v1/jobs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	job, err := h.jobService.Submit(c.Request.Context(), req.JobID, domain.Blueprint(req.Blueprint))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":   job.ID,
		"status":   job.Status,
		"accepted": true,
	})
}

// GetJob handles GET /api/v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	view, err := h.jobService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetReport handles GET /api/v1/jobs/:id/report.
func (h *JobHandler) GetReport(c *gin.Context) {
	report, err := h.jobService.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListQuotes handles GET /api/v1/jobs/:id/quotes.
func (h *JobHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.jobService.Quotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"quotes": quotes,
		"total":  len(quotes),
	})
}

// writeError maps service errors to HTTP status codes.
func (h *JobHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrMissingJobID),
		errors.Is(err, service.ErrMissingBlueprint),
		errors.Is(err, service.ErrInvalidBlueprint):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrJobNotFound), errors.Is(err, service.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrJobNotPending), errors.Is(err, service.ErrReportNotReady):
		status = http.StatusConflict
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, service.ErrWorkerStopped):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		middleware.GetLogger(c).WithError(err).Error("Job request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
