package handlers

import (
	"errors"
	"net/http"
	"time"

	"citywatch/middleware"
	"citywatch/models"
	"citywatch/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers exposes the report service over HTTP.
type Handlers struct {
	service *service.ReportService
}

func NewHandlers(svc *service.ReportService) *Handlers {
	return &Handlers{service: svc}
}

// Health handles the liveness probe. Always 200.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
	})
}

// CreateReport handles citizen report submission.
func (h *Handlers) CreateReport(c *gin.Context) {
	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("Failed to bind create report request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read JSON input"})
		return
	}

	report, err := h.service.CreateReport(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports returns all reports, optionally filtered by status and
// category query parameters.
func (h *Handlers) ListReports(c *gin.Context) {
	filter := models.ReportFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}

	reports, err := h.service.ListReports(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport returns a single report by id.
func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.service.GetReportByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdateReportStatus moves a report to a new status.
func (h *Handlers) UpdateReportStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("Failed to bind status update request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read JSON input"})
		return
	}

	userID := middleware.GetUserIDFromContext(c)
	report, err := h.service.UpdateReportStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	log.Infof("Report %s moved to %s by %s", report.ID, report.Status, userID)
	c.JSON(http.StatusOK, report)
}

// GetStats returns the dashboard aggregates.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.service.GetDashboardStats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateAnnouncement handles operator broadcasts.
func (h *Handlers) CreateAnnouncement(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("Failed to bind announcement request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read JSON input"})
		return
	}

	announcement, err := h.service.CreateAnnouncement(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, announcement)
}

// writeError maps domain errors onto HTTP status codes. Anything outside the
// taxonomy is an upstream failure and surfaces as a 500.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Errorf("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
