package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"citywatch/database"
	"citywatch/models"

	"github.com/apex/log"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
)

// Domain errors. Handlers map these onto HTTP status codes with errors.Is.
var (
	ErrNotFound   = errors.New("report not found")
	ErrValidation = errors.New("invalid input")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Publisher fans out created records to the message broker.
type Publisher interface {
	Publish(message interface{}) error
	PublishWithRoutingKey(routingKey string, message interface{}) error
}

// Broadcaster pushes created reports to connected dashboard clients.
type Broadcaster interface {
	BroadcastReport(report *models.Report)
}

// ReportService implements the report lifecycle and derived aggregates over
// the report store. Publisher and broadcaster are optional collaborators;
// their failures are logged and never fail the originating request.
type ReportService struct {
	db          *database.Database
	publisher   Publisher
	broadcaster Broadcaster
	announceKey string
}

// NewReportService creates a report service. publisher and broadcaster may
// be nil.
func NewReportService(db *database.Database, publisher Publisher, broadcaster Broadcaster, announceKey string) *ReportService {
	return &ReportService{
		db:          db,
		publisher:   publisher,
		broadcaster: broadcaster,
		announceKey: announceKey,
	}
}

// CreateReport validates a citizen submission and persists it with a
// server-assigned id and timestamps. Status always starts at OPEN.
func (s *ReportService) CreateReport(ctx context.Context, req *models.CreateReportRequest) (*models.Report, error) {
	if req.Category == "" {
		return nil, validationError("category is required")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, validationError("latitude and longitude are required")
	}
	if !s2.LatLngFromDegrees(*req.Latitude, *req.Longitude).IsValid() {
		return nil, validationError("coordinates out of range: lat=%v lng=%v", *req.Latitude, *req.Longitude)
	}

	riskScore := 0
	if req.RiskScore != nil {
		riskScore = *req.RiskScore
		if riskScore < 0 {
			riskScore = 0
		}
		if riskScore > 100 {
			riskScore = 100
		}
	}

	now := time.Now().UTC()
	report := &models.Report{
		ID:          uuid.NewString(),
		Category:    req.Category,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		RiskScore:   riskScore,
		Status:      models.StatusOpen,
		ReportedBy:  req.ReportedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReport(ctx, report); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(report); err != nil {
			log.Errorf("Failed to publish report %s: %v", report.ID, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastReport(report)
	}

	return report, nil
}

// ListReports returns the full report set, newest first, optionally
// narrowed by status and category.
func (s *ReportService) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	if filter.Status != "" {
		status, ok := models.NormalizeStatus(filter.Status)
		if !ok {
			return nil, validationError("unknown status %q", filter.Status)
		}
		filter.Status = status
	}
	return s.db.ListReports(ctx, filter)
}

// GetReportByID returns a single report or ErrNotFound.
func (s *ReportService) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.db.GetReportByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

// UpdateReportStatus moves a report to a new status and touches updated_at.
// Transitions are unrestricted: any status may move to any other. Concurrent
// updates are last-writer-wins.
func (s *ReportService) UpdateReportStatus(ctx context.Context, id, newStatus string) (*models.Report, error) {
	status, ok := models.NormalizeStatus(newStatus)
	if !ok {
		return nil, validationError("unknown status %q", newStatus)
	}

	rows, err := s.db.UpdateReportStatus(ctx, id, status, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return s.GetReportByID(ctx, id)
}

// GetDashboardStats recomputes the dashboard aggregates from the current
// report set. This is the single source of truth for derived stats; clients
// consume these numbers and never recompute them.
func (s *ReportService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	reports, err := s.db.ListReports(ctx, models.ReportFilter{})
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(reports, time.Now().UTC())
	return &stats, nil
}

// ComputeStats folds a report set into dashboard aggregates. Pure: same
// input yields the same output for a fixed now.
func ComputeStats(reports []models.Report, now time.Time) models.DashboardStats {
	stats := models.DashboardStats{Total: len(reports)}
	today := now.UTC().Truncate(24 * time.Hour)
	for _, r := range reports {
		resolved := r.Status == models.StatusResolved
		if !resolved {
			stats.Active++
			if r.RiskScore >= models.CriticalRiskThreshold {
				stats.Critical++
			}
		}
		if r.Status == models.StatusPending {
			stats.Pending++
		}
		if resolved && r.UpdatedAt.UTC().Truncate(24*time.Hour).Equal(today) {
			stats.ResolvedToday++
		}
	}
	return stats
}

// CreateAnnouncement persists and broadcasts an operator announcement.
// Fire-and-forget: there is no lifecycle beyond creation.
func (s *ReportService) CreateAnnouncement(ctx context.Context, req *models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if req.Title == "" {
		return nil, validationError("title is required")
	}
	if req.Message == "" {
		return nil, validationError("message is required")
	}

	category := req.Category
	if category == "" {
		category = "General"
	}

	announcement := &models.Announcement{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Message:   req.Message,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.db.SaveAnnouncement(ctx, announcement); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishWithRoutingKey(s.announceKey, announcement); err != nil {
			log.Errorf("Failed to publish announcement %s: %v", announcement.ID, err)
		}
	}

	return announcement, nil
}
