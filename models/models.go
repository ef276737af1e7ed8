package models

import (
	"strings"
	"time"
)

// Report statuses form a closed enum. Incoming values are case-normalized
// before comparison because mock and live data disagree on casing.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusPending    = "PENDING"
	StatusResolved   = "RESOLVED"
)

// Risk score thresholds, shared by every view that buckets severity.
const (
	CriticalRiskThreshold = 70
	MediumRiskThreshold   = 40
)

// NormalizeStatus maps a raw status string onto the canonical enum value.
// It returns false for anything outside the enum.
func NormalizeStatus(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case StatusOpen, StatusInProgress, StatusPending, StatusResolved:
		return s, true
	}
	return "", false
}

// SeverityLabel buckets a risk score into critical/medium/low.
func SeverityLabel(riskScore int) string {
	switch {
	case riskScore >= CriticalRiskThreshold:
		return "critical"
	case riskScore >= MediumRiskThreshold:
		return "medium"
	default:
		return "low"
	}
}

// Report is a citizen-submitted infrastructure incident record.
// Latitude/Longitude are pointers because legacy rows may lack coordinates;
// such reports stay in list views but are excluded from the map.
type Report struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	RiskScore   int       `json:"risk_score"`
	Status      string    `json:"status"`
	ReportedBy  string    `json:"reported_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateReportRequest is the citizen submission payload.
type CreateReportRequest struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RiskScore   *int     `json:"risk_score"`
	ReportedBy  string   `json:"reported_by"`
}

// UpdateStatusRequest is the admin status change payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ReportFilter narrows list queries. Zero values mean no filtering.
type ReportFilter struct {
	Status   string
	Category string
}

// DashboardStats is derived from the current report set on every call and
// never persisted.
type DashboardStats struct {
	Active        int `json:"active"`
	Critical      int `json:"critical"`
	Pending       int `json:"pending"`
	ResolvedToday int `json:"resolvedToday"`
	Total         int `json:"total"`
}

// Announcement is a fire-and-forget operator broadcast.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAnnouncementRequest is the broadcast payload.
type CreateAnnouncementRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

// MapMarker is the dashboard map projection of a report.
type MapMarker struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Severity   int       `json:"severity"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	ReportedAt time.Time `json:"reportedAt"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
