package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"citywatch/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	stor *Database
)

func setUp() {
	db, mock, _ = sqlmock.New()
	stor = NewWithDB(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func reportColumns() []string {
	return []string{"id", "category", "description", "latitude", "longitude",
		"risk_score", "status", "reported_by", "created_at", "updated_at"}
}

func TestSaveReport(t *testing.T) {
	it(func() {
		lat, lng := 40.71, -74.00
		now := time.Now().UTC()
		report := &models.Report{
			ID:        "r-1",
			Category:  "Pothole",
			Latitude:  &lat,
			Longitude: &lng,
			RiskScore: 85,
			Status:    models.StatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}

		mock.ExpectExec("INSERT INTO reports").
			WithArgs(report.ID, report.Category, report.Description,
				lat, lng, report.RiskScore,
				report.Status, report.ReportedBy, report.CreatedAt, report.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := stor.SaveReport(context.Background(), report); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetReportByID(t *testing.T) {
	it(func() {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(reportColumns()).
			AddRow("r-1", "Pothole", "deep hole", 40.71, -74.00, 85, "OPEN", "citizen-9", now, now)

		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id").
			WithArgs("r-1").
			WillReturnRows(rows)

		report, err := stor.GetReportByID(context.Background(), "r-1")
		if err != nil {
			t.Fatalf("GetReportByID failed: %v", err)
		}
		if report.ID != "r-1" || report.Category != "Pothole" {
			t.Errorf("unexpected report: %+v", report)
		}
		if report.Latitude == nil || *report.Latitude != 40.71 {
			t.Errorf("expected latitude 40.71, got %v", report.Latitude)
		}
		if report.Status != models.StatusOpen {
			t.Errorf("expected status OPEN, got %s", report.Status)
		}
	})
}

func TestGetReportByIDNoRows(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := stor.GetReportByID(context.Background(), "missing")
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("expected sql.ErrNoRows, got %v", err)
		}
	})
}

func TestGetReportByIDNullCoordinates(t *testing.T) {
	it(func() {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(reportColumns()).
			AddRow("r-2", "Water Leak", nil, nil, nil, 20, "PENDING", nil, now, now)

		mock.ExpectQuery("SELECT (.+) FROM reports WHERE id").
			WithArgs("r-2").
			WillReturnRows(rows)

		report, err := stor.GetReportByID(context.Background(), "r-2")
		if err != nil {
			t.Fatalf("GetReportByID failed: %v", err)
		}
		if report.Latitude != nil || report.Longitude != nil {
			t.Errorf("expected nil coordinates, got %v/%v", report.Latitude, report.Longitude)
		}
	})
}

func TestListReports(t *testing.T) {
	it(func() {
		testCases := []struct {
			name     string
			filter   models.ReportFilter
			wantArgs []driver.Value
		}{
			{
				name:   "no filter",
				filter: models.ReportFilter{},
			},
			{
				name:     "status filter",
				filter:   models.ReportFilter{Status: "OPEN"},
				wantArgs: []driver.Value{"OPEN"},
			},
			{
				name:     "status and category filter",
				filter:   models.ReportFilter{Status: "OPEN", Category: "Pothole"},
				wantArgs: []driver.Value{"OPEN", "Pothole"},
			},
		}

		for _, tc := range testCases {
			now := time.Now().UTC()
			rows := sqlmock.NewRows(reportColumns()).
				AddRow("r-1", "Pothole", nil, 40.71, -74.00, 85, "OPEN", nil, now, now).
				AddRow("r-2", "Water Leak", nil, nil, nil, 30, "OPEN", nil, now, now)

			expect := mock.ExpectQuery("SELECT (.+) FROM reports")
			if len(tc.wantArgs) > 0 {
				expect = expect.WithArgs(tc.wantArgs...)
			}
			expect.WillReturnRows(rows)

			reports, err := stor.ListReports(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("%s: ListReports failed: %v", tc.name, err)
			}
			if len(reports) != 2 {
				t.Errorf("%s: expected 2 reports, got %d", tc.name, len(reports))
			}
		}
	})
}

func TestUpdateReportStatus(t *testing.T) {
	it(func() {
		now := time.Now().UTC()

		mock.ExpectExec("UPDATE reports SET status").
			WithArgs("RESOLVED", now, "r-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := stor.UpdateReportStatus(context.Background(), "r-1", "RESOLVED", now)
		if err != nil {
			t.Fatalf("UpdateReportStatus failed: %v", err)
		}
		if rows != 1 {
			t.Errorf("expected 1 affected row, got %d", rows)
		}
	})
}

func TestUpdateReportStatusUnknownID(t *testing.T) {
	it(func() {
		now := time.Now().UTC()

		mock.ExpectExec("UPDATE reports SET status").
			WithArgs("RESOLVED", now, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := stor.UpdateReportStatus(context.Background(), "missing", "RESOLVED", now)
		if err != nil {
			t.Fatalf("UpdateReportStatus failed: %v", err)
		}
		if rows != 0 {
			t.Errorf("expected 0 affected rows, got %d", rows)
		}
	})
}

func TestSaveAnnouncement(t *testing.T) {
	it(func() {
		a := &models.Announcement{
			ID:        "a-1",
			Title:     "Road closure",
			Message:   "Main St closed until noon",
			Category:  "General",
			CreatedAt: time.Now().UTC(),
		}

		mock.ExpectExec("INSERT INTO announcements").
			WithArgs(a.ID, a.Title, a.Message, a.Category, a.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))

		if err := stor.SaveAnnouncement(context.Background(), a); err != nil {
			t.Fatalf("SaveAnnouncement failed: %v", err)
		}
	})
}
