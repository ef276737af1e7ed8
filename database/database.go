package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"citywatch/config"
	"citywatch/models"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// Database is the MySQL-backed report store.
type Database struct {
	db *sql.DB
}

// NewDatabase opens a connection pool and waits for the database to become
// reachable, retrying with exponential backoff.
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	deadline := time.Now().Add(60 * time.Second)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			db.Close()
			return nil, fmt.Errorf("database ping timeout: %w", pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	log.Infof("Database connection established to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return &Database{db: db}, nil
}

// NewWithDB wraps an existing connection. Used by tests.
func NewWithDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// EnsureSchema creates the tables the store owns.
func (d *Database) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveReport inserts a new report row.
func (d *Database) SaveReport(ctx context.Context, r *models.Report) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO reports (id, category, description, latitude, longitude, risk_score, status, reported_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Category, r.Description, r.Latitude, r.Longitude,
		r.RiskScore, r.Status, r.ReportedBy, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetReportByID returns a single report. sql.ErrNoRows passes through for
// the service layer to map onto its not-found error.
func (d *Database) GetReportByID(ctx context.Context, id string) (*models.Report, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT id, category, description, latitude, longitude, risk_score, status, reported_by, created_at, updated_at
		 FROM reports WHERE id = ?`, id)
	return scanReport(row)
}

// ListReports returns reports newest first, optionally narrowed by status
// and category. No pagination: callers get the full set.
func (d *Database) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	query := `SELECT id, category, description, latitude, longitude, risk_score, status, reported_by, created_at, updated_at
		 FROM reports`
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// UpdateReportStatus sets the status and touches updated_at. Returns the
// number of affected rows so callers can distinguish a missing id.
func (d *Database) UpdateReportStatus(ctx context.Context, id, status string, updatedAt time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update report status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// SaveAnnouncement inserts an announcement row.
func (d *Database) SaveAnnouncement(ctx context.Context, a *models.Announcement) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO announcements (id, title, message, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Message, a.Category, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert announcement: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	var r models.Report
	var description, reportedBy sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(&r.ID, &r.Category, &description, &lat, &lng,
		&r.RiskScore, &r.Status, &reportedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Description = description.String
	r.ReportedBy = reportedBy.String
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lng.Valid {
		r.Longitude = &lng.Float64
	}
	return &r, nil
}
