package aggregator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"citywatch/models"
)

func TestClientListReports(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/admin/reports" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.Report{{ID: "r-1", Status: models.StatusOpen}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token", time.Second)
	reports, err := client.ListReports(context.Background())
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != "r-1" {
		t.Errorf("unexpected reports: %+v", reports)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
}

func TestClientUpdateReportStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/admin/reports/r-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		json.NewEncoder(w).Encode(models.Report{ID: "r-1", Status: req.Status})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	report, err := client.UpdateReportStatus(context.Background(), "r-1", models.StatusResolved)
	if err != nil {
		t.Fatalf("UpdateReportStatus failed: %v", err)
	}
	if report.Status != models.StatusResolved {
		t.Errorf("expected RESOLVED, got %s", report.Status)
	}
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"report not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.GetStats(context.Background()); err == nil {
		t.Error("expected error for non-2xx response")
	}
}
