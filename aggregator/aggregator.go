package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"citywatch/models"

	"github.com/apex/log"
)

// API is the slice of the report service the aggregator consumes.
type API interface {
	ListReports(ctx context.Context) ([]models.Report, error)
	GetStats(ctx context.Context) (*models.DashboardStats, error)
	UpdateReportStatus(ctx context.Context, id, status string) (*models.Report, error)
}

// Snapshot is the derived view state for one successful fetch. Stats come
// straight from the service; the aggregator never recomputes them.
type Snapshot struct {
	Reports   []models.Report
	Stats     models.DashboardStats
	Markers   []models.MapMarker
	FetchedAt time.Time
}

// Notifier surfaces transient conditions to the operator UI.
type Notifier func(message string)

// Aggregator maintains a polled view of the report service. A single loop
// goroutine drives fetches; an in-flight guard skips a tick when the
// previous fetch has not completed, so a slow backend cannot stack requests.
type Aggregator struct {
	api      API
	interval time.Duration
	notify   Notifier

	mu           sync.RWMutex
	snapshot     Snapshot
	haveSnapshot bool

	inFlight atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an aggregator polling api every interval. notify may be nil.
func New(api API, interval time.Duration, notify Notifier) *Aggregator {
	if notify == nil {
		notify = func(string) {}
	}
	return &Aggregator{
		api:      api,
		interval: interval,
		notify:   notify,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop with an immediate first fetch.
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.pollLoop(ctx)
}

// Stop tears the polling loop down and waits for it to finish.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
	a.wg.Wait()
}

// Snapshot returns the last successfully fetched view state. The second
// return is false until the first fetch succeeds.
func (a *Aggregator) Snapshot() (Snapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot, a.haveSnapshot
}

// UpdateStatus issues a status change and, on success, refreshes the view
// immediately instead of waiting for the next scheduled tick.
func (a *Aggregator) UpdateStatus(ctx context.Context, id, status string) (*models.Report, error) {
	report, err := a.api.UpdateReportStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if err := a.Refresh(ctx); err != nil {
		log.Warnf("Out-of-band refresh after status update failed: %v", err)
	}
	return report, nil
}

func (a *Aggregator) pollLoop(ctx context.Context) {
	defer a.wg.Done()

	if err := a.Refresh(ctx); err != nil {
		log.Warnf("Initial dashboard fetch failed: %v", err)
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Refresh(ctx); err != nil {
				// Stale state is kept; the loop keeps ticking.
				log.Warnf("Dashboard fetch failed: %v", err)
			}
		}
	}
}

// Refresh performs one fetch cycle. Reports and stats are fetched
// concurrently; either failure leaves the previous snapshot in place. A
// cycle is skipped entirely when another one is still in flight.
func (a *Aggregator) Refresh(ctx context.Context) error {
	if !a.inFlight.CompareAndSwap(false, true) {
		log.Debugf("Previous fetch still in flight, skipping tick")
		return nil
	}
	defer a.inFlight.Store(false)

	var (
		wg       sync.WaitGroup
		reports  []models.Report
		stats    *models.DashboardStats
		repErr   error
		statsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		reports, repErr = a.api.ListReports(ctx)
	}()
	go func() {
		defer wg.Done()
		stats, statsErr = a.api.GetStats(ctx)
	}()
	wg.Wait()

	if repErr != nil || statsErr != nil {
		err := repErr
		if err == nil {
			err = statsErr
		}
		a.mu.RLock()
		degraded := a.haveSnapshot
		a.mu.RUnlock()
		if degraded {
			a.notify("Connection lost. Retrying...")
		}
		return err
	}

	a.mu.Lock()
	a.snapshot = Snapshot{
		Reports:   reports,
		Stats:     *stats,
		Markers:   DeriveMarkers(reports),
		FetchedAt: time.Now().UTC(),
	}
	a.haveSnapshot = true
	a.mu.Unlock()
	return nil
}

// DeriveMarkers projects reports onto map markers. Reports missing either
// coordinate are excluded; everything else is included.
func DeriveMarkers(reports []models.Report) []models.MapMarker {
	markers := make([]models.MapMarker, 0, len(reports))
	for _, r := range reports {
		if r.Latitude == nil || r.Longitude == nil {
			continue
		}
		category := r.Category
		if category == "" {
			category = "Hazard"
		}
		markers = append(markers, models.MapMarker{
			ID:         r.ID,
			Lat:        *r.Latitude,
			Lng:        *r.Longitude,
			Severity:   r.RiskScore,
			Type:       category,
			Status:     r.Status,
			ReportedAt: r.CreatedAt,
		})
	}
	return markers
}
