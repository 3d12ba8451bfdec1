/*
scheduler.go - Automated billing close

PURPOSE:
  Periodically checks every company for a billing window that has ended
  and records the company's billing report for it, once per window.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - The last closed window is the most recent one ending before today
  - Windows already closed are skipped; passes never overlap
  - Runs are kept in memory for the API (GET /api/billing/closes)

USAGE:
  scheduler := NewBillingCloseScheduler(store, svc, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - hours/billing.go: LastClosedPeriod
  - accounting/service.go: CompanyBilling
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

// CompanyLister lists the companies to close.
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]hours.Company, error)
}

// CompanyBiller computes one company's billing report.
type CompanyBiller interface {
	CompanyBilling(ctx context.Context, companyID string, year, month int) (accounting.CompanyBillingReport, error)
}

// BillingClose is one recorded close.
type BillingClose struct {
	CompanyID string
	Year      int
	Month     time.Month
	Period    generic.Period
	Summary   hours.RollupSummary
	Employees int
	ClosedAt  time.Time
}

// BillingCloseScheduler closes billing windows as they end.
type BillingCloseScheduler struct {
	Companies     CompanyLister
	Biller        CompanyBiller
	CheckInterval time.Duration
	Enabled       bool

	// Today overrides the clock (tests)
	Today func() generic.Date

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// Held for a whole pass so a window is billed at most once
	passMu sync.Mutex

	runsMu sync.RWMutex
	closed map[string]string // company -> last closed reference month
	runs   []BillingClose
}

// NewBillingCloseScheduler creates a new scheduler.
func NewBillingCloseScheduler(companies CompanyLister, biller CompanyBiller, logger *zap.Logger) *BillingCloseScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingCloseScheduler{
		Companies:     companies,
		Biller:        biller,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Today:         generic.Today,
		logger:        logger.Named("billing-close"),
		closed:        make(map[string]string),
	}
}

// Start begins the scheduler.
func (s *BillingCloseScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("Scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()

	s.logger.Info("Scheduler started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *BillingCloseScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.logger.Info("Scheduler stopped")
	}
}

func (s *BillingCloseScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunNow closes every company whose last ended window has not been closed
// yet and returns how many were closed. Concurrent calls run one after the
// other.
func (s *BillingCloseScheduler) RunNow(ctx context.Context) int {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	today := s.Today()

	companies, err := s.Companies.ListCompanies(ctx)
	if err != nil {
		s.logger.Error("Listing companies failed", zap.Error(err))
		return 0
	}

	processed := 0
	for _, c := range companies {
		year, month, period, err := hours.LastClosedPeriod(c.Billing, today)
		if err != nil {
			s.logger.Warn("Company has an invalid billing window", zap.String("company", c.ID), zap.Error(err))
			continue
		}
		ref := hours.PeriodID{Kind: hours.PeriodMonth, Year: year, Month: month}.String()
		if s.alreadyClosed(c.ID, ref) {
			continue
		}

		report, err := s.Biller.CompanyBilling(ctx, c.ID, year, int(month))
		if err != nil {
			s.logger.Error("Billing close failed",
				zap.String("company", c.ID), zap.String("period", ref), zap.Error(err))
			continue
		}
		s.record(BillingClose{
			CompanyID: c.ID,
			Year:      year,
			Month:     month,
			Period:    period,
			Summary:   report.Summary,
			Employees: len(report.Employees),
			ClosedAt:  time.Now().UTC(),
		}, ref)
		processed++

		s.logger.Info("Closed billing window",
			zap.String("company", c.ID),
			zap.String("period", ref),
			zap.Stringer("range", period),
			zap.Int("employees", len(report.Employees)),
			zap.Stringer("efficiency", report.Summary.Efficiency))
	}
	return processed
}

func (s *BillingCloseScheduler) alreadyClosed(companyID, ref string) bool {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	return s.closed[companyID] == ref
}

func (s *BillingCloseScheduler) record(run BillingClose, ref string) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	s.closed[run.CompanyID] = ref
	s.runs = append(s.runs, run)
}

// Runs returns the recorded closes, newest first.
func (s *BillingCloseScheduler) Runs() []BillingClose {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	out := make([]BillingClose, len(s.runs))
	for i, run := range s.runs {
		out[len(s.runs)-1-i] = run
	}
	return out
}

// NextRunTime returns when the next scheduled check will occur.
func (s *BillingCloseScheduler) NextRunTime() time.Time {
	return time.Now().Add(s.CheckInterval)
}
