package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/warp/hours-engine/accounting"
	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

type fakeCompanies []hours.Company

func (f fakeCompanies) ListCompanies(context.Context) ([]hours.Company, error) { return f, nil }

type fakeBiller struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	delay time.Duration
}

func (f *fakeBiller) CompanyBilling(_ context.Context, companyID string, year, month int) (accounting.CompanyBillingReport, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, companyID)
	if f.fail[companyID] {
		return accounting.CompanyBillingReport{}, errors.New("boom")
	}
	cfg := hours.DefaultBilling
	period, err := hours.ResolvePeriod(cfg, year, time.Month(month))
	if err != nil {
		return accounting.CompanyBillingReport{}, err
	}
	return accounting.CompanyBillingReport{Company: hours.Company{ID: companyID}, Period: period}, nil
}

func (f *fakeBiller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestBillingCloseScheduler_RunNowSkipsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	companies := fakeCompanies{
		{ID: "acme", Billing: hours.BillingPeriodConfig{StartDay: 26, EndDay: 25}},
		{ID: "broken", Billing: hours.BillingPeriodConfig{StartDay: 0, EndDay: 25}},
		{ID: "flaky", Billing: hours.DefaultBilling},
	}
	biller := &fakeBiller{fail: map[string]bool{"flaky": true}}

	s := NewBillingCloseScheduler(companies, biller, zap.New(core))
	s.Today = func() generic.Date { return generic.NewDate(2025, time.March, 15) }

	// WHEN: a pass runs
	closed := s.RunNow(context.Background())

	// THEN: only acme is closed; the invalid window is never billed and the
	// failing biller is logged
	assert.Equal(t, 1, closed)
	assert.Equal(t, []string{"acme", "flaky"}, biller.calls)
	assert.Equal(t, 1, logs.FilterMessage("Company has an invalid billing window").Len())
	assert.Equal(t, 1, logs.FilterMessage("Billing close failed").Len())

	runs := s.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "acme", runs[0].CompanyID)
	assert.Equal(t, time.February, runs[0].Month)

	// The failed company is retried on the next pass
	assert.Equal(t, 0, s.RunNow(context.Background()))
	assert.Equal(t, 3, biller.callCount())
}

func TestBillingCloseScheduler_NewWindowIsClosedOnce(t *testing.T) {
	biller := &fakeBiller{}
	s := NewBillingCloseScheduler(fakeCompanies{{ID: "beta", Billing: hours.DefaultBilling}}, biller, nil)

	today := generic.NewDate(2025, time.March, 15)
	s.Today = func() generic.Date { return today }
	assert.Equal(t, 1, s.RunNow(context.Background()))

	// GIVEN: the calendar moves into April
	today = generic.NewDate(2025, time.April, 2)

	// THEN: March is closed, and listed before February
	assert.Equal(t, 1, s.RunNow(context.Background()))
	assert.Equal(t, 0, s.RunNow(context.Background()))

	runs := s.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, time.March, runs[0].Month)
	assert.Equal(t, time.February, runs[1].Month)
}

func TestBillingCloseScheduler_StartStop(t *testing.T) {
	biller := &fakeBiller{}
	s := NewBillingCloseScheduler(fakeCompanies{{ID: "acme", Billing: hours.DefaultBilling}}, biller, nil)
	s.CheckInterval = time.Hour
	s.Today = func() generic.Date { return generic.NewDate(2025, time.March, 15) }

	s.Start()
	s.Start()

	// Start runs one pass immediately
	assert.Eventually(t, func() bool { return len(s.Runs()) == 1 }, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, biller.callCount())
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.NextRunTime(), time.Minute)
}

func TestBillingCloseScheduler_Disabled(t *testing.T) {
	biller := &fakeBiller{}
	s := NewBillingCloseScheduler(fakeCompanies{{ID: "acme", Billing: hours.DefaultBilling}}, biller, nil)
	s.Enabled = false

	s.Start()
	s.Stop()

	assert.Zero(t, biller.callCount())
	assert.Empty(t, s.Runs())
}

func TestBillingCloseScheduler_ConcurrentPassesBillOnce(t *testing.T) {
	biller := &fakeBiller{delay: 50 * time.Millisecond}
	s := NewBillingCloseScheduler(fakeCompanies{{ID: "acme", Billing: hours.DefaultBilling}}, biller, nil)
	s.Today = func() generic.Date { return generic.NewDate(2025, time.March, 10) }

	// WHEN: a ticker pass and a manual run overlap
	var wg sync.WaitGroup
	closed := make([]int, 2)
	for i := range closed {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			closed[i] = s.RunNow(context.Background())
		}(i)
	}
	wg.Wait()

	// THEN: February is billed and recorded exactly once
	assert.Equal(t, 1, closed[0]+closed[1])
	assert.Equal(t, 1, biller.callCount())
	require.Len(t, s.Runs(), 1)
	assert.Equal(t, time.February, s.Runs()[0].Month)
}
