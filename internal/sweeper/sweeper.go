// Package sweeper implements the recurring alert sweep. Each sweep walks
// every non-terminal case, evaluates the policy conditions, and replaces
// the case's derived alert set wholesale so alerts self-resolve the moment
// their condition clears.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentinelle-systems/caseflow/internal/alertstore"
	"github.com/sentinelle-systems/caseflow/internal/metrics"
	"github.com/sentinelle-systems/caseflow/internal/models"
	"github.com/sentinelle-systems/caseflow/internal/policy"
	"github.com/sentinelle-systems/caseflow/internal/repository"
)

// ErrSweepInFlight is returned when a sweep is requested while the previous
// one is still running. Sweeps never overlap.
var ErrSweepInFlight = errors.New("sweep already in flight")

// Config configures the sweep loop.
type Config struct {
	// Interval between sweeps. Defaults to 1 minute.
	Interval time.Duration

	// Timeout bounds a single sweep so a slow run cannot pile up behind
	// the ticker. Defaults to the interval.
	Timeout time.Duration

	// Workers bounds per-case evaluation parallelism. Defaults to 8.
	Workers int
}

// Sweeper evaluates alert conditions over open cases.
type Sweeper struct {
	store  repository.CaseStore
	alerts alertstore.Store
	policy *policy.Policy
	now    func() time.Time
	log    *slog.Logger

	interval time.Duration
	timeout  time.Duration
	workers  int

	mu      sync.Mutex
	running bool
}

// New creates a sweeper. now defaults to time.Now when nil.
func New(store repository.CaseStore, alerts alertstore.Store, pol *policy.Policy, cfg Config, log *slog.Logger, now func() time.Time) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = cfg.Interval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:    store,
		alerts:   alerts,
		policy:   pol,
		now:      now,
		log:      log,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		workers:  cfg.Workers,
	}
}

// Run starts the sweep loop and blocks until ctx is cancelled. The first
// sweep runs immediately.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("alert sweeper started", slog.Duration("interval", s.interval), slog.Int("workers", s.workers))

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("alert sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.Sweep(sweepCtx); err != nil {
		if errors.Is(err, ErrSweepInFlight) {
			s.log.Warn("previous sweep still in flight; skipping tick")
			return
		}
		s.log.Error("sweep failed", slog.String("error", err.Error()))
	}
}

// Sweep performs a single evaluation pass. It refuses to overlap a sweep
// already in progress.
func (s *Sweeper) Sweep(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSweepInFlight
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	metrics.SweepsTotal.Inc()

	cases, err := s.store.ListOpenCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open cases: %w", err)
	}

	counts := newAlertCounter()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, c := range cases {
		g.Go(func() error {
			metrics.CasesEvaluated.Inc()
			alerts, err := s.EvaluateCase(gctx, c)
			if err != nil {
				metrics.SweepErrors.Inc()
				s.log.Error("case evaluation failed",
					slog.String("case", c.Number), slog.String("error", err.Error()))
				// One bad case must not abort the sweep.
				return nil
			}
			counts.add(alerts)
			if err := s.alerts.ReplaceForCase(gctx, c.ID, c.CommissariatID, alerts); err != nil {
				metrics.SweepErrors.Inc()
				s.log.Error("failed to replace alert set",
					slog.String("case", c.Number), slog.String("error", err.Error()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	counts.export()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.log.Debug("sweep complete",
		slog.Int("cases", len(cases)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// EvaluateCase computes the full alert set for one case snapshot. The four
// conditions are independent; a case may raise several alerts at once.
func (s *Sweeper) EvaluateCase(ctx context.Context, c *models.Case) ([]models.Alert, error) {
	now := s.now().UTC()
	alerts := []models.Alert{}

	if policy.IsBreached(c.SLADue, now) {
		overdue := now.Sub(c.SLADue)
		severity := models.SeverityWarning
		if overdue > s.policy.CriticalOverdue {
			severity = models.SeverityCritical
		}
		days := int(overdue.Hours() / 24)
		alerts = append(alerts, s.alert(c, models.AlertSLABreached, severity, days,
			fmt.Sprintf("case %s exceeded its %s deadline by %s", c.Number, c.Stage, formatOverdue(overdue)), now))
	}

	last, err := s.store.LastActivity(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !last.IsZero() && now.Sub(last) > s.policy.StagnationWindow {
		idleDays := int(now.Sub(last).Hours() / 24)
		alerts = append(alerts, s.alert(c, models.AlertNoActivity, models.SeverityWarning, 0,
			fmt.Sprintf("case %s has had no activity for %d days", c.Number, idleDays), now))
	}

	if c.Stage == models.StageInvestigation &&
		s.policy.RequiresExpertise(c.Category) &&
		now.Sub(c.StageEnteredAt) > s.policy.ExpertiseDwell {
		alerts = append(alerts, s.alert(c, models.AlertExpertiseRequired, models.SeverityInfo, 0,
			fmt.Sprintf("case %s (%s) has been under investigation beyond the expertise threshold", c.Number, c.Category), now))
	}

	if c.Stage == models.StageSummoning && c.SummonsCount == 0 {
		alerts = append(alerts, s.alert(c, models.AlertSummonsRequired, models.SeverityInfo, 0,
			fmt.Sprintf("case %s is in summoning with no summons issued", c.Number), now))
	}

	return alerts, nil
}

func (s *Sweeper) alert(c *models.Case, kind models.AlertKind, severity models.AlertSeverity, daysOverdue int, message string, now time.Time) models.Alert {
	return models.Alert{
		CaseID:         c.ID,
		CaseNumber:     c.Number,
		CommissariatID: c.CommissariatID,
		Kind:           kind,
		Severity:       severity,
		Message:        message,
		DaysOverdue:    daysOverdue,
		GeneratedAt:    now,
	}
}

func formatOverdue(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%d day(s)", days)
	}
	return fmt.Sprintf("%d hour(s)", int(d.Hours()))
}

// alertCounter accumulates per-kind/severity counts across workers for the
// active-alert gauge.
type alertCounter struct {
	mu     sync.Mutex
	counts map[[2]string]int
}

func newAlertCounter() *alertCounter {
	return &alertCounter{counts: make(map[[2]string]int)}
}

func (a *alertCounter) add(alerts []models.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, al := range alerts {
		a.counts[[2]string{string(al.Kind), string(al.Severity)}]++
	}
}

func (a *alertCounter) export() {
	a.mu.Lock()
	defer a.mu.Unlock()
	metrics.ActiveAlerts.Reset()
	for key, n := range a.counts {
		metrics.ActiveAlerts.WithLabelValues(key[0], key[1]).Set(float64(n))
	}
}
