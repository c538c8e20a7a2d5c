// Package poller detects operator edits to lead statuses and notifies the
// requesters.
//
// The loop has two states:
//  1. Priming: take the first snapshot as the baseline, notify nobody
//  2. Cycling: every interval read a snapshot, diff it against the
//     baseline, deliver the transitions, adopt the snapshot as baseline
//
// A cycle that cannot read the store keeps the previous baseline, so a
// change made during an outage is still reported once the store is back.
// A cycle is never interrupted by shutdown; cancellation is observed only
// while sleeping between cycles.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leadflow/internal/health"
	"leadflow/internal/lead"
	"leadflow/internal/metrics"
	"leadflow/internal/notify"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 60 * time.Second

// Source provides full-table snapshots.
type Source interface {
	ReadAll(ctx context.Context) (lead.Snapshot, error)
}

// Notifier delivers a batch of transitions sequentially.
type Notifier interface {
	NotifyAll(ctx context.Context, trs []lead.Transition) notify.Report
}

// Result summarizes one cycle.
type Result struct {
	CycleID     string
	Records     int
	Transitions []lead.Transition
	Report      notify.Report
}

// Poller owns the baseline snapshot carried between cycles.
type Poller struct {
	source   Source
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger
	monitor  *health.Monitor
	metrics  *metrics.Metrics

	baseline lead.Snapshot
	primed   bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMonitor reports loop state and cycle outcomes to m.
func WithMonitor(m *health.Monitor) Option {
	return func(p *Poller) { p.monitor = m }
}

// WithMetrics records cycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// New creates a Poller. It must be primed before cycling; Run does both.
func New(source Source, notifier Notifier, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		notifier: notifier,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) setState(state string) {
	if p.monitor != nil {
		p.monitor.SetState(state)
	}
}

func (p *Poller) report(status string, records, transitions int) {
	if p.monitor != nil {
		p.monitor.UpdatePollStatus(status, records, transitions)
	}
}

// Prime takes the initial baseline without notifying anyone.
func (p *Poller) Prime(ctx context.Context) error {
	p.setState(health.StatePriming)
	snap, err := p.source.ReadAll(ctx)
	if err != nil {
		p.report("error: "+err.Error(), 0, 0)
		return fmt.Errorf("prime: %w", err)
	}
	p.baseline = snap
	p.primed = true
	p.report("success", len(snap), 0)
	p.logger.Info("✓ Baseline snapshot taken", zap.Int("records", len(snap)))
	return nil
}

// RunCycle performs one read, diff and dispatch. The baseline is replaced
// only when the read succeeds.
func (p *Poller) RunCycle(ctx context.Context) (Result, error) {
	if !p.primed {
		return Result{}, fmt.Errorf("poller not primed")
	}

	start := time.Now()
	res := Result{CycleID: uuid.NewString()}
	log := p.logger.With(zap.String("cycle", res.CycleID))

	snap, err := p.source.ReadAll(ctx)
	if err != nil {
		log.Warn("⚠️  Snapshot failed, keeping previous baseline", zap.Error(err))
		p.metrics.RecordCycle("store_error", time.Since(start), 0, 0)
		p.report("error: "+err.Error(), 0, 0)
		return res, err
	}
	res.Records = len(snap)

	for _, id := range Changed(p.baseline, snap) {
		log.Debug("row changed", zap.String("id", id))
	}

	res.Transitions = Diff(p.baseline, snap)
	if len(res.Transitions) > 0 {
		log.Info("🔔 Status changes detected", zap.Int("count", len(res.Transitions)))
		res.Report = p.notifier.NotifyAll(ctx, res.Transitions)
	}

	p.baseline = snap
	p.metrics.RecordCycle("success", time.Since(start), res.Records, len(res.Transitions))
	p.report("success", res.Records, len(res.Transitions))

	log.Debug("cycle complete",
		zap.Int("records", res.Records),
		zap.Int("delivered", res.Report.Delivered),
		zap.Int("skipped", res.Report.Skipped),
		zap.Int("failed", res.Report.Failed),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}

// Run primes the baseline, retrying every interval until it succeeds, then
// cycles until ctx is cancelled. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("⏰ Status poller started", zap.Duration("interval", p.interval))
	defer p.setState(health.StateStopped)

	for !p.primed {
		if err := p.Prime(context.WithoutCancel(ctx)); err != nil {
			p.logger.Warn("⚠️  Priming failed, retrying", zap.Error(err))
			if !p.sleep(ctx) {
				return ctx.Err()
			}
		}
	}

	p.setState(health.StateCycling)
	for {
		if !p.sleep(ctx) {
			p.logger.Info("🛑 Status poller stopped")
			return ctx.Err()
		}
		p.safeCycle(context.WithoutCancel(ctx))
	}
}

// safeCycle runs one cycle and contains any panic so the loop survives.
func (p *Poller) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("❌ Poll cycle panicked", zap.Any("panic", r))
			p.metrics.RecordCycle("panic", 0, 0, 0)
			p.report(fmt.Sprintf("panic: %v", r), 0, 0)
		}
	}()
	_, _ = p.RunCycle(ctx)
}

// sleep waits one interval; it returns false if ctx was cancelled first.
func (p *Poller) sleep(ctx context.Context) bool {
	t := time.NewTimer(p.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
