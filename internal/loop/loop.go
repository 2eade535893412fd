// Package loop drives the reconciler at a fixed cadence. It is the only
// holder of the WorldView between ticks and serializes the handoff: the
// output of tick N is the sole input to tick N+1.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/agentpool/internal/scaler"
	"github.com/me/agentpool/internal/store"
	"github.com/me/agentpool/pkg/model"
)

// Config holds loop configuration.
type Config struct {
	PollInterval time.Duration
	// HistoryRetention bounds the audit trail; older ticks are pruned.
	HistoryRetention time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:     time.Minute,
		HistoryRetention: 24 * time.Hour,
	}
}

// Loop runs the reconciliation cycle on a ticker.
type Loop struct {
	rec    *scaler.Reconciler
	store  store.Store
	config Config
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}

	mu     sync.Mutex
	view   model.WorldView
	paused bool
}

// NewLoop creates a loop. The first tick starts from an empty previous
// view: with nothing alive and nothing pending on record, the refresh
// reduces to a plain observation.
func NewLoop(rec *scaler.Reconciler, st store.Store, cfg Config, logger *slog.Logger) *Loop {
	return &Loop{
		rec:    rec,
		store:  st,
		config: cfg,
		logger: logger.With("component", "loop"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins ticking. Blocks until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.logger.Info("loop started", "poll_interval", l.config.PollInterval)
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping (context cancelled)")
			close(l.doneCh)
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("loop stopping (stop called)")
			close(l.doneCh)
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop gracefully shuts down the loop and waits for the current tick to
// finish.
func (l *Loop) Stop() error {
	close(l.stopCh)
	<-l.doneCh
	return nil
}

// Tick runs one reconciliation cycle: refresh the WorldView, apply the
// decision rules, record the outcome. On an observation failure the
// previous view is retained untouched and the error returned; a failed
// tick never partially applies state.
func (l *Loop) Tick(ctx context.Context) error {
	prev := l.View()

	view, err := l.rec.Update(ctx, prev)
	if err != nil {
		l.record(ctx, prev, nil, model.DecisionError, err)
		return err
	}

	decision := model.DecisionNoop
	var cmds []model.Command
	var actErr error

	if l.Paused() {
		decision = model.DecisionPaused
	} else {
		view, cmds, actErr = l.rec.Act(ctx, view)
		switch {
		case actErr != nil:
			decision = model.DecisionError
		case len(cmds) > 0 && cmds[0].Action == model.ActionStart:
			decision = model.DecisionNeedsAgent
		case len(cmds) > 0:
			decision = model.DecisionStale
		}
	}

	l.setView(view)
	l.record(ctx, view, cmds, decision, actErr)
	l.prune(ctx, view.Time)

	l.logger.Debug("tick complete",
		"backlog", view.Backlog,
		"agents", view.Agents,
		"alive", len(view.Alive),
		"pending", len(view.Pending),
		"decision", decision,
	)
	return actErr
}

// View returns a copy of the current WorldView.
func (l *Loop) View() model.WorldView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view.Clone()
}

func (l *Loop) setView(v model.WorldView) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view = v
}

// Pause suspends decision-making. Observation continues, so the status API
// keeps reporting a fresh WorldView while commands are held.
func (l *Loop) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = true
}

// Resume re-enables decision-making.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = false
}

// Paused reports whether decision-making is suspended.
func (l *Loop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

func (l *Loop) record(ctx context.Context, view model.WorldView, cmds []model.Command, decision string, tickErr error) {
	rec := &model.TickRecord{
		ID:       "tick_" + uuid.New().String(),
		At:       view.Time,
		Backlog:  view.Backlog,
		Agents:   view.Agents,
		Managed:  len(view.Managed),
		Alive:    len(view.Alive),
		Pending:  len(view.Pending),
		Decision: decision,
	}
	if rec.At.IsZero() {
		// Observation failed before a fleet clock was read.
		rec.At = time.Now().UTC()
	}
	if tickErr != nil {
		rec.Error = tickErr.Error()
	}
	if err := l.store.RecordTick(ctx, rec, cmds); err != nil {
		l.logger.Error("record tick", "error", err)
	}
}

func (l *Loop) prune(ctx context.Context, now time.Time) {
	if l.config.HistoryRetention <= 0 || now.IsZero() {
		return
	}
	if err := l.store.PruneTicksBefore(ctx, now.Add(-l.config.HistoryRetention)); err != nil {
		l.logger.Error("prune history", "error", err)
	}
}
