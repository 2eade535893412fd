// Package scaler holds the autoscaler's decision engine: the snapshot
// refresh that reconciles in-flight commands against observed reality, and
// the rules that start a node on backlog or stop nodes that have gone stale.
package scaler

import (
	"context"
	"log/slog"
	"time"

	"github.com/me/agentpool/pkg/model"
)

// Queue observes the job queue: how much work is waiting and how many
// workers the queue believes are active.
type Queue interface {
	Backlog(ctx context.Context) (int, error)
	Agents(ctx context.Context) (int, error)
}

// Fleet observes and actuates the machine fleet. Now returns the provider's
// clock, which is the time authority for all decision arithmetic. Managed
// returns every node this system may control, in a stable order. Alive maps
// running nodes to their provider-reported start time.
type Fleet interface {
	Now(ctx context.Context) (time.Time, error)
	Managed(ctx context.Context) ([]model.Node, error)
	Alive(ctx context.Context) (map[model.Node]time.Time, error)
	Start(ctx context.Context, node model.Node) error
	Stop(ctx context.Context, node model.Node) error
}

// Config holds the decision-rule timing parameters.
type Config struct {
	// PendingExpiry is how long an unconfirmed start/stop blocks further
	// decisions on a node before it is treated as lost.
	PendingExpiry time.Duration
	// BillingWindow is the provider's billing granularity per node.
	BillingWindow time.Duration
	// StopSlack is the tail of the billing window in which stopping an idle
	// node wastes no paid-for time.
	StopSlack time.Duration
	// MaxAge stops a node unconditionally, backlog or not.
	MaxAge time.Duration
}

// DefaultConfig returns the standard timing parameters: 10-minute pending
// expiry, hourly billing with a 2-minute stop window, 5-hour age ceiling.
func DefaultConfig() Config {
	return Config{
		PendingExpiry: 10 * time.Minute,
		BillingWindow: time.Hour,
		StopSlack:     2 * time.Minute,
		MaxAge:        5 * time.Hour,
	}
}

// Reconciler combines queue and fleet observations into a WorldView each
// tick and applies the decision rules to it. It holds no state of its own;
// the caller carries the WorldView between ticks.
type Reconciler struct {
	queue  Queue
	fleet  Fleet
	cfg    Config
	logger *slog.Logger
}

// New creates a Reconciler.
func New(queue Queue, fleet Fleet, cfg Config, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		queue:  queue,
		fleet:  fleet,
		cfg:    cfg,
		logger: logger.With("component", "scaler"),
	}
}
