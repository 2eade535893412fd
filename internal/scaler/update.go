package scaler

import (
	"context"
	"fmt"
	"time"

	"github.com/me/agentpool/pkg/model"
)

// Update takes a fresh observation of the queue and the fleet and returns a
// new WorldView, carrying forward only the previous tick's pending set. Any
// observation failure aborts the whole refresh; the caller keeps the
// previous view and retries next tick.
func (r *Reconciler) Update(ctx context.Context, prev model.WorldView) (model.WorldView, error) {
	backlog, err := r.queue.Backlog(ctx)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}
	agents, err := r.queue.Agents(ctx)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}
	now, err := r.fleet.Now(ctx)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}
	managed, err := r.fleet.Managed(ctx)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}
	alive, err := r.fleet.Alive(ctx)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}

	view, err := model.NewWorldView(backlog, agents, managed, alive, now)
	if err != nil {
		return model.WorldView{}, fmt.Errorf("refresh world view: %w", err)
	}

	view.Pending = reconcilePending(prev, view, r.cfg.PendingExpiry)
	return view, nil
}

// reconcilePending merges the previous tick's pending set into the fresh
// snapshot. A pending entry is dropped once its node's alive status flips
// (the command resolved), or once it has been outstanding for expiry or
// longer (the command is treated as lost; without a timeout a node that
// never reports back would block decisions forever). Ages are measured
// against the fresh snapshot's fleet clock.
func reconcilePending(prev, fresh model.WorldView, expiry time.Duration) map[model.Node]time.Time {
	changed := statusChanged(prev.Alive, fresh.Alive)

	pending := make(map[model.Node]time.Time)
	for node, issued := range prev.Pending {
		if changed[node] {
			continue
		}
		if fresh.Time.Sub(issued) >= expiry {
			continue
		}
		pending[node] = issued
	}
	return pending
}

// statusChanged returns the symmetric difference of the two alive key sets:
// nodes that came up or went down between the two observations.
func statusChanged(prev, fresh map[model.Node]time.Time) map[model.Node]bool {
	changed := make(map[model.Node]bool)
	for node := range prev {
		if _, ok := fresh[node]; !ok {
			changed[node] = true
		}
	}
	for node := range fresh {
		if _, ok := prev[node]; !ok {
			changed[node] = true
		}
	}
	return changed
}
