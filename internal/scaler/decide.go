package scaler

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/me/agentpool/pkg/model"
)

// Act applies the decision rules to a reconciled WorldView. At most one rule
// fires per tick: start one node when there is backlog and no capacity at
// all, otherwise stop every stale alive node. It returns the next view (with
// pending entries added for each command that was accepted), the commands
// issued, and any actuation errors joined together. A node whose command
// failed is left out of pending so the next tick can retry it.
func (r *Reconciler) Act(ctx context.Context, view model.WorldView) (model.WorldView, []model.Command, error) {
	if needsAgent(view) {
		node := view.Managed[0]
		if err := r.fleet.Start(ctx, node); err != nil {
			return view, nil, err
		}
		r.logger.Info("starting node", "node", node, "backlog", view.Backlog)
		next := view.Clone()
		next.Pending[node] = view.Time
		return next, []model.Command{newCommand(model.ActionStart, node, model.ReasonNeedsAgent, view.Time)}, nil
	}

	stale := staleNodes(view, r.cfg)
	if len(stale) == 0 {
		return view, nil, nil
	}

	next := view.Clone()
	var cmds []model.Command
	var errs []error
	for _, s := range stale {
		if err := r.fleet.Stop(ctx, s.node); err != nil {
			errs = append(errs, err)
			continue
		}
		r.logger.Info("stopping node", "node", s.node, "reason", s.reason)
		next.Pending[s.node] = view.Time
		cmds = append(cmds, newCommand(model.ActionStop, s.node, s.reason, view.Time))
	}
	return next, cmds, errors.Join(errs...)
}

// needsAgent reports whether the start rule fires: queued work with no
// active agent, no alive node, and nothing already in flight. One node is
// assumed sufficient to drain any backlog, so the rule never fires while
// even a single node is alive or pending.
func needsAgent(view model.WorldView) bool {
	return view.Agents == 0 && view.Backlog > 0 && len(view.Alive) == 0 && len(view.Pending) == 0
}

type staleNode struct {
	node   model.Node
	reason string
}

// staleNodes returns the alive nodes eligible for shutdown, skipping any
// with an in-flight command. A node is stale when it has crossed the age
// ceiling, or when there is no backlog and it sits in the last StopSlack
// minutes of its current billing window. The window is relative to the
// node's own start time, not the wall-clock hour. Results are ordered by
// node for deterministic command emission.
func staleNodes(view model.WorldView, cfg Config) []staleNode {
	window := int(cfg.BillingWindow / time.Minute)
	cutoff := window - int(cfg.StopSlack/time.Minute)
	ceiling := int(cfg.MaxAge / time.Minute)

	var stale []staleNode
	for node, started := range view.Alive {
		if _, inflight := view.Pending[node]; inflight {
			continue
		}
		age := minutesBetween(started, view.Time)
		switch {
		case age >= ceiling:
			stale = append(stale, staleNode{node, model.ReasonMaxAge})
		case view.Backlog == 0 && age%window >= cutoff:
			stale = append(stale, staleNode{node, model.ReasonBillingWindow})
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].node < stale[j].node })
	return stale
}

// minutesBetween returns the whole minutes elapsed from start to end,
// truncated toward zero.
func minutesBetween(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

func newCommand(action model.Action, node model.Node, reason string, at time.Time) model.Command {
	return model.Command{
		ID:       "cmd_" + uuid.New().String(),
		Action:   action,
		Node:     node,
		Reason:   reason,
		IssuedAt: at,
	}
}
