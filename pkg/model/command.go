package model

import "time"

// Action is the kind of state change requested from the fleet manager.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Decision reasons recorded with each command.
const (
	ReasonNeedsAgent    = "needs_agent"    // backlog with no capacity anywhere
	ReasonBillingWindow = "billing_window" // idle and near the end of a paid hour
	ReasonMaxAge        = "max_age"        // past the unconditional age ceiling
)

// Command is the audit record of one start/stop issued to the fleet manager.
type Command struct {
	ID       string    `json:"id"`
	Action   Action    `json:"action"`
	Node     Node      `json:"node"`
	Reason   string    `json:"reason"`
	IssuedAt time.Time `json:"issued_at"`
}

// TickRecord summarizes one reconciliation cycle for the audit trail.
type TickRecord struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Backlog  int       `json:"backlog"`
	Agents   int       `json:"agents"`
	Managed  int       `json:"managed"`
	Alive    int       `json:"alive"`
	Pending  int       `json:"pending"`
	Decision string    `json:"decision"` // needs_agent, stale, noop, paused, error
	Error    string    `json:"error,omitempty"`
}

// Tick decision labels.
const (
	DecisionNeedsAgent = "needs_agent"
	DecisionStale      = "stale"
	DecisionNoop       = "noop"
	DecisionPaused     = "paused"
	DecisionError      = "error"
)
