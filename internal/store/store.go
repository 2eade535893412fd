package store

import (
	"context"
	"time"

	"github.com/me/agentpool/pkg/model"
)

// Store is the audit trail of reconciliation ticks and the commands they
// issued. It is written by the tick loop and read by the status API; the
// decision engine never consults it.
type Store interface {
	// RecordTick persists one tick and its commands atomically.
	RecordTick(ctx context.Context, tick *model.TickRecord, cmds []model.Command) error

	// ListTicks returns the most recent ticks, newest first.
	ListTicks(ctx context.Context, limit int) ([]*model.TickRecord, error)

	// ListCommands returns the most recently issued commands, newest first.
	ListCommands(ctx context.Context, limit int) ([]*model.Command, error)

	// PruneTicksBefore deletes ticks (and their commands) recorded before t.
	PruneTicksBefore(ctx context.Context, t time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
