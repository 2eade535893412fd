package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoManagedNodes is returned when a WorldView is constructed without any
// managed nodes. An empty fleet means the autoscaler has nothing to decide
// over; it is always a configuration error.
var ErrNoManagedNodes = errors.New("world view requires at least one managed node")

// WorldView is a snapshot of queue and fleet state at a single point in time.
//
// Managed is ordered; its order is fixed by the fleet manager's response and
// stable for a given configuration. The start rule always picks the first
// element. Alive maps running nodes to the start time the fleet reported for
// them. Pending maps nodes with an in-flight start/stop command to the time
// the command was issued; until the next observation confirms the change,
// those nodes are treated as indeterminate. Time is the fleet authority's
// clock at observation; all duration arithmetic in the decision rules uses it.
type WorldView struct {
	Backlog int                `json:"backlog"`
	Agents  int                `json:"agents"`
	Managed []Node             `json:"managed"`
	Alive   map[Node]time.Time `json:"alive"`
	Pending map[Node]time.Time `json:"pending"`
	Time    time.Time          `json:"time"`
}

// NewWorldView builds a fresh snapshot from one tick's observations. Pending
// starts empty; the reconciler merges it from the previous tick. It fails if
// managed is empty or either counter is negative.
func NewWorldView(backlog, agents int, managed []Node, alive map[Node]time.Time, t time.Time) (WorldView, error) {
	if len(managed) == 0 {
		return WorldView{}, ErrNoManagedNodes
	}
	if backlog < 0 {
		return WorldView{}, fmt.Errorf("negative backlog %d", backlog)
	}
	if agents < 0 {
		return WorldView{}, fmt.Errorf("negative agent count %d", agents)
	}
	if alive == nil {
		alive = map[Node]time.Time{}
	}
	return WorldView{
		Backlog: backlog,
		Agents:  agents,
		Managed: managed,
		Alive:   alive,
		Pending: map[Node]time.Time{},
		Time:    t,
	}, nil
}

// Clone returns a deep copy. The maps in a WorldView are shared on
// assignment; callers that mutate Pending must clone first so the previous
// tick's view stays intact.
func (v WorldView) Clone() WorldView {
	out := v
	out.Managed = append([]Node(nil), v.Managed...)
	out.Alive = make(map[Node]time.Time, len(v.Alive))
	for n, t := range v.Alive {
		out.Alive[n] = t
	}
	out.Pending = make(map[Node]time.Time, len(v.Pending))
	for n, t := range v.Pending {
		out.Pending[n] = t
	}
	return out
}
