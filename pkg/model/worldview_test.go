package model

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestNewWorldViewRequiresManagedNodes(t *testing.T) {
	_, err := NewWorldView(0, 0, nil, nil, t0)
	if !errors.Is(err, ErrNoManagedNodes) {
		t.Fatalf("err = %v, want ErrNoManagedNodes", err)
	}

	_, err = NewWorldView(0, 0, []Node{}, nil, t0)
	if !errors.Is(err, ErrNoManagedNodes) {
		t.Fatalf("err = %v, want ErrNoManagedNodes for empty slice", err)
	}
}

func TestNewWorldViewRejectsNegativeCounts(t *testing.T) {
	managed := []Node{"n1"}
	if _, err := NewWorldView(-1, 0, managed, nil, t0); err == nil {
		t.Error("negative backlog accepted")
	}
	if _, err := NewWorldView(0, -1, managed, nil, t0); err == nil {
		t.Error("negative agent count accepted")
	}
}

func TestNewWorldViewDefaults(t *testing.T) {
	v, err := NewWorldView(2, 1, []Node{"n1", "n2"}, nil, t0)
	if err != nil {
		t.Fatalf("NewWorldView: %v", err)
	}
	if v.Alive == nil || len(v.Alive) != 0 {
		t.Errorf("alive = %v, want empty non-nil map", v.Alive)
	}
	if v.Pending == nil || len(v.Pending) != 0 {
		t.Errorf("pending = %v, want empty non-nil map", v.Pending)
	}
	if !v.Time.Equal(t0) {
		t.Errorf("time = %v, want %v", v.Time, t0)
	}
}

func TestCloneIsolatesMaps(t *testing.T) {
	v, err := NewWorldView(0, 0, []Node{"n1"}, map[Node]time.Time{"n1": t0}, t0)
	if err != nil {
		t.Fatalf("NewWorldView: %v", err)
	}

	c := v.Clone()
	c.Pending["n1"] = t0
	c.Alive["n2"] = t0
	c.Managed[0] = "other"

	if len(v.Pending) != 0 {
		t.Errorf("original pending = %v, want untouched", v.Pending)
	}
	if len(v.Alive) != 1 {
		t.Errorf("original alive = %v, want untouched", v.Alive)
	}
	if v.Managed[0] != "n1" {
		t.Errorf("original managed = %v, want untouched", v.Managed)
	}
}
