package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestObservationErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("tick failed: %w", &ObservationError{Source: "drone", Op: "backlog", Err: cause})

	var oe *ObservationError
	if !errors.As(err, &oe) {
		t.Fatalf("errors.As failed on %v", err)
	}
	if oe.Source != "drone" || oe.Op != "backlog" {
		t.Errorf("got %+v, want drone/backlog", oe)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if want := "observe drone backlog"; !strings.Contains(err.Error(), want) {
		t.Errorf("message %q does not contain %q", err.Error(), want)
	}
}

func TestActuationErrorWrapping(t *testing.T) {
	cause := errors.New("machine not found")
	err := fmt.Errorf("act: %w", &ActuationError{Node: "n1", Op: "stop", Err: cause})

	var ae *ActuationError
	if !errors.As(err, &ae) {
		t.Fatalf("errors.As failed on %v", err)
	}
	if ae.Node != "n1" || ae.Op != "stop" {
		t.Errorf("got %+v, want n1/stop", ae)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}
