package drone

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/me/agentpool/pkg/model"
)

func TestBacklogCountsPendingStages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/queue" {
			t.Errorf("path = %s, want /api/queue", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q, want bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "status": "pending"},
			{"id": 2, "status": "running"},
			{"id": 3, "status": "pending"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	n, err := c.Backlog(context.Background())
	if err != nil {
		t.Fatalf("Backlog: %v", err)
	}
	if n != 2 {
		t.Errorf("backlog = %d, want 2", n)
	}
}

func TestAgentsCountsListEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/agents" {
			t.Errorf("path = %s, want /api/agents", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": "a1"}, {"id": "a2"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	n, err := c.Agents(context.Background())
	if err != nil {
		t.Fatalf("Agents: %v", err)
	}
	if n != 2 {
		t.Errorf("agents = %d, want 2", n)
	}
}

func TestBacklogWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Backlog(context.Background())

	var oe *model.ObservationError
	if !errors.As(err, &oe) {
		t.Fatalf("err = %v, want ObservationError", err)
	}
	if oe.Source != "drone" || oe.Op != "backlog" {
		t.Errorf("got %s/%s, want drone/backlog", oe.Source, oe.Op)
	}
}

func TestBacklogRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Backlog(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
