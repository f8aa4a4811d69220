package instance

import "testing"

func TestGetIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("WORKER_ID", "worker-3")
	if got := GetID(); got != "web.1" {
		t.Fatalf("expected web.1 got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("WORKER_ID", "worker-3")
	if got := GetID(); got != "worker-3" {
		t.Fatalf("expected worker-3 got %q", got)
	}

	t.Setenv("WORKER_ID", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local got %q", got)
	}
}
