package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angelmondragon/gigbook-backend/pkg/logger"
	"github.com/angelmondragon/gigbook-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func newTestService(t *testing.T, lock Lock, jobs ...Job) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	ok := &testJob{name: "success"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	service := newTestService(t, &fakeLock{}, ok, failing)

	err := service.runCycle(context.Background())
	if err == nil {
		t.Fatalf("expected cycle to report the failing job")
	}
	if ok.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected each job to run once, got %d and %d", ok.runs, failing.runs)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sync"}
	service := newTestService(t, &fakeLock{acquired: true}, job)
	reg := prometheus.NewRegistry()
	service.metrics = metrics.NewCronJobMetrics(reg)

	if err := service.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job skipped while another replica holds the lock")
	}

	expected := `
# HELP gigbook_cron_job_runs_total Cron job executions by outcome.
# TYPE gigbook_cron_job_runs_total counter
gigbook_cron_job_runs_total{job="cycle",result="skipped"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "gigbook_cron_job_runs_total"); err != nil {
		t.Fatalf("unexpected skip metrics: %v", err)
	}
}

func TestRunOnceRunsNamedJob(t *testing.T) {
	target := &testJob{name: "sync"}
	other := &testJob{name: "audit"}
	service := newTestService(t, &fakeLock{}, target, other)

	if err := service.RunOnce(context.Background(), "sync"); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if target.runs != 1 || other.runs != 0 {
		t.Fatalf("expected only the named job to run")
	}
	if err := service.RunOnce(context.Background(), "missing"); err == nil {
		t.Fatalf("expected unknown job error")
	}
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error for missing logger")
	}
	if _, err := NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "x"})}); err == nil {
		t.Fatalf("expected error for missing lock")
	}
}
