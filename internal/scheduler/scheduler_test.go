package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/valuemetrics/internal/pipeline"
)

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := New(func(context.Context) (*pipeline.Result, error) { return &pipeline.Result{}, nil }, nil)
	if err := s.Start(context.Background(), "every tuesday"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestNextFollowsSchedule(t *testing.T) {
	s := New(func(context.Context) (*pipeline.Result, error) { return &pipeline.Result{}, nil }, nil)
	if !s.Next().IsZero() {
		t.Error("expected zero time before Start")
	}
	if err := s.Start(context.Background(), "30 2 * * *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	next := s.Next()
	if next.IsZero() {
		t.Fatal("expected a scheduled run")
	}
	if next.Hour() != 2 || next.Minute() != 30 {
		t.Errorf("expected 02:30, got %s", next.Format(time.Kitchen))
	}
}

func TestRunNowPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "run")

	var got any
	calls := 0
	s := New(func(ctx context.Context) (*pipeline.Result, error) {
		calls++
		got = ctx.Value(key{})
		return &pipeline.Result{Companies: 1}, nil
	}, nil)
	if err := s.Start(ctx, "@yearly"); err != nil {
		t.Fatal(err)
	}
	s.RunNow()
	s.Stop()

	if calls != 1 || got != "run" {
		t.Errorf("expected one run with the start context, got %d calls, value %v", calls, got)
	}
}

func TestRunNowSurvivesFailure(t *testing.T) {
	s := New(func(context.Context) (*pipeline.Result, error) {
		return nil, errors.New("database unavailable")
	}, nil)
	s.RunNow()

	s = New(func(context.Context) (*pipeline.Result, error) {
		return &pipeline.Result{Failed: []string{"X"}}, errors.New("write failed")
	}, nil)
	s.RunNow()
}

func TestRunNowSkipsWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	s := New(func(context.Context) (*pipeline.Result, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return &pipeline.Result{}, nil
	}, nil)

	done := make(chan bool)
	go func() { done <- s.RunNow() }()
	<-started

	if s.RunNow() {
		t.Error("expected overlapping run to be skipped")
	}
	close(release)
	if !<-done {
		t.Error("expected first run to complete")
	}
	if !s.RunNow() {
		t.Error("expected run after completion to proceed")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 runs, got %d", n)
	}
}
