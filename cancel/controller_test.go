package cancel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCancelRecordsReason(t *testing.T) {
	c := New(context.Background())
	canceled, _ := c.Canceled()
	if canceled {
		t.Fatalf("new controller should not start canceled")
	}
	reason := errors.New("user interrupt")
	c.Cancel(reason)
	canceled, cause := c.Canceled()
	if !canceled {
		t.Fatalf("expected controller to report canceled after Cancel")
	}
	if !errors.Is(cause, reason) {
		t.Fatalf("expected Canceled to report the given reason, got %v", cause)
	}
	select {
	case <-c.Context().Done():
	default:
		t.Fatalf("expected Context() to be done after Cancel")
	}
}

func TestPauseRequestRoundTrip(t *testing.T) {
	c := New(context.Background())
	if _, ok := c.PollPause(); ok {
		t.Fatalf("expected no pending pause request initially")
	}
	c.RequestPause(PauseRequest{Reason: "operator paused", RequestedBy: "cli"})
	req, ok := c.PollPause()
	if !ok {
		t.Fatalf("expected a pending pause request")
	}
	if req.Reason != "operator paused" {
		t.Fatalf("unexpected pause request: %+v", req)
	}
	if _, ok := c.PollPause(); ok {
		t.Fatalf("expected the pause request to be consumed")
	}
}

func TestRequestPauseDropsWhenAlreadyPending(t *testing.T) {
	c := New(context.Background())
	c.RequestPause(PauseRequest{Reason: "first"})
	c.RequestPause(PauseRequest{Reason: "second"})
	req, ok := c.PollPause()
	if !ok || req.Reason != "first" {
		t.Fatalf("expected the first pause request to win, got %+v, %v", req, ok)
	}
}

func TestWaitResumeUnblocksOnResumeRequest(t *testing.T) {
	c := New(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		c.RequestResume(ResumeRequest{Notes: "resuming"})
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req, err := c.WaitResume(ctx)
	if err != nil {
		t.Fatalf("WaitResume: %v", err)
	}
	if req.Notes != "resuming" {
		t.Fatalf("unexpected resume request: %+v", req)
	}
}

func TestWaitResumeReturnsOnContextDone(t *testing.T) {
	c := New(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := c.WaitResume(ctx); err == nil {
		t.Fatalf("expected WaitResume to return an error when its context is done")
	}
}
