package api

import (
	"errors"
	"testing"
)

func TestOutcomeDone(t *testing.T) {
	o := Done("payload")
	if !o.Success() || o.Paused() || o.Failed() {
		t.Fatalf("unexpected kind flags on Done")
	}
	if o.Value() != "payload" {
		t.Fatalf("expected payload, got %v", o.Value())
	}
	if o.Err() != nil {
		t.Fatalf("expected nil error, got %v", o.Err())
	}
}

func TestOutcomePause(t *testing.T) {
	o := Pause()
	if !o.Paused() || o.Success() || o.Failed() {
		t.Fatalf("unexpected kind flags on Pause")
	}
	if o.Value() != nil || o.Err() != nil {
		t.Fatal("pause carries neither output nor error")
	}
}

func TestOutcomeFail(t *testing.T) {
	cause := errors.New("broke")
	o := Fail(cause)
	if !o.Failed() {
		t.Fatal("expected failed outcome")
	}
	if !errors.Is(o.Err(), cause) {
		t.Fatalf("expected wrapped cause, got %v", o.Err())
	}
}

func TestOutcomeFailNilError(t *testing.T) {
	if err := Fail(nil).Err(); err == nil {
		t.Fatal("Fail(nil) must still carry an error")
	}
}

// A handler that returns Outcome{} by mistake must read as a failure
// with a usable error, never as a silent success.
func TestOutcomeZeroValue(t *testing.T) {
	var o Outcome
	if !o.Failed() {
		t.Fatal("zero-value outcome must be a failure")
	}
	if o.Err() == nil {
		t.Fatal("zero-value outcome must carry an error")
	}
}

func TestOutcomeFailf(t *testing.T) {
	o := Failf("attempt %d of %d", 2, 3)
	if got := o.Err().Error(); got != "attempt 2 of 3" {
		t.Fatalf("unexpected formatted error: %q", got)
	}
}
