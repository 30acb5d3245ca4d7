package convo

import "testing"

func TestExecutionTimeStartStopElapsed(t *testing.T) {
	var et ExecutionTime

	et.Start(100)
	if !et.IsActive || et.CurrentSessionStart == nil || *et.CurrentSessionStart != 100 {
		t.Fatalf("after Start(100): %+v", et)
	}
	if got := et.Elapsed(130); got != 30 {
		t.Fatalf("Elapsed(130) while active since 100 = %v, want 30", got)
	}

	et.Stop(150)
	if et.IsActive || et.CurrentSessionStart != nil {
		t.Fatalf("after Stop(150): %+v", et)
	}
	if et.TotalSeconds != 50 {
		t.Fatalf("TotalSeconds after Stop = %v, want 50", et.TotalSeconds)
	}
	if got := et.Elapsed(999); got != 50 {
		t.Fatalf("Elapsed while inactive = %v, want TotalSeconds unchanged (50)", got)
	}
}

func TestExecutionTimeStartIsIdempotentWhileActive(t *testing.T) {
	var et ExecutionTime
	et.Start(100)
	et.Start(200) // must not reset the session start

	if *et.CurrentSessionStart != 100 {
		t.Fatalf("CurrentSessionStart = %d, want 100 (second Start while active must be a no-op)", *et.CurrentSessionStart)
	}
}

func TestExecutionTimeStopWhileInactiveIsNoOp(t *testing.T) {
	var et ExecutionTime
	et.Stop(100) // must not panic or go negative
	if et.TotalSeconds != 0 {
		t.Fatalf("TotalSeconds = %v, want 0", et.TotalSeconds)
	}
}

func TestExecutionTimeAccumulatesAcrossMultipleSessions(t *testing.T) {
	var et ExecutionTime
	et.Start(0)
	et.Stop(10) // +10
	et.Start(20)
	et.Stop(25) // +5

	if et.TotalSeconds != 15 {
		t.Fatalf("TotalSeconds = %v, want 15 across two sessions", et.TotalSeconds)
	}
}
