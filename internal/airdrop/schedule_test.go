package airdrop

import (
	"testing"
	"time"
)

func TestEvaluateBootstrap(t *testing.T) {
	s := DefaultSchedule()
	action := s.Evaluate(12345678, 0)
	if action.Kind != ActionBootstrap || action.Stage != 1 || action.Height != 680000 {
		t.Fatalf("unexpected bootstrap action: %+v", action)
	}
	if action.Policy != PolicyEqualSplit || action.Amount.String() != "9150000000000" {
		t.Fatalf("unexpected bootstrap policy/amount: %s %s", action.Policy, action.Amount)
	}
}

func TestEvaluateBoundaries(t *testing.T) {
	s := DefaultSchedule()
	cases := []struct {
		name   string
		stage  uint32
		height uint64
		want   ActionKind
		target uint64
	}{
		{"stage2 exact margin", 1, 690010, ActionAdvance, 690000},
		{"stage2 one short", 1, 690009, ActionNone, 0},
		{"stage2 well past", 1, 699990, ActionAdvance, 690000},
		{"stage3 before target", 2, 699999, ActionNone, 0},
		{"stage3 one short", 2, 700009, ActionNone, 0},
		{"stage3 exact margin", 2, 700010, ActionAdvance, 700000},
		{"last stage", 53, 10000000, ActionAdvance, 690000 + 52*10000},
		{"complete", 54, 10000000, ActionNone, 0},
		{"height below margin", 1, 5, ActionNone, 0},
	}
	for _, tc := range cases {
		action := s.Evaluate(tc.height, tc.stage)
		if action.Kind != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, action.Kind, tc.want)
		}
		if tc.want != ActionAdvance {
			continue
		}
		if action.Stage != tc.stage+1 || action.Height != tc.target {
			t.Fatalf("%s: got stage=%d height=%d", tc.name, action.Stage, action.Height)
		}
		if action.Policy != PolicyProportional || action.Amount.String() != "345283000000" {
			t.Fatalf("%s: got policy=%s amount=%s", tc.name, action.Policy, action.Amount)
		}
	}
}

func TestSchedulerRateLimit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewScheduler(DefaultSchedule(), time.Hour)
	s.Now = clock.Now

	if !s.Due() || !s.TryRun() {
		t.Fatalf("first run should be allowed")
	}
	if !s.LastRun().Equal(clock.now) {
		t.Fatalf("last run not recorded")
	}
	clock.now = clock.now.Add(59 * time.Minute)
	if s.Due() || s.TryRun() {
		t.Fatalf("run inside interval should be refused")
	}
	clock.now = clock.now.Add(time.Minute)
	if !s.TryRun() {
		t.Fatalf("run after interval should be allowed")
	}
}
