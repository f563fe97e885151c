// Package airdrop computes staking snapshots, allocates each stage's amount,
// commits the stage with its Merkle root and registers the root on-chain.
package airdrop

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Policy selects how a stage amount is split among stakers.
type Policy int

const (
	PolicyEqualSplit Policy = iota
	PolicyProportional
)

func (p Policy) String() string {
	switch p {
	case PolicyEqualSplit:
		return "equal_split"
	case PolicyProportional:
		return "proportional"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionBootstrap
	ActionAdvance
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionBootstrap:
		return "bootstrap"
	case ActionAdvance:
		return "advance"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is the outcome of evaluating the schedule. Stage, Height, Amount
// and Policy are set unless Kind is ActionNone.
type Action struct {
	Kind   ActionKind
	Stage  uint32
	Height uint64
	Amount decimal.Decimal
	Policy Policy
}

// Schedule holds the stage timetable.
type Schedule struct {
	BootstrapHeight    uint64
	BootstrapAmount    decimal.Decimal
	SnapshotStart      uint64
	SnapshotPeriod     uint64
	LastStage          uint32
	StageAmount        decimal.Decimal
	ConfirmationMargin uint64
}

// DefaultSchedule returns the production timetable.
func DefaultSchedule() Schedule {
	return Schedule{
		BootstrapHeight:    680000,
		BootstrapAmount:    decimal.RequireFromString("9150000000000"),
		SnapshotStart:      690000,
		SnapshotPeriod:     10000,
		LastStage:          54,
		StageAmount:        decimal.RequireFromString("345283000000"),
		ConfirmationMargin: 10,
	}
}

// TargetHeight returns the snapshot height of stage (stage >= 2).
func (s Schedule) TargetHeight(stage uint32) uint64 {
	return s.SnapshotStart + uint64(stage-2)*s.SnapshotPeriod
}

// Evaluate decides the next transition given the current chain height and
// the latest stage registered on-chain (0 when none).
func (s Schedule) Evaluate(currentHeight uint64, latestStage uint32) Action {
	if latestStage == 0 {
		return Action{
			Kind:   ActionBootstrap,
			Stage:  1,
			Height: s.BootstrapHeight,
			Amount: s.BootstrapAmount,
			Policy: PolicyEqualSplit,
		}
	}

	next := latestStage + 1
	if next > s.LastStage {
		return Action{Kind: ActionNone}
	}
	target := s.TargetHeight(next)
	if currentHeight < s.ConfirmationMargin || currentHeight-s.ConfirmationMargin < target {
		return Action{Kind: ActionNone}
	}
	return Action{
		Kind:   ActionAdvance,
		Stage:  next,
		Height: target,
		Amount: s.StageAmount,
		Policy: PolicyProportional,
	}
}

// Scheduler guards schedule evaluation with a minimum interval between runs.
type Scheduler struct {
	Schedule Schedule
	Interval time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewScheduler(schedule Schedule, interval time.Duration) *Scheduler {
	return &Scheduler{Schedule: schedule, Interval: interval, Now: time.Now}
}

// TryRun reports whether a run may start now and, if so, records it as the
// last run.
func (s *Scheduler) TryRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.Interval {
		return false
	}
	s.lastRun = now
	return true
}

// Due reports whether a run may start without recording one.
func (s *Scheduler) Due() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun.IsZero() || s.now().Sub(s.lastRun) >= s.Interval
}

func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
