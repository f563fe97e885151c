package airdrop

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEligibleStakers means no delegator met the minimum stake.
	ErrNoEligibleStakers = errors.New("no eligible stakers")
	// ErrInvalidTotal means the summed stake cannot be used as a divisor.
	ErrInvalidTotal = errors.New("invalid total stake")
	// ErrStageBusy means another run holds the stage.
	ErrStageBusy = errors.New("stage computation already running")
)

// StageError carries the context of a failed stage attempt.
type StageError struct {
	Stage     uint32
	Height    uint64
	Addresses int
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d at height %d (%d addresses): %v", e.Stage, e.Height, e.Addresses, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
