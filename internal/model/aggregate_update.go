package model

import "time"

// UpdateKind names the derived store an AggregateUpdate targets.
type UpdateKind string

const (
	UpdateBalance     UpdateKind = "balance"
	UpdateLiquidity   UpdateKind = "liquidity"
	UpdateDailyVolume UpdateKind = "daily_volume"
)

// AggregateUpdate is an instruction emitted by classification and applied to
// derived state in the same unit of work as the transaction write.
// Amounts are signed decimal strings.
type AggregateUpdate struct {
	Kind    UpdateKind `json:"kind"`
	Address string     `json:"address,omitempty"`
	Token   string     `json:"token,omitempty"`
	Price   string     `json:"price,omitempty"`
	Amount  string     `json:"amount"`
	At      time.Time  `json:"at"`
}
