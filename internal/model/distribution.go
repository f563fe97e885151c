package model

import "time"

// DistributionRecord is one recipient's allocation for a stage together with
// the inclusion proof against the stage's Merkle root.
type DistributionRecord struct {
	Network    Network   `json:"network"`
	Stage      uint32    `json:"stage"`
	Address    string    `json:"address"`
	Staked     string    `json:"staked"`
	Rate       string    `json:"rate"`
	Amount     string    `json:"amount"`
	Total      string    `json:"total"`
	Proof      string    `json:"proof"`
	MerkleRoot string    `json:"merkle_root"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
