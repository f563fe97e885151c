package model

import (
	"encoding/json"
	"time"
)

// Transaction is one classified contract invocation. It is written once per
// (TxHash, MsgIndex) and never updated.
type Transaction struct {
	ID              int64           `json:"id,omitempty"`
	Height          uint64          `json:"height"`
	TxHash          string          `json:"tx_hash"`
	MsgIndex        uint32          `json:"msg_index"`
	Address         string          `json:"address"`
	Type            TxType          `json:"type"`
	Data            json.RawMessage `json:"data"`
	Token           string          `json:"token,omitempty"`
	OutValue        string          `json:"out_value"`
	InValue         string          `json:"in_value"`
	Volume          string          `json:"volume"`
	CommissionValue string          `json:"commission_value"`
	UusdChange      string          `json:"uusd_change"`
	Fee             string          `json:"fee"`
	Tags            []string        `json:"tags"`
	Datetime        time.Time       `json:"datetime"`
	ContractID      *int64          `json:"contract_id,omitempty"`
}

// SwapData is the payload of BUY and SELL transactions.
type SwapData struct {
	OfferAsset       string `json:"offerAsset"`
	AskAsset         string `json:"askAsset"`
	OfferAmount      string `json:"offerAmount"`
	ReturnAmount     string `json:"returnAmount"`
	TaxAmount        string `json:"taxAmount"`
	SpreadAmount     string `json:"spreadAmount"`
	CommissionAmount string `json:"commissionAmount"`
}

// ProvideLiquidityData is the payload of PROVIDE_LIQUIDITY transactions.
type ProvideLiquidityData struct {
	Assets string `json:"assets"`
	Share  string `json:"share"`
}

// WithdrawLiquidityData is the payload of WITHDRAW_LIQUIDITY transactions.
type WithdrawLiquidityData struct {
	RefundAssets   string `json:"refundAssets"`
	WithdrawnShare string `json:"withdrawnShare"`
}

// Account is created the first time an address records a transaction.
type Account struct {
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}
