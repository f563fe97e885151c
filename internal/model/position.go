package model

import "time"

// BalancePosition is one row of the append-only balance history for an
// (Address, Token) key. The latest row for a key is its current state.
type BalancePosition struct {
	Address      string    `json:"address"`
	Token        string    `json:"token"`
	Balance      string    `json:"balance"`
	AveragePrice string    `json:"average_price"`
	Datetime     time.Time `json:"datetime"`
}

// LiquidityPosition is the signed running sum of liquidity provided for a token.
type LiquidityPosition struct {
	Token     string `json:"token"`
	Liquidity string `json:"liquidity"`
}

// DailyStatistic accumulates trading volume for a UTC day.
type DailyStatistic struct {
	Datetime      time.Time `json:"datetime"`
	TradingVolume string    `json:"trading_volume"`
}
