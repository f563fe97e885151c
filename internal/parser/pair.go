package parser

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"mirrorScope/internal/model"
)

const (
	actionSwap              = "swap"
	actionProvideLiquidity  = "provide_liquidity"
	actionWithdrawLiquidity = "withdraw_liquidity"

	priceScale = 18
)

// PairClassifier classifies invocations of an AMM pair contract.
type PairClassifier struct {
	// QuoteDenom is the asset that makes a swap a BUY when offered.
	QuoteDenom string
}

func NewPairClassifier(quoteDenom string) *PairClassifier {
	if quoteDenom == "" {
		quoteDenom = "uusd"
	}
	return &PairClassifier{QuoteDenom: quoteDenom}
}

func (p *PairClassifier) Classify(inv Invocation) (*Result, error) {
	switch inv.Action {
	case actionSwap:
		return p.classifySwap(inv)
	case actionProvideLiquidity:
		return p.classifyLiquidity(inv, "assets", "share", false)
	case actionWithdrawLiquidity:
		return p.classifyLiquidity(inv, "refund_assets", "withdrawn_share", true)
	default:
		return nil, nil
	}
}

func (p *PairClassifier) classifySwap(inv Invocation) (*Result, error) {
	offerAsset, err := inv.Log.Require("offer_asset")
	if err != nil {
		return nil, err
	}
	askAsset := inv.Log.Get("ask_asset")
	offerAmount, err := requireAmount(inv.Log, "offer_amount")
	if err != nil {
		return nil, err
	}
	returnAmount, err := requireAmount(inv.Log, "return_amount")
	if err != nil {
		return nil, err
	}
	commission, err := optionalAmount(inv.Log, "commission_amount")
	if err != nil {
		return nil, err
	}

	txType := model.TxTypeSell
	if offerAsset == p.QuoteDenom {
		txType = model.TxTypeBuy
	}

	data := model.SwapData{
		OfferAsset:       offerAsset,
		AskAsset:         askAsset,
		OfferAmount:      offerAmount.String(),
		ReturnAmount:     returnAmount.String(),
		TaxAmount:        inv.Log.Get("tax_amount"),
		SpreadAmount:     inv.Log.Get("spread_amount"),
		CommissionAmount: commission.String(),
	}

	tx, err := newTransaction(inv, txType, data)
	if err != nil {
		return nil, err
	}
	at := tx.Datetime

	var volume decimal.Decimal
	var balance model.AggregateUpdate
	if txType == model.TxTypeBuy {
		volume = offerAmount
		price := decimal.Zero
		if returnAmount.IsPositive() {
			price = offerAmount.DivRound(returnAmount, priceScale)
		}
		tx.OutValue = offerAmount.String()
		tx.InValue = "0"
		tx.UusdChange = offerAmount.Neg().String()
		tx.CommissionValue = commission.Mul(price).Round(0).String()
		balance = model.AggregateUpdate{
			Kind:    model.UpdateBalance,
			Address: tx.Address,
			Token:   askAsset,
			Price:   price.String(),
			Amount:  returnAmount.String(),
			At:      at,
		}
	} else {
		volume = returnAmount
		tx.OutValue = "0"
		tx.InValue = returnAmount.String()
		tx.UusdChange = returnAmount.String()
		tx.CommissionValue = commission.String()
		balance = model.AggregateUpdate{
			Kind:    model.UpdateBalance,
			Address: tx.Address,
			Token:   offerAsset,
			Price:   "0",
			Amount:  offerAmount.Neg().String(),
			At:      at,
		}
	}
	tx.Volume = volume.String()
	tx.Tags = []string{actionSwap}

	return &Result{
		Tx: tx,
		Updates: []model.AggregateUpdate{
			{Kind: model.UpdateDailyVolume, Amount: volume.String(), At: at},
			balance,
		},
	}, nil
}

func (p *PairClassifier) classifyLiquidity(inv Invocation, assetsKey, shareKey string, withdraw bool) (*Result, error) {
	assetsValue, err := inv.Log.Require(assetsKey)
	if err != nil {
		return nil, err
	}
	assets, err := SplitTokenAmounts(assetsValue)
	if err != nil {
		return nil, err
	}

	var txType model.TxType
	var data interface{}
	if withdraw {
		txType = model.TxTypeWithdrawLiquidity
		data = model.WithdrawLiquidityData{RefundAssets: assetsValue, WithdrawnShare: inv.Log.Get(shareKey)}
	} else {
		txType = model.TxTypeProvideLiquidity
		data = model.ProvideLiquidityData{Assets: assetsValue, Share: inv.Log.Get(shareKey)}
	}

	tx, err := newTransaction(inv, txType, data)
	if err != nil {
		return nil, err
	}
	tx.Tags = []string{"liquidity"}

	updates := make([]model.AggregateUpdate, 0, len(assets))
	for _, asset := range assets {
		amount := asset.Amount
		// withdrawals are recorded as negated contributions
		if withdraw {
			amount = "-" + amount
		}
		updates = append(updates, model.AggregateUpdate{
			Kind:   model.UpdateLiquidity,
			Token:  asset.Token,
			Amount: amount,
			At:     tx.Datetime,
		})
	}

	return &Result{Tx: tx, Updates: updates}, nil
}

func newTransaction(inv Invocation, txType model.TxType, data interface{}) (model.Transaction, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("marshal %s data: %w", txType, err)
	}

	fee := inv.Record.Fee
	if fee == "" {
		fee = "0uusd"
	}

	tx := model.Transaction{
		Height:          inv.Record.Height,
		TxHash:          inv.Record.TxHash,
		MsgIndex:        inv.Record.MsgIndex,
		Address:         inv.Record.Sender,
		Type:            txType,
		Data:            payload,
		Token:           inv.Contract.Token,
		OutValue:        "0",
		InValue:         "0",
		Volume:          "0",
		CommissionValue: "0",
		UusdChange:      "0",
		Fee:             fee,
		Tags:            []string{},
		Datetime:        inv.Record.Time(),
	}
	if inv.Contract.ID != 0 {
		id := inv.Contract.ID
		tx.ContractID = &id
	}
	return tx, nil
}

func requireAmount(log AttributeLog, key string) (decimal.Decimal, error) {
	value, err := log.Require(key)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("attribute %q: %w", key, err)
	}
	return amount, nil
}

func optionalAmount(log AttributeLog, key string) (decimal.Decimal, error) {
	value, ok := log.Find(key)
	if !ok || value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("attribute %q: %w", key, err)
	}
	return amount, nil
}
