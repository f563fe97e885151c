package parser

import (
	"encoding/json"
	"testing"

	"mirrorScope/internal/model"
)

var testPair = model.Contract{ID: 7, Address: "terra1pair", Type: model.ContractTypePair, Token: "terra1mAAPL"}

func buildInvocation(t *testing.T, msg string, attrs ...string) Invocation {
	t.Helper()
	if len(attrs)%2 != 0 {
		t.Fatalf("attrs must be key/value pairs")
	}
	event := model.Event{Type: EventFromContract}
	for i := 0; i < len(attrs); i += 2 {
		event.Attributes = append(event.Attributes, model.Attribute{Key: attrs[i], Value: attrs[i+1]})
	}
	record := model.InvocationRecord{
		Height:    1000,
		TxHash:    "0xhash",
		MsgIndex:  0,
		Sender:    "terra1trader",
		Contract:  testPair.Address,
		Msg:       json.RawMessage(msg),
		Events:    []model.Event{{Type: "message"}, event},
		Timestamp: 1606089600,
	}
	inv, err := NewInvocation(record, testPair)
	if err != nil {
		t.Fatalf("invocation: %v", err)
	}
	return inv
}

func findUpdate(updates []model.AggregateUpdate, kind model.UpdateKind) (model.AggregateUpdate, bool) {
	for _, update := range updates {
		if update.Kind == kind {
			return update, true
		}
	}
	return model.AggregateUpdate{}, false
}

func TestPairClassifierSwapDirection(t *testing.T) {
	tests := []struct {
		name       string
		offerAsset string
		askAsset   string
		wantType   model.TxType
		wantVolume string
		wantOut    string
		wantIn     string
	}{
		{name: "buy", offerAsset: "uusd", askAsset: "terra1mAAPL", wantType: model.TxTypeBuy, wantVolume: "1000", wantOut: "1000", wantIn: "0"},
		{name: "sell", offerAsset: "terra1mAAPL", askAsset: "uusd", wantType: model.TxTypeSell, wantVolume: "800", wantOut: "0", wantIn: "800"},
	}

	classifier := NewPairClassifier("uusd")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := buildInvocation(t, `{"swap":{}}`,
				"contract_address", testPair.Address,
				"action", "swap",
				"offer_asset", tt.offerAsset,
				"ask_asset", tt.askAsset,
				"offer_amount", "1000",
				"return_amount", "800",
				"tax_amount", "0",
				"spread_amount", "3",
				"commission_amount", "2",
			)

			result, err := classifier.Classify(inv)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if result == nil {
				t.Fatalf("expected result")
			}
			if result.Tx.Type != tt.wantType {
				t.Fatalf("type mismatch: %s", result.Tx.Type)
			}
			if result.Tx.OutValue != tt.wantOut || result.Tx.InValue != tt.wantIn {
				t.Fatalf("out/in mismatch: %s/%s", result.Tx.OutValue, result.Tx.InValue)
			}
			if result.Tx.Volume != tt.wantVolume {
				t.Fatalf("tx volume mismatch: %s", result.Tx.Volume)
			}
			volume, ok := findUpdate(result.Updates, model.UpdateDailyVolume)
			if !ok {
				t.Fatalf("missing volume update")
			}
			if volume.Amount != tt.wantVolume {
				t.Fatalf("volume update mismatch: %s", volume.Amount)
			}
			if result.Tx.ContractID == nil || *result.Tx.ContractID != testPair.ID {
				t.Fatalf("contract id mismatch")
			}
			if result.Tx.Token != testPair.Token {
				t.Fatalf("token mismatch: %s", result.Tx.Token)
			}

			var data model.SwapData
			if err := json.Unmarshal(result.Tx.Data, &data); err != nil {
				t.Fatalf("data: %v", err)
			}
			if data.OfferAsset != tt.offerAsset || data.ReturnAmount != "800" || data.SpreadAmount != "3" {
				t.Fatalf("data mismatch: %+v", data)
			}
		})
	}
}

func TestPairClassifierSwapBalanceUpdate(t *testing.T) {
	classifier := NewPairClassifier("uusd")

	buy := buildInvocation(t, `{"swap":{}}`,
		"offer_asset", "uusd", "ask_asset", "terra1mAAPL",
		"offer_amount", "1000", "return_amount", "100", "commission_amount", "1",
	)
	result, err := classifier.Classify(buy)
	if err != nil {
		t.Fatalf("classify buy: %v", err)
	}
	balance, ok := findUpdate(result.Updates, model.UpdateBalance)
	if !ok {
		t.Fatalf("missing balance update")
	}
	if balance.Token != "terra1mAAPL" || balance.Amount != "100" || balance.Price != "10" {
		t.Fatalf("buy balance mismatch: %+v", balance)
	}
	if result.Tx.UusdChange != "-1000" || result.Tx.CommissionValue != "10" {
		t.Fatalf("buy values mismatch: change=%s commission=%s", result.Tx.UusdChange, result.Tx.CommissionValue)
	}

	sell := buildInvocation(t, `{"swap":{}}`,
		"offer_asset", "terra1mAAPL", "ask_asset", "uusd",
		"offer_amount", "50", "return_amount", "600", "commission_amount", "2",
	)
	result, err = classifier.Classify(sell)
	if err != nil {
		t.Fatalf("classify sell: %v", err)
	}
	balance, ok = findUpdate(result.Updates, model.UpdateBalance)
	if !ok {
		t.Fatalf("missing balance update")
	}
	if balance.Token != "terra1mAAPL" || balance.Amount != "-50" || balance.Price != "0" {
		t.Fatalf("sell balance mismatch: %+v", balance)
	}
	if result.Tx.UusdChange != "600" || result.Tx.CommissionValue != "2" {
		t.Fatalf("sell values mismatch: change=%s commission=%s", result.Tx.UusdChange, result.Tx.CommissionValue)
	}
}

func TestPairClassifierProvideLiquidity(t *testing.T) {
	inv := buildInvocation(t, `{"provide_liquidity":{}}`,
		"assets", "1000uusd, 20terra1mAAPL",
		"share", "141",
	)

	result, err := NewPairClassifier("uusd").Classify(inv)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Tx.Type != model.TxTypeProvideLiquidity {
		t.Fatalf("type mismatch: %s", result.Tx.Type)
	}
	if len(result.Updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(result.Updates))
	}
	want := []model.AggregateUpdate{
		{Kind: model.UpdateLiquidity, Token: "uusd", Amount: "1000"},
		{Kind: model.UpdateLiquidity, Token: "terra1mAAPL", Amount: "20"},
	}
	for i, update := range result.Updates {
		if update.Kind != want[i].Kind || update.Token != want[i].Token || update.Amount != want[i].Amount {
			t.Fatalf("update %d mismatch: %+v", i, update)
		}
	}

	var data model.ProvideLiquidityData
	if err := json.Unmarshal(result.Tx.Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if data.Share != "141" {
		t.Fatalf("share mismatch: %+v", data)
	}
}

func TestPairClassifierWithdrawLiquidityNegates(t *testing.T) {
	inv := buildInvocation(t, `{"withdraw_liquidity":{}}`,
		"refund_assets", "1000uusd, 20terra1mAAPL",
		"withdrawn_share", "141",
	)

	result, err := NewPairClassifier("uusd").Classify(inv)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Tx.Type != model.TxTypeWithdrawLiquidity {
		t.Fatalf("type mismatch: %s", result.Tx.Type)
	}
	if result.Updates[0].Amount != "-1000" || result.Updates[1].Amount != "-20" {
		t.Fatalf("withdraw amounts not negated: %+v", result.Updates)
	}
}

func TestPairClassifierUnknownActionIsNoop(t *testing.T) {
	inv := buildInvocation(t, `{"receive":{}}`, "action", "receive")
	result, err := NewPairClassifier("uusd").Classify(inv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result, got %+v", result)
	}
}

func TestPairClassifierMissingAttribute(t *testing.T) {
	inv := buildInvocation(t, `{"swap":{}}`, "offer_asset", "uusd")
	if _, err := NewPairClassifier("uusd").Classify(inv); err == nil {
		t.Fatalf("expected error for missing amounts")
	}
}

func TestRegistryUnknownContractType(t *testing.T) {
	registry := NewRegistry()
	registry.Register(model.ContractTypePair, NewPairClassifier("uusd"))

	inv := buildInvocation(t, `{"swap":{}}`, "offer_asset", "uusd")
	inv.Contract.Type = model.ContractTypeGov

	result, err := registry.Classify(inv)
	if err != nil || result != nil {
		t.Fatalf("expected noop, got %+v %v", result, err)
	}
}
