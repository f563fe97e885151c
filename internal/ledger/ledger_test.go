package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"mirrorScope/internal/aggregate"
	"mirrorScope/internal/model"
	"mirrorScope/internal/storage/memory"
)

var t0 = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func buyTx(hash string, at time.Time) *model.Transaction {
	return &model.Transaction{
		Height:   100,
		TxHash:   hash,
		Address:  "terra1trader",
		Type:     model.TxTypeBuy,
		Data:     []byte(`{}`),
		Volume:   "1000",
		Fee:      "0uusd",
		Datetime: at,
	}
}

func balanceUpdate(price, amount string, at time.Time) model.AggregateUpdate {
	return model.AggregateUpdate{
		Kind:    model.UpdateBalance,
		Address: "terra1trader",
		Token:   "terra1mab",
		Price:   price,
		Amount:  amount,
		At:      at,
	}
}

func TestRecordAveragePrice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(nil, nil)

	steps := []struct {
		hash    string
		price   string
		amount  string
		balance string
		avg     string
	}{
		{"h1", "10", "100", "100", "10"},
		{"h2", "20", "100", "200", "15"},
		{"h3", "30", "200", "400", "22.5"},
	}
	for i, step := range steps {
		at := t0.Add(time.Duration(i) * time.Minute)
		inserted, err := l.RecordAtomic(ctx, store, buyTx(step.hash, at), []model.AggregateUpdate{
			balanceUpdate(step.price, step.amount, at),
		})
		if err != nil {
			t.Fatalf("record %s: %v", step.hash, err)
		}
		if !inserted {
			t.Fatalf("record %s: expected insert", step.hash)
		}
		history := store.BalanceHistory("terra1trader", "terra1mab")
		last := history[len(history)-1]
		if last.Balance != step.balance || last.AveragePrice != step.avg {
			t.Fatalf("step %s: got balance=%s avg=%s, want %s/%s", step.hash, last.Balance, last.AveragePrice, step.balance, step.avg)
		}
	}
	if got := len(store.BalanceHistory("terra1trader", "terra1mab")); got != 3 {
		t.Fatalf("expected 3 history rows, got %d", got)
	}
}

func TestRecordZeroBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(nil, nil)

	if _, err := l.RecordAtomic(ctx, store, buyTx("h1", t0), []model.AggregateUpdate{balanceUpdate("10", "100", t0)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := l.RecordAtomic(ctx, store, buyTx("h2", t0.Add(time.Minute)), []model.AggregateUpdate{
		balanceUpdate("5", "-100", t0.Add(time.Minute)),
	})
	if !errors.Is(err, aggregate.ErrZeroBalance) {
		t.Fatalf("expected ErrZeroBalance, got %v", err)
	}
	if got := len(store.Transactions()); got != 1 {
		t.Fatalf("failed unit of work must not persist tx, got %d txs", got)
	}
	if got := len(store.BalanceHistory("terra1trader", "terra1mab")); got != 1 {
		t.Fatalf("expected 1 history row, got %d", got)
	}
}

func TestRecordReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(nil, nil)

	updates := []model.AggregateUpdate{
		{Kind: model.UpdateDailyVolume, Amount: "1000", At: t0},
		{Kind: model.UpdateLiquidity, Token: "terra1mab", Amount: "50", At: t0},
		balanceUpdate("10", "100", t0),
	}
	for i := 0; i < 3; i++ {
		inserted, err := l.RecordAtomic(ctx, store, buyTx("dup", t0), updates)
		if err != nil {
			t.Fatalf("record #%d: %v", i, err)
		}
		if inserted != (i == 0) {
			t.Fatalf("record #%d: inserted=%v", i, inserted)
		}
	}

	if got := store.DailyVolume(t0).TradingVolume; got != "1000" {
		t.Fatalf("daily volume: got %s", got)
	}
	if got := store.Liquidity("terra1mab").Liquidity; got != "50" {
		t.Fatalf("liquidity: got %s", got)
	}
	if got := len(store.BalanceHistory("terra1trader", "terra1mab")); got != 1 {
		t.Fatalf("balance rows: got %d", got)
	}
	if got := store.Accounts(); len(got) != 1 || got[0] != "terra1trader" {
		t.Fatalf("accounts: got %v", got)
	}
}

func TestRecordLiquidityRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	l := New(nil, nil)

	provide := &model.Transaction{TxHash: "p", Address: "terra1lp", Type: model.TxTypeProvideLiquidity, Data: []byte(`{}`), Datetime: t0}
	withdraw := &model.Transaction{TxHash: "w", Address: "terra1lp", Type: model.TxTypeWithdrawLiquidity, Data: []byte(`{}`), Datetime: t0.Add(time.Hour)}

	if _, err := l.RecordAtomic(ctx, store, provide, []model.AggregateUpdate{
		{Kind: model.UpdateLiquidity, Token: "uusd", Amount: "1000"},
		{Kind: model.UpdateLiquidity, Token: "terra1mab", Amount: "100"},
	}); err != nil {
		t.Fatalf("provide: %v", err)
	}
	if _, err := l.RecordAtomic(ctx, store, withdraw, []model.AggregateUpdate{
		{Kind: model.UpdateLiquidity, Token: "uusd", Amount: "-1000"},
		{Kind: model.UpdateLiquidity, Token: "terra1mab", Amount: "-100"},
	}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	for _, token := range []string{"uusd", "terra1mab"} {
		if got := store.Liquidity(token).Liquidity; got != "0" {
			t.Fatalf("%s liquidity: got %s, want 0", token, got)
		}
	}
}
