package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mirrorScope/internal/model"
)

const (
	priceScale = 18
	daySeconds = 24 * 60 * 60
)

// ErrZeroBalance is returned when an average price would be divided by a
// zero resulting balance.
var ErrZeroBalance = errors.New("average price over zero balance")

// ErrInvalidUpdate marks an update whose own fields cannot be applied.
var ErrInvalidUpdate = errors.New("invalid aggregate update")

// BalanceStore reads and appends balance history rows.
type BalanceStore interface {
	// LatestBalance returns the most recent row for the key, or nil.
	LatestBalance(ctx context.Context, address, token string) (*model.BalancePosition, error)
	AppendBalance(ctx context.Context, position model.BalancePosition) error
}

// LiquidityStore accumulates signed liquidity per token.
type LiquidityStore interface {
	AddLiquidity(ctx context.Context, token string, amount string) error
}

// VolumeStore accumulates trading volume per UTC day.
type VolumeStore interface {
	AddDailyVolume(ctx context.Context, day time.Time, amount string) error
}

// Store is the union of derived stores, normally bound to one unit of work.
type Store interface {
	BalanceStore
	LiquidityStore
	VolumeStore
}

// Engine applies aggregate updates to derived state.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Apply dispatches a single update to the matching operation.
func (e *Engine) Apply(ctx context.Context, store Store, update model.AggregateUpdate) error {
	switch update.Kind {
	case model.UpdateBalance:
		_, err := e.ApplyBalanceChange(ctx, store, update.Address, update.Token, update.Price, update.Amount, update.At)
		return err
	case model.UpdateLiquidity:
		return e.ApplyLiquidityChange(ctx, store, update.Token, update.Amount)
	case model.UpdateDailyVolume:
		return e.ApplyDailyVolume(ctx, store, update.At, update.Amount)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidUpdate, update.Kind)
	}
}

// ApplyBalanceChange appends a new balance row derived from the latest row
// for (address, token). Callers must serialize calls per key.
// A decrease with no prior row writes nothing and returns nil.
func (e *Engine) ApplyBalanceChange(
	ctx context.Context,
	store BalanceStore,
	address, token, price, amount string,
	at time.Time,
) (*model.BalancePosition, error) {
	priceDec, err := parseDecimal(price)
	if err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalidUpdate, err)
	}
	amountDec, err := parseDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidUpdate, err)
	}

	latest, err := store.LatestBalance(ctx, address, token)
	if err != nil {
		return nil, fmt.Errorf("latest balance: %w", err)
	}

	var next model.BalancePosition
	if latest == nil {
		if amountDec.IsNegative() {
			e.logger.Debug("balance decrease without history",
				zap.String("address", address),
				zap.String("token", token),
				zap.String("amount", amountDec.String()),
			)
			return nil, nil
		}
		next = model.BalancePosition{
			Address:      address,
			Token:        token,
			Balance:      amountDec.String(),
			AveragePrice: priceDec.String(),
			Datetime:     at,
		}
	} else {
		prevBalance, err := parseDecimal(latest.Balance)
		if err != nil {
			return nil, fmt.Errorf("stored balance: %w", err)
		}
		prevAvg, err := parseDecimal(latest.AveragePrice)
		if err != nil {
			return nil, fmt.Errorf("stored average price: %w", err)
		}

		total := prevBalance.Add(amountDec)
		avg := prevAvg
		if priceDec.IsPositive() {
			if total.IsZero() {
				return nil, fmt.Errorf("%s/%s: %w", address, token, ErrZeroBalance)
			}
			value := prevAvg.Mul(prevBalance).Add(priceDec.Mul(amountDec))
			avg = value.DivRound(total, priceScale)
		}

		next = model.BalancePosition{
			Address:      address,
			Token:        token,
			Balance:      total.String(),
			AveragePrice: avg.String(),
			Datetime:     at,
		}
	}

	if err := store.AppendBalance(ctx, next); err != nil {
		return nil, fmt.Errorf("append balance: %w", err)
	}
	return &next, nil
}

// ApplyLiquidityChange adds a signed amount to the token's liquidity position.
func (e *Engine) ApplyLiquidityChange(ctx context.Context, store LiquidityStore, token, amount string) error {
	amountDec, err := parseDecimal(amount)
	if err != nil {
		return fmt.Errorf("%w: liquidity amount: %v", ErrInvalidUpdate, err)
	}
	if err := store.AddLiquidity(ctx, token, amountDec.String()); err != nil {
		return fmt.Errorf("add liquidity %s: %w", token, err)
	}
	return nil
}

// ApplyDailyVolume adds amount to the volume bucket of at's UTC day.
func (e *Engine) ApplyDailyVolume(ctx context.Context, store VolumeStore, at time.Time, amount string) error {
	amountDec, err := parseDecimal(amount)
	if err != nil {
		return fmt.Errorf("%w: volume amount: %v", ErrInvalidUpdate, err)
	}
	day := DayBucket(at)
	if err := store.AddDailyVolume(ctx, day, amountDec.String()); err != nil {
		return fmt.Errorf("add daily volume %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// DayBucket truncates t to midnight UTC.
func DayBucket(t time.Time) time.Time {
	ts := t.UTC().Unix()
	return time.Unix(windowStart(ts, daySeconds), 0).UTC()
}

func windowStart(ts int64, windowSec int64) int64 {
	rem := ts % windowSec
	if rem < 0 {
		rem += windowSec
	}
	return ts - rem
}

func parseDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
