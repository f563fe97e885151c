// Package memory is an in-process implementation of storage.Store with
// copy-on-begin units of work. It serializes all units of work.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mirrorScope/internal/model"
	"mirrorScope/internal/storage"
)

type state struct {
	accounts      map[string]model.Account
	transactions  map[string]model.Transaction
	txOrder       []string
	balances      map[string][]model.BalancePosition
	liquidity     map[string]decimal.Decimal
	dailyVolume   map[int64]decimal.Decimal
	distributions map[string]model.DistributionRecord
	nextTxID      int64
}

func newState() *state {
	return &state{
		accounts:      make(map[string]model.Account),
		transactions:  make(map[string]model.Transaction),
		balances:      make(map[string][]model.BalancePosition),
		liquidity:     make(map[string]decimal.Decimal),
		dailyVolume:   make(map[int64]decimal.Decimal),
		distributions: make(map[string]model.DistributionRecord),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.transactions {
		out.transactions[k] = v
	}
	out.txOrder = append(out.txOrder, s.txOrder...)
	for k, v := range s.balances {
		out.balances[k] = append([]model.BalancePosition(nil), v...)
	}
	for k, v := range s.liquidity {
		out.liquidity[k] = v
	}
	for k, v := range s.dailyVolume {
		out.dailyVolume[k] = v
	}
	for k, v := range s.distributions {
		out.distributions[k] = v
	}
	out.nextTxID = s.nextTxID
	return out
}

// Store keeps all rows in memory.
type Store struct {
	mu        sync.Mutex
	state     *state
	contracts map[string]model.Contract
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		state:     newState(),
		contracts: make(map[string]model.Contract),
	}
}

// AddContract registers a contract for ContractByAddress lookups.
func (s *Store) AddContract(contract model.Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[strings.ToLower(contract.Address)] = contract
}

// WithinTx runs fn against a private copy of the state and publishes the
// copy only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := &memTx{state: s.state.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work.state
	return nil
}

func (s *Store) ContractByAddress(ctx context.Context, address string) (*model.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract, ok := s.contracts[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	return &contract, nil
}

func (s *Store) Distribution(ctx context.Context, stage uint32, network model.Network, address string) (*model.DistributionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.distributions[distributionKey(stage, network, address)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Transactions returns committed transactions in insertion order.
func (s *Store) Transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0, len(s.state.txOrder))
	for _, key := range s.state.txOrder {
		out = append(out, s.state.transactions[key])
	}
	return out
}

// Accounts returns committed account addresses, sorted.
func (s *Store) Accounts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.state.accounts))
	for address := range s.state.accounts {
		out = append(out, address)
	}
	sort.Strings(out)
	return out
}

// BalanceHistory returns the committed history for a key, oldest first.
func (s *Store) BalanceHistory(address, token string) []model.BalancePosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.BalancePosition(nil), s.state.balances[balanceKey(address, token)]...)
}

// Liquidity returns the committed liquidity position for a token.
func (s *Store) Liquidity(token string) model.LiquidityPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.LiquidityPosition{Token: token, Liquidity: s.state.liquidity[token].String()}
}

// DailyVolume returns the committed statistic for the bucket containing day.
func (s *Store) DailyVolume(day time.Time) model.DailyStatistic {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := day.UTC().Truncate(24 * time.Hour)
	return model.DailyStatistic{Datetime: bucket, TradingVolume: s.state.dailyVolume[bucket.Unix()].String()}
}

// Distributions returns the committed records of a stage, sorted by address.
func (s *Store) Distributions(stage uint32) []model.DistributionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DistributionRecord
	for _, rec := range s.state.distributions {
		if rec.Stage == stage {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

type memTx struct {
	state *state
}

func (t *memTx) EnsureAccount(ctx context.Context, address string, at time.Time) error {
	if _, ok := t.state.accounts[address]; ok {
		return nil
	}
	t.state.accounts[address] = model.Account{Address: address, CreatedAt: at}
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, tx *model.Transaction) (bool, error) {
	key := fmt.Sprintf("%s:%d", tx.TxHash, tx.MsgIndex)
	if _, ok := t.state.transactions[key]; ok {
		return false, nil
	}
	t.state.nextTxID++
	tx.ID = t.state.nextTxID
	t.state.transactions[key] = *tx
	t.state.txOrder = append(t.state.txOrder, key)
	return true, nil
}

func (t *memTx) LatestBalance(ctx context.Context, address, token string) (*model.BalancePosition, error) {
	history := t.state.balances[balanceKey(address, token)]
	if len(history) == 0 {
		return nil, nil
	}
	latest := history[len(history)-1]
	return &latest, nil
}

func (t *memTx) AppendBalance(ctx context.Context, position model.BalancePosition) error {
	key := balanceKey(position.Address, position.Token)
	t.state.balances[key] = append(t.state.balances[key], position)
	return nil
}

func (t *memTx) AddLiquidity(ctx context.Context, token string, amount string) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	t.state.liquidity[token] = t.state.liquidity[token].Add(value)
	return nil
}

func (t *memTx) AddDailyVolume(ctx context.Context, day time.Time, amount string) error {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	key := day.UTC().Unix()
	t.state.dailyVolume[key] = t.state.dailyVolume[key].Add(value)
	return nil
}

func (t *memTx) InsertDistribution(ctx context.Context, rec model.DistributionRecord) (bool, error) {
	key := distributionKey(rec.Stage, rec.Network, rec.Address)
	if _, ok := t.state.distributions[key]; ok {
		return false, nil
	}
	t.state.distributions[key] = rec
	return true, nil
}

func balanceKey(address, token string) string {
	return address + "|" + token
}

func distributionKey(stage uint32, network model.Network, address string) string {
	return fmt.Sprintf("%d|%s|%s", stage, network, address)
}
