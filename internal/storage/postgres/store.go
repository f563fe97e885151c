package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mirrorScope/internal/model"
	"mirrorScope/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for transactions, derived state and
// distribution records.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// WithinTx runs fn in a database transaction; fn's error rolls it back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

func (s *Store) ContractByAddress(ctx context.Context, address string) (*model.Contract, error) {
	var contract model.Contract
	var contractType string
	var token *string
	var govID *int64
	row := s.pool.QueryRow(ctx, `
		SELECT id, address, type, token, gov_id FROM contract WHERE lower(address) = lower($1)
	`, address)
	if err := row.Scan(&contract.ID, &contract.Address, &contractType, &token, &govID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	contract.Type = model.ContractType(contractType)
	if token != nil {
		contract.Token = *token
	}
	if govID != nil {
		contract.GovID = *govID
	}
	return &contract, nil
}

// UpsertContracts registers contracts so invocations can be attributed to them.
func (s *Store) UpsertContracts(ctx context.Context, contracts []model.Contract) error {
	if len(contracts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range contracts {
		batch.Queue(`
			INSERT INTO contract (address, type, token, gov_id)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0))
			ON CONFLICT (address)
			DO UPDATE SET type = EXCLUDED.type, token = EXCLUDED.token, gov_id = EXCLUDED.gov_id
		`, c.Address, string(c.Type), c.Token, c.GovID)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range contracts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Distribution(ctx context.Context, stage uint32, network model.Network, address string) (*model.DistributionRecord, error) {
	var rec model.DistributionRecord
	var networkStr string
	var stageInt int32
	row := s.pool.QueryRow(ctx, `
		SELECT network, stage, address, staked::text, rate::text, amount::text, total::text,
			proof, merkle_root, created_at
		FROM airdrop
		WHERE stage = $1 AND network = $2 AND address = $3
	`, int32(stage), string(network), address)
	err := row.Scan(&networkStr, &stageInt, &rec.Address, &rec.Staked, &rec.Rate, &rec.Amount,
		&rec.Total, &rec.Proof, &rec.MerkleRoot, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Network = model.Network(networkStr)
	rec.Stage = uint32(stageInt)
	return &rec, nil
}

// LoadState returns the saved progress value for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var value int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(value), true, nil
}

// SaveState upserts the progress value for a name.
func (s *Store) SaveState(ctx context.Context, name string, value uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(value))
	return err
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) EnsureAccount(ctx context.Context, address string, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO account (address, created_at) VALUES ($1, $2)
		ON CONFLICT (address) DO NOTHING
	`, address, at)
	return err
}

func (t *pgTx) InsertTransaction(ctx context.Context, tx *model.Transaction) (bool, error) {
	tags := tx.Tags
	if tags == nil {
		tags = []string{}
	}
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO tx (
			height, tx_hash, msg_index, address, type, data, token,
			out_value, in_value, volume, commission_value, uusd_change,
			fee, tags, datetime, contract_id
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (tx_hash, msg_index) DO NOTHING
		RETURNING id
	`,
		int64(tx.Height),
		tx.TxHash,
		int32(tx.MsgIndex),
		tx.Address,
		string(tx.Type),
		[]byte(tx.Data),
		tx.Token,
		tx.OutValue,
		tx.InValue,
		tx.Volume,
		tx.CommissionValue,
		tx.UusdChange,
		tx.Fee,
		tags,
		tx.Datetime,
		tx.ContractID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	tx.ID = id
	return true, nil
}

// LatestBalance takes a transaction-scoped advisory lock on the key so that
// concurrent writers of the same (address, token) serialize.
func (t *pgTx) LatestBalance(ctx context.Context, address, token string) (*model.BalancePosition, error) {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || '|' || $2, 0))`, address, token); err != nil {
		return nil, fmt.Errorf("lock balance key: %w", err)
	}

	pos := model.BalancePosition{Address: address, Token: token}
	row := t.tx.QueryRow(ctx, `
		SELECT balance::text, average_price::text, datetime
		FROM balance
		WHERE address = $1 AND token = $2
		ORDER BY datetime DESC, id DESC
		LIMIT 1
	`, address, token)
	if err := row.Scan(&pos.Balance, &pos.AveragePrice, &pos.Datetime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &pos, nil
}

func (t *pgTx) AppendBalance(ctx context.Context, position model.BalancePosition) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO balance (address, token, balance, average_price, datetime)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5)
	`, position.Address, position.Token, position.Balance, position.AveragePrice, position.Datetime)
	return err
}

func (t *pgTx) AddLiquidity(ctx context.Context, token string, amount string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO asset_positions (token, liquidity) VALUES ($1, $2::numeric)
		ON CONFLICT (token)
		DO UPDATE SET liquidity = asset_positions.liquidity + EXCLUDED.liquidity
	`, token, amount)
	return err
}

func (t *pgTx) AddDailyVolume(ctx context.Context, day time.Time, amount string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO daily_statistic (datetime, trading_volume) VALUES ($1, $2::numeric)
		ON CONFLICT (datetime)
		DO UPDATE SET trading_volume = daily_statistic.trading_volume + EXCLUDED.trading_volume
	`, day.UTC(), amount)
	return err
}

func (t *pgTx) InsertDistribution(ctx context.Context, rec model.DistributionRecord) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO airdrop (network, stage, address, staked, rate, amount, total, proof, merkle_root)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric, $8, $9)
		ON CONFLICT (stage, network, address) DO NOTHING
	`,
		string(rec.Network),
		int32(rec.Stage),
		rec.Address,
		rec.Staked,
		rec.Rate,
		rec.Amount,
		rec.Total,
		rec.Proof,
		rec.MerkleRoot,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
