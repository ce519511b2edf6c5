package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oracleWire/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS run_requests (
	chain_id      BIGINT      NOT NULL,
	request_id    TEXT        NOT NULL,
	oracle        TEXT        NOT NULL,
	spec_id       TEXT        NOT NULL,
	requester     TEXT        NOT NULL,
	payment       NUMERIC(78) NOT NULL,
	callback_addr TEXT        NOT NULL,
	callback_func TEXT        NOT NULL,
	expiration    NUMERIC(78) NOT NULL,
	data_version  BIGINT      NOT NULL,
	data          TEXT        NOT NULL,
	params        JSONB,
	mode          TEXT        NOT NULL,
	block_number  BIGINT      NOT NULL,
	block_hash    TEXT        NOT NULL,
	tx_hash       TEXT        NOT NULL,
	log_index     BIGINT      NOT NULL,
	block_ts      BIGINT      NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain_id, oracle, request_id)
);
CREATE INDEX IF NOT EXISTS run_requests_spec_id ON run_requests (spec_id);
CREATE TABLE IF NOT EXISTS loader_state (
	name                 TEXT        PRIMARY KEY,
	last_processed_block BIGINT      NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);
`

// Store provides Postgres persistence for decoded run requests.
type Store struct {
	pool *pgxpool.Pool
}

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

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertRunRequests inserts or updates run requests keyed by (chain, oracle, request id).
// A request id reused after a reorg keeps the latest observed log coordinates.
func (s *Store) UpsertRunRequests(ctx context.Context, records []model.RunRequestRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		var params []byte
		if len(rec.Params) > 0 {
			encoded, err := json.Marshal(rec.Params)
			if err != nil {
				return fmt.Errorf("marshal params %s: %w", rec.RequestID, err)
			}
			params = encoded
		}
		batch.Queue(`
			INSERT INTO run_requests (
				chain_id, request_id, oracle, spec_id, requester, payment, callback_addr, callback_func,
				expiration, data_version, data, params, mode, block_number, block_hash, tx_hash, log_index,
				block_ts, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now(),now())
			ON CONFLICT (chain_id, oracle, request_id)
			DO UPDATE SET
				spec_id = EXCLUDED.spec_id,
				requester = EXCLUDED.requester,
				payment = EXCLUDED.payment,
				callback_addr = EXCLUDED.callback_addr,
				callback_func = EXCLUDED.callback_func,
				expiration = EXCLUDED.expiration,
				data_version = EXCLUDED.data_version,
				data = EXCLUDED.data,
				params = EXCLUDED.params,
				mode = EXCLUDED.mode,
				block_number = EXCLUDED.block_number,
				block_hash = EXCLUDED.block_hash,
				tx_hash = EXCLUDED.tx_hash,
				log_index = EXCLUDED.log_index,
				block_ts = EXCLUDED.block_ts,
				updated_at = now()
		`,
			int64(rec.ChainID),
			rec.RequestID,
			rec.Address,
			rec.SpecID,
			rec.Requester,
			rec.Payment,
			rec.CallbackAddr,
			rec.CallbackFunc,
			rec.Expiration,
			int64(rec.DataVersion),
			rec.Data,
			params,
			rec.Mode,
			int64(rec.BlockNumber),
			rec.BlockHash,
			rec.TxHash,
			int64(rec.LogIndex),
			int64(rec.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, rec := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert run request %s: %w", rec.RequestID, err)
		}
	}
	return nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM loader_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO loader_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}
