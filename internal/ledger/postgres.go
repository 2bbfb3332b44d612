package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a single ledger table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the ledger table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger (
			partition text NOT NULL,
			sort_key bigint NOT NULL,
			amount bigint NOT NULL DEFAULT 0,
			mspell_amount bigint NOT NULL DEFAULT 0,
			sspell_amount bigint NOT NULL DEFAULT 0,
			tx_hash text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (partition, sort_key)
		)
	`)
	return err
}

// BatchPut upserts a batch under one partition in a single round trip.
func (s *PostgresStore) BatchPut(ctx context.Context, partition string, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO ledger (partition, sort_key, amount, mspell_amount, sspell_amount, tx_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (partition, sort_key)
			DO UPDATE SET
				amount = EXCLUDED.amount,
				mspell_amount = EXCLUDED.mspell_amount,
				sspell_amount = EXCLUDED.sspell_amount,
				tx_hash = EXCLUDED.tx_hash,
				updated_at = now()
		`,
			partition,
			int64(item.SortKey),
			item.Amount,
			item.MSpellAmount,
			item.SSpellAmount,
			item.TxHash,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range items {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Query returns the most recent n rows of a partition, descending by
// sort key.
func (s *PostgresStore) Query(ctx context.Context, partition string, mostRecentN int) ([]Item, error) {
	if mostRecentN <= 0 {
		return nil, fmt.Errorf("most recent n must be positive")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT partition, sort_key, amount, mspell_amount, sspell_amount, tx_hash
		FROM ledger
		WHERE partition = $1
		ORDER BY sort_key DESC
		LIMIT $2
	`, partition, mostRecentN)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0, mostRecentN)
	for rows.Next() {
		var item Item
		var sortKey int64
		if err := rows.Scan(&item.Partition, &sortKey, &item.Amount, &item.MSpellAmount, &item.SSpellAmount, &item.TxHash); err != nil {
			return nil, err
		}
		item.SortKey = uint64(sortKey)
		items = append(items, item)
	}
	return items, rows.Err()
}
