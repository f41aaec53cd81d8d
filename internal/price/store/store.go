package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/photobox/internal/price"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db querier
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewTx binds the store to an open database transaction. Locks taken through
// it are released when tx ends.
func NewTx(tx *sql.Tx) *Store {
	return &Store{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectPriceColumns = `id, amount, description, quota, is_active, created_at, updated_at`

func scanPrice(s scanner) (*price.Price, error) {
	var p price.Price

	var description sql.NullString

	var quota sql.NullInt64

	if err := s.Scan(&p.ID, &p.Amount, &description, &quota, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if description.Valid {
		p.Description = &description.String
	}

	if quota.Valid {
		p.Quota = new(int(quota.Int64))
	}

	return &p, nil
}

func (s *Store) GetPrice(ctx context.Context, id uuid.UUID) (*price.Price, error) {
	query := `SELECT ` + selectPriceColumns + ` FROM prices WHERE id = $1`

	p, err := scanPrice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, price.ErrNotFound
		}

		return nil, fmt.Errorf("getting price: %w", err)
	}

	return p, nil
}

func (s *Store) ListPrices(ctx context.Context) ([]*price.Price, error) {
	query := `SELECT ` + selectPriceColumns + ` FROM prices ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing prices: %w", err)
	}
	defer rows.Close()

	var prices []*price.Price

	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price rows: %w", err)
	}

	return prices, nil
}

func (s *Store) CreatePrice(ctx context.Context, p *price.Price) error {
	query := `
		INSERT INTO prices (amount, description, quota, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query, p.Amount, p.Description, p.Quota, p.IsActive).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating price: %w", err)
	}

	return nil
}

func (s *Store) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE prices SET is_active = $1, updated_at = NOW() WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("updating price: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating price: %w", err)
	}

	if n == 0 {
		return price.ErrNotFound
	}

	return nil
}

func (s *Store) CountTransactions(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE price_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}

	return n, nil
}

func (s *Store) CountTransactionsByPrice(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT price_id, COUNT(*) FROM transactions GROUP BY price_id`)
	if err != nil {
		return nil, fmt.Errorf("counting transactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			id uuid.UUID
			n  int
		)

		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}

		counts[id] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating count rows: %w", err)
	}

	return counts, nil
}

func priceLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte("price:"))
	h.Write(id[:])

	return int64(h.Sum64())
}

// LockPrice takes a transaction-scoped advisory lock on the price. It only
// serializes anything when the store was built with NewTx.
func (s *Store) LockPrice(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", priceLockKey(id)); err != nil {
		return fmt.Errorf("acquiring price lock: %w", err)
	}

	return nil
}
