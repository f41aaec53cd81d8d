package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/photobox/internal/location"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectLocationColumns = `id, machine_code, name, address, is_active, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLocation(s scanner) (*location.Location, error) {
	var loc location.Location

	var address sql.NullString

	if err := s.Scan(&loc.ID, &loc.MachineCode, &loc.Name, &address, &loc.IsActive, &loc.CreatedAt); err != nil {
		return nil, err
	}

	if address.Valid {
		loc.Address = &address.String
	}

	return &loc, nil
}

func (s *Store) GetLocation(ctx context.Context, id int64) (*location.Location, error) {
	query := `SELECT ` + selectLocationColumns + ` FROM locations WHERE id = $1`

	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, location.ErrNotFound
		}

		return nil, fmt.Errorf("getting location: %w", err)
	}

	return loc, nil
}

func (s *Store) ListLocations(ctx context.Context, filter location.ListFilter) ([]*location.Location, error) {
	query := `SELECT ` + selectLocationColumns + ` FROM locations WHERE 1=1`

	var args []any

	argIdx := 1

	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argIdx)

		args = append(args, *filter.IsActive)
		argIdx++
	}

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (machine_code ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locs []*location.Location

	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}

		locs = append(locs, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating location rows: %w", err)
	}

	return locs, nil
}

func (s *Store) CreateLocation(ctx context.Context, loc *location.Location) error {
	query := `
		INSERT INTO locations (machine_code, name, address, is_active, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, loc.MachineCode, loc.Name, loc.Address, loc.IsActive).
		Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return location.ErrDuplicateMachineCode
		}

		return fmt.Errorf("creating location: %w", err)
	}

	return nil
}

func (s *Store) UpdateLocation(ctx context.Context, loc *location.Location) error {
	query := `
		UPDATE locations
		SET name = $1, address = $2, is_active = $3
		WHERE id = $4
	`

	res, err := s.db.ExecContext(ctx, query, loc.Name, loc.Address, loc.IsActive, loc.ID)
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating location: %w", err)
	}

	if n == 0 {
		return location.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
