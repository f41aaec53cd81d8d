package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/photobox/internal/price"
	priceStore "github.com/MrJamesThe3rd/photobox/internal/price/store"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Column order: id, external_id, location_id, price_id, amount, provider_payment_id, qr_string,
// status, paid_at, delivery_sent_at, folder_deleted_at, created_at, updated_at
const selectTransactionColumns = `
	t.id, t.external_id, t.location_id, t.price_id, t.amount, t.provider_payment_id, t.qr_string,
	t.status, t.paid_at, t.delivery_sent_at, t.folder_deleted_at, t.created_at, t.updated_at
`

func transactionDest(tx *transaction.Transaction, providerID, qr *sql.NullString, status *string) []any {
	return []any{
		&tx.ID, &tx.ExternalID, &tx.LocationID, &tx.PriceID, &tx.Amount, providerID, qr,
		status, &tx.PaidAt, &tx.DeliverySentAt, &tx.FolderDeletedAt, &tx.CreatedAt, &tx.UpdatedAt,
	}
}

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var providerID, qr sql.NullString

	var status string

	if err := s.Scan(transactionDest(&tx, &providerID, &qr, &status)...); err != nil {
		return nil, err
	}

	tx.ProviderPaymentID = providerID.String
	tx.QRString = qr.String
	tx.Status = transaction.Status(status)

	return &tx, nil
}

// The detail projection joins location and price once instead of loading
// them per transaction.
const selectDetailColumns = selectTransactionColumns + `,
	l.machine_code, l.name, l.address, l.is_active,
	p.amount, p.description, p.quota, p.is_active
`

const detailFrom = `
	FROM transactions t
	JOIN locations l ON l.id = t.location_id
	JOIN prices p ON p.id = t.price_id
`

func scanDetail(s scanner) (*transaction.Detail, error) {
	var d transaction.Detail

	var providerID, qr, address, description sql.NullString

	var status string

	var quota sql.NullInt64

	dest := transactionDest(&d.Transaction, &providerID, &qr, &status)
	dest = append(dest,
		&d.Location.MachineCode, &d.Location.Name, &address, &d.Location.IsActive,
		&d.Price.Amount, &description, &quota, &d.Price.IsActive,
	)

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	d.ProviderPaymentID = providerID.String
	d.QRString = qr.String
	d.Status = transaction.Status(status)
	d.Location.ID = d.LocationID
	d.Price.ID = d.PriceID

	if address.Valid {
		d.Location.Address = &address.String
	}

	if description.Valid {
		d.Price.Description = &description.String
	}

	if quota.Valid {
		d.Price.Quota = new(int(quota.Int64))
	}

	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE t.external_id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) GetDetail(ctx context.Context, id int64) (*transaction.Detail, error) {
	return s.getDetail(ctx, `t.id = $1`, id)
}

func (s *Store) GetDetailByExternalID(ctx context.Context, externalID string) (*transaction.Detail, error) {
	return s.getDetail(ctx, `t.external_id = $1`, externalID)
}

func (s *Store) getDetail(ctx context.Context, where string, arg any) (*transaction.Detail, error) {
	query := `SELECT ` + selectDetailColumns + detailFrom + ` WHERE ` + where

	d, err := scanDetail(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction detail: %w", err)
	}

	return d, nil
}

var sortExpressions = map[string]string{
	"created_at":  "t.created_at",
	"paid_at":     "t.paid_at",
	"amount":      "t.amount",
	"status":      "t.status",
	"external_id": "t.external_id",
}

// ListDetails returns one page of transactions created on the calendar days
// DateFrom..DateTo inclusive, plus the total number of matches.
func (s *Store) ListDetails(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Detail, int, error) {
	where := ` WHERE t.created_at >= $1 AND t.created_at < $2::timestamptz + INTERVAL '1 day'`
	args := []any{filter.DateFrom, filter.DateTo}
	argIdx := 3

	if len(filter.LocationIDs) > 0 {
		where += fmt.Sprintf(" AND t.location_id = ANY($%d)", argIdx)

		args = append(args, filter.LocationIDs)
		argIdx++
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}

		where += fmt.Sprintf(" AND t.status = ANY($%d)", argIdx)

		args = append(args, statuses)
		argIdx++
	}

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (t.external_id ILIKE $%d OR t.provider_payment_id ILIKE $%d OR l.name ILIKE $%d)", argIdx, argIdx, argIdx)

		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+detailFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting transactions: %w", err)
	}

	sortExpr, ok := sortExpressions[filter.SortBy]
	if !ok {
		sortExpr = "t.created_at"
	}

	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	query := `SELECT ` + selectDetailColumns + detailFrom + where +
		fmt.Sprintf(" ORDER BY %s %s NULLS LAST, t.id %s LIMIT $%d OFFSET $%d", sortExpr, order, order, argIdx, argIdx+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var details []*transaction.Detail

	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning transaction: %w", err)
		}

		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return details, total, nil
}

// Transition only touches rows that are still PENDING, so of two concurrent
// reports at most one changes the status.
func (s *Store) Transition(ctx context.Context, params transaction.TransitionParams) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $1,
			provider_payment_id = COALESCE(NULLIF($2, ''), provider_payment_id),
			paid_at = $3,
			updated_at = $4
		WHERE external_id = $5 AND status = 'PENDING'
	`

	res, err := s.db.ExecContext(ctx, query, params.To, params.ProviderPaymentID, params.PaidAt, params.At, params.ExternalID)
	if err != nil {
		return false, fmt.Errorf("updating status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating status: %w", err)
	}

	return n == 1, nil
}

func (s *Store) RecordWebhookEvent(ctx context.Context, evt *transaction.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (external_id, status, provider_payment_id, source, applied, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		evt.ExternalID,
		evt.Status,
		nullString(evt.ProviderPaymentID),
		evt.Source,
		evt.Applied,
		evt.ReceivedAt,
	).Scan(&evt.ID)
	if err != nil {
		return fmt.Errorf("recording webhook event: %w", err)
	}

	return nil
}

func (s *Store) ListWebhookEvents(ctx context.Context, externalID string) ([]*transaction.WebhookEvent, error) {
	query := `
		SELECT id, external_id, status, provider_payment_id, source, applied, received_at
		FROM webhook_events
		WHERE external_id = $1
		ORDER BY received_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("listing webhook events: %w", err)
	}
	defer rows.Close()

	var out []*transaction.WebhookEvent

	for rows.Next() {
		var (
			evt        transaction.WebhookEvent
			status     string
			providerID sql.NullString
		)

		if err := rows.Scan(&evt.ID, &evt.ExternalID, &status, &providerID, &evt.Source, &evt.Applied, &evt.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scanning webhook event: %w", err)
		}

		evt.Status = transaction.Status(status)
		evt.ProviderPaymentID = providerID.String
		out = append(out, &evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhook event rows: %w", err)
	}

	return out, nil
}

func (s *Store) ListPending(ctx context.Context, createdBefore time.Time) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.status = 'PENDING' AND t.created_at < $1
		ORDER BY t.created_at ASC`

	return s.listTransactions(ctx, query, createdBefore)
}

// ClaimDelivery reserves the delivery of a completed, undelivered
// transaction. A claim older than staleBefore is treated as abandoned.
func (s *Store) ClaimDelivery(ctx context.Context, externalID string, at, staleBefore time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET delivery_claimed_at = $1
		WHERE external_id = $2
			AND status = 'COMPLETED'
			AND delivery_sent_at IS NULL
			AND (delivery_claimed_at IS NULL OR delivery_claimed_at < $3)
	`

	res, err := s.db.ExecContext(ctx, query, at, externalID, staleBefore)
	if err != nil {
		return false, fmt.Errorf("claiming delivery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming delivery: %w", err)
	}

	return n == 1, nil
}

// ReleaseDelivery drops the claim taken at claimedAt. A claim that was
// already taken over or completed is left alone.
func (s *Store) ReleaseDelivery(ctx context.Context, externalID string, claimedAt time.Time) error {
	query := `
		UPDATE transactions
		SET delivery_claimed_at = NULL
		WHERE external_id = $1 AND delivery_sent_at IS NULL AND delivery_claimed_at = $2
	`

	if _, err := s.db.ExecContext(ctx, query, externalID, claimedAt); err != nil {
		return fmt.Errorf("releasing delivery claim: %w", err)
	}

	return nil
}

func (s *Store) MarkDeliverySent(ctx context.Context, externalID string, at time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET delivery_sent_at = $1, updated_at = $1
		WHERE external_id = $2 AND status = 'COMPLETED' AND delivery_sent_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, at, externalID)
	if err != nil {
		return false, fmt.Errorf("marking delivery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking delivery: %w", err)
	}

	return n == 1, nil
}

func (s *Store) ListExpiredDeliveries(ctx context.Context, deliveredBefore time.Time) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE t.delivery_sent_at IS NOT NULL
			AND t.delivery_sent_at < $1
			AND t.folder_deleted_at IS NULL
		ORDER BY t.delivery_sent_at ASC`

	return s.listTransactions(ctx, query, deliveredBefore)
}

func (s *Store) MarkFolderDeleted(ctx context.Context, externalID string, at time.Time) error {
	query := `UPDATE transactions SET folder_deleted_at = $1, updated_at = $1 WHERE external_id = $2`

	res, err := s.db.ExecContext(ctx, query, at, externalID)
	if err != nil {
		return fmt.Errorf("marking folder deleted: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking folder deleted: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (s *Store) listTransactions(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

// createTx is the unit of work for one new transaction. Price reads and the
// price lock go through the same database transaction as the insert.
type createTx struct {
	*priceStore.Store
	tx *sql.Tx
}

var _ price.QuotaGuard = (*createTx)(nil)

func (s *Store) BeginCreate(ctx context.Context) (transaction.CreateTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning create tx: %w", err)
	}

	return &createTx{Store: priceStore.NewTx(dbTx), tx: dbTx}, nil
}

func (c *createTx) Commit() error   { return c.tx.Commit() }
func (c *createTx) Rollback() error { return c.tx.Rollback() }

func (c *createTx) InsertTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (external_id, location_id, price_id, amount, provider_payment_id, qr_string, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := c.tx.QueryRowContext(ctx, query,
		tx.ExternalID,
		tx.LocationID,
		tx.PriceID,
		tx.Amount,
		nullString(tx.ProviderPaymentID),
		nullString(tx.QRString),
		tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}
