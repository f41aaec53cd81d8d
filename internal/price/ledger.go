package price

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

const maxDescriptionLen = 255

//go:generate mockgen -source=ledger.go -destination=repository_mock.go -package=price
type Repository interface {
	GetPrice(ctx context.Context, id uuid.UUID) (*Price, error)
	ListPrices(ctx context.Context) ([]*Price, error)
	CreatePrice(ctx context.Context, p *Price) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	CountTransactions(ctx context.Context, id uuid.UUID) (int, error)
	CountTransactionsByPrice(ctx context.Context) (map[uuid.UUID]int, error)
}

// QuotaGuard is the unit of work a reservation runs in. A lock taken with
// LockPrice is held until that unit commits or rolls back, so the count read
// after it stays valid for an insert made in the same unit.
type QuotaGuard interface {
	GetPrice(ctx context.Context, id uuid.UUID) (*Price, error)
	LockPrice(ctx context.Context, id uuid.UUID) error
	CountTransactions(ctx context.Context, id uuid.UUID) (int, error)
}

type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

type CreateParams struct {
	Amount      decimal.Decimal
	Description *string
	Quota       *int
}

// ReserveCapacity checks that the price can take one more transaction.
// The check and the caller's insert are serialized per price through guard.
func (l *Ledger) ReserveCapacity(ctx context.Context, guard QuotaGuard, id uuid.UUID) (*Price, error) {
	p, err := guard.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}

	if !p.IsActive {
		return nil, apperror.BadRequest("price is inactive", map[string]any{"price_id": id})
	}

	if p.Quota == nil {
		return p, nil
	}

	if err := guard.LockPrice(ctx, id); err != nil {
		return nil, fmt.Errorf("lock price: %w", err)
	}

	used, err := guard.CountTransactions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	if used >= *p.Quota {
		return nil, apperror.Unprocessable("price quota exceeded", map[string]any{
			"price_id": id,
			"quota":    *p.Quota,
			"used":     used,
		})
	}

	return p, nil
}

// RemainingQuota is for display only. It is not locked and may be stale by
// the time a transaction is created.
func (l *Ledger) RemainingQuota(ctx context.Context, id uuid.UUID) (*int, error) {
	p, err := l.repo.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Quota == nil {
		return nil, nil
	}

	used, err := l.repo.CountTransactions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	return remaining(p.Quota, used), nil
}

func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*Usage, error) {
	p, err := l.repo.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}

	used, err := l.repo.CountTransactions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	return &Usage{Price: p, Used: used, RemainingQuota: remaining(p.Quota, used)}, nil
}

func (l *Ledger) List(ctx context.Context) ([]*Usage, error) {
	prices, err := l.repo.ListPrices(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := l.repo.CountTransactionsByPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	out := make([]*Usage, len(prices))
	for i, p := range prices {
		used := counts[p.ID]
		out[i] = &Usage{Price: p, Used: used, RemainingQuota: remaining(p.Quota, used)}
	}

	return out, nil
}

func (l *Ledger) Create(ctx context.Context, params CreateParams) (*Price, error) {
	if !params.Amount.IsPositive() {
		return nil, apperror.BadRequest("price must be greater than 0", nil)
	}

	if params.Amount.Exponent() < -2 {
		return nil, apperror.BadRequest("price must have at most 2 decimal places", nil)
	}

	if params.Quota != nil && *params.Quota <= 0 {
		return nil, apperror.BadRequest("quota must be greater than 0 or empty for unlimited", nil)
	}

	if params.Description != nil && len(*params.Description) > maxDescriptionLen {
		return nil, apperror.BadRequest("description must be at most 255 characters", nil)
	}

	p := &Price{
		Amount:      params.Amount,
		Description: params.Description,
		Quota:       params.Quota,
		IsActive:    true,
	}
	if err := l.repo.CreatePrice(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (l *Ledger) Activate(ctx context.Context, id uuid.UUID) (*Price, error) {
	return l.setActive(ctx, id, true)
}

func (l *Ledger) Deactivate(ctx context.Context, id uuid.UUID) (*Price, error) {
	return l.setActive(ctx, id, false)
}

func (l *Ledger) setActive(ctx context.Context, id uuid.UUID, active bool) (*Price, error) {
	p, err := l.repo.GetPrice(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.IsActive == active {
		state := "inactive"
		if active {
			state = "active"
		}

		return nil, apperror.BadRequest("price is already "+state, map[string]any{"price_id": id})
	}

	if err := l.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	p.IsActive = active

	return p, nil
}
