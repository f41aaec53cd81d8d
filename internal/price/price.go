package price

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

var ErrNotFound = fmt.Errorf("price %w", apperror.ErrNotFound)

// Price is a purchasable price point. Amount never changes after creation;
// a new price is created instead.
type Price struct {
	ID          uuid.UUID
	Amount      decimal.Decimal
	Description *string
	// Quota bounds the number of transactions ever created against the price.
	// Nil means unlimited.
	Quota     *int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Usage is a price together with how much of its quota is consumed.
type Usage struct {
	*Price
	Used           int
	RemainingQuota *int
}

func remaining(quota *int, used int) *int {
	if quota == nil {
		return nil
	}

	return new(max(*quota-used, 0))
}
