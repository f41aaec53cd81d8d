package transaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
)

var ErrNotFound = fmt.Errorf("transaction %w", apperror.ErrNotFound)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", apperror.BadRequest("unknown transaction status", map[string]any{"status": v})
	}

	return s, nil
}

// Transaction is one payment attempt at one kiosk against one price. Amount
// is the price amount at creation time and never follows later price changes.
type Transaction struct {
	ID                int64
	ExternalID        string
	LocationID        int64
	PriceID           uuid.UUID
	Amount            decimal.Decimal
	ProviderPaymentID string
	QRString          string
	Status            Status
	PaidAt            *time.Time
	DeliverySentAt    *time.Time
	FolderDeletedAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

type LocationSummary struct {
	ID          int64
	MachineCode string
	Name        string
	Address     *string
	IsActive    bool
}

type PriceSummary struct {
	ID          uuid.UUID
	Amount      decimal.Decimal
	Description *string
	Quota       *int
	IsActive    bool
	// RemainingQuota is only filled on admin reads.
	RemainingQuota *int
}

// Detail is the read-side projection of a transaction joined once with its
// location and price.
type Detail struct {
	Transaction
	Location LocationSummary
	Price    PriceSummary
}

// Event sources recorded for every provider status report.
const (
	SourceWebhook   = "webhook"
	SourceReconcile = "reconcile"
	SourceExpiry    = "expiry"
)

// WebhookEvent is the audit record of one status report, applied or not.
type WebhookEvent struct {
	ID                int64
	ExternalID        string
	Status            Status
	ProviderPaymentID string
	Source            string
	Applied           bool
	ReceivedAt        time.Time
}
