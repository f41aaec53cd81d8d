package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

type locationResponse struct {
	ID          int64   `json:"id"`
	MachineCode string  `json:"machine_code"`
	Name        string  `json:"name"`
	Address     *string `json:"address,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type priceResponse struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Description    *string         `json:"description,omitempty"`
	Quota          *int            `json:"quota"`
	RemainingQuota *int            `json:"remaining_quota,omitempty"`
	IsActive       bool            `json:"is_active"`
}

type detailResponse struct {
	ID                int64              `json:"id"`
	ExternalID        string             `json:"external_id"`
	Status            transaction.Status `json:"status"`
	Amount            decimal.Decimal    `json:"amount"`
	QRString          string             `json:"qr_string"`
	ProviderPaymentID string             `json:"xendit_id,omitempty"`
	PaidAt            *time.Time         `json:"paid_at"`
	DeliverySentAt    *time.Time         `json:"delivery_sent_at"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         *time.Time         `json:"updated_at,omitempty"`
	Location          locationResponse   `json:"location"`
	Price             priceResponse      `json:"price"`
}

type pollLocationResponse struct {
	ID          int64  `json:"id"`
	MachineCode string `json:"machine_code"`
}

// pollResponse is the public projection served to kiosks.
type pollResponse struct {
	ExternalID string               `json:"external_id"`
	Status     transaction.Status   `json:"status"`
	QRString   string               `json:"qr_string"`
	Amount     decimal.Decimal      `json:"amount"`
	PaidAt     *time.Time           `json:"paid_at"`
	CreatedAt  time.Time            `json:"created_at"`
	Location   pollLocationResponse `json:"location"`
}

type metaResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

type pageResponse struct {
	Data []detailResponse `json:"data"`
	Meta metaResponse     `json:"meta"`
}

func toDetailResponse(d *transaction.Detail) detailResponse {
	return detailResponse{
		ID:                d.ID,
		ExternalID:        d.ExternalID,
		Status:            d.Status,
		Amount:            d.Amount,
		QRString:          d.QRString,
		ProviderPaymentID: d.ProviderPaymentID,
		PaidAt:            d.PaidAt,
		DeliverySentAt:    d.DeliverySentAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		Location: locationResponse{
			ID:          d.Location.ID,
			MachineCode: d.Location.MachineCode,
			Name:        d.Location.Name,
			Address:     d.Location.Address,
			IsActive:    d.Location.IsActive,
		},
		Price: priceResponse{
			ID:             d.Price.ID,
			Amount:         d.Price.Amount,
			Description:    d.Price.Description,
			Quota:          d.Price.Quota,
			RemainingQuota: d.Price.RemainingQuota,
			IsActive:       d.Price.IsActive,
		},
	}
}

func toPollResponse(d *transaction.Detail) pollResponse {
	return pollResponse{
		ExternalID: d.ExternalID,
		Status:     d.Status,
		QRString:   d.QRString,
		Amount:     d.Amount,
		PaidAt:     d.PaidAt,
		CreatedAt:  d.CreatedAt,
		Location: pollLocationResponse{
			ID:          d.Location.ID,
			MachineCode: d.Location.MachineCode,
		},
	}
}

func toPageResponse(p *transaction.Page) pageResponse {
	data := make([]detailResponse, len(p.Items))
	for i, d := range p.Items {
		data[i] = toDetailResponse(d)
	}

	return pageResponse{
		Data: data,
		Meta: metaResponse{
			Page:       p.Meta.Page,
			Limit:      p.Meta.Limit,
			TotalItems: p.Meta.TotalItems,
			TotalPages: p.Meta.TotalPages,
		},
	}
}
