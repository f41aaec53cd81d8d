package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/cache"
	"github.com/MrJamesThe3rd/photobox/internal/events"
	"github.com/MrJamesThe3rd/photobox/internal/location"
	"github.com/MrJamesThe3rd/photobox/internal/metrics"
	"github.com/MrJamesThe3rd/photobox/internal/price"
)

const (
	maxListRange = 365 * 24 * time.Hour
	maxListLimit = 100

	defaultDeliveryClaimTTL = 10 * time.Minute
)

var sortColumns = map[string]bool{
	"created_at":  true,
	"paid_at":     true,
	"amount":      true,
	"status":      true,
	"external_id": true,
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	BeginCreate(ctx context.Context) (CreateTx, error)
	GetByExternalID(ctx context.Context, externalID string) (*Transaction, error)
	GetDetail(ctx context.Context, id int64) (*Detail, error)
	GetDetailByExternalID(ctx context.Context, externalID string) (*Detail, error)
	ListDetails(ctx context.Context, filter ListFilter) ([]*Detail, int, error)
	// Transition moves a PENDING transaction to params.To. It reports false
	// when the row was no longer PENDING.
	Transition(ctx context.Context, params TransitionParams) (bool, error)
	RecordWebhookEvent(ctx context.Context, evt *WebhookEvent) error
	ListPending(ctx context.Context, createdBefore time.Time) ([]*Transaction, error)
	// ClaimDelivery reports false when the transaction is not COMPLETED, was
	// already delivered, or holds a claim taken after staleBefore.
	ClaimDelivery(ctx context.Context, externalID string, at, staleBefore time.Time) (bool, error)
	ReleaseDelivery(ctx context.Context, externalID string, claimedAt time.Time) error
	// MarkDeliverySent reports false when the transaction is not COMPLETED or
	// was already delivered.
	MarkDeliverySent(ctx context.Context, externalID string, at time.Time) (bool, error)
	ListExpiredDeliveries(ctx context.Context, deliveredBefore time.Time) ([]*Transaction, error)
	MarkFolderDeleted(ctx context.Context, externalID string, at time.Time) error
}

// CreateTx is the database transaction a new transaction is created in. The
// price lock taken through it is held until Commit or Rollback.
type CreateTx interface {
	price.QuotaGuard
	InsertTransaction(ctx context.Context, tx *Transaction) error
	Commit() error
	Rollback() error
}

type Gateway interface {
	CreateQRPayment(ctx context.Context, req QRRequest) (*QRPayment, error)
	QueryStatus(ctx context.Context, paymentID string) (Status, error)
}

type LocationReader interface {
	Get(ctx context.Context, id int64) (*location.Location, error)
}

type Ledger interface {
	ReserveCapacity(ctx context.Context, guard price.QuotaGuard, id uuid.UUID) (*price.Price, error)
	RemainingQuota(ctx context.Context, id uuid.UUID) (*int, error)
}

type Publisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type QRRequest struct {
	ExternalID  string
	Amount      decimal.Decimal
	ExpiresAt   time.Time
	CallbackURL string
}

type QRPayment struct {
	PaymentID string
	QRString  string
}

type Config struct {
	CallbackURL string
	PaymentTTL  time.Duration
	// ExpiryGrace is added to PaymentTTL before a silent PENDING row is
	// expired locally, leaving room for a late webhook.
	ExpiryGrace time.Duration
	CacheTTL    time.Duration
	// DeliveryClaimTTL is how long an unfinished delivery blocks others.
	DeliveryClaimTTL time.Duration
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	repo      Repository
	locations LocationReader
	ledger    Ledger
	gateway   Gateway
	cfg       Config
	publisher Publisher
	cache     Cache
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(repo Repository, locations LocationReader, ledger Ledger, gateway Gateway, cfg Config, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		locations: locations,
		ledger:    ledger,
		gateway:   gateway,
		cfg:       cfg,
		publisher: events.Nop{},
		now:       time.Now,
	}

	if s.cfg.DeliveryClaimTTL <= 0 {
		s.cfg.DeliveryClaimTTL = defaultDeliveryClaimTTL
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	LocationID int64
	PriceID    uuid.UUID
}

type WebhookParams struct {
	ExternalID        string
	Status            Status
	ProviderPaymentID string
}

type WebhookResult struct {
	ExternalID string
	Status     Status
	// Applied is false when the report left the transaction unchanged.
	Applied bool
	PaidAt  *time.Time
}

type TransitionParams struct {
	ExternalID        string
	To                Status
	ProviderPaymentID string
	PaidAt            *time.Time
	At                time.Time
}

type ListFilter struct {
	DateFrom    time.Time
	DateTo      time.Time
	LocationIDs []int64
	Statuses    []Status
	Search      string
	SortBy      string
	SortOrder   string
	Page        int
	Limit       int
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type PageMeta struct {
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
}

type Page struct {
	Items []*Detail
	Meta  PageMeta
}

type ExpiryResult struct {
	Expired int
	Settled int
	Skipped int
}

// EventData is the payload of every transaction event.
type EventData struct {
	ExternalID     string          `json:"external_id"`
	LocationID     int64           `json:"location_id"`
	PriceID        uuid.UUID       `json:"price_id"`
	Amount         decimal.Decimal `json:"amount"`
	Status         Status          `json:"status"`
	PreviousStatus Status          `json:"previous_status,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	DeliverySentAt *time.Time      `json:"delivery_sent_at,omitempty"`
}

// Create reserves price capacity, issues the QR code and stores the PENDING
// transaction, all inside one database transaction. Nothing is stored when
// any step fails.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Detail, error) {
	loc, err := s.locations.Get(ctx, params.LocationID)
	if err != nil {
		return nil, err
	}

	if !loc.IsActive {
		return nil, apperror.Unprocessable("location is inactive", map[string]any{"location_id": loc.ID})
	}

	unit, err := s.repo.BeginCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning create: %w", err)
	}
	defer unit.Rollback()

	p, err := s.ledger.ReserveCapacity(ctx, unit, params.PriceID)
	if err != nil {
		if errors.Is(err, apperror.ErrUnprocessable) {
			s.metrics.QuotaRejected()
		}

		return nil, err
	}

	now := s.now()

	externalID, err := NewExternalID(loc.ID, now)
	if err != nil {
		return nil, err
	}

	qr, err := s.gateway.CreateQRPayment(ctx, QRRequest{
		ExternalID:  externalID,
		Amount:      p.Amount,
		ExpiresAt:   now.Add(s.cfg.PaymentTTL),
		CallbackURL: s.cfg.CallbackURL,
	})
	if err != nil {
		return nil, apperror.Upstream("failed to create QR payment", err)
	}

	tx := &Transaction{
		ExternalID:        externalID,
		LocationID:        loc.ID,
		PriceID:           p.ID,
		Amount:            p.Amount,
		ProviderPaymentID: qr.PaymentID,
		QRString:          qr.QRString,
		Status:            StatusPending,
	}

	if err := unit.InsertTransaction(ctx, tx); err != nil {
		slog.Error("failed to store transaction for issued QR", "external_id", externalID, "provider_payment_id", qr.PaymentID, "error", err)
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}

	if err := unit.Commit(); err != nil {
		slog.Error("failed to commit transaction for issued QR", "external_id", externalID, "provider_payment_id", qr.PaymentID, "error", err)
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	s.metrics.TransactionCreated()
	slog.Info("transaction created", "external_id", externalID, "location_id", loc.ID, "price_id", p.ID)
	s.publish(ctx, "transaction.created", tx, "")

	// The QR is already issued and committed; a failed read must not hide it.
	d, err := s.repo.GetDetail(ctx, tx.ID)
	if err != nil {
		slog.Error("failed to read back created transaction", "external_id", externalID, "error", err)
		return newDetail(tx, loc, p), nil
	}

	return d, nil
}

// ApplyWebhook applies a provider status report. Reports for settled
// transactions are accepted and ignored.
func (s *Service) ApplyWebhook(ctx context.Context, params WebhookParams) (*WebhookResult, error) {
	if !params.Status.Valid() {
		return nil, apperror.BadRequest("unknown transaction status", map[string]any{"status": params.Status})
	}

	current, err := s.repo.GetByExternalID(ctx, params.ExternalID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, current, params, SourceWebhook)
}

// Reconcile asks the provider for the status of a transaction and applies
// it as if it had arrived by webhook.
func (s *Service) Reconcile(ctx context.Context, externalID string) (*WebhookResult, error) {
	current, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if current.Status.Terminal() {
		return resultOf(current, false), nil
	}

	if current.ProviderPaymentID == "" {
		return nil, apperror.Unprocessable("transaction has no provider payment id", map[string]any{"external_id": externalID})
	}

	status, err := s.gateway.QueryStatus(ctx, current.ProviderPaymentID)
	if err != nil {
		return nil, apperror.Upstream("failed to query payment status", err)
	}

	return s.apply(ctx, current, WebhookParams{ExternalID: externalID, Status: status}, SourceReconcile)
}

// ExpireStale settles PENDING transactions whose QR code expired more than
// the grace period before asOf. The provider is asked first when the
// transaction has a provider id; a terminal answer wins over local expiry.
func (s *Service) ExpireStale(ctx context.Context, asOf time.Time) (*ExpiryResult, error) {
	createdBefore := asOf.Add(-(s.cfg.PaymentTTL + s.cfg.ExpiryGrace))

	pending, err := s.repo.ListPending(ctx, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("listing pending transactions: %w", err)
	}

	res := &ExpiryResult{}

	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		to, source := StatusExpired, SourceExpiry

		if tx.ProviderPaymentID != "" {
			status, err := s.gateway.QueryStatus(ctx, tx.ProviderPaymentID)
			if err != nil {
				slog.Warn("skipping expiry, provider status unavailable", "external_id", tx.ExternalID, "error", err)
				res.Skipped++

				continue
			}

			if status.Terminal() {
				to, source = status, SourceReconcile
			}
		}

		r, err := s.apply(ctx, tx, WebhookParams{ExternalID: tx.ExternalID, Status: to}, source)
		if err != nil {
			slog.Error("failed to expire transaction", "external_id", tx.ExternalID, "error", err)
			res.Skipped++

			continue
		}

		switch {
		case !r.Applied:
			res.Skipped++
		case r.Status == StatusExpired:
			res.Expired++
		default:
			res.Settled++
		}
	}

	s.metrics.ExpirySweep(res.Expired, res.Settled, res.Skipped)

	if len(pending) > 0 {
		slog.Info("expiry sweep finished", "expired", res.Expired, "settled", res.Settled, "skipped", res.Skipped)
	}

	return res, nil
}

func (s *Service) apply(ctx context.Context, current *Transaction, params WebhookParams, source string) (*WebhookResult, error) {
	if current.Status.Terminal() {
		slog.Info("ignoring status report for settled transaction",
			"external_id", current.ExternalID, "status", current.Status, "reported", params.Status, "source", source)
		s.record(ctx, current.ExternalID, params, source, false)

		return resultOf(current, false), nil
	}

	at := s.now()
	tp := TransitionParams{
		ExternalID:        current.ExternalID,
		To:                params.Status,
		ProviderPaymentID: params.ProviderPaymentID,
		At:                at,
	}

	// paid_at is the reconciliation time. Provider clocks are not trusted.
	if params.Status == StatusCompleted {
		tp.PaidAt = &at
	}

	ok, err := s.repo.Transition(ctx, tp)
	if err != nil {
		return nil, fmt.Errorf("applying status %s: %w", params.Status, err)
	}

	if !ok {
		// A concurrent report settled the row first.
		latest, err := s.repo.GetByExternalID(ctx, current.ExternalID)
		if err != nil {
			return nil, err
		}

		slog.Info("status report lost to concurrent update",
			"external_id", current.ExternalID, "status", latest.Status, "reported", params.Status, "source", source)
		s.record(ctx, current.ExternalID, params, source, false)

		return resultOf(latest, false), nil
	}

	changed := params.Status != current.Status
	s.record(ctx, current.ExternalID, params, source, changed)

	if !changed {
		return resultOf(current, false), nil
	}

	slog.Info("transaction status updated",
		"external_id", current.ExternalID, "from", current.Status, "to", params.Status, "source", source)

	previous := current.Status
	updated := *current
	updated.Status = params.Status
	updated.PaidAt = tp.PaidAt

	if params.ProviderPaymentID != "" {
		updated.ProviderPaymentID = params.ProviderPaymentID
	}

	s.invalidate(ctx, current.ExternalID)
	s.publish(ctx, "transaction.status_changed", &updated, previous)

	return resultOf(&updated, true), nil
}

func (s *Service) record(ctx context.Context, externalID string, params WebhookParams, source string, applied bool) {
	s.metrics.StatusUpdate(source, string(params.Status), applied)

	evt := &WebhookEvent{
		ExternalID:        externalID,
		Status:            params.Status,
		ProviderPaymentID: params.ProviderPaymentID,
		Source:            source,
		Applied:           applied,
		ReceivedAt:        s.now(),
	}
	if err := s.repo.RecordWebhookEvent(ctx, evt); err != nil {
		slog.Error("failed to record status report", "external_id", externalID, "source", source, "error", err)
	}
}

func resultOf(tx *Transaction, applied bool) *WebhookResult {
	return &WebhookResult{
		ExternalID: tx.ExternalID,
		Status:     tx.Status,
		Applied:    applied,
		PaidAt:     tx.PaidAt,
	}
}

// Poll is the public status read. Settled transactions are served from the
// cache when one is configured.
func (s *Service) Poll(ctx context.Context, externalID string) (*Detail, error) {
	key := pollKey(externalID)

	if s.cache != nil {
		b, err := s.cache.Get(ctx, key)

		switch {
		case err == nil:
			var d Detail
			if err := json.Unmarshal(b, &d); err == nil {
				return &d, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("failed to read poll cache", "external_id", externalID, "error", err)
		}
	}

	d, err := s.repo.GetDetailByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && d.Status.Terminal() {
		b, err := json.Marshal(d)
		if err == nil {
			err = s.cache.Set(ctx, key, b, s.cfg.CacheTTL)
		}

		if err != nil {
			slog.Warn("failed to write poll cache", "external_id", externalID, "error", err)
		}
	}

	return d, nil
}

// GetByExternalID is an uncached read for callers that act on the result.
func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*Detail, error) {
	return s.repo.GetDetailByExternalID(ctx, externalID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	remaining, err := s.ledger.RemainingQuota(ctx, d.PriceID)
	if err != nil {
		return nil, err
	}

	d.Price.RemainingQuota = remaining

	return d, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.ListDetails(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items: items,
		Meta: PageMeta{
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalItems: total,
			TotalPages: (total + filter.Limit - 1) / filter.Limit,
		},
	}, nil
}

func normalizeFilter(f ListFilter) (ListFilter, error) {
	if f.DateFrom.IsZero() || f.DateTo.IsZero() {
		return f, apperror.BadRequest("date_from and date_to are required", nil)
	}

	if f.DateTo.Before(f.DateFrom) {
		return f, apperror.BadRequest("date_to must not be before date_from", nil)
	}

	if f.DateTo.Sub(f.DateFrom) > maxListRange {
		return f, apperror.BadRequest("date range must not exceed 365 days", nil)
	}

	if f.Page < 1 {
		return f, apperror.BadRequest("page must be at least 1", nil)
	}

	if f.Limit < 1 || f.Limit > maxListLimit {
		return f, apperror.BadRequest("limit must be between 1 and 100", nil)
	}

	if f.SortBy == "" {
		f.SortBy = "created_at"
	}

	if !sortColumns[f.SortBy] {
		return f, apperror.BadRequest("unsupported sort_by", map[string]any{"sort_by": f.SortBy})
	}

	f.SortOrder = strings.ToLower(f.SortOrder)
	if f.SortOrder == "" {
		f.SortOrder = "desc"
	}

	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		return f, apperror.BadRequest("sort_order must be asc or desc", nil)
	}

	for _, st := range f.Statuses {
		if !st.Valid() {
			return f, apperror.BadRequest("unknown transaction status", map[string]any{"status": st})
		}
	}

	f.Search = strings.TrimSpace(f.Search)

	return f, nil
}

func newDetail(tx *Transaction, loc *location.Location, p *price.Price) *Detail {
	return &Detail{
		Transaction: *tx,
		Location: LocationSummary{
			ID:          loc.ID,
			MachineCode: loc.MachineCode,
			Name:        loc.Name,
			Address:     loc.Address,
			IsActive:    loc.IsActive,
		},
		Price: PriceSummary{
			ID:          p.ID,
			Amount:      p.Amount,
			Description: p.Description,
			Quota:       p.Quota,
			IsActive:    p.IsActive,
		},
	}
}

// ClaimDelivery reserves the delivery of a completed transaction for one
// caller before any photo is stored or mailed. The returned claim is handed
// back to ReleaseDelivery when the delivery fails.
func (s *Service) ClaimDelivery(ctx context.Context, externalID string) (time.Time, error) {
	// Postgres keeps microseconds; the claim must compare equal on release.
	at := s.now().UTC().Truncate(time.Microsecond)

	ok, err := s.repo.ClaimDelivery(ctx, externalID, at, at.Add(-s.cfg.DeliveryClaimTTL))
	if err != nil {
		return time.Time{}, err
	}

	if !ok {
		return time.Time{}, apperror.Unprocessable("photos already delivered or delivery in progress", map[string]any{"external_id": externalID})
	}

	return at, nil
}

func (s *Service) ReleaseDelivery(ctx context.Context, externalID string, claim time.Time) error {
	return s.repo.ReleaseDelivery(ctx, externalID, claim)
}

// MarkDeliverySent stamps the delivery time at. Only the first caller for a
// completed transaction succeeds. The caller picks at so the retention date
// it promised the customer matches the stored anchor.
func (s *Service) MarkDeliverySent(ctx context.Context, externalID string, at time.Time) error {
	ok, err := s.repo.MarkDeliverySent(ctx, externalID, at.UTC())
	if err != nil {
		return fmt.Errorf("marking delivery: %w", err)
	}

	if !ok {
		return apperror.Unprocessable("photos already delivered", map[string]any{"external_id": externalID})
	}

	s.invalidate(ctx, externalID)

	if tx, err := s.repo.GetByExternalID(ctx, externalID); err == nil {
		s.publish(ctx, "transaction.delivered", tx, "")
	}

	return nil
}

func (s *Service) ExpiredDeliveries(ctx context.Context, deliveredBefore time.Time) ([]*Transaction, error) {
	return s.repo.ListExpiredDeliveries(ctx, deliveredBefore)
}

func (s *Service) MarkFolderDeleted(ctx context.Context, externalID string) error {
	return s.repo.MarkFolderDeleted(ctx, externalID, s.now())
}

func (s *Service) invalidate(ctx context.Context, externalID string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, pollKey(externalID)); err != nil {
		slog.Warn("failed to invalidate poll cache", "external_id", externalID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, tx *Transaction, previous Status) {
	evt := events.Event{
		Type:       eventType,
		Key:        tx.ExternalID,
		OccurredAt: s.now(),
		Data: EventData{
			ExternalID:     tx.ExternalID,
			LocationID:     tx.LocationID,
			PriceID:        tx.PriceID,
			Amount:         tx.Amount,
			Status:         tx.Status,
			PreviousStatus: previous,
			PaidAt:         tx.PaidAt,
			DeliverySentAt: tx.DeliverySentAt,
		},
	}

	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish event", "type", eventType, "external_id", tx.ExternalID, "error", err)
	}
}

func pollKey(externalID string) string {
	return "transaction:poll:" + externalID
}
