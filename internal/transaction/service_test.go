package transaction_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/cache"
	"github.com/MrJamesThe3rd/photobox/internal/events"
	"github.com/MrJamesThe3rd/photobox/internal/location"
	"github.com/MrJamesThe3rd/photobox/internal/price"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

var fixedNow = time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

type mocks struct {
	repo      *transaction.MockRepository
	unit      *transaction.MockCreateTx
	locations *transaction.MockLocationReader
	ledger    *transaction.MockLedger
	gateway   *transaction.MockGateway
	publisher *transaction.MockPublisher
}

func newService(t *testing.T, opts ...transaction.Option) (*transaction.Service, *mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := &mocks{
		repo:      transaction.NewMockRepository(ctrl),
		unit:      transaction.NewMockCreateTx(ctrl),
		locations: transaction.NewMockLocationReader(ctrl),
		ledger:    transaction.NewMockLedger(ctrl),
		gateway:   transaction.NewMockGateway(ctrl),
		publisher: transaction.NewMockPublisher(ctrl),
	}

	cfg := transaction.Config{
		CallbackURL: "https://api.example.com/api/v1/webhooks/xendit",
		PaymentTTL:  15 * time.Minute,
		ExpiryGrace: 5 * time.Minute,
		CacheTTL:    time.Minute,
	}

	opts = append([]transaction.Option{
		transaction.WithPublisher(m.publisher),
		transaction.WithClock(func() time.Time { return fixedNow }),
	}, opts...)

	return transaction.NewService(m.repo, m.locations, m.ledger, m.gateway, cfg, opts...), m
}

func TestService_Create(t *testing.T) {
	priceID := uuid.New()
	activeLocation := &location.Location{ID: 7, MachineCode: "PB-007", Name: "Mall", IsActive: true}
	limited := &price.Price{ID: priceID, Amount: decimal.NewFromInt(35000), Quota: new(10), IsActive: true}

	type testCase struct {
		name      string
		setupMock func(m *mocks)
		wantKind  error
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(activeLocation, nil)
				m.repo.EXPECT().BeginCreate(gomock.Any()).Return(m.unit, nil)
				m.ledger.EXPECT().ReserveCapacity(gomock.Any(), m.unit, priceID).Return(limited, nil)
				m.gateway.EXPECT().CreateQRPayment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req transaction.QRRequest) (*transaction.QRPayment, error) {
						assert.Regexp(t, `^TRX-7-20250310083000-[0-9A-F]{8}$`, req.ExternalID)
						assert.True(t, req.Amount.Equal(decimal.NewFromInt(35000)))
						assert.Equal(t, fixedNow.Add(15*time.Minute), req.ExpiresAt)
						assert.Equal(t, "https://api.example.com/api/v1/webhooks/xendit", req.CallbackURL)

						return &transaction.QRPayment{PaymentID: "qr_123", QRString: "00020101"}, nil
					})
				m.unit.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.Equal(t, transaction.StatusPending, tx.Status)
						assert.Equal(t, "qr_123", tx.ProviderPaymentID)
						assert.Equal(t, priceID, tx.PriceID)
						tx.ID = 42

						return nil
					})
				m.unit.EXPECT().Commit().Return(nil)
				m.unit.EXPECT().Rollback().Return(nil)
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, evt events.Event) error {
						assert.Equal(t, "transaction.created", evt.Type)
						return nil
					})
				m.repo.EXPECT().GetDetail(gomock.Any(), int64(42)).
					Return(&transaction.Detail{Transaction: transaction.Transaction{ID: 42, Status: transaction.StatusPending}}, nil)
			},
		},
		{
			name: "LocationNotFound",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(nil, location.ErrNotFound)
			},
			wantKind: apperror.ErrNotFound,
			wantErr:  true,
		},
		{
			name: "LocationInactive",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).
					Return(&location.Location{ID: 7, IsActive: false}, nil)
			},
			wantKind: apperror.ErrUnprocessable,
			wantErr:  true,
		},
		{
			name: "QuotaExceeded",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(activeLocation, nil)
				m.repo.EXPECT().BeginCreate(gomock.Any()).Return(m.unit, nil)
				m.ledger.EXPECT().ReserveCapacity(gomock.Any(), m.unit, priceID).
					Return(nil, apperror.Unprocessable("price quota exceeded", nil))
				m.unit.EXPECT().Rollback().Return(nil)
			},
			wantKind: apperror.ErrUnprocessable,
			wantErr:  true,
		},
		{
			name: "GatewayFailureStoresNothing",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(activeLocation, nil)
				m.repo.EXPECT().BeginCreate(gomock.Any()).Return(m.unit, nil)
				m.ledger.EXPECT().ReserveCapacity(gomock.Any(), m.unit, priceID).Return(limited, nil)
				m.gateway.EXPECT().CreateQRPayment(gomock.Any(), gomock.Any()).
					Return(nil, errors.New("status 503"))
				m.unit.EXPECT().Rollback().Return(nil)
			},
			wantKind: apperror.ErrUpstream,
			wantErr:  true,
		},
		{
			name: "CommitFailure",
			setupMock: func(m *mocks) {
				m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(activeLocation, nil)
				m.repo.EXPECT().BeginCreate(gomock.Any()).Return(m.unit, nil)
				m.ledger.EXPECT().ReserveCapacity(gomock.Any(), m.unit, priceID).Return(limited, nil)
				m.gateway.EXPECT().CreateQRPayment(gomock.Any(), gomock.Any()).
					Return(&transaction.QRPayment{PaymentID: "qr_123", QRString: "00020101"}, nil)
				m.unit.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.unit.EXPECT().Commit().Return(errors.New("connection reset"))
				m.unit.EXPECT().Rollback().Return(nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			got, err := svc.Create(context.Background(), transaction.CreateParams{LocationID: 7, PriceID: priceID})
			if tt.wantErr {
				require.Error(t, err)

				if tt.wantKind != nil {
					assert.ErrorIs(t, err, tt.wantKind)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(42), got.ID)
		})
	}
}

func TestService_Create_ReadBackFailure(t *testing.T) {
	priceID := uuid.New()
	address := "Jl. Sudirman 1"
	loc := &location.Location{ID: 7, MachineCode: "PB-007", Name: "Mall", Address: &address, IsActive: true}
	p := &price.Price{ID: priceID, Amount: decimal.NewFromInt(35000), Quota: new(10), IsActive: true}

	svc, m := newService(t)

	m.locations.EXPECT().Get(gomock.Any(), int64(7)).Return(loc, nil)
	m.repo.EXPECT().BeginCreate(gomock.Any()).Return(m.unit, nil)
	m.ledger.EXPECT().ReserveCapacity(gomock.Any(), m.unit, priceID).Return(p, nil)
	m.gateway.EXPECT().CreateQRPayment(gomock.Any(), gomock.Any()).
		Return(&transaction.QRPayment{PaymentID: "qr_123", QRString: "00020101"}, nil)
	m.unit.EXPECT().InsertTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			tx.ID = 42
			tx.CreatedAt = fixedNow

			return nil
		})
	m.unit.EXPECT().Commit().Return(nil)
	m.unit.EXPECT().Rollback().Return(nil)
	m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	m.repo.EXPECT().GetDetail(gomock.Any(), int64(42)).Return(nil, errors.New("connection reset"))

	got, err := svc.Create(context.Background(), transaction.CreateParams{LocationID: 7, PriceID: priceID})
	require.NoError(t, err, "a committed QR is returned even when the read-back fails")

	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "00020101", got.QRString)
	assert.Equal(t, "qr_123", got.ProviderPaymentID)
	assert.Equal(t, transaction.StatusPending, got.Status)
	assert.Equal(t, transaction.LocationSummary{ID: 7, MachineCode: "PB-007", Name: "Mall", Address: &address, IsActive: true}, got.Location)
	assert.Equal(t, priceID, got.Price.ID)
	assert.True(t, got.Price.Amount.Equal(decimal.NewFromInt(35000)))
	assert.Equal(t, new(10), got.Price.Quota)
}

func TestService_ApplyWebhook(t *testing.T) {
	paidAt := fixedNow.Add(-time.Hour)

	pending := func() *transaction.Transaction {
		return &transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusPending, ProviderPaymentID: "qr_1"}
	}

	type testCase struct {
		name        string
		params      transaction.WebhookParams
		setupMock   func(m *mocks)
		wantStatus  transaction.Status
		wantApplied bool
		wantPaidAt  *time.Time
		wantKind    error
	}

	tests := []testCase{
		{
			name:   "CompletesPending",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusCompleted, ProviderPaymentID: "qr_1"},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil)
				m.repo.EXPECT().Transition(gomock.Any(), transaction.TransitionParams{
					ExternalID:        "TRX-1",
					To:                transaction.StatusCompleted,
					ProviderPaymentID: "qr_1",
					PaidAt:            &fixedNow,
					At:                fixedNow,
				}).Return(true, nil)
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, evt *transaction.WebhookEvent) error {
						assert.True(t, evt.Applied)
						assert.Equal(t, transaction.SourceWebhook, evt.Source)
						return nil
					})
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, evt events.Event) error {
						assert.Equal(t, "transaction.status_changed", evt.Type)
						assert.Equal(t, transaction.StatusPending, evt.Data.(transaction.EventData).PreviousStatus)
						return nil
					})
			},
			wantStatus:  transaction.StatusCompleted,
			wantApplied: true,
			wantPaidAt:  &fixedNow,
		},
		{
			name:   "PaidAtIsReconciliationTime",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusCompleted, ProviderPaymentID: "qr_1"},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil)
				m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p transaction.TransitionParams) (bool, error) {
						require.NotNil(t, p.PaidAt)
						assert.Equal(t, fixedNow, *p.PaidAt)
						assert.Equal(t, p.At, *p.PaidAt)
						return true, nil
					})
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil)
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, evt events.Event) error {
						assert.Equal(t, &fixedNow, evt.Data.(transaction.EventData).PaidAt)
						return nil
					})
			},
			wantStatus:  transaction.StatusCompleted,
			wantApplied: true,
			wantPaidAt:  &fixedNow,
		},
		{
			name:   "FailsPendingWithoutPaidAt",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusFailed},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil)
				m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p transaction.TransitionParams) (bool, error) {
						assert.Nil(t, p.PaidAt)
						return true, nil
					})
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil)
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus:  transaction.StatusFailed,
			wantApplied: true,
		},
		{
			name:   "TerminalIsNoop",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusFailed},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
					Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusCompleted, PaidAt: &paidAt}, nil)
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, evt *transaction.WebhookEvent) error {
						assert.False(t, evt.Applied)
						return nil
					})
			},
			wantStatus: transaction.StatusCompleted,
			wantPaidAt: &paidAt,
		},
		{
			name:   "LostRaceIsNoop",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusExpired},
			setupMock: func(m *mocks) {
				gomock.InOrder(
					m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil),
					m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).Return(false, nil),
					m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
						Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusCompleted, PaidAt: &paidAt}, nil),
				)
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: transaction.StatusCompleted,
			wantPaidAt: &paidAt,
		},
		{
			name:   "PendingRefreshesProviderID",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusPending, ProviderPaymentID: "qr_2"},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil)
				m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p transaction.TransitionParams) (bool, error) {
						assert.Equal(t, transaction.StatusPending, p.To)
						assert.Equal(t, "qr_2", p.ProviderPaymentID)
						return true, nil
					})
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: transaction.StatusPending,
		},
		{
			name:   "RecordFailureDoesNotFail",
			params: transaction.WebhookParams{ExternalID: "TRX-1", Status: transaction.StatusCompleted},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").Return(pending(), nil)
				m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).Return(true, nil)
				m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
				m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			wantStatus:  transaction.StatusCompleted,
			wantApplied: true,
			wantPaidAt:  &fixedNow,
		},
		{
			name:   "UnknownTransaction",
			params: transaction.WebhookParams{ExternalID: "TRX-404", Status: transaction.StatusCompleted},
			setupMock: func(m *mocks) {
				m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-404").Return(nil, transaction.ErrNotFound)
			},
			wantKind: apperror.ErrNotFound,
		},
		{
			name:      "UnknownStatus",
			params:    transaction.WebhookParams{ExternalID: "TRX-1", Status: "REFUNDED"},
			setupMock: func(m *mocks) {},
			wantKind:  apperror.ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			got, err := svc.ApplyWebhook(context.Background(), tt.params)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantApplied, got.Applied)
			assert.Equal(t, tt.wantPaidAt, got.PaidAt)
		})
	}
}

func TestService_Reconcile(t *testing.T) {
	t.Run("AppliesProviderStatus", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
			Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusPending, ProviderPaymentID: "qr_1"}, nil)
		m.gateway.EXPECT().QueryStatus(gomock.Any(), "qr_1").Return(transaction.StatusCompleted, nil)
		m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).Return(true, nil)
		m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, evt *transaction.WebhookEvent) error {
				assert.Equal(t, transaction.SourceReconcile, evt.Source)
				return nil
			})
		m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		got, err := svc.Reconcile(context.Background(), "TRX-1")
		require.NoError(t, err)
		assert.True(t, got.Applied)
		assert.Equal(t, transaction.StatusCompleted, got.Status)
	})

	t.Run("SettledSkipsProvider", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
			Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusExpired}, nil)

		got, err := svc.Reconcile(context.Background(), "TRX-1")
		require.NoError(t, err)
		assert.False(t, got.Applied)
	})

	t.Run("NoProviderID", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
			Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusPending}, nil)

		_, err := svc.Reconcile(context.Background(), "TRX-1")
		assert.ErrorIs(t, err, apperror.ErrUnprocessable)
	})

	t.Run("ProviderError", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
			Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusPending, ProviderPaymentID: "qr_1"}, nil)
		m.gateway.EXPECT().QueryStatus(gomock.Any(), "qr_1").Return(transaction.Status(""), errors.New("timeout"))

		_, err := svc.Reconcile(context.Background(), "TRX-1")
		assert.ErrorIs(t, err, apperror.ErrUpstream)
	})
}

func TestService_ExpireStale(t *testing.T) {
	svc, m := newService(t)

	silent := &transaction.Transaction{ExternalID: "TRX-A", Status: transaction.StatusPending}
	paid := &transaction.Transaction{ExternalID: "TRX-B", Status: transaction.StatusPending, ProviderPaymentID: "qr_b"}
	unreachable := &transaction.Transaction{ExternalID: "TRX-C", Status: transaction.StatusPending, ProviderPaymentID: "qr_c"}

	m.repo.EXPECT().ListPending(gomock.Any(), fixedNow.Add(-20*time.Minute)).
		Return([]*transaction.Transaction{silent, paid, unreachable}, nil)

	m.gateway.EXPECT().QueryStatus(gomock.Any(), "qr_b").Return(transaction.StatusCompleted, nil)
	m.gateway.EXPECT().QueryStatus(gomock.Any(), "qr_c").Return(transaction.Status(""), errors.New("timeout"))

	m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p transaction.TransitionParams) (bool, error) {
			switch p.ExternalID {
			case "TRX-A":
				assert.Equal(t, transaction.StatusExpired, p.To)
			case "TRX-B":
				assert.Equal(t, transaction.StatusCompleted, p.To)
				assert.NotNil(t, p.PaidAt)
			default:
				t.Errorf("unexpected transition for %s", p.ExternalID)
			}

			return true, nil
		}).Times(2)
	m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	got, err := svc.ExpireStale(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, &transaction.ExpiryResult{Expired: 1, Settled: 1, Skipped: 1}, got)
}

func TestService_List(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := transaction.ListFilter{DateFrom: from, DateTo: from.AddDate(0, 1, 0), Page: 2, Limit: 10}

	type testCase struct {
		name    string
		mutate  func(f *transaction.ListFilter)
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", mutate: func(f *transaction.ListFilter) {}},
		{name: "MissingDates", mutate: func(f *transaction.ListFilter) { f.DateFrom = time.Time{} }, wantErr: true},
		{name: "ToBeforeFrom", mutate: func(f *transaction.ListFilter) { f.DateTo = from.AddDate(0, 0, -1) }, wantErr: true},
		{name: "RangeTooLong", mutate: func(f *transaction.ListFilter) { f.DateTo = from.AddDate(1, 0, 1) }, wantErr: true},
		{name: "PageZero", mutate: func(f *transaction.ListFilter) { f.Page = 0 }, wantErr: true},
		{name: "LimitTooHigh", mutate: func(f *transaction.ListFilter) { f.Limit = 101 }, wantErr: true},
		{name: "BadSortColumn", mutate: func(f *transaction.ListFilter) { f.SortBy = "qr_string" }, wantErr: true},
		{name: "BadSortOrder", mutate: func(f *transaction.ListFilter) { f.SortOrder = "sideways" }, wantErr: true},
		{name: "BadStatus", mutate: func(f *transaction.ListFilter) { f.Statuses = []transaction.Status{"PAID"} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			filter := valid
			tt.mutate(&filter)

			if !tt.wantErr {
				m.repo.EXPECT().ListDetails(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, f transaction.ListFilter) ([]*transaction.Detail, int, error) {
						assert.Equal(t, "created_at", f.SortBy)
						assert.Equal(t, "desc", f.SortOrder)
						assert.Equal(t, 10, f.Offset())

						return []*transaction.Detail{{}}, 21, nil
					})
			}

			got, err := svc.List(context.Background(), filter)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrBadRequest)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, transaction.PageMeta{Page: 2, Limit: 10, TotalItems: 21, TotalPages: 3}, got.Meta)
		})
	}
}

func TestService_Poll(t *testing.T) {
	t.Run("CachesSettled", func(t *testing.T) {
		mem := cache.NewMemory()
		svc, m := newService(t, transaction.WithCache(mem))

		settled := &transaction.Detail{Transaction: transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusCompleted}}
		m.repo.EXPECT().GetDetailByExternalID(gomock.Any(), "TRX-1").Return(settled, nil).Times(1)

		first, err := svc.Poll(context.Background(), "TRX-1")
		require.NoError(t, err)

		second, err := svc.Poll(context.Background(), "TRX-1")
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
	})

	t.Run("DoesNotCachePending", func(t *testing.T) {
		mem := cache.NewMemory()
		svc, m := newService(t, transaction.WithCache(mem))

		pending := &transaction.Detail{Transaction: transaction.Transaction{ExternalID: "TRX-2", Status: transaction.StatusPending}}
		m.repo.EXPECT().GetDetailByExternalID(gomock.Any(), "TRX-2").Return(pending, nil).Times(2)

		for range 2 {
			_, err := svc.Poll(context.Background(), "TRX-2")
			require.NoError(t, err)
		}
	})

	t.Run("TransitionInvalidates", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c := transaction.NewMockCache(ctrl)
		svc, m := newService(t, transaction.WithCache(c))

		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-3").
			Return(&transaction.Transaction{ExternalID: "TRX-3", Status: transaction.StatusPending}, nil)
		m.repo.EXPECT().Transition(gomock.Any(), gomock.Any()).Return(true, nil)
		m.repo.EXPECT().RecordWebhookEvent(gomock.Any(), gomock.Any()).Return(nil)
		m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
		c.EXPECT().Delete(gomock.Any(), "transaction:poll:TRX-3").Return(nil)

		_, err := svc.ApplyWebhook(context.Background(), transaction.WebhookParams{ExternalID: "TRX-3", Status: transaction.StatusExpired})
		require.NoError(t, err)
	})

	t.Run("CorruptEntryFallsThrough", func(t *testing.T) {
		mem := cache.NewMemory()
		require.NoError(t, mem.Set(context.Background(), "transaction:poll:TRX-4", []byte("{"), time.Minute))
		svc, m := newService(t, transaction.WithCache(mem))

		d := &transaction.Detail{Transaction: transaction.Transaction{ExternalID: "TRX-4", Status: transaction.StatusFailed}}
		m.repo.EXPECT().GetDetailByExternalID(gomock.Any(), "TRX-4").Return(d, nil)

		got, err := svc.Poll(context.Background(), "TRX-4")
		require.NoError(t, err)
		assert.Equal(t, transaction.StatusFailed, got.Status)

		b, err := mem.Get(context.Background(), "transaction:poll:TRX-4")
		require.NoError(t, err)
		assert.True(t, json.Valid(b))
	})
}

func TestService_Get(t *testing.T) {
	svc, m := newService(t)
	priceID := uuid.New()

	m.repo.EXPECT().GetDetail(gomock.Any(), int64(5)).
		Return(&transaction.Detail{Transaction: transaction.Transaction{ID: 5, PriceID: priceID}}, nil)
	m.ledger.EXPECT().RemainingQuota(gomock.Any(), priceID).Return(new(3), nil)

	got, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, new(3), got.Price.RemainingQuota)
}

func TestService_MarkDeliverySent(t *testing.T) {
	t.Run("FirstCallerWins", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().MarkDeliverySent(gomock.Any(), "TRX-1", fixedNow).Return(true, nil)
		m.repo.EXPECT().GetByExternalID(gomock.Any(), "TRX-1").
			Return(&transaction.Transaction{ExternalID: "TRX-1", Status: transaction.StatusCompleted, DeliverySentAt: &fixedNow}, nil)
		m.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, evt events.Event) error {
				assert.Equal(t, "transaction.delivered", evt.Type)
				return nil
			})

		require.NoError(t, svc.MarkDeliverySent(context.Background(), "TRX-1", fixedNow))
	})

	t.Run("AlreadyDelivered", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().MarkDeliverySent(gomock.Any(), "TRX-1", fixedNow).Return(false, nil)

		err := svc.MarkDeliverySent(context.Background(), "TRX-1", fixedNow)
		assert.ErrorIs(t, err, apperror.ErrUnprocessable)
	})
}

func TestService_ClaimDelivery(t *testing.T) {
	t.Run("Claimed", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().ClaimDelivery(gomock.Any(), "TRX-1", fixedNow, fixedNow.Add(-10*time.Minute)).Return(true, nil)

		claim, err := svc.ClaimDelivery(context.Background(), "TRX-1")
		require.NoError(t, err)
		assert.Equal(t, fixedNow, claim)
	})

	t.Run("InProgress", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().ClaimDelivery(gomock.Any(), "TRX-1", gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := svc.ClaimDelivery(context.Background(), "TRX-1")
		assert.ErrorIs(t, err, apperror.ErrUnprocessable)
	})

	t.Run("Release", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().ReleaseDelivery(gomock.Any(), "TRX-1", fixedNow).Return(nil)

		require.NoError(t, svc.ReleaseDelivery(context.Background(), "TRX-1", fixedNow))
	})
}
