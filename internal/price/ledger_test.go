package price_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/photobox/internal/apperror"
	"github.com/MrJamesThe3rd/photobox/internal/price"
)

func TestLedger_ReserveCapacity(t *testing.T) {
	priceID := uuid.New()

	type testCase struct {
		name       string
		setupGuard func(g *price.MockQuotaGuard)
		wantKind   error
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "UnlimitedSkipsLock",
			setupGuard: func(g *price.MockQuotaGuard) {
				g.EXPECT().GetPrice(gomock.Any(), priceID).
					Return(&price.Price{ID: priceID, Amount: decimal.NewFromInt(35000), IsActive: true}, nil)
			},
		},
		{
			name: "UnderQuota",
			setupGuard: func(g *price.MockQuotaGuard) {
				gomock.InOrder(
					g.EXPECT().GetPrice(gomock.Any(), priceID).
						Return(&price.Price{ID: priceID, Quota: new(2), IsActive: true}, nil),
					g.EXPECT().LockPrice(gomock.Any(), priceID).Return(nil),
					g.EXPECT().CountTransactions(gomock.Any(), priceID).Return(1, nil),
				)
			},
		},
		{
			name: "QuotaExceeded",
			setupGuard: func(g *price.MockQuotaGuard) {
				g.EXPECT().GetPrice(gomock.Any(), priceID).
					Return(&price.Price{ID: priceID, Quota: new(1), IsActive: true}, nil)
				g.EXPECT().LockPrice(gomock.Any(), priceID).Return(nil)
				g.EXPECT().CountTransactions(gomock.Any(), priceID).Return(1, nil)
			},
			wantKind: apperror.ErrUnprocessable,
			wantErr:  true,
		},
		{
			name: "Inactive",
			setupGuard: func(g *price.MockQuotaGuard) {
				g.EXPECT().GetPrice(gomock.Any(), priceID).
					Return(&price.Price{ID: priceID, Quota: new(5), IsActive: false}, nil)
			},
			wantKind: apperror.ErrBadRequest,
			wantErr:  true,
		},
		{
			name: "NotFound",
			setupGuard: func(g *price.MockQuotaGuard) {
				g.EXPECT().GetPrice(gomock.Any(), priceID).Return(nil, price.ErrNotFound)
			},
			wantKind: apperror.ErrNotFound,
			wantErr:  true,
		},
		{
			name: "LockError",
			setupGuard: func(g *price.MockQuotaGuard) {
				g.EXPECT().GetPrice(gomock.Any(), priceID).
					Return(&price.Price{ID: priceID, Quota: new(5), IsActive: true}, nil)
				g.EXPECT().LockPrice(gomock.Any(), priceID).Return(errors.New("deadlock detected"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			guard := price.NewMockQuotaGuard(ctrl)
			tt.setupGuard(guard)

			ledger := price.NewLedger(price.NewMockRepository(ctrl))
			got, err := ledger.ReserveCapacity(context.Background(), guard, priceID)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				if tt.wantKind != nil {
					assert.ErrorIs(t, err, tt.wantKind)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, priceID, got.ID)
		})
	}
}

func TestLedger_ReserveCapacity_QuotaDetails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	priceID := uuid.New()
	guard := price.NewMockQuotaGuard(ctrl)
	guard.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID, Quota: new(3), IsActive: true}, nil)
	guard.EXPECT().LockPrice(gomock.Any(), priceID).Return(nil)
	guard.EXPECT().CountTransactions(gomock.Any(), priceID).Return(4, nil)

	_, err := price.NewLedger(price.NewMockRepository(ctrl)).ReserveCapacity(context.Background(), guard, priceID)
	require.Error(t, err)

	assert.Equal(t, "price quota exceeded", apperror.Message(err, ""))
	assert.Equal(t, map[string]any{"price_id": priceID, "quota": 3, "used": 4}, apperror.Details(err))
}

func TestLedger_RemainingQuota(t *testing.T) {
	priceID := uuid.New()

	tests := []struct {
		name      string
		setupMock func(m *price.MockRepository)
		want      *int
	}{
		{
			name: "Unlimited",
			setupMock: func(m *price.MockRepository) {
				m.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID}, nil)
			},
			want: nil,
		},
		{
			name: "Partial",
			setupMock: func(m *price.MockRepository) {
				m.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID, Quota: new(10)}, nil)
				m.EXPECT().CountTransactions(gomock.Any(), priceID).Return(4, nil)
			},
			want: new(6),
		},
		{
			name: "NeverNegative",
			setupMock: func(m *price.MockRepository) {
				m.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID, Quota: new(2)}, nil)
				m.EXPECT().CountTransactions(gomock.Any(), priceID).Return(3, nil)
			},
			want: new(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := price.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := price.NewLedger(repo).RemainingQuota(context.Background(), priceID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_Create(t *testing.T) {
	tests := []struct {
		name      string
		params    price.CreateParams
		setupMock func(m *price.MockRepository)
		wantErr   bool
	}{
		{
			name:   "Success",
			params: price.CreateParams{Amount: decimal.RequireFromString("35000.00"), Quota: new(100)},
			setupMock: func(m *price.MockRepository) {
				m.EXPECT().CreatePrice(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *price.Price) error {
						assert.True(t, p.IsActive)
						p.ID = uuid.New()
						return nil
					})
			},
		},
		{name: "ZeroAmount", params: price.CreateParams{Amount: decimal.Zero}, wantErr: true},
		{name: "TooManyDecimals", params: price.CreateParams{Amount: decimal.RequireFromString("10.001")}, wantErr: true},
		{name: "ZeroQuota", params: price.CreateParams{Amount: decimal.NewFromInt(1), Quota: new(0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := price.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := price.NewLedger(repo).Create(context.Background(), tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrBadRequest)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestLedger_Deactivate(t *testing.T) {
	priceID := uuid.New()

	t.Run("AlreadyInactive", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := price.NewMockRepository(ctrl)
		repo.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID, IsActive: false}, nil)

		_, err := price.NewLedger(repo).Deactivate(context.Background(), priceID)
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := price.NewMockRepository(ctrl)
		repo.EXPECT().GetPrice(gomock.Any(), priceID).Return(&price.Price{ID: priceID, IsActive: true}, nil)
		repo.EXPECT().SetActive(gomock.Any(), priceID, false).Return(nil)

		got, err := price.NewLedger(repo).Deactivate(context.Background(), priceID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})
}

func TestLedger_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limited := &price.Price{ID: uuid.New(), Quota: new(5), IsActive: true}
	unlimited := &price.Price{ID: uuid.New(), IsActive: true}

	repo := price.NewMockRepository(ctrl)
	repo.EXPECT().ListPrices(gomock.Any()).Return([]*price.Price{limited, unlimited}, nil)
	repo.EXPECT().CountTransactionsByPrice(gomock.Any()).Return(map[uuid.UUID]int{limited.ID: 2}, nil)

	got, err := price.NewLedger(repo).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].Used)
	assert.Equal(t, new(3), got[0].RemainingQuota)
	assert.Equal(t, 0, got[1].Used)
	assert.Nil(t, got[1].RemainingQuota)
}
