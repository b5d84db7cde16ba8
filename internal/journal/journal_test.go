package journal

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"trading-journal-go/internal/database/dbtest"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/query"
	"trading-journal-go/internal/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

func ptr[T any](v T) *T { return &v }

func tradeInput(symbol string, dir models.Direction, entry, exit, profit float64) validate.TradeInput {
	openTime := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	return validate.TradeInput{
		Symbol:     symbol,
		Direction:  dir,
		OpenTime:   ptr(openTime),
		CloseTime:  ptr(openTime.Add(90 * time.Minute)),
		OpenPrice:  ptr(entry),
		ClosePrice: ptr(exit),
		LotSize:    ptr(0.1),
		Profit:     ptr(profit),
	}
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok, "expected *journal.Error, got %T: %v", err, err)
	assert.Equal(t, kind, e.Kind)
	return e
}

func TestTradeService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	t.Run("Derives pips and stamps the caller", func(t *testing.T) {
		tr, err := svc.Create(ctx, alice, tradeInput("USDJPY", models.DirectionBuy, 110.00, 110.50, 45))
		require.NoError(t, err)
		assert.Equal(t, alice, tr.UserID)
		assert.Equal(t, 50.0, tr.Pips)
		assert.Equal(t, models.SessionOther, tr.SessionType)
		assert.Equal(t, models.SourceManual, tr.Source)
		assert.NotEmpty(t, tr.ID)
	})

	t.Run("Explicit pips are kept", func(t *testing.T) {
		in := tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, 10)
		in.Pips = ptr(7.0)
		tr, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)
		assert.Equal(t, 7.0, tr.Pips)
	})

	t.Run("Missing fields are a validation error", func(t *testing.T) {
		in := tradeInput("EURUSD", "LONG", 1.1, 1.2, 10)
		in.Profit = nil
		e := requireKind(t, err2(svc.Create(ctx, alice, in)), KindValidation)
		assert.Contains(t, e.Fields, "profit")
		assert.Contains(t, e.Fields, "direction")
	})

	t.Run("Foreign broker account is rejected", func(t *testing.T) {
		accounts := NewBrokerAccountService(zap.NewNop(), svc.db, nil)
		acct, err := accounts.Create(ctx, bob, brokerInput("1001"))
		require.NoError(t, err)

		in := tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, 10)
		in.BrokerAccount = ptr(acct.ID)
		requireKind(t, err2(svc.Create(ctx, alice, in)), KindNotAuthorized)
	})
}

func err2[T any](_ T, err error) error { return err }

func TestTradeService_Ownership(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	tr, err := svc.Create(ctx, alice, tradeInput("EURUSD", models.DirectionSell, 1.2540, 1.2480, 60))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		call    func(user, id string) error
		message string
	}{
		{
			name:    "Get",
			call:    func(user, id string) error { return err2(svc.Get(ctx, user, id)) },
			message: "User not authorized to access this trade",
		},
		{
			name:    "Update",
			call:    func(user, id string) error { return err2(svc.Update(ctx, user, id, []byte(`{}`))) },
			message: "User not authorized to update this trade",
		},
		{
			name:    "Delete",
			call:    func(user, id string) error { return svc.Delete(ctx, user, id) },
			message: "User not authorized to delete this trade",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := requireKind(t, tc.call(bob, tr.ID), KindNotAuthorized)
			assert.Equal(t, tc.message, e.Message)
			assert.Equal(t, 401, e.Status())

			e = requireKind(t, tc.call(alice, "missing"), KindNotFound)
			assert.Equal(t, "Trade not found with id of missing", e.Message)
			assert.Equal(t, 404, e.Status())
		})
	}

	got, err := svc.Get(ctx, alice, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, got.ID)
}

func TestTradeService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	in := tradeInput("GBPUSD", models.DirectionBuy, 1.2500, 1.2550, 50)
	in.Strategy = "Breakout"
	in.Tags = []string{"news"}
	tr, err := svc.Create(ctx, alice, in)
	require.NoError(t, err)

	t.Run("Merges over the stored record", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, tr.ID, []byte(`{"profit": -20, "notes": "stopped out"}`))
		require.NoError(t, err)
		assert.Equal(t, -20.0, updated.Profit)
		assert.Equal(t, "stopped out", updated.Notes)
		assert.Equal(t, "Breakout", updated.Strategy)
		assert.Equal(t, []string{"news"}, []string(updated.Tags))
		assert.Equal(t, 50.0, updated.Pips)

		reloaded, err := svc.Get(ctx, alice, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, -20.0, reloaded.Profit)
		assert.Equal(t, "LOSS", reloaded.Result())
	})

	t.Run("Re-validates the merged record", func(t *testing.T) {
		e := requireKind(t, err2(svc.Update(ctx, alice, tr.ID, []byte(`{"sessionType": "LUNCH"}`))), KindValidation)
		assert.Contains(t, e.Fields, "sessionType")

		requireKind(t, err2(svc.Update(ctx, alice, tr.ID, []byte(`{"openPrice": null}`))), KindValidation)
	})

	t.Run("Rejects a malformed body", func(t *testing.T) {
		requireKind(t, err2(svc.Update(ctx, alice, tr.ID, []byte(`{"profit": "lots"}`))), KindValidation)
	})
}

func TestTradeService_List(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	for i := 0; i < 15; i++ {
		in := tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.1, float64(i-5))
		in.OpenTime = ptr(in.OpenTime.Add(time.Duration(i) * time.Hour))
		_, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob, tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, 500))
	require.NoError(t, err)

	t.Run("Second page", func(t *testing.T) {
		page, err := svc.List(ctx, alice, url.Values{"page": {"2"}, "limit": {"10"}})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Count())
		assert.Equal(t, int64(15), page.Total)
		assert.Nil(t, page.Pagination.Next)
		require.NotNil(t, page.Pagination.Prev)
		assert.Equal(t, 1, page.Pagination.Prev.Page)
		assert.Equal(t, 10, page.Pagination.Prev.Limit)
	})

	t.Run("Default order is newest open first", func(t *testing.T) {
		page, err := svc.List(ctx, alice, url.Values{})
		require.NoError(t, err)
		require.Len(t, page.Items, 10)
		assert.Equal(t, 9.0, page.Items[0].Profit)
		assert.NotNil(t, page.Pagination.Next)
	})

	t.Run("Only strictly positive profit", func(t *testing.T) {
		page, err := svc.List(ctx, alice, url.Values{"profit[gt]": {"0"}, "limit": {"50"}})
		require.NoError(t, err)
		assert.Len(t, page.Items, 9)
		for _, tr := range page.Items {
			assert.Greater(t, tr.Profit, 0.0)
			assert.Equal(t, alice, tr.UserID)
		}
	})

	t.Run("Owner cannot be overridden", func(t *testing.T) {
		_, err := svc.List(ctx, alice, url.Values{"user": {bob}})
		requireKind(t, err, KindBadQuery)
	})

	t.Run("Oversized page and limit are bounded", func(t *testing.T) {
		page, err := svc.List(ctx, alice, url.Values{"limit": {"1000000000000"}})
		require.NoError(t, err)
		assert.Equal(t, 15, page.Count())
		assert.Nil(t, page.Pagination.Next)

		page, err = svc.List(ctx, alice, url.Values{"page": {"922337203685477581"}, "limit": {"10"}})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Count())
		assert.Nil(t, page.Pagination.Next)
		require.NotNil(t, page.Pagination.Prev)
		assert.Equal(t, query.MaxPage-1, page.Pagination.Prev.Page)
	})

	t.Run("Selection trims the payload", func(t *testing.T) {
		page, err := svc.List(ctx, alice, url.Values{"select": {"symbol,profit"}, "limit": {"1"}})
		require.NoError(t, err)
		rows := page.Data.([]map[string]any)
		require.Len(t, rows, 1)
		assert.ElementsMatch(t, []string{"id", "symbol", "profit"}, keys(rows[0]))
	})
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestTradeService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	empty, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalTrades)
	assert.Zero(t, empty.WinRate)
	assert.Zero(t, float64(empty.ProfitFactor))

	for _, p := range []float64{100, -50, 25} {
		in := tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, p)
		in.SessionType = models.SessionLondon
		_, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)
	}
	_, err = svc.Create(ctx, bob, tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, -1000))
	require.NoError(t, err)

	s, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 75.0, s.TotalProfit)
	assert.Equal(t, 2.5, float64(s.ProfitFactor))

	groups, err := svc.Breakdown(ctx, alice, func(t *models.Trade) string { return string(t.SessionType) })
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "LONDON", groups[0].Name)
}

func TestTradeService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewTradeService(zap.NewNop(), dbtest.New(t))

	tr, err := svc.Create(ctx, alice, tradeInput("EURUSD", models.DirectionBuy, 1.1, 1.2, 1))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, alice, tr.ID))
	requireKind(t, err2(svc.Get(ctx, alice, tr.ID)), KindNotFound)
}

func TestMissedTradeService(t *testing.T) {
	ctx := context.Background()
	svc := NewMissedTradeService(zap.NewNop(), dbtest.New(t))
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	in := validate.MissedTradeInput{
		Symbol:              "EURUSD",
		Direction:           models.DirectionSell,
		PotentialEntryPrice: ptr(1.2540),
		PotentialExitPrice:  ptr(1.2480),
		Reason:              "Hesitation",
	}

	m, err := svc.Create(ctx, alice, in)
	require.NoError(t, err)
	assert.Equal(t, 60.0, m.EstimatedProfit)
	assert.True(t, fixed.Equal(m.Date))
	assert.Equal(t, alice, m.UserID)

	t.Run("Unknown reason", func(t *testing.T) {
		bad := in
		bad.Reason = "Bored"
		e := requireKind(t, err2(svc.Create(ctx, alice, bad)), KindValidation)
		assert.Contains(t, e.Fields, "reason")
	})

	t.Run("Ownership", func(t *testing.T) {
		e := requireKind(t, err2(svc.Get(ctx, bob, m.ID)), KindNotAuthorized)
		assert.Equal(t, "User not authorized to access this missed trade", e.Message)
		e = requireKind(t, svc.Delete(ctx, alice, "nope"), KindNotFound)
		assert.Equal(t, "Missed trade not found with id of nope", e.Message)
	})

	t.Run("Update keeps the stored estimate", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, m.ID, []byte(`{"reason": "Missed Signal"}`))
		require.NoError(t, err)
		assert.Equal(t, "Missed Signal", updated.Reason)
		assert.Equal(t, 60.0, updated.EstimatedProfit)
	})

	t.Run("Stats", func(t *testing.T) {
		other := in
		other.Reason = "Other"
		other.EstimatedProfit = ptr(-20.0)
		_, err := svc.Create(ctx, alice, other)
		require.NoError(t, err)

		s, err := svc.Stats(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 2, s.TotalMissedTrades)
		assert.Equal(t, 40.0, s.TotalMissedProfit)
		assert.Equal(t, 20.0, s.AverageMissedProfit)
		assert.Equal(t, 1, s.ReasonCounts.Get("Missed Signal"))
		assert.Equal(t, 1, s.ReasonCounts.Get("Other"))
	})

	t.Run("List defaults to newest date first", func(t *testing.T) {
		later := in
		later.Date = ptr(fixed.Add(24 * time.Hour))
		_, err := svc.Create(ctx, alice, later)
		require.NoError(t, err)

		page, err := svc.List(ctx, alice, url.Values{})
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.True(t, page.Items[0].Date.Equal(*later.Date))
	})
}

type MockSyncQueue struct {
	mock.Mock
}

func (m *MockSyncQueue) Enqueue(ctx context.Context, account *models.BrokerAccount) (*models.SyncHistory, error) {
	args := m.Called(ctx, account)
	if h, ok := args.Get(0).(*models.SyncHistory); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func brokerInput(number string) validate.BrokerAccountInput {
	return validate.BrokerAccountInput{
		AccountNumber: number,
		BrokerName:    "IC Markets",
		ServerName:    "ICMarkets-Demo",
		Platform:      models.PlatformMT5,
		Password:      "secret",
	}
}

func TestBrokerAccountService(t *testing.T) {
	ctx := context.Background()
	queue := new(MockSyncQueue)
	svc := NewBrokerAccountService(zap.NewNop(), dbtest.New(t), queue)

	first, err := svc.Create(ctx, alice, brokerInput("1001"))
	require.NoError(t, err)
	assert.Equal(t, models.AccountDisconnected, first.Status)
	assert.True(t, first.AutoSync)

	second, err := svc.Create(ctx, alice, brokerInput("1002"))
	require.NoError(t, err)

	t.Run("List is newest first and scoped", func(t *testing.T) {
		_, err := svc.Create(ctx, bob, brokerInput("2001"))
		require.NoError(t, err)

		accounts, err := svc.List(ctx, alice)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, second.ID, accounts[0].ID)
	})

	t.Run("Update keeps the password when omitted", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, first.ID, []byte(`{"autoSync": false, "serverName": "ICMarkets-Live"}`))
		require.NoError(t, err)
		assert.False(t, updated.AutoSync)
		assert.Equal(t, "ICMarkets-Live", updated.ServerName)
		assert.Equal(t, "secret", updated.Password)

		requireKind(t, err2(svc.Update(ctx, alice, first.ID, []byte(`{"platform": "cTrader"}`))), KindValidation)
	})

	t.Run("Sync answers with the queued history", func(t *testing.T) {
		queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(b *models.BrokerAccount) bool {
			return b.ID == first.ID
		})).Return(&models.SyncHistory{
			ID:      "hist-1",
			Status:  models.SyncInProgress,
			Message: "Synchronization started",
		}, nil).Once()

		started, err := svc.Sync(ctx, alice, first.ID)
		require.NoError(t, err)
		assert.Equal(t, &SyncStarted{
			Message:       "Synchronization started",
			SyncHistoryID: "hist-1",
			Status:        models.SyncInProgress,
		}, started)
		queue.AssertExpectations(t)
	})

	t.Run("Sync is ownership checked", func(t *testing.T) {
		e := requireKind(t, err2(svc.Sync(ctx, bob, first.ID)), KindNotAuthorized)
		assert.Equal(t, "User not authorized to sync this broker account", e.Message)
		queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.MatchedBy(func(b *models.BrokerAccount) bool {
			return b.UserID == bob
		}))
	})

	t.Run("Sync history is newest first", func(t *testing.T) {
		db := svc.db
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			require.NoError(t, db.Create(&models.SyncHistory{
				UserID:          alice,
				BrokerAccountID: second.ID,
				AccountNumber:   second.AccountNumber,
				Timestamp:       base.Add(time.Duration(i) * time.Minute),
				Status:          models.SyncSuccess,
				Message:         fmt.Sprintf("run %d", i),
			}).Error)
		}

		history, err := svc.SyncHistory(ctx, alice, second.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "run 2", history[0].Message)

		requireKind(t, err2(svc.SyncHistory(ctx, bob, second.ID)), KindNotAuthorized)
	})

	t.Run("Delete does not cascade", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, alice, second.ID))
		requireKind(t, err2(svc.Get(ctx, alice, second.ID)), KindNotFound)

		var left int64
		require.NoError(t, svc.db.Model(&models.SyncHistory{}).Where("broker_account_id = ?", second.ID).Count(&left).Error)
		assert.Equal(t, int64(3), left)
	})
}
