package validate

import (
	"encoding/json"
	"testing"
	"time"

	"trading-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validTrade() TradeInput {
	open := time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC)
	return TradeInput{
		Symbol:     "USDJPY",
		Direction:  models.DirectionBuy,
		OpenTime:   ptr(open),
		CloseTime:  ptr(open.Add(time.Hour)),
		OpenPrice:  ptr(110.00),
		ClosePrice: ptr(110.50),
		LotSize:    ptr(1.0),
		Profit:     ptr(0.0),
	}
}

func TestStruct_TradeInput(t *testing.T) {
	t.Run("Valid with zero profit", func(t *testing.T) {
		in := validTrade()
		assert.NoError(t, Struct(&in))
	})

	t.Run("Missing required fields", func(t *testing.T) {
		in := validTrade()
		in.OpenPrice = nil
		in.Symbol = ""

		err := Struct(&in)
		require.Error(t, err)

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		assert.Equal(t, "Please provide open price", fields["openPrice"])
		assert.Equal(t, "Please provide symbol", fields["symbol"])
		assert.Equal(t, "Please provide open price, Please provide symbol", err.Error())
	})

	t.Run("Bad enumerations", func(t *testing.T) {
		in := validTrade()
		in.Direction = "HOLD"
		in.SessionType = "SYDNEY"
		in.Source = "CSV"

		var fields FieldErrors
		require.ErrorAs(t, Struct(&in), &fields)
		assert.Equal(t, "direction must be one of BUY, SELL", fields["direction"])
		assert.Contains(t, fields, "sessionType")
		assert.Contains(t, fields, "source")
	})
}

func TestTradeInput_Apply(t *testing.T) {
	in := validTrade()
	var trade models.Trade
	in.Apply(&trade)

	assert.Equal(t, 50.0, trade.Pips)
	assert.Equal(t, models.SessionOther, trade.SessionType)
	assert.Equal(t, models.SourceManual, trade.Source)
	assert.Equal(t, 0.0, trade.Commission)

	in.Pips = ptr(12.0)
	in.Apply(&trade)
	assert.Equal(t, 12.0, trade.Pips)

	in.Pips = ptr(0.0)
	in.Apply(&trade)
	assert.Equal(t, 50.0, trade.Pips)
}

func TestTradeInput_MergePatch(t *testing.T) {
	in := validTrade()
	var trade models.Trade
	in.Apply(&trade)

	merged := TradeInputFrom(&trade)
	require.NoError(t, json.Unmarshal([]byte(`{"profit": 75.5, "notes": "held overnight"}`), &merged))
	require.NoError(t, Struct(&merged))
	merged.Apply(&trade)

	assert.Equal(t, 75.5, trade.Profit)
	assert.Equal(t, "held overnight", trade.Notes)
	assert.Equal(t, "USDJPY", trade.Symbol)
	assert.Equal(t, 50.0, trade.Pips)

	merged = TradeInputFrom(&trade)
	require.NoError(t, json.Unmarshal([]byte(`{"closePrice": null}`), &merged))
	assert.Error(t, Struct(&merged))
}

func TestMissedTradeInput(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := MissedTradeInput{
		Symbol:              "EURUSD",
		Direction:           models.DirectionSell,
		PotentialEntryPrice: ptr(1.2540),
		PotentialExitPrice:  ptr(1.2480),
		Reason:              "Hesitation",
	}
	require.NoError(t, Struct(&in))

	var missed models.MissedTrade
	in.Apply(&missed, now)
	assert.Equal(t, 60.0, missed.EstimatedProfit)
	assert.Equal(t, now, missed.Date)

	in.EstimatedProfit = ptr(0.0)
	in.Apply(&missed, now)
	assert.Equal(t, 60.0, missed.EstimatedProfit)

	in.EstimatedProfit = ptr(-15.0)
	in.Apply(&missed, now)
	assert.Equal(t, -15.0, missed.EstimatedProfit)
	in.EstimatedProfit = nil

	in.Reason = "Bad Luck"
	var fields FieldErrors
	require.ErrorAs(t, Struct(&in), &fields)
	assert.Contains(t, fields["reason"], "Lack of Confidence")

	in.Reason = "Lack of Confidence"
	assert.NoError(t, Struct(&in))
}

func TestBrokerAccountInput(t *testing.T) {
	in := BrokerAccountInput{
		AccountNumber: " 778899 ",
		BrokerName:    "IC Markets",
		ServerName:    "ICMarkets-Demo",
		Platform:      models.PlatformMT5,
		Password:      "hunter2",
	}
	require.NoError(t, Struct(&in))

	var account models.BrokerAccount
	in.Apply(&account)
	assert.Equal(t, "778899", account.AccountNumber)
	assert.Equal(t, models.AccountDisconnected, account.Status)
	assert.True(t, account.AutoSync)

	in.Platform = "cTrader"
	in.Password = ""
	var fields FieldErrors
	require.ErrorAs(t, Struct(&in), &fields)
	assert.Contains(t, fields, "platform")
	assert.Equal(t, "Please provide password", fields["password"])
}

func TestAuthInputs(t *testing.T) {
	assert.NoError(t, Struct(&RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"}))

	var fields FieldErrors
	require.ErrorAs(t, Struct(&RegisterInput{Name: "Ann", Email: "nope", Password: "123"}), &fields)
	assert.Equal(t, "Please provide a valid email", fields["email"])
	assert.Equal(t, "password must be at least 6 characters", fields["password"])

	settings := SettingsInputFrom(models.DefaultSettings())
	assert.NoError(t, Struct(&settings))
	settings.Theme = "neon"
	assert.Error(t, Struct(&settings))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "potential entry price", humanize("potentialEntryPrice"))
	assert.Equal(t, "symbol", humanize("symbol"))
}
