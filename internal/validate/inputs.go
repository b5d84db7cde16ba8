package validate

import (
	"strings"
	"time"

	"trading-journal-go/internal/models"
)

// TradeInput is the writable shape of a trade.
type TradeInput struct {
	Symbol        string             `json:"symbol" validate:"required"`
	Direction     models.Direction   `json:"direction" validate:"required,oneof=BUY SELL"`
	OpenTime      *time.Time         `json:"openTime" validate:"required"`
	CloseTime     *time.Time         `json:"closeTime" validate:"required"`
	OpenPrice     *float64           `json:"openPrice" validate:"required"`
	ClosePrice    *float64           `json:"closePrice" validate:"required"`
	LotSize       *float64           `json:"lotSize" validate:"required"`
	Profit        *float64           `json:"profit" validate:"required"`
	Pips          *float64           `json:"pips"`
	Commission    *float64           `json:"commission"`
	Strategy      string             `json:"strategy"`
	SessionType   models.SessionType `json:"sessionType" validate:"omitempty,oneof=ASIAN LONDON NEW_YORK OVERLAP OTHER"`
	RMultiple     *float64           `json:"rMultiple"`
	Notes         string             `json:"notes"`
	Images        []string           `json:"images"`
	Tags          []string           `json:"tags"`
	Source        models.TradeSource `json:"source" validate:"omitempty,oneof=MANUAL MT4 MT5"`
	BrokerAccount *string            `json:"brokerAccount"`
}

// TradeInputFrom returns the input that would reproduce t.
func TradeInputFrom(t *models.Trade) TradeInput {
	openTime, closeTime := t.OpenTime, t.CloseTime
	openPrice, closePrice := t.OpenPrice, t.ClosePrice
	lotSize, profit, pips, commission := t.LotSize, t.Profit, t.Pips, t.Commission
	return TradeInput{
		Symbol:        t.Symbol,
		Direction:     t.Direction,
		OpenTime:      &openTime,
		CloseTime:     &closeTime,
		OpenPrice:     &openPrice,
		ClosePrice:    &closePrice,
		LotSize:       &lotSize,
		Profit:        &profit,
		Pips:          &pips,
		Commission:    &commission,
		Strategy:      t.Strategy,
		SessionType:   t.SessionType,
		RMultiple:     t.RMultiple,
		Notes:         t.Notes,
		Images:        t.Images,
		Tags:          t.Tags,
		Source:        t.Source,
		BrokerAccount: t.BrokerAccountID,
	}
}

// Apply copies a validated input onto t, filling defaults and computing pips when absent or zero.
func (in *TradeInput) Apply(t *models.Trade) {
	t.Symbol = strings.TrimSpace(in.Symbol)
	t.Direction = in.Direction
	t.OpenTime = *in.OpenTime
	t.CloseTime = *in.CloseTime
	t.OpenPrice = *in.OpenPrice
	t.ClosePrice = *in.ClosePrice
	t.LotSize = *in.LotSize
	t.Profit = *in.Profit
	// Zero counts as unset.
	if in.Pips != nil && *in.Pips != 0 {
		t.Pips = *in.Pips
	} else {
		t.Pips = models.PriceMove(t.Symbol, t.Direction, t.OpenPrice, t.ClosePrice)
	}
	t.Commission = 0
	if in.Commission != nil {
		t.Commission = *in.Commission
	}
	t.Strategy = strings.TrimSpace(in.Strategy)
	t.SessionType = in.SessionType
	if t.SessionType == "" {
		t.SessionType = models.SessionOther
	}
	t.RMultiple = in.RMultiple
	t.Notes = in.Notes
	t.Images = in.Images
	t.Tags = in.Tags
	t.Source = in.Source
	if t.Source == "" {
		t.Source = models.SourceManual
	}
	t.BrokerAccountID = in.BrokerAccount
}

// MissedTradeInput is the writable shape of a missed trade.
type MissedTradeInput struct {
	Symbol              string           `json:"symbol" validate:"required"`
	Direction           models.Direction `json:"direction" validate:"required,oneof=BUY SELL"`
	Date                *time.Time       `json:"date"`
	PotentialEntryPrice *float64         `json:"potentialEntryPrice" validate:"required"`
	PotentialExitPrice  *float64         `json:"potentialExitPrice" validate:"required"`
	EstimatedProfit     *float64         `json:"estimatedProfit"`
	Reason              string           `json:"reason" validate:"required,missedreason"`
	Notes               string           `json:"notes"`
}

func MissedTradeInputFrom(m *models.MissedTrade) MissedTradeInput {
	date := m.Date
	entry, exit, profit := m.PotentialEntryPrice, m.PotentialExitPrice, m.EstimatedProfit
	return MissedTradeInput{
		Symbol:              m.Symbol,
		Direction:           m.Direction,
		Date:                &date,
		PotentialEntryPrice: &entry,
		PotentialExitPrice:  &exit,
		EstimatedProfit:     &profit,
		Reason:              m.Reason,
		Notes:               m.Notes,
	}
}

// Apply copies a validated input onto m. A missing date means now; a missing or zero
// estimated profit is derived from the potential prices with the pip rule.
func (in *MissedTradeInput) Apply(m *models.MissedTrade, now time.Time) {
	m.Symbol = strings.TrimSpace(in.Symbol)
	m.Direction = in.Direction
	m.Date = now
	if in.Date != nil {
		m.Date = *in.Date
	}
	m.PotentialEntryPrice = *in.PotentialEntryPrice
	m.PotentialExitPrice = *in.PotentialExitPrice
	if in.EstimatedProfit != nil && *in.EstimatedProfit != 0 {
		m.EstimatedProfit = *in.EstimatedProfit
	} else {
		m.EstimatedProfit = models.PriceMove(m.Symbol, m.Direction, m.PotentialEntryPrice, m.PotentialExitPrice)
	}
	m.Reason = in.Reason
	m.Notes = in.Notes
}

// BrokerAccountInput is the writable shape of a broker account.
type BrokerAccountInput struct {
	AccountNumber string               `json:"accountNumber" validate:"required"`
	BrokerName    string               `json:"brokerName" validate:"required"`
	ServerName    string               `json:"serverName" validate:"required"`
	Platform      models.Platform      `json:"platform" validate:"required,oneof=MT4 MT5"`
	Password      string               `json:"password" validate:"required"`
	Status        models.AccountStatus `json:"status" validate:"omitempty,oneof=connected disconnected error"`
	AutoSync      *bool                `json:"autoSync"`
}

func BrokerAccountInputFrom(b *models.BrokerAccount) BrokerAccountInput {
	autoSync := b.AutoSync
	return BrokerAccountInput{
		AccountNumber: b.AccountNumber,
		BrokerName:    b.BrokerName,
		ServerName:    b.ServerName,
		Platform:      b.Platform,
		Password:      b.Password,
		Status:        b.Status,
		AutoSync:      &autoSync,
	}
}

func (in *BrokerAccountInput) Apply(b *models.BrokerAccount) {
	b.AccountNumber = strings.TrimSpace(in.AccountNumber)
	b.BrokerName = strings.TrimSpace(in.BrokerName)
	b.ServerName = strings.TrimSpace(in.ServerName)
	b.Platform = in.Platform
	b.Password = in.Password
	b.Status = in.Status
	if b.Status == "" {
		b.Status = models.AccountDisconnected
	}
	b.AutoSync = true
	if in.AutoSync != nil {
		b.AutoSync = *in.AutoSync
	}
}
