package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

type SessionType string

const (
	SessionAsian   SessionType = "ASIAN"
	SessionLondon  SessionType = "LONDON"
	SessionNewYork SessionType = "NEW_YORK"
	SessionOverlap SessionType = "OVERLAP"
	SessionOther   SessionType = "OTHER"
)

type TradeSource string

const (
	SourceManual TradeSource = "MANUAL"
	SourceMT4    TradeSource = "MT4"
	SourceMT5    TradeSource = "MT5"
)

// Trade is a closed position logged in the journal.
type Trade struct {
	Base
	UserID          string                      `gorm:"index;not null" json:"user"`
	Symbol          string                      `gorm:"index;not null" json:"symbol"`
	Direction       Direction                   `gorm:"not null" json:"direction"`
	OpenTime        time.Time                   `gorm:"index;not null" json:"openTime"`
	CloseTime       time.Time                   `gorm:"not null" json:"closeTime"`
	OpenPrice       float64                     `json:"openPrice"`
	ClosePrice      float64                     `json:"closePrice"`
	LotSize         float64                     `json:"lotSize"`
	Profit          float64                     `json:"profit"`
	Pips            float64                     `json:"pips"`
	Commission      float64                     `gorm:"default:0" json:"commission"`
	Strategy        string                      `json:"strategy,omitempty"`
	SessionType     SessionType                 `gorm:"default:OTHER" json:"sessionType"`
	RMultiple       *float64                    `json:"rMultiple,omitempty"`
	Notes           string                      `json:"notes,omitempty"`
	Images          datatypes.JSONSlice[string] `json:"images"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	Source          TradeSource                 `gorm:"default:MANUAL" json:"source"`
	BrokerAccountID *string                     `gorm:"index;type:varchar(36)" json:"brokerAccount,omitempty"`
}

func (t *Trade) OwnerID() string { return t.UserID }

// NetProfit is profit minus commission.
func (t *Trade) NetProfit() float64 {
	return t.Profit - t.Commission
}

// Result is WIN for non-negative profit, LOSS otherwise.
func (t *Trade) Result() string {
	if t.Profit >= 0 {
		return "WIN"
	}
	return "LOSS"
}

// HoldingTime renders close minus open as "<hours>h <minutes>m".
func (t *Trade) HoldingTime() string {
	diff := t.CloseTime.Sub(t.OpenTime)
	hours := int64(math.Floor(diff.Hours()))
	minutes := int64(diff/time.Minute) - hours*60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func (t *Trade) BeforeSave(tx *gorm.DB) error {
	t.OpenTime = t.OpenTime.UTC()
	t.CloseTime = t.CloseTime.UTC()
	return nil
}

// MarshalJSON adds the derived fields to the stored ones.
func (t Trade) MarshalJSON() ([]byte, error) {
	type stored Trade
	return json.Marshal(struct {
		stored
		NetProfit   float64 `json:"netProfit"`
		Result      string  `json:"result"`
		HoldingTime string  `json:"holdingTime"`
	}{
		stored:      stored(t),
		NetProfit:   t.NetProfit(),
		Result:      t.Result(),
		HoldingTime: t.HoldingTime(),
	})
}

// PipMultiplier is 100 for JPY-quoted symbols and 10000 otherwise.
func PipMultiplier(symbol string) float64 {
	if strings.Contains(strings.ToUpper(symbol), "JPY") {
		return 100
	}
	return 10000
}

// PriceMove returns the signed move from entry to exit in pips, rounded half up.
func PriceMove(symbol string, direction Direction, entry, exit float64) float64 {
	diff := exit - entry
	if direction == DirectionSell {
		diff = entry - exit
	}
	return math.Floor(diff*PipMultiplier(symbol) + 0.5)
}
