package models

import (
	"time"

	"gorm.io/gorm"
)

// Reasons a trade opportunity was not taken.
var MissedReasons = []string{
	"Hesitation",
	"Lack of Confidence",
	"Away From Computer",
	"Missed Signal",
	"Risk Management",
	"Technical Issues",
	"Other",
}

// MissedTrade records an opportunity that was seen but not traded.
type MissedTrade struct {
	Base
	UserID              string    `gorm:"index;not null" json:"user"`
	Symbol              string    `gorm:"not null" json:"symbol"`
	Direction           Direction `gorm:"not null" json:"direction"`
	Date                time.Time `gorm:"index;not null" json:"date"`
	PotentialEntryPrice float64   `json:"potentialEntryPrice"`
	PotentialExitPrice  float64   `json:"potentialExitPrice"`
	EstimatedProfit     float64   `json:"estimatedProfit"`
	Reason              string    `gorm:"not null" json:"reason"`
	Notes               string    `json:"notes,omitempty"`
}

func (m *MissedTrade) OwnerID() string { return m.UserID }

func (m *MissedTrade) BeforeSave(tx *gorm.DB) error {
	m.Date = m.Date.UTC()
	return nil
}
