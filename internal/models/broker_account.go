package models

import "time"

type Platform string

const (
	PlatformMT4 Platform = "MT4"
	PlatformMT5 Platform = "MT5"
)

type AccountStatus string

const (
	AccountConnected    AccountStatus = "connected"
	AccountDisconnected AccountStatus = "disconnected"
	AccountError        AccountStatus = "error"
)

// BrokerAccount is a MetaTrader login the journal can import trades from.
// Password is write-only: it is stored but never serialized.
type BrokerAccount struct {
	Base
	UserID        string        `gorm:"index;not null" json:"user"`
	AccountNumber string        `gorm:"not null" json:"accountNumber"`
	BrokerName    string        `gorm:"not null" json:"brokerName"`
	ServerName    string        `gorm:"not null" json:"serverName"`
	Platform      Platform      `gorm:"not null" json:"platform"`
	Password      string        `gorm:"not null" json:"-"`
	Status        AccountStatus `gorm:"default:disconnected" json:"status"`
	LastSync      *time.Time    `json:"lastSync,omitempty"`
	AutoSync      bool          `json:"autoSync"`
}

func (b *BrokerAccount) OwnerID() string { return b.UserID }
