package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncStatus string

const (
	SyncInProgress SyncStatus = "in_progress"
	SyncSuccess    SyncStatus = "success"
	SyncError      SyncStatus = "error"
)

// SyncHistory is the append-only log of synchronization attempts for an account.
type SyncHistory struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string     `gorm:"index;not null" json:"user"`
	BrokerAccountID string     `gorm:"index;not null;type:varchar(36)" json:"brokerAccount"`
	AccountNumber   string     `gorm:"not null" json:"accountNumber"`
	Timestamp       time.Time  `gorm:"index" json:"timestamp"`
	Status          SyncStatus `gorm:"index;default:in_progress" json:"status"`
	TradesImported  int        `gorm:"default:0" json:"tradesImported"`
	Message         string     `json:"message"`
}

func (s *SyncHistory) OwnerID() string { return s.UserID }

func (s *SyncHistory) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	return nil
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// SyncJob is the durable queue entry that drives one SyncHistory row to a terminal state.
type SyncJob struct {
	Base
	SyncHistoryID   string     `gorm:"uniqueIndex;not null;type:varchar(36)"`
	BrokerAccountID string     `gorm:"index;not null;type:varchar(36)"`
	UserID          string     `gorm:"not null"`
	Status          JobStatus  `gorm:"index;not null"`
	Attempts        int        `gorm:"default:0"`
	AvailableAt     time.Time  `gorm:"index;not null"`
	LockedUntil     *time.Time `gorm:"index"`
	LastError       string
}

// All lists every model for migration.
func All() []any {
	return []any{
		&User{},
		&Trade{},
		&MissedTrade{},
		&BrokerAccount{},
		&SyncHistory{},
		&SyncJob{},
	}
}
