package models

// Settings holds per-user preferences shown on the settings page.
type Settings struct {
	Theme                    string `json:"theme"`
	CompactView              bool   `json:"compactView"`
	ShowProfitInHeader       bool   `json:"showProfitInHeader"`
	Timezone                 string `json:"timezone"`
	EmailNotifications       bool   `json:"emailNotifications"`
	TradeImportNotifications bool   `json:"tradeImportNotifications"`
	PerformanceReports       bool   `json:"performanceReports"`
}

// DefaultSettings are applied at registration.
func DefaultSettings() Settings {
	return Settings{
		Theme:                    "light",
		ShowProfitInHeader:       true,
		Timezone:                 "UTC+0",
		EmailNotifications:       true,
		TradeImportNotifications: true,
		PerformanceReports:       true,
	}
}

// User is an account holder; it owns every other entity by reference.
type User struct {
	Base
	Name         string   `gorm:"not null" json:"name"`
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         string   `gorm:"default:user" json:"role"`
	Settings     Settings `gorm:"serializer:json" json:"settings"`
}
