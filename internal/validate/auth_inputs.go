package validate

import "trading-journal-go/internal/models"

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateDetailsInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// SettingsInput mirrors models.Settings with its rules.
type SettingsInput struct {
	Theme                    string `json:"theme" validate:"required,oneof=light dark"`
	CompactView              bool   `json:"compactView"`
	ShowProfitInHeader       bool   `json:"showProfitInHeader"`
	Timezone                 string `json:"timezone"`
	EmailNotifications       bool   `json:"emailNotifications"`
	TradeImportNotifications bool   `json:"tradeImportNotifications"`
	PerformanceReports       bool   `json:"performanceReports"`
}

func SettingsInputFrom(s models.Settings) SettingsInput {
	return SettingsInput(s)
}

func (in SettingsInput) Settings() models.Settings {
	return models.Settings(in)
}
