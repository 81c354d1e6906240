package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type AccountModel struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"not null;index;uniqueIndex:idx_account_identity"`
	Platform          string `gorm:"not null;uniqueIndex:idx_account_identity"`
	PlatformAccountID string `gorm:"not null;uniqueIndex:idx_account_identity"`
	Name              string `gorm:"not null"`
	AccessToken       string `gorm:"type:text;not null"`
	TokenExpiresAt    *time.Time
	Active            bool      `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
}

type PostModel struct {
	ID             string         `gorm:"primaryKey"`
	AccountID      string         `gorm:"not null;index"`
	Content        string         `gorm:"type:text;not null"`
	Hashtags       datatypes.JSON `gorm:"type:jsonb"`
	ImageURL       string
	ImagePrompt    string `gorm:"type:text"`
	Status         string `gorm:"not null;index"`
	ScheduledAt    *time.Time `gorm:"index"`
	PostedAt       *time.Time
	PlatformPostID string
	ErrorMessage   string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type ImageGenerationModel struct {
	ID           string `gorm:"primaryKey"`
	Prompt       string `gorm:"type:text;not null"`
	Provider     string
	Model        string
	Status       string `gorm:"not null"`
	ImagePath    string
	ObjectKey    string
	ElapsedSecs  float64
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time
}

type ScheduleModel struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null"`
	Config      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}
