package models

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID            uint      `gorm:"primaryKey"`
	UID           string    `gorm:"column:uid;uniqueIndex;not null"`
	Email         string    `gorm:"uniqueIndex;not null"`
	DisplayName   string    `gorm:"not null;default:''"`
	PhotoURL      string    `gorm:"column:photo_url;not null;default:''"`
	PasswordHash  string    `gorm:"not null;default:''"`
	GoogleSubject *string   `gorm:"column:google_subject;uniqueIndex"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time
}

// UserProfile is the document kept at users/{uid}.
type UserProfile struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	Email       string  `json:"email"`
	PhotoURL    *string `json:"photoURL"`
}
