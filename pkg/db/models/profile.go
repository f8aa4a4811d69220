package models

import (
	"time"

	"github.com/google/uuid"
)

// Artist is a performer profile owned by a user.
type Artist struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name             string    `gorm:"column:name;not null"`
	AverageRating    float64   `gorm:"column:average_rating;not null;default:0"`
	TotalReviews     int       `gorm:"column:total_reviews;not null;default:0"`
	ReliabilityScore float64   `gorm:"column:reliability_score;not null;default:100"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Venue is a hosting location profile owned by a user.
type Venue struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	AverageRating float64   `gorm:"column:average_rating;not null;default:0"`
	TotalReviews  int       `gorm:"column:total_reviews;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
