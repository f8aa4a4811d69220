package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/gigbook-backend/pkg/db/types"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
)

// Gig is a booking slot posted by a venue. BookedArtistIDs keeps booking order.
type Gig struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	VenueID         uuid.UUID         `gorm:"column:venue_id;type:uuid;not null;index"`
	Title           string            `gorm:"column:title;not null"`
	Date            time.Time         `gorm:"column:date;not null"`
	Status          enums.GigStatus   `gorm:"column:status;type:gig_status;not null;default:'draft'"`
	BookedArtistIDs dbtypes.UUIDArray `gorm:"type:uuid[];column:booked_artist_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
