package enums

import "slices"

// GigStatus tracks a gig from listing to completion. Only completed gigs can
// be reviewed.
type GigStatus string

const (
	GigStatusDraft     GigStatus = "draft"
	GigStatusOpen      GigStatus = "open"
	GigStatusBooked    GigStatus = "booked"
	GigStatusCompleted GigStatus = "completed"
	GigStatusCanceled  GigStatus = "canceled"
)

var gigStatuses = []GigStatus{
	GigStatusDraft,
	GigStatusOpen,
	GigStatusBooked,
	GigStatusCompleted,
	GigStatusCanceled,
}

func (s GigStatus) String() string { return string(s) }

func (s GigStatus) IsValid() bool { return slices.Contains(gigStatuses, s) }

func ParseGigStatus(value string) (GigStatus, error) {
	return parse("gig status", value, gigStatuses)
}
