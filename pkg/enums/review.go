package enums

import (
	"slices"
	"strings"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusPublished ReviewStatus = "published"
	ReviewStatusFlagged   ReviewStatus = "flagged"
	ReviewStatusRemoved   ReviewStatus = "removed"
)

var reviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusPublished,
	ReviewStatusFlagged,
	ReviewStatusRemoved,
}

func (s ReviewStatus) String() string { return string(s) }

func (s ReviewStatus) IsValid() bool { return slices.Contains(reviewStatuses, s) }

func ParseReviewStatus(value string) (ReviewStatus, error) {
	return parse("review status", value, reviewStatuses)
}

// ReviewTargetType discriminates which profile a review is about.
type ReviewTargetType string

const (
	ReviewTargetArtist ReviewTargetType = "artist"
	ReviewTargetVenue  ReviewTargetType = "venue"
)

var reviewTargetTypes = []ReviewTargetType{ReviewTargetArtist, ReviewTargetVenue}

func (t ReviewTargetType) String() string { return string(t) }

func (t ReviewTargetType) IsValid() bool { return slices.Contains(reviewTargetTypes, t) }

// ParseReviewTargetType ignores case and surrounding whitespace.
func ParseReviewTargetType(value string) (ReviewTargetType, error) {
	return parse("review target type", strings.ToLower(strings.TrimSpace(value)), reviewTargetTypes)
}

// ReviewerRole is the side of the booking the reviewer was on.
type ReviewerRole string

const (
	ReviewerRoleArtist ReviewerRole = "artist"
	ReviewerRoleVenue  ReviewerRole = "venue"
)

func (r ReviewerRole) String() string { return string(r) }

// ReviewSort orders review listings.
type ReviewSort string

const (
	ReviewSortNewest  ReviewSort = "newest"
	ReviewSortOldest  ReviewSort = "oldest"
	ReviewSortHighest ReviewSort = "highest"
	ReviewSortLowest  ReviewSort = "lowest"
	ReviewSortHelpful ReviewSort = "helpful"
)

// ReviewSorts lists the accepted sort values in display order.
var ReviewSorts = []ReviewSort{
	ReviewSortNewest,
	ReviewSortOldest,
	ReviewSortHighest,
	ReviewSortLowest,
	ReviewSortHelpful,
}

func (s ReviewSort) IsValid() bool { return slices.Contains(ReviewSorts, s) }

// ParseReviewSort defaults an empty value to newest.
func ParseReviewSort(value string) (ReviewSort, error) {
	if value == "" {
		return ReviewSortNewest, nil
	}
	return parse("review sort", value, ReviewSorts)
}
