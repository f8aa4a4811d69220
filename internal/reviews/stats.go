package reviews

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
)

const topTagLimit = 10

// defaultReliabilityScore applies to artists without reliability ratings.
const defaultReliabilityScore = 100

// Stats summarizes the published reviews of one profile.
type Stats struct {
	AverageRating      float64          `json:"averageRating"`
	TotalReviews       int              `json:"totalReviews"`
	RatingDistribution map[int]int      `json:"ratingDistribution"`
	CategoryAverages   CategoryAverages `json:"categoryAverages"`
	TopTags            []TagCount       `json:"topTags"`
}

// CategoryAverages holds per-category means. A nil field means no review
// carried that category.
type CategoryAverages struct {
	Performance     *float64 `json:"performance,omitempty"`
	Professionalism *float64 `json:"professionalism,omitempty"`
	Reliability     *float64 `json:"reliability,omitempty"`
	VenueQuality    *float64 `json:"venueQuality,omitempty"`
	Payment         *float64 `json:"payment,omitempty"`
}

// TagCount is a tag with its frequency.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// EmptyStats is the result for a profile with no published reviews.
func EmptyStats() Stats {
	return Stats{
		RatingDistribution: emptyDistribution(),
		TopTags:            []TagCount{},
	}
}

func emptyDistribution() map[int]int {
	return map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
}

// Aggregate reduces reviews into Stats. Callers pass only published reviews.
func Aggregate(reviews []models.Review) Stats {
	stats := EmptyStats()
	if len(reviews) == 0 {
		return stats
	}

	var overall int64
	var performance, professionalism, reliability, venueQuality, payment categoryMean
	tagCounts := map[string]int{}
	tagOrder := []string{}

	for _, review := range reviews {
		overall += int64(review.OverallRating)
		if review.OverallRating >= 1 && review.OverallRating <= 5 {
			stats.RatingDistribution[review.OverallRating]++
		}
		performance.add(review.PerformanceRating)
		professionalism.add(review.ProfessionalismRating)
		reliability.add(review.ReliabilityRating)
		venueQuality.add(review.VenueQualityRating)
		payment.add(review.PaymentRating)

		for _, tag := range review.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			if _, seen := tagCounts[tag]; !seen {
				tagOrder = append(tagOrder, tag)
			}
			tagCounts[tag]++
		}
	}

	stats.TotalReviews = len(reviews)
	stats.AverageRating = roundedMean(overall, int64(len(reviews)))
	stats.CategoryAverages = CategoryAverages{
		Performance:     performance.value(),
		Professionalism: professionalism.value(),
		Reliability:     reliability.value(),
		VenueQuality:    venueQuality.value(),
		Payment:         payment.value(),
	}

	tags := make([]TagCount, 0, len(tagOrder))
	for _, tag := range tagOrder {
		tags = append(tags, TagCount{Tag: tag, Count: tagCounts[tag]})
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Count > tags[j].Count })
	if len(tags) > topTagLimit {
		tags = tags[:topTagLimit]
	}
	stats.TopTags = tags
	return stats
}

// ReliabilityScore scales the reliability mean (1-5) to 0-100.
func ReliabilityScore(stats Stats) float64 {
	if stats.CategoryAverages.Reliability == nil {
		return defaultReliabilityScore
	}
	score, _ := decimal.NewFromFloat(*stats.CategoryAverages.Reliability).
		Mul(decimal.NewFromInt(20)).
		Round(1).
		Float64()
	return score
}

type categoryMean struct {
	sum   int64
	count int64
}

func (c *categoryMean) add(rating *int) {
	if rating == nil {
		return
	}
	c.sum += int64(*rating)
	c.count++
}

func (c categoryMean) value() *float64 {
	if c.count == 0 {
		return nil
	}
	v := roundedMean(c.sum, c.count)
	return &v
}

// roundedMean divides exactly and rounds half away from zero to one decimal.
func roundedMean(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	mean, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1).Float64()
	return mean
}
