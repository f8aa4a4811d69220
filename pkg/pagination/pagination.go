package pagination

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are 1-based page-number pagination inputs.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps the page to 1 and the limit to [1, MaxLimit], using
// DefaultLimit when none was given.
func Normalize(p Params) Params {
	p.Page = max(p.Page, 1)
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Offset is the number of rows to skip for the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// HasMore reports whether rows exist past the current page.
func HasMore(p Params, total int64) bool {
	return int64(p.Page)*int64(p.Limit) < total
}

// Page is one page of results plus the counters clients page with.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"hasMore"`
}

// NewPage wraps items fetched with p. A nil slice is rendered as [].
func NewPage[T any](items []T, total int64, p Params) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: HasMore(p, total),
	}
}
