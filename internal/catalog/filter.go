package catalog

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type SortOrder string

const (
	SortRecent    SortOrder = "recent"
	SortPriceLow  SortOrder = "price_low"
	SortPriceHigh SortOrder = "price_high"
	SortPopular   SortOrder = "popular"
)

const (
	DefaultLimit = 10
	// MaxPrice is the open-ended upper bound when maxPrice is absent.
	MaxPrice = 10_000_000
)

// Filter is the typed, immutable view over the feed query parameters.
// It is coerced once at the HTTP boundary and passed by value into the
// query builder; malformed numerics degrade to defaults instead of
// failing the request.
type Filter struct {
	Search    string
	Category  string
	Condition string
	Tags      []string
	MinPrice  float64
	MaxPrice  float64
	SortBy    SortOrder
	Page      int
	Limit     int
}

// ParseFilter coerces raw query parameters into a Filter.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		Search:    strings.TrimSpace(q.Get("search")),
		Category:  strings.TrimSpace(q.Get("category")),
		Condition: strings.TrimSpace(q.Get("condition")),
		Tags:      NormalizeTags(q.Get("tags")),
		MinPrice:  parseFloat(q.Get("minPrice"), 0),
		MaxPrice:  parseFloat(q.Get("maxPrice"), MaxPrice),
		SortBy:    parseSort(q.Get("sortBy")),
		Page:      parsePositiveInt(q.Get("page"), 1),
		Limit:     parsePositiveInt(q.Get("limit"), DefaultLimit),
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice < f.MinPrice {
		f.MaxPrice = MaxPrice
	}
	return f
}

// NormalizeTags splits a comma-separated tag list, trims and lowercases
// each entry, and drops empties. Stored tags use the same normalization
// so overlap matching is case-insensitive.
func NormalizeTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Apply narrows db with every supplied predicate; filters are
// conjunctive.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		db = db.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Condition != "" {
		db = db.Where("condition = ?", f.Condition)
	}
	if len(f.Tags) > 0 {
		db = db.Where("tags && ?", pq.Array(f.Tags))
	}
	db = db.Where("price >= ?", f.MinPrice).Where("price <= ?", f.MaxPrice)
	return db
}

// OrderClause maps the sort order to SQL. "popular" falls back to
// recency: no popularity metric is tracked.
func (f Filter) OrderClause() string {
	switch f.SortBy {
	case SortPriceLow:
		return "price ASC"
	case SortPriceHigh:
		return "price DESC"
	default:
		return "created_at DESC"
	}
}

// Offset implements standard offset pagination.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes one page of a result set.
type Pagination struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Pages   int   `json:"pages"`
	HasMore bool  `json:"hasMore"`
}

// NewPagination computes pages = ceil(total/limit) and
// hasMore = page < pages.
func NewPagination(total int64, page, limit int) Pagination {
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   pages,
		HasMore: page < pages,
	}
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func parseSort(s string) SortOrder {
	switch SortOrder(s) {
	case SortPriceLow, SortPriceHigh, SortPopular, SortRecent:
		return SortOrder(s)
	default:
		return SortRecent
	}
}
