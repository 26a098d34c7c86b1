package pagination

import "math"

const (
	// DefaultPerPage is the page size when none is requested.
	DefaultPerPage = 15
	// MaxPerPage caps how many rows a single page may carry.
	MaxPerPage = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Meta describes the page that was returned.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// Normalize applies the defaults and caps.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage = NormalizePerPage(p.PerPage)
	return p
}

// Offset is the number of rows to skip for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// NormalizePerPage enforces the default and maximum page size.
func NormalizePerPage(perPage int) int {
	if perPage <= 0 {
		return DefaultPerPage
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NewMeta builds the response metadata for total rows.
func NewMeta(p Params, total int64) Meta {
	n := p.Normalize()
	last := int(math.Ceil(float64(total) / float64(n.PerPage)))
	if last < 1 {
		last = 1
	}
	return Meta{
		CurrentPage: n.Page,
		PerPage:     n.PerPage,
		Total:       total,
		LastPage:    last,
	}
}
