package repository

import (
	"fmt"
	"strings"
	"time"

	"library-backend/internal/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and bounds; page numbers start at 1.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Page) Limit() int {
	return p.Normalize().PageSize
}

// Ordering is a validated sort key. Field is one of the caller's allowed
// fields, Desc comes from a leading "-".
type Ordering struct {
	Field string
	Desc  bool
}

// ParseOrdering reads "field" or "-field". An empty value yields def.
func ParseOrdering(raw string, allowed []string, def Ordering) (Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	o := Ordering{Field: raw}
	if strings.HasPrefix(raw, "-") {
		o.Desc = true
		o.Field = raw[1:]
	}
	for _, f := range allowed {
		if f == o.Field {
			return o, nil
		}
	}
	return Ordering{}, fmt.Errorf("%w: unsupported ordering %q", domain.ErrValidation, raw)
}

var (
	BookOrderings   = []string{"title", "author", "published_date", "page_count", "available_copies"}
	DefaultBookSort = Ordering{Field: "title"}

	LoanOrderings   = []string{"borrowed_on", "due_on", "returned_on"}
	DefaultLoanSort = Ordering{Field: "borrowed_on", Desc: true}
)

type BookFilter struct {
	Title           string
	Author          string
	ISBN            string
	Genre           domain.Genre
	IsAvailable     *bool
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	MinPages        *int32
	MaxPages        *int32
	Search          string
	Ordering        Ordering
	Page            Page
}

type LoanFilter struct {
	UserID   *int64
	BookID   *int64
	Statuses []domain.LoanStatus
	// Search matches username, book title or isbn.
	Search   string
	Ordering Ordering
	Page     Page
}

type UserFilter struct {
	IsActive *bool
	Page     Page
}
