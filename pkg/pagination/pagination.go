package pagination

import (
	"errors"
	"net/url"
	"strconv"
)

// Page size limits for list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

var (
	ErrInvalidPage    = errors.New("page must be a valid positive integer")
	ErrInvalidPerPage = errors.New("per_page must be a valid integer between 1 and 100")
)

// Params is a requested page of a list. Page is 1-based.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Parse reads page and per_page from a query string. Missing values take the
// defaults; present values must be in range.
func Parse(q url.Values) (Params, error) {
	p := DefaultParams()

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return p, ErrInvalidPage
		}
		p.Page = page
	}

	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > MaxPerPage {
			return p, ErrInvalidPerPage
		}
		p.PerPage = perPage
	}

	return p, nil
}

// Clamp replaces a non-positive page with 1 and pulls PerPage into
// [1, MaxPerPage], using DefaultPerPage when it is unset.
func (p Params) Clamp() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage <= 0:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset is the number of rows skipped before the page.
func (p Params) Offset() int {
	p = p.Clamp()
	return (p.Page - 1) * p.PerPage
}

// TotalPages returns how many pages of perPage items hold total items.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
