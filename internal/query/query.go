// Package query implements the listing engine for contact collections:
// search, sort, and pagination as a pure function over a candidate set.
// Production code and tests share these rules; nothing is hidden in an ORM
// query filter.
package query

import (
	"sort"
	"strings"
	"time"

	"contactvault/internal/model"
)

const (
	// DefaultPageSize applies when the requested size is below 1.
	DefaultPageSize = 10
	// MaxPageSize caps the requested size.
	MaxPageSize = 100
)

// Sort keys accepted by Params.SortBy. Anything else falls back to SortByName.
const (
	SortByName      = "name"
	SortByBirthDate = "birthdate"
	SortByEmail     = "email"
	SortByCreatedAt = "createdat"
)

// Params captures a listing request before normalization.
type Params struct {
	Page           int
	PageSize       int
	SortBy         string
	SortDescending bool
	Search         string
}

// Normalize clamps paging values and resolves the sort key. The result is
// what actually ran, and is echoed back in the paged result.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	switch strings.ToLower(p.SortBy) {
	case SortByBirthDate:
		p.SortBy = SortByBirthDate
	case SortByEmail:
		p.SortBy = SortByEmail
	case SortByCreatedAt:
		p.SortBy = SortByCreatedAt
	default:
		p.SortBy = SortByName
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

// Offset returns the number of items skipped before this page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PagedResult is one page of a listing plus its paging metadata.
type PagedResult struct {
	Items           []model.Contact `json:"items"`
	TotalCount      int             `json:"totalCount"`
	Page            int             `json:"page"`
	PageSize        int             `json:"pageSize"`
	TotalPages      int             `json:"totalPages"`
	HasNextPage     bool            `json:"hasNextPage"`
	HasPreviousPage bool            `json:"hasPreviousPage"`
}

// Apply runs the full listing pipeline over the candidate set: search filter,
// total count, stable sort, then offset/limit. The input slice is not
// modified.
func Apply(contacts []model.Contact, p Params) PagedResult {
	p = p.Normalize()

	filtered := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if matches(c, p.Search) {
			filtered = append(filtered, c)
		}
	}

	total := len(filtered)
	sortContacts(filtered, p.SortBy, p.SortDescending)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}

	return PagedResult{
		Items:           filtered[start:end],
		TotalCount:      total,
		Page:            p.Page,
		PageSize:        p.PageSize,
		TotalPages:      totalPages,
		HasNextPage:     p.Page < totalPages,
		HasPreviousPage: p.Page > 1 && total > 0,
	}
}

// matches reports a case-insensitive substring hit in any searchable field.
// An empty term matches everything.
func matches(c model.Contact, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.PhoneNumber} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortContacts(contacts []model.Contact, sortBy string, descending bool) {
	sort.SliceStable(contacts, func(i, j int) bool {
		cmp := compareBy(contacts[i], contacts[j], sortBy)
		if descending {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		// Deterministic tie-break, always ascending by name.
		return compareName(contacts[i], contacts[j]) < 0
	})
}

func compareBy(a, b model.Contact, sortBy string) int {
	switch sortBy {
	case SortByBirthDate:
		return compareTime(a.BirthDate, b.BirthDate)
	case SortByEmail:
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case SortByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	default:
		return compareName(a, b)
	}
}

// compareName orders by (lastName, firstName), case-insensitively.
func compareName(a, b model.Contact) int {
	if cmp := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); cmp != 0 {
		return cmp
	}
	return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
}

// compareTime treats a missing date as the zero time, so contacts without a
// birth date group together at the low end.
func compareTime(a, b *time.Time) int {
	av, bv := time.Time{}, time.Time{}
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av.Compare(bv)
}
