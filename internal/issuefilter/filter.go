// Package issuefilter filters and paginates community issues in memory.
package issuefilter

import (
	"sort"
	"strings"
)

const (
	// PageSize is the number of issues shown per page
	PageSize = 6

	// All matches every category or status
	All = "all"

	// DefaultStatus is assumed for issues that carry no status
	DefaultStatus = "ongoing"
)

// Item is the searchable projection of an issue
type Item struct {
	Title       string
	Location    string
	Description string
	Category    string
	Status      string
}

// Filter selects issues. Empty fields behave like "all".
type Filter struct {
	Category string `form:"category" json:"category"`
	Status   string `form:"status" json:"status"`
	Search   string `form:"search" json:"search"`
}

// Normalized folds every field and replaces empty category/status with the wildcard
func (f Filter) Normalized() Filter {
	out := Filter{
		Category: norm(f.Category),
		Status:   norm(f.Status),
		Search:   norm(f.Search),
	}
	if out.Category == "" {
		out.Category = All
	}
	if out.Status == "" {
		out.Status = All
	}
	return out
}

// Match reports whether item passes the filter
func (f Filter) Match(it Item) bool {
	f = f.Normalized()

	if f.Category != All && norm(it.Category) != f.Category {
		return false
	}

	st := norm(it.Status)
	if st == "" {
		st = DefaultStatus
	}
	if f.Status != All && st != f.Status {
		return false
	}

	if f.Search == "" {
		return true
	}
	haystack := strings.Join([]string{
		norm(it.Title),
		norm(it.Location),
		norm(it.Description),
		norm(it.Category),
		norm(it.Status),
	}, " ")
	return strings.Contains(haystack, f.Search)
}

// Page is one page of filtered results
type Page[T any] struct {
	Items         []T `json:"items"`
	Page          int `json:"page"`
	TotalPages    int `json:"totalPages"`
	FilteredCount int `json:"filteredCount"`
	TotalCount    int `json:"totalCount"`
}

// Apply filters items and returns the requested 1-based page.
// A page past the end yields no items rather than an error.
func Apply[T any](items []T, project func(T) Item, f Filter, page int) Page[T] {
	filtered := make([]T, 0, len(items))
	for _, it := range items {
		if f.Match(project(it)) {
			filtered = append(filtered, it)
		}
	}

	if page < 1 {
		page = 1
	}
	out := Page[T]{
		Items:         []T{},
		Page:          page,
		TotalPages:    TotalPages(len(filtered)),
		FilteredCount: len(filtered),
		TotalCount:    len(items),
	}

	start := (page - 1) * PageSize
	if start >= len(filtered) {
		return out
	}
	end := start + PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	out.Items = filtered[start:end]
	return out
}

// TotalPages is ceil(n / PageSize), never less than 1
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Category is a filter option: Value is the folded key, Label the first spelling seen
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories returns the case-insensitive unique categories sorted by label,
// prefixed by the "all" option.
func Categories(categories []string) []Category {
	seen := make(map[string]string)
	for _, c := range categories {
		key := norm(c)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = strings.TrimSpace(c)
		}
	}

	out := make([]Category, 0, len(seen))
	for value, label := range seen {
		out = append(out, Category{Value: value, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Label) < strings.ToLower(out[j].Label)
	})
	return append([]Category{{Value: All, Label: "All"}}, out...)
}

// View holds the filter and the current page of a list screen.
// Any filter change sends the view back to page 1.
type View struct {
	filter Filter
	page   int
}

func NewView() *View {
	return &View{filter: Filter{Category: All, Status: All}, page: 1}
}

func (v *View) Filter() Filter { return v.filter }
func (v *View) Page() int      { return v.page }

// SetFilter replaces the filter; the page resets to 1 when anything changed
func (v *View) SetFilter(f Filter) {
	if f.Normalized() != v.filter.Normalized() {
		v.page = 1
	}
	v.filter = f
}

func (v *View) SetCategory(c string) { v.SetFilter(Filter{Category: c, Status: v.filter.Status, Search: v.filter.Search}) }
func (v *View) SetStatus(s string)   { v.SetFilter(Filter{Category: v.filter.Category, Status: s, Search: v.filter.Search}) }
func (v *View) SetSearch(q string)   { v.SetFilter(Filter{Category: v.filter.Category, Status: v.filter.Status, Search: q}) }

// Reset clears every filter and returns to page 1
func (v *View) Reset() {
	v.filter = Filter{Category: All, Status: All}
	v.page = 1
}

// GoTo moves to page p, clamped to [1, totalPages]
func (v *View) GoTo(p, totalPages int) {
	if totalPages < 1 {
		totalPages = 1
	}
	switch {
	case p < 1:
		p = 1
	case p > totalPages:
		p = totalPages
	}
	v.page = p
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
