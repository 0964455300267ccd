// Package query extracts list parameters from request URLs.
//
// Parsing never fails: malformed or out-of-range values fall back to
// their defaults, and keys outside the allowlist are ignored.
package query

import (
	"errors"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Order is a sort direction
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Allowlist names the filter keys and sort fields a route accepts
type Allowlist struct {
	Filters    []string
	SortFields []string
}

// Params are the parsed list parameters of one request
type Params struct {
	Limit     int
	Offset    int
	Order     Order
	SortField string
	Filters   map[string]string
}

// Parse extracts list parameters from the query string
func Parse(values url.Values, allow Allowlist) Params {
	p := Params{
		Limit:   DefaultLimit,
		Offset:  0,
		Order:   Desc,
		Filters: make(map[string]string),
	}

	if n, ok := parseCount(values.Get("limit")); ok && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	if n, ok := parseCount(values.Get("offset")); ok && n >= 0 {
		p.Offset = n
	}

	if o, ok := parseOrder(values.Get("order")); ok {
		p.Order = o
	}
	sort := strings.TrimSpace(values.Get("sort"))
	if o, ok := parseOrder(sort); ok {
		// an explicit order wins over a direction given in sort
		if values.Get("order") == "" {
			p.Order = o
		}
	} else if slices.Contains(allow.SortFields, sort) {
		p.SortField = sort
	}

	for _, key := range allow.Filters {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			p.Filters[key] = v
		}
	}
	return p
}

// parseCount parses a decimal integer. Values too large for an int
// saturate at math.MaxInt; negative overflow is rejected.
func parseCount(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err == nil {
		return n, true
	}
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt, true
	}
	return 0, false
}

func parseOrder(s string) (Order, bool) {
	switch Order(strings.ToLower(strings.TrimSpace(s))) {
	case Asc:
		return Asc, true
	case Desc:
		return Desc, true
	}
	return "", false
}

// Get returns a filter value or the empty string
func (p Params) Get(key string) string {
	return p.Filters[key]
}

// Int64 returns a filter as an integer, or 0 when absent or malformed
func (p Params) Int64(key string) int64 {
	n, err := strconv.ParseInt(p.Filters[key], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Float returns a filter as a float, or def when absent or malformed
func (p Params) Float(key string, def float64) float64 {
	v, ok := p.Filters[key]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Page is one window of a sorted result set
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Paginate sorts items in place by p's field and order, then slices the
// window [offset, offset+limit). compare orders a before b ascending; an
// empty field selects the resource's default sort key.
func Paginate[T any](items []T, p Params, compare func(a, b T, field string) int) Page[T] {
	if compare != nil {
		slices.SortStableFunc(items, func(a, b T) int {
			c := compare(a, b, p.SortField)
			if p.Order == Desc {
				return -c
			}
			return c
		})
	}

	total := len(items)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)

	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items:   window,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: end < total,
	}
}
