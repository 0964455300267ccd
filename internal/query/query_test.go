package query

import (
	"cmp"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var thingAllow = Allowlist{
	Filters:    []string{"type", "groupId", "status", "search"},
	SortFields: []string{"name", "createdAt"},
}

func TestParseDefaults(t *testing.T) {
	p := Parse(url.Values{}, thingAllow)

	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, Desc, p.Order)
	assert.Empty(t, p.SortField)
	assert.Empty(t, p.Filters)
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"10", 10},
		{"1000", 1000},
		{"1001", 1000},
		{"999999", 1000},
		{"99999999999999999999", 1000},
		{"-99999999999999999999", DefaultLimit},
		{"0", DefaultLimit},
		{"-5", DefaultLimit},
		{"abc", DefaultLimit},
		{"", DefaultLimit},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := Parse(url.Values{"limit": {tt.raw}}, thingAllow)
			assert.Equal(t, tt.want, p.Limit)
		})
	}
}

func TestParseOffset(t *testing.T) {
	assert.Equal(t, 20, Parse(url.Values{"offset": {"20"}}, thingAllow).Offset)
	assert.Equal(t, 0, Parse(url.Values{"offset": {"-1"}}, thingAllow).Offset)
	assert.Equal(t, 0, Parse(url.Values{"offset": {"x"}}, thingAllow).Offset)
	assert.Equal(t, 0, Parse(url.Values{"offset": {"-99999999999999999999"}}, thingAllow).Offset)

	p := Parse(url.Values{"offset": {"99999999999999999999"}}, thingAllow)
	assert.Equal(t, math.MaxInt, p.Offset)
	page := Paginate([]int{1, 2, 3}, p, byValue)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
	assert.False(t, page.HasMore)
}

func TestParseSortAndOrder(t *testing.T) {
	t.Run("sort as direction", func(t *testing.T) {
		p := Parse(url.Values{"sort": {"asc"}}, thingAllow)
		assert.Equal(t, Asc, p.Order)
		assert.Empty(t, p.SortField)
	})

	t.Run("sort as field with order", func(t *testing.T) {
		p := Parse(url.Values{"sort": {"name"}, "order": {"ASC"}}, thingAllow)
		assert.Equal(t, Asc, p.Order)
		assert.Equal(t, "name", p.SortField)
	})

	t.Run("unknown sort field ignored", func(t *testing.T) {
		p := Parse(url.Values{"sort": {"password"}}, thingAllow)
		assert.Empty(t, p.SortField)
		assert.Equal(t, Desc, p.Order)
	})

	t.Run("invalid order falls back", func(t *testing.T) {
		p := Parse(url.Values{"order": {"sideways"}}, thingAllow)
		assert.Equal(t, Desc, p.Order)
	})

	t.Run("order wins over sort direction", func(t *testing.T) {
		p := Parse(url.Values{"sort": {"asc"}, "order": {"desc"}}, thingAllow)
		assert.Equal(t, Desc, p.Order)
	})
}

func TestParseFilters(t *testing.T) {
	p := Parse(url.Values{
		"type":    {" course "},
		"groupId": {"g1"},
		"status":  {""},
		"secret":  {"nope"},
	}, thingAllow)

	assert.Equal(t, map[string]string{"type": "course", "groupId": "g1"}, p.Filters)
	assert.Equal(t, "course", p.Get("type"))
}

func TestNumericFilters(t *testing.T) {
	p := Parse(url.Values{"since": {"1700"}, "until": {"later"}, "threshold": {"0.8"}},
		Allowlist{Filters: []string{"since", "until", "threshold"}})

	assert.Equal(t, int64(1700), p.Int64("since"))
	assert.Equal(t, int64(0), p.Int64("until"))
	assert.Equal(t, 0.8, p.Float("threshold", 0.5))
	assert.Equal(t, 0.5, p.Float("missing", 0.5))
}

func byValue(a, b int, _ string) int { return cmp.Compare(a, b) }

func TestPaginate(t *testing.T) {
	t.Run("ascending window", func(t *testing.T) {
		items := []int{5, 3, 1, 4, 2}
		page := Paginate(items, Params{Limit: 2, Offset: 0, Order: Asc}, byValue)

		assert.Equal(t, []int{1, 2}, page.Items)
		assert.Equal(t, 5, page.Total)
		assert.True(t, page.HasMore)
	})

	t.Run("descending with offset", func(t *testing.T) {
		items := []int{5, 3, 1, 4, 2}
		page := Paginate(items, Params{Limit: 2, Offset: 2, Order: Desc}, byValue)

		assert.Equal(t, []int{3, 2}, page.Items)
		assert.True(t, page.HasMore)
	})

	t.Run("last page", func(t *testing.T) {
		page := Paginate([]int{1, 2, 3}, Params{Limit: 2, Offset: 2, Order: Asc}, byValue)
		assert.Equal(t, []int{3}, page.Items)
		assert.False(t, page.HasMore)
	})

	t.Run("offset beyond total", func(t *testing.T) {
		page := Paginate([]int{1, 2}, Params{Limit: 10, Offset: 50, Order: Asc}, byValue)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("nil input", func(t *testing.T) {
		page := Paginate[int](nil, Params{Limit: 10}, nil)
		assert.NotNil(t, page.Items)
		assert.Equal(t, 0, page.Total)
	})
}
