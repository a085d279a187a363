package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldermere/storefront/internal/store"
)

func Test_NewPage_Clamping(t *testing.T) {
	tests := []struct {
		name         string
		page, limit  int
		wantNumber   int
		wantSize     int
	}{
		{name: "valid values pass through", page: 2, limit: 20, wantNumber: 2, wantSize: 20},
		{name: "zero page becomes one", page: 0, limit: 10, wantNumber: 1, wantSize: 10},
		{name: "negative page becomes one", page: -5, limit: 10, wantNumber: 1, wantSize: 10},
		{name: "zero limit becomes default", page: 1, limit: 0, wantNumber: 1, wantSize: store.DefaultLimit},
		{name: "negative limit becomes default", page: 1, limit: -3, wantNumber: 1, wantSize: store.DefaultLimit},
		{name: "oversized limit capped", page: 1, limit: 5000, wantNumber: 1, wantSize: store.MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := store.NewPage(tt.page, tt.limit)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantSize, p.Size)
		})
	}
}

func Test_Page_Skip(t *testing.T) {
	assert.Equal(t, 0, store.NewPage(1, 10).Skip())
	assert.Equal(t, 10, store.NewPage(2, 10).Skip())
	assert.Equal(t, 40, store.NewPage(3, 20).Skip())
}

func Test_Pages_Ceiling(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		size  int
		want  int
	}{
		{name: "exact multiple", total: 20, size: 10, want: 2},
		{name: "partial last page", total: 25, size: 10, want: 3},
		{name: "single item", total: 1, size: 10, want: 1},
		{name: "empty", total: 0, size: 10, want: 0},
		{name: "zero size", total: 25, size: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Pages(tt.total, tt.size))
		})
	}
}

func Test_BuildQuery(t *testing.T) {
	filter := store.Filter{}.Where("category", store.OpEq, "kitchen")
	q := store.BuildQuery(filter, store.NewPage(3, 10), "price", store.SortAsc)

	assert.Equal(t, 20, q.Skip)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, "price", q.Sort)
	assert.Equal(t, store.SortAsc, q.Order)
	assert.Len(t, q.Filter.All, 1)
}

func Test_BuildQuery_DefaultsToDescending(t *testing.T) {
	q := store.BuildQuery(store.Filter{}, store.NewPage(1, 10), "createdAt", "sideways")
	assert.Equal(t, store.SortDesc, q.Order)
}
