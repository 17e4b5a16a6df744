package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/feastly/internal/fault"
)

type mockQueries struct {
	lastParams ListParams
	page       *Page
	err        error
}

func (m *mockQueries) List(_ context.Context, p ListParams) (*Page, error) {
	m.lastParams = p
	if m.err != nil {
		return nil, m.err
	}
	if m.page != nil {
		return m.page, nil
	}
	return &Page{Page: p.Page, PageSize: p.PageSize}, nil
}

func TestBrowserScoping(t *testing.T) {
	q := &mockQueries{}
	b := NewBrowser(q)

	t.Run("customer forced to own scope", func(t *testing.T) {
		_, err := b.List(context.Background(), customer, ListParams{
			Scope: Scope{RestaurantID: "r1", CustomerID: "someone-else"},
		})
		require.NoError(t, err)
		assert.Equal(t, Scope{CustomerID: "c1"}, q.lastParams.Scope)
	})

	t.Run("manager forced to own restaurant", func(t *testing.T) {
		_, err := b.List(context.Background(), manager, ListParams{})
		require.NoError(t, err)
		assert.Equal(t, Scope{RestaurantID: "r1"}, q.lastParams.Scope)
	})

	t.Run("manager cannot browse foreign restaurant", func(t *testing.T) {
		_, err := b.List(context.Background(), manager, ListParams{
			Scope: Scope{RestaurantID: "r2"},
		})
		require.Error(t, err)
		assert.True(t, fault.Has(err, fault.Forbidden))
	})

	t.Run("admin scope passes through", func(t *testing.T) {
		_, err := b.List(context.Background(), admin, ListParams{
			Scope: Scope{RestaurantID: "r2"},
		})
		require.NoError(t, err)
		assert.Equal(t, Scope{RestaurantID: "r2"}, q.lastParams.Scope)
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		_, err := b.List(context.Background(), nil, ListParams{})
		assert.True(t, fault.Has(err, fault.Unauthorized))
	})
}

func TestBrowserDefaults(t *testing.T) {
	q := &mockQueries{}
	b := NewBrowser(q)

	_, err := b.List(context.Background(), admin, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, q.lastParams.Page)
	assert.Equal(t, DefaultPageSize, q.lastParams.PageSize)
	assert.Equal(t, "created_at", q.lastParams.SortBy)
	assert.True(t, q.lastParams.SortDesc)
}

func TestBrowserClampsPageSize(t *testing.T) {
	q := &mockQueries{}
	b := NewBrowser(q)

	_, err := b.List(context.Background(), admin, ListParams{Page: -3, PageSize: 10000})
	require.NoError(t, err)
	assert.Equal(t, 1, q.lastParams.Page)
	assert.Equal(t, MaxPageSize, q.lastParams.PageSize)
}

func TestBrowserValidation(t *testing.T) {
	q := &mockQueries{}
	b := NewBrowser(q)

	_, err := b.List(context.Background(), admin, ListParams{SortBy: "password"})
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.Validation))

	_, err = b.List(context.Background(), admin, ListParams{
		Filter: Filter{Status: Status("SHIPPED")},
	})
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.Validation))
}

func TestBrowserKeepsExplicitSort(t *testing.T) {
	q := &mockQueries{}
	b := NewBrowser(q)

	_, err := b.List(context.Background(), admin, ListParams{SortBy: "total"})
	require.NoError(t, err)
	assert.Equal(t, "total", q.lastParams.SortBy)
	assert.False(t, q.lastParams.SortDesc)
}
