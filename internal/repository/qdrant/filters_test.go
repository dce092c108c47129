package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
)

func mustClause(t *testing.T, field, op string, value any) domain.FilterClause {
	t.Helper()

	clause, err := domain.NewFilterClause(field, op, value)
	require.NoError(t, err)

	return *clause
}

func TestTranslateFilters_Empty(t *testing.T) {
	filter, err := TranslateFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filter)
}

func TestTranslateFilters_SkipsSearchText(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, domain.FieldSearchText, "eq", "red dress"),
	})
	require.NoError(t, err)
	assert.Nil(t, filter, "search text clause must not produce conditions")
}

func TestTranslateFilters_MatchConditions(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, "status", "eq", "active"),
		mustClause(t, "gender_id", "eq", int64(2)),
		mustClause(t, "brand_id", "eq", float64(15)),
	})
	require.NoError(t, err)
	require.NotNil(t, filter)
	require.Len(t, filter.Must, 3)

	assert.Equal(t, "status", filter.Must[0].GetField().GetKey())
	assert.Equal(t, "active", filter.Must[0].GetField().GetMatch().GetKeyword())

	assert.Equal(t, "gender_id", filter.Must[1].GetField().GetKey())
	assert.Equal(t, int64(2), filter.Must[1].GetField().GetMatch().GetInteger())

	// Целочисленный float транслируется в целочисленное совпадение.
	assert.Equal(t, int64(15), filter.Must[2].GetField().GetMatch().GetInteger())
}

func TestTranslateFilters_MergesPriceRange(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, domain.FieldPrice, "gte", 100.0),
		mustClause(t, "rating", "gt", 4.0),
		mustClause(t, domain.FieldPrice, "lte", 500.0),
	})
	require.NoError(t, err)
	require.NotNil(t, filter)
	require.Len(t, filter.Must, 2, "both price bounds must share one range condition")

	price := filter.Must[0].GetField()
	require.Equal(t, domain.FieldPrice, price.GetKey())
	r := price.GetRange()
	require.NotNil(t, r)
	require.NotNil(t, r.Gte)
	require.NotNil(t, r.Lte)
	assert.Equal(t, 100.0, *r.Gte)
	assert.Equal(t, 500.0, *r.Lte)
	assert.Nil(t, r.Gt)
	assert.Nil(t, r.Lt)

	rating := filter.Must[1].GetField()
	require.Equal(t, "rating", rating.GetKey())
	require.NotNil(t, rating.GetRange().Gt)
	assert.Equal(t, 4.0, *rating.GetRange().Gt)
}

func TestTranslateFilters_SingleBoundRange(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, "rating", "gte", 4.5),
	})
	require.NoError(t, err)
	require.Len(t, filter.Must, 1)

	r := filter.Must[0].GetField().GetRange()
	require.NotNil(t, r)
	require.NotNil(t, r.Gte)
	assert.Equal(t, 4.5, *r.Gte)
	assert.Nil(t, r.Gt)
	assert.Nil(t, r.Lt)
	assert.Nil(t, r.Lte)
}

func TestTranslateFilters_NilBoundLeavesSideOpen(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, domain.FieldPrice, "gte", nil),
		mustClause(t, domain.FieldPrice, "lte", 200.0),
	})
	require.NoError(t, err)
	require.NotNil(t, filter)
	require.Len(t, filter.Must, 1)

	r := filter.Must[0].GetField().GetRange()
	require.NotNil(t, r)
	require.NotNil(t, r.Lte)
	assert.Equal(t, 200.0, *r.Lte)
	assert.Nil(t, r.Gte, "nil bound must leave that side open")
	assert.Nil(t, r.Gt)
	assert.Nil(t, r.Lt)
}

func TestTranslateFilters_AllBoundsNil(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, domain.FieldPrice, "gte", nil),
	})
	require.NoError(t, err)
	assert.Nil(t, filter, "a range without bounds constrains nothing")
}

func TestTranslateFilters_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		clause domain.FilterClause
	}{
		{name: "fractional eq", clause: mustClause(t, "rating", "eq", 4.5)},
		{name: "non-numeric range bound", clause: mustClause(t, "rating", "gte", "high")},
		{name: "unsupported eq type", clause: mustClause(t, "colors", "eq", []string{"red"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TranslateFilters([]domain.FilterClause{tt.clause})
			require.Error(t, err)
			assert.ErrorIs(t, err, e.ErrInvalidFilterValue)
		})
	}
}

func TestTranslateFilters_BoolMatch(t *testing.T) {
	filter, err := TranslateFilters([]domain.FilterClause{
		mustClause(t, "in_stock", "eq", true),
	})
	require.NoError(t, err)
	require.Len(t, filter.Must, 1)
	assert.True(t, filter.Must[0].GetField().GetMatch().GetBoolean())
}
