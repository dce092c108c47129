package http

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
)

func TestParseFilters_Empty(t *testing.T) {
	clauses, err := parseFilters(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, clauses)
}

func TestParseFilters_EqAndRanges(t *testing.T) {
	values := url.Values{
		"query":      {"red dress"}, // не фильтр, игнорируется
		"gender_id":  {"2"},
		"status":     {"active"},
		"price_min":  {"99.90"},
		"price_max":  {"500"},
		"min_rating": {"4.5"},
	}

	clauses, err := parseFilters(values)
	require.NoError(t, err)
	require.Len(t, clauses, 5)

	byField := make(map[string][]domain.FilterClause)
	for _, c := range clauses {
		byField[c.Field] = append(byField[c.Field], c)
	}

	require.Len(t, byField["gender_id"], 1)
	assert.Equal(t, domain.OpEq, byField["gender_id"][0].Op)
	assert.Equal(t, int64(2), byField["gender_id"][0].Value)

	require.Len(t, byField["status"], 1)
	assert.Equal(t, "active", byField["status"][0].Value)

	prices := byField[domain.FieldPrice]
	require.Len(t, prices, 2)
	assert.Equal(t, domain.OpGte, prices[0].Op)
	assert.Equal(t, 99.9, prices[0].Value)
	assert.Equal(t, domain.OpLte, prices[1].Op)
	assert.Equal(t, 500.0, prices[1].Value)

	require.Len(t, byField["rating"], 1)
	assert.Equal(t, domain.OpGte, byField["rating"][0].Op)
	assert.Equal(t, 4.5, byField["rating"][0].Value)
}

func TestParseFilters_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		wantErr error
	}{
		{name: "non-numeric id", values: url.Values{"brand_id": {"acme"}}, wantErr: e.ErrStatusBadRequest},
		{name: "negative price", values: url.Values{"price_min": {"-10"}}, wantErr: e.ErrInvalidPrice},
		{name: "malformed price", values: url.Values{"price_max": {"ten"}}, wantErr: e.ErrInvalidPrice},
		{name: "too precise price", values: url.Values{"price_min": {"9.999"}}, wantErr: e.ErrPricePrecision},
		{name: "rating out of range", values: url.Values{"min_rating": {"7"}}, wantErr: e.ErrStatusBadRequest},
		{name: "rating not a number", values: url.Values{"min_rating": {"high"}}, wantErr: e.ErrStatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFilters(tt.values)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "empty query", err: e.Wrap("op", e.ErrQueryRequired), wantCode: http.StatusBadRequest},
		{name: "unsupported operation", err: e.Wrap("op", e.ErrUnsupportedOperation), wantCode: http.StatusBadRequest},
		{name: "invalid filter value", err: e.Wrap("op", e.ErrInvalidFilterValue), wantCode: http.StatusBadRequest},
		{name: "encoder down", err: e.Wrap("op", e.ErrEncodingFailed), wantCode: http.StatusBadGateway},
		{name: "vector mismatch", err: e.Wrap("op", e.ErrVectorSizeMismatch), wantCode: http.StatusBadGateway},
		{name: "store down", err: e.Wrap("op", e.ErrStoreUnavailable), wantCode: http.StatusServiceUnavailable},
		{name: "unknown", err: assert.AnError, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := ToHTTPResponse(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.NotEmpty(t, msg)
		})
	}
}

func TestParsePrice(t *testing.T) {
	price, err := parsePrice("129.99")
	require.NoError(t, err)
	assert.Equal(t, 129.99, price)

	price, err = parsePrice("0")
	require.NoError(t, err)
	assert.Zero(t, price)
}
