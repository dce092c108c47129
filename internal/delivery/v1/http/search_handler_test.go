package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/e"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeSearchUC struct {
	res    *usecase.FindSimilarRes
	err    error
	gotReq *usecase.FindSimilarReq
}

func (f *fakeSearchUC) FindSimilar(_ context.Context, req *usecase.FindSimilarReq) (*usecase.FindSimilarRes, error) {
	f.gotReq = req
	return f.res, f.err
}

func TestSearchHandler_FindSimilar(t *testing.T) {
	uc := &fakeSearchUC{res: usecase.NewFindSimilarRes([]domain.ProductPoint{
		{ID: 7, Payload: domain.ProductPayload{ID: 7, Name: "red dress"}},
	})}
	handler := NewSearchHandler(uc, nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=red+dress&gender_id=2", nil)
	rec := httptest.NewRecorder()
	handler.findSimilar(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(7), res.Results[0].ID)
	assert.Equal(t, 1, res.Total)

	require.NotNil(t, uc.gotReq)
	assert.Equal(t, "red dress", uc.gotReq.Query)
	require.Len(t, uc.gotReq.Clauses, 1)
	assert.Equal(t, "gender_id", uc.gotReq.Clauses[0].Field)
}

func TestSearchHandler_FindSimilar_EmptyQuery(t *testing.T) {
	uc := &fakeSearchUC{err: e.Wrap("op", e.ErrQueryRequired)}
	handler := NewSearchHandler(uc, nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.findSimilar(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_FindSimilar_BadFilter(t *testing.T) {
	uc := &fakeSearchUC{}
	handler := NewSearchHandler(uc, nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=boots&price_min=abc", nil)
	rec := httptest.NewRecorder()
	handler.findSimilar(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, uc.gotReq, "usecase must not be called on validation failure")
}

func TestSearchHandler_FindSimilar_EncoderDown(t *testing.T) {
	uc := &fakeSearchUC{err: e.Wrap("op", e.ErrEncodingFailed)}
	handler := NewSearchHandler(uc, nopLogger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=boots", nil)
	rec := httptest.NewRecorder()
	handler.findSimilar(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var res ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, http.StatusBadGateway, res.Code)
}
