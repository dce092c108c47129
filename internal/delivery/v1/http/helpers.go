package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrQueryRequired):
		return http.StatusBadRequest, e.ErrQueryRequired.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrUnsupportedOperation):
		return http.StatusBadRequest, e.ErrUnsupportedOperation.Error()
	case errors.Is(err, e.ErrInvalidFilterValue):
		return http.StatusBadRequest, e.ErrInvalidFilterValue.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrEncodingFailed), errors.Is(err, e.ErrVectorSizeMismatch):
		return http.StatusBadGateway, e.ErrEncodingFailed.Error()
	case errors.Is(err, e.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, e.ErrStoreUnavailable.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Числовые параметры точного совпадения.
var intFilterParams = []string{"brand_id", "category_id", "gender_id", "shop_id"}

// Строковые параметры точного совпадения.
var stringFilterParams = []string{"status", "region", "currency", "material", "code", "brand_name", "category_name", "gender_name"}

// parseFilters собирает клаузы фильтра из query-параметров запроса поиска.
func parseFilters(values url.Values) ([]domain.FilterClause, error) {
	var clauses []domain.FilterClause

	for _, param := range intFilterParams {
		raw := values.Get(param)
		if raw == "" {
			continue
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, e.Wrap(fmt.Sprintf("parameter %s: %q", param, raw), e.ErrStatusBadRequest)
		}

		clause, err := domain.NewFilterClause(param, string(domain.OpEq), id)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
	}

	for _, param := range stringFilterParams {
		raw := values.Get(param)
		if raw == "" {
			continue
		}

		clause, err := domain.NewFilterClause(param, string(domain.OpEq), raw)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
	}

	if raw := values.Get("price_min"); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return nil, err
		}

		clause, err := domain.NewFilterClause(domain.FieldPrice, string(domain.OpGte), price)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
	}

	if raw := values.Get("price_max"); raw != "" {
		price, err := parsePrice(raw)
		if err != nil {
			return nil, err
		}

		clause, err := domain.NewFilterClause(domain.FieldPrice, string(domain.OpLte), price)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
	}

	if raw := values.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 5 {
			return nil, e.Wrap(fmt.Sprintf("parameter min_rating: %q", raw), e.ErrStatusBadRequest)
		}

		clause, err := domain.NewFilterClause("rating", string(domain.OpGte), rating)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, *clause)
	}

	return clauses, nil
}

// parsePrice валидирует цену: неотрицательная, не более двух знаков после запятой.
func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.Wrap(fmt.Sprintf("price %q", s), e.ErrInvalidPrice)
	}

	if d.LessThan(decimal.Zero) {
		return 0, e.Wrap(fmt.Sprintf("price %q", s), e.ErrInvalidPrice)
	}

	if d.Exponent() < -2 {
		return 0, e.Wrap(fmt.Sprintf("price %q", s), e.ErrPricePrecision)
	}

	return d.InexactFloat64(), nil
}
