package http

import (
	"net/http"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
)

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, logger: logger}
}

type SearchResponse struct {
	Results []domain.ProductPayload `json:"results"`
	Total   int                     `json:"total"`
}

// findSimilar
//
//	@Summary		Поиск товаров по текстовому описанию
//	@Description	Кодирует текст запроса в вектор и возвращает ближайшие товары с учётом фильтров
//	@Tags			search
//	@Produce		json
//	@Param			query		query		string	true	"Текст запроса"
//	@Param			brand_id	query		integer	false	"Бренд"
//	@Param			category_id	query		integer	false	"Категория"
//	@Param			gender_id	query		integer	false	"Гендер"
//	@Param			shop_id		query		integer	false	"Магазин"
//	@Param			status		query		string	false	"Статус товара"
//	@Param			region		query		string	false	"Регион"
//	@Param			price_min	query		number	false	"Минимальная цена"
//	@Param			price_max	query		number	false	"Максимальная цена"
//	@Param			min_rating	query		number	false	"Минимальный рейтинг"
//	@Success		200			{object}	SearchResponse	"Результаты поиска"
//	@Failure		400			{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		502			{object}	ErrorResponse	"Кодировщик недоступен"
//	@Failure		503			{object}	ErrorResponse	"Хранилище недоступно"
//	@Router			/search [get]
func (h *SearchHandler) findSimilar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	clauses, err := parseFilters(r.URL.Query())
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.searchUsecase.FindSimilar(r.Context(), usecase.NewFindSimilarReq(query, clauses))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	payloads := make([]domain.ProductPayload, 0, len(res.Points))
	for _, point := range res.Points {
		payloads = append(payloads, point.Payload)
	}

	WriteSuccess(w, http.StatusOK, SearchResponse{
		Results: payloads,
		Total:   len(payloads),
	})
}
