package usecase

import (
	"time"

	"github.com/lenslook/go-backend/internal/domain"
)

// SEARCH USECASE

// FindSimilarReq — запрос кросс-модального поиска: текст запроса и атрибутные фильтры.
type FindSimilarReq struct {
	Query   string
	Clauses []domain.FilterClause
}

// FindSimilarRes — результат поиска в порядке убывания близости.
type FindSimilarRes struct {
	Points []domain.ProductPoint
}

// INFRASTRUCTURE

// BatchIndexedEvent — событие об успешно загруженном в хранилище батче каталога.
type BatchIndexedEvent struct {
	EventID    string    `json:"event_id"`
	Collection string    `json:"collection"`
	BatchStart int       `json:"batch_start"`
	Count      int       `json:"count"`
	ProductIDs []int64   `json:"product_ids"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// MAPPERS

func NewFindSimilarReq(query string, clauses []domain.FilterClause) *FindSimilarReq {
	return &FindSimilarReq{
		Query:   query,
		Clauses: clauses,
	}
}

func NewFindSimilarRes(points []domain.ProductPoint) *FindSimilarRes {
	return &FindSimilarRes{
		Points: points,
	}
}

func NewBatchIndexedEvent(eventID string, collection string, batchStart int, productIDs []int64) *BatchIndexedEvent {
	return &BatchIndexedEvent{
		EventID:    eventID,
		Collection: collection,
		BatchStart: batchStart,
		Count:      len(productIDs),
		ProductIDs: productIDs,
		IndexedAt:  time.Now().UTC(),
	}
}
