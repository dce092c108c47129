package usecase

import (
	"context"
	"strings"

	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
)

// SearchUseCase реализует бизнес-логику кросс-модального поиска продуктов.
type SearchUseCase struct {
	productRepo ProductPointRepository
	encoder     Encoder
	logger      logger.Logger
}

func NewSearchUC(
	productRepo ProductPointRepository,
	encoder Encoder,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		productRepo: productRepo,
		encoder:     encoder,
		logger:      logger,
	}
}

// FindSimilar кодирует текст запроса в вектор и ищет ближайшие продукты с учётом фильтров.
func (s *SearchUseCase) FindSimilar(ctx context.Context, req *FindSimilarReq) (*FindSimilarRes, error) {
	const op = "SearchUseCase.FindSimilar"

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, e.Wrap(op, e.ErrQueryRequired)
	}

	vector, err := s.encoder.EncodeText(ctx, query)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	points, err := s.productRepo.Search(ctx, vector, req.Clauses)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	s.logger.Debugf("Search completed. query_len: %d, filters: %d, results: %d",
		len(query), len(req.Clauses), len(points))

	return NewFindSimilarRes(points), nil
}
