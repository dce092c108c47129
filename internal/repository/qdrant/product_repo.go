package qdrant

import (
	"context"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// searchLimit — максимальное количество результатов одного поиска.
const searchLimit = 20

// ProductRepo репозиторий для работы с векторами продуктов в Qdrant
type ProductRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
	logger logger.Logger
}

func NewProductRepo(client *qdrant.Client, cfg *cfg.QdrantCfg, logger logger.Logger) *ProductRepo {
	return &ProductRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// EnsureCollection создает коллекцию с косинусной метрикой, если её ещё нет.
// Повторный вызов безопасен. Если коллекция существует с другой размерностью
// векторов, пишется предупреждение: пересоздание выполняется вручную.
func (q *ProductRepo) EnsureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.cfg.QdrantCollectionName)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	if exists {
		info, err := q.client.GetCollectionInfo(ctx, q.cfg.QdrantCollectionName)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStoreUnavailable))
		}

		if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil && params.Size != q.cfg.VectorSize {
			q.logger.Warnf("Collection vector size mismatch. collection: %s, have: %d, want: %d",
				q.cfg.QdrantCollectionName, params.Size, q.cfg.VectorSize)
		}

		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.cfg.QdrantCollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	q.logger.Infof("Created collection. name: %s, vector_size: %d", q.cfg.QdrantCollectionName, q.cfg.VectorSize)

	return nil
}

// Upsert сохраняет или обновляет векторы продуктов в коллекции Qdrant.
// Идентификатор продукта служит id точки, поэтому повторная загрузка
// заменяет существующие записи.
func (q *ProductRepo) Upsert(ctx context.Context, points []domain.ProductPoint) error {
	if len(points) == 0 {
		return nil
	}

	reqPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		reqPoints = append(reqPoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(point.ID)),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: qdrant.NewValueMap(payloadToMap(point.Payload)),
		})
	}

	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points:         reqPoints,
		Wait:           &wait,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	return nil
}

// Search ищет ближайшие к вектору продукты с учётом фильтров.
// Результаты возвращаются в порядке убывания косинусной близости.
func (q *ProductRepo) Search(ctx context.Context, vector []float32, clauses []domain.FilterClause) ([]domain.ProductPoint, error) {
	filter, err := TranslateFilters(clauses)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	limit := uint64(searchLimit)
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	points := make([]domain.ProductPoint, 0, len(scored))
	for _, sp := range scored {
		points = append(points, domain.ProductPoint{
			ID:      int64(sp.GetId().GetNum()),
			Payload: payloadFromValues(sp.GetPayload()),
		})
	}

	return points, nil
}
