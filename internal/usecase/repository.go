package usecase

import (
	"context"

	"github.com/lenslook/go-backend/internal/domain"
)

// ProductPointRepository — адаптер векторного хранилища.
// Реализация не хранит состояния помимо соединения, поэтому один экземпляр
// разделяется поиском и пайплайном загрузки.
type ProductPointRepository interface {
	// EnsureCollection идемпотентно создает коллекцию (cosine-метрика).
	EnsureCollection(ctx context.Context) error

	// Upsert сохраняет или заменяет точки по id одним bulk-запросом.
	Upsert(ctx context.Context, points []domain.ProductPoint) error

	// Search возвращает ближайших соседей запроса, удовлетворяющих фильтрам,
	// в порядке убывания близости.
	Search(ctx context.Context, vector []float32, clauses []domain.FilterClause) ([]domain.ProductPoint, error)
}

// CatalogSource — источник записей каталога в стабильном порядке.
type CatalogSource interface {
	ReadAll(ctx context.Context) ([]domain.ProductPayload, error)
}

// CheckpointStore хранит смещение каталога, до которого загрузка успешно завершена.
// Единственный писатель — пайплайн загрузки; межпроцессная блокировка не предусмотрена.
type CheckpointStore interface {
	// Load возвращает сохраненное смещение; 0, если контрольной точки еще нет.
	Load(ctx context.Context) (int, error)

	// Save перезаписывает смещение после успешно завершенного батча.
	Save(ctx context.Context, offset int) error
}
