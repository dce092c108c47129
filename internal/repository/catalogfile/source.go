package catalogfile

import (
	"context"
	"encoding/json"
	"os"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

// Source читает каталог продуктов из JSON-файла.
// Файл содержит массив продуктов; порядок элементов определяет
// смещения батчей пайплайна, поэтому файл между проходами не переупорядочивается.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

// ReadAll читает и декодирует весь каталог.
func (s *Source) ReadAll(_ context.Context) ([]domain.ProductPayload, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var products []domain.ProductPayload
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}
