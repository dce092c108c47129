package checkpoint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lenslook/go-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

// FileStore хранит контрольную точку пайплайна в текстовом файле
// с одним целым числом — количеством уже загруженных продуктов.
// Предполагается один пишущий процесс; запись атомарна через временный
// файл и переименование.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load читает сохраненное смещение. Отсутствующий файл означает нулевое
// смещение — первый запуск. Нечитаемое содержимое является ошибкой:
// молчаливый сброс привёл бы к повторной загрузке всего каталога.
func (f *FileStore) Load(_ context.Context) (int, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	offset, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || offset < 0 {
		return 0, e.Wrap(fmt.Sprintf("file %s", f.path), e.ErrInvalidCheckpoint)
	}

	return offset, nil
}

// Save атомарно записывает смещение.
func (f *FileStore) Save(_ context.Context, offset int) error {
	if offset < 0 {
		return e.Wrap(fmt.Sprintf("offset %d", offset), e.ErrInvalidCheckpoint)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	_, err = tmp.WriteString(strconv.Itoa(offset))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err = os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
