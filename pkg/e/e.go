package e

import "fmt"

var (
	// Внутренние ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// Ошибки трансляции фильтров
	ErrUnsupportedOperation = fmt.Errorf("unsupported filter operation")
	ErrInvalidFilterValue   = fmt.Errorf("invalid filter value")

	// Ошибки кодирования текста и изображений
	ErrEncodingFailed     = fmt.Errorf("encoding failed")
	ErrImageFetch         = fmt.Errorf("image fetch failed")
	ErrVectorSizeMismatch = fmt.Errorf("vector size mismatch")

	// Ошибки векторного хранилища
	ErrStoreUnavailable = fmt.Errorf("vector store unavailable")

	// Ошибки пайплайна загрузки каталога
	ErrNoImages          = fmt.Errorf("no images provided")
	ErrInvalidCheckpoint = fmt.Errorf("invalid checkpoint value")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrQueryRequired    = fmt.Errorf("query text is required")
	ErrInvalidPrice     = fmt.Errorf("invalid price")
	ErrPricePrecision   = fmt.Errorf("price must have at most 2 decimal places")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
