package usecase

import "context"

// Encoder — клиент внешнего сервиса векторизации (текст и изображения).
type Encoder interface {
	// EncodeText возвращает нормализованный вектор текста фиксированной размерности.
	// Повторные вызовы с одинаковым текстом обслуживаются из внутреннего кэша.
	EncodeText(ctx context.Context, text string) ([]float32, error)

	// EncodeImages загружает и кодирует изображения по их локаторам;
	// порядок результата совпадает с порядком источников.
	EncodeImages(ctx context.Context, sources []string) ([][]float32, error)
}

// EventProducer публикует события об успешно проиндексированных батчах
// для внешних потребителей.
type EventProducer interface {
	PublishBatchIndexed(ctx context.Context, event *BatchIndexedEvent) error
}
