package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/jitter"
	"github.com/lenslook/go-backend/pkg/logger"
	"github.com/google/uuid"
)

// IngestWorker — фоновый пайплайн загрузки каталога в векторное хранилище.
// Каждый проход читает каталог целиком, пропускает уже загруженный префикс
// по контрольной точке и обрабатывает остаток батчами: кодирует изображения,
// собирает точки и сохраняет их.
//
// Контрольная точка продвигается только пока проход безошибочен: упавший батч
// фиксирует её на своей границе, но последующие батчи всё равно
// обрабатываются — повторная их загрузка на следующем проходе идемпотентна.
type IngestWorker struct {
	source     usecase.CatalogSource
	checkpoint usecase.CheckpointStore
	repo       usecase.ProductPointRepository
	encoder    usecase.Encoder
	producer   usecase.EventProducer // nil отключает публикацию событий
	cfg        *cfg.PipelineCfg
	collection string
	logger     logger.Logger
	stop       chan struct{}
	wg         sync.WaitGroup
}

func NewIngestWorker(
	source usecase.CatalogSource,
	checkpoint usecase.CheckpointStore,
	repo usecase.ProductPointRepository,
	encoder usecase.Encoder,
	producer usecase.EventProducer,
	cfg *cfg.PipelineCfg,
	collection string,
	logger logger.Logger,
) *IngestWorker {
	return &IngestWorker{
		source:     source,
		checkpoint: checkpoint,
		repo:       repo,
		encoder:    encoder,
		producer:   producer,
		cfg:        cfg,
		collection: collection,
		logger:     logger,
		stop:       make(chan struct{}),
	}
}

func (w *IngestWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *IngestWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *IngestWorker) run(ctx context.Context) {
	const op = "IngestWorker.run"

	if err := w.repo.EnsureCollection(ctx); err != nil {
		w.logger.Errorf(e.Wrap(op, err), "failed to prepare collection, worker exits")
		return
	}

	for {
		if err := w.RunPass(ctx); err != nil {
			w.logger.Warnf("ingest pass failed: %v", err)
		}

		// Интервал слегка рандомизируется, чтобы реплики не опрашивали
		// источник синхронно.
		select {
		case <-time.After(jitter.Duration(w.cfg.PollInterval, 0.1)):
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunPass выполняет один проход по каталогу.
func (w *IngestWorker) RunPass(ctx context.Context) error {
	const op = "IngestWorker.RunPass"

	products, err := w.source.ReadAll(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	offset, err := w.checkpoint.Load(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if offset >= len(products) {
		w.logger.Debugf("Catalog up to date. offset: %d, catalog: %d", offset, len(products))
		return nil
	}

	w.logger.Infof("Ingest pass started. offset: %d, remaining: %d", offset, len(products)-offset)

	failed := false
	saved := offset
	for start := offset; start < len(products); start += w.cfg.BatchSize {
		select {
		case <-w.stop:
			return nil
		case <-ctx.Done():
			return e.Wrap(op, ctx.Err())
		default:
		}

		end := start + w.cfg.BatchSize
		if end > len(products) {
			end = len(products)
		}

		if err := w.processBatch(ctx, products[start:end], start); err != nil {
			w.logger.Warnf("Batch failed, checkpoint stays at %d. batch: [%d:%d), error: %v",
				saved, start, end, err)
			failed = true
			continue
		}

		if !failed {
			if err := w.checkpoint.Save(ctx, end); err != nil {
				return e.Wrap(op, err)
			}
			saved = end
		}
	}

	w.logger.Infof("Ingest pass finished. catalog: %d, clean: %t", len(products), !failed)

	return nil
}

// processBatch кодирует изображения батча и сохраняет точки продуктов.
// Изображения всех продуктов батча отправляются кодировщику одним набором;
// вектором продукта становится вектор его первого изображения.
func (w *IngestWorker) processBatch(ctx context.Context, batch []domain.ProductPayload, batchStart int) error {
	op := fmt.Sprintf("IngestWorker.processBatch[%d]", batchStart)

	var (
		sources []string
		firstAt = make([]int, len(batch)) // индекс первого изображения продукта в общем наборе
	)
	for i, product := range batch {
		if len(product.Images) == 0 {
			return e.Wrap(fmt.Sprintf("%s: product %d", op, product.ID), e.ErrNoImages)
		}

		firstAt[i] = len(sources)
		sources = append(sources, product.Images...)
	}

	vectors, err := w.encoder.EncodeImages(ctx, sources)
	if err != nil {
		return e.Wrap(op, err)
	}

	points := make([]domain.ProductPoint, 0, len(batch))
	for i, product := range batch {
		points = append(points, *domain.NewProductPoint(product.ID, vectors[firstAt[i]], product))
	}

	if err := w.repo.Upsert(ctx, points); err != nil {
		return e.Wrap(op, err)
	}

	w.publishBatchIndexed(ctx, batchStart, points)

	return nil
}

// publishBatchIndexed отправляет событие об успешном батче.
// Ошибка публикации не откатывает батч: событие информационное.
func (w *IngestWorker) publishBatchIndexed(ctx context.Context, batchStart int, points []domain.ProductPoint) {
	if w.producer == nil {
		return
	}

	ids := make([]int64, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
	}

	event := usecase.NewBatchIndexedEvent(uuid.NewString(), w.collection, batchStart, ids)
	if err := w.producer.PublishBatchIndexed(ctx, event); err != nil {
		w.logger.Warnf("Failed to publish batch event. batch_start: %d, error: %v", batchStart, err)
	}
}
