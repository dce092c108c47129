package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/e"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type memSource struct {
	products []domain.ProductPayload
}

func (s *memSource) ReadAll(_ context.Context) ([]domain.ProductPayload, error) {
	return s.products, nil
}

type memCheckpoint struct {
	offset int
	saves  []int
}

func (c *memCheckpoint) Load(_ context.Context) (int, error) { return c.offset, nil }

func (c *memCheckpoint) Save(_ context.Context, offset int) error {
	c.offset = offset
	c.saves = append(c.saves, offset)
	return nil
}

type memRepo struct {
	upserted []domain.ProductPoint
}

func (r *memRepo) EnsureCollection(_ context.Context) error { return nil }

func (r *memRepo) Upsert(_ context.Context, points []domain.ProductPoint) error {
	r.upserted = append(r.upserted, points...)
	return nil
}

func (r *memRepo) Search(_ context.Context, _ []float32, _ []domain.FilterClause) ([]domain.ProductPoint, error) {
	return nil, nil
}

// stubEncoder отдаёт каждому источнику детерминированный вектор
// и падает на источниках из failOn.
type stubEncoder struct {
	failOn map[string]bool
}

func (s *stubEncoder) EncodeText(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

func (s *stubEncoder) EncodeImages(_ context.Context, sources []string) ([][]float32, error) {
	vectors := make([][]float32, len(sources))
	for i, src := range sources {
		if s.failOn[src] {
			return nil, e.Wrap(src, e.ErrEncodingFailed)
		}
		vectors[i] = []float32{float32(len(src)), float32(i)}
	}
	return vectors, nil
}

type memProducer struct {
	events []*usecase.BatchIndexedEvent
}

func (p *memProducer) PublishBatchIndexed(_ context.Context, event *usecase.BatchIndexedEvent) error {
	p.events = append(p.events, event)
	return nil
}

func testCatalog(n int) []domain.ProductPayload {
	products := make([]domain.ProductPayload, 0, n)
	for i := 0; i < n; i++ {
		products = append(products, domain.ProductPayload{
			ID:     int64(i + 1),
			Name:   fmt.Sprintf("product-%d", i+1),
			Images: []string{fmt.Sprintf("img/%d-main.jpg", i+1), fmt.Sprintf("img/%d-alt.jpg", i+1)},
		})
	}
	return products
}

func testPipelineCfg() *cfg.PipelineCfg {
	return &cfg.PipelineCfg{
		BatchSize:    10,
		PollInterval: time.Minute,
	}
}

func newTestWorker(source usecase.CatalogSource, checkpoint usecase.CheckpointStore,
	repo usecase.ProductPointRepository, encoder usecase.Encoder, producer usecase.EventProducer) *IngestWorker {
	return NewIngestWorker(source, checkpoint, repo, encoder, producer, testPipelineCfg(), "products", nopLogger{})
}

func upsertedIDs(points []domain.ProductPoint) []int64 {
	ids := make([]int64, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestIngestWorker_ResumesFromCheckpoint(t *testing.T) {
	source := &memSource{products: testCatalog(25)}
	checkpoint := &memCheckpoint{offset: 10}
	repo := &memRepo{}

	worker := newTestWorker(source, checkpoint, repo, &stubEncoder{}, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	ids := upsertedIDs(repo.upserted)
	require.Len(t, ids, 15, "already ingested prefix must be skipped")
	assert.Equal(t, int64(11), ids[0])
	assert.Equal(t, int64(25), ids[14])
	assert.Equal(t, []int{20, 25}, checkpoint.saves)
}

func TestIngestWorker_FailedBatchPinsCheckpoint(t *testing.T) {
	source := &memSource{products: testCatalog(25)}
	checkpoint := &memCheckpoint{}
	repo := &memRepo{}
	// Продукт 15 лежит в батче [10:20).
	encoder := &stubEncoder{failOn: map[string]bool{"img/15-main.jpg": true}}

	worker := newTestWorker(source, checkpoint, repo, encoder, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	assert.Equal(t, 10, checkpoint.offset, "checkpoint must stop at the failed batch")

	ids := upsertedIDs(repo.upserted)
	require.Len(t, ids, 15, "batches after the failure must still be ingested")
	assert.Equal(t, int64(1), ids[0])
	assert.Equal(t, int64(10), ids[9])
	assert.Equal(t, int64(21), ids[10])
	assert.Equal(t, int64(25), ids[14])
}

func TestIngestWorker_CheckpointNotAdvancedPastSecondFailure(t *testing.T) {
	source := &memSource{products: testCatalog(30)}
	checkpoint := &memCheckpoint{}
	repo := &memRepo{}
	encoder := &stubEncoder{failOn: map[string]bool{
		"img/5-main.jpg":  true,
		"img/25-main.jpg": true,
	}}

	worker := newTestWorker(source, checkpoint, repo, encoder, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	assert.Zero(t, checkpoint.offset, "first failed batch pins the checkpoint")
	assert.Len(t, repo.upserted, 10, "only the clean middle batch is ingested")
}

func TestIngestWorker_ProductWithoutImagesFailsBatch(t *testing.T) {
	products := testCatalog(10)
	products[3].Images = nil

	source := &memSource{products: products}
	checkpoint := &memCheckpoint{}
	repo := &memRepo{}

	worker := newTestWorker(source, checkpoint, repo, &stubEncoder{}, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	assert.Zero(t, checkpoint.offset)
	assert.Empty(t, repo.upserted)
}

func TestIngestWorker_FirstImageVectorBecomesProductVector(t *testing.T) {
	source := &memSource{products: testCatalog(2)}
	checkpoint := &memCheckpoint{}
	repo := &memRepo{}
	encoder := &stubEncoder{}

	worker := newTestWorker(source, checkpoint, repo, encoder, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	require.Len(t, repo.upserted, 2)
	// Источники идут подряд: img/1-main, img/1-alt, img/2-main, img/2-alt.
	assert.Equal(t, []float32{float32(len("img/1-main.jpg")), 0}, repo.upserted[0].Vector)
	assert.Equal(t, []float32{float32(len("img/2-main.jpg")), 2}, repo.upserted[1].Vector)
}

func TestIngestWorker_UpToDateCatalog(t *testing.T) {
	source := &memSource{products: testCatalog(5)}
	checkpoint := &memCheckpoint{offset: 5}
	repo := &memRepo{}

	worker := newTestWorker(source, checkpoint, repo, &stubEncoder{}, nil)
	require.NoError(t, worker.RunPass(context.Background()))

	assert.Empty(t, repo.upserted)
	assert.Empty(t, checkpoint.saves)
}

func TestIngestWorker_PublishesBatchEvents(t *testing.T) {
	source := &memSource{products: testCatalog(15)}
	checkpoint := &memCheckpoint{}
	repo := &memRepo{}
	producer := &memProducer{}

	worker := newTestWorker(source, checkpoint, repo, &stubEncoder{}, producer)
	require.NoError(t, worker.RunPass(context.Background()))

	require.Len(t, producer.events, 2)
	assert.Equal(t, 0, producer.events[0].BatchStart)
	assert.Equal(t, 10, producer.events[0].Count)
	assert.Equal(t, "products", producer.events[0].Collection)
	assert.Equal(t, 10, producer.events[1].BatchStart)
	assert.Equal(t, 5, producer.events[1].Count)
	assert.NotEmpty(t, producer.events[0].EventID)
	assert.NotEqual(t, producer.events[0].EventID, producer.events[1].EventID)
}
