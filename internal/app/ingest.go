package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/internal/infrastructure/kafka"
	"github.com/lenslook/go-backend/internal/infrastructure/pipeline"
	"github.com/lenslook/go-backend/internal/repository/catalogfile"
	"github.com/lenslook/go-backend/internal/repository/checkpoint"
	"github.com/lenslook/go-backend/internal/repository/pgdb"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/clients"
	"github.com/lenslook/go-backend/pkg/closer"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
	"github.com/lenslook/go-backend/pkg/postgres"
	"github.com/jimlawless/whereami"
)

// checkpointRedisKey — ключ контрольной точки пайплайна в Redis.
const checkpointRedisKey = "catalog:ingest:checkpoint"

// IngestApp — приложение пайплайна загрузки каталога в векторное хранилище.
type IngestApp struct {
	cfg    *config.Config
	logger logger.Logger
	worker *pipeline.IngestWorker
	closer *closer.Closer
}

func NewIngestApp(cfg *config.Config, log logger.Logger) (*IngestApp, error) {
	cl := closer.NewCloser(0)

	_, productRepo, err := initProductRepo(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoderClient, err := initEncoder(cfg, log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	source, err := initCatalogSource(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	store, err := initCheckpointStore(cfg, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	producer, err := initProducer(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	worker := pipeline.NewIngestWorker(
		source,
		store,
		productRepo,
		encoderClient,
		producer,
		cfg.Pipeline,
		cfg.Qdrant.QdrantCollectionName,
		log,
	)

	return &IngestApp{
		cfg:    cfg,
		logger: log,
		worker: worker,
		closer: cl,
	}, nil
}

// Run запускает пайплайн и блокируется до сигнала завершения.
func (a *IngestApp) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.worker.Start(ctx)
	a.logger.Infof("Ingest pipeline started. source: %s, batch_size: %d, poll_interval: %v",
		a.cfg.Pipeline.CatalogSource, a.cfg.Pipeline.BatchSize, a.cfg.Pipeline.PollInterval)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	a.logger.Infof("Received shutdown signal, stopping gracefully...")
	cancel()
	a.worker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	}

	a.logger.Infof("Pipeline shutdown complete")

	return nil
}

func initCatalogSource(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.CatalogSource, error) {
	switch cfg.Pipeline.CatalogSource {
	case config.CatalogSourceFile:
		return catalogfile.NewSource(cfg.Pipeline.CatalogPath), nil

	case config.CatalogSourcePostgres:
		db, err := postgres.Connect(cfg.Db)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		if err := db.RunMigrations(log); err != nil {
			db.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cl.Add(func(_ context.Context) error {
			db.Close()
			return nil
		})

		return pgdb.NewCatalogRepo(db.Pool), nil

	default:
		return nil, fmt.Errorf("unknown catalog source: %s", cfg.Pipeline.CatalogSource)
	}
}

func initCheckpointStore(cfg *config.Config, cl *closer.Closer) (usecase.CheckpointStore, error) {
	switch cfg.Pipeline.CheckpointStore {
	case config.CheckpointStoreFile:
		return checkpoint.NewFileStore(cfg.Pipeline.CheckpointPath), nil

	case config.CheckpointStoreRedis:
		redisClient := clients.NewRedisClient(cfg.Redis)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		cl.Add(func(_ context.Context) error {
			return redisClient.Client.Close()
		})

		return checkpoint.NewRedisStore(redisClient, checkpointRedisKey), nil

	default:
		return nil, fmt.Errorf("unknown checkpoint store: %s", cfg.Pipeline.CheckpointStore)
	}
}

// initProducer создает Kafka-продюсер событий индексации.
// Без настроенных брокеров события отключены и возвращается nil.
func initProducer(cfg *config.Config, log logger.Logger, cl *closer.Closer) (usecase.EventProducer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cl.Add(func(_ context.Context) error {
		return producer.Close()
	})

	return producer, nil
}
