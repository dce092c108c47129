package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/lenslook/go-backend/internal/cfg"
	v1Http "github.com/lenslook/go-backend/internal/delivery/v1/http"
	"github.com/lenslook/go-backend/internal/infrastructure/encoder"
	"github.com/lenslook/go-backend/internal/infrastructure/images"
	qdrantRepo "github.com/lenslook/go-backend/internal/repository/qdrant"
	"github.com/lenslook/go-backend/internal/usecase"
	"github.com/lenslook/go-backend/pkg/clients"
	"github.com/lenslook/go-backend/pkg/closer"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	qdrantgo "github.com/qdrant/go-client/qdrant"
)

// App — поисковое HTTP-приложение: принимает текстовые запросы
// и отдает ближайшие продукты из векторного хранилища.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	httpSrv *v1Http.Server
	closer  *closer.Closer
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(0)

	qdrantClient, productRepo, err := initProductRepo(cfg, log, cl)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoderClient, err := initEncoder(cfg, log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	searchUC := usecase.NewSearchUC(productRepo, encoderClient, log)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(searchUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	// Коллекция готовится на старте, чтобы первый запрос не попал
	// в отсутствующую коллекцию.
	ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := productRepo.EnsureCollection(ensureCtx); err != nil {
		qdrantClient.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &App{
		cfg:     cfg,
		logger:  log,
		httpSrv: httpSrv,
		closer:  cl,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до сигнала завершения.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("shutdown finished with errors: %v", err)
	}

	a.logger.Infof("Application shutdown complete")

	return appErr
}

func initProductRepo(cfg *config.Config, log logger.Logger, cl *closer.Closer) (*qdrantgo.Client, *qdrantRepo.ProductRepo, error) {
	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return nil, nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cl.Add(func(_ context.Context) error {
		return qdrantClient.Close()
	})

	return qdrantClient, qdrantRepo.NewProductRepo(qdrantClient, cfg.Qdrant, log), nil
}

func initEncoder(cfg *config.Config, log logger.Logger) (*encoder.EncoderClient, error) {
	fetcher, err := initFetcher(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoderClient, err := encoder.NewEncoderClient(cfg.Encoder, fetcher, log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return encoderClient, nil
}

func initFetcher(cfg *config.Config) (*images.Fetcher, error) {
	// Без настроенного MinIO загрузчик принимает только http(s)-локаторы.
	if cfg.Minio.MinioEndpoint == "" {
		return images.NewFetcher(cfg.Images, nil, ""), nil
	}

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return images.NewFetcher(cfg.Images, minioClient, cfg.Minio.BucketName), nil
}
