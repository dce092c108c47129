package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/lenslook/go-backend/pkg/jitter"
	"github.com/lenslook/go-backend/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ImageFetcher загружает исходные байты изображения по его локатору.
type ImageFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// EncoderClient клиент внешнего CLIP-сервиса кодирования текста и изображений.
// Текстовые векторы кэшируются: повторный запрос с тем же текстом возвращает
// побайтово идентичный вектор без обращения к сервису.
type EncoderClient struct {
	httpClient *http.Client
	cfg        *cfg.EncoderCfg
	fetcher    ImageFetcher
	cache      *lru.Cache[string, []float32]
	logger     logger.Logger
}

func NewEncoderClient(cfg *cfg.EncoderCfg, fetcher ImageFetcher, logger logger.Logger) (*EncoderClient, error) {
	cache, err := lru.New[string, []float32](cfg.CacheSize)
	if err != nil {
		return nil, e.Wrap("encoder cache", err)
	}

	return &EncoderClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		fetcher:    fetcher,
		cache:      cache,
		logger:     logger,
	}, nil
}

type encodeTextReq struct {
	Text string `json:"text"`
}

type encodeRes struct {
	Vector []float32 `json:"vector"`
}

// EncodeText кодирует текст запроса в нормализованный вектор.
func (c *EncoderClient) EncodeText(ctx context.Context, text string) ([]float32, error) {
	const op = "EncoderClient.EncodeText"

	if vector, ok := c.cache.Get(text); ok {
		return vector, nil
	}

	body, err := json.Marshal(encodeTextReq{Text: text})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := c.encodeWithRetry(ctx, c.cfg.BaseURL+"/v1/encode/text", "application/json", body)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.cache.Add(text, vector)

	return vector, nil
}

// EncodeImages кодирует изображения в векторы, сохраняя порядок источников.
// Запросы выполняются параллельно с ограничением конкурентности; первая
// ошибка отменяет остальные.
func (c *EncoderClient) EncodeImages(ctx context.Context, sources []string) ([][]float32, error) {
	const op = "EncoderClient.EncodeImages"

	if len(sources) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(sources))
	errCh := make(chan error, len(sources))
	sem := make(chan struct{}, c.cfg.MaxConcurrent)

	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}

			vector, err := c.encodeImage(ctx, source)
			if err != nil {
				cancel()
				errCh <- err
				return
			}

			vectors[i] = vector
		}()
	}

	wg.Wait()
	close(errCh)

	// Ошибка отмены вторична: интересна причина, вызвавшая отмену.
	var firstErr error
	for err := range errCh {
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, e.Wrap(op, firstErr)
	}

	return vectors, nil
}

// encodeImage загружает изображение и отправляет его кодировщику.
func (c *EncoderClient) encodeImage(ctx context.Context, source string) ([]float32, error) {
	data, err := c.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("source %s", source), err)
	}

	vector, err := c.encodeWithRetry(ctx, c.cfg.BaseURL+"/v1/encode/image", "image/jpeg", data)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("source %s", source), err)
	}

	return vector, nil
}

// encodeWithRetry выполняет запрос к кодировщику с retry-логикой и экспоненциальной задержкой.
// Ошибки клиента (4xx) не повторяются.
func (c *EncoderClient) encodeWithRetry(ctx context.Context, url string, contentType string, body []byte) ([]float32, error) {
	const (
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		vector, retryable, err := c.encodeOnce(ctx, url, contentType, body)
		if err == nil {
			return vector, nil
		}
		lastErr = err

		if !retryable || attempt == c.cfg.MaxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseJitter, maxJitter, attempt, jitter.DefaultJitter)
		c.logger.Warnf("encode request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

func (c *EncoderClient) encodeOnce(ctx context.Context, url string, contentType string, body []byte) ([]float32, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, e.Wrap(err.Error(), e.ErrEncodingFailed)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, e.Wrap(err.Error(), e.ErrEncodingFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		retryable := resp.StatusCode >= http.StatusInternalServerError
		return nil, retryable, e.Wrap(fmt.Sprintf("status %d: %s", resp.StatusCode, msg), e.ErrEncodingFailed)
	}

	var res encodeRes
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, false, e.Wrap(err.Error(), e.ErrEncodingFailed)
	}

	if len(res.Vector) != domain.VectorSize {
		return nil, false, e.Wrap(fmt.Sprintf("got %d, want %d", len(res.Vector), domain.VectorSize), e.ErrVectorSizeMismatch)
	}

	return res.Vector, false, nil
}
