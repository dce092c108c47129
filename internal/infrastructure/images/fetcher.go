package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/disintegration/imaging"
	"github.com/minio/minio-go/v7"
)

// Fetcher загружает исходные изображения каталога и нормализует их
// перед отправкой кодировщику: декодирует, уменьшает длинную сторону
// до MaxImageEdge и перекодирует в JPEG.
// Локаторы вида http(s)://... читаются по сети; остальные трактуются
// как ключи объектов MinIO. Без настроенного MinIO принимаются только
// http(s)-локаторы.
type Fetcher struct {
	httpClient  *http.Client
	minioClient *minio.Client // nil, если MinIO не настроен
	bucket      string
	maxEdge     int
}

func NewFetcher(cfg *cfg.ImagesCfg, minioClient *minio.Client, bucket string) *Fetcher {
	return &Fetcher{
		httpClient:  &http.Client{Timeout: cfg.FetchTimeout},
		minioClient: minioClient,
		bucket:      bucket,
		maxEdge:     cfg.MaxImageEdge,
	}
}

// Fetch загружает изображение по локатору и возвращает нормализованные JPEG-байты.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	const op = "Fetcher.Fetch"

	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		raw, err = f.fetchHTTP(ctx, source)
	} else {
		raw, err = f.fetchObject(ctx, source)
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	normalized, err := f.normalize(raw)
	if err != nil {
		return nil, e.Wrap(op, e.Wrap(fmt.Sprintf("source %s: %s", source, err.Error()), e.ErrImageFetch))
	}

	return normalized, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrImageFetch)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrImageFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(fmt.Sprintf("%s: status %d", url, resp.StatusCode), e.ErrImageFetch)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrImageFetch)
	}

	return data, nil
}

func (f *Fetcher) fetchObject(ctx context.Context, key string) ([]byte, error) {
	if f.minioClient == nil {
		return nil, e.Wrap(fmt.Sprintf("object key %q without configured object storage", key), e.ErrImageFetch)
	}

	obj, err := f.minioClient.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrImageFetch)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrImageFetch)
	}

	return data, nil
}

// normalize декодирует изображение, уменьшает его до maxEdge по длинной
// стороне без изменения пропорций и перекодирует в JPEG.
// Изображения меньше maxEdge не увеличиваются.
func (f *Fetcher) normalize(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() > f.maxEdge || bounds.Dy() > f.maxEdge {
		img = imaging.Fit(img, f.maxEdge, f.maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
