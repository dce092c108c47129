package images

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslook/go-backend/internal/cfg"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/disintegration/imaging"
)

func testImagesCfg() *cfg.ImagesCfg {
	return &cfg.ImagesCfg{
		FetchTimeout: 5 * time.Second,
		MaxImageEdge: 224,
	}
}

// pngBytes кодирует однотонное изображение заданного размера в PNG.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := imaging.New(width, height, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))

	return buf.Bytes()
}

func TestFetcher_Fetch_DownscalesLargeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(pngBytes(t, 800, 600))
	}))
	defer srv.Close()

	data, err := NewFetcher(testImagesCfg(), nil, "").Fetch(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 224, bounds.Dx(), "long edge must be capped")
	assert.Equal(t, 168, bounds.Dy(), "aspect ratio must be preserved")

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestFetcher_Fetch_KeepsSmallImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(pngBytes(t, 100, 80))
	}))
	defer srv.Close()

	data, err := NewFetcher(testImagesCfg(), nil, "").Fetch(context.Background(), srv.URL+"/img.png")
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestFetcher_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher(testImagesCfg(), nil, "").Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrImageFetch)
}

func TestFetcher_Fetch_NotAnImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	_, err := NewFetcher(testImagesCfg(), nil, "").Fetch(context.Background(), srv.URL+"/img.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrImageFetch)
}

func TestFetcher_Fetch_ObjectKeyWithoutMinio(t *testing.T) {
	_, err := NewFetcher(testImagesCfg(), nil, "").Fetch(context.Background(), "catalog/42-1.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrImageFetch)
}
