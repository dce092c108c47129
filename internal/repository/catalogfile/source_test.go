package catalogfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_ReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[
		{"id": 1, "name": "tee", "images": ["img/1.jpg"], "shop_id": 3, "shop_name": "main", "status": "active", "current_price": 19.99},
		{"id": 2, "name": "cap", "images": [], "shop_id": 3, "shop_name": "main", "status": "active"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	products, err := NewSource(path).ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "tee", products[0].Name)
	require.NotNil(t, products[0].CurrentPrice)
	assert.Equal(t, 19.99, *products[0].CurrentPrice)

	assert.Equal(t, int64(2), products[1].ID)
	assert.Nil(t, products[1].CurrentPrice)
	assert.Empty(t, products[1].Images)
}

func TestSource_ReadAll_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "absent.json")).ReadAll(context.Background())
	require.Error(t, err)
}

func TestSource_ReadAll_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	_, err := NewSource(path).ReadAll(context.Background())
	require.Error(t, err)
}
