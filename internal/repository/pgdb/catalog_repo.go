package pgdb

import (
	"context"

	"github.com/lenslook/go-backend/internal/domain"
	"github.com/lenslook/go-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CatalogRepo читает каталог продуктов из PostgreSQL.
// Каталог отдается отсортированным по id: смещения батчей пайплайна
// стабильны, пока записи не удаляются.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// ReadAll возвращает весь каталог продуктов в порядке возрастания id.
func (c *CatalogRepo) ReadAll(ctx context.Context) ([]domain.ProductPayload, error) {
	query := `
		SELECT
			id, name, description, material, rating, images, code,
			brand_id, brand_name, category_id, category_name,
			gender_id, gender_name, shop_id, shop_name, link, status,
			colors, sizes, region, currency,
			current_price, old_price, off_percent, update_date
		FROM products
		ORDER BY id
	`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var products []domain.ProductPayload
	for rows.Next() {
		var p domain.ProductPayload
		err = rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Material, &p.Rating, &p.Images, &p.Code,
			&p.BrandID, &p.BrandName, &p.CategoryID, &p.CategoryName,
			&p.GenderID, &p.GenderName, &p.ShopID, &p.ShopName, &p.Link, &p.Status,
			&p.Colors, &p.Sizes, &p.Region, &p.Currency,
			&p.CurrentPrice, &p.OldPrice, &p.OffPercent, &p.UpdateDate,
		)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}
