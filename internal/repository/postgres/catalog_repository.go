package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/lib/pq"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

// ListProductsForOrders returns the catalog entries of every item code ordered by the orders.
func (r *catalogRepository) ListProductsForOrders(ctx context.Context, orderIDs []int64) ([]domain.Product, error) {
	if len(orderIDs) == 0 {
		return []domain.Product{}, nil
	}

	query := `
		SELECT DISTINCT
			p.sku,
			COALESCE(p.name, '') AS name,
			p.category_id
		FROM products p
		JOIN order_lines ol ON UPPER(TRIM(ol.item_code)) = UPPER(TRIM(p.sku))
		WHERE ol.order_id = ANY($1)
		ORDER BY p.sku
	`

	var products []domain.Product
	if err := r.db.SelectLimited(ctx, &products, query, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name
		FROM categories
		ORDER BY id
	`

	var categories []domain.Category
	if err := r.db.SelectLimited(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
