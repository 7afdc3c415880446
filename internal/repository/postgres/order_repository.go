package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/lib/pq"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

// ListOrdersByNumbers resolves orders by number. There is deliberately no
// order-date predicate: orders placed before a report window still count.
func (r *orderRepository) ListOrdersByNumbers(ctx context.Context, orderNumbers []int64) ([]domain.Order, error) {
	if len(orderNumbers) == 0 {
		return []domain.Order{}, nil
	}

	query := `
		SELECT
			o.id,
			o.order_number,
			o.order_date,
			COALESCE(o.client_name, '') AS client_name
		FROM orders o
		WHERE o.order_number = ANY($1)
		ORDER BY o.order_number
	`

	var orders []domain.Order
	if err := r.db.SelectLimited(ctx, &orders, query, pq.Array(orderNumbers)); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListOrderLines(ctx context.Context, orderIDs []int64) ([]domain.OrderLine, error) {
	if len(orderIDs) == 0 {
		return []domain.OrderLine{}, nil
	}

	query := `
		SELECT
			ol.id,
			ol.order_id,
			ol.item_code,
			COALESCE(ol.description, '') AS description,
			COALESCE(ol.quantity, 0) AS quantity,
			COALESCE(ol.unit_price, 0) AS unit_price
		FROM order_lines ol
		WHERE ol.order_id = ANY($1)
		ORDER BY ol.order_id, ol.id
	`

	var lines []domain.OrderLine
	if err := r.db.SelectLimited(ctx, &lines, query, pq.Array(orderIDs)); err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	return lines, nil
}
