// backend-go/internal/repository/efficiency_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
)

// InvoiceRepository reads invoices with their lines attached.
type InvoiceRepository interface {
	ListInvoicesInRange(ctx context.Context, from, to time.Time, documentTypes []string) ([]domain.Invoice, error)
	ListInvoicesByOrderNumbers(ctx context.Context, orderNumbers []int64, documentTypes []string) ([]domain.Invoice, error)
	SearchClients(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, error)
}

type OrderRepository interface {
	ListOrdersByNumbers(ctx context.Context, orderNumbers []int64) ([]domain.Order, error)
	ListOrderLines(ctx context.Context, orderIDs []int64) ([]domain.OrderLine, error)
}

type CatalogRepository interface {
	ListProductsForOrders(ctx context.Context, orderIDs []int64) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
