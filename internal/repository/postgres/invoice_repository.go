package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const invoiceColumns = `
	i.id,
	i.order_number,
	i.invoice_date,
	i.voided,
	COALESCE(i.document_type, '') AS document_type,
	COALESCE(i.business_name, '') AS business_name`

type invoiceRepository struct {
	db *DB
}

func NewInvoiceRepository(db *DB) *invoiceRepository {
	return &invoiceRepository{db: db}
}

// ListInvoicesInRange returns the non-voided invoices dated within [from, to], lines attached.
func (r *invoiceRepository) ListInvoicesInRange(ctx context.Context, from, to time.Time, documentTypes []string) ([]domain.Invoice, error) {
	filterClause, filterArgs := buildInvoiceFilterClause("i", documentTypes, 3)
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		WHERE i.invoice_date BETWEEN $1 AND $2%s
		ORDER BY i.invoice_date, i.id
	`, invoiceColumns, filterClause)

	args := append([]interface{}{from, to}, filterArgs...)
	var invoices []domain.Invoice
	if err := r.db.SelectLimited(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices in range: %w", err)
	}

	log.Debug().
		Time("from", from).
		Time("to", to).
		Int("invoices", len(invoices)).
		Msg("invoice repository: fetched invoices in range")

	return r.attachLines(ctx, invoices)
}

// ListInvoicesByOrderNumbers returns the complete, date-unbounded invoice history of the orders.
func (r *invoiceRepository) ListInvoicesByOrderNumbers(ctx context.Context, orderNumbers []int64, documentTypes []string) ([]domain.Invoice, error) {
	if len(orderNumbers) == 0 {
		return []domain.Invoice{}, nil
	}

	filterClause, filterArgs := buildInvoiceFilterClause("i", documentTypes, 2)
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		WHERE i.order_number = ANY($1)%s
		ORDER BY i.invoice_date, i.id
	`, invoiceColumns, filterClause)

	args := append([]interface{}{pq.Array(orderNumbers)}, filterArgs...)
	var invoices []domain.Invoice
	if err := r.db.SelectLimited(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices by order numbers: %w", err)
	}

	return r.attachLines(ctx, invoices)
}

func (r *invoiceRepository) attachLines(ctx context.Context, invoices []domain.Invoice) ([]domain.Invoice, error) {
	if len(invoices) == 0 {
		return invoices, nil
	}

	ids := make([]int64, len(invoices))
	byID := make(map[int64]int, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
		byID[inv.ID] = i
	}

	query := `
		SELECT
			l.id,
			l.invoice_id,
			l.item_code,
			COALESCE(l.description, '') AS description,
			COALESCE(l.quantity, 0) AS quantity,
			COALESCE(l.unit_price, 0) AS unit_price
		FROM invoice_lines l
		WHERE l.invoice_id = ANY($1)
		ORDER BY l.invoice_id, l.id
	`

	var lines []domain.InvoiceLine
	if err := r.db.SelectLimited(ctx, &lines, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list invoice lines: %w", err)
	}

	for _, line := range lines {
		if i, ok := byID[line.InvoiceID]; ok {
			invoices[i].Lines = append(invoices[i].Lines, line)
		}
	}
	return invoices, nil
}

// SearchClients suggests distinct client names of orders that have been invoiced.
func (r *invoiceRepository) SearchClients(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, error) {
	query := `
		SELECT DISTINCT
			o.client_name,
			COALESCE(i.business_name, '') AS business_name
		FROM orders o
		JOIN invoices i ON i.order_number = o.order_number
		WHERE i.voided = false
		  AND (o.client_name ILIKE $1 OR i.business_name ILIKE $1)
		ORDER BY o.client_name, business_name
		LIMIT $2
	`

	var suggestions []domain.ClientSuggestion
	if err := r.db.SelectLimited(ctx, &suggestions, query, clientSearchPattern(search), limit); err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return suggestions, nil
}
