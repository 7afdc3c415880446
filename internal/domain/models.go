package domain

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a customer purchase request. Invoices reference it by Number, not ID.
type Order struct {
	ID         int64     `json:"id" db:"id"`
	Number     int64     `json:"order_number" db:"order_number"`
	Date       time.Time `json:"order_date" db:"order_date"`
	ClientName string    `json:"client_name" db:"client_name"`
}

// OrderLine is one ordered item. Several lines of the same order may share an item code.
type OrderLine struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     int64           `json:"order_id" db:"order_id"`
	ItemCode    string          `json:"item_code" db:"item_code"`
	Description string          `json:"description" db:"description"`
	Quantity    float64         `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Invoice is a billing document fulfilling all or part of one order.
type Invoice struct {
	ID           int64         `json:"id" db:"id"`
	OrderNumber  int64         `json:"order_number" db:"order_number"`
	Date         time.Time     `json:"invoice_date" db:"invoice_date"`
	Voided       bool          `json:"voided" db:"voided"`
	DocumentType string        `json:"document_type" db:"document_type"`
	BusinessName string        `json:"business_name" db:"business_name"`
	Lines        []InvoiceLine `json:"lines" db:"-"`
}

type InvoiceLine struct {
	ID          int64           `json:"id" db:"id"`
	InvoiceID   int64           `json:"invoice_id" db:"invoice_id"`
	ItemCode    string          `json:"item_code" db:"item_code"`
	Description string          `json:"description" db:"description"`
	Quantity    float64         `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Product maps a SKU (the item code on order and invoice lines) to its category.
type Product struct {
	SKU        string `json:"sku" db:"sku"`
	Name       string `json:"name" db:"name"`
	CategoryID *int64 `json:"category_id" db:"category_id"`
}

type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// ClientSuggestion is a distinct client name seen on invoiced orders.
type ClientSuggestion struct {
	Name         string `json:"name" db:"client_name"`
	BusinessName string `json:"business_name" db:"business_name"`
}

// NormalizeItemCode trims and upper-cases an item code so order and invoice lines match.
func NormalizeItemCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SanitizeQuantity treats negative and non-numeric quantities as zero.
func SanitizeQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}
	return q
}

// SanitizePrice treats negative prices as zero.
func SanitizePrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}
