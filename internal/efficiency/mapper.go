package efficiency

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Index holds read-only lookups over one request's records. Building it
// applies no business rule beyond skipping non-qualifying invoices for the
// per-order first/last and date lists.
type Index struct {
	OrderByID     map[int64]*domain.Order
	OrderByNumber map[int64]*domain.Order

	// LinesByOrderID keeps the fetch order of each order's lines.
	LinesByOrderID map[int64][]domain.OrderLine

	// OrderedQty and OrderedValue are summed per OrderLineKey.
	OrderedQty   map[string]float64
	OrderedValue map[string]decimal.Decimal

	InvoicesByOrderNumber map[int64][]*domain.Invoice
	FirstInvoiceByOrder   map[int64]*domain.Invoice
	LastInvoiceByOrder    map[int64]*domain.Invoice
	InvoiceDatesByOrder   map[int64][]string

	ProductBySKU map[string]*domain.Product
	CategoryByID map[int64]*domain.Category

	descriptions map[string]string
}

// OrderLineKey identifies an item within an order: "<orderId>|<NORMALIZED CODE>".
func OrderLineKey(orderID int64, itemCode string) string {
	return fmt.Sprintf("%d|%s", orderID, domain.NormalizeItemCode(itemCode))
}

// BuildIndex indexes the loaded records.
func BuildIndex(rec *Records, cfg Config) *Index {
	idx := &Index{
		OrderByID:             make(map[int64]*domain.Order),
		OrderByNumber:         make(map[int64]*domain.Order),
		LinesByOrderID:        make(map[int64][]domain.OrderLine),
		OrderedQty:            make(map[string]float64),
		OrderedValue:          make(map[string]decimal.Decimal),
		InvoicesByOrderNumber: make(map[int64][]*domain.Invoice),
		FirstInvoiceByOrder:   make(map[int64]*domain.Invoice),
		LastInvoiceByOrder:    make(map[int64]*domain.Invoice),
		InvoiceDatesByOrder:   make(map[int64][]string),
		ProductBySKU:          make(map[string]*domain.Product),
		CategoryByID:          make(map[int64]*domain.Category),
		descriptions:          make(map[string]string),
	}
	if rec == nil {
		return idx
	}

	for i := range rec.Orders {
		o := &rec.Orders[i]
		idx.OrderByID[o.ID] = o
		idx.OrderByNumber[o.Number] = o
	}

	for _, line := range rec.OrderLines {
		if _, ok := idx.OrderByID[line.OrderID]; !ok {
			continue
		}
		idx.LinesByOrderID[line.OrderID] = append(idx.LinesByOrderID[line.OrderID], line)

		key := OrderLineKey(line.OrderID, line.ItemCode)
		qty := domain.SanitizeQuantity(line.Quantity)
		idx.OrderedQty[key] += qty
		idx.OrderedValue[key] = idx.OrderedValue[key].Add(decimal.NewFromFloat(qty).Mul(domain.SanitizePrice(line.UnitPrice)))
		idx.rememberDescription(line.ItemCode, line.Description)
	}

	for i := range rec.Products {
		p := &rec.Products[i]
		code := domain.NormalizeItemCode(p.SKU)
		idx.ProductBySKU[code] = p
		idx.rememberDescription(code, p.Name)
	}
	for i := range rec.Categories {
		c := &rec.Categories[i]
		idx.CategoryByID[c.ID] = c
	}

	dates := make(map[int64]map[string]struct{})
	for i := range rec.Invoices {
		inv := &rec.Invoices[i]
		idx.InvoicesByOrderNumber[inv.OrderNumber] = append(idx.InvoicesByOrderNumber[inv.OrderNumber], inv)
		for _, line := range inv.Lines {
			idx.rememberDescription(line.ItemCode, line.Description)
		}
		if !cfg.Qualifies(inv) {
			continue
		}

		if first, ok := idx.FirstInvoiceByOrder[inv.OrderNumber]; !ok || invoiceBefore(inv, first) {
			idx.FirstInvoiceByOrder[inv.OrderNumber] = inv
		}
		if last, ok := idx.LastInvoiceByOrder[inv.OrderNumber]; !ok || invoiceBefore(last, inv) {
			idx.LastInvoiceByOrder[inv.OrderNumber] = inv
		}
		if !inv.Date.IsZero() {
			if dates[inv.OrderNumber] == nil {
				dates[inv.OrderNumber] = make(map[string]struct{})
			}
			dates[inv.OrderNumber][inv.Date.Format(domain.DateLayout)] = struct{}{}
		}
	}
	for number, set := range dates {
		list := make([]string, 0, len(set))
		for d := range set {
			list = append(list, d)
		}
		sort.Strings(list)
		idx.InvoiceDatesByOrder[number] = list
	}

	return idx
}

// Description returns the best known description for an item code, or the code itself.
func (idx *Index) Description(itemCode string) string {
	code := domain.NormalizeItemCode(itemCode)
	if d, ok := idx.descriptions[code]; ok {
		return d
	}
	return code
}

// Category resolves an item's category, if the product is known and categorized.
func (idx *Index) Category(itemCode string) (*domain.Category, bool) {
	p, ok := idx.ProductBySKU[domain.NormalizeItemCode(itemCode)]
	if !ok || p.CategoryID == nil {
		return nil, false
	}
	c, ok := idx.CategoryByID[*p.CategoryID]
	return c, ok
}

// OrderNumbers returns the indexed order numbers in ascending order.
func (idx *Index) OrderNumbers() []int64 {
	numbers := make([]int64, 0, len(idx.OrderByNumber))
	for n := range idx.OrderByNumber {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

// order lines win over catalog names, which win over invoice lines
func (idx *Index) rememberDescription(itemCode, description string) {
	code := domain.NormalizeItemCode(itemCode)
	if code == "" || description == "" {
		return
	}
	if _, ok := idx.descriptions[code]; !ok {
		idx.descriptions[code] = description
	}
}

// invoiceBefore orders invoices by date, then by id.
func invoiceBefore(a, b *domain.Invoice) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

func dayString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}
