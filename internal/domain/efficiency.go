package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Pivot names an aggregation dimension.
type Pivot string

const (
	PivotClient   Pivot = "client"
	PivotProduct  Pivot = "product"
	PivotCategory Pivot = "category"
	PivotOrder    Pivot = "order"
	PivotMonth    Pivot = "month"
)

var pivotAliases = map[string]Pivot{
	"client":     PivotClient,
	"clients":    PivotClient,
	"product":    PivotProduct,
	"products":   PivotProduct,
	"category":   PivotCategory,
	"categories": PivotCategory,
	"order":      PivotOrder,
	"orders":     PivotOrder,
	"month":      PivotMonth,
	"months":     PivotMonth,
}

// ParsePivot accepts singular and plural pivot names, case-insensitively.
func ParsePivot(value string) (Pivot, bool) {
	p, ok := pivotAliases[strings.ToLower(strings.TrimSpace(value))]
	return p, ok
}

// ClientFillRate is one entry of the top/bottom client cards.
type ClientFillRate struct {
	Client   string  `json:"client"`
	FillRate float64 `json:"fill_rate"`
}

// ProblemProduct is a product with the largest unfulfilled quantity.
type ProblemProduct struct {
	ItemCode       string  `json:"item_code"`
	Description    string  `json:"description"`
	UnfulfilledQty float64 `json:"unfulfilled_qty"`
}

// ExecutiveSummary is the headline payload for a period.
type ExecutiveSummary struct {
	DateFrom              string           `json:"date_from"`
	DateTo                string           `json:"date_to"`
	TotalOrders           int              `json:"total_orders"`
	TotalInvoices         int              `json:"total_invoices"`
	FillRateOverall       float64          `json:"fill_rate_overall"`
	WeightedFillRate      float64          `json:"weighted_fill_rate"`
	AvgLeadTimeDays       *float64         `json:"avg_lead_time_days"`
	DelayedOrderCount     int              `json:"delayed_order_count"`
	PctHighFillRate       float64          `json:"pct_high_fill_rate"`
	PctLowFillRate        float64          `json:"pct_low_fill_rate"`
	VariationFillRate     float64          `json:"variation_fill_rate"`
	VariationLeadTime     float64          `json:"variation_lead_time"`
	TopEfficientClients   []ClientFillRate `json:"top_efficient_clients"`
	TopInefficientClients []ClientFillRate `json:"top_inefficient_clients"`
	TopProblemProducts    []ProblemProduct `json:"top_problem_products"`
}

// MonthlyPoint is one entry of the monthly evolution series.
type MonthlyPoint struct {
	Month        string   `json:"month"`
	FillRate     float64  `json:"fill_rate"`
	LeadTimeDays *float64 `json:"lead_time_days"`
}

// Outlier is a product with low fill rate.
type Outlier struct {
	ItemCode        string   `json:"item_code"`
	Description     string   `json:"description"`
	Ordered         float64  `json:"ordered"`
	Invoiced        float64  `json:"invoiced"`
	FillRate        float64  `json:"fill_rate"`
	AvgLeadTimeDays *float64 `json:"avg_lead_time_days"`
}

// DetailRow has the same metric shape for every pivot.
type DetailRow struct {
	Key              string          `json:"key"`
	Label            string          `json:"label"`
	OrderedQty       float64         `json:"ordered_qty"`
	InvoicedQty      float64         `json:"invoiced_qty"`
	FillRate         float64         `json:"fill_rate"`
	WeightedFillRate float64         `json:"weighted_fill_rate"`
	AvgLeadTimeDays  *float64        `json:"avg_lead_time_days"`
	MonetaryOrdered  decimal.Decimal `json:"monetary_ordered"`
	MonetaryInvoiced decimal.Decimal `json:"monetary_invoiced"`
}

// DetailQuery selects one page of a pivot.
type DetailQuery struct {
	Pivot         Pivot
	Page          int
	PageSize      int
	SortField     string
	SortDirection string
}

// DetailPage represents the paginated response for pivot detail rows
type DetailPage struct {
	Pivot      Pivot       `json:"pivot"`
	Items      []DetailRow `json:"items"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// OrderItemDetail is one item of an order drill-down.
type OrderItemDetail struct {
	ItemCode       string          `json:"item_code"`
	Description    string          `json:"description"`
	OrderedQty     float64         `json:"ordered_qty"`
	InvoicedQty    float64         `json:"invoiced_qty"`
	RawInvoicedQty float64         `json:"raw_invoiced_qty"`
	FillRate       float64         `json:"fill_rate"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	InvoicedValue  decimal.Decimal `json:"invoiced_value"`
	LeadTimeDays   *int            `json:"lead_time_days"`
	CompletionDays *int            `json:"completion_days"`
	FirstInvoiceAt *time.Time      `json:"first_invoice_at"`
	LastInvoiceAt  *time.Time      `json:"last_invoice_at"`
}

// OrderDetail is the drill-down of a single order.
type OrderDetail struct {
	OrderID          int64             `json:"order_id"`
	OrderNumber      int64             `json:"order_number"`
	OrderDate        string            `json:"order_date"`
	ClientName       string            `json:"client_name"`
	InvoiceDates     []string          `json:"invoice_dates"`
	OrderedQty       float64           `json:"ordered_qty"`
	InvoicedQty      float64           `json:"invoiced_qty"`
	FillRate         float64           `json:"fill_rate"`
	WeightedFillRate float64           `json:"weighted_fill_rate"`
	LeadTimeDays     *int              `json:"lead_time_days"`
	MonetaryOrdered  decimal.Decimal   `json:"monetary_ordered"`
	MonetaryInvoiced decimal.Decimal   `json:"monetary_invoiced"`
	Items            []OrderItemDetail `json:"items"`
}

// ProductOrderRow is one order containing a given product.
type ProductOrderRow struct {
	OrderID          int64           `json:"order_id"`
	OrderNumber      int64           `json:"order_number"`
	OrderDate        string          `json:"order_date"`
	ClientName       string          `json:"client_name"`
	ItemCode         string          `json:"item_code"`
	Description      string          `json:"description"`
	OrderedQty       float64         `json:"ordered_qty"`
	InvoicedQty      float64         `json:"invoiced_qty"`
	FillRate         float64         `json:"fill_rate"`
	WeightedFillRate float64         `json:"weighted_fill_rate"`
	MonetaryOrdered  decimal.Decimal `json:"monetary_ordered"`
	MonetaryInvoiced decimal.Decimal `json:"monetary_invoiced"`
	InvoiceDates     []string        `json:"invoice_dates"`
	LeadTimeDays     *int            `json:"lead_time_days"`
}
