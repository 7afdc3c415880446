package efficiency

import (
	"sort"
	"strings"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
)

// Result is one completed computation: the index, the reconciliation and
// every pivot aggregated in the same pass.
type Result struct {
	Filter         domain.EfficiencyFilter
	Index          *Index
	Reconciliation *Reconciliation

	calc   Calculator
	cfg    Config
	pivots map[domain.Pivot]*Aggregator[*Fact]
}

// Run reconciles loaded records into a Result. It is pure: the same
// records always produce the same Result.
func Run(rec *Records, cfg Config) *Result {
	if rec == nil {
		rec = &Records{}
	}
	idx := BuildIndex(rec, cfg)

	keys := pivotKeys(cfg)
	pivots := make(map[domain.Pivot]*Aggregator[*Fact], len(keys))
	sinks := make([]Sink, 0, len(keys))
	for pivot, key := range keys {
		a := NewAggregator(pivot, key, factMeasures)
		pivots[pivot] = a
		sinks = append(sinks, a)
	}

	rc := Reconcile(idx, cfg, Scope{Filter: rec.Filter}, sinks...)

	return &Result{
		Filter:         rec.Filter,
		Index:          idx,
		Reconciliation: rc,
		calc:           NewCalculator(cfg),
		cfg:            cfg,
		pivots:         pivots,
	}
}

// Pivot returns the aggregator of a pivot.
func (r *Result) Pivot(p domain.Pivot) *Aggregator[*Fact] {
	return r.pivots[p]
}

// Overall is the single aggregate across the whole request.
func (r *Result) Overall() Measures {
	if b, ok := r.pivots[PivotOverall].Bucket("all"); ok {
		return b.Measures
	}
	return Measures{}
}

func (r *Result) overallLeadTime() *float64 {
	if b, ok := r.pivots[PivotOverall].Bucket("all"); ok {
		return r.calc.Mean(b.LeadTimeSamples())
	}
	return nil
}

// Summary builds the executive summary of this period. Variation fields
// are left at zero; see WithVariation.
func (r *Result) Summary() *domain.ExecutiveSummary {
	overall := r.Overall()
	summary := &domain.ExecutiveSummary{
		DateFrom:              dayString(r.Filter.DateFrom),
		DateTo:                dayString(r.Filter.DateTo),
		TotalOrders:           len(r.Reconciliation.Orders),
		TotalInvoices:         r.Reconciliation.Stats.Invoices,
		FillRateOverall:       r.calc.FillRate(overall.OrderedQty, overall.EffectiveQty),
		WeightedFillRate:      r.calc.WeightedFillRate(overall.OrderedValue, overall.EffectiveValue),
		AvgLeadTimeDays:       r.overallLeadTime(),
		TopEfficientClients:   []domain.ClientFillRate{},
		TopInefficientClients: []domain.ClientFillRate{},
		TopProblemProducts:    []domain.ProblemProduct{},
	}

	var rated, high, low int
	for _, state := range r.Reconciliation.Orders {
		if state.FirstContributing != nil {
			if lead := r.calc.LeadTimeDays(state.Order.Date, *state.FirstContributing); lead != nil && r.calc.IsDelayed(*lead) {
				summary.DelayedOrderCount++
			}
		}
		if state.OrderedQty <= 0 {
			continue
		}
		rated++
		rate := r.calc.FillRate(state.OrderedQty, state.EffectiveQty)
		if r.calc.IsHighFillRate(rate) {
			high++
		}
		if r.calc.IsLowFillRate(rate) {
			low++
		}
	}
	summary.PctHighFillRate = r.calc.Percentage(high, rated)
	summary.PctLowFillRate = r.calc.Percentage(low, rated)

	clients := r.pivots[domain.PivotClient].Ordered()
	for _, b := range TopN(RankByFillRate(clients, r.calc, true), r.cfg.SummaryTopN) {
		summary.TopEfficientClients = append(summary.TopEfficientClients, domain.ClientFillRate{
			Client:   b.Label,
			FillRate: r.calc.FillRate(b.OrderedQty, b.EffectiveQty),
		})
	}
	for _, b := range TopN(RankByFillRate(clients, r.calc, false), r.cfg.SummaryTopN) {
		summary.TopInefficientClients = append(summary.TopInefficientClients, domain.ClientFillRate{
			Client:   b.Label,
			FillRate: r.calc.FillRate(b.OrderedQty, b.EffectiveQty),
		})
	}

	for _, b := range TopN(RankByUnfulfilled(r.pivots[domain.PivotProduct].Ordered()), r.cfg.SummaryTopN) {
		if b.Unfulfilled() <= 0 {
			break
		}
		summary.TopProblemProducts = append(summary.TopProblemProducts, domain.ProblemProduct{
			ItemCode:       b.Key,
			Description:    b.Label,
			UnfulfilledQty: roundFloat(b.Unfulfilled(), 2),
		})
	}

	return summary
}

// WithVariation fills the period-over-period variation from the summary of
// the preceding period, computed by an independent run.
func WithVariation(current, previous *domain.ExecutiveSummary, calc Calculator) *domain.ExecutiveSummary {
	if current == nil || previous == nil {
		return current
	}
	current.VariationFillRate = calc.Variation(current.FillRateOverall, previous.FillRateOverall)
	current.VariationLeadTime = calc.Variation(valueOrZero(current.AvgLeadTimeDays), valueOrZero(previous.AvgLeadTimeDays))
	return current
}

// Monthly is the evolution series, sorted by month.
func (r *Result) Monthly() []domain.MonthlyPoint {
	buckets := r.pivots[domain.PivotMonth].Buckets()
	points := make([]domain.MonthlyPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, domain.MonthlyPoint{
			Month:        b.Key,
			FillRate:     r.calc.FillRate(b.OrderedQty, b.EffectiveQty),
			LeadTimeDays: r.calc.Mean(b.LeadTimeSamples()),
		})
	}
	return points
}

// Outliers lists the products with the lowest fill rate.
func (r *Result) Outliers() []domain.Outlier {
	worst := WorstByFillRate(r.pivots[domain.PivotProduct].Ordered(), r.calc, r.cfg.OutlierLimit)
	out := make([]domain.Outlier, 0, len(worst))
	for _, b := range worst {
		out = append(out, domain.Outlier{
			ItemCode:        b.Key,
			Description:     b.Label,
			Ordered:         roundFloat(b.OrderedQty, 2),
			Invoiced:        roundFloat(b.EffectiveQty, 2),
			FillRate:        r.calc.FillRate(b.OrderedQty, b.EffectiveQty),
			AvgLeadTimeDays: r.calc.Mean(b.LeadTimeSamples()),
		})
	}
	return out
}

// Rows returns the detail rows of a pivot, sorted by key.
func (r *Result) Rows(p domain.Pivot) ([]domain.DetailRow, error) {
	a, ok := r.pivots[p]
	if !ok || p == PivotOverall {
		return nil, domain.NewValidationError("pivot", "unknown pivot %q", p)
	}
	buckets := a.Ordered()
	rows := make([]domain.DetailRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, r.detailRow(b))
	}
	return rows, nil
}

func (r *Result) detailRow(b *Bucket) domain.DetailRow {
	return domain.DetailRow{
		Key:              b.Key,
		Label:            b.Label,
		OrderedQty:       roundFloat(b.OrderedQty, 2),
		InvoicedQty:      roundFloat(b.EffectiveQty, 2),
		FillRate:         r.calc.FillRate(b.OrderedQty, b.EffectiveQty),
		WeightedFillRate: r.calc.WeightedFillRate(b.OrderedValue, b.EffectiveValue),
		AvgLeadTimeDays:  r.calc.Mean(b.LeadTimeSamples()),
		MonetaryOrdered:  b.OrderedValue.Round(2),
		MonetaryInvoiced: b.EffectiveValue.Round(2),
	}
}

var validSortFields = map[string]func(a, b domain.DetailRow) int{
	"key": func(a, b domain.DetailRow) int {
		if keyLess(a.Key, b.Key) {
			return -1
		}
		if keyLess(b.Key, a.Key) {
			return 1
		}
		return 0
	},
	"label": func(a, b domain.DetailRow) int {
		return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	},
	"ordered_qty":        func(a, b domain.DetailRow) int { return compareFloat(a.OrderedQty, b.OrderedQty) },
	"invoiced_qty":       func(a, b domain.DetailRow) int { return compareFloat(a.InvoicedQty, b.InvoicedQty) },
	"fill_rate":          func(a, b domain.DetailRow) int { return compareFloat(a.FillRate, b.FillRate) },
	"weighted_fill_rate": func(a, b domain.DetailRow) int { return compareFloat(a.WeightedFillRate, b.WeightedFillRate) },
	"avg_lead_time_days": func(a, b domain.DetailRow) int {
		return compareFloat(valueOr(a.AvgLeadTimeDays, -1), valueOr(b.AvgLeadTimeDays, -1))
	},
	"monetary_ordered":  func(a, b domain.DetailRow) int { return a.MonetaryOrdered.Cmp(b.MonetaryOrdered) },
	"monetary_invoiced": func(a, b domain.DetailRow) int { return a.MonetaryInvoiced.Cmp(b.MonetaryInvoiced) },
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Detail returns one sorted page of a pivot.
func (r *Result) Detail(q domain.DetailQuery) (*domain.DetailPage, error) {
	rows, err := r.Rows(q.Pivot)
	if err != nil {
		return nil, err
	}

	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	cmp, ok := validSortFields[q.SortField]
	if !ok {
		cmp = validSortFields["key"]
	}
	desc := strings.EqualFold(q.SortDirection, "desc")
	keyCmp := validSortFields["key"]
	sort.SliceStable(rows, func(i, j int) bool {
		c := cmp(rows[i], rows[j])
		if desc {
			c = -c
		}
		if c == 0 {
			return keyCmp(rows[i], rows[j]) < 0
		}
		return c < 0
	})

	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &domain.DetailPage{
		Pivot:      q.Pivot,
		Items:      rows[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// OrderDetail drills into one order. ok is false when the order is not part of the result.
func (r *Result) OrderDetail(number int64) (*domain.OrderDetail, bool) {
	state, ok := r.Reconciliation.Orders[number]
	if !ok {
		return nil, false
	}
	order := state.Order
	detail := &domain.OrderDetail{
		OrderID:          order.ID,
		OrderNumber:      order.Number,
		OrderDate:        dayString(order.Date),
		ClientName:       order.ClientName,
		InvoiceDates:     r.invoiceDates(number),
		OrderedQty:       roundFloat(state.OrderedQty, 2),
		InvoicedQty:      roundFloat(state.EffectiveQty, 2),
		FillRate:         r.calc.FillRate(state.OrderedQty, state.EffectiveQty),
		WeightedFillRate: r.calc.WeightedFillRate(state.OrderedValue, state.EffectiveValue),
		MonetaryOrdered:  state.OrderedValue.Round(2),
		MonetaryInvoiced: state.EffectiveValue.Round(2),
		Items:            make([]domain.OrderItemDetail, 0, len(state.Items)),
	}
	if state.FirstContributing != nil {
		detail.LeadTimeDays = r.calc.LeadTimeDays(order.Date, *state.FirstContributing)
	}

	for _, item := range state.Items {
		line := domain.OrderItemDetail{
			ItemCode:       item.Key.ItemCode,
			Description:    item.Description,
			OrderedQty:     roundFloat(item.OrderedQty, 2),
			InvoicedQty:    roundFloat(item.EffectiveQty, 2),
			RawInvoicedQty: roundFloat(item.RawQty, 2),
			FillRate:       r.calc.FillRate(item.OrderedQty, item.EffectiveQty),
			UnitPrice:      item.UnitPrice,
			InvoicedValue:  item.EffectiveValue.Round(2),
			FirstInvoiceAt: item.FirstContributing,
			LastInvoiceAt:  item.LastContributing,
		}
		if item.FirstContributing != nil {
			line.LeadTimeDays = r.calc.LeadTimeDays(order.Date, *item.FirstContributing)
		}
		if item.LastContributing != nil {
			line.CompletionDays = r.calc.LeadTimeDays(order.Date, *item.LastContributing)
		}
		detail.Items = append(detail.Items, line)
	}
	return detail, true
}

// ProductOrders lists every order of the result that ordered the given item.
func (r *Result) ProductOrders(itemCode string) []domain.ProductOrderRow {
	code := domain.NormalizeItemCode(itemCode)
	rows := make([]domain.ProductOrderRow, 0)
	for _, number := range r.Index.OrderNumbers() {
		state, ok := r.Reconciliation.Orders[number]
		if !ok {
			continue
		}
		item, ok := r.Reconciliation.Items[ItemKey{OrderNumber: number, ItemCode: code}]
		if !ok {
			continue
		}
		row := domain.ProductOrderRow{
			OrderID:          state.Order.ID,
			OrderNumber:      number,
			OrderDate:        dayString(state.Order.Date),
			ClientName:       state.Order.ClientName,
			ItemCode:         code,
			Description:      item.Description,
			OrderedQty:       roundFloat(item.OrderedQty, 2),
			InvoicedQty:      roundFloat(item.EffectiveQty, 2),
			FillRate:         r.calc.FillRate(item.OrderedQty, item.EffectiveQty),
			WeightedFillRate: r.calc.WeightedFillRate(item.OrderedValue, item.EffectiveValue),
			MonetaryOrdered:  item.OrderedValue.Round(2),
			MonetaryInvoiced: item.EffectiveValue.Round(2),
			InvoiceDates:     r.invoiceDates(number),
		}
		if item.FirstContributing != nil {
			row.LeadTimeDays = r.calc.LeadTimeDays(state.Order.Date, *item.FirstContributing)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OrderDate != rows[j].OrderDate {
			return rows[i].OrderDate < rows[j].OrderDate
		}
		return rows[i].OrderNumber < rows[j].OrderNumber
	})
	return rows
}

func (r *Result) invoiceDates(number int64) []string {
	dates := r.Index.InvoiceDatesByOrder[number]
	if dates == nil {
		return []string{}
	}
	return append([]string(nil), dates...)
}

func valueOrZero(v *float64) float64 {
	return valueOr(v, 0)
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
