package efficiency

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// ItemKey identifies an item within an order for the consumption ledger.
type ItemKey struct {
	OrderNumber int64
	ItemCode    string
}

// Fact is one reconciled observation fed to the aggregators. Ordered facts
// (InvoiceID == 0) carry the ordered measures of an order item; invoice
// facts carry the effective and raw quantities of one invoice line.
type Fact struct {
	OrderID      int64
	OrderNumber  int64
	OrderDate    time.Time
	Client       string
	ItemCode     string
	Description  string
	CategoryID   *int64
	CategoryName string
	Month        string

	InvoiceID   int64
	InvoiceDate time.Time

	OrderedQty     float64
	OrderedValue   decimal.Decimal
	EffectiveQty   float64
	EffectiveValue decimal.Decimal
	RawQty         float64
	LeadTimeDays   *int
}

// Sink receives every fact of a reconciliation pass.
type Sink interface {
	Add(f *Fact)
}

// ItemState is the reconciled state of one ordered item.
type ItemState struct {
	Key            ItemKey
	OrderID        int64
	Description    string
	UnitPrice      decimal.Decimal
	OrderedQty     float64
	OrderedValue   decimal.Decimal
	EffectiveQty   float64
	EffectiveValue decimal.Decimal
	RawQty         float64

	// FirstContributing is the first invoice date that added effective quantity.
	FirstContributing *time.Time
	// LastContributing may be advanced by redundant lines, see Config.
	LastContributing *time.Time
}

// OrderState is the reconciled state of one order.
type OrderState struct {
	Order          *domain.Order
	Items          []*ItemState
	OrderedQty     float64
	OrderedValue   decimal.Decimal
	EffectiveQty   float64
	EffectiveValue decimal.Decimal
	RawQty         float64
	InvoiceIDs     []int64

	FirstContributing *time.Time
}

// ReconcileStats counts how invoice lines were consumed.
type ReconcileStats struct {
	Invoices   int
	Lines      int
	Full       int
	Partial    int
	Redundant  int
	Unordered  int
	OutOfScope int
	Skipped    int
}

type Reconciliation struct {
	Items  map[ItemKey]*ItemState
	Orders map[int64]*OrderState
	Stats  ReconcileStats
}

// Scope restricts a reconciliation to the filter's client, product and category.
type Scope struct {
	Filter domain.EfficiencyFilter
}

func (s Scope) includesOrder(o *domain.Order) bool {
	return s.Filter.MatchesClient(o.ClientName)
}

func (s Scope) includesItem(idx *Index, code string) bool {
	if !s.Filter.MatchesProduct(code, idx.Description(code)) {
		return false
	}
	if s.Filter.CategoryID != nil {
		p, ok := idx.ProductBySKU[code]
		return ok && p.CategoryID != nil && *p.CategoryID == *s.Filter.CategoryID
	}
	return true
}

// ledger tracks consumed quantity per order item. One ledger per request.
type ledger map[ItemKey]float64

// consume credits at most the remaining ordered quantity and returns the
// effective quantity along with what had been consumed before.
func (l ledger) consume(key ItemKey, ordered, qty float64) (effective, consumed float64) {
	consumed = l[key]
	remaining := math.Max(0, ordered-consumed)
	effective = math.Min(remaining, qty)
	l[key] = consumed + effective
	return effective, consumed
}

// Reconcile converts raw invoiced quantities into effective fulfilment and
// feeds every fact to the sinks in a single pass. Invoices are consumed in
// chronological order (date, then id), so results do not depend on the
// order in which records were fetched.
func Reconcile(idx *Index, cfg Config, scope Scope, sinks ...Sink) *Reconciliation {
	calc := NewCalculator(cfg)
	rc := &Reconciliation{
		Items:  make(map[ItemKey]*ItemState),
		Orders: make(map[int64]*OrderState),
	}
	emit := func(f *Fact) {
		for _, s := range sinks {
			s.Add(f)
		}
	}

	for _, number := range idx.OrderNumbers() {
		order := idx.OrderByNumber[number]
		if !scope.includesOrder(order) {
			continue
		}
		state := &OrderState{Order: order}
		rc.Orders[number] = state

		for _, line := range idx.LinesByOrderID[order.ID] {
			code := domain.NormalizeItemCode(line.ItemCode)
			key := ItemKey{OrderNumber: number, ItemCode: code}
			if _, seen := rc.Items[key]; seen || !scope.includesItem(idx, code) {
				continue
			}
			lineKey := OrderLineKey(order.ID, code)
			item := &ItemState{
				Key:          key,
				OrderID:      order.ID,
				Description:  idx.Description(code),
				UnitPrice:    domain.SanitizePrice(line.UnitPrice),
				OrderedQty:   idx.OrderedQty[lineKey],
				OrderedValue: idx.OrderedValue[lineKey],
			}
			rc.Items[key] = item
			state.Items = append(state.Items, item)
			state.OrderedQty += item.OrderedQty
			state.OrderedValue = state.OrderedValue.Add(item.OrderedValue)

			// ordered measures belong to the month the order was placed
			f := newFact(idx, order, code, monthKey(order.Date))
			f.OrderedQty = item.OrderedQty
			f.OrderedValue = item.OrderedValue
			emit(f)
		}
	}

	invoices := make([]*domain.Invoice, 0)
	for _, number := range idx.OrderNumbers() {
		if _, ok := rc.Orders[number]; !ok {
			continue
		}
		for _, inv := range idx.InvoicesByOrderNumber[number] {
			if !cfg.Qualifies(inv) {
				rc.Stats.Skipped++
				continue
			}
			invoices = append(invoices, inv)
		}
	}
	sort.SliceStable(invoices, func(i, j int) bool { return invoiceBefore(invoices[i], invoices[j]) })

	book := make(ledger)
	for _, inv := range invoices {
		state := rc.Orders[inv.OrderNumber]
		order := state.Order
		inScope := false

		for _, line := range inv.Lines {
			code := domain.NormalizeItemCode(line.ItemCode)
			if !scope.includesItem(idx, code) {
				rc.Stats.OutOfScope++
				continue
			}
			inScope = true
			rc.Stats.Lines++

			key := ItemKey{OrderNumber: inv.OrderNumber, ItemCode: code}
			item := rc.Items[key]
			ordered := 0.0
			if item != nil {
				ordered = item.OrderedQty
			}
			qty := domain.SanitizeQuantity(line.Quantity)
			effective, consumed := book.consume(key, ordered, qty)
			value := decimal.NewFromFloat(effective).Mul(domain.SanitizePrice(line.UnitPrice))

			switch {
			case item == nil:
				rc.Stats.Unordered++
			case effective > 0 && effective == qty:
				rc.Stats.Full++
			case effective > 0:
				rc.Stats.Partial++
			case consumed > 0:
				rc.Stats.Redundant++
			}

			state.RawQty += qty
			if item != nil {
				item.RawQty += qty
				item.EffectiveQty += effective
				item.EffectiveValue = item.EffectiveValue.Add(value)
				date := inv.Date
				if effective > 0 {
					if item.FirstContributing == nil || date.Before(*item.FirstContributing) {
						item.FirstContributing = &date
					}
					item.LastContributing = laterOf(item.LastContributing, date)
				} else if consumed > 0 && cfg.RedundantLinesAdvanceLastDate {
					item.LastContributing = laterOf(item.LastContributing, date)
				}
			}

			var lead *int
			if effective > 0 {
				state.EffectiveQty += effective
				state.EffectiveValue = state.EffectiveValue.Add(value)
				if state.FirstContributing == nil || inv.Date.Before(*state.FirstContributing) {
					date := inv.Date
					state.FirstContributing = &date
				}
				lead = calc.LeadTimeDays(order.Date, inv.Date)
			}

			f := newFact(idx, order, code, monthKey(inv.Date))
			f.InvoiceID = inv.ID
			f.InvoiceDate = inv.Date
			f.EffectiveQty = effective
			f.EffectiveValue = value
			f.RawQty = qty
			f.LeadTimeDays = lead
			emit(f)
		}

		if inScope {
			rc.Stats.Invoices++
			state.InvoiceIDs = append(state.InvoiceIDs, inv.ID)
		}
	}

	// orders left with nothing in scope do not count
	for number, state := range rc.Orders {
		if state.OrderedQty == 0 && state.RawQty == 0 && len(state.InvoiceIDs) == 0 {
			delete(rc.Orders, number)
		}
	}

	return rc
}

func newFact(idx *Index, order *domain.Order, code, month string) *Fact {
	f := &Fact{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OrderDate:   order.Date,
		Client:      order.ClientName,
		ItemCode:    code,
		Description: idx.Description(code),
		Month:       month,
	}
	if c, ok := idx.Category(code); ok {
		id := c.ID
		f.CategoryID = &id
		f.CategoryName = c.Name
	}
	return f
}

func laterOf(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		return &candidate
	}
	return current
}

func monthKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}
