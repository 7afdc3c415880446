package efficiency

import (
	"sort"
	"strconv"
	"strings"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Measures are the additive quantities of an aggregated row. Rates are
// always derived from the sums, never averaged.
type Measures struct {
	OrderedQty     float64
	EffectiveQty   float64
	RawQty         float64
	OrderedValue   decimal.Decimal
	EffectiveValue decimal.Decimal
}

func (m *Measures) add(o Measures) {
	m.OrderedQty += o.OrderedQty
	m.EffectiveQty += o.EffectiveQty
	m.RawQty += o.RawQty
	m.OrderedValue = m.OrderedValue.Add(o.OrderedValue)
	m.EffectiveValue = m.EffectiveValue.Add(o.EffectiveValue)
}

// Unfulfilled is the ordered quantity not yet effectively invoiced.
func (m Measures) Unfulfilled() float64 {
	if d := m.OrderedQty - m.EffectiveQty; d > 0 {
		return d
	}
	return 0
}

// Sample is a lead-time observation taken from one invoice document.
type Sample struct {
	InvoiceID int64
	Days      int
}

// KeyFunc extracts the bucket key and display label of an item; ok=false drops the item.
type KeyFunc[T any] func(item T) (key, label string, ok bool)

// ValueFunc extracts the additive measures and an optional lead-time sample of an item.
type ValueFunc[T any] func(item T) (Measures, *Sample)

type Bucket struct {
	Key   string
	Label string
	Measures

	leadTimes map[int64]int
}

// LeadTimeSamples returns one sample per contributing invoice document.
func (b *Bucket) LeadTimeSamples() []int {
	ids := make([]int64, 0, len(b.leadTimes))
	for id := range b.leadTimes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	samples := make([]int, 0, len(ids))
	for _, id := range ids {
		samples = append(samples, b.leadTimes[id])
	}
	return samples
}

// Aggregator groups items into buckets with a key extractor and a value
// extractor. Every pivot is an Aggregator with a different KeyFunc.
type Aggregator[T any] struct {
	pivot   domain.Pivot
	key     KeyFunc[T]
	value   ValueFunc[T]
	buckets map[string]*Bucket
}

func NewAggregator[T any](pivot domain.Pivot, key KeyFunc[T], value ValueFunc[T]) *Aggregator[T] {
	return &Aggregator[T]{
		pivot:   pivot,
		key:     key,
		value:   value,
		buckets: make(map[string]*Bucket),
	}
}

// Aggregate runs items through a fresh Aggregator.
func Aggregate[T any](pivot domain.Pivot, items []T, key KeyFunc[T], value ValueFunc[T]) *Aggregator[T] {
	a := NewAggregator(pivot, key, value)
	for _, item := range items {
		a.Add(item)
	}
	return a
}

func (a *Aggregator[T]) Pivot() domain.Pivot {
	return a.pivot
}

func (a *Aggregator[T]) Add(item T) {
	key, label, ok := a.key(item)
	if !ok {
		return
	}
	b, exists := a.buckets[key]
	if !exists {
		b = &Bucket{Key: key, leadTimes: make(map[int64]int)}
		a.buckets[key] = b
	}
	if b.Label == "" {
		b.Label = label
	}

	m, sample := a.value(item)
	b.add(m)
	if sample != nil {
		if _, seen := b.leadTimes[sample.InvoiceID]; !seen {
			b.leadTimes[sample.InvoiceID] = sample.Days
		}
	}
}

func (a *Aggregator[T]) Bucket(key string) (*Bucket, bool) {
	b, ok := a.buckets[key]
	return b, ok
}

// Buckets returns every bucket sorted by key.
func (a *Aggregator[T]) Buckets() []*Bucket {
	out := make([]*Bucket, 0, len(a.buckets))
	for _, b := range a.buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

// Ordered returns the buckets that carry a fill-rate denominator.
func (a *Aggregator[T]) Ordered() []*Bucket {
	all := a.Buckets()
	out := all[:0]
	for _, b := range all {
		if b.OrderedQty > 0 {
			out = append(out, b)
		}
	}
	return out
}

// RankByQuantity sorts by effective quantity, largest first.
func RankByQuantity(buckets []*Bucket) []*Bucket {
	return rank(buckets, func(a, b *Bucket) int {
		return compareFloat(b.EffectiveQty, a.EffectiveQty)
	})
}

// RankByValue sorts by effective monetary value, largest first.
func RankByValue(buckets []*Bucket) []*Bucket {
	return rank(buckets, func(a, b *Bucket) int {
		return b.EffectiveValue.Cmp(a.EffectiveValue)
	})
}

// RankByUnfulfilled sorts by quantity ordered but not invoiced, largest first.
func RankByUnfulfilled(buckets []*Bucket) []*Bucket {
	return rank(buckets, func(a, b *Bucket) int {
		return compareFloat(b.Unfulfilled(), a.Unfulfilled())
	})
}

// RankByFillRate sorts by fill rate, ascending unless desc is set.
func RankByFillRate(buckets []*Bucket, calc Calculator, desc bool) []*Bucket {
	return rank(buckets, func(a, b *Bucket) int {
		c := compareFloat(calc.FillRate(a.OrderedQty, a.EffectiveQty), calc.FillRate(b.OrderedQty, b.EffectiveQty))
		if desc {
			c = -c
		}
		return c
	})
}

// WorstByFillRate returns up to n buckets with the lowest fill rate.
func WorstByFillRate(buckets []*Bucket, calc Calculator, n int) []*Bucket {
	return TopN(RankByFillRate(buckets, calc, false), n)
}

func TopN(buckets []*Bucket, n int) []*Bucket {
	if n < 0 || len(buckets) <= n {
		return buckets
	}
	return buckets[:n]
}

// rank sorts a copy, breaking ties by key so output is deterministic.
func rank(buckets []*Bucket, cmp func(a, b *Bucket) int) []*Bucket {
	out := append([]*Bucket(nil), buckets...)
	sort.SliceStable(out, func(i, j int) bool {
		if c := cmp(out[i], out[j]); c != 0 {
			return c < 0
		}
		return keyLess(out[i].Key, out[j].Key)
	})
	return out
}

// keyLess compares numerically when both keys are integers (order numbers, category ids).
func keyLess(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// factMeasures is the value extractor shared by every pivot.
func factMeasures(f *Fact) (Measures, *Sample) {
	m := Measures{
		OrderedQty:     f.OrderedQty,
		EffectiveQty:   f.EffectiveQty,
		RawQty:         f.RawQty,
		OrderedValue:   f.OrderedValue,
		EffectiveValue: f.EffectiveValue,
	}
	if f.InvoiceID == 0 || f.EffectiveQty <= 0 || f.LeadTimeDays == nil {
		return m, nil
	}
	return m, &Sample{InvoiceID: f.InvoiceID, Days: *f.LeadTimeDays}
}

// pivotKeys holds the key extractor of each pivot.
func pivotKeys(cfg Config) map[domain.Pivot]KeyFunc[*Fact] {
	return map[domain.Pivot]KeyFunc[*Fact]{
		PivotOverall: func(*Fact) (string, string, bool) {
			return "all", "All", true
		},
		domain.PivotClient: func(f *Fact) (string, string, bool) {
			name := strings.TrimSpace(f.Client)
			return name, name, true
		},
		domain.PivotProduct: func(f *Fact) (string, string, bool) {
			return f.ItemCode, f.Description, f.ItemCode != ""
		},
		domain.PivotCategory: func(f *Fact) (string, string, bool) {
			if f.CategoryID == nil || cfg.ExcludesCategory(f.CategoryName) {
				return "", "", false
			}
			return strconv.FormatInt(*f.CategoryID, 10), f.CategoryName, true
		},
		domain.PivotOrder: func(f *Fact) (string, string, bool) {
			return strconv.FormatInt(f.OrderNumber, 10), strings.TrimSpace(f.Client), true
		},
		domain.PivotMonth: func(f *Fact) (string, string, bool) {
			return f.Month, f.Month, f.Month != ""
		},
	}
}

// PivotOverall is the single-bucket aggregate over the whole request.
const PivotOverall domain.Pivot = "overall"
