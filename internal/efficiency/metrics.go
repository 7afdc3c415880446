package efficiency

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Calculator turns reconciled quantities into rates. Every method guards
// zero denominators and non-finite inputs instead of propagating them.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) Calculator {
	return Calculator{cfg: cfg}
}

// FillRate is min(effective/ordered, 1) as a percentage with two decimals; 0 when nothing was ordered.
func (c Calculator) FillRate(ordered, effective float64) float64 {
	if !finite(ordered) || !finite(effective) || ordered <= 0 || effective <= 0 {
		return 0
	}
	return roundFloat(math.Min(effective/ordered, 1)*100, 2)
}

// WeightedFillRate applies the fill rate formula to monetary value.
func (c Calculator) WeightedFillRate(orderedValue, invoicedValue decimal.Decimal) float64 {
	if !orderedValue.IsPositive() || !invoicedValue.IsPositive() {
		return 0
	}
	ratio := invoicedValue.Div(orderedValue)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	rate, _ := ratio.Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return rate
}

// LeadTimeDays is the whole number of days from the order to the reference
// invoice, never negative. Nil when either date is unknown.
func (c Calculator) LeadTimeDays(orderDate, reference time.Time) *int {
	if orderDate.IsZero() || reference.IsZero() {
		return nil
	}
	days := int(math.Round(reference.Sub(orderDate).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// Variation is the percentage change from previous to current. With no
// previous value it is 100 when something happened now, else 0.
func (c Calculator) Variation(current, previous float64) float64 {
	if !finite(current) || !finite(previous) {
		return 0
	}
	if previous > 0 {
		return roundFloat((current-previous)/previous*100, 2)
	}
	if current > 0 {
		return 100
	}
	return 0
}

func (c Calculator) IsDelayed(leadTimeDays int) bool {
	return leadTimeDays > c.cfg.DelayedAfterDays
}

func (c Calculator) IsHighFillRate(rate float64) bool {
	return rate >= c.cfg.HighFillRate
}

func (c Calculator) IsLowFillRate(rate float64) bool {
	return rate < c.cfg.LowFillRate
}

// Percentage is part/total*100 with two decimals, 0 for an empty total.
func (c Calculator) Percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundFloat(float64(part)/float64(total)*100, 2)
}

// Mean averages samples with two decimals. Nil for no samples.
func (c Calculator) Mean(samples []int) *float64 {
	if len(samples) == 0 {
		return nil
	}
	total := 0
	for _, s := range samples {
		total += s
	}
	avg := roundFloat(float64(total)/float64(len(samples)), 2)
	return &avg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundFloat(val float64, decimals int) float64 {
	if !finite(val) {
		return 0
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
