package efficiency

import (
	"fmt"
	"testing"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Summary(t *testing.T) {
	summary := Run(mixedRecords(), DefaultConfig()).Summary()

	assert.Equal(t, "2024-01-01", summary.DateFrom)
	assert.Equal(t, "2024-01-31", summary.DateTo)
	assert.Equal(t, 3, summary.TotalOrders)
	assert.Equal(t, 5, summary.TotalInvoices)
	assert.Equal(t, 77.78, summary.FillRateOverall)
	assert.Equal(t, 92.86, summary.WeightedFillRate)
	require.NotNil(t, summary.AvgLeadTimeDays)
	assert.Equal(t, 7.0, *summary.AvgLeadTimeDays)
	assert.Equal(t, 1, summary.DelayedOrderCount)
	assert.Equal(t, 66.67, summary.PctHighFillRate)
	assert.Equal(t, 33.33, summary.PctLowFillRate)
	assert.Zero(t, summary.VariationFillRate)

	assert.Equal(t, []domain.ClientFillRate{
		{Client: "Acme", FillRate: 100},
		{Client: "Beta", FillRate: 100},
		{Client: "Gamma", FillRate: 50},
	}, summary.TopEfficientClients)
	assert.Equal(t, "Gamma", summary.TopInefficientClients[0].Client)
	assert.Equal(t, []domain.ProblemProduct{
		{ItemCode: "D", Description: "Item D", UnfulfilledQty: 10},
	}, summary.TopProblemProducts)
}

func TestResult_EmptySummary(t *testing.T) {
	summary := Run(&Records{}, DefaultConfig()).Summary()

	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.FillRateOverall)
	assert.Nil(t, summary.AvgLeadTimeDays)
	assert.NotNil(t, summary.TopEfficientClients)
	assert.Empty(t, summary.TopProblemProducts)
}

func TestWithVariation(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	lead := func(v float64) *float64 { return &v }

	current := &domain.ExecutiveSummary{FillRateOverall: 90, AvgLeadTimeDays: lead(6)}
	previous := &domain.ExecutiveSummary{FillRateOverall: 60, AvgLeadTimeDays: lead(8)}

	got := WithVariation(current, previous, calc)
	assert.Equal(t, 50.0, got.VariationFillRate)
	assert.Equal(t, -25.0, got.VariationLeadTime)

	assert.Same(t, current, WithVariation(current, nil, calc))
}

func TestResult_MonthlySumsToOverall(t *testing.T) {
	res := Run(staggeredRecords(), DefaultConfig())

	var sum Measures
	for _, b := range res.Pivot(domain.PivotMonth).Buckets() {
		sum.add(b.Measures)
	}
	overall := res.Overall()
	assert.Equal(t, overall.OrderedQty, sum.OrderedQty)
	assert.Equal(t, overall.EffectiveQty, sum.EffectiveQty)
	assert.True(t, overall.EffectiveValue.Equal(sum.EffectiveValue))

	monthly := res.Monthly()
	require.Len(t, monthly, 2)
	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.Equal(t, 40.0, monthly[0].FillRate)
	require.NotNil(t, monthly[0].LeadTimeDays)
	assert.Equal(t, 5.0, *monthly[0].LeadTimeDays)
	assert.Equal(t, "2024-02", monthly[1].Month)
	require.NotNil(t, monthly[1].LeadTimeDays)
	assert.Equal(t, 12.5, *monthly[1].LeadTimeDays)
}

func TestResult_MonthlyBucketsByInvoiceDate(t *testing.T) {
	rec := staggeredRecords()
	rec.Filter = domain.EfficiencyFilter{DateFrom: day("2024-02-01"), DateTo: day("2024-02-29")}
	res := Run(rec, DefaultConfig())

	months := map[string]Measures{}
	for _, b := range res.Pivot(domain.PivotMonth).Buckets() {
		months[b.Key] = b.Measures
	}
	require.Len(t, months, 2)

	// order 400 was placed in January; its February invoice counts in February
	assert.Equal(t, 10.0, months["2024-01"].OrderedQty)
	assert.Equal(t, 4.0, months["2024-01"].EffectiveQty)
	assert.Equal(t, 5.0, months["2024-02"].OrderedQty)
	assert.Equal(t, 11.0, months["2024-02"].EffectiveQty)
	assert.True(t, months["2024-02"].EffectiveValue.Equal(dec("38")))
}

func TestResult_Detail(t *testing.T) {
	res := Run(mixedRecords(), DefaultConfig())

	tests := []struct {
		name      string
		query     domain.DetailQuery
		wantKeys  []string
		wantTotal int
		wantPages int
	}{
		{
			name:      "fill rate ascending first page",
			query:     domain.DetailQuery{Pivot: domain.PivotProduct, Page: 1, PageSize: 2, SortField: "fill_rate", SortDirection: "asc"},
			wantKeys:  []string{"D", "A"},
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "fill rate ascending second page",
			query:     domain.DetailQuery{Pivot: domain.PivotProduct, Page: 2, PageSize: 2, SortField: "fill_rate", SortDirection: "asc"},
			wantKeys:  []string{"B", "C"},
			wantTotal: 4,
			wantPages: 2,
		},
		{
			name:      "ordered descending",
			query:     domain.DetailQuery{Pivot: domain.PivotProduct, SortField: "ordered_qty", SortDirection: "desc"},
			wantKeys:  []string{"D", "A", "C", "B"},
			wantTotal: 4,
			wantPages: 1,
		},
		{
			name:      "unknown sort falls back to key",
			query:     domain.DetailQuery{Pivot: domain.PivotOrder, SortField: "nope"},
			wantKeys:  []string{"100", "200", "300"},
			wantTotal: 3,
			wantPages: 1,
		},
		{
			name:      "page past the end",
			query:     domain.DetailQuery{Pivot: domain.PivotClient, Page: 5, PageSize: 10},
			wantKeys:  []string{},
			wantTotal: 3,
			wantPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := res.Detail(tt.query)
			require.NoError(t, err)

			keys := make([]string, 0, len(page.Items))
			for _, row := range page.Items {
				keys = append(keys, row.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPages, page.TotalPages)
		})
	}
}

func TestResult_DetailPaginationDefaults(t *testing.T) {
	res := Run(mixedRecords(), DefaultConfig())

	cases := []struct {
		name     string
		query    domain.DetailQuery
		wantPage int
		wantSize int
	}{
		{name: "defaults", query: domain.DetailQuery{Pivot: domain.PivotProduct}, wantPage: 1, wantSize: 20},
		{name: "negative page", query: domain.DetailQuery{Pivot: domain.PivotProduct, Page: -1, PageSize: 5}, wantPage: 1, wantSize: 5},
		{name: "oversized page clamps", query: domain.DetailQuery{Pivot: domain.PivotProduct, Page: 1, PageSize: 500}, wantPage: 1, wantSize: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := res.Detail(tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPage, page.Page)
			assert.Equal(t, tc.wantSize, page.PageSize)
			assert.Equal(t, 1, page.TotalPages)
		})
	}

	_, err := res.Detail(domain.DetailQuery{Pivot: "warehouse"})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestResult_DetailRowValues(t *testing.T) {
	res := Run(mixedRecords(), DefaultConfig())

	rows, err := res.Rows(domain.PivotOrder)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "100", first.Key)
	assert.Equal(t, "Acme", first.Label)
	assert.Equal(t, 15.0, first.OrderedQty)
	assert.Equal(t, 15.0, first.InvoicedQty)
	assert.Equal(t, 100.0, first.FillRate)
	assert.Equal(t, 100.0, first.WeightedFillRate)
	require.NotNil(t, first.AvgLeadTimeDays)
	assert.Equal(t, 6.5, *first.AvgLeadTimeDays)
	assert.Equal(t, "100", first.MonetaryOrdered.String())
	assert.Equal(t, "100", first.MonetaryInvoiced.String())
}

func TestResult_CategoryPivot(t *testing.T) {
	beverages, production := int64(1), int64(2)
	rec := mixedRecords()
	rec.Products = []domain.Product{
		{SKU: "a", Name: "Apple juice", CategoryID: &beverages},
		{SKU: "B", Name: "Blend", CategoryID: &production},
		{SKU: "C", Name: "Cola", CategoryID: &beverages},
	}
	rec.Categories = []domain.Category{
		{ID: beverages, Name: "Beverages"},
		{ID: production, Name: "Production inputs"},
	}

	res := Run(rec, DefaultConfig())
	rows, err := res.Rows(domain.PivotCategory)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Key)
	assert.Equal(t, "Beverages", rows[0].Label)
	assert.Equal(t, 20.0, rows[0].OrderedQty)

	rec.Filter.CategoryID = &beverages
	scoped := Run(rec, DefaultConfig())
	assert.Len(t, scoped.Reconciliation.Items, 2)
	assert.Equal(t, 2, scoped.Summary().TotalOrders)
}

func TestResult_OutliersCapped(t *testing.T) {
	rec := &Records{}
	for i := 1; i <= 25; i++ {
		id := int64(i)
		code := fmt.Sprintf("P%02d", i)
		rec.Orders = append(rec.Orders, order(id, 1000+id, "2024-03-01", "Client"))
		rec.OrderLines = append(rec.OrderLines, orderLine(id, code, 100, "1"))
		rec.Invoices = append(rec.Invoices, invoice(id, 1000+id, "2024-03-05", invoiceLine(code, float64(i*4), "1")))
	}

	outliers := Run(rec, DefaultConfig()).Outliers()
	require.Len(t, outliers, 20)
	assert.Equal(t, "P01", outliers[0].ItemCode)
	assert.Equal(t, 4.0, outliers[0].FillRate)
	for i := 1; i < len(outliers); i++ {
		assert.LessOrEqual(t, outliers[i-1].FillRate, outliers[i].FillRate)
	}
}

func TestResult_ProductOrders(t *testing.T) {
	rec := mixedRecords()
	rec.Orders = append(rec.Orders, order(6, 600, "2023-12-20", "Acme"))
	rec.OrderLines = append(rec.OrderLines, orderLine(6, "A", 8, "5"))
	rec.Invoices = append(rec.Invoices, invoice(20, 600, "2024-01-02", invoiceLine("A", 2, "5")))

	rows := Run(rec, DefaultConfig()).ProductOrders(" a ")
	require.Len(t, rows, 2)
	assert.Equal(t, int64(600), rows[0].OrderNumber)
	assert.Equal(t, 25.0, rows[0].FillRate)
	assert.Equal(t, int64(100), rows[1].OrderNumber)
	assert.Equal(t, 100.0, rows[1].FillRate)
	require.NotNil(t, rows[1].LeadTimeDays)
	assert.Equal(t, 4, *rows[1].LeadTimeDays)
}

func TestResult_OrderDetailUnknown(t *testing.T) {
	_, ok := Run(mixedRecords(), DefaultConfig()).OrderDetail(999)
	assert.False(t, ok)
}
