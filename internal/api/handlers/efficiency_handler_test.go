package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/cache"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/efficiency"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	err error
}

func (f fakeSource) Load(_ context.Context, filter domain.EfficiencyFilter) (*efficiency.Records, error) {
	if f.err != nil {
		return nil, f.err
	}
	day := func(v string) time.Time {
		t, _ := time.Parse(domain.DateLayout, v)
		return t
	}
	return &efficiency.Records{
		Filter: filter,
		Orders: []domain.Order{{ID: 1, Number: 100, Date: day("2024-01-02"), ClientName: "Acme"}},
		OrderLines: []domain.OrderLine{
			{ID: 1, OrderID: 1, ItemCode: "A", Description: "Apple", Quantity: 10, UnitPrice: decimal.NewFromInt(2)},
			{ID: 2, OrderID: 1, ItemCode: "B", Description: "Banana", Quantity: 10, UnitPrice: decimal.NewFromInt(1)},
		},
		Invoices: []domain.Invoice{{
			ID:           7,
			OrderNumber:  100,
			Date:         day("2024-01-06"),
			DocumentType: "FACTURA",
			Lines: []domain.InvoiceLine{
				{ID: 1, InvoiceID: 7, ItemCode: "A", Quantity: 10, UnitPrice: decimal.NewFromInt(2)},
			},
		}},
	}, nil
}

type fakeClients struct{}

func (fakeClients) ListInvoicesInRange(context.Context, time.Time, time.Time, []string) ([]domain.Invoice, error) {
	return nil, nil
}

func (fakeClients) ListInvoicesByOrderNumbers(context.Context, []int64, []string) ([]domain.Invoice, error) {
	return nil, nil
}

func (fakeClients) SearchClients(_ context.Context, search string, _ int) ([]domain.ClientSuggestion, error) {
	return []domain.ClientSuggestion{{Name: strings.ToUpper(search)}}, nil
}

func newTestRouter(source efficiency.RecordSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := efficiency.NewEngine(source, efficiency.DefaultConfig())
	svc := service.NewEfficiencyService(engine, fakeClients{}, cache.NewNoopClientSuggestionsCache(), time.Second)
	h := NewEfficiencyHandler(svc)

	r := gin.New()
	g := r.Group("/api/v1/efficiency")
	g.GET("/summary", h.GetSummary)
	g.GET("/monthly", h.GetMonthly)
	g.GET("/outliers", h.GetOutliers)
	g.GET("/orders", h.GetOrders)
	g.GET("/orders/:number", h.GetOrderDetail)
	g.GET("/products", h.GetProducts)
	g.GET("/products/:code/orders", h.GetProductOrders)
	g.GET("/clients/suggestions", h.GetClientSuggestions)
	g.GET("/export", h.ExportCSV)
	return r
}

func doGet(t *testing.T, r http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

const window = "date_from=2024-01-01&date_to=2024-01-31"

func TestEfficiencyHandler_Summary(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/summary?"+window)
	require.Equal(t, http.StatusOK, w.Code)

	var body domain.ExecutiveSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalOrders)
	assert.Equal(t, 50.0, body.FillRateOverall)
	require.NotNil(t, body.AvgLeadTimeDays)
	assert.Equal(t, 4.0, *body.AvgLeadTimeDays)
}

func TestEfficiencyHandler_ValidationErrors(t *testing.T) {
	r := newTestRouter(fakeSource{})

	cases := []struct {
		name   string
		target string
	}{
		{name: "missing window", target: "/api/v1/efficiency/summary"},
		{name: "bad date", target: "/api/v1/efficiency/monthly?date_from=2024-13-01&date_to=2024-01-31"},
		{name: "inverted window", target: "/api/v1/efficiency/outliers?date_from=2024-02-01&date_to=2024-01-31"},
		{name: "bad category", target: "/api/v1/efficiency/orders?" + window + "&category_id=x"},
		{name: "bad order number", target: "/api/v1/efficiency/orders/abc"},
		{name: "bad pivot", target: "/api/v1/efficiency/export?" + window + "&pivot=region"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doGet(t, r, tc.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestEfficiencyHandler_OrderDetail(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/orders/100")
	require.Equal(t, http.StatusOK, w.Code)
	var detail domain.OrderDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, int64(100), detail.OrderNumber)
	assert.Len(t, detail.Items, 2)

	w = doGet(t, r, "/api/v1/efficiency/orders/555")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEfficiencyHandler_DetailPages(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/products?"+window+"&sort_field=fill_rate&sort_direction=desc&page_size=1")
	require.Equal(t, http.StatusOK, w.Code)

	var page domain.DetailPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, domain.PivotProduct, page.Pivot)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "A", page.Items[0].Key)

	w = doGet(t, r, "/api/v1/efficiency/products/b/orders?"+window)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_code":"B"`)
}

func TestEfficiencyHandler_DetailPageSizeClamp(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/products?"+window+"&page_size=500")
	require.Equal(t, http.StatusOK, w.Code)

	var page domain.DetailPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Items, 2)
}

func TestEfficiencyHandler_ClientSuggestions(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/clients/suggestions?q=ac")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[{"name":"AC","business_name":""}]}`, w.Body.String())

	w = doGet(t, r, "/api/v1/efficiency/clients/suggestions?q=a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestEfficiencyHandler_ExportCSV(t *testing.T) {
	r := newTestRouter(fakeSource{})

	w := doGet(t, r, "/api/v1/efficiency/export?"+window+"&pivot=clients")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "client_2024-01-01_2024-01-31_")
	assert.Contains(t, w.Body.String(), "Acme")
}

func TestEfficiencyHandler_UpstreamFailure(t *testing.T) {
	r := newTestRouter(fakeSource{err: &domain.UpstreamError{Op: "list invoices in range", Err: errors.New("connection reset")}})

	w := doGet(t, r, "/api/v1/efficiency/monthly?"+window)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "failed to fetch monthly trend", body["error"])
	assert.Contains(t, body["details"], "connection reset")
}
