package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/export"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type EfficiencyHandler struct {
	service *service.EfficiencyService
}

func NewEfficiencyHandler(service *service.EfficiencyService) *EfficiencyHandler {
	return &EfficiencyHandler{service: service}
}

func (h *EfficiencyHandler) parseFilter(c *gin.Context) (domain.EfficiencyFilter, error) {
	filter := domain.EfficiencyFilter{
		Client:  strings.TrimSpace(c.Query("client")),
		Product: strings.TrimSpace(c.Query("product")),
	}

	if raw := strings.TrimSpace(c.Query("order_number")); raw != "" {
		number, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || number <= 0 {
			return filter, domain.NewValidationError("order_number", "must be a positive integer")
		}
		filter.OrderNumber = &number
	}

	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, domain.NewValidationError("category_id", "must be an integer")
		}
		filter.CategoryID = &id
	}

	from, to := c.Query("date_from"), c.Query("date_to")
	// a single order may be requested without a window
	if filter.OrderNumber != nil && strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		return filter, nil
	}
	start, end, err := domain.ParseDateRange(from, to)
	if err != nil {
		return filter, err
	}
	filter.DateFrom, filter.DateTo = start, end
	return filter, nil
}

func parseDetailQuery(c *gin.Context, pivot domain.Pivot) domain.DetailQuery {
	return domain.DetailQuery{
		Pivot:         pivot,
		Page:          parsePositiveIntWithDefault(c.Query("page"), 1),
		PageSize:      parsePositiveIntWithDefault(c.Query("page_size"), 20),
		SortField:     strings.TrimSpace(c.Query("sort_field")),
		SortDirection: strings.TrimSpace(c.Query("sort_direction")),
	}
}

func writeError(c *gin.Context, action string, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(action)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   action,
			"details": err.Error(),
		})
	}
}

// GetSummary returns the executive summary with period-over-period variation.
func (h *EfficiencyHandler) GetSummary(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		writeError(c, "invalid filter", err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "failed to fetch efficiency summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *EfficiencyHandler) GetMonthly(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		writeError(c, "invalid filter", err)
		return
	}

	points, err := h.service.Monthly(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "failed to fetch monthly trend", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": points})
}

func (h *EfficiencyHandler) GetOutliers(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		writeError(c, "invalid filter", err)
		return
	}

	outliers, err := h.service.Outliers(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "failed to fetch outliers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": outliers})
}

// detail serves one fixed pivot.
func (h *EfficiencyHandler) detail(pivot domain.Pivot) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := h.parseFilter(c)
		if err != nil {
			writeError(c, "invalid filter", err)
			return
		}

		page, err := h.service.Detail(c.Request.Context(), filter, parseDetailQuery(c, pivot))
		if err != nil {
			writeError(c, fmt.Sprintf("failed to fetch %s detail", pivot), err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func (h *EfficiencyHandler) GetOrders(c *gin.Context)     { h.detail(domain.PivotOrder)(c) }
func (h *EfficiencyHandler) GetProducts(c *gin.Context)   { h.detail(domain.PivotProduct)(c) }
func (h *EfficiencyHandler) GetCategories(c *gin.Context) { h.detail(domain.PivotCategory)(c) }
func (h *EfficiencyHandler) GetClients(c *gin.Context)    { h.detail(domain.PivotClient)(c) }

func (h *EfficiencyHandler) GetOrderDetail(c *gin.Context) {
	number, err := strconv.ParseInt(strings.TrimSpace(c.Param("number")), 10, 64)
	if err != nil {
		writeError(c, "invalid order number", domain.NewValidationError("number", "must be a positive integer"))
		return
	}

	detail, err := h.service.OrderDetail(c.Request.Context(), number)
	if err != nil {
		writeError(c, "failed to fetch order detail", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *EfficiencyHandler) GetProductOrders(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		writeError(c, "invalid filter", err)
		return
	}

	rows, err := h.service.ProductOrders(c.Request.Context(), filter, c.Param("code"))
	if err != nil {
		writeError(c, "failed to fetch product orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

// GetClientSuggestions powers the client autocomplete.
func (h *EfficiencyHandler) GetClientSuggestions(c *gin.Context) {
	limit := parsePositiveIntWithDefault(c.Query("limit"), 10)

	suggestions, err := h.service.SuggestClients(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, "failed to fetch client suggestions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": suggestions})
}

// ExportCSV streams every row of the requested pivot as CSV.
func (h *EfficiencyHandler) ExportCSV(c *gin.Context) {
	pivot, ok := domain.ParsePivot(c.DefaultQuery("pivot", string(domain.PivotOrder)))
	if !ok {
		writeError(c, "invalid pivot", domain.NewValidationError("pivot", "unknown pivot %q", c.Query("pivot")))
		return
	}
	filter, err := h.parseFilter(c)
	if err != nil {
		writeError(c, "invalid filter", err)
		return
	}

	rows, err := h.service.Rows(c.Request.Context(), filter, pivot)
	if err != nil {
		writeError(c, "failed to export rows", err)
		return
	}

	name := export.ObjectName(pivot, filter, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", export.ContentTypeCSV)
	c.Status(http.StatusOK)
	if err := export.WriteDetailRows(c.Writer, rows); err != nil {
		log.Error().Err(err).Str("pivot", string(pivot)).Msg("failed to write csv export")
	}
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if fallback <= 0 {
		fallback = 50
	}
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}
