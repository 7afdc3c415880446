package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/cache"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/efficiency"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	minClientSearchLength  = 2
	defaultClientSuggested = 10
	maxClientSuggested     = 50
)

// EfficiencyService answers report requests. Every call recomputes from the
// repositories; only client suggestions are cached.
type EfficiencyService struct {
	engine  *efficiency.Engine
	clients repository.InvoiceRepository
	cache   cache.ClientSuggestionsCache
	timeout time.Duration
}

func NewEfficiencyService(engine *efficiency.Engine, clients repository.InvoiceRepository, cacheImpl cache.ClientSuggestionsCache, timeout time.Duration) *EfficiencyService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopClientSuggestionsCache()
	}
	return &EfficiencyService{
		engine:  engine,
		clients: clients,
		cache:   cacheImpl,
		timeout: timeout,
	}
}

func (s *EfficiencyService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *EfficiencyService) compute(ctx context.Context, filter domain.EfficiencyFilter) (*efficiency.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := s.engine.Compute(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compute efficiency: %w", err)
	}
	return result, nil
}

// Summary includes the variation against the preceding period.
func (s *EfficiencyService) Summary(ctx context.Context, filter domain.EfficiencyFilter) (*domain.ExecutiveSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summary, err := s.engine.Summary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}
	return summary, nil
}

func (s *EfficiencyService) Monthly(ctx context.Context, filter domain.EfficiencyFilter) ([]domain.MonthlyPoint, error) {
	result, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Monthly(), nil
}

func (s *EfficiencyService) Outliers(ctx context.Context, filter domain.EfficiencyFilter) ([]domain.Outlier, error) {
	result, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Outliers(), nil
}

func (s *EfficiencyService) Detail(ctx context.Context, filter domain.EfficiencyFilter, query domain.DetailQuery) (*domain.DetailPage, error) {
	result, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Detail(query)
}

// Rows returns every row of a pivot, for exports.
func (s *EfficiencyService) Rows(ctx context.Context, filter domain.EfficiencyFilter, pivot domain.Pivot) ([]domain.DetailRow, error) {
	result, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.Rows(pivot)
}

// OrderDetail drills into one order regardless of any date window.
func (s *EfficiencyService) OrderDetail(ctx context.Context, orderNumber int64) (*domain.OrderDetail, error) {
	if orderNumber <= 0 {
		return nil, domain.NewValidationError("order_number", "must be a positive integer")
	}

	result, err := s.compute(ctx, domain.EfficiencyFilter{OrderNumber: &orderNumber})
	if err != nil {
		return nil, err
	}
	detail, ok := result.OrderDetail(orderNumber)
	if !ok {
		return nil, fmt.Errorf("order %d: %w", orderNumber, domain.ErrNotFound)
	}
	return detail, nil
}

func (s *EfficiencyService) ProductOrders(ctx context.Context, filter domain.EfficiencyFilter, itemCode string) ([]domain.ProductOrderRow, error) {
	if strings.TrimSpace(itemCode) == "" {
		return nil, domain.NewValidationError("code", "is required")
	}

	result, err := s.compute(ctx, filter)
	if err != nil {
		return nil, err
	}
	return result.ProductOrders(itemCode), nil
}

// SuggestClients returns client names containing search. Fewer than two
// characters yield no suggestions.
func (s *EfficiencyService) SuggestClients(ctx context.Context, search string, limit int) ([]domain.ClientSuggestion, error) {
	search = strings.TrimSpace(search)
	if len([]rune(search)) < minClientSearchLength {
		return []domain.ClientSuggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultClientSuggested
	}
	if limit > maxClientSuggested {
		limit = maxClientSuggested
	}

	if suggestions, ok, err := s.cache.GetSuggestions(ctx, search, limit); err == nil && ok {
		return suggestions, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("efficiency: cache get client suggestions failed")
	}

	suggestions, err := s.clients.SearchClients(ctx, search, limit)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "search clients", Err: err}
	}
	if suggestions == nil {
		suggestions = []domain.ClientSuggestion{}
	}

	if err := s.cache.SetSuggestions(ctx, search, limit, suggestions); err != nil {
		log.Warn().Err(err).Msg("efficiency: cache set client suggestions failed")
	}

	return suggestions, nil
}

// FlushClientSuggestions drops every cached suggestion, e.g. after client
// names were edited upstream.
func (s *EfficiencyService) FlushClientSuggestions(ctx context.Context) error {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to flush client suggestions cache: %w", err)
	}
	return nil
}
