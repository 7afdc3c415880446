package efficiency

import (
	"context"
	"sort"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Records are the raw entities of one computation request.
type Records struct {
	Filter domain.EfficiencyFilter

	// InvoicesInRange seeded the request; Invoices is the date-unbounded
	// history of every order they reference.
	InvoicesInRange []domain.Invoice
	Orders          []domain.Order
	Invoices        []domain.Invoice
	OrderLines      []domain.OrderLine
	Products        []domain.Product
	Categories      []domain.Category
}

func (r *Records) Empty() bool {
	return r == nil || len(r.Orders) == 0
}

// Loader fetches Records from the repositories.
type Loader struct {
	invoices repository.InvoiceRepository
	orders   repository.OrderRepository
	catalog  repository.CatalogRepository
	cfg      Config
}

func NewLoader(invoices repository.InvoiceRepository, orders repository.OrderRepository, catalog repository.CatalogRepository, cfg Config) *Loader {
	return &Loader{
		invoices: invoices,
		orders:   orders,
		catalog:  catalog,
		cfg:      cfg,
	}
}

// Load validates the filter and fetches everything one computation needs.
// Orders are resolved from the seed invoices without any order-date bound,
// then their full invoice history is fetched. Nothing matching is not an
// error: the returned Records are simply empty.
func (l *Loader) Load(ctx context.Context, filter domain.EfficiencyFilter) (*Records, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	rec := &Records{Filter: filter}

	var numbers []int64
	if filter.OrderNumber != nil {
		seed, err := l.invoices.ListInvoicesByOrderNumbers(ctx, []int64{*filter.OrderNumber}, l.cfg.DocumentTypes)
		if err != nil {
			return nil, &domain.UpstreamError{Op: "list invoices of order", Err: err}
		}
		rec.InvoicesInRange = seed
		numbers = []int64{*filter.OrderNumber}
	} else {
		seed, err := l.invoices.ListInvoicesInRange(ctx, filter.DateFrom, filter.DateTo, l.cfg.DocumentTypes)
		if err != nil {
			return nil, &domain.UpstreamError{Op: "list invoices in range", Err: err}
		}
		rec.InvoicesInRange = seed
		numbers = distinctOrderNumbers(seed)
	}
	if len(numbers) == 0 {
		log.Debug().Msg("no invoices matched the request")
		return rec, nil
	}

	orders, err := l.orders.ListOrdersByNumbers(ctx, numbers)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "list orders", Err: err}
	}
	for _, o := range orders {
		if filter.MatchesClient(o.ClientName) {
			rec.Orders = append(rec.Orders, o)
		}
	}
	if len(rec.Orders) == 0 {
		log.Debug().Int("invoices", len(rec.InvoicesInRange)).Msg("no orders matched the request")
		return rec, nil
	}

	orderIDs := make([]int64, 0, len(rec.Orders))
	kept := make([]int64, 0, len(rec.Orders))
	for _, o := range rec.Orders {
		orderIDs = append(orderIDs, o.ID)
		kept = append(kept, o.Number)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if filter.OrderNumber != nil {
			// the seed already is the order's full history
			rec.Invoices = rec.InvoicesInRange
			return nil
		}
		invoices, err := l.invoices.ListInvoicesByOrderNumbers(gctx, kept, l.cfg.DocumentTypes)
		if err != nil {
			return &domain.UpstreamError{Op: "list invoices of orders", Err: err}
		}
		rec.Invoices = invoices
		return nil
	})
	g.Go(func() error {
		lines, err := l.orders.ListOrderLines(gctx, orderIDs)
		if err != nil {
			return &domain.UpstreamError{Op: "list order lines", Err: err}
		}
		rec.OrderLines = lines
		return nil
	})
	g.Go(func() error {
		products, err := l.catalog.ListProductsForOrders(gctx, orderIDs)
		if err != nil {
			return &domain.UpstreamError{Op: "list products", Err: err}
		}
		rec.Products = products
		return nil
	})
	g.Go(func() error {
		categories, err := l.catalog.ListCategories(gctx)
		if err != nil {
			return &domain.UpstreamError{Op: "list categories", Err: err}
		}
		rec.Categories = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().
		Int("seed_invoices", len(rec.InvoicesInRange)).
		Int("orders", len(rec.Orders)).
		Int("invoices", len(rec.Invoices)).
		Int("order_lines", len(rec.OrderLines)).
		Int("products", len(rec.Products)).
		Msg("efficiency records loaded")

	return rec, nil
}

func distinctOrderNumbers(invoices []domain.Invoice) []int64 {
	seen := make(map[int64]struct{}, len(invoices))
	numbers := make([]int64, 0, len(invoices))
	for _, inv := range invoices {
		if inv.OrderNumber <= 0 {
			continue
		}
		if _, ok := seen[inv.OrderNumber]; ok {
			continue
		}
		seen[inv.OrderNumber] = struct{}{}
		numbers = append(numbers, inv.OrderNumber)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}
