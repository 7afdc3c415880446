package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/cache"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/export"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/storage"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

type filterArgs struct {
	From        string
	To          string
	Client      string
	Product     string
	CategoryID  int64
	OrderNumber int64
}

func filterArgsFrom(c *cli.Context) filterArgs {
	return filterArgs{
		From:        c.String("from"),
		To:          c.String("to"),
		Client:      c.String("client"),
		Product:     c.String("product"),
		CategoryID:  c.Int64("category-id"),
		OrderNumber: c.Int64("order-number"),
	}
}

// buildFilter mirrors the HTTP query parsing: zero ids mean unset and a
// window is optional only for a single order.
func buildFilter(args filterArgs) (domain.EfficiencyFilter, error) {
	filter := domain.EfficiencyFilter{
		Client:  strings.TrimSpace(args.Client),
		Product: strings.TrimSpace(args.Product),
	}
	if args.CategoryID != 0 {
		id := args.CategoryID
		filter.CategoryID = &id
	}
	if args.OrderNumber != 0 {
		if args.OrderNumber < 0 {
			return filter, domain.NewValidationError("order_number", "must be a positive integer")
		}
		number := args.OrderNumber
		filter.OrderNumber = &number
		if strings.TrimSpace(args.From) == "" && strings.TrimSpace(args.To) == "" {
			return filter, nil
		}
	}

	from, to, err := domain.ParseDateRange(args.From, args.To)
	if err != nil {
		return filter, err
	}
	filter.DateFrom, filter.DateTo = from, to
	return filter, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSummary(c *cli.Context) error {
	filter, err := buildFilter(filterArgsFrom(c))
	if err != nil {
		return err
	}
	summary, err := serviceFrom(c).Summary(c.Context, filter)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, summary)
}

func runMonthly(c *cli.Context) error {
	filter, err := buildFilter(filterArgsFrom(c))
	if err != nil {
		return err
	}
	points, err := serviceFrom(c).Monthly(c.Context, filter)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, points)
}

func runOutliers(c *cli.Context) error {
	filter, err := buildFilter(filterArgsFrom(c))
	if err != nil {
		return err
	}
	outliers, err := serviceFrom(c).Outliers(c.Context, filter)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, outliers)
}

func parsePivotFlag(c *cli.Context) (domain.Pivot, error) {
	pivot, ok := domain.ParsePivot(c.String("pivot"))
	if !ok {
		return "", domain.NewValidationError("pivot", "unknown pivot %q", c.String("pivot"))
	}
	return pivot, nil
}

func runDetail(c *cli.Context) error {
	pivot, err := parsePivotFlag(c)
	if err != nil {
		return err
	}
	filter, err := buildFilter(filterArgsFrom(c))
	if err != nil {
		return err
	}
	page, err := serviceFrom(c).Detail(c.Context, filter, domain.DetailQuery{
		Pivot:         pivot,
		Page:          c.Int("page"),
		PageSize:      c.Int("page-size"),
		SortField:     c.String("sort-field"),
		SortDirection: c.String("sort-direction"),
	})
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, page)
}

func runOrder(c *cli.Context) error {
	number, err := strconv.ParseInt(strings.TrimSpace(c.Args().First()), 10, 64)
	if err != nil {
		return domain.NewValidationError("order_number", "must be a positive integer")
	}
	detail, err := serviceFrom(c).OrderDetail(c.Context, number)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, detail)
}

func runExport(c *cli.Context) error {
	pivot, err := parsePivotFlag(c)
	if err != nil {
		return err
	}
	filter, err := buildFilter(filterArgsFrom(c))
	if err != nil {
		return err
	}
	rows, err := serviceFrom(c).Rows(c.Context, filter, pivot)
	if err != nil {
		return err
	}
	data, err := export.DetailRowsCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to render csv: %w", err)
	}

	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		logger.Log.Info().Str("file", out).Int("rows", len(rows)).Msg("export written")
	} else if !c.Bool("upload") {
		if _, err := c.App.Writer.Write(data); err != nil {
			return err
		}
	}

	if c.Bool("upload") {
		client, err := storage.NewMinioClient(c.Context, config.Load().Storage)
		if err != nil {
			return err
		}
		name := export.ObjectName(pivot, filter, time.Now())
		if err := client.UploadObject(c.Context, name, export.ContentTypeCSV, data); err != nil {
			return err
		}
		logger.Log.Info().Str("object", name).Int("rows", len(rows)).Msg("export uploaded")
	}
	return nil
}

func runListExports(c *cli.Context) error {
	client, err := storage.NewMinioClient(c.Context, config.Load().Storage)
	if err != nil {
		return err
	}
	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Fprintf(c.App.Writer, "%s\t%d\n", obj.Key, obj.Size)
	}
	return nil
}

func runCacheFlush(c *cli.Context) error {
	cfg := config.Load()
	if !cfg.Cache.Enabled {
		fmt.Fprintln(c.App.Writer, "cache disabled, nothing to flush")
		return nil
	}
	suggestions, err := cache.NewClientSuggestionsCache(cfg.Cache)
	if err != nil {
		return err
	}
	if err := suggestions.InvalidateAll(c.Context); err != nil {
		return fmt.Errorf("failed to flush client suggestions cache: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "client suggestions cache flushed")
	return nil
}
