package main

import (
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/cache"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/efficiency"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/service"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

const (
	dbMetadataKey      = "db"
	serviceMetadataKey = "service"
)

func newFilterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "Window start (YYYY-MM-DD)"},
		&cli.StringFlag{Name: "to", Usage: "Window end (YYYY-MM-DD), inclusive"},
		&cli.StringFlag{Name: "client", Usage: "Case-insensitive client name substring"},
		&cli.StringFlag{Name: "product", Usage: "Case-insensitive item code or description substring"},
		&cli.Int64Flag{Name: "category-id", Usage: "Restrict to one product category"},
		&cli.Int64Flag{Name: "order-number", Usage: "Restrict to one order; no window required"},
	}
}

func newPivotFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "pivot",
		Usage: "One of client, product, category, order, month",
		Value: "order",
	}
}

// initService opens the database and builds the same service graph the
// HTTP server uses, without the suggestion cache.
func initService(c *cli.Context) error {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, c.String("log-level"))

	var (
		db  *postgres.DB
		err error
	)
	if url := c.String("database-url"); url != "" {
		db, err = postgres.NewDBFromURL(url)
	} else {
		db, err = postgres.NewDB(&cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	invoiceRepo := postgres.NewInvoiceRepository(db)
	engineCfg := efficiency.ConfigFromSettings(cfg.Efficiency)
	loader := efficiency.NewLoader(invoiceRepo, postgres.NewOrderRepository(db), postgres.NewCatalogRepository(db), engineCfg)
	svc := service.NewEfficiencyService(
		efficiency.NewEngine(loader, engineCfg),
		invoiceRepo,
		cache.NewNoopClientSuggestionsCache(),
		time.Duration(cfg.Efficiency.RequestTimeoutSeconds)*time.Second,
	)

	c.App.Metadata[dbMetadataKey] = db
	c.App.Metadata[serviceMetadataKey] = svc
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.App.Metadata[dbMetadataKey].(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func serviceFrom(c *cli.Context) *service.EfficiencyService {
	svc, _ := c.App.Metadata[serviceMetadataKey].(*service.EfficiencyService)
	return svc
}

func main() {
	app := &cli.App{
		Name:     "report",
		Usage:    "Compute fulfilment efficiency reports from the command line",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection string; falls back to DB_* settings",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "zerolog level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "summary",
				Usage:  "Executive summary with variation against the preceding period",
				Flags:  newFilterFlags(),
				Before: initService,
				After:  closeDB,
				Action: runSummary,
			},
			{
				Name:   "monthly",
				Usage:  "Monthly fill rate and lead time series",
				Flags:  newFilterFlags(),
				Before: initService,
				After:  closeDB,
				Action: runMonthly,
			},
			{
				Name:   "outliers",
				Usage:  "Products with the most unfulfilled quantity",
				Flags:  newFilterFlags(),
				Before: initService,
				After:  closeDB,
				Action: runOutliers,
			},
			{
				Name:  "detail",
				Usage: "One page of pivot rows",
				Flags: append(newFilterFlags(),
					newPivotFlag(),
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "page-size", Value: 20},
					&cli.StringFlag{Name: "sort-field", Value: "key"},
					&cli.StringFlag{Name: "sort-direction", Value: "asc"},
				),
				Before: initService,
				After:  closeDB,
				Action: runDetail,
			},
			{
				Name:      "order",
				Usage:     "Drill into a single order",
				ArgsUsage: "<order number>",
				Before:    initService,
				After:     closeDB,
				Action:    runOrder,
			},
			{
				Name:  "export",
				Usage: "Write every row of a pivot as CSV",
				Flags: append(newFilterFlags(),
					newPivotFlag(),
					&cli.StringFlag{Name: "out", Usage: "Output file; stdout when empty"},
					&cli.BoolFlag{Name: "upload", Usage: "Upload the CSV to the configured bucket"},
				),
				Before: initService,
				After:  closeDB,
				Action: runExport,
			},
			{
				Name:   "cache-flush",
				Usage:  "Drop every cached client suggestion",
				Action: runCacheFlush,
			},
			{
				Name:   "exports",
				Usage:  "List uploaded exports",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "prefix", Usage: "Key prefix below the configured one"}},
				Action: runListExports,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("report failed")
	}
}
