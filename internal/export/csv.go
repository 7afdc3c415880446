package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
)

const ContentTypeCSV = "text/csv"

var detailHeader = []string{
	"key",
	"label",
	"ordered_qty",
	"invoiced_qty",
	"fill_rate",
	"weighted_fill_rate",
	"avg_lead_time_days",
	"monetary_ordered",
	"monetary_invoiced",
}

// WriteDetailRows writes pivot rows as CSV with a header line. A missing
// lead time is an empty cell.
func WriteDetailRows(w io.Writer, rows []domain.DetailRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(detailHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range rows {
		lead := ""
		if row.AvgLeadTimeDays != nil {
			lead = formatFloat(*row.AvgLeadTimeDays)
		}
		record := []string{
			row.Key,
			row.Label,
			formatFloat(row.OrderedQty),
			formatFloat(row.InvoicedQty),
			formatFloat(row.FillRate),
			formatFloat(row.WeightedFillRate),
			lead,
			row.MonetaryOrdered.StringFixed(2),
			row.MonetaryInvoiced.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", row.Key, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// DetailRowsCSV renders rows into memory, ready for upload.
func DetailRowsCSV(rows []domain.DetailRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDetailRows(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ObjectName names an export after its pivot and window, e.g.
// "product_2024-01-01_2024-01-31_20240215T103000.csv".
func ObjectName(pivot domain.Pivot, filter domain.EfficiencyFilter, now time.Time) string {
	window := "all"
	switch {
	case filter.OrderNumber != nil:
		window = "order-" + strconv.FormatInt(*filter.OrderNumber, 10)
	case filter.HasDateRange():
		window = filter.DateFrom.Format(domain.DateLayout) + "_" + filter.DateTo.Format(domain.DateLayout)
	}
	return fmt.Sprintf("%s_%s_%s.csv", pivot, window, now.UTC().Format("20060102T150405"))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
