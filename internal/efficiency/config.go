package efficiency

import (
	"strings"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
)

// DefaultDocumentTypes are the invoice document types that count as fulfilment.
var DefaultDocumentTypes = []string{"FACTURA", "COMPROBANTE_VENTA", "NOTA_DEBITO", "FACTURA_FCE_MIPYMES"}

// DefaultExcludedCategoryTerms mark production categories, which never appear in the category pivot.
var DefaultExcludedCategoryTerms = []string{"production", "producción"}

// Config carries every tunable of one computation. It is passed explicitly
// and never stored in package state.
type Config struct {
	DocumentTypes         []string
	ExcludedCategoryTerms []string
	DelayedAfterDays      int
	HighFillRate          float64
	LowFillRate           float64
	SummaryTopN           int
	OutlierLimit          int

	// RedundantLinesAdvanceLastDate lets an invoice line that adds no
	// quantity (the item was already fully consumed) still move the item's
	// last contributing invoice date forward.
	RedundantLinesAdvanceLastDate bool
}

func DefaultConfig() Config {
	return Config{
		DocumentTypes:                 append([]string(nil), DefaultDocumentTypes...),
		ExcludedCategoryTerms:         append([]string(nil), DefaultExcludedCategoryTerms...),
		DelayedAfterDays:              7,
		HighFillRate:                  95,
		LowFillRate:                   80,
		SummaryTopN:                   5,
		OutlierLimit:                  20,
		RedundantLinesAdvanceLastDate: true,
	}
}

// ConfigFromSettings maps environment settings onto a Config, keeping defaults for unset values.
func ConfigFromSettings(s config.EfficiencyConfig) Config {
	cfg := DefaultConfig()
	if types := cleanList(s.DocumentTypes, strings.ToUpper); len(types) > 0 {
		cfg.DocumentTypes = types
	}
	if terms := cleanList(s.ExcludedCategoryTerms, strings.ToLower); len(terms) > 0 {
		cfg.ExcludedCategoryTerms = terms
	}
	if s.DelayedAfterDays > 0 {
		cfg.DelayedAfterDays = s.DelayedAfterDays
	}
	if s.HighFillRate > 0 {
		cfg.HighFillRate = s.HighFillRate
	}
	if s.LowFillRate > 0 {
		cfg.LowFillRate = s.LowFillRate
	}
	if s.SummaryTopN > 0 {
		cfg.SummaryTopN = s.SummaryTopN
	}
	if s.OutlierLimit > 0 {
		cfg.OutlierLimit = s.OutlierLimit
	}
	cfg.RedundantLinesAdvanceLastDate = s.RedundantLinesAdvanceLastDate
	return cfg
}

// Qualifies reports whether an invoice counts towards any metric.
func (c Config) Qualifies(inv *domain.Invoice) bool {
	if inv == nil || inv.Voided {
		return false
	}
	docType := strings.ToUpper(strings.TrimSpace(inv.DocumentType))
	for _, t := range c.DocumentTypes {
		if docType == t {
			return true
		}
	}
	return false
}

// ExcludesCategory matches category names containing any excluded term, case-insensitively.
func (c Config) ExcludesCategory(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range c.ExcludedCategoryTerms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func cleanList(values []string, normalize func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, normalize(part))
			}
		}
	}
	return out
}
