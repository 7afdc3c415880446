package efficiency

import (
	"testing"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/config"
	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(config.EfficiencyConfig{
		DocumentTypes:    []string{" factura, nota_debito ", ""},
		DelayedAfterDays: 10,
		LowFillRate:      70,
	})

	assert.Equal(t, []string{"FACTURA", "NOTA_DEBITO"}, cfg.DocumentTypes)
	assert.Equal(t, DefaultExcludedCategoryTerms, cfg.ExcludedCategoryTerms)
	assert.Equal(t, 10, cfg.DelayedAfterDays)
	assert.Equal(t, 95.0, cfg.HighFillRate)
	assert.Equal(t, 70.0, cfg.LowFillRate)
	assert.Equal(t, 20, cfg.OutlierLimit)
	assert.False(t, cfg.RedundantLinesAdvanceLastDate)
}

func TestConfig_Qualifies(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		inv  *domain.Invoice
		want bool
	}{
		{name: "invoice", inv: &domain.Invoice{DocumentType: "FACTURA"}, want: true},
		{name: "lower case with spaces", inv: &domain.Invoice{DocumentType: " factura_fce_mipymes "}, want: true},
		{name: "credit note", inv: &domain.Invoice{DocumentType: "NOTA_CREDITO"}, want: false},
		{name: "voided", inv: &domain.Invoice{DocumentType: "FACTURA", Voided: true}, want: false},
		{name: "nil", inv: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.Qualifies(tt.inv))
		})
	}
}
