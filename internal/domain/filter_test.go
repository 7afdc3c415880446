package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		wantFrom string
		wantTo   string
		wantErr  string
	}{
		{name: "plain dates", from: "2024-01-01", to: "2024-01-31", wantFrom: "2024-01-01T00:00:00Z", wantTo: "2024-01-31T23:59:59.999999999Z"},
		{name: "iso timestamps", from: "2024-01-01T15:04:05Z", to: "2024-01-02T01:00:00Z", wantFrom: "2024-01-01T00:00:00Z", wantTo: "2024-01-02T23:59:59.999999999Z"},
		{name: "same day", from: "2024-03-05", to: "2024-03-05", wantFrom: "2024-03-05T00:00:00Z", wantTo: "2024-03-05T23:59:59.999999999Z"},
		{name: "missing from", from: "", to: "2024-01-31", wantErr: "date_from"},
		{name: "malformed to", from: "2024-01-01", to: "31/01/2024", wantErr: "date_to"},
		{name: "inverted", from: "2024-02-01", to: "2024-01-01", wantErr: "date_from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.from, tt.to)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, from.Format(time.RFC3339Nano))
			assert.Equal(t, tt.wantTo, to.Format(time.RFC3339Nano))
		})
	}
}

func TestEfficiencyFilter_Shift(t *testing.T) {
	from, to, err := ParseDateRange("2024-02-01", "2024-02-29")
	require.NoError(t, err)

	prev := EfficiencyFilter{DateFrom: from, DateTo: to, Client: "acme"}.Shift()
	assert.Equal(t, "2024-01-03", prev.DateFrom.Format(DateLayout))
	assert.Equal(t, "2024-01-31", prev.DateTo.Format(DateLayout))
	assert.Equal(t, "acme", prev.Client)

	from, to, err = ParseDateRange("2024-05-10", "2024-05-10")
	require.NoError(t, err)
	prev = EfficiencyFilter{DateFrom: from, DateTo: to}.Shift()
	assert.Equal(t, "2024-05-09", prev.DateFrom.Format(DateLayout))
	assert.Equal(t, "2024-05-09", prev.DateTo.Format(DateLayout))
}

func TestEfficiencyFilter_Validate(t *testing.T) {
	valid := int64(10)
	invalid := int64(0)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, EfficiencyFilter{DateFrom: jan, DateTo: feb}.Validate())
	assert.NoError(t, EfficiencyFilter{OrderNumber: &valid}.Validate())
	assert.True(t, IsValidationError(EfficiencyFilter{OrderNumber: &invalid}.Validate()))
	assert.True(t, IsValidationError(EfficiencyFilter{DateFrom: jan}.Validate()))
	assert.True(t, IsValidationError(EfficiencyFilter{DateFrom: feb, DateTo: jan}.Validate()))
}

func TestEfficiencyFilter_Matches(t *testing.T) {
	f := EfficiencyFilter{Client: " acme ", Product: "juice"}

	assert.True(t, f.MatchesClient("ACME Corp"))
	assert.False(t, f.MatchesClient("Beta"))
	assert.True(t, f.MatchesProduct("A1", "Apple Juice"))
	assert.False(t, f.MatchesProduct("A1", "Apple"))
	assert.True(t, EfficiencyFilter{}.MatchesProduct("anything", ""))
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, 0.0, SanitizeQuantity(-3))
	assert.Equal(t, 0.0, SanitizeQuantity(math.NaN()))
	assert.Equal(t, 0.0, SanitizeQuantity(math.Inf(1)))
	assert.Equal(t, 2.5, SanitizeQuantity(2.5))
	assert.True(t, SanitizePrice(decimal.NewFromInt(-1)).IsZero())
	assert.Equal(t, "ABC-1", NormalizeItemCode("  abc-1 "))
}

func TestParsePivot(t *testing.T) {
	p, ok := ParsePivot("Categories")
	assert.True(t, ok)
	assert.Equal(t, PivotCategory, p)

	_, ok = ParsePivot("warehouse")
	assert.False(t, ok)
}
