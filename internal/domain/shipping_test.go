package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quoteTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func provider(id, name string, base, perDist string, label string, localOnly bool) ProviderConfig {
	return ProviderConfig{
		ID:              id,
		Name:            name,
		Enabled:         true,
		BaseRate:        decimal.RequireFromString(base),
		PerDistanceRate: decimal.RequireFromString(perDist),
		SpeedLabel:      label,
		LocalOnly:       localOnly,
	}
}

func originAt(postal string) OriginAddress {
	return OriginAddress{Street: "1 Warehouse Way", City: "San Mateo", State: "CA", PostalCode: postal, Country: "US"}
}

func destAt(postal string) Address {
	return Address{FullName: "Test Customer", Street: "2 Main St", City: "Somewhere", State: "CA", PostalCode: postal, Country: "US"}
}

// ============================================================================
// ClassifyZone Tests
// ============================================================================

func TestClassifyZone_Local(t *testing.T) {
	zone, dist := ClassifyZone("94000", "94025")
	assert.Equal(t, ZoneLocal, zone)
	assert.Equal(t, 25, dist)
}

func TestClassifyZone_National(t *testing.T) {
	zone, dist := ClassifyZone("94000", "10001")
	assert.Equal(t, ZoneNational, zone)
	assert.Equal(t, 83999, dist)
}

func TestClassifyZone_SymmetricInDirection(t *testing.T) {
	zoneA, distA := ClassifyZone("10001", "94000")
	zoneB, distB := ClassifyZone("94000", "10001")
	assert.Equal(t, zoneA, zoneB)
	assert.Equal(t, distA, distB)
}

func TestClassifyZone_ThresholdsAreStrict(t *testing.T) {
	// diff > 1000 is Regional, diff > 5000 is National; equality stays below.
	cases := []struct {
		origin, dest string
		want         Zone
	}{
		{"10000", "11000", ZoneLocal},    // diff exactly 1000
		{"10000", "11001", ZoneRegional}, // diff 1001
		{"10000", "15000", ZoneRegional}, // diff exactly 5000
		{"10000", "15001", ZoneNational}, // diff 5001
	}
	for _, tc := range cases {
		zone, _ := ClassifyZone(tc.origin, tc.dest)
		assert.Equal(t, tc.want, zone, "origin=%s dest=%s", tc.origin, tc.dest)
	}
}

func TestClassifyZone_StripsNonDigits(t *testing.T) {
	zone, dist := ClassifyZone("CA 94000", "94-025")
	assert.Equal(t, ZoneLocal, zone)
	assert.Equal(t, 25, dist)
}

func TestClassifyZone_FallbacksDiffer(t *testing.T) {
	// Both sides unparseable: the distinct fallbacks must not land in Local.
	zone, _ := ClassifyZone("???", "N/A")
	assert.Equal(t, ZoneNational, zone)
}

func TestClassifyZone_DestinationFallbackOnly(t *testing.T) {
	zone, _ := ClassifyZone("94000", "")
	assert.Equal(t, ZoneNational, zone)
}

// ============================================================================
// Zone.Multiplier Tests
// ============================================================================

func TestZoneMultiplier(t *testing.T) {
	assert.Equal(t, int64(1), ZoneLocal.Multiplier())
	assert.Equal(t, int64(2), ZoneRegional.Multiplier())
	assert.Equal(t, int64(4), ZoneNational.Multiplier())
}

// ============================================================================
// ComputeDeliveryOptions Tests
// ============================================================================

func TestComputeDeliveryOptions_LocalScenario(t *testing.T) {
	providers := []ProviderConfig{provider("express_courier", "Express Courier", "15", "0.5", "1-2 Days", false)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 1)

	// 15 + 0.5*10*1 = 20.00
	assert.True(t, opts[0].Price.Equal(decimal.RequireFromString("20.00")), "price = %s", opts[0].Price)
	assert.Equal(t, "Express Courier (Local)", opts[0].Name)
	assert.Equal(t, "1-2 Days", opts[0].Duration)
	assert.Equal(t, ZoneLocal, opts[0].Zone)
	assert.Equal(t, "express_courier", opts[0].ProviderID)
}

func TestComputeDeliveryOptions_NationalScenario(t *testing.T) {
	providers := []ProviderConfig{provider("express_courier", "Express Courier", "15", "0.5", "1-2 Days", false)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("10001"), providers, quoteTime)
	require.Len(t, opts, 1)

	// 15 + 0.5*10*4 = 35.00
	assert.True(t, opts[0].Price.Equal(decimal.RequireFromString("35.00")), "price = %s", opts[0].Price)
	assert.Equal(t, "Express Courier (National)", opts[0].Name)
	assert.Equal(t, "+2 Days (1-2 Days)", opts[0].Duration)
	assert.Equal(t, ZoneNational, opts[0].Zone)
}

func TestComputeDeliveryOptions_Deterministic(t *testing.T) {
	providers := []ProviderConfig{
		provider("local_post", "Local Post", "0", "0.1", "5-7 Days", false),
		provider("express_courier", "Express Courier", "15", "0.5", "1-2 Days", false),
	}

	first := ComputeDeliveryOptions(originAt("94000"), destAt("90210"), providers, quoteTime)
	second := ComputeDeliveryOptions(originAt("94000"), destAt("90210"), providers, quoteTime)
	assert.Equal(t, first, second)
}

func TestComputeDeliveryOptions_SkipsDisabled(t *testing.T) {
	disabled := provider("local_post", "Local Post", "0", "0.1", "5-7 Days", false)
	disabled.Enabled = false
	providers := []ProviderConfig{
		disabled,
		provider("express_courier", "Express Courier", "15", "0.5", "1-2 Days", false),
	}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 1)
	assert.Equal(t, "express_courier", opts[0].ProviderID)
}

func TestComputeDeliveryOptions_LocalOnlyIncludedInLocalZone(t *testing.T) {
	providers := []ProviderConfig{provider("drone", "Drone Delivery", "40", "0", "2 Hours", true)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 1)
	assert.True(t, opts[0].Price.Equal(decimal.RequireFromString("40.00")))
	assert.Equal(t, "2 Hours", opts[0].Duration)
}

func TestComputeDeliveryOptions_LocalOnlyExcludedInRegionalZone(t *testing.T) {
	providers := []ProviderConfig{provider("drone", "Drone Delivery", "40", "0", "2 Hours", true)}

	opts := ComputeDeliveryOptions(originAt("10000"), destAt("12000"), providers, quoteTime)
	assert.Empty(t, opts)
}

func TestComputeDeliveryOptions_LocalOnlyExcludedInNationalZone(t *testing.T) {
	providers := []ProviderConfig{provider("drone", "Drone Delivery", "40", "0", "2 Hours", true)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("10001"), providers, quoteTime)
	assert.Empty(t, opts)
}

func TestComputeDeliveryOptions_EmptyProvidersYieldsEmptyResult(t *testing.T) {
	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), nil, quoteTime)
	assert.Empty(t, opts)
}

func TestComputeDeliveryOptions_RoundsToTwoDecimals(t *testing.T) {
	// 0 + 0.333*10*1 = 3.33
	providers := []ProviderConfig{provider("local_post", "Local Post", "0", "0.333", "5-7 Days", false)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 1)
	assert.True(t, opts[0].Price.Equal(decimal.RequireFromString("3.33")), "price = %s", opts[0].Price)
}

func TestComputeDeliveryOptions_RoundsHalfAwayFromZero(t *testing.T) {
	// 0 + 0.0005*10*1 = 0.005 -> 0.01
	providers := []ProviderConfig{provider("local_post", "Local Post", "0", "0.0005", "5-7 Days", false)}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 1)
	assert.True(t, opts[0].Price.Equal(decimal.RequireFromString("0.01")), "price = %s", opts[0].Price)
}

func TestComputeDeliveryOptions_OptionIDsVaryAcrossQuotes(t *testing.T) {
	providers := []ProviderConfig{provider("local_post", "Local Post", "0", "0.1", "5-7 Days", false)}

	first := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	second := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime.Add(time.Second))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestComputeDeliveryOptions_OptionIDsUniqueWithinQuote(t *testing.T) {
	providers := []ProviderConfig{
		provider("local_post", "Local Post", "0", "0.1", "5-7 Days", false),
		provider("express_courier", "Express Courier", "15", "0.5", "1-2 Days", false),
	}

	opts := ComputeDeliveryOptions(originAt("94000"), destAt("94025"), providers, quoteTime)
	require.Len(t, opts, 2)
	assert.NotEqual(t, opts[0].ID, opts[1].ID)
}

// ============================================================================
// RankOptions Tests
// ============================================================================

func TestRankOptions_SortsAscendingByPrice(t *testing.T) {
	opts := []DeliveryOption{
		{ID: "b", Price: decimal.RequireFromString("35.00")},
		{ID: "a", Price: decimal.RequireFromString("1.00")},
		{ID: "c", Price: decimal.RequireFromString("40.00")},
	}

	ranked := RankOptions(opts)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ID)
	assert.Equal(t, "b", ranked[1].ID)
	assert.Equal(t, "c", ranked[2].ID)
}

func TestRankOptions_TiesPreserveInputOrder(t *testing.T) {
	opts := []DeliveryOption{
		{ID: "first-ten", Price: decimal.RequireFromString("10.00")},
		{ID: "second-ten", Price: decimal.RequireFromString("10.00")},
		{ID: "five", Price: decimal.RequireFromString("5.00")},
	}

	ranked := RankOptions(opts)
	require.Len(t, ranked, 3)
	assert.Equal(t, "five", ranked[0].ID)
	assert.Equal(t, "first-ten", ranked[1].ID)
	assert.Equal(t, "second-ten", ranked[2].ID)
}

func TestRankOptions_DoesNotMutateInput(t *testing.T) {
	opts := []DeliveryOption{
		{ID: "b", Price: decimal.RequireFromString("20.00")},
		{ID: "a", Price: decimal.RequireFromString("10.00")},
	}

	_ = RankOptions(opts)
	assert.Equal(t, "b", opts[0].ID)
	assert.Equal(t, "a", opts[1].ID)
}

func TestRankOptions_EmptyInput(t *testing.T) {
	assert.Empty(t, RankOptions(nil))
}
