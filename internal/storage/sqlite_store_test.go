package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
)

func seededStore(t *testing.T) *TransactionStore {
	t.Helper()
	store, err := OpenTransactionStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema())

	rows := []domain.TransactionRow{
		{
			Town: "BEDOK", FlatType: "4 ROOM", FlatModel: "Model A",
			FloorAreaSqm: 95, StoreyRange: "07 TO 09", LeaseCommenceYear: 1990,
			RemainingLeaseYears: 64, HasLease: true,
			Latitude: 1.3236, Longitude: 103.9273, HasCoords: true,
			ResalePrice: 450000,
		},
		{
			Town: "BEDOK", FlatType: "3 ROOM", FlatModel: "New Generation",
			FloorAreaSqm: 68, StoreyRange: "01 TO 03", LeaseCommenceYear: 1980,
			RemainingLeaseYears: 54, HasLease: true,
			Latitude: 1.3250, Longitude: 103.9280, HasCoords: true,
			ResalePrice: 320000,
		},
		{
			Town: "TAMPINES", FlatType: "4 ROOM", FlatModel: "Model A2",
			FloorAreaSqm: 104, StoreyRange: "10 TO 12", LeaseCommenceYear: 1995,
			RemainingLeaseYears: 69, HasLease: true,
			Latitude: 1.3534, Longitude: 103.9450, HasCoords: true,
			ResalePrice: 520000,
		},
		{
			// Missing coordinates: excluded from every filter result.
			Town: "YISHUN", FlatType: "4 ROOM", FlatModel: "Model A",
			FloorAreaSqm: 93, StoreyRange: "04 TO 06", LeaseCommenceYear: 1992,
			RemainingLeaseYears: 66, HasLease: true,
			ResalePrice: 400000,
		},
		{
			// Unparsable lease: NULL in storage, excluded by the lease range.
			Town: "HOUGANG", FlatType: "4 ROOM", FlatModel: "Model A",
			FloorAreaSqm: 92, StoreyRange: "04 TO 06", LeaseCommenceYear: 1991,
			Latitude: 1.3612, Longitude: 103.8863, HasCoords: true,
			ResalePrice: 410000,
		},
	}
	require.NoError(t, store.InsertTransactions(rows))
	return store
}

func wideQuery() FilterQuery {
	return FilterQuery{
		PriceMin: 0, PriceMax: 1e9,
		FloorAreaMin: 0, FloorAreaMax: 1000,
		LeaseMin: 0, LeaseMax: 99,
	}
}

func TestFilterExcludesNullCoordsAndLease(t *testing.T) {
	store := seededStore(t)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	rows, err := store.Filter(context.Background(), wideQuery())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.True(t, r.HasCoords)
		assert.True(t, r.HasLease)
	}
}

func TestFilterPriceBand(t *testing.T) {
	store := seededStore(t)

	q := wideQuery()
	q.PriceMin, q.PriceMax = 400000, 500000
	rows, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "BEDOK", rows[0].Town)
	assert.Equal(t, 450000.0, rows[0].ResalePrice)
}

func TestFilterTownAndFlatTypeLists(t *testing.T) {
	store := seededStore(t)

	q := wideQuery()
	q.Towns = []string{"bedok"} // normalized to upper case
	q.FlatTypes = []string{"4 ROOM"}
	rows, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Model A", rows[0].FlatModel)
}

func TestFilterFlatModelSubstring(t *testing.T) {
	store := seededStore(t)

	q := wideQuery()
	q.FlatModels = []string{"model a"}
	rows, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	// "Model A" and "Model A2" both contain the substring.
	require.Len(t, rows, 2)

	q.FlatModels = []string{"generation"}
	rows, err = store.Filter(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "New Generation", rows[0].FlatModel)
}

func TestFilterStoreyAndRanges(t *testing.T) {
	store := seededStore(t)

	q := wideQuery()
	q.StoreyRanges = []string{"07 TO 09", "10 TO 12"}
	rows, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	q = wideQuery()
	q.FloorAreaMin, q.FloorAreaMax = 100, 120
	rows, err = store.Filter(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "TAMPINES", rows[0].Town)

	q = wideQuery()
	q.LeaseMin = 60
	rows, err = store.Filter(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFilterExcludesZeroFloorArea(t *testing.T) {
	store, err := OpenTransactionStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema())

	rows := []domain.TransactionRow{
		{
			// Blank floor_area_sqm cell in the source CSV loads as zero.
			Town: "BEDOK", FlatType: "4 ROOM", FlatModel: "Model A",
			FloorAreaSqm: 0, StoreyRange: "07 TO 09", LeaseCommenceYear: 1990,
			RemainingLeaseYears: 64, HasLease: true,
			Latitude: 1.3236, Longitude: 103.9273, HasCoords: true,
			ResalePrice: 450000,
		},
		{
			Town: "BEDOK", FlatType: "4 ROOM", FlatModel: "Model A",
			FloorAreaSqm: 95, StoreyRange: "07 TO 09", LeaseCommenceYear: 1990,
			RemainingLeaseYears: 64, HasLease: true,
			Latitude: 1.3250, Longitude: 103.9280, HasCoords: true,
			ResalePrice: 460000,
		},
	}
	require.NoError(t, store.InsertTransactions(rows))

	q := wideQuery()
	q.FloorAreaMin = 0 // a zero lower bound must not let zero-area rows in
	got, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 95.0, got[0].FloorAreaSqm)
}

func TestFilterEmptyResult(t *testing.T) {
	store := seededStore(t)

	q := wideQuery()
	q.Towns = []string{"PUNGGOL"}
	rows, err := store.Filter(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
