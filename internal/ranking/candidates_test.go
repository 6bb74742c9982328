package ranking

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
	"github.com/flatfinder-sg/flatfinder/internal/predict"
)

func TestParseFloorLevel(t *testing.T) {
	assert.Equal(t, 7, parseFloorLevel("07 TO 09"))
	assert.Equal(t, 13, parseFloorLevel("13 TO 15"))
	assert.Equal(t, 4, parseFloorLevel("4-6"))
	assert.Equal(t, 5, parseFloorLevel("GROUND"))
	assert.Equal(t, 5, parseFloorLevel(""))
}

func TestExceedsCeilings(t *testing.T) {
	d := domain.Distances{MRT: 1.5, PrimarySchool: 0.8, Mall: 2.0, Hawker: 0.5}

	assert.False(t, exceedsCeilings(d, domain.MaxDistances{}), "zero ceilings are disabled")
	assert.True(t, exceedsCeilings(d, domain.MaxDistances{MRT: 1.0}))
	assert.True(t, exceedsCeilings(d, domain.MaxDistances{School: 0.5}))
	assert.False(t, exceedsCeilings(d, domain.MaxDistances{MRT: 2.0, School: 1.0, Mall: 3.0, Hawker: 1.0}))
}

func TestSampleByTownDeterministicAndStratified(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProcess = 100
	cfg.PerTownMin = 10
	g := NewGenerator(nil, nil, nil, cfg, zerolog.Nop())

	var rows []domain.TransactionRow
	for _, town := range []string{"BEDOK", "TAMPINES", "YISHUN", "HOUGANG"} {
		for i := 0; i < 500; i++ {
			rows = append(rows, domain.TransactionRow{Town: town, FloorAreaSqm: float64(i)})
		}
	}

	first := g.sampleByTown(append([]domain.TransactionRow(nil), rows...))
	second := g.sampleByTown(append([]domain.TransactionRow(nil), rows...))
	assert.Equal(t, first, second, "sampling must be reproducible")

	counts := map[string]int{}
	for _, r := range first {
		counts[r.Town]++
	}
	quota := cfg.MaxProcess / 4
	for town, n := range counts {
		assert.Equal(t, quota, n, "town %s", town)
	}
}

func TestSampleByTownBelowCapPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	g := NewGenerator(nil, nil, nil, cfg, zerolog.Nop())

	rows := []domain.TransactionRow{{Town: "BEDOK"}, {Town: "YISHUN"}}
	assert.Equal(t, rows, g.sampleByTown(rows))
}

func zeroDistances(_, _ float64) domain.Distances { return domain.Distances{} }

func TestGenerateSyntheticFallback(t *testing.T) {
	cfg := DefaultConfig()
	predictor := predict.NewHybridPredictor(predict.DefaultMappings(), predict.DefaultTrendTable())
	g := NewGenerator(nil, zeroDistances, predictor, cfg, zerolog.Nop())

	req := domain.RankingRequest{
		TargetYear:   2025,
		BudgetMin:    200000,
		BudgetMax:    900000,
		Towns:        []string{"ANG MO KIO"},
		FlatTypes:    []string{"4 ROOM"},
		FloorAreaMin: 30,
		FloorAreaMax: 200,
		LeaseMin:     0,
		LeaseMax:     99,
	}
	candidates, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.LessOrEqual(t, len(candidates), syntheticPerTownCap)

	for _, c := range candidates {
		assert.Equal(t, "ANG MO KIO", c.Town)
		assert.Equal(t, "4 ROOM", c.FlatType)
		assert.GreaterOrEqual(t, c.PredictedPrice, req.BudgetMin)
		assert.LessOrEqual(t, c.PredictedPrice, req.BudgetMax)
		assert.InDelta(t, 1.3691, c.Latitude, 0.011)
		assert.Positive(t, c.RemainingLease)
	}

	t.Run("reproducible", func(t *testing.T) {
		again, err := g.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, candidates, again)
	})
}

func TestGenerateSyntheticSkipsUnknownTowns(t *testing.T) {
	cfg := DefaultConfig()
	predictor := predict.NewHybridPredictor(predict.DefaultMappings(), predict.DefaultTrendTable())
	g := NewGenerator(nil, zeroDistances, predictor, cfg, zerolog.Nop())

	req := domain.RankingRequest{
		TargetYear:   2025,
		BudgetMin:    200000,
		BudgetMax:    900000,
		Towns:        []string{"ATLANTIS"},
		FlatTypes:    []string{"4 ROOM"},
		FloorAreaMin: 30,
		FloorAreaMax: 200,
		LeaseMax:     99,
	}
	candidates, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestSyntheticFallbackPrice(t *testing.T) {
	info := locations.Towns["ANG MO KIO"]

	p4 := syntheticFallbackPrice(info, "4 ROOM", 2025)
	p3 := syntheticFallbackPrice(info, "3 ROOM", 2025)
	assert.Greater(t, p4, p3)

	later := syntheticFallbackPrice(info, "4 ROOM", 2028)
	assert.Greater(t, later, p4)
}
