package predict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
)

func baseInput() Input {
	return Input{
		Town:              "BEDOK",
		FlatType:          "4 ROOM",
		FlatModel:         "Model A",
		FloorAreaSqm:      95,
		FloorLevel:        8,
		LeaseCommenceYear: 1990,
		Year:              2025,
		Latitude:          1.3236,
		Longitude:         103.9273,
		Distances:         domain.Distances{MRT: 0.5, CBD: 12},
	}
}

func testPredictor() *HybridPredictor {
	return NewHybridPredictor(DefaultMappings(), DefaultTrendTable())
}

func TestPredictSanity(t *testing.T) {
	p := testPredictor()

	price, err := p.Predict(baseInput())
	require.NoError(t, err)
	assert.Greater(t, price, 200000.0)
	assert.Less(t, price, 900000.0)
}

func TestPredictUnknownInputs(t *testing.T) {
	p := testPredictor()

	in := baseInput()
	in.Town = "ATLANTIS"
	_, err := p.Predict(in)
	assert.ErrorIs(t, err, ErrUnknownTown)

	in = baseInput()
	in.FlatType = "PENTHOUSE"
	_, err = p.Predict(in)
	assert.ErrorIs(t, err, ErrUnknownFlatType)

	t.Run("unknown model falls back instead of failing", func(t *testing.T) {
		in := baseInput()
		in.FlatModel = "Castle"
		_, err := p.Predict(in)
		assert.NoError(t, err)
	})
}

func TestPredictFeatureDirections(t *testing.T) {
	p := testPredictor()

	base, err := p.Predict(baseInput())
	require.NoError(t, err)

	t.Run("bigger units cost more", func(t *testing.T) {
		in := baseInput()
		in.FloorAreaSqm = 120
		price, err := p.Predict(in)
		require.NoError(t, err)
		assert.Greater(t, price, base)
	})

	t.Run("older leases cost less", func(t *testing.T) {
		in := baseInput()
		in.LeaseCommenceYear = 1975
		price, err := p.Predict(in)
		require.NoError(t, err)
		assert.Less(t, price, base)
	})

	t.Run("higher floors cost more", func(t *testing.T) {
		in := baseInput()
		in.FloorLevel = 20
		price, err := p.Predict(in)
		require.NoError(t, err)
		assert.Greater(t, price, base)
	})

	t.Run("executive beats three-room", func(t *testing.T) {
		exec, three := baseInput(), baseInput()
		exec.FlatType = "EXECUTIVE"
		three.FlatType = "3 ROOM"
		pe, err := p.Predict(exec)
		require.NoError(t, err)
		p3, err := p.Predict(three)
		require.NoError(t, err)
		assert.Greater(t, pe, p3)
	})

	t.Run("central region premium", func(t *testing.T) {
		central := baseInput()
		central.Town = "QUEENSTOWN" // RCR
		pc, err := p.Predict(central)
		require.NoError(t, err)
		ocr := baseInput()
		ocr.Town = "JURONG WEST"
		po, err := p.Predict(ocr)
		require.NoError(t, err)
		assert.Greater(t, pc, po)
	})
}

func TestTrendTableMultiplier(t *testing.T) {
	trend := DefaultTrendTable()

	assert.Equal(t, 1.0, trend.Multiplier(2025))
	assert.Equal(t, trend[2030], trend.Multiplier(2040), "beyond table uses furthest year")
	assert.Equal(t, 1.0, TrendTable{}.Multiplier(2026), "empty table is neutral")

	t.Run("later years predict higher prices", func(t *testing.T) {
		p := testPredictor()
		in := baseInput()
		base, err := p.Predict(in)
		require.NoError(t, err)
		in.Year = 2028
		later, err := p.Predict(in)
		require.NoError(t, err)
		assert.Greater(t, later, base)
	})
}

func TestLoadTrendTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"2025": 1.0, "2026": 1.05}`), 0o644))

	trend, err := LoadTrendTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1.05, trend.Multiplier(2026))

	_, err = LoadTrendTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRemainingLease(t *testing.T) {
	assert.Equal(t, 64, RemainingLease(2025, 1990))
	assert.Equal(t, 99, RemainingLease(2025, 2025))
}

func TestMappingsCodeTables(t *testing.T) {
	m := DefaultMappings()

	code, err := m.townCode("bedok")
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	_, err = m.townCode("ATLANTIS")
	assert.ErrorIs(t, err, ErrUnknownTown)

	ft, err := m.flatTypeInt("4 room")
	require.NoError(t, err)
	assert.Equal(t, 4, ft)

	assert.Equal(t, m.FlatModelCode["OTHER"], m.flatModelCode("Castle"))
	assert.Equal(t, m.FlatModelCode["Improved"], m.flatModelCode("IMPROVED"), "case-insensitive fallback")

	assert.Len(t, m.Towns(), 26)
	assert.Equal(t, "1 ROOM", m.FlatTypes()[0])
}

func TestLoadMappingsOverridesFromCSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "town_code_map.csv"),
		[]byte("town,town_code\nBEDOK,7\n"), 0o644))

	m, err := LoadMappings(dir)
	require.NoError(t, err)

	code, err := m.townCode("BEDOK")
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	// Files not present keep the built-in tables.
	_, err = m.flatTypeInt("4 ROOM")
	assert.NoError(t, err)
}
