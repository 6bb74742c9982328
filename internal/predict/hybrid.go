package predict

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/flatfinder-sg/flatfinder/internal/locations"
)

// TrendTable maps calendar years to market trend multipliers applied on
// top of the base price. Years beyond the table use the furthest known
// year's multiplier.
type TrendTable map[int]float64

// DefaultTrendTable returns built-in multipliers anchored at 2025.
func DefaultTrendTable() TrendTable {
	return TrendTable{
		2025: 1.000,
		2026: 1.032,
		2027: 1.063,
		2028: 1.094,
		2029: 1.126,
		2030: 1.158,
	}
}

// LoadTrendTable reads a {"year": multiplier} JSON file.
func LoadTrendTable(path string) (TrendTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trend table: %w", err)
	}
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal trend table: %w", err)
	}
	t := make(TrendTable, len(raw))
	for k, v := range raw {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("trend table year %q: %w", k, err)
		}
		t[year] = v
	}
	return t, nil
}

// Multiplier returns the trend multiplier for a year, falling back to the
// furthest known year, then 1.0 for an empty table.
func (t TrendTable) Multiplier(year int) float64 {
	if m, ok := t[year]; ok {
		return m
	}
	maxYear, found := 0, false
	for y := range t {
		if !found || y > maxYear {
			maxYear, found = y, true
		}
	}
	if found {
		return t[maxYear]
	}
	return 1.0
}

// HybridPredictor is the in-repo baseline price model: a per-town anchor
// price shaped by flat type, floor area, lease decay, floor level, region
// and amenity proximity, multiplied by the per-year trend table. It
// validates town and flat type against the code tables so that structurally
// invalid requests fail fast.
type HybridPredictor struct {
	mappings *Mappings
	trend    TrendTable
}

// NewHybridPredictor wires the predictor with its code tables and trend
// multipliers.
func NewHybridPredictor(m *Mappings, trend TrendTable) *HybridPredictor {
	return &HybridPredictor{mappings: m, trend: trend}
}

var flatTypeMultipliers = map[string]float64{
	"1 ROOM":           0.40,
	"2 ROOM":           0.55,
	"3 ROOM":           0.75,
	"4 ROOM":           1.00,
	"5 ROOM":           1.25,
	"EXECUTIVE":        1.50,
	"MULTI-GENERATION": 1.65,
}

const referenceAreaSqm = 95.0 // typical 4-room unit

// Predict implements Predictor.
func (p *HybridPredictor) Predict(in Input) (float64, error) {
	town := strings.ToUpper(strings.TrimSpace(in.Town))
	if _, err := p.mappings.townCode(town); err != nil {
		return 0, err
	}
	if _, err := p.mappings.flatTypeInt(in.FlatType); err != nil {
		return 0, err
	}
	_ = p.mappings.flatModelCode(in.FlatModel)

	info, ok := locations.Towns[town]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTown, in.Town)
	}

	typeMult, ok := flatTypeMultipliers[strings.ToUpper(strings.TrimSpace(in.FlatType))]
	if !ok {
		typeMult = 1.0
	}

	areaFactor := 0.5 + 0.5*(in.FloorAreaSqm/referenceAreaSqm)

	remaining := 99 - (in.Year - in.LeaseCommenceYear)
	leaseFactor := clamp(0.6+0.4*float64(remaining)/99.0, 0.6, 1.05)

	floorFactor := 1.0 + 0.004*float64(in.FloorLevel-8)

	regionFactor := 1.0
	switch locations.Region(town) {
	case locations.RegionCCR:
		regionFactor = 1.15
	case locations.RegionRCR:
		regionFactor = 1.05
	}

	amenityFactor := clamp(
		1.0+0.06/(1.0+in.Distances.MRT)-0.005*in.Distances.CBD,
		0.85, 1.15)

	base := info.AvgPrice4rm * typeMult * areaFactor * leaseFactor * floorFactor * regionFactor * amenityFactor
	return base * p.trend.Multiplier(in.Year), nil
}

// RemainingLease returns the 99-year lease balance at the target year.
func RemainingLease(year, leaseCommenceYear int) int {
	return 99 - (year - leaseCommenceYear)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
