package ranking

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
)

// Weights defines the coefficients of the five sub-scores. They must sum
// to 1.0 so the composite stays in [0,100].
type Weights struct {
	Travel  float64 `json:"travel"`
	Value   float64 `json:"value"`
	Budget  float64 `json:"budget"`
	Amenity float64 `json:"amenity"`
	Space   float64 `json:"space"`
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Travel:  0.35,
		Value:   0.25,
		Budget:  0.20,
		Amenity: 0.15,
		Space:   0.05,
	}
}

// LoadWeightsFromFile loads weights from a JSON file, falling back to
// defaults on read errors.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return w, fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}

// Config carries the ranking tunables. The slack band and appreciation
// rate are tuning constants without a published derivation, so they stay
// configurable rather than hard-coded.
type Config struct {
	Weights Weights

	// Budget pre-filter.
	AppreciationRate float64 // annual, compounded from BaselineYear to targetYear
	BaselineYear     int
	SlackLow         float64 // lower band factor on the adjusted minimum
	SlackHigh        float64 // upper band factor on the adjusted maximum

	// Scale controls.
	MaxProcess  int           // stratified-sampling trigger
	PerTownMin  int           // per-town sampling floor
	MaxAccepted int           // early-exit success threshold
	Timeout     time.Duration // wall-clock budget for the enrichment loop
	SampleSeed  int64

	// Response shaping.
	TopN      int
	CacheSize int

	// Worker pool bound for concurrent ranking calls.
	MaxConcurrent int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		AppreciationRate: 0.03,
		BaselineYear:     2025,
		SlackLow:         0.8,
		SlackHigh:        1.2,
		MaxProcess:       2000,
		PerTownMin:       50,
		MaxAccepted:      500,
		Timeout:          30 * time.Second,
		SampleSeed:       42,
		TopN:             10,
		CacheSize:        500,
		MaxConcurrent:    poolSize(),
	}
}

func poolSize() int {
	n := runtime.NumCPU() * 4
	if n > 32 {
		n = 32
	}
	if n < 1 {
		n = 1
	}
	return n
}
