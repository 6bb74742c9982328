package ranking

import (
	"math"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/geo"
)

// maxTravelDistanceKm is the weighted-average commute distance at which
// the travel score bottoms out.
const maxTravelDistanceKm = 20.0

// Per-amenity weights of the reciprocal-distance amenity score.
const (
	amenityWeightMRT    = 0.40
	amenityWeightSchool = 0.30
	amenityWeightMall   = 0.20
	amenityWeightHawker = 0.10
)

// travelScore maps the frequency-weighted average distance to the
// buyer's destinations onto [0,100]. No destinations is neutral.
func travelScore(lat, lon float64, destinations []domain.Destination) float64 {
	if len(destinations) == 0 {
		return 50.0
	}

	var totalWeighted, totalWeight float64
	for _, d := range destinations {
		dist := geo.Haversine(lat, lon, d.Latitude, d.Longitude)
		totalWeighted += dist * d.FrequencyWeight
		totalWeight += d.FrequencyWeight
	}
	if totalWeight == 0 {
		return 50.0
	}

	avg := totalWeighted / totalWeight
	return round1(math.Max(0, 100-avg/maxTravelDistanceKm*100))
}

// valueScore is the inverted min-max position of the candidate's
// price-per-sqm within the full candidate set: cheapest per sqm scores
// 100. Degenerate distributions are neutral.
func valueScore(pricePerSqm float64, allPPSM []float64) float64 {
	if len(allPPSM) <= 1 {
		return 50.0
	}
	minP, maxP := allPPSM[0], allPPSM[0]
	for _, p := range allPPSM[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	if maxP == minP {
		return 50.0
	}
	score := 100 * (1 - (pricePerSqm-minP)/(maxP-minP))
	return round1(clampScore(score))
}

// budgetScore peaks at 100 when the price sits exactly at the budget
// midpoint and falls off linearly with distance from it. A zero-width
// budget scores 100 only on an exact hit.
func budgetScore(price, minBudget, maxBudget float64) float64 {
	mid := (minBudget + maxBudget) / 2
	span := maxBudget - minBudget
	if span == 0 {
		if price == mid {
			return 100.0
		}
		return 0.0
	}
	score := 100 - math.Abs(price-mid)/span*100
	return round1(clampScore(score))
}

// amenityScore is the weighted reciprocal-distance sum over the four
// amenity kinds buyers filter on, capped at 100.
func amenityScore(d domain.Distances) float64 {
	raw := amenityWeightMRT/(1+d.MRT) +
		amenityWeightSchool/(1+d.PrimarySchool) +
		amenityWeightMall/(1+d.Mall) +
		amenityWeightHawker/(1+d.Hawker)
	return round1(math.Min(100, raw*100))
}

// spaceScore compares the floor area with the midpoint of the desired
// range; at or above the midpoint it saturates at 100.
func spaceScore(floorArea, minArea, maxArea float64) float64 {
	preferred := (minArea + maxArea) / 2
	if preferred == 0 {
		return 50.0
	}
	score := math.Min(100, floorArea/preferred*100)
	return round1(math.Max(0, score))
}

// finalScore combines the five already-clamped sub-scores.
func (w Weights) finalScore(s domain.ScoreSet) float64 {
	return round1(w.Travel*s.Travel +
		w.Value*s.Value +
		w.Budget*s.Budget +
		w.Amenity*s.Amenity +
		w.Space*s.Space)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
