package ranking

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
	"github.com/flatfinder-sg/flatfinder/internal/predict"
	"github.com/flatfinder-sg/flatfinder/internal/storage"
)

// TransactionSource supplies hard-filtered dataset rows. Nil sources
// switch the generator to the synthetic fallback.
type TransactionSource interface {
	Filter(ctx context.Context, q storage.FilterQuery) ([]domain.TransactionRow, error)
}

// DistanceFunc computes the per-amenity distances for one coordinate.
type DistanceFunc func(lat, lon float64) domain.Distances

// Generator produces the bounded, diverse candidate list for one ranking
// call: hard filtering, stratified sampling, per-row enrichment under a
// wall-clock budget, and the synthetic fallback when no dataset exists.
type Generator struct {
	source    TransactionSource
	distances DistanceFunc
	predictor predict.Predictor
	cfg       Config
	log       zerolog.Logger
}

// NewGenerator wires a candidate generator. source may be nil.
func NewGenerator(source TransactionSource, distances DistanceFunc, predictor predict.Predictor, cfg Config, log zerolog.Logger) *Generator {
	return &Generator{
		source:    source,
		distances: distances,
		predictor: predictor,
		cfg:       cfg,
		log:       log,
	}
}

// Generate returns the candidate list for a request. A nil error with an
// empty slice means nothing matched; errors are reserved for
// structurally invalid requests (unknown town/flat-type in the
// predictor's code tables).
func (g *Generator) Generate(ctx context.Context, req domain.RankingRequest) ([]domain.Candidate, error) {
	if g.source == nil {
		g.log.Warn().Msg("no transaction dataset available, generating synthetic candidates")
		return g.generateSynthetic(req)
	}

	rows, err := g.source.Filter(ctx, g.filterQuery(req))
	if err != nil {
		return nil, err
	}
	g.log.Debug().Int("rows", len(rows)).Msg("hard filtering complete")
	if len(rows) == 0 {
		return nil, nil
	}

	rows = g.sampleByTown(rows)
	return g.enrich(ctx, req, rows)
}

// filterQuery projects the requested budget back to the dataset's price
// era and assembles the hard-filter stages. The band is deliberately
// loose; the real budget check runs later against the predicted price.
func (g *Generator) filterQuery(req domain.RankingRequest) storage.FilterQuery {
	yearsAhead := req.TargetYear - g.cfg.BaselineYear
	priceFactor := math.Pow(1+g.cfg.AppreciationRate, float64(yearsAhead))

	return storage.FilterQuery{
		PriceMin:     req.BudgetMin / priceFactor * g.cfg.SlackLow,
		PriceMax:     req.BudgetMax / priceFactor * g.cfg.SlackHigh,
		Towns:        req.Towns,
		FlatTypes:    req.FlatTypes,
		FlatModels:   req.FlatModels,
		FloorAreaMin: req.FloorAreaMin,
		FloorAreaMax: req.FloorAreaMax,
		LeaseMin:     req.LeaseMin,
		LeaseMax:     req.LeaseMax,
		StoreyRanges: req.StoreyRanges,
	}
}

// sampleByTown caps the working set with stratified sampling so no town
// is starved of representation. The per-town shuffle is seeded for
// reproducible output.
func (g *Generator) sampleByTown(rows []domain.TransactionRow) []domain.TransactionRow {
	if len(rows) <= g.cfg.MaxProcess {
		return rows
	}

	byTown := make(map[string][]domain.TransactionRow)
	for _, r := range rows {
		byTown[r.Town] = append(byTown[r.Town], r)
	}
	towns := make([]string, 0, len(byTown))
	for t := range byTown {
		towns = append(towns, t)
	}
	sort.Strings(towns)

	quota := g.cfg.MaxProcess / len(byTown)
	if quota < g.cfg.PerTownMin {
		quota = g.cfg.PerTownMin
	}

	rng := rand.New(rand.NewSource(g.cfg.SampleSeed))
	sampled := make([]domain.TransactionRow, 0, quota*len(towns))
	for _, town := range towns {
		townRows := byTown[town]
		rng.Shuffle(len(townRows), func(i, j int) {
			townRows[i], townRows[j] = townRows[j], townRows[i]
		})
		n := quota
		if n > len(townRows) {
			n = len(townRows)
		}
		sampled = append(sampled, townRows[:n]...)
	}
	g.log.Debug().Int("sampled", len(sampled)).Int("per_town", quota).Msg("stratified sampling applied")
	return sampled
}

// enrich runs the per-row steps: amenity distances, ceiling checks,
// price prediction and the real budget check. It stops early when the
// wall-clock budget elapses or enough candidates have accumulated.
func (g *Generator) enrich(ctx context.Context, req domain.RankingRequest, rows []domain.TransactionRow) ([]domain.Candidate, error) {
	start := time.Now()
	candidates := make([]domain.Candidate, 0, g.cfg.MaxAccepted)

	for _, row := range rows {
		if time.Since(start) > g.cfg.Timeout || ctx.Err() != nil {
			g.log.Warn().
				Dur("elapsed", time.Since(start)).
				Int("accepted", len(candidates)).
				Msg("enrichment budget elapsed, returning partial results")
			break
		}

		dist := g.distances(row.Latitude, row.Longitude)
		if exceedsCeilings(dist, req.MaxDistances) {
			continue
		}

		price, err := g.predictor.Predict(predict.Input{
			Town:              row.Town,
			FlatType:          row.FlatType,
			FlatModel:         row.FlatModel,
			FloorAreaSqm:      row.FloorAreaSqm,
			FloorLevel:        parseFloorLevel(row.StoreyRange),
			LeaseCommenceYear: row.LeaseCommenceYear,
			Year:              req.TargetYear,
			Latitude:          row.Latitude,
			Longitude:         row.Longitude,
			Distances:         dist,
		})
		if err != nil {
			if errors.Is(err, predict.ErrUnknownTown) || errors.Is(err, predict.ErrUnknownFlatType) {
				return nil, err
			}
			g.log.Debug().Err(err).Str("town", row.Town).Msg("price prediction failed, skipping row")
			continue
		}

		if price < req.BudgetMin || price > req.BudgetMax {
			continue
		}

		candidates = append(candidates, domain.Candidate{
			ID:                len(candidates) + 1,
			Town:              row.Town,
			FlatType:          row.FlatType,
			FlatModel:         row.FlatModel,
			Block:             row.Block,
			StreetName:        row.StreetName,
			FloorAreaSqm:      row.FloorAreaSqm,
			StoreyRange:       row.StoreyRange,
			LeaseCommenceYear: row.LeaseCommenceYear,
			RemainingLease:    row.RemainingLeaseYears,
			Latitude:          row.Latitude,
			Longitude:         row.Longitude,
			HistoricalPrice:   row.ResalePrice,
			PredictedPrice:    math.Round(price),
			Distances:         dist,
		})

		if len(candidates) >= g.cfg.MaxAccepted {
			g.log.Debug().Int("accepted", len(candidates)).Msg("early exit, enough candidates")
			break
		}
	}

	g.log.Info().
		Int("candidates", len(candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("candidate generation complete")
	return candidates, nil
}

// exceedsCeilings applies the per-amenity maximum-distance filters. A
// zero ceiling is disabled.
func exceedsCeilings(d domain.Distances, max domain.MaxDistances) bool {
	if max.MRT > 0 && d.MRT > max.MRT {
		return true
	}
	if max.School > 0 && d.PrimarySchool > max.School {
		return true
	}
	if max.Mall > 0 && d.Mall > max.Mall {
		return true
	}
	if max.Hawker > 0 && d.Hawker > max.Hawker {
		return true
	}
	return false
}

var firstNumberRe = regexp.MustCompile(`\d+`)

// parseFloorLevel extracts the representative floor from a storey band
// like "07 TO 09". Unparsable labels default to a mid-level floor.
func parseFloorLevel(storeyRange string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(strings.Split(storeyRange, " TO ")[0])); err == nil {
		return n
	}
	if m := firstNumberRe.FindString(storeyRange); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 5
}

const syntheticPerTownCap = 20

// generateSynthetic expands allowed towns, flat types, models and storeys
// into plausible units around per-town reference statistics. The rng is
// seeded from the config so tests are reproducible.
func (g *Generator) generateSynthetic(req domain.RankingRequest) ([]domain.Candidate, error) {
	rng := rand.New(rand.NewSource(g.cfg.SampleSeed))

	towns := req.Towns
	if len(towns) == 0 {
		towns = make([]string, 0, len(locations.Towns))
		for t := range locations.Towns {
			towns = append(towns, t)
		}
		sort.Strings(towns)
	}
	flatTypes := req.FlatTypes
	if len(flatTypes) == 0 {
		flatTypes = []string{"3 ROOM", "4 ROOM", "5 ROOM"}
	}
	flatModels := req.FlatModels
	if len(flatModels) == 0 {
		flatModels = []string{"Improved", "Model A", "New Generation"}
	}
	if len(flatModels) > 3 {
		flatModels = flatModels[:3]
	}
	storeys := req.StoreyRanges
	if len(storeys) == 0 {
		storeys = []string{"04 TO 06", "07 TO 09", "10 TO 12", "13 TO 15"}
	}
	if len(storeys) > 3 {
		storeys = storeys[:3]
	}

	var candidates []domain.Candidate
	for _, town := range towns {
		townKey := strings.ToUpper(strings.TrimSpace(town))
		info, ok := locations.Towns[townKey]
		if !ok {
			continue
		}
		perTown := 0

	typeLoop:
		for _, flatType := range flatTypes {
			bounds, ok := locations.FlatTypeAreas[strings.ToUpper(strings.TrimSpace(flatType))]
			if !ok {
				continue
			}
			if bounds.Max < req.FloorAreaMin || bounds.Min > req.FloorAreaMax {
				continue
			}

			for _, flatModel := range flatModels {
				for _, storey := range storeys {
					for variation := 0; variation < 2; variation++ {
						lat := info.Lat + (rng.Float64()*2-1)*0.01
						lon := info.Lon + (rng.Float64()*2-1)*0.01

						areaLo := math.Max(bounds.Min, req.FloorAreaMin)
						areaHi := math.Min(bounds.Max, req.FloorAreaMax)
						floorArea := areaLo + rng.Float64()*(areaHi-areaLo)

						leaseYear := info.AvgLease + rng.Intn(16) - 5
						if leaseYear < 1966 {
							leaseYear = 1966
						}
						if leaseYear > 2020 {
							leaseYear = 2020
						}
						remaining := float64(predict.RemainingLease(req.TargetYear, leaseYear))
						if remaining < req.LeaseMin || remaining > req.LeaseMax {
							continue
						}

						floorLevel := parseFloorLevel(storey) + rng.Intn(3)

						dist := g.distances(lat, lon)
						if exceedsCeilings(dist, req.MaxDistances) {
							continue
						}

						price, err := g.predictor.Predict(predict.Input{
							Town:              townKey,
							FlatType:          flatType,
							FlatModel:         flatModel,
							FloorAreaSqm:      floorArea,
							FloorLevel:        floorLevel,
							LeaseCommenceYear: leaseYear,
							Year:              req.TargetYear,
							Latitude:          lat,
							Longitude:         lon,
							Distances:         dist,
						})
						if err != nil {
							price = syntheticFallbackPrice(info, flatType, req.TargetYear)
						}
						if price < req.BudgetMin || price > req.BudgetMax {
							continue
						}

						candidates = append(candidates, domain.Candidate{
							ID:                len(candidates) + 1,
							Town:              townKey,
							FlatType:          strings.ToUpper(strings.TrimSpace(flatType)),
							FlatModel:         flatModel,
							FloorAreaSqm:      math.Round(floorArea*10) / 10,
							StoreyRange:       storey,
							LeaseCommenceYear: leaseYear,
							RemainingLease:    remaining,
							Latitude:          lat,
							Longitude:         lon,
							PredictedPrice:    math.Round(price),
							Distances:         dist,
						})
						perTown++
						if perTown >= syntheticPerTownCap {
							break typeLoop
						}
					}
				}
			}
		}
	}
	return candidates, nil
}

// syntheticFallbackPrice estimates a price from town reference stats when
// the predictor cannot serve a synthetic combination.
func syntheticFallbackPrice(info locations.TownInfo, flatType string, targetYear int) float64 {
	mult := map[string]float64{
		"3 ROOM":    0.75,
		"4 ROOM":    1.0,
		"5 ROOM":    1.25,
		"EXECUTIVE": 1.5,
	}[strings.ToUpper(strings.TrimSpace(flatType))]
	if mult == 0 {
		mult = 1.0
	}
	return info.AvgPrice4rm * mult * math.Pow(1.035, float64(targetYear-2024))
}
