package ranking

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
)

// emptyResultMessage is returned when no unit survives filtering.
const emptyResultMessage = "No flats match your criteria. Try relaxing some filters."

// DestinationResolver turns the raw destination descriptors of a request
// into weighted coordinates.
type DestinationResolver interface {
	Resolve(domain.DestinationInput) []domain.Destination
}

// Engine runs the full ranking pipeline: destination resolution,
// candidate generation, scoring, ordering and response caching. A
// counting semaphore bounds how many rankings run at once.
type Engine struct {
	generator *Generator
	resolver  DestinationResolver
	cache     *responseCache
	cfg       Config
	sem       chan struct{}
	log       zerolog.Logger
}

// NewEngine wires an engine from its parts.
func NewEngine(gen *Generator, resolver DestinationResolver, cfg Config, log zerolog.Logger) *Engine {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Engine{
		generator: gen,
		resolver:  resolver,
		cache:     newResponseCache(cfg.CacheSize),
		cfg:       cfg,
		sem:       make(chan struct{}, maxConcurrent),
		log:       log,
	}
}

// Rank produces the ordered recommendation list for one request.
func (e *Engine) Rank(ctx context.Context, req domain.RankingRequest) (domain.RankingResponse, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return domain.RankingResponse{}, ctx.Err()
	}

	key := cacheKey(req)
	if resp, ok := e.cache.get(key); ok {
		e.log.Debug().Str("key", key[:12]).Msg("cache hit")
		return resp, nil
	}

	destinations := e.resolver.Resolve(req.Destinations)
	e.log.Debug().Int("destinations", len(destinations)).Msg("destinations resolved")

	candidates, err := e.generator.Generate(ctx, req)
	if err != nil {
		return domain.RankingResponse{}, err
	}
	if len(candidates) == 0 {
		resp := domain.RankingResponse{
			Recommendations: []domain.Recommendation{},
			Message:         emptyResultMessage,
		}
		e.cache.put(key, resp)
		return resp, nil
	}

	resp := e.score(req, destinations, candidates)
	e.cache.put(key, resp)
	return resp, nil
}

// score computes price-per-sqm across the whole set, scores every
// candidate, and keeps the top N by composite score.
func (e *Engine) score(req domain.RankingRequest, destinations []domain.Destination, candidates []domain.Candidate) domain.RankingResponse {
	allPPSM := make([]float64, len(candidates))
	for i := range candidates {
		if candidates[i].FloorAreaSqm > 0 {
			candidates[i].PricePerSqm = candidates[i].PredictedPrice / candidates[i].FloorAreaSqm
		}
		allPPSM[i] = candidates[i].PricePerSqm
	}

	recs := make([]domain.Recommendation, len(candidates))
	for i, c := range candidates {
		s := domain.ScoreSet{
			Travel:  travelScore(c.Latitude, c.Longitude, destinations),
			Value:   valueScore(c.PricePerSqm, allPPSM),
			Budget:  budgetScore(c.PredictedPrice, req.BudgetMin, req.BudgetMax),
			Amenity: amenityScore(c.Distances),
			Space:   spaceScore(c.FloorAreaSqm, req.FloorAreaMin, req.FloorAreaMax),
		}
		s.Final = e.cfg.Weights.finalScore(s)
		recs[i] = domain.Recommendation{
			Candidate:  c,
			Scores:     s,
			MatchScore: int(math.Round(s.Final)),
		}
	}

	// Ordered by the 0.1-precision composite, not the integer match
	// score; composite ties keep generation order via the stable sort.
	// Candidate IDs stay as assigned during generation.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Scores.Final > recs[j].Scores.Final
	})

	total := len(recs)
	if len(recs) > e.cfg.TopN {
		recs = recs[:e.cfg.TopN]
	}

	e.log.Info().
		Int("total", total).
		Int("returned", len(recs)).
		Msg("ranking complete")
	return domain.RankingResponse{
		TotalCandidates: total,
		Recommendations: recs,
	}
}

// ClearCache drops all memoized responses and reports how many were held.
func (e *Engine) ClearCache() int {
	return e.cache.clear()
}

// CacheLen reports the current number of cached responses.
func (e *Engine) CacheLen() int {
	return e.cache.len()
}
