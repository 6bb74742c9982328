package httpapi

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
	"github.com/flatfinder-sg/flatfinder/internal/predict"
	"github.com/flatfinder-sg/flatfinder/internal/ranking"
)

// Server exposes the recommendation engine and its supporting lookups
// over HTTP.
type Server struct {
	engine    *ranking.Engine
	predictor predict.Predictor
	mappings  *predict.Mappings
	resolver  *locations.Resolver
	distances ranking.DistanceFunc
	trend     predict.TrendTable
	log       zerolog.Logger
}

// New wires a server from its parts.
func New(engine *ranking.Engine, predictor predict.Predictor, mappings *predict.Mappings, resolver *locations.Resolver, distances ranking.DistanceFunc, trend predict.TrendTable, log zerolog.Logger) *Server {
	return &Server{
		engine:    engine,
		predictor: predictor,
		mappings:  mappings,
		resolver:  resolver,
		distances: distances,
		trend:     trend,
		log:       log,
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Post("/recommend", s.handleRecommend)
	r.Post("/recommend/clear-cache", s.handleClearCache)
	r.Post("/predict", s.handlePredict)
	r.Post("/predict/multi-year", s.handlePredictMultiYear)
	r.Get("/trend-multipliers", s.handleTrendMultipliers)

	r.Route("/options", func(r chi.Router) {
		r.Get("/towns", s.handleTowns)
		r.Get("/flat_types", s.handleFlatTypes)
		r.Get("/flat_models", s.handleFlatModels)
	})
	r.Route("/locations", func(r chi.Router) {
		r.Get("/schools", s.handleSchools)
		r.Get("/work-areas", s.handleWorkAreas)
		r.Get("/poi-categories", s.handlePOICategories)
		r.Get("/pois/{category}", s.handlePOIs)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recommendRequest is the wire format of the ranking endpoint. Two-element
// arrays carry [min, max] ranges.
type recommendRequest struct {
	TargetYear   int             `json:"targetYear"`
	Budget       [2]float64      `json:"budget"`
	Towns        []string        `json:"towns"`
	FlatTypes    []string        `json:"flatTypes"`
	FlatModels   []string        `json:"flatModels"`
	FloorArea    [2]float64      `json:"floorArea"`
	LeaseYears   [2]float64      `json:"leaseYears"`
	StoreyRanges []string        `json:"storeyRanges"`
	MaxDistances maxDistancesDTO `json:"maxDistances"`
	Destinations destinationsDTO `json:"destinations"`
}

type maxDistancesDTO struct {
	MRT    float64 `json:"mrt"`
	School float64 `json:"school"`
	Mall   float64 `json:"mall"`
	Hawker float64 `json:"hawker"`
}

type destinationsDTO struct {
	Work []struct {
		Person    string `json:"person"`
		Location  string `json:"location"`
		Frequency string `json:"frequency"`
	} `json:"workLocations"`
	Schools []struct {
		Child  string `json:"child"`
		School string `json:"school"`
	} `json:"schoolLocations"`
	Parents []struct {
		Parent    string `json:"parent"`
		Location  string `json:"location"`
		Frequency string `json:"frequency"`
	} `json:"parentsHomes"`
	Other []struct {
		Name      string `json:"name"`
		Location  string `json:"location"`
		Category  string `json:"category"`
		Frequency string `json:"frequency"`
	} `json:"otherDestinations"`
}

func (req recommendRequest) toDomain() domain.RankingRequest {
	out := domain.RankingRequest{
		TargetYear:   req.TargetYear,
		BudgetMin:    req.Budget[0],
		BudgetMax:    req.Budget[1],
		Towns:        req.Towns,
		FlatTypes:    req.FlatTypes,
		FlatModels:   req.FlatModels,
		FloorAreaMin: req.FloorArea[0],
		FloorAreaMax: req.FloorArea[1],
		LeaseMin:     req.LeaseYears[0],
		LeaseMax:     req.LeaseYears[1],
		StoreyRanges: req.StoreyRanges,
		MaxDistances: domain.MaxDistances{
			MRT:    req.MaxDistances.MRT,
			School: req.MaxDistances.School,
			Mall:   req.MaxDistances.Mall,
			Hawker: req.MaxDistances.Hawker,
		},
	}
	if out.TargetYear == 0 {
		out.TargetYear = 2025
	}
	if out.FloorAreaMax == 0 {
		out.FloorAreaMin, out.FloorAreaMax = 30, 200
	}
	if out.LeaseMax == 0 {
		out.LeaseMax = 99
	}
	for _, wl := range req.Destinations.Work {
		out.Destinations.Work = append(out.Destinations.Work, domain.WorkLocation{
			Person: wl.Person, Location: wl.Location, Frequency: wl.Frequency,
		})
	}
	for _, sl := range req.Destinations.Schools {
		out.Destinations.Schools = append(out.Destinations.Schools, domain.SchoolLocation{
			Child: sl.Child, School: sl.School,
		})
	}
	for _, ph := range req.Destinations.Parents {
		out.Destinations.Parents = append(out.Destinations.Parents, domain.ParentHome{
			Parent: ph.Parent, Location: ph.Location, Frequency: ph.Frequency,
		})
	}
	for _, od := range req.Destinations.Other {
		out.Destinations.Other = append(out.Destinations.Other, domain.OtherDestination{
			Name: od.Name, Location: od.Location, Category: od.Category, Frequency: od.Frequency,
		})
	}
	return out
}

// recommendationDTO is the display shape of one ranked unit: price rounded
// to the nearest thousand with an uncertainty band, floor area as a range,
// distances rounded for readability.
type recommendationDTO struct {
	ID                int             `json:"id"`
	Town              string          `json:"town"`
	FlatType          string          `json:"flatType"`
	FlatModel         string          `json:"flatModel"`
	StoreyRange       string          `json:"storeyRange"`
	LeaseCommenceYear int             `json:"leaseCommenceYear"`
	RemainingLease    float64         `json:"remainingLease"`
	FloorArea         [2]float64      `json:"floorArea"`
	PredictedPrice    float64         `json:"predictedPrice"`
	PriceRange        [2]float64      `json:"priceRange"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	Distances         map[string]any  `json:"distances"`
	Scores            domain.ScoreSet `json:"scores"`
	MatchScore        int             `json:"matchScore"`
}

func toRecommendationDTO(rec domain.Recommendation) recommendationDTO {
	c := rec.Candidate
	price := math.Round(c.PredictedPrice/1000) * 1000
	return recommendationDTO{
		ID:                c.ID,
		Town:              c.Town,
		FlatType:          c.FlatType,
		FlatModel:         c.FlatModel,
		StoreyRange:       c.StoreyRange,
		LeaseCommenceYear: c.LeaseCommenceYear,
		RemainingLease:    c.RemainingLease,
		FloorArea:         [2]float64{math.Max(0, c.FloorAreaSqm-5), c.FloorAreaSqm + 5},
		PredictedPrice:    price,
		PriceRange:        [2]float64{math.Round(price * 0.94), math.Round(price * 1.06)},
		Latitude:          c.Latitude,
		Longitude:         c.Longitude,
		Distances: map[string]any{
			"mrt":    round2(c.Distances.MRT),
			"school": round2(c.Distances.PrimarySchool),
			"mall":   round2(c.Distances.Mall),
			"hawker": round2(c.Distances.Hawker),
			"cbd":    round2(c.Distances.CBD),
		},
		Scores:     rec.Scores,
		MatchScore: rec.MatchScore,
	}
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Budget[1] <= 0 {
		writeError(w, http.StatusBadRequest, "budget range is required")
		return
	}

	resp, err := s.engine.Rank(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, predict.ErrUnknownTown) || errors.Is(err, predict.ErrUnknownFlatType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("ranking failed")
		writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	recs := make([]recommendationDTO, len(resp.Recommendations))
	for i, rec := range resp.Recommendations {
		recs[i] = toRecommendationDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalCandidates": resp.TotalCandidates,
		"recommendations": recs,
		"message":         resp.Message,
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, _ *http.Request) {
	n := s.engine.ClearCache()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
}

// predictRequest is the single-unit prediction wire format. Coordinates
// are required so amenity distances can be derived.
type predictRequest struct {
	Town              string  `json:"town"`
	FlatType          string  `json:"flatType"`
	FlatModel         string  `json:"flatModel"`
	FloorAreaSqm      float64 `json:"floorAreaSqm"`
	FloorLevel        int     `json:"floorLevel"`
	LeaseCommenceYear int     `json:"leaseCommenceYear"`
	Year              int     `json:"year"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Years             []int   `json:"years"`
}

func (req predictRequest) toInput(year int, distances ranking.DistanceFunc) predict.Input {
	return predict.Input{
		Town:              req.Town,
		FlatType:          req.FlatType,
		FlatModel:         req.FlatModel,
		FloorAreaSqm:      req.FloorAreaSqm,
		FloorLevel:        req.FloorLevel,
		LeaseCommenceYear: req.LeaseCommenceYear,
		Year:              year,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Distances:         distances(req.Latitude, req.Longitude),
	}
}

func (req predictRequest) validate() string {
	switch {
	case req.Town == "":
		return "town is required"
	case req.FlatType == "":
		return "flatType is required"
	case req.FloorAreaSqm <= 0:
		return "floorAreaSqm must be positive"
	case req.Latitude == 0 || req.Longitude == 0:
		return "latitude and longitude are required"
	default:
		return ""
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	year := req.Year
	if year == 0 {
		year = 2025
	}

	price, err := s.predictor.Predict(req.toInput(year, s.distances))
	if err != nil {
		if errors.Is(err, predict.ErrUnknownTown) || errors.Is(err, predict.ErrUnknownFlatType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("prediction failed")
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	price = math.Round(price)
	writeJSON(w, http.StatusOK, map[string]any{
		"year":           year,
		"predictedPrice": price,
		"priceRange":     [2]float64{math.Round(price * 0.94), math.Round(price * 1.06)},
		"pricePerSqm":    round2(price / req.FloorAreaSqm),
	})
}

func (s *Server) handlePredictMultiYear(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Years) == 0 {
		writeError(w, http.StatusBadRequest, "years is required")
		return
	}

	type yearPrediction struct {
		Year           int     `json:"year"`
		PredictedPrice float64 `json:"predictedPrice"`
		YoYChangePct   float64 `json:"yoyChangePct"`
	}

	out := make([]yearPrediction, 0, len(req.Years))
	var prev float64
	for _, year := range req.Years {
		price, err := s.predictor.Predict(req.toInput(year, s.distances))
		if err != nil {
			if errors.Is(err, predict.ErrUnknownTown) || errors.Is(err, predict.ErrUnknownFlatType) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.log.Error().Err(err).Int("year", year).Msg("prediction failed")
			writeError(w, http.StatusInternalServerError, "prediction failed")
			return
		}
		price = math.Round(price)
		p := yearPrediction{Year: year, PredictedPrice: price}
		if prev > 0 {
			p.YoYChangePct = math.Round((price-prev)/prev*1000) / 10
		}
		out = append(out, p)
		prev = price
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": out})
}

func (s *Server) handleTrendMultipliers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"multipliers": s.trend})
}

func (s *Server) handleTowns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"towns": s.mappings.Towns()})
}

func (s *Server) handleFlatTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"flatTypes": s.mappings.FlatTypes()})
}

func (s *Server) handleFlatModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"flatModels": s.mappings.FlatModels()})
}

func (s *Server) handleSchools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"schools": s.resolver.Schools()})
}

func (s *Server) handleWorkAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"workAreas": locations.WorkAreas})
}

func (s *Server) handlePOICategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.resolver.POICategories()})
}

func (s *Server) handlePOIs(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	pois := s.resolver.POIsByCategory(category)
	if len(pois) == 0 {
		writeError(w, http.StatusNotFound, "unknown category: "+category)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pois": pois})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
