package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/flatfinder-sg/flatfinder/internal/config"
	"github.com/flatfinder-sg/flatfinder/internal/geo"
	"github.com/flatfinder-sg/flatfinder/internal/httpapi"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
	"github.com/flatfinder-sg/flatfinder/internal/predict"
	"github.com/flatfinder-sg/flatfinder/internal/ranking"
	"github.com/flatfinder-sg/flatfinder/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	amenities := loadAmenities(cfg.Data.AmenityDir, log)

	mappings, err := predict.LoadMappings(cfg.Data.MappingsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("load mappings")
	}

	trend := predict.DefaultTrendTable()
	if cfg.Data.TrendTable != "" {
		if t, err := predict.LoadTrendTable(cfg.Data.TrendTable); err != nil {
			log.Warn().Err(err).Msg("using built-in trend table")
		} else {
			trend = t
		}
	}
	predictor := predict.NewHybridPredictor(mappings, trend)

	rankCfg := ranking.DefaultConfig()
	if cfg.Ranking.AppreciationRate > 0 {
		rankCfg.AppreciationRate = cfg.Ranking.AppreciationRate
	}
	if cfg.Ranking.MaxProcess > 0 {
		rankCfg.MaxProcess = cfg.Ranking.MaxProcess
	}
	if cfg.Ranking.MaxAccepted > 0 {
		rankCfg.MaxAccepted = cfg.Ranking.MaxAccepted
	}
	if cfg.Ranking.TimeoutSeconds > 0 {
		rankCfg.Timeout = time.Duration(cfg.Ranking.TimeoutSeconds) * time.Second
	}
	if cfg.Ranking.TopN > 0 {
		rankCfg.TopN = cfg.Ranking.TopN
	}
	if cfg.Ranking.CacheSize > 0 {
		rankCfg.CacheSize = cfg.Ranking.CacheSize
	}
	if cfg.Data.Weights != "" {
		if w, err := ranking.LoadWeightsFromFile(cfg.Data.Weights); err != nil {
			log.Warn().Err(err).Msg("using default scoring weights")
		} else {
			rankCfg.Weights = w
		}
	}

	var source ranking.TransactionSource
	if cfg.Data.Transactions != "" {
		store := loadTransactions(cfg, log)
		defer store.Close()
		source = store
	} else {
		log.Warn().Msg("no transaction dataset configured, synthetic candidates only")
	}

	schools, err := storage.LoadSchoolsCSV(filepath.Join(cfg.Data.AmenityDir, "schools.csv"))
	if err != nil {
		log.Fatal().Err(err).Msg("load schools")
	}
	pois, err := storage.LoadPOIsCSV(filepath.Join(cfg.Data.AmenityDir, "pois.csv"))
	if err != nil {
		log.Fatal().Err(err).Msg("load pois")
	}
	resolver := locations.NewResolver(schools, pois, log)

	generator := ranking.NewGenerator(source, amenities.Distances, predictor, rankCfg, log)
	engine := ranking.NewEngine(generator, resolver, rankCfg, log)
	api := httpapi.New(engine, predictor, mappings, resolver, amenities.Distances, trend, log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// loadAmenities builds the six nearest-distance indexes. Missing CSVs
// produce empty sets, which report the zero-distance sentinel.
func loadAmenities(dir string, log zerolog.Logger) *geo.AmenityIndex {
	load := func(name, file string) *geo.AmenitySet {
		points, err := storage.LoadAmenityCSV(filepath.Join(dir, file))
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("load amenity set")
		}
		set := geo.NewAmenitySet(name, points)
		log.Info().Str("set", name).Int("points", set.Len()).Msg("amenity set loaded")
		return set
	}
	return &geo.AmenityIndex{
		MRTStations:      load("mrt", "mrt_stations.csv"),
		PrimarySchools:   load("school", "primary_schools.csv"),
		HighValueSchools: load("high_value_school", "high_value_schools.csv"),
		Malls:            load("mall", "malls.csv"),
		HawkerCenters:    load("hawker", "hawker_centers.csv"),
		CBD:              geo.NewAmenitySet("cbd", []geo.Point{{Lat: 1.2840, Lon: 103.8515}}),
	}
}

// loadTransactions fills the SQLite store from the dataset CSV.
func loadTransactions(cfg config.Config, log zerolog.Logger) *storage.TransactionStore {
	rows, err := storage.LoadTransactionsCSV(cfg.Data.Transactions)
	if err != nil {
		log.Fatal().Err(err).Msg("load transactions")
	}
	store, err := storage.OpenTransactionStore(cfg.Data.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open transaction store")
	}
	if err := store.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	if err := store.InsertTransactions(rows); err != nil {
		log.Fatal().Err(err).Msg("insert transactions")
	}
	log.Info().Int("rows", len(rows)).Msg("transaction dataset loaded")
	return store
}
