package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
)

// TransactionStore keeps the resale transaction dataset in SQLite so the
// hard-filter stages run as one indexed WHERE clause. The store is
// write-once at startup and read-only afterwards.
type TransactionStore struct {
	db *sql.DB
}

// OpenTransactionStore opens (or creates) the store. Use ":memory:" for an
// in-process dataset.
func OpenTransactionStore(path string) (*TransactionStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &TransactionStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *TransactionStore) Close() error { return s.db.Close() }

// EnsureSchema creates the transactions table and its filter indexes.
func (s *TransactionStore) EnsureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  town TEXT NOT NULL,
  flat_type TEXT NOT NULL,
  flat_model TEXT NOT NULL DEFAULT '',
  block TEXT NOT NULL DEFAULT '',
  street_name TEXT NOT NULL DEFAULT '',
  floor_area_sqm REAL NOT NULL,
  storey_range TEXT NOT NULL DEFAULT '',
  lease_commence_year INTEGER NOT NULL DEFAULT 0,
  remaining_lease_years REAL,
  latitude REAL,
  longitude REAL,
  resale_price REAL NOT NULL
);
`
	if _, err := s.db.Exec(createTable); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_town ON transactions(town);`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_price ON transactions(resale_price);`); err != nil {
		return err
	}
	return nil
}

// InsertTransactions bulk-loads dataset rows. Missing coordinates and
// unparsable lease values are stored as NULL so range predicates exclude
// them naturally.
func (s *TransactionStore) InsertTransactions(rows []domain.TransactionRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO transactions
(town, flat_type, flat_model, block, street_name, floor_area_sqm, storey_range,
 lease_commence_year, remaining_lease_years, latitude, longitude, resale_price)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		var lease, lat, lon any
		if r.HasLease {
			lease = r.RemainingLeaseYears
		}
		if r.HasCoords {
			lat, lon = r.Latitude, r.Longitude
		}
		if _, err := stmt.Exec(
			r.Town, r.FlatType, r.FlatModel, r.Block, r.StreetName,
			r.FloorAreaSqm, r.StoreyRange, r.LeaseCommenceYear,
			lease, lat, lon, r.ResalePrice,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the total number of stored transactions.
func (s *TransactionStore) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

// FilterQuery carries the hard-filter stages of one ranking call. Empty
// slices impose no restriction; price, area and lease bounds are always
// applied.
type FilterQuery struct {
	PriceMin     float64
	PriceMax     float64
	Towns        []string
	FlatTypes    []string
	FlatModels   []string
	FloorAreaMin float64
	FloorAreaMax float64
	LeaseMin     float64
	LeaseMax     float64
	StoreyRanges []string
}

// Filter applies all hard-filter stages in one query: price band, town and
// flat-type allow-lists, case-insensitive flat-model substring match,
// floor-area and remaining-lease ranges, storey allow-list, and the
// missing-coordinate drop. Zero-area rows (blank cells in the source CSV)
// are always excluded so price-per-sqm stays well defined downstream.
func (s *TransactionStore) Filter(ctx context.Context, q FilterQuery) ([]domain.TransactionRow, error) {
	where := []string{
		"resale_price >= ? AND resale_price <= ?",
		"floor_area_sqm > 0",
		"floor_area_sqm >= ? AND floor_area_sqm <= ?",
		"remaining_lease_years >= ? AND remaining_lease_years <= ?",
		"latitude IS NOT NULL AND longitude IS NOT NULL",
	}
	args := []any{
		q.PriceMin, q.PriceMax,
		q.FloorAreaMin, q.FloorAreaMax,
		q.LeaseMin, q.LeaseMax,
	}

	if len(q.Towns) > 0 {
		where = append(where, "town IN ("+placeholders(len(q.Towns))+")")
		for _, t := range q.Towns {
			args = append(args, strings.ToUpper(strings.TrimSpace(t)))
		}
	}
	if len(q.FlatTypes) > 0 {
		where = append(where, "flat_type IN ("+placeholders(len(q.FlatTypes))+")")
		for _, ft := range q.FlatTypes {
			args = append(args, strings.ToUpper(strings.TrimSpace(ft)))
		}
	}
	if len(q.FlatModels) > 0 {
		likes := make([]string, len(q.FlatModels))
		for i, m := range q.FlatModels {
			likes[i] = "LOWER(flat_model) LIKE '%' || LOWER(?) || '%'"
			args = append(args, m)
		}
		where = append(where, "("+strings.Join(likes, " OR ")+")")
	}
	if len(q.StoreyRanges) > 0 {
		where = append(where, "storey_range IN ("+placeholders(len(q.StoreyRanges))+")")
		for _, sr := range q.StoreyRanges {
			args = append(args, sr)
		}
	}

	query := `
SELECT town, flat_type, flat_model, block, street_name, floor_area_sqm,
       storey_range, lease_commence_year, remaining_lease_years,
       latitude, longitude, resale_price
FROM transactions
WHERE ` + strings.Join(where, "\n  AND ") + `
ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.TransactionRow
	for rows.Next() {
		var r domain.TransactionRow
		var lease, lat, lon sql.NullFloat64
		if err := rows.Scan(
			&r.Town, &r.FlatType, &r.FlatModel, &r.Block, &r.StreetName,
			&r.FloorAreaSqm, &r.StoreyRange, &r.LeaseCommenceYear,
			&lease, &lat, &lon, &r.ResalePrice,
		); err != nil {
			return nil, err
		}
		if lease.Valid {
			r.RemainingLeaseYears, r.HasLease = lease.Float64, true
		}
		if lat.Valid && lon.Valid {
			r.Latitude, r.Longitude, r.HasCoords = lat.Float64, lon.Float64, true
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
