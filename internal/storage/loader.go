package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/geo"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
)

// leaseTextRe matches the "61 years 04 months" remaining-lease format.
var leaseTextRe = regexp.MustCompile(`^(\d+)\s*years?(?:\s*(\d+)\s*months?)?`)

// ParseRemainingLease parses a remaining-lease value that is either a
// plain number of years or the "<N> years <M> months" text format.
// Unparsable values report ok=false and are excluded by range filters
// downstream.
func ParseRemainingLease(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if years, err := strconv.ParseFloat(s, 64); err == nil {
		return years, true
	}
	m := leaseTextRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	years, _ := strconv.Atoi(m[1])
	months := 0
	if m[2] != "" {
		months, _ = strconv.Atoi(m[2])
	}
	return float64(years) + float64(months)/12.0, true
}

type csvTable struct {
	header map[string]int
	rows   [][]string
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		header[strings.TrimSpace(h)] = i
	}
	return &csvTable{header: header, rows: records[1:]}, nil
}

func (t *csvTable) str(row []string, col string) string {
	idx, ok := t.header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *csvTable) float(row []string, col string) (float64, bool) {
	v, err := strconv.ParseFloat(t.str(row, col), 64)
	return v, err == nil
}

// LoadTransactionsCSV reads the resale transaction dataset. Town and flat
// type are upper-cased and trimmed; remaining lease is parsed once here;
// rows with missing coordinates are kept but flagged so the filter can
// drop them.
func LoadTransactionsCSV(path string) ([]domain.TransactionRow, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TransactionRow, 0, len(t.rows))
	for _, rec := range t.rows {
		row := domain.TransactionRow{
			Town:       strings.ToUpper(t.str(rec, "town")),
			FlatType:   strings.ToUpper(t.str(rec, "flat_type")),
			FlatModel:  t.str(rec, "flat_model"),
			Block:      t.str(rec, "block"),
			StreetName: t.str(rec, "street_name"),
		}
		if row.Town == "" {
			continue
		}
		row.FloorAreaSqm, _ = t.float(rec, "floor_area_sqm")
		row.StoreyRange = t.str(rec, "storey_range")
		if y, err := strconv.Atoi(t.str(rec, "lease_commence_year")); err == nil {
			row.LeaseCommenceYear = y
		}
		row.RemainingLeaseYears, row.HasLease = ParseRemainingLease(t.str(rec, "remaining_lease"))

		lat, okLat := t.float(rec, "latitude")
		lon, okLon := t.float(rec, "longitude")
		if okLat && okLon {
			row.Latitude, row.Longitude, row.HasCoords = lat, lon, true
		}
		row.ResalePrice, _ = t.float(rec, "resale_price")
		out = append(out, row)
	}
	return out, nil
}

// LoadAmenityCSV reads an amenity point set from a CSV with latitude and
// longitude columns. A missing file yields an empty set, matching the
// empty-set distance sentinel.
func LoadAmenityCSV(path string) ([]geo.Point, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]geo.Point, 0, len(t.rows))
	for _, rec := range t.rows {
		lat, okLat := t.float(rec, "latitude")
		lon, okLon := t.float(rec, "longitude")
		if okLat && okLon {
			out = append(out, geo.Point{Lat: lat, Lon: lon})
		}
	}
	return out, nil
}

// LoadSchoolsCSV reads the named-school index used by the destination
// resolver.
func LoadSchoolsCSV(path string) ([]locations.School, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]locations.School, 0, len(t.rows))
	for _, rec := range t.rows {
		name := t.str(rec, "school_name")
		if name == "" {
			name = t.str(rec, "name")
		}
		lat, okLat := t.float(rec, "latitude")
		if !okLat {
			lat, okLat = t.float(rec, "lat")
		}
		lon, okLon := t.float(rec, "longitude")
		if !okLon {
			lon, okLon = t.float(rec, "lon")
		}
		if name != "" && okLat && okLon {
			out = append(out, locations.School{Name: name, Lat: lat, Lon: lon})
		}
	}
	return out, nil
}

// LoadPOIsCSV reads the categorised point-of-interest index used by the
// destination resolver.
func LoadPOIsCSV(path string) ([]locations.POI, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	out := make([]locations.POI, 0, len(t.rows))
	for _, rec := range t.rows {
		name := t.str(rec, "name")
		lat, okLat := t.float(rec, "lat")
		lon, okLon := t.float(rec, "lon")
		if name != "" && okLat && okLon {
			out = append(out, locations.POI{
				Name:     name,
				Category: t.str(rec, "category"),
				Lat:      lat,
				Lon:      lon,
			})
		}
	}
	return out, nil
}
