package predict

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Sentinel errors for unresolvable categorical inputs. These surface as
// request-level failures, not per-row skips.
var (
	ErrUnknownTown     = errors.New("unknown town")
	ErrUnknownFlatType = errors.New("unknown flat type")
)

// Mappings holds the categorical code tables consumed by the price
// predictor. Read-only after load.
type Mappings struct {
	TownCode      map[string]int
	FlatTypeInt   map[string]int
	FlatModelCode map[string]int
}

// DefaultMappings returns the built-in code tables, used when no mapping
// CSVs are configured.
func DefaultMappings() *Mappings {
	towns := []string{
		"ANG MO KIO", "BEDOK", "BISHAN", "BUKIT BATOK", "BUKIT MERAH",
		"BUKIT PANJANG", "BUKIT TIMAH", "CENTRAL AREA", "CHOA CHU KANG",
		"CLEMENTI", "GEYLANG", "HOUGANG", "JURONG EAST", "JURONG WEST",
		"KALLANG/WHAMPOA", "MARINE PARADE", "PASIR RIS", "PUNGGOL",
		"QUEENSTOWN", "SEMBAWANG", "SENGKANG", "SERANGOON", "TAMPINES",
		"TOA PAYOH", "WOODLANDS", "YISHUN",
	}
	flatTypes := []string{
		"1 ROOM", "2 ROOM", "3 ROOM", "4 ROOM", "5 ROOM",
		"EXECUTIVE", "MULTI-GENERATION",
	}
	models := []string{
		"Improved", "New Generation", "Model A", "Standard", "Simplified",
		"Premium Apartment", "Maisonette", "Apartment", "DBSS", "Model A2",
		"OTHER",
	}

	m := &Mappings{
		TownCode:      make(map[string]int, len(towns)),
		FlatTypeInt:   make(map[string]int, len(flatTypes)),
		FlatModelCode: make(map[string]int, len(models)),
	}
	for i, t := range towns {
		m.TownCode[t] = i
	}
	for i, ft := range flatTypes {
		m.FlatTypeInt[ft] = i + 1
	}
	for i, fm := range models {
		m.FlatModelCode[fm] = i
	}
	return m
}

// LoadMappings reads the three code-table CSVs from dir, falling back to
// the built-in tables for any file that is absent.
func LoadMappings(dir string) (*Mappings, error) {
	m := DefaultMappings()

	if codes, err := loadCodeCSV(dir+"/town_code_map.csv", "town", "town_code"); err == nil {
		m.TownCode = codes
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load town codes: %w", err)
	}
	if codes, err := loadCodeCSV(dir+"/flat_type_int_map.csv", "flat_type", "flat_type_int"); err == nil {
		m.FlatTypeInt = codes
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load flat type codes: %w", err)
	}
	if codes, err := loadCodeCSV(dir+"/flat_model_code_map.csv", "flat_model_grouped", "flat_model_code"); err == nil {
		m.FlatModelCode = codes
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load flat model codes: %w", err)
	}
	return m, nil
}

func loadCodeCSV(path, keyCol, valCol string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}

	keyIdx, valIdx := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(h) {
		case keyCol:
			keyIdx = i
		case valCol:
			valIdx = i
		}
	}
	if keyIdx < 0 || valIdx < 0 {
		return nil, fmt.Errorf("%s: missing columns %s/%s", path, keyCol, valCol)
	}

	out := make(map[string]int, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) <= keyIdx || len(rec) <= valIdx {
			continue
		}
		code, err := strconv.Atoi(strings.TrimSpace(rec[valIdx]))
		if err != nil {
			continue
		}
		out[strings.TrimSpace(rec[keyIdx])] = code
	}
	return out, nil
}

// townCode resolves a town name, upper-cased, to its code.
func (m *Mappings) townCode(town string) (int, error) {
	if code, ok := m.TownCode[strings.ToUpper(strings.TrimSpace(town))]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTown, town)
}

// flatTypeInt resolves a flat type, upper-cased, to its code.
func (m *Mappings) flatTypeInt(flatType string) (int, error) {
	if code, ok := m.FlatTypeInt[strings.ToUpper(strings.TrimSpace(flatType))]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFlatType, flatType)
}

// flatModelCode resolves a flat model with graceful fallback: exact match,
// then case-insensitive match, then OTHER, then the lowest code present.
func (m *Mappings) flatModelCode(flatModel string) int {
	if code, ok := m.FlatModelCode[flatModel]; ok {
		return code
	}
	upper := strings.ToUpper(flatModel)
	for name, code := range m.FlatModelCode {
		if strings.ToUpper(name) == upper {
			return code
		}
	}
	if code, ok := m.FlatModelCode["OTHER"]; ok {
		return code
	}
	names := make([]string, 0, len(m.FlatModelCode))
	for name := range m.FlatModelCode {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		return m.FlatModelCode[names[0]]
	}
	return 0
}

// Towns returns the known town names sorted alphabetically.
func (m *Mappings) Towns() []string {
	out := make([]string, 0, len(m.TownCode))
	for t := range m.TownCode {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FlatTypes returns the known flat types in code order.
func (m *Mappings) FlatTypes() []string {
	out := make([]string, 0, len(m.FlatTypeInt))
	for ft := range m.FlatTypeInt {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return m.FlatTypeInt[out[i]] < m.FlatTypeInt[out[j]] })
	return out
}

// FlatModels returns the known flat models sorted alphabetically.
func (m *Mappings) FlatModels() []string {
	out := make([]string, 0, len(m.FlatModelCode))
	for fm := range m.FlatModelCode {
		out = append(out, fm)
	}
	sort.Strings(out)
	return out
}
