package locations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/geo"
)

// School is a named school with its coordinate.
type School struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// POI is a named point of interest within a category.
type POI struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// Resolver turns raw user-supplied destination descriptors into resolved
// Destination records. It is a pure transformation over read-only indexes:
// unresolvable work and parent entries are dropped, unresolvable school
// and other entries default to the city center. That asymmetry is
// long-standing behavior and is pinned by tests.
type Resolver struct {
	schools   map[string]geo.Point // upper-cased name -> coordinate
	pois      map[string]geo.Point // upper-cased name -> coordinate
	workAreas map[string]geo.Point // exact label -> coordinate

	schoolList []School
	poiByCat   map[string][]POI

	log zerolog.Logger
}

// NewResolver builds the lookup indexes once from the loaded location
// data.
func NewResolver(schools []School, pois []POI, log zerolog.Logger) *Resolver {
	r := &Resolver{
		schools:    make(map[string]geo.Point, len(schools)),
		pois:       make(map[string]geo.Point, len(pois)),
		workAreas:  make(map[string]geo.Point, len(WorkAreas)),
		schoolList: schools,
		poiByCat:   make(map[string][]POI),
		log:        log,
	}
	for _, s := range schools {
		if s.Name != "" {
			r.schools[strings.ToUpper(s.Name)] = geo.Point{Lat: s.Lat, Lon: s.Lon}
		}
	}
	for _, p := range pois {
		if p.Name != "" {
			r.pois[strings.ToUpper(p.Name)] = geo.Point{Lat: p.Lat, Lon: p.Lon}
		}
		r.poiByCat[p.Category] = append(r.poiByCat[p.Category], p)
	}
	for _, w := range WorkAreas {
		r.workAreas[w.Name] = geo.Point{Lat: w.Lat, Lon: w.Lon}
	}
	return r
}

// Resolve flattens the request's destination descriptors into Destination
// records with coordinates and frequency weights. It never fails; entries
// that cannot be resolved are either dropped or defaulted per kind.
func (r *Resolver) Resolve(input domain.DestinationInput) []domain.Destination {
	var out []domain.Destination

	for _, w := range input.Work {
		if w.Location == "" {
			continue
		}
		pt, ok := r.lookupWork(w.Location)
		if !ok {
			r.log.Debug().Str("location", w.Location).Msg("work destination unresolved, dropped")
			continue
		}
		person := w.Person
		if person == "" {
			person = "You"
		}
		freq := w.Frequency
		if freq == "" {
			freq = "Daily (5x per week)"
		}
		out = append(out, domain.Destination{
			Name:            fmt.Sprintf("Work (%s)", person),
			Latitude:        pt.Lat,
			Longitude:       pt.Lon,
			FrequencyWeight: FrequencyWeight(freq),
		})
	}

	for _, s := range input.Schools {
		if s.School == "" {
			continue
		}
		pt := CityCenter
		if found, ok := r.schools[strings.ToUpper(s.School)]; ok {
			pt = found
		}
		child := s.Child
		if child == "" {
			child = "Child"
		}
		out = append(out, domain.Destination{
			Name:            fmt.Sprintf("School (%s)", child),
			Latitude:        pt.Lat,
			Longitude:       pt.Lon,
			FrequencyWeight: FrequencyWeight("Daily (5x per week)"),
		})
	}

	for _, p := range input.Parents {
		if p.Location == "" {
			continue
		}
		pt, ok := lookupTownSubstring(p.Location, true)
		if !ok {
			r.log.Debug().Str("location", p.Location).Msg("parent destination unresolved, dropped")
			continue
		}
		parent := p.Parent
		if parent == "" {
			parent = "Parent"
		}
		freq := p.Frequency
		if freq == "" {
			freq = "Weekly (1x per week)"
		}
		out = append(out, domain.Destination{
			Name:            fmt.Sprintf("Parents (%s)", parent),
			Latitude:        pt.Lat,
			Longitude:       pt.Lon,
			FrequencyWeight: FrequencyWeight(freq),
		})
	}

	for _, o := range input.Other {
		if o.Location == "" {
			continue
		}
		pt, ok := r.lookupWork(o.Location)
		if !ok {
			pt, ok = lookupTownSubstring(o.Location, false)
		}
		if !ok {
			pt = CityCenter
		}
		name := o.Name
		if name == "" {
			name = "Other"
		}
		freq := o.Frequency
		if freq == "" {
			freq = "Weekly (1x per week)"
		}
		out = append(out, domain.Destination{
			Name:            name,
			Latitude:        pt.Lat,
			Longitude:       pt.Lon,
			FrequencyWeight: FrequencyWeight(freq),
		})
	}

	return out
}

// lookupWork resolves a location through the business-district table
// (exact label) and then the POI name index (case-insensitive).
func (r *Resolver) lookupWork(location string) (geo.Point, bool) {
	if pt, ok := r.workAreas[location]; ok {
		return pt, true
	}
	if pt, ok := r.pois[strings.ToUpper(location)]; ok {
		return pt, true
	}
	return geo.Point{}, false
}

// lookupTownSubstring matches a location against town names. Parent
// lookups use either-direction containment; the "other" chain only checks
// whether the location contains the town name. Iteration order is sorted
// so that the first match is deterministic.
func lookupTownSubstring(location string, bothDirections bool) (geo.Point, bool) {
	loc := strings.ToLower(location)
	names := make([]string, 0, len(Towns))
	for name := range Towns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		town := strings.ToLower(name)
		if strings.Contains(loc, town) || (bothDirections && strings.Contains(town, loc)) {
			info := Towns[name]
			return geo.Point{Lat: info.Lat, Lon: info.Lon}, true
		}
	}
	return geo.Point{}, false
}

// Schools returns the school list sorted by name, for dropdowns.
func (r *Resolver) Schools() []School {
	out := make([]School, len(r.schoolList))
	copy(out, r.schoolList)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// POICategories returns the known POI categories sorted by name.
func (r *Resolver) POICategories() []string {
	cats := make([]string, 0, len(r.poiByCat))
	for c := range r.poiByCat {
		if c != "" {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	return cats
}

// POIsByCategory returns the POIs of one category sorted by name.
func (r *Resolver) POIsByCategory(category string) []POI {
	pois := r.poiByCat[category]
	out := make([]POI, len(pois))
	copy(out, pois)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
