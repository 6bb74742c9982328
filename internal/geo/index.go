package geo

import "github.com/flatfinder-sg/flatfinder/internal/domain"

// AmenityIndex bundles the six configured amenity sets. It is loaded once
// at startup and read concurrently by all ranking calls.
type AmenityIndex struct {
	MRTStations      *AmenitySet
	PrimarySchools   *AmenitySet
	HighValueSchools *AmenitySet
	Malls            *AmenitySet
	HawkerCenters    *AmenitySet
	CBD              *AmenitySet
}

// Distances computes the nearest-member distance to every amenity set for
// one point.
func (ix *AmenityIndex) Distances(lat, lon float64) domain.Distances {
	return domain.Distances{
		MRT:             ix.MRTStations.Nearest(lat, lon),
		PrimarySchool:   ix.PrimarySchools.Nearest(lat, lon),
		HighValueSchool: ix.HighValueSchools.Nearest(lat, lon),
		Mall:            ix.Malls.Nearest(lat, lon),
		Hawker:          ix.HawkerCenters.Nearest(lat, lon),
		CBD:             ix.CBD.Nearest(lat, lon),
	}
}
