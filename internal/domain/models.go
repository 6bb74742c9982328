package domain

// Destination is a resolved place the buyer travels to regularly.
// FrequencyWeight is the numeric factor mapped from the textual frequency
// label (0.05 for "Rarely" up to 5.0 for daily commutes).
type Destination struct {
	Name            string  `json:"name"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	FrequencyWeight float64 `json:"frequency_weight"`
}

// Distances holds kilometres from a unit to the nearest member of each
// amenity set.
type Distances struct {
	MRT             float64 `json:"mrt"`
	PrimarySchool   float64 `json:"school"`
	HighValueSchool float64 `json:"high_value_school"`
	Mall            float64 `json:"mall"`
	Hawker          float64 `json:"hawker"`
	CBD             float64 `json:"cbd"`
}

// Candidate is one housing unit under consideration in a single ranking
// call. Built fresh per request from filtered transaction rows (or the
// synthetic fallback); never persisted.
type Candidate struct {
	ID                int       `json:"id"`
	Town              string    `json:"town"`
	FlatType          string    `json:"flat_type"`
	FlatModel         string    `json:"flat_model"`
	Block             string    `json:"block,omitempty"`
	StreetName        string    `json:"street_name,omitempty"`
	FloorAreaSqm      float64   `json:"floor_area_sqm"`
	StoreyRange       string    `json:"storey_range"`
	LeaseCommenceYear int       `json:"lease_commence_year"`
	RemainingLease    float64   `json:"remaining_lease"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	HistoricalPrice   float64   `json:"historical_price,omitempty"`
	PredictedPrice    float64   `json:"predicted_price"`
	Distances         Distances `json:"distances"`
	PricePerSqm       float64   `json:"price_per_sqm"`
}

// ScoreSet holds the five sub-scores and the weighted composite, each in
// [0,100]. Sub-scores carry one decimal of precision.
type ScoreSet struct {
	Travel  float64 `json:"travel"`
	Value   float64 `json:"value"`
	Budget  float64 `json:"budget"`
	Amenity float64 `json:"amenity"`
	Space   float64 `json:"space"`
	Final   float64 `json:"final"`
}

// WorkLocation is a raw work destination as supplied by the caller.
type WorkLocation struct {
	Person    string `json:"person"`
	Location  string `json:"location"`
	Frequency string `json:"frequency"`
}

// SchoolLocation is a raw school destination. Schools are always treated
// as daily-frequency.
type SchoolLocation struct {
	Child  string `json:"child"`
	School string `json:"school"`
}

// ParentHome is a raw parent's-home destination.
type ParentHome struct {
	Parent    string `json:"parent"`
	Location  string `json:"location"`
	Frequency string `json:"frequency"`
}

// OtherDestination is any other named place the buyer visits.
type OtherDestination struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

// DestinationInput groups the raw destination descriptors of one request.
type DestinationInput struct {
	Work    []WorkLocation     `json:"work_locations"`
	Schools []SchoolLocation   `json:"school_locations"`
	Parents []ParentHome       `json:"parents_homes"`
	Other   []OtherDestination `json:"other_destinations"`
}

// MaxDistances carries per-amenity ceiling filters in kilometres.
// A zero value disables the corresponding ceiling.
type MaxDistances struct {
	MRT    float64 `json:"mrt"`
	School float64 `json:"school"`
	Mall   float64 `json:"mall"`
	Hawker float64 `json:"hawker"`
}

// RankingRequest is the full set of user criteria for one ranking call.
// Empty allow-lists mean "no restriction". The request is immutable for
// the duration of the call.
type RankingRequest struct {
	TargetYear   int
	BudgetMin    float64
	BudgetMax    float64
	Towns        []string
	FlatTypes    []string
	FlatModels   []string
	FloorAreaMin float64
	FloorAreaMax float64
	LeaseMin     float64
	LeaseMax     float64
	StoreyRanges []string
	MaxDistances MaxDistances
	Destinations DestinationInput
}

// Recommendation pairs a candidate with its score set. MatchScore is the
// final score rounded to the nearest integer for display.
type Recommendation struct {
	Candidate  Candidate `json:"candidate"`
	Scores     ScoreSet  `json:"scores"`
	MatchScore int       `json:"match_score"`
}

// RankingResponse is the result of one ranking call. An empty result is
// not an error: TotalCandidates is zero and Message suggests relaxing
// filters.
type RankingResponse struct {
	TotalCandidates int              `json:"total_candidates"`
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message,omitempty"`
}

// TransactionRow is one resale transaction from the dataset, validated at
// load time. HasCoords is false when latitude/longitude were missing in
// the source; such rows never reach the enrichment loop. HasLease is false
// when the raw remaining-lease text was unparsable (excluded by range
// filters at query time).
type TransactionRow struct {
	Town                string
	FlatType            string
	FlatModel           string
	Block               string
	StreetName          string
	FloorAreaSqm        float64
	StoreyRange         string
	LeaseCommenceYear   int
	RemainingLeaseYears float64
	HasLease            bool
	Latitude            float64
	Longitude           float64
	HasCoords           bool
	ResalePrice         float64
}
