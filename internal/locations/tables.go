package locations

import "github.com/flatfinder-sg/flatfinder/internal/geo"

// CityCenter is the fallback coordinate for destinations that cannot be
// resolved but must not be dropped (schools, "other" destinations).
var CityCenter = geo.Point{Lat: 1.3521, Lon: 103.8198}

// WorkArea is a known business-district label with its coordinate.
type WorkArea struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// WorkAreas lists the business districts recognised by exact label match.
var WorkAreas = []WorkArea{
	{"CBD (Raffles Place)", 1.2840, 103.8515},
	{"Marina Bay", 1.2789, 103.8536},
	{"Shenton Way", 1.2760, 103.8460},
	{"Tanjong Pagar", 1.2764, 103.8466},
	{"Orchard Road", 1.3050, 103.8320},
	{"Jurong East", 1.3329, 103.7436},
	{"Jurong Island", 1.2660, 103.6990},
	{"Changi Business Park", 1.3345, 103.9650},
	{"Paya Lebar", 1.3180, 103.8930},
	{"Woodlands", 1.4360, 103.7865},
	{"Tampines", 1.3534, 103.9450},
	{"One North", 1.2990, 103.7873},
	{"Buona Vista", 1.3070, 103.7900},
	{"Novena", 1.3204, 103.8438},
	{"Tuas", 1.3150, 103.6360},
	{"Mapletree Business City", 1.3027, 103.7895},
	{"Science Park", 1.2960, 103.7870},
	{"Alexandra", 1.2880, 103.8020},
	{"Harbourfront", 1.2655, 103.8200},
	{"Suntec City", 1.2940, 103.8570},
	{"Bugis", 1.3005, 103.8550},
	{"City Hall", 1.2930, 103.8520},
	{"Dhoby Ghaut", 1.2990, 103.8460},
	{"Outram", 1.2800, 103.8390},
}

// TownInfo holds the reference statistics used by the synthetic candidate
// fallback and the baseline predictor.
type TownInfo struct {
	Lat         float64
	Lon         float64
	AvgPrice4rm float64
	AvgLease    int
}

// Towns maps upper-cased town names to their center coordinate and
// reference statistics.
var Towns = map[string]TownInfo{
	"ANG MO KIO":      {1.3691, 103.8454, 520000, 1985},
	"BEDOK":           {1.3236, 103.9273, 480000, 1988},
	"BISHAN":          {1.3526, 103.8352, 680000, 1990},
	"BUKIT BATOK":     {1.3590, 103.7637, 450000, 1988},
	"BUKIT MERAH":     {1.2819, 103.8239, 580000, 1980},
	"BUKIT PANJANG":   {1.3774, 103.7719, 480000, 1995},
	"BUKIT TIMAH":     {1.3294, 103.8021, 750000, 1985},
	"CENTRAL AREA":    {1.2905, 103.8520, 850000, 1985},
	"CHOA CHU KANG":   {1.3840, 103.7470, 450000, 1998},
	"CLEMENTI":        {1.3162, 103.7649, 580000, 1985},
	"GEYLANG":         {1.3201, 103.8918, 520000, 1980},
	"HOUGANG":         {1.3612, 103.8863, 480000, 1992},
	"JURONG EAST":     {1.3329, 103.7436, 480000, 1988},
	"JURONG WEST":     {1.3404, 103.7090, 420000, 1992},
	"KALLANG/WHAMPOA": {1.3100, 103.8651, 620000, 1978},
	"MARINE PARADE":   {1.3020, 103.9072, 720000, 1980},
	"PASIR RIS":       {1.3721, 103.9494, 520000, 1992},
	"PUNGGOL":         {1.3984, 103.9072, 550000, 2012},
	"QUEENSTOWN":      {1.2942, 103.7861, 680000, 1975},
	"SEMBAWANG":       {1.4491, 103.8185, 450000, 2002},
	"SENGKANG":        {1.3868, 103.8914, 520000, 2005},
	"SERANGOON":       {1.3554, 103.8679, 580000, 1988},
	"TAMPINES":        {1.3534, 103.9450, 520000, 1988},
	"TOA PAYOH":       {1.3343, 103.8563, 620000, 1975},
	"WOODLANDS":       {1.4360, 103.7865, 420000, 1998},
	"YISHUN":          {1.4304, 103.8354, 430000, 1995},
}

// FrequencyWeights maps textual visit-frequency labels to numeric travel
// weights. Unrecognised labels fall back to DefaultFrequencyWeight.
var FrequencyWeights = map[string]float64{
	"Daily (5x per week)":   5.0,
	"daily":                 5.0,
	"3-4x per week":         3.5,
	"2-3x per week":         2.5,
	"2-3_per_week":          2.5,
	"1-2x per week":         1.5,
	"Weekly (1x per week)":  1.0,
	"weekly":                1.0,
	"2-3x per month":        0.5,
	"Monthly (1x per month)": 0.25,
	"1-2_per_month":         0.25,
	"Rarely":                0.05,
	"rarely":                0.05,
}

// DefaultFrequencyWeight is the weekly-visit weight used for unrecognised
// frequency labels.
const DefaultFrequencyWeight = 1.0

// FrequencyWeight resolves a label to its numeric weight.
func FrequencyWeight(label string) float64 {
	if w, ok := FrequencyWeights[label]; ok {
		return w
	}
	return DefaultFrequencyWeight
}

// AreaBounds is a typical floor-area range in square metres.
type AreaBounds struct {
	Min float64
	Max float64
}

// FlatTypeAreas maps flat types to their typical floor-area bounds, used
// by the synthetic candidate fallback.
var FlatTypeAreas = map[string]AreaBounds{
	"2 ROOM":           {45, 50},
	"3 ROOM":           {65, 75},
	"4 ROOM":           {90, 100},
	"5 ROOM":           {110, 120},
	"EXECUTIVE":        {145, 155},
	"MULTI-GENERATION": {160, 170},
}

// FlatModels lists the flat models offered in dropdowns and used as
// synthetic defaults.
var FlatModels = []string{
	"Improved", "New Generation", "Model A", "Standard", "Simplified",
	"Premium Apartment", "Maisonette", "Apartment", "DBSS", "Model A2",
}

// StoreyOptions lists the canonical storey-band labels.
var StoreyOptions = []string{
	"01 TO 03", "04 TO 06", "07 TO 09", "10 TO 12", "13 TO 15",
	"16 TO 18", "19 TO 21", "22 TO 24", "25 TO 27",
}

// Region codes: CCR=0, RCR=1, OCR=2.
const (
	RegionCCR = 0
	RegionRCR = 1
	RegionOCR = 2
)

// TownRegion maps towns to their market-region code. Unknown towns are
// treated as OCR.
var TownRegion = map[string]int{
	"BUKIT TIMAH": RegionCCR, "CENTRAL AREA": RegionCCR, "MARINE PARADE": RegionCCR,
	"BISHAN": RegionRCR, "BUKIT MERAH": RegionRCR, "GEYLANG": RegionRCR,
	"KALLANG/WHAMPOA": RegionRCR, "QUEENSTOWN": RegionRCR, "TOA PAYOH": RegionRCR,
	"SERANGOON": RegionRCR,
	"ANG MO KIO": RegionOCR, "BEDOK": RegionOCR, "BUKIT BATOK": RegionOCR,
	"BUKIT PANJANG": RegionOCR, "CHOA CHU KANG": RegionOCR, "CLEMENTI": RegionOCR,
	"HOUGANG": RegionOCR, "JURONG EAST": RegionOCR, "JURONG WEST": RegionOCR,
	"PASIR RIS": RegionOCR, "PUNGGOL": RegionOCR, "SEMBAWANG": RegionOCR,
	"SENGKANG": RegionOCR, "TAMPINES": RegionOCR, "WOODLANDS": RegionOCR,
	"YISHUN": RegionOCR,
}

// Region returns the region code for a town, defaulting to OCR.
func Region(town string) int {
	if r, ok := TownRegion[town]; ok {
		return r
	}
	return RegionOCR
}
