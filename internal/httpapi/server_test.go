package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatfinder-sg/flatfinder/internal/domain"
	"github.com/flatfinder-sg/flatfinder/internal/locations"
	"github.com/flatfinder-sg/flatfinder/internal/predict"
	"github.com/flatfinder-sg/flatfinder/internal/ranking"
)

func testServer() *httptest.Server {
	log := zerolog.Nop()
	mappings := predict.DefaultMappings()
	trend := predict.DefaultTrendTable()
	predictor := predict.NewHybridPredictor(mappings, trend)
	resolver := locations.NewResolver(
		[]locations.School{{Name: "Rosyth School", Lat: 1.3720, Lon: 103.8730}},
		[]locations.POI{{Name: "East Coast Park", Category: "park", Lat: 1.3008, Lon: 103.9122}},
		log,
	)
	distances := func(_, _ float64) domain.Distances { return domain.Distances{} }

	cfg := ranking.DefaultConfig()
	gen := ranking.NewGenerator(nil, distances, predictor, cfg, log)
	engine := ranking.NewEngine(gen, resolver, cfg, log)

	srv := New(engine, predictor, mappings, resolver, distances, trend, log)
	return httptest.NewServer(srv.Router())
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	resp, body := getJSON(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRecommendEndpoint(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	resp, body := postJSON(t, ts.URL+"/recommend", map[string]any{
		"targetYear": 2025,
		"budget":     []float64{200000, 900000},
		"towns":      []string{"ANG MO KIO"},
		"flatTypes":  []string{"4 ROOM"},
		"destinations": map[string]any{
			"workLocations": []map[string]string{
				{"person": "You", "location": "Marina Bay", "frequency": "Daily (5x per week)"},
			},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	recs, ok := body["recommendations"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), 10)

	first := recs[0].(map[string]any)
	assert.Equal(t, "ANG MO KIO", first["town"])
	assert.Equal(t, "4 ROOM", first["flatType"])

	price := first["predictedPrice"].(float64)
	assert.Zero(t, int(price)%1000, "price rounded to the nearest thousand")

	pr := first["priceRange"].([]any)
	require.Len(t, pr, 2)
	assert.InDelta(t, price*0.94, pr[0].(float64), 1.0)
	assert.InDelta(t, price*1.06, pr[1].(float64), 1.0)

	fa := first["floorArea"].([]any)
	require.Len(t, fa, 2)
	assert.InDelta(t, 10.0, fa[1].(float64)-fa[0].(float64), 1e-9)

	match := first["matchScore"].(float64)
	assert.GreaterOrEqual(t, match, 0.0)
	assert.LessOrEqual(t, match, 100.0)

	t.Run("ranked descending", func(t *testing.T) {
		prev := 101.0
		for _, r := range recs {
			score := r.(map[string]any)["scores"].(map[string]any)["final"].(float64)
			assert.LessOrEqual(t, score, prev)
			prev = score
		}
	})
}

func TestRecommendValidation(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	t.Run("missing budget", func(t *testing.T) {
		resp, body := postJSON(t, ts.URL+"/recommend", map[string]any{"targetYear": 2025})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "budget")
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/recommend", "application/json", bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestClearCacheEndpoint(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	_, _ = postJSON(t, ts.URL+"/recommend", map[string]any{
		"targetYear": 2025,
		"budget":     []float64{200000, 900000},
		"towns":      []string{"BEDOK"},
	})

	resp, body := postJSON(t, ts.URL+"/recommend/clear-cache", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.0, body["cleared"])
}

func TestPredictEndpoint(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	payload := map[string]any{
		"town":              "BEDOK",
		"flatType":          "4 ROOM",
		"flatModel":         "Model A",
		"floorAreaSqm":      95,
		"floorLevel":        8,
		"leaseCommenceYear": 1990,
		"year":              2026,
		"latitude":          1.3236,
		"longitude":         103.9273,
	}

	resp, body := postJSON(t, ts.URL+"/predict", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2026.0, body["year"])
	assert.Greater(t, body["predictedPrice"].(float64), 0.0)
	assert.Greater(t, body["pricePerSqm"].(float64), 0.0)

	t.Run("unknown town", func(t *testing.T) {
		bad := map[string]any{}
		for k, v := range payload {
			bad[k] = v
		}
		bad["town"] = "ATLANTIS"
		resp, body := postJSON(t, ts.URL+"/predict", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body["error"], "unknown town")
	})

	t.Run("missing coordinates", func(t *testing.T) {
		bad := map[string]any{}
		for k, v := range payload {
			bad[k] = v
		}
		delete(bad, "latitude")
		delete(bad, "longitude")
		resp, _ := postJSON(t, ts.URL+"/predict", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPredictMultiYearEndpoint(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	resp, body := postJSON(t, ts.URL+"/predict/multi-year", map[string]any{
		"town":              "BEDOK",
		"flatType":          "4 ROOM",
		"floorAreaSqm":      95,
		"floorLevel":        8,
		"leaseCommenceYear": 1990,
		"latitude":          1.3236,
		"longitude":         103.9273,
		"years":             []int{2025, 2026, 2027},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	preds := body["predictions"].([]any)
	require.Len(t, preds, 3)

	first := preds[0].(map[string]any)
	assert.Equal(t, 2025.0, first["year"])
	assert.Zero(t, first["yoyChangePct"].(float64))

	second := preds[1].(map[string]any)
	assert.Greater(t, second["yoyChangePct"].(float64), 0.0, "trend table rises year over year")
}

func TestTrendMultipliersEndpoint(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	resp, body := getJSON(t, ts.URL+"/trend-multipliers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mult, ok := body["multipliers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, mult["2025"])
	assert.Len(t, mult, len(predict.DefaultTrendTable()))
}

func TestOptionsEndpoints(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	resp, body := getJSON(t, ts.URL+"/options/towns")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["towns"].([]any), 26)

	_, body = getJSON(t, ts.URL+"/options/flat_types")
	flatTypes := body["flatTypes"].([]any)
	require.NotEmpty(t, flatTypes)
	assert.Equal(t, "1 ROOM", flatTypes[0])

	_, body = getJSON(t, ts.URL+"/options/flat_models")
	assert.NotEmpty(t, body["flatModels"])
}

func TestLocationEndpoints(t *testing.T) {
	ts := testServer()
	defer ts.Close()

	_, body := getJSON(t, ts.URL+"/locations/work-areas")
	assert.Len(t, body["workAreas"].([]any), 24)

	_, body = getJSON(t, ts.URL+"/locations/schools")
	require.Len(t, body["schools"].([]any), 1)

	_, body = getJSON(t, ts.URL+"/locations/poi-categories")
	assert.Equal(t, []any{"park"}, body["categories"])

	resp, body := getJSON(t, ts.URL+"/locations/pois/park")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["pois"].([]any), 1)

	resp, _ = getJSON(t, ts.URL+"/locations/pois/zoo")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
