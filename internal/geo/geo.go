package geo

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// Google Maps wrapper plus the pure distance math used for artisan matching.
// Lookups are best-effort: matching falls back to an unfiltered result when
// the Maps API is unavailable, so the deadline is kept short.

const mapsBaseURL = "https://maps.googleapis.com/maps/api"

var httpClient = &http.Client{Timeout: 5 * time.Second}

func apiKey() string { return os.Getenv("GOOGLE_API_KEY") }

type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// Autocomplete suggests Nigerian places matching the input text.
func Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	if input == "" {
		return nil, apperr.E(apperr.KindInvalid, "search text is required")
	}
	q := url.Values{}
	q.Set("input", input)
	q.Set("components", "country:ng")
	q.Set("key", apiKey())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		mapsBaseURL+"/place/autocomplete/json?"+q.Encode(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "maps request build failed", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "maps service is unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, apperr.Ef(apperr.KindExternal, "maps request failed with status %d", resp.StatusCode)
	}
	var payload struct {
		Predictions []Prediction `json:"predictions"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Predictions, nil
}

// PlaceCoordinates resolves a place id to its latitude and longitude.
func PlaceCoordinates(ctx context.Context, placeID string) (lat, lng float64, err error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "geometry")
	q.Set("key", apiKey())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		mapsBaseURL+"/place/details/json?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.KindInternal, "maps request build failed", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, 0, apperr.Wrap(apperr.KindExternal, "maps service is unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return 0, 0, apperr.Ef(apperr.KindExternal, "maps request failed with status %d", resp.StatusCode)
	}
	var payload struct {
		Result struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"result"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return 0, 0, err
	}
	loc := payload.Result.Geometry.Location
	if loc.Lat == 0 && loc.Lng == 0 {
		return 0, 0, apperr.E(apperr.KindNotFound, "place could not be resolved")
	}
	return loc.Lat, loc.Lng, nil
}

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Within reports whether two points are at most maxMeters apart. Points with
// unknown coordinates (zero value) always pass so missing geo data never
// hides a result.
func Within(lat1, lng1, lat2, lng2, maxMeters float64) bool {
	if maxMeters <= 0 {
		return true
	}
	if (lat1 == 0 && lng1 == 0) || (lat2 == 0 && lng2 == 0) {
		return true
	}
	return DistanceKm(lat1, lng1, lat2, lng2)*1000 <= maxMeters
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindExternal, "maps response decode failed", err)
	}
	return nil
}
