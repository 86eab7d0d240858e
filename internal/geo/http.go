// internal/geo/http.go
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wateryu2030/yykhotdog-sub001/internal/common/config"
	apperrors "github.com/wateryu2030/yykhotdog-sub001/internal/common/errors"
	"github.com/wateryu2030/yykhotdog-sub001/internal/common/logger"
	"github.com/wateryu2030/yykhotdog-sub001/internal/models"
)

// HTTPProvider talks to an Amap-compatible geo service. Endpoints:
// /v3/geocode/geo, /v3/place/around and /v4/population, all keyed by the
// "key" query parameter.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	logger  logger.Logger
}

func NewHTTPProvider(cfg config.GeoConfig, log logger.Logger) *HTTPProvider {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		client:  &http.Client{},
		logger:  log.WithFields(map[string]interface{}{"component": "geo-http"}),
	}
}

type geocodeResponse struct {
	Status   string `json:"status"`
	Geocodes []struct {
		Location  string `json:"location"`
		Province  string `json:"province"`
		City      string `json:"city"`
		District  string `json:"district"`
		Formatted string `json:"formatted_address"`
	} `json:"geocodes"`
}

func (p *HTTPProvider) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("address", address)

	var resp geocodeResponse
	if err := p.get(ctx, "/v3/geocode/geo", params, &resp); err != nil {
		return nil, apperrors.NewGeocodeError(address, err.Error())
	}
	if resp.Status != "1" || len(resp.Geocodes) == 0 {
		return nil, apperrors.NewGeocodeError(address, "no match from geo service")
	}

	first := resp.Geocodes[0]
	coords, err := parseLocation(first.Location)
	if err != nil {
		return nil, apperrors.NewGeocodeError(address, err.Error())
	}

	return &models.GeocodeResult{
		Coordinates: coords,
		Region: models.Region{
			Province: first.Province,
			City:     first.City,
			District: first.District,
		},
		Formatted: first.Formatted,
	}, nil
}

type aroundResponse struct {
	Status string `json:"status"`
	POIs   []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Location string `json:"location"`
		Distance string `json:"distance"`
	} `json:"pois"`
}

func (p *HTTPProvider) SearchNearby(ctx context.Context, lng, lat float64, keyword string, radiusMeters int) ([]models.POI, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("location", fmt.Sprintf("%.6f,%.6f", lng, lat))
	params.Set("keywords", keyword)
	params.Set("radius", strconv.Itoa(radiusMeters))

	var resp aroundResponse
	if err := p.get(ctx, "/v3/place/around", params, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "1" {
		return nil, fmt.Errorf("place search failed for keyword %q", keyword)
	}

	pois := make([]models.POI, 0, len(resp.POIs))
	for _, raw := range resp.POIs {
		poi := models.POI{ID: raw.ID, Name: raw.Name, Category: raw.Type}
		if coords, err := parseLocation(raw.Location); err == nil {
			poi.Longitude = coords.Longitude
			poi.Latitude = coords.Latitude
		}
		if d, err := strconv.ParseFloat(raw.Distance, 64); err == nil {
			poi.Distance = d
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

type populationResponse struct {
	Population float64 `json:"population"`
}

func (p *HTTPProvider) EstimatePopulation(ctx context.Context, lng, lat float64) (float64, error) {
	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("location", fmt.Sprintf("%.6f,%.6f", lng, lat))

	var resp populationResponse
	if err := p.get(ctx, "/v4/population", params, &resp); err != nil {
		return 0, err
	}
	return resp.Population, nil
}

func (p *HTTPProvider) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build geo request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("geo service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geo response: %w", err)
	}
	return nil
}

// parseLocation splits the "lng,lat" wire form.
func parseLocation(s string) (models.Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Coordinates{}, fmt.Errorf("malformed location %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("malformed longitude in %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("malformed latitude in %q", s)
	}
	return models.Coordinates{Longitude: lng, Latitude: lat}, nil
}
