package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"task-weather/backend/internal/cache"
	"task-weather/backend/internal/config"
)

const (
	defaultGeocodeURL = "http://api.openweathermap.org/geo/1.0/direct"
	defaultCurrentURL = "https://api.openweathermap.org/data/2.5/weather"
	defaultTimeout    = 5 * time.Second
	maxResponseBytes  = 1 << 20
)

var errLocationNotFound = errors.New("location not found")

// Client looks up current conditions from OpenWeatherMap: the location is
// geocoded first and the first match's coordinates are then queried.
type Client struct {
	apiKey     string
	geocodeURL string
	currentURL string
	units      string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *cache.CircuitBreaker
}

type geocodeResult struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type currentConditions struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// NewClient builds a client from cfg. A nil httpClient gets a default one
// bounded by cfg.Timeout.
func NewClient(cfg config.WeatherConfig, httpClient *http.Client) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		geocodeURL: cfg.GeocodeURL,
		currentURL: cfg.CurrentURL,
		units:      cfg.Units,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		breaker: cache.NewCircuitBreaker(&cache.CircuitBreakerConfig{
			MaxFailures:      cfg.BreakerMaxFailures,
			Timeout:          cfg.BreakerTimeout,
			HalfOpenMaxCalls: 1,
		}),
	}
	if c.geocodeURL == "" {
		c.geocodeURL = defaultGeocodeURL
	}
	if c.currentURL == "" {
		c.currentURL = defaultCurrentURL
	}
	if c.units == "" {
		c.units = "imperial"
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// BreakerStats exposes the state of the circuit breaker guarding the API.
func (c *Client) BreakerStats() map[string]interface{} {
	return c.breaker.GetStats()
}

// Lookup returns the current weather at location, or NoData on any failure.
func (c *Client) Lookup(ctx context.Context, location string) Report {
	if !c.IsConfigured() || location == "" {
		return NoData
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := NoData
	err := c.breaker.Execute(func() error {
		summary, err := c.fetch(ctx, location)
		if errors.Is(err, errLocationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		report = Available(summary)
		return nil
	})
	if err != nil {
		log.Printf("weather: lookup for %q degraded to no data: %v", location, err)
		return NoData
	}
	return report
}

func (c *Client) fetch(ctx context.Context, location string) (Summary, error) {
	geoQuery := url.Values{}
	geoQuery.Set("q", location)
	geoQuery.Set("limit", "1")
	geoQuery.Set("appid", c.apiKey)

	var places []geocodeResult
	if err := c.getJSON(ctx, c.geocodeURL, geoQuery, &places); err != nil {
		return Summary{}, fmt.Errorf("geocode: %w", err)
	}
	if len(places) == 0 || places[0].Lat == nil || places[0].Lon == nil {
		return Summary{}, errLocationNotFound
	}

	weatherQuery := url.Values{}
	weatherQuery.Set("lat", strconv.FormatFloat(*places[0].Lat, 'f', -1, 64))
	weatherQuery.Set("lon", strconv.FormatFloat(*places[0].Lon, 'f', -1, 64))
	weatherQuery.Set("units", c.units)
	weatherQuery.Set("appid", c.apiKey)

	var current currentConditions
	if err := c.getJSON(ctx, c.currentURL, weatherQuery, &current); err != nil {
		return Summary{}, fmt.Errorf("current conditions: %w", err)
	}
	if len(current.Weather) == 0 || current.Main.Temp == nil {
		return Summary{}, fmt.Errorf("current conditions: incomplete response")
	}

	return Summary{
		Description: current.Weather[0].Description,
		Temperature: *current.Main.Temp,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
