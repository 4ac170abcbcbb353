// Package geo turns a client IP or GPS coordinates into a human readable
// location. Lookups are best effort: every failure is reported to the caller
// but never treated as fatal by it.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultIPLookupURL       = "http://ip-api.com/json/"
	DefaultReverseGeocodeURL = "https://nominatim.openstreetmap.org/reverse"
	defaultTimeout           = 3 * time.Second
	userAgent                = "masski-auth/1.0"
)

// ErrNoResult is returned when the provider answered but had no location.
var ErrNoResult = errors.New("no location found")

// Config points the resolver at its providers. Empty URLs use the defaults.
type Config struct {
	IPLookupURL       string
	ReverseGeocodeURL string
	Timeout           time.Duration
}

// Resolver queries the IP lookup and reverse geocoding providers.
type Resolver struct {
	ipURL      string
	reverseURL string
	client     *http.Client
}

// NewResolver creates a Resolver for cfg.
func NewResolver(cfg Config) *Resolver {
	if cfg.IPLookupURL == "" {
		cfg.IPLookupURL = DefaultIPLookupURL
	}
	if cfg.ReverseGeocodeURL == "" {
		cfg.ReverseGeocodeURL = DefaultReverseGeocodeURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Resolver{
		ipURL:      strings.TrimRight(cfg.IPLookupURL, "/") + "/",
		reverseURL: cfg.ReverseGeocodeURL,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// ipLookupResponse is the ip-api.com payload.
type ipLookupResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
}

// LookupIP resolves ip to "City, Region, Country". Private and loopback
// addresses are not sent to the provider.
func (r *Resolver) LookupIP(ctx context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", ErrNoResult
	}

	var body ipLookupResponse
	if err := r.getJSON(ctx, r.ipURL+url.PathEscape(parsed.String()), &body); err != nil {
		return "", fmt.Errorf("ip lookup: %w", err)
	}
	if body.Status != "" && body.Status != "success" {
		return "", fmt.Errorf("ip lookup: %w: %s", ErrNoResult, body.Message)
	}
	loc := joinNonEmpty(body.City, body.RegionName, body.Country)
	if loc == "" {
		return "", ErrNoResult
	}
	return loc, nil
}

// reverseResponse is the Nominatim reverse payload.
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode resolves a coordinate pair to an address string.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))

	var body reverseResponse
	if err := r.getJSON(ctx, r.reverseURL+"?"+q.Encode(), &body); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode: %w", ErrNoResult)
	}
	return body.DisplayName, nil
}

func (r *Resolver) getJSON(ctx context.Context, rawURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
