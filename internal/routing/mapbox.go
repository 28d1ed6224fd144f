package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MapboxProvider implements DirectionsProvider against the Mapbox
// Optimized Trips API. Transient failures (429, 5xx, network errors)
// are retried with exponential backoff while respecting context
// cancellation. Safe for concurrent use.
type MapboxProvider struct {
	session *http.Client
	token   string
	baseURL string
}

func NewMapboxProvider(token string) (*MapboxProvider, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("mapbox access token is empty")
	}
	return &MapboxProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: "https://api.mapbox.com",
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Body)
}

type mapboxTripsResponse struct {
	Code  string `json:"code"`
	Trips []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"trips"`
	Waypoints []struct {
		WaypointIndex int        `json:"waypoint_index"`
		Location      [2]float64 `json:"location"`
	} `json:"waypoints"`
}

// OptimizeTrip requests an optimized round trip. An empty trip list or
// transient provider failure surfaces as ErrProviderUnavailable.
func (m *MapboxProvider) OptimizeTrip(ctx context.Context, req TripRequest) (*TripResult, error) {
	if len(req.Waypoints) < 2 {
		return nil, fmt.Errorf("optimize trip: need at least 2 waypoints, got %d", len(req.Waypoints))
	}

	resp, err := m.doWithRetry(ctx, func() (*http.Request, error) {
		return m.newTripsRequest(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded mapboxTripsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	if decoded.Code != "Ok" || len(decoded.Trips) == 0 {
		return nil, fmt.Errorf("%w: provider returned code %q with %d trips", ErrProviderUnavailable, decoded.Code, len(decoded.Trips))
	}
	if len(decoded.Waypoints) != len(req.Waypoints) {
		return nil, fmt.Errorf("%w: provider returned %d waypoints for %d inputs", ErrProviderUnavailable, len(decoded.Waypoints), len(req.Waypoints))
	}

	order := make([]int, len(decoded.Waypoints))
	for i, w := range decoded.Waypoints {
		order[i] = w.WaypointIndex
	}

	trip := decoded.Trips[0]
	return &TripResult{
		WaypointOrder:   order,
		DistanceMeters:  trip.Distance,
		DurationSeconds: trip.Duration,
		Geometry:        trip.Geometry,
	}, nil
}

func (m *MapboxProvider) newTripsRequest(ctx context.Context, req TripRequest) (*http.Request, error) {
	profile := req.Profile
	if profile == "" {
		profile = "driving"
	}

	coords := make([]string, 0, len(req.Waypoints))
	for _, p := range req.Waypoints {
		coords = append(coords, fmt.Sprintf("%f,%f", p.Lng, p.Lat))
	}

	endpoint := fmt.Sprintf("%s/optimized-trips/v1/mapbox/%s/%s",
		m.baseURL, profile, strings.Join(coords, ";"))

	q := url.Values{}
	q.Set("roundtrip", fmt.Sprintf("%t", req.RoundTrip))
	if req.Source != "" {
		q.Set("source", req.Source)
	}
	if req.Destination != "" {
		q.Set("destination", req.Destination)
	}
	q.Set("geometries", "polyline")
	q.Set("access_token", m.token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create trips request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (m *MapboxProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := m.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429, 5xx)
// with exponential backoff, honoring context cancellation.
func (m *MapboxProvider) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := m.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	return nil, lastErr
}
