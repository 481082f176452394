package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/platform/obs"
)

type matrixResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// fetchMatrix retrieves duration and distance matrices for the given
// coordinates. Empty sources or destinations select every coordinate on
// that axis. Rows follow the sources, columns the destinations.
func (m *MapboxTravelProvider) fetchMatrix(
	ctx context.Context,
	coords []domain.Point,
	sources []int,
	destinations []int,
) ([][]*float64, [][]*float64, error) {
	if len(coords) < 2 {
		return nil, nil, fmt.Errorf("matrix needs at least 2 coordinates, got %d", len(coords))
	}
	if len(coords) > maxMatrixCoordinates {
		return nil, nil, fmt.Errorf("matrix request exceeds %d coordinates: %d", maxMatrixCoordinates, len(coords))
	}

	var sb strings.Builder
	for i, c := range coords {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%.6f,%.6f", c.Lng, c.Lat)
	}
	endpoint := fmt.Sprintf("%s/directions-matrix/v1/%s/%s", m.baseURL, m.profile, sb.String())

	q := url.Values{}
	q.Set("annotations", "duration,distance")
	q.Set("access_token", m.apiKey)
	if len(sources) > 0 {
		q.Set("sources", joinIndexes(sources))
	}
	if len(destinations) > 0 {
		q.Set("destinations", joinIndexes(destinations))
	}
	fullURL := endpoint + "?" + q.Encode()

	resp, err := m.doWithRetry(ctx, func() (*http.Request, error) {
		return m.newRequest(ctx, http.MethodGet, fullURL, nil)
	})
	if err != nil {
		obs.ProviderRequests.WithLabelValues("error").Inc()
		return nil, nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()
	obs.ProviderRequests.WithLabelValues("ok").Inc()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if mr.Code != "Ok" {
		return nil, nil, fmt.Errorf("matrix response code %q: %s", mr.Code, mr.Message)
	}

	wantRows := len(coords)
	if len(sources) > 0 {
		wantRows = len(sources)
	}
	wantCols := len(coords)
	if len(destinations) > 0 {
		wantCols = len(destinations)
	}

	if len(mr.Durations) != wantRows || len(mr.Distances) != wantRows {
		return nil, nil, fmt.Errorf(
			"expected %d matrix rows; got durations=%d distances=%d",
			wantRows, len(mr.Durations), len(mr.Distances),
		)
	}
	for i := 0; i < wantRows; i++ {
		if len(mr.Durations[i]) != wantCols || len(mr.Distances[i]) != wantCols {
			return nil, nil, fmt.Errorf(
				"row %d lengths do not match destinations: durations=%d distances=%d want=%d",
				i, len(mr.Durations[i]), len(mr.Distances[i]), wantCols,
			)
		}
	}

	return mr.Durations, mr.Distances, nil
}

// The API returns float meters and seconds; the domain works in km and
// whole minutes.
func toTravelCost(meters, seconds float64) domain.TravelCost {
	return domain.TravelCost{
		Km:      meters / 1000,
		Minutes: int(math.Round(seconds / 60)),
	}
}

func joinIndexes(idx []int) string {
	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ";")
}
