// Package seerr provides a client for the Seerr media request API.
package seerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/s0up4200/seerr-bot/internal/httpkit"
)

// StatusError is returned for any non-2xx API response. Callers that
// need to branch on the status code (missing item, permission denied,
// duplicate request) unwrap it with errors.As.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("seerr API error %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client is a Seerr REST API client. All calls carry the API key in the
// X-Api-Key header.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Seerr client. baseURL is the server root
// without the /api/v1 suffix.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(30 * time.Second),
		),
	}
}

// Ping checks that the API is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	var status struct {
		Version string `json:"version"`
	}
	return c.get(ctx, "/status", &status)
}

// Search queries the catalog by free-text title. Page numbering starts
// at 1.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResponse, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))

	var resp SearchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MovieDetails retrieves the full detail record for a movie.
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// TVDetails retrieves the full detail record for a series, including
// its season list.
func (c *Client) TVDetails(ctx context.Context, id int) (*TVDetails, error) {
	var details TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// SubmitRequest submits a new media request. For series, seasons lists
// the season numbers to request; for movies it must be nil.
func (c *Client) SubmitRequest(ctx context.Context, mediaType string, mediaID int, seasons []int) (*RequestRecord, error) {
	payload := map[string]any{
		"mediaType": mediaType,
		"mediaId":   mediaID,
	}
	if mediaType == MediaTypeTV {
		payload["seasons"] = seasons
	}

	var record RequestRecord
	if err := c.post(ctx, "/request", payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRequests lists requests, newest first. filter is one of the API
// filter names (all, pending, approved, available, processing) or ""
// for all. take caps the page size.
func (c *Client) ListRequests(ctx context.Context, filter string, take int) (*RequestsResponse, error) {
	if take < 1 {
		take = 10
	}
	params := url.Values{}
	params.Set("take", strconv.Itoa(take))
	params.Set("sort", "added")
	if filter != "" {
		params.Set("filter", filter)
	}

	var resp RequestsResponse
	if err := c.get(ctx, "/request?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ApproveRequest approves a pending request.
func (c *Client) ApproveRequest(ctx context.Context, requestID int) (*RequestRecord, error) {
	var record RequestRecord
	if err := c.post(ctx, fmt.Sprintf("/request/%d/approve", requestID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeclineRequest declines a pending request.
func (c *Client) DeclineRequest(ctx context.Context, requestID int) (*RequestRecord, error) {
	var record RequestRecord
	if err := c.post(ctx, fmt.Sprintf("/request/%d/decline", requestID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DiscoverTrending lists currently trending media across both kinds.
func (c *Client) DiscoverTrending(ctx context.Context) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/discover/trending", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DiscoverUpcoming lists upcoming releases for one media kind.
func (c *Client) DiscoverUpcoming(ctx context.Context, mediaType string) (*SearchResponse, error) {
	path := "/discover/movies/upcoming"
	if mediaType == MediaTypeTV {
		path = "/discover/tv/upcoming"
	}
	var resp SearchResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DiscoverFilters narrows a discover listing. Zero values mean
// unfiltered.
type DiscoverFilters struct {
	Year    int
	GenreID int
	SortBy  string
}

func (f DiscoverFilters) encode(mediaType string) string {
	params := url.Values{}
	params.Set("page", "1")
	if f.GenreID > 0 {
		params.Set("genre", strconv.Itoa(f.GenreID))
	}
	if f.SortBy != "" {
		params.Set("sortBy", f.SortBy)
	}
	if f.Year > 0 {
		gte := fmt.Sprintf("%d-01-01", f.Year)
		lte := fmt.Sprintf("%d-12-31", f.Year)
		if mediaType == MediaTypeTV {
			params.Set("firstAirDateGte", gte)
			params.Set("firstAirDateLte", lte)
		} else {
			params.Set("primaryReleaseDateGte", gte)
			params.Set("primaryReleaseDateLte", lte)
		}
	}
	return params.Encode()
}

// DiscoverMovies lists movies matching the filters.
func (c *Client) DiscoverMovies(ctx context.Context, filters DiscoverFilters) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/discover/movies?"+filters.encode(MediaTypeMovie), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DiscoverTV lists series matching the filters.
func (c *Client) DiscoverTV(ctx context.Context, filters DiscoverFilters) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/discover/tv?"+filters.encode(MediaTypeTV), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Similar lists media similar to the given item.
func (c *Client) Similar(ctx context.Context, mediaType string, id int) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/similar", mediaType, id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRatings retrieves aggregate critic and audience ratings for an
// item. Not all items have ratings; a 404 here is common.
func (c *Client) GetRatings(ctx context.Context, mediaType string, id int) (*Ratings, error) {
	var ratings Ratings
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/ratings", mediaType, id), &ratings); err != nil {
		return nil, err
	}
	return &ratings, nil
}

// get performs a GET request against the /api/v1 prefix.
func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1"+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request against the /api/v1 prefix.
func (c *Client) post(ctx context.Context, path string, data any, result any) error {
	var reqBody []byte
	if data != nil {
		var err error
		reqBody, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1"+path, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	// Drain and close to ensure connection reuse even when result is nil.
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       httpkit.ReadErrorBody(resp.Body, 512),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
