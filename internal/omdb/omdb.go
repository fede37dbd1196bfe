// Package omdb provides a client for the OMDb API, used to enrich
// catalog results with IMDb ratings and metadata.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/s0up4200/seerr-bot/internal/httpkit"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "https://www.omdbapi.com"

// Record is an OMDb title lookup result. OMDb signals lookup failure
// inside a 200 response via Response="False" plus an Error message, so
// the client folds that into the returned error instead.
type Record struct {
	Title      string   `json:"Title"`
	Year       string   `json:"Year"`
	Rated      string   `json:"Rated"`
	Released   string   `json:"Released"`
	Runtime    string   `json:"Runtime"`
	Genre      string   `json:"Genre"`
	Director   string   `json:"Director"`
	Writer     string   `json:"Writer"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Awards     string   `json:"Awards"`
	Metascore  string   `json:"Metascore"`
	ImdbRating string   `json:"imdbRating"`
	ImdbVotes  string   `json:"imdbVotes"`
	ImdbID     string   `json:"imdbID"`
	Type       string   `json:"Type"`
	Ratings    []Rating `json:"Ratings"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Rating is one third-party rating source entry.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Client queries the OMDb API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new OMDb client. baseURL falls back to the public
// endpoint when empty.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(15 * time.Second),
		),
	}
}

// ByID looks up a title by its IMDb ID (tt-prefixed).
func (c *Client) ByID(ctx context.Context, imdbID string) (*Record, error) {
	params := url.Values{}
	params.Set("i", imdbID)
	return c.lookup(ctx, params)
}

// ByTitle looks up a title by name. year and mediaType ("movie" or
// "series") narrow the match when non-empty.
func (c *Client) ByTitle(ctx context.Context, title, year, mediaType string) (*Record, error) {
	params := url.Values{}
	params.Set("t", title)
	if year != "" {
		params.Set("y", year)
	}
	if mediaType != "" {
		params.Set("type", mediaType)
	}
	return c.lookup(ctx, params)
}

func (c *Client) lookup(ctx context.Context, params url.Values) (*Record, error) {
	params.Set("apikey", c.apiKey)
	params.Set("plot", "short")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("omdb request: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		body := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("omdb API error %d: %s", resp.StatusCode, body)
	}

	var record Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if record.Response != "True" {
		msg := record.Error
		if msg == "" {
			msg = "lookup failed"
		}
		return nil, fmt.Errorf("omdb: %s", msg)
	}

	return &record, nil
}
