package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/s0up4200/seerr-bot/internal/seerr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T, handler http.Handler) *Registry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRegistry(seerr.NewClient(server.URL, "test-key"), nil, testLogger())
}

// failIfCalled builds a handler that fails the test on any request.
func failIfCalled(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call: %s %s", r.Method, r.URL.Path)
	})
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		query     string
		wantTitle string
		wantYear  string
	}{
		{"Inception (2010)", "Inception", "2010"},
		{"Inception [2010]", "Inception", "2010"},
		{"Inception - 2010", "Inception", "2010"},
		{"Inception 2010", "Inception", "2010"},
		{"The Bear", "The Bear", ""},
		{"Dune (2021) extended", "Dune extended", "2021"},
		{"(2019) Parasite", "Parasite", "2019"},
	}

	for _, tt := range tests {
		title, year := extractYear(tt.query)
		if title != tt.wantTitle || year != tt.wantYear {
			t.Errorf("extractYear(%q) = (%q, %q), want (%q, %q)",
				tt.query, title, year, tt.wantTitle, tt.wantYear)
		}
	}
}

func TestExtractYearPrecedence(t *testing.T) {
	// Parenthesized beats a bare trailing year when both appear.
	title, year := extractYear("Dune (2021) 1984")
	if year != "2021" {
		t.Errorf("year = %q, want 2021 (parenthesized takes precedence)", year)
	}
	if !strings.Contains(title, "1984") {
		t.Errorf("title %q should keep the unmatched token", title)
	}
}

func TestReorderByYearStable(t *testing.T) {
	results := []seerr.MediaResult{
		{ID: 1, Title: "A", ReleaseDate: "2005-01-01"},
		{ID: 2, Title: "B", ReleaseDate: "2010-03-01"},
		{ID: 3, Title: "C", ReleaseDate: "2008-01-01"},
		{ID: 4, Title: "D", ReleaseDate: "2010-09-01"},
	}

	got := reorderByYear(results, "2010")
	wantIDs := []int{2, 4, 1, 3}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d: got ID %d, want %d (order %v)", i, got[i].ID, want, got)
		}
	}

	same := reorderByYear(results, "")
	for i := range results {
		if same[i].ID != results[i].ID {
			t.Fatal("empty year must not reorder")
		}
	}
}

func TestUnknownToolReturnsText(t *testing.T) {
	registry := testRegistry(t, failIfCalled(t))
	got := registry.Execute(context.Background(), "launch_rockets", nil)
	if !strings.Contains(got, "Unknown tool") {
		t.Errorf("Execute = %q, want unknown-tool text", got)
	}
}

func TestSeriesRequestWithoutSeasons(t *testing.T) {
	registry := testRegistry(t, failIfCalled(t))

	for _, args := range []map[string]any{
		{"id": float64(1399), "media_type": "tv"},
		{"id": float64(1399), "media_type": "tv", "seasons": []any{}},
	} {
		got := registry.Execute(context.Background(), "request_media", args)
		if !strings.Contains(got, "at least one season") {
			t.Errorf("Execute(request_media, %v) = %q, want seasons usage error", args, got)
		}
	}
}

func TestRequestMediaMovie(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(seerr.RequestRecord{ID: 12, Status: seerr.RequestStatusPending})
	}))

	got := registry.Execute(context.Background(), "request_media", map[string]any{
		"id": float64(27205), "media_type": "movie",
	})
	if !strings.Contains(got, "Movie request submitted successfully!") {
		t.Errorf("Execute = %q, want success text", got)
	}
	if !strings.Contains(got, "12") {
		t.Errorf("Execute = %q, want request ID", got)
	}
}

func TestRequestMediaSeasonsSorted(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Seasons []int `json:"seasons"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		for i := 1; i < len(payload.Seasons); i++ {
			if payload.Seasons[i-1] > payload.Seasons[i] {
				t.Errorf("seasons not ascending: %v", payload.Seasons)
			}
		}
		json.NewEncoder(w).Encode(seerr.RequestRecord{ID: 3, Status: seerr.RequestStatusPending})
	}))

	got := registry.Execute(context.Background(), "request_media", map[string]any{
		"id": float64(1399), "media_type": "tv", "seasons": []any{float64(3), float64(1), float64(2)},
	})
	if !strings.Contains(got, "seasons 1, 2, 3") {
		t.Errorf("Execute = %q, want sorted season list", got)
	}
}

func TestRequestErrorPhrasing(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusForbidden, `{"message":"forbidden"}`, "permission"},
		{http.StatusNotFound, `{"message":"missing"}`, "could not find"},
		{http.StatusConflict, `{"message":"Request for this media already exists."}`, "already been requested"},
		{http.StatusInternalServerError, `{"message":"boom"}`, "The request failed"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			got := registry.Execute(context.Background(), "request_media", map[string]any{
				"id": float64(27205), "media_type": "movie",
			})
			if !strings.Contains(got, tt.want) {
				t.Errorf("Execute = %q, want text containing %q", got, tt.want)
			}
		})
	}
}

func TestFormatSeasonsExcludesSpecials(t *testing.T) {
	seasons := []seerr.Season{
		{SeasonNumber: 0, EpisodeCount: 5},
		{SeasonNumber: 1, EpisodeCount: 10, AirDate: "2022-02-17"},
		{SeasonNumber: 2, EpisodeCount: 9},
	}

	got := FormatSeasons(seasons)
	if strings.Contains(got, "Season 0") {
		t.Errorf("FormatSeasons output contains Season 0:\n%s", got)
	}
	if !strings.Contains(got, "Season 1: 10 episodes (aired 2022-02-17)") {
		t.Errorf("FormatSeasons output missing season 1 line:\n%s", got)
	}
	if !strings.Contains(got, "Season 2: 9 episodes") {
		t.Errorf("FormatSeasons output missing season 2 line:\n%s", got)
	}
}

func TestSearchMediaPosterOnTopOnly(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(seerr.SearchResponse{
			Results: []seerr.MediaResult{
				{ID: 1, MediaType: "movie", Title: "First", ReleaseDate: "2010-01-01", PosterPath: "/a.jpg"},
				{ID: 2, MediaType: "movie", Title: "Second", ReleaseDate: "2011-01-01", PosterPath: "/b.jpg"},
			},
		})
	}))

	got := registry.Execute(context.Background(), "search_media", map[string]any{"query": "anything"})
	if count := strings.Count(got, "[POSTER:"); count != 1 {
		t.Errorf("got %d poster directives, want 1:\n%s", count, got)
	}
	if !strings.Contains(got, "[POSTER:https://image.tmdb.org/t/p/w500/a.jpg]") {
		t.Errorf("poster should reference the top result:\n%s", got)
	}
}

func TestSearchMediaCapsAtTen(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var results []seerr.MediaResult
		for i := 1; i <= 15; i++ {
			results = append(results, seerr.MediaResult{
				ID: i, MediaType: "movie", Title: fmt.Sprintf("Movie %d", i), ReleaseDate: "2020-01-01",
			})
		}
		json.NewEncoder(w).Encode(seerr.SearchResponse{Results: results})
	}))

	got := registry.Execute(context.Background(), "search_media", map[string]any{"query": "movie"})
	if strings.Contains(got, "11.") {
		t.Errorf("listing should cap at 10 items:\n%s", got)
	}
	if !strings.Contains(got, "10.") {
		t.Errorf("listing should include 10 items:\n%s", got)
	}
}

func TestTruncateOverview(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := truncateOverview(long)
	if len(got) != overviewLimit+3 {
		t.Errorf("truncated length = %d, want %d", len(got), overviewLimit+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated overview must end with ellipsis: %q", got[len(got)-10:])
	}

	if got := truncateOverview(""); got != "No overview available." {
		t.Errorf("empty overview = %q", got)
	}
	if got := truncateOverview("short"); got != "short" {
		t.Errorf("short overview = %q", got)
	}
}

func TestTruncateOverviewRuneBoundary(t *testing.T) {
	// A multi-byte rune straddling the cap must be dropped whole, not
	// split into invalid UTF-8.
	overview := strings.Repeat("a", overviewLimit-1) + "é" + strings.Repeat("b", 50)
	got := truncateOverview(overview)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated overview is invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated overview must end with ellipsis: %q", got)
	}
	if want := strings.Repeat("a", overviewLimit-1) + "..."; got != want {
		t.Errorf("got %q, want the rune dropped whole", got[overviewLimit-5:])
	}

	cjk := strings.Repeat("字", 100)
	got = truncateOverview(cjk)
	if !utf8.ValidString(got) {
		t.Fatalf("CJK overview truncated to invalid UTF-8: %q", got)
	}
	if len(got) > overviewLimit+3 {
		t.Errorf("truncated length = %d, exceeds cap", len(got))
	}
}

func TestGenreID(t *testing.T) {
	tests := []struct {
		mediaType string
		name      string
		want      int
	}{
		{"movie", "sci-fi", 878},
		{"tv", "sci-fi", 10765},
		{"movie", "Action", 28},
		{"tv", "action", 10759},
		{"movie", "polka", 0},
		{"movie", "", 0},
	}
	for _, tt := range tests {
		if got := genreID(tt.mediaType, tt.name); got != tt.want {
			t.Errorf("genreID(%q, %q) = %d, want %d", tt.mediaType, tt.name, got, tt.want)
		}
	}
}

func TestListRequestsFallbackTitle(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/request"):
			json.NewEncoder(w).Encode(seerr.RequestsResponse{
				Results: []seerr.RequestRecord{
					{ID: 1, Status: seerr.RequestStatusPending, Media: seerr.RequestMedia{TmdbID: 27205, MediaType: "movie"}},
					{ID: 2, Status: seerr.RequestStatusPending, Media: seerr.RequestMedia{TmdbID: 999, MediaType: "movie"}},
				},
			})
		case r.URL.Path == "/api/v1/movie/27205":
			json.NewEncoder(w).Encode(seerr.MovieDetails{ID: 27205, Title: "Inception"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	got := registry.Execute(context.Background(), "list_requests", nil)
	if !strings.Contains(got, "Inception") {
		t.Errorf("listing should resolve known titles:\n%s", got)
	}
	if !strings.Contains(got, "Unknown (id 999)") {
		t.Errorf("listing should fall back for failed lookups:\n%s", got)
	}
}

func TestListRequestsFailedFilter(t *testing.T) {
	var gotFilter string
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		json.NewEncoder(w).Encode(seerr.RequestsResponse{})
	}))

	got := registry.Execute(context.Background(), "list_requests", map[string]any{"status": "failed"})
	if gotFilter != "failed" {
		t.Errorf("filter = %q, want failed", gotFilter)
	}
	if !strings.Contains(got, "No failed requests found.") {
		t.Errorf("empty failed listing = %q", got)
	}

	schema := registry.Get("list_requests").Parameters
	props, _ := schema["properties"].(map[string]any)
	status, _ := props["status"].(map[string]any)
	enum, _ := status["enum"].([]string)
	found := false
	for _, v := range enum {
		if v == "failed" {
			found = true
		}
	}
	if !found {
		t.Errorf("status enum %v must include failed", enum)
	}
}

func TestDiscoverMinRatingFilter(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(seerr.SearchResponse{
			Results: []seerr.MediaResult{
				{ID: 1, MediaType: "movie", Title: "Great", ReleaseDate: "2020-01-01", VoteAverage: 8.4},
				{ID: 2, MediaType: "movie", Title: "Mediocre", ReleaseDate: "2020-01-01", VoteAverage: 5.1},
			},
		})
	}))

	got := registry.Execute(context.Background(), "discover_movies", map[string]any{"min_rating": float64(7)})
	if !strings.Contains(got, "Great") || strings.Contains(got, "Mediocre") {
		t.Errorf("min_rating filter not applied:\n%s", got)
	}
}

func TestTransportFailureBecomesText(t *testing.T) {
	registry := testRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	got := registry.Execute(context.Background(), "search_media", map[string]any{"query": "anything"})
	if !strings.HasPrefix(got, "Error:") {
		t.Errorf("transport failure should fold into Error text, got %q", got)
	}
}

func TestListSchemasStable(t *testing.T) {
	registry := testRegistry(t, failIfCalled(t))
	schemas := registry.List()
	if len(schemas) != 13 {
		t.Fatalf("got %d tool schemas, want 13", len(schemas))
	}
	first, _ := schemas[0]["function"].(map[string]any)
	if first["name"] != "search_media" {
		t.Errorf("first tool = %v, want search_media (registration order)", first["name"])
	}
}
