package tools

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/s0up4200/seerr-bot/internal/omdb"
	"github.com/s0up4200/seerr-bot/internal/seerr"
)

// Year-extraction patterns, tried in precedence order. A query like
// "Blade Runner 2049" matches the bare-suffix pattern, which is the
// accepted trade-off for letting users type "Inception 2010".
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{4})\)`),
	regexp.MustCompile(`\[(\d{4})\]`),
	regexp.MustCompile(`\s+-\s+(\d{4})\s*$`),
	regexp.MustCompile(`\s+(\d{4})\s*$`),
}

// extractYear splits an embedded release year out of a search query.
// Returns the cleaned title and the year, or the original query and ""
// when no pattern matches.
func extractYear(query string) (title, year string) {
	for _, pattern := range yearPatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			title = strings.Join(strings.Fields(pattern.ReplaceAllString(query, " ")), " ")
			return title, m[1]
		}
	}
	return strings.TrimSpace(query), ""
}

// reorderByYear stably moves results whose release year matches year to
// the front. Relative order within each group is preserved.
func reorderByYear(results []seerr.MediaResult, year string) []seerr.MediaResult {
	if year == "" {
		return results
	}
	matched := make([]seerr.MediaResult, 0, len(results))
	rest := make([]seerr.MediaResult, 0, len(results))
	for _, item := range results {
		if item.ReleaseYear() == year {
			matched = append(matched, item)
		} else {
			rest = append(rest, item)
		}
	}
	return append(matched, rest...)
}

func (r *Registry) registerSearchTools() {
	r.Register(&Tool{
		Name:        "search_media",
		Description: "Search for movies and TV shows by title. A release year embedded in the query (e.g. 'Inception 2010' or 'Dune (2021)') narrows the match. Returns up to 10 results with TMDB IDs needed by the other tools.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The title to search for, optionally with a release year",
				},
			},
			"required": []string{"query"},
		},
		Handler: r.handleSearchMedia,
	})

	r.Register(&Tool{
		Name:        "get_media_details",
		Description: "Get full details for a movie or TV show by TMDB ID: overview, rating, availability status, and for series the list of seasons.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "The TMDB ID from a search result",
				},
				"media_type": map[string]any{
					"type":        "string",
					"enum":        []string{"movie", "tv"},
					"description": "Whether the ID refers to a movie or a TV series",
				},
			},
			"required": []string{"id", "media_type"},
		},
		Handler: r.handleGetMediaDetails,
	})

	r.Register(&Tool{
		Name:        "verify_imdb",
		Description: "Cross-check a title against IMDb data: rating, votes, director, cast. Look up by IMDb ID (preferred when known) or by title with optional year.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"imdb_id": map[string]any{
					"type":        "string",
					"description": "IMDb ID (tt-prefixed), takes precedence over title",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Title to look up when no IMDb ID is known",
				},
				"year": map[string]any{
					"type":        "string",
					"description": "Release year to narrow a title lookup",
				},
				"media_type": map[string]any{
					"type":        "string",
					"enum":        []string{"movie", "series"},
					"description": "Narrows a title lookup to movies or series",
				},
			},
		},
		Handler: r.handleVerifyIMDb,
	})

	r.Register(&Tool{
		Name:        "get_ratings",
		Description: "Get aggregate critic and audience scores for a movie or TV show by TMDB ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "The TMDB ID",
				},
				"media_type": map[string]any{
					"type":        "string",
					"enum":        []string{"movie", "tv"},
					"description": "Whether the ID refers to a movie or a TV series",
				},
			},
			"required": []string{"id", "media_type"},
		},
		Handler: r.handleGetRatings,
	})
}

func (r *Registry) handleSearchMedia(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "Usage error: query is required.", nil
	}

	title, year := extractYear(query)

	resp, err := r.catalog.Search(ctx, title, 1)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No results found for %q.", title), nil
	}

	results := reorderByYear(resp.Results, year)
	header := fmt.Sprintf("Found %d result(s) for %q:\n\n", min(len(results), listLimit), title)
	return header + formatMediaList(results, posterTop), nil
}

func (r *Registry) handleGetMediaDetails(ctx context.Context, args map[string]any) (string, error) {
	id := intArg(args, "id")
	mediaType := mediaTypeArg(args, "media_type")
	if id == 0 || mediaType == "" {
		return "Usage error: id and media_type (movie or tv) are required.", nil
	}

	if mediaType == seerr.MediaTypeMovie {
		return r.movieDetails(ctx, id)
	}
	return r.tvDetails(ctx, id)
}

func (r *Registry) movieDetails(ctx context.Context, id int) (string, error) {
	details, err := r.catalog.MovieDetails(ctx, id)
	if err != nil {
		if seerr.IsStatus(err, http.StatusNotFound) {
			return fmt.Sprintf("No movie found with ID %d.", id), nil
		}
		return "", fmt.Errorf("detail lookup failed: %w", err)
	}

	var b strings.Builder
	year := ""
	if len(details.ReleaseDate) >= 4 {
		year = details.ReleaseDate[:4]
	}
	fmt.Fprintf(&b, "**%s** (%s) [Movie]\n", details.Title, formatYear(year))
	fmt.Fprintf(&b, "Rating: %s\n", formatRating(details.VoteAverage))
	if details.Runtime > 0 {
		fmt.Fprintf(&b, "Runtime: %d min\n", details.Runtime)
	}
	if len(details.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", joinGenres(details.Genres))
	}
	fmt.Fprintf(&b, "Status: %s\n", availabilityText(details.MediaInfo))
	fmt.Fprintf(&b, "%s\n", mediaLink(seerr.MediaTypeMovie, details.ID))
	fmt.Fprintf(&b, "%s\n", truncateOverview(details.Overview))
	if details.PosterPath != "" {
		fmt.Fprintf(&b, "%s\n", posterDirective(details.PosterPath))
	}
	return b.String(), nil
}

func (r *Registry) tvDetails(ctx context.Context, id int) (string, error) {
	details, err := r.catalog.TVDetails(ctx, id)
	if err != nil {
		if seerr.IsStatus(err, http.StatusNotFound) {
			return fmt.Sprintf("No series found with ID %d.", id), nil
		}
		return "", fmt.Errorf("detail lookup failed: %w", err)
	}

	var b strings.Builder
	year := ""
	if len(details.FirstAirDate) >= 4 {
		year = details.FirstAirDate[:4]
	}
	fmt.Fprintf(&b, "**%s** (%s) [Series]\n", details.Name, formatYear(year))
	fmt.Fprintf(&b, "Rating: %s\n", formatRating(details.VoteAverage))
	if len(details.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", joinGenres(details.Genres))
	}
	fmt.Fprintf(&b, "Status: %s\n", availabilityText(details.MediaInfo))
	fmt.Fprintf(&b, "%s\n", mediaLink(seerr.MediaTypeTV, details.ID))
	fmt.Fprintf(&b, "%s\n", truncateOverview(details.Overview))

	seasons := FormatSeasons(details.Seasons)
	if seasons != "" {
		fmt.Fprintf(&b, "\nSeasons:\n%s", seasons)
	}
	if details.PosterPath != "" {
		fmt.Fprintf(&b, "%s\n", posterDirective(details.PosterPath))
	}
	return b.String(), nil
}

// FormatSeasons renders a season list, one per line. Season 0 holds
// specials and is always excluded.
func FormatSeasons(seasons []seerr.Season) string {
	var b strings.Builder
	for _, s := range seasons {
		if s.SeasonNumber == 0 {
			continue
		}
		fmt.Fprintf(&b, "- Season %d: %d episodes", s.SeasonNumber, s.EpisodeCount)
		if s.AirDate != "" {
			fmt.Fprintf(&b, " (aired %s)", s.AirDate)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinGenres(genres []seerr.Genre) string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}

func availabilityText(info *seerr.MediaInfo) string {
	if info == nil {
		return "Not requested"
	}
	return seerr.MediaStatusText(info.Status)
}

func (r *Registry) handleVerifyIMDb(ctx context.Context, args map[string]any) (string, error) {
	if r.xref == nil {
		return "IMDb verification is not configured.", nil
	}

	imdbID := stringArg(args, "imdb_id")
	title := stringArg(args, "title")
	if imdbID == "" && title == "" {
		return "Usage error: provide imdb_id or title.", nil
	}

	var (
		record *omdb.Record
		err    error
	)
	if imdbID != "" {
		record, err = r.xref.ByID(ctx, imdbID)
	} else {
		record, err = r.xref.ByTitle(ctx, title, stringArg(args, "year"), stringArg(args, "media_type"))
	}
	if err != nil {
		return fmt.Sprintf("IMDb lookup failed: %v", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s)\n", record.Title, record.Year)
	if record.ImdbRating != "" && record.ImdbRating != "N/A" {
		fmt.Fprintf(&b, "IMDb rating: %s (%s votes)\n", record.ImdbRating, record.ImdbVotes)
	}
	if record.Genre != "" && record.Genre != "N/A" {
		fmt.Fprintf(&b, "Genre: %s\n", record.Genre)
	}
	if record.Director != "" && record.Director != "N/A" {
		fmt.Fprintf(&b, "Director: %s\n", record.Director)
	}
	if record.Actors != "" && record.Actors != "N/A" {
		fmt.Fprintf(&b, "Cast: %s\n", record.Actors)
	}
	if record.Plot != "" && record.Plot != "N/A" {
		fmt.Fprintf(&b, "%s\n", record.Plot)
	}
	if record.ImdbID != "" {
		fmt.Fprintf(&b, "https://www.imdb.com/title/%s/\n", record.ImdbID)
	}
	return b.String(), nil
}

func (r *Registry) handleGetRatings(ctx context.Context, args map[string]any) (string, error) {
	id := intArg(args, "id")
	mediaType := mediaTypeArg(args, "media_type")
	if id == 0 || mediaType == "" {
		return "Usage error: id and media_type (movie or tv) are required.", nil
	}

	ratings, err := r.catalog.GetRatings(ctx, mediaType, id)
	if err != nil {
		if seerr.IsStatus(err, http.StatusNotFound) {
			return fmt.Sprintf("No ratings available for ID %d.", id), nil
		}
		return "", fmt.Errorf("ratings lookup failed: %w", err)
	}

	var b strings.Builder
	if ratings.Title != "" {
		fmt.Fprintf(&b, "Ratings for **%s**", ratings.Title)
		if ratings.Year > 0 {
			fmt.Fprintf(&b, " (%d)", ratings.Year)
		}
		b.WriteString(":\n")
	}
	// Absent scores are omitted, never rendered as zero.
	if ratings.CriticsScore != nil {
		fmt.Fprintf(&b, "Critics: %d%%", *ratings.CriticsScore)
		if ratings.CriticsRating != "" {
			fmt.Fprintf(&b, " (%s)", ratings.CriticsRating)
		}
		b.WriteString("\n")
	}
	if ratings.AudienceScore != nil {
		fmt.Fprintf(&b, "Audience: %d%%", *ratings.AudienceScore)
		if ratings.AudienceRating != "" {
			fmt.Fprintf(&b, " (%s)", ratings.AudienceRating)
		}
		b.WriteString("\n")
	}
	if ratings.CriticsScore == nil && ratings.AudienceScore == nil {
		b.WriteString("No scores available for this title.\n")
	}
	if ratings.URL != "" {
		fmt.Fprintf(&b, "%s\n", ratings.URL)
	}
	return b.String(), nil
}
