package tools

import (
	"context"
	"fmt"

	"github.com/s0up4200/seerr-bot/internal/seerr"
)

// Sort keys the model may pass, mapped to the catalog's sortBy values.
var sortKeys = map[string]string{
	"popularity": "popularity.desc",
	"rating":     "vote_average.desc",
	"date":       "release_date.desc",
	"title":      "original_title.asc",
}

func (r *Registry) registerDiscoverTools() {
	r.Register(&Tool{
		Name:        "discover_trending",
		Description: "List media that is currently trending, across movies and TV shows.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleDiscoverTrending,
	})

	r.Register(&Tool{
		Name:        "discover_upcoming",
		Description: "List upcoming movie releases or TV premieres.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"media_type": map[string]any{
					"type":        "string",
					"enum":        []string{"movie", "tv"},
					"description": "Which kind of upcoming releases to list (default movie)",
				},
			},
		},
		Handler: r.handleDiscoverUpcoming,
	})

	r.Register(&Tool{
		Name:        "discover_movies",
		Description: "Browse movies by optional filters: release year, genre name, minimum rating, sort order.",
		Parameters:  discoverParams(),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return r.discoverByFilters(ctx, seerr.MediaTypeMovie, args)
		},
	})

	r.Register(&Tool{
		Name:        "discover_tv",
		Description: "Browse TV shows by optional filters: first-air year, genre name, minimum rating, sort order.",
		Parameters:  discoverParams(),
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return r.discoverByFilters(ctx, seerr.MediaTypeTV, args)
		},
	})

	r.Register(&Tool{
		Name:        "get_similar",
		Description: "List media similar to a given movie or TV show by TMDB ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{
					"type":        "integer",
					"description": "The TMDB ID to find similar titles for",
				},
				"media_type": map[string]any{
					"type":        "string",
					"enum":        []string{"movie", "tv"},
					"description": "Whether the ID refers to a movie or a TV series",
				},
			},
			"required": []string{"id", "media_type"},
		},
		Handler: r.handleGetSimilar,
	})
}

func discoverParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"year": map[string]any{
				"type":        "integer",
				"description": "Restrict to titles released in this year",
			},
			"genre": map[string]any{
				"type":        "string",
				"description": "Genre name, e.g. comedy, horror, sci-fi",
			},
			"min_rating": map[string]any{
				"type":        "number",
				"description": "Only include titles rated at least this (0-10)",
			},
			"sort": map[string]any{
				"type":        "string",
				"enum":        []string{"popularity", "rating", "date", "title"},
				"description": "Sort order (default popularity)",
			},
		},
	}
}

func (r *Registry) handleDiscoverTrending(ctx context.Context, args map[string]any) (string, error) {
	resp, err := r.catalog.DiscoverTrending(ctx)
	if err != nil {
		return "", fmt.Errorf("trending lookup failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return "Nothing trending right now.", nil
	}
	return "Trending now:\n\n" + formatMediaList(resp.Results, posterAll), nil
}

func (r *Registry) handleDiscoverUpcoming(ctx context.Context, args map[string]any) (string, error) {
	mediaType := mediaTypeArg(args, "media_type")
	if mediaType == "" {
		mediaType = seerr.MediaTypeMovie
	}

	resp, err := r.catalog.DiscoverUpcoming(ctx, mediaType)
	if err != nil {
		return "", fmt.Errorf("upcoming lookup failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No upcoming releases found.", nil
	}

	label := "movie releases"
	if mediaType == seerr.MediaTypeTV {
		label = "TV premieres"
	}
	return fmt.Sprintf("Upcoming %s:\n\n%s", label, formatMediaList(resp.Results, posterAll)), nil
}

func (r *Registry) discoverByFilters(ctx context.Context, mediaType string, args map[string]any) (string, error) {
	filters := seerr.DiscoverFilters{
		Year:    intArg(args, "year"),
		GenreID: genreID(mediaType, stringArg(args, "genre")),
		SortBy:  sortKeys[stringArg(args, "sort")],
	}

	var (
		resp *seerr.SearchResponse
		err  error
	)
	if mediaType == seerr.MediaTypeTV {
		resp, err = r.catalog.DiscoverTV(ctx, filters)
	} else {
		resp, err = r.catalog.DiscoverMovies(ctx, filters)
	}
	if err != nil {
		return "", fmt.Errorf("discover failed: %w", err)
	}

	// The catalog has no minimum-rating parameter, so it is applied
	// here after the fetch.
	results := resp.Results
	if minRating := floatArg(args, "min_rating"); minRating > 0 {
		filtered := results[:0:0]
		for _, item := range results {
			if item.VoteAverage >= minRating {
				filtered = append(filtered, item)
			}
		}
		results = filtered
	}

	if len(results) == 0 {
		return "No titles matched those filters.", nil
	}
	return formatMediaList(results, posterAll), nil
}

func (r *Registry) handleGetSimilar(ctx context.Context, args map[string]any) (string, error) {
	id := intArg(args, "id")
	mediaType := mediaTypeArg(args, "media_type")
	if id == 0 || mediaType == "" {
		return "Usage error: id and media_type (movie or tv) are required.", nil
	}

	resp, err := r.catalog.Similar(ctx, mediaType, id)
	if err != nil {
		return "", fmt.Errorf("similar lookup failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No similar titles found.", nil
	}
	return "Similar titles:\n\n" + formatMediaList(resp.Results, posterAll), nil
}
