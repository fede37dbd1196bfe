package tools

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/s0up4200/seerr-bot/internal/seerr"
)

const (
	tmdbImageBase = "https://image.tmdb.org/t/p/w500"
	tmdbWebBase   = "https://www.themoviedb.org"

	// Overviews are hard-capped so a ten-item listing stays readable
	// in chat.
	overviewLimit = 200

	// Listings never exceed this many items regardless of what the
	// API returns.
	listLimit = 10
)

// posterMode controls which items in a listing carry a poster
// directive.
type posterMode int

const (
	posterNone posterMode = iota
	posterTop
	posterAll
)

// PosterURL builds the full image URL for a TMDB poster path.
func PosterURL(path string) string {
	return tmdbImageBase + path
}

// posterDirective renders the inline poster marker the chat adapter
// converts into an image attachment. It must never reach the user as
// literal text.
func posterDirective(path string) string {
	return fmt.Sprintf("[POSTER:%s]", PosterURL(path))
}

func mediaLink(mediaType string, id int) string {
	return fmt.Sprintf("%s/%s/%d", tmdbWebBase, mediaType, id)
}

func formatRating(vote float64) string {
	if vote <= 0 {
		return "Not rated"
	}
	return fmt.Sprintf("%.1f/10", vote)
}

func formatYear(year string) string {
	if year == "" {
		return "TBA"
	}
	return year
}

func truncateOverview(overview string) string {
	if overview == "" {
		return "No overview available."
	}
	if len(overview) <= overviewLimit {
		return overview
	}
	return cutAtRune(overview, overviewLimit) + "..."
}

// cutAtRune slices s to at most n bytes without splitting a multi-byte
// rune at the boundary.
func cutAtRune(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// formatMediaList renders results as numbered blocks per the listing
// contract: title, year, rating, link, truncated overview, and a
// poster directive per the mode.
func formatMediaList(results []seerr.MediaResult, mode posterMode) string {
	if len(results) > listLimit {
		results = results[:listLimit]
	}

	var b strings.Builder
	for i, item := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		kind := "Movie"
		if item.MediaType == seerr.MediaTypeTV {
			kind = "Series"
		}
		fmt.Fprintf(&b, "%d. **%s** (%s) [%s]\n", i+1, item.DisplayTitle(), formatYear(item.ReleaseYear()), kind)
		fmt.Fprintf(&b, "   Rating: %s\n", formatRating(item.VoteAverage))
		if item.MediaInfo != nil {
			fmt.Fprintf(&b, "   Status: %s\n", seerr.MediaStatusText(item.MediaInfo.Status))
		}
		fmt.Fprintf(&b, "   %s\n", mediaLink(item.MediaType, item.ID))
		fmt.Fprintf(&b, "   %s\n", truncateOverview(item.Overview))

		if item.PosterPath != "" && (mode == posterAll || (mode == posterTop && i == 0)) {
			fmt.Fprintf(&b, "   %s\n", posterDirective(item.PosterPath))
		}
	}
	return b.String()
}
