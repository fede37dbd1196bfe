package tools

import "strings"

// TMDB genre identifiers. Movie and series tables differ: series fold
// several movie genres into combined entries (10759, 10765, 10768), so
// the same name can resolve to different IDs per kind.

var movieGenres = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"sci-fi":          878,
	"scifi":           878,
	"tv movie":        10770,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

var tvGenres = map[string]int{
	"action":             10759,
	"adventure":          10759,
	"action & adventure": 10759,
	"animation":          16,
	"comedy":             35,
	"crime":              80,
	"documentary":        99,
	"drama":              18,
	"family":             10751,
	"kids":               10762,
	"mystery":            9648,
	"news":               10763,
	"reality":            10764,
	"science fiction":    10765,
	"sci-fi":             10765,
	"scifi":              10765,
	"fantasy":            10765,
	"sci-fi & fantasy":   10765,
	"soap":               10766,
	"talk":               10767,
	"war":                10768,
	"politics":           10768,
	"war & politics":     10768,
	"western":            37,
}

// genreID resolves a genre name to its TMDB identifier for the given
// media kind. Unknown names resolve to 0, meaning no filter.
func genreID(mediaType, name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0
	}
	if mediaType == "tv" {
		return tvGenres[name]
	}
	return movieGenres[name]
}
