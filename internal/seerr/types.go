package seerr

// Media kinds as the Seerr API spells them.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Media availability status codes (mediaInfo.status).
const (
	MediaStatusUnknown = iota + 1
	MediaStatusPending
	MediaStatusProcessing
	MediaStatusPartiallyAvailable
	MediaStatusAvailable
)

// Request status codes (request.status).
const (
	RequestStatusPending = iota + 1
	RequestStatusApproved
	RequestStatusDeclined
	RequestStatusFailed
	RequestStatusCompleted
)

// MediaStatusText renders a media availability code as human text.
func MediaStatusText(status int) string {
	switch status {
	case MediaStatusUnknown:
		return "Not requested"
	case MediaStatusPending:
		return "Pending approval"
	case MediaStatusProcessing:
		return "Processing"
	case MediaStatusPartiallyAvailable:
		return "Partially available"
	case MediaStatusAvailable:
		return "Available"
	default:
		return "Unknown"
	}
}

// RequestStatusText renders a request status code as human text.
func RequestStatusText(status int) string {
	switch status {
	case RequestStatusPending:
		return "Pending"
	case RequestStatusApproved:
		return "Approved"
	case RequestStatusDeclined:
		return "Declined"
	case RequestStatusFailed:
		return "Failed"
	case RequestStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// MediaInfo is the availability/request state Seerr attaches to a media
// item it knows about. Absent when the item has never been requested.
type MediaInfo struct {
	ID     int `json:"id"`
	TmdbID int `json:"tmdbId"`
	Status int `json:"status"`
}

// MediaResult is one search/discover result. Movies carry title and
// releaseDate; series carry name and firstAirDate.
type MediaResult struct {
	ID           int        `json:"id"`
	MediaType    string     `json:"mediaType"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	ReleaseDate  string     `json:"releaseDate,omitempty"`
	FirstAirDate string     `json:"firstAirDate,omitempty"`
	Overview     string     `json:"overview,omitempty"`
	PosterPath   string     `json:"posterPath,omitempty"`
	VoteAverage  float64    `json:"voteAverage,omitempty"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
}

// DisplayTitle returns the title regardless of media kind.
func (m MediaResult) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// ReleaseYear returns the four-digit release year, or "" when the
// release date is absent or malformed.
func (m MediaResult) ReleaseYear() string {
	date := m.ReleaseDate
	if date == "" {
		date = m.FirstAirDate
	}
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// SearchResponse is the paged result envelope for search and discover.
type SearchResponse struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"totalPages"`
	TotalResults int           `json:"totalResults"`
	Results      []MediaResult `json:"results"`
}

// Genre is a TMDB genre reference on a detail record.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Season is one season on a series detail record. Season 0 holds
// specials and is excluded from user-facing listings.
type Season struct {
	SeasonNumber int    `json:"seasonNumber"`
	EpisodeCount int    `json:"episodeCount"`
	AirDate      string `json:"airDate,omitempty"`
}

// MovieDetails is the full movie detail record.
type MovieDetails struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	ReleaseDate string     `json:"releaseDate,omitempty"`
	Overview    string     `json:"overview,omitempty"`
	PosterPath  string     `json:"posterPath,omitempty"`
	VoteAverage float64    `json:"voteAverage,omitempty"`
	Runtime     int        `json:"runtime,omitempty"`
	Genres      []Genre    `json:"genres,omitempty"`
	ImdbID      string     `json:"imdbId,omitempty"`
	MediaInfo   *MediaInfo `json:"mediaInfo,omitempty"`
}

// TVDetails is the full series detail record.
type TVDetails struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	FirstAirDate     string     `json:"firstAirDate,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	PosterPath       string     `json:"posterPath,omitempty"`
	VoteAverage      float64    `json:"voteAverage,omitempty"`
	Genres           []Genre    `json:"genres,omitempty"`
	NumberOfSeasons  int        `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes int        `json:"numberOfEpisodes,omitempty"`
	Seasons          []Season   `json:"seasons,omitempty"`
	MediaInfo        *MediaInfo `json:"mediaInfo,omitempty"`
}

// RequestMedia is the media reference embedded in a request record.
type RequestMedia struct {
	ID        int    `json:"id"`
	TmdbID    int    `json:"tmdbId"`
	MediaType string `json:"mediaType"`
	Status    int    `json:"status"`
}

// Requester identifies who submitted a request.
type Requester struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// RequestSeason is one season attached to a series request.
type RequestSeason struct {
	ID           int `json:"id"`
	SeasonNumber int `json:"seasonNumber"`
	Status       int `json:"status"`
}

// RequestRecord is one media request. Mutated only via submit, approve,
// and decline; never cached here.
type RequestRecord struct {
	ID          int             `json:"id"`
	Status      int             `json:"status"`
	Type        string          `json:"type,omitempty"`
	Media       RequestMedia    `json:"media"`
	RequestedBy Requester       `json:"requestedBy"`
	Seasons     []RequestSeason `json:"seasons,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
}

// RequestsResponse is the paged envelope for request listings.
type RequestsResponse struct {
	PageInfo struct {
		Pages   int `json:"pages"`
		Results int `json:"results"`
	} `json:"pageInfo"`
	Results []RequestRecord `json:"results"`
}

// Ratings carries aggregate critic and audience scores. Scores are
// pointers: an absent field means the upstream aggregator has no score,
// which callers must render by omission rather than as zero.
type Ratings struct {
	Title          string `json:"title,omitempty"`
	Year           int    `json:"year,omitempty"`
	CriticsScore   *int   `json:"criticsScore,omitempty"`
	CriticsRating  string `json:"criticsRating,omitempty"`
	AudienceScore  *int   `json:"audienceScore,omitempty"`
	AudienceRating string `json:"audienceRating,omitempty"`
	URL            string `json:"url,omitempty"`
}
