package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/s0up4200/seerr-bot/internal/seerr"
)

func (r *Registry) registerRequestTools() {
	r.Register(&Tool{
		Name:        "request_media",
		Description: "Submit a request for a movie or TV show by TMDB ID. Series requests must name the seasons to request; ask the user which seasons they want if unclear, or check get_media_details for what exists.",
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
				"seasons": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"description": "Season numbers to request. Required for series, ignored for movies.",
				},
			},
			"required": []string{"id", "media_type"},
		},
		Handler: r.handleRequestMedia,
	})

	r.Register(&Tool{
		Name:        "list_requests",
		Description: "List media requests on the server, optionally filtered by status.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{
					"type":        "string",
					"enum":        []string{"all", "pending", "approved", "processing", "failed", "available"},
					"description": "Status filter (default pending)",
				},
			},
		},
		Handler: r.handleListRequests,
	})

	r.Register(&Tool{
		Name:        "approve_request",
		Description: "Approve a pending media request by request ID (not TMDB ID). Use list_requests to find request IDs.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request_id": map[string]any{
					"type":        "integer",
					"description": "The request ID to approve",
				},
			},
			"required": []string{"request_id"},
		},
		Handler: r.handleApproveRequest,
	})

	r.Register(&Tool{
		Name:        "decline_request",
		Description: "Decline a pending media request by request ID (not TMDB ID). Use list_requests to find request IDs.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"request_id": map[string]any{
					"type":        "integer",
					"description": "The request ID to decline",
				},
			},
			"required": []string{"request_id"},
		},
		Handler: r.handleDeclineRequest,
	})
}

func (r *Registry) handleRequestMedia(ctx context.Context, args map[string]any) (string, error) {
	id := intArg(args, "id")
	mediaType := mediaTypeArg(args, "media_type")
	if id == 0 || mediaType == "" {
		return "Usage error: id and media_type (movie or tv) are required.", nil
	}

	var seasons []int
	if mediaType == seerr.MediaTypeTV {
		seasons = intSliceArg(args, "seasons")
		if len(seasons) == 0 {
			return "Usage error: a series request needs at least one season number. Use get_media_details to see which seasons exist, then pass the season numbers to request.", nil
		}
	}

	record, err := r.catalog.SubmitRequest(ctx, mediaType, id, seasons)
	if err != nil {
		return requestErrorText(err), nil
	}

	if mediaType == seerr.MediaTypeMovie {
		return fmt.Sprintf("Movie request submitted successfully! Request ID: %d (status: %s)",
			record.ID, seerr.RequestStatusText(record.Status)), nil
	}
	return fmt.Sprintf("Series request submitted successfully! Request ID: %d, seasons %s (status: %s)",
		record.ID, joinInts(seasons), seerr.RequestStatusText(record.Status)), nil
}

// requestErrorText maps a request-mutation failure onto user-facing
// phrasing by status code. Unrecognized failures keep their detail so
// the model can relay something concrete.
func requestErrorText(err error) string {
	switch {
	case seerr.IsStatus(err, http.StatusForbidden):
		return "The server rejected this action: the configured API key does not have permission for it."
	case seerr.IsStatus(err, http.StatusNotFound):
		return "The server could not find that item. Double-check the ID."
	case seerr.IsStatus(err, http.StatusConflict), strings.Contains(err.Error(), "already"):
		return "This title has already been requested."
	default:
		return fmt.Sprintf("The request failed: %v", err)
	}
}

func (r *Registry) handleListRequests(ctx context.Context, args map[string]any) (string, error) {
	filter := stringArg(args, "status")
	if filter == "" {
		filter = "pending"
	}

	resp, err := r.catalog.ListRequests(ctx, filter, listLimit)
	if err != nil {
		return "", fmt.Errorf("listing requests failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return fmt.Sprintf("No %s requests found.", filter), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d request(s):\n", len(resp.Results))
	for i, req := range resp.Results {
		title := r.resolveRequestTitle(ctx, req)
		fmt.Fprintf(&b, "%d. %s — %s (request ID %d", i+1, title, seerr.RequestStatusText(req.Status), req.ID)
		if name := req.RequestedBy.DisplayName; name != "" {
			fmt.Fprintf(&b, ", requested by %s", name)
		}
		b.WriteString(")\n")
	}
	return b.String(), nil
}

// resolveRequestTitle looks up the display title for a request's media
// item. Best-effort: a failed lookup for one item must not fail the
// whole listing.
func (r *Registry) resolveRequestTitle(ctx context.Context, req seerr.RequestRecord) string {
	fallback := fmt.Sprintf("Unknown (id %d)", req.Media.TmdbID)

	switch req.Media.MediaType {
	case seerr.MediaTypeMovie:
		details, err := r.catalog.MovieDetails(ctx, req.Media.TmdbID)
		if err != nil {
			r.logger.Debug("title lookup failed", "tmdb_id", req.Media.TmdbID, "error", err)
			return fallback
		}
		return details.Title
	case seerr.MediaTypeTV:
		details, err := r.catalog.TVDetails(ctx, req.Media.TmdbID)
		if err != nil {
			r.logger.Debug("title lookup failed", "tmdb_id", req.Media.TmdbID, "error", err)
			return fallback
		}
		return details.Name
	}
	return fallback
}

func (r *Registry) handleApproveRequest(ctx context.Context, args map[string]any) (string, error) {
	requestID := intArg(args, "request_id")
	if requestID == 0 {
		return "Usage error: request_id is required.", nil
	}

	record, err := r.catalog.ApproveRequest(ctx, requestID)
	if err != nil {
		return requestErrorText(err), nil
	}
	return fmt.Sprintf("Request %d approved (status: %s).", record.ID, seerr.RequestStatusText(record.Status)), nil
}

func (r *Registry) handleDeclineRequest(ctx context.Context, args map[string]any) (string, error) {
	requestID := intArg(args, "request_id")
	if requestID == 0 {
		return "Usage error: request_id is required.", nil
	}

	record, err := r.catalog.DeclineRequest(ctx, requestID)
	if err != nil {
		return requestErrorText(err), nil
	}
	return fmt.Sprintf("Request %d declined (status: %s).", record.ID, seerr.RequestStatusText(record.Status)), nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
