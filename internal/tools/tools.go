// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/s0up4200/seerr-bot/internal/omdb"
	"github.com/s0up4200/seerr-bot/internal/seerr"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                          `json:"name"`
	Description string                                                          `json:"description"`
	Parameters  map[string]any                                                  `json:"parameters"`
	Handler     func(ctx context.Context, args map[string]any) (string, error) `json:"-"`
}

// Registry holds the available tools and the clients they wrap.
type Registry struct {
	tools   map[string]*Tool
	order   []string
	catalog *seerr.Client
	xref    *omdb.Client
	logger  *slog.Logger
}

// NewRegistry creates a tool registry wrapping the catalog and
// cross-reference clients. xref may be nil when OMDb is not configured;
// verify_imdb then reports itself unavailable.
func NewRegistry(catalog *seerr.Client, xref *omdb.Client, logger *slog.Logger) *Registry {
	r := &Registry{
		tools:   make(map[string]*Tool),
		catalog: catalog,
		xref:    xref,
		logger:  logger,
	}
	r.registerSearchTools()
	r.registerRequestTools()
	r.registerDiscoverTools()
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns all tool schemas for the LLM, in registration order.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, name := range r.order {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name. Every failure mode is folded into the
// returned text so the model always receives something it can read and
// react to: unknown names, bad arguments, and transport errors never
// escape as errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) string {
	tool := r.tools[name]
	if tool == nil {
		r.logger.Warn("unknown tool requested", "tool", name)
		return fmt.Sprintf("Unknown tool: %s", name)
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

// Argument extraction helpers. The model sends JSON, so numbers arrive
// as float64 and arrays as []any.

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func floatArg(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func intSliceArg(args map[string]any, key string) []int {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// mediaTypeArg normalizes the media_type argument. "series" and "show"
// are accepted as aliases for tv.
func mediaTypeArg(args map[string]any, key string) string {
	switch stringArg(args, key) {
	case "movie":
		return seerr.MediaTypeMovie
	case "tv", "series", "show":
		return seerr.MediaTypeTV
	}
	return ""
}
