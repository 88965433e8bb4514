package api

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-zones/internal/db"
	"github.com/joeblew999/plat-zones/internal/service"
)

// SearchHandler serves attribute search over the DuckDB feature index.
type SearchHandler struct {
	db   *sql.DB
	maps *service.MapService
}

// NewSearchHandler creates a search handler. A nil db disables search.
func NewSearchHandler(conn *sql.DB, maps *service.MapService) *SearchHandler {
	return &SearchHandler{db: conn, maps: maps}
}

// RegisterRoutes registers search routes with Huma.
func (h *SearchHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/maps/{map}/search", h.Search, huma.OperationTags("search"))
}

// SearchInput is the input for a feature search.
type SearchInput struct {
	MapInput
	Q     string `query:"q" required:"true" minLength:"1" doc:"Text matched against labels and properties, case-insensitive" example:"Rouen"`
	Limit int    `query:"limit" default:"20" minimum:"1" maximum:"200" doc:"Maximum number of hits"`
}

// SearchOutput is the response of a feature search.
type SearchOutput struct {
	Body struct {
		Query string   `json:"query" doc:"Search text"`
		Hits  []db.Hit `json:"hits" doc:"Matching items in layer order"`
		Count int      `json:"count" doc:"Number of hits returned"`
	}
}

// Search finds the items of a map whose label or properties contain q.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	if _, err := h.maps.Catalog(input.Map); err != nil {
		return nil, toHTTP(err)
	}

	hits, err := db.Search(ctx, h.db, input.Map, input.Q, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Search failed", err)
	}

	out := &SearchOutput{}
	out.Body.Query = input.Q
	out.Body.Hits = hits
	out.Body.Count = len(hits)
	return out, nil
}
