// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/service"
	"github.com/joeblew999/plat-zones/internal/zones"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Maps   *service.MapService
	Tiles  *service.TileService
	Source *service.SourceService
}

// Types

type MapInput struct {
	Map string `path:"map" doc:"Map identifier" example:"qpv"`
}

type DatasetInput struct {
	MapInput
	Dataset string `path:"dataset" doc:"Dataset identifier" example:"qpv"`
}

type ResolveInput struct {
	MapInput
	Body layers.State
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterMaps registers map profile and layer resolution routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.GetMaps, huma.OperationTags("maps"))
	huma.Get(api, "/api/v1/maps/{map}", h.GetMap, huma.OperationTags("maps"))
	huma.Post(api, "/api/v1/maps/{map}/layers", h.ResolveLayers, huma.OperationTags("maps"))
	huma.Get(api, "/api/v1/maps/{map}/datasets/{dataset}", h.GetDataset, huma.OperationTags("maps"))
}

// RegisterSources registers source listing routes.
func (h *APIHandler) RegisterSources(api huma.API) {
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("sources"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) GetMaps(ctx context.Context, input *struct{}) (*struct{ Body []service.MapSummary }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return &struct{ Body []service.MapSummary }{Body: []service.MapSummary{}}, nil
	}
	return &struct{ Body []service.MapSummary }{Body: h.svc.Maps.List()}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *MapInput) (*struct{ Body service.MapDetail }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	detail, err := h.svc.Maps.Get(input.Map)
	if err != nil {
		return nil, toHTTP(err)
	}
	return &struct{ Body service.MapDetail }{Body: detail}, nil
}

func (h *APIHandler) ResolveLayers(ctx context.Context, input *ResolveInput) (*struct{ Body []layers.Layer }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	resolved, err := h.svc.Maps.Resolve(input.Map, input.Body)
	if err != nil {
		return nil, toHTTP(err)
	}
	return &struct{ Body []layers.Layer }{Body: resolved}, nil
}

func (h *APIHandler) GetDataset(ctx context.Context, input *DatasetInput) (*struct{ Body zones.Group }, error) {
	if h.svc == nil || h.svc.Maps == nil {
		return nil, huma.Error404NotFound("service not available")
	}
	g, err := h.svc.Maps.Group(input.Map, input.Dataset)
	if err != nil {
		return nil, toHTTP(err)
	}
	return &struct{ Body zones.Group }{Body: g}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body []service.SourceFile }, error) {
	if h.svc == nil || h.svc.Source == nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	sources, err := h.svc.Source.List()
	if err != nil {
		return &struct{ Body []service.SourceFile }{Body: []service.SourceFile{}}, nil
	}
	return &struct{ Body []service.SourceFile }{Body: sources}, nil
}

// toHTTP maps service errors to Huma status errors.
func toHTTP(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownMap), errors.Is(err, service.ErrUnknownDataset):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, layers.ErrInvalidState):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
