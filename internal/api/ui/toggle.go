// Package ui contains the map page and its Datastar SSE handlers.
package ui

import (
	"context"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-zones/internal/humastar"
	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/service"
	"github.com/joeblew999/plat-zones/internal/templates"
)

// ToggleOperation is the operation id of the control-change endpoint.
const ToggleOperation = "toggle-layers"

// Signal names of the page controls.
const (
	BasemapSignal = "basemap"
	ErrorSignal   = "error"
)

// OverlaySignal is the checkbox signal of a WMS overlay.
func OverlaySignal(id string) string { return "overlay_" + id }

// DatasetSignal is the checkbox signal of a zone dataset.
func DatasetSignal(id string) string { return "dataset_" + id }

// Handler serves the map pages and reacts to their controls.
type Handler struct {
	humastar.Handler
	maps *service.MapService
	api  huma.API

	// Reload re-parses the templates on every page request.
	Reload bool
}

func NewHandler(maps *service.MapService, renderer *templates.Renderer) *Handler {
	return &Handler{Handler: humastar.Handler{Renderer: renderer}, maps: maps}
}

// RegisterRoutes registers the SSE routes with Huma.
func (h *Handler) RegisterRoutes(api huma.API) {
	h.api = api
	huma.Register(api, huma.Operation{
		OperationID: ToggleOperation,
		Method:      http.MethodPost,
		Path:        "/api/v1/ui/maps/{map}/toggle",
		Summary:     "Apply the page controls",
		Description: "Reads the Datastar control signals, resolves the layers to draw and streams them as a layers-resolved event plus the #active-layers fragment.",
		Tags:        []string{"ui"},
	}, h.Toggle)
}

type ToggleInput struct {
	Map     string `path:"map" doc:"Map identifier" example:"qpv"`
	RawBody []byte
}

func (h *Handler) Toggle(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	c, err := h.maps.Catalog(input.Map)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	signals, err := (&humastar.SignalsInput{RawBody: input.RawBody}).MustParse()
	if err != nil {
		return nil, err
	}
	st := StateFromSignals(c, signals)

	return h.Stream(func(sse humastar.SSE) {
		if err := c.Validate(st); err != nil {
			sse.Error(err.Error())
			return
		}
		resolved := c.Resolve(st)
		sse.Signals(map[string]any{ErrorSignal: ""})
		sse.Event("layers-resolved", resolved)
		sse.Patch(h.Fragment("active-layers", resolved), "#active-layers")
	}), nil
}

// StateFromSignals reads the control state of a map from its page signals.
// Overlays and datasets come out in profile order.
func StateFromSignals(c *layers.Catalog, s humastar.Signals) layers.State {
	m := c.Config()
	st := layers.State{Basemap: s.String(BasemapSignal)}
	for _, o := range m.Overlays {
		if s.Bool(OverlaySignal(o.ID)) {
			st.Overlays = append(st.Overlays, o.ID)
		}
	}
	for _, ds := range m.Datasets {
		if s.Bool(DatasetSignal(ds.ID)) {
			st.Datasets = append(st.Datasets, ds.ID)
		}
	}
	return st
}

// SignalsFromState is the inverse of StateFromSignals: one signal per
// control of the map, set from st.
func SignalsFromState(c *layers.Catalog, st layers.State) map[string]any {
	m := c.Config()
	signals := map[string]any{
		BasemapSignal: st.Basemap,
		ErrorSignal:   "",
	}
	for _, o := range m.Overlays {
		signals[OverlaySignal(o.ID)] = slices.Contains(st.Overlays, o.ID)
	}
	for _, ds := range m.Datasets {
		signals[DatasetSignal(ds.ID)] = slices.Contains(st.Datasets, ds.ID)
	}
	return signals
}
