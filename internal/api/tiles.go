package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-zones/internal/service"
	"github.com/joeblew999/plat-zones/internal/vtile"
)

// MVTContentType is the media type of Mapbox Vector Tiles.
const MVTContentType = "application/vnd.mapbox-vector-tile"

// TileHandler serves dataset vector tiles.
type TileHandler struct {
	tiles *service.TileService
}

func NewTileHandler(tiles *service.TileService) *TileHandler {
	return &TileHandler{tiles: tiles}
}

// RegisterRoutes registers tile routes with Huma.
func (h *TileHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-tile",
		Method:      http.MethodGet,
		Path:        "/tiles/{map}/{dataset}/{z}/{x}/{y}",
		Summary:     "Get a dataset vector tile",
		Tags:        []string{"tiles"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Gzipped Mapbox Vector Tile",
				Content:     map[string]*huma.MediaType{MVTContentType: {}},
			},
			"204": {Description: "No feature in this tile"},
		},
	}, h.GetTile)
}

type TileInput struct {
	DatasetInput
	Z uint32 `path:"z" maximum:"18" doc:"Zoom level"`
	X uint32 `path:"x" doc:"Tile column"`
	Y uint32 `path:"y" doc:"Tile row (XYZ scheme)"`
}

type TileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	CacheControl    string `header:"Cache-Control"`
	Body            []byte
}

func (h *TileHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	if h.tiles == nil {
		return nil, huma.Error503ServiceUnavailable("tiles not available")
	}
	data, err := h.tiles.Tile(input.Map, input.Dataset, input.Z, input.X, input.Y)
	switch {
	case errors.Is(err, service.ErrUnknownMap), errors.Is(err, vtile.ErrUnknownDataset):
		return nil, huma.Error404NotFound(err.Error())
	case errors.Is(err, vtile.ErrInvalidTile):
		return nil, huma.Error400BadRequest(err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("tile rendering failed", err)
	}

	if data == nil {
		return &TileOutput{Status: http.StatusNoContent}, nil
	}
	return &TileOutput{
		Status:          http.StatusOK,
		ContentType:     MVTContentType,
		ContentEncoding: "gzip",
		CacheControl:    "public, max-age=3600",
		Body:            data,
	}, nil
}
