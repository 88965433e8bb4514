package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	dataDir string
	maps    int
	dbOK    bool
}

func NewInfoHandler(dataDir string, maps int, dbOK bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, maps: maps, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	Maps     int      `json:"maps" doc:"Number of configured maps"`
	DB       bool     `json:"db" doc:"Whether the search index is available"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"geojson", "wms", "mvt", "datastar"}
	if h.dbOK {
		features = append(features, "search")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-zones",
		Version:  "0.1.0",
		DataDir:  h.dataDir,
		Maps:     h.maps,
		DB:       h.dbOK,
		Features: features,
	}}, nil
}
