package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/db"
	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/service"
	"github.com/joeblew999/plat-zones/internal/zones"
)

const quartiers = `{"type":"FeatureCollection","features":[
	{"type":"Feature","properties":{"COMMUNE":"Rouen","NOM":"Pasteur"},
	 "geometry":{"type":"Polygon","coordinates":[[[0,45],[10,45],[10,50],[0,50],[0,45]]]}},
	{"type":"Feature","properties":{"COMMUNE":"Elbeuf","NOM":"Puchot"},
	 "geometry":{"type":"Polygon","coordinates":[[[1,49],[1.1,49],[1.1,49.1],[1,49]]]}}]}`

func testConfig() config.Config {
	ds := config.Dataset{
		ID: "qpv", Label: "QPV", Path: "qpv.geojson", Color: "yellow",
		Prefix: "[QPV] ", Opacity: 0.8, LabelKeys: [2]string{"COMMUNE", "NOM"},
	}
	return config.Config{Maps: []config.Map{{
		ID:             "demo",
		Title:          "Demo",
		Zoom:           8,
		BasemapOpacity: 0.8,
		Basemaps:       []config.Basemap{{ID: "positron", Label: "Positron", URL: "https://tiles/{z}/{x}/{y}.png"}},
		Overlays: []config.Overlay{{
			ID: "eaipsm", Label: "EAIP sm", URL: "https://wms", Layers: "EAIP_SM",
			Format: "image/png", Transparent: true, Opacity: 0.4,
		}},
		Datasets: []config.Dataset{ds},
		Defaults: config.Defaults{Basemap: "positron", Datasets: []string{"qpv"}},
	}}}
}

func testServices(t *testing.T) (*Services, *service.MapService) {
	t.Helper()
	cfg := testConfig()
	ds := cfg.Maps[0].Datasets[0]
	items, err := zones.Transform(ds, []byte(quartiers))
	require.NoError(t, err)

	maps, err := service.NewMapServiceFromGroups(cfg, map[string][]zones.Group{
		"demo": {zones.NewGroup(ds, items)},
	})
	require.NoError(t, err)
	return &Services{
		Maps:   maps,
		Tiles:  service.NewTileService(maps),
		Source: service.NewSourceService(maps),
	}, maps
}

func testAPI(t *testing.T) humatest.TestAPI {
	t.Helper()
	svc, maps := testServices(t)

	conn, err := db.Open(db.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	for _, c := range maps.Catalogs() {
		require.NoError(t, db.Index(context.Background(), conn, c.ID(), c.Groups()))
	}

	cfg := huma.DefaultConfig("test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, LinkTransformer())
	_, api := humatest.New(t, cfg)

	huma.AutoRegister(api, NewAPIHandler(svc))
	NewInfoHandler("data", len(maps.List()), true).RegisterRoutes(api)
	NewSearchHandler(conn, maps).RegisterRoutes(api)
	NewTileHandler(svc.Tiles).RegisterRoutes(api)
	return api
}

func TestHealth(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0"}`, resp.Body.String())
	assert.Contains(t, resp.Header().Values("Link"), `</api/v1/maps>; rel="maps"`)
}

func TestInfo(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/info")
	require.Equal(t, http.StatusOK, resp.Code)

	var body InfoBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "plat-zones", body.Name)
	assert.Equal(t, 1, body.Maps)
	assert.Contains(t, body.Features, "search")
}

func TestListMaps(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/maps")
	require.Equal(t, http.StatusOK, resp.Code)

	var maps []service.MapSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &maps))
	require.Len(t, maps, 1)
	assert.Equal(t, service.MapSummary{ID: "demo", Title: "Demo", Datasets: 1, Overlays: 1, Features: 2, Page: "/maps/demo"}, maps[0])
}

func TestGetMap(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/maps/demo")
	require.Equal(t, http.StatusOK, resp.Code)

	var detail service.MapDetail
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &detail))
	assert.Equal(t, "demo", detail.ID)
	assert.Equal(t, layers.State{Basemap: "positron", Datasets: []string{"qpv"}}, detail.Initial)
	assert.Equal(t, map[string]int{"qpv": 2}, detail.Counts)

	links := resp.Header().Values("Link")
	assert.Contains(t, links, `</maps/demo>; rel="alternate"; type="text/html"`)
	assert.Contains(t, links, `</api/v1/maps/demo>; rel="self"`)

	assert.Equal(t, http.StatusNotFound, api.Get("/api/v1/maps/nope").Code)
}

func TestResolveLayers(t *testing.T) {
	api := testAPI(t)

	resp := api.Post("/api/v1/maps/demo/layers", map[string]any{
		"basemap":  "positron",
		"overlays": []string{"eaipsm"},
		"datasets": []string{"qpv"},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var got []layers.Layer
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "basemap", got[0].ID)
	assert.Equal(t, layers.KindTile, got[0].Kind)
	assert.Equal(t, layers.KindWMS, got[1].Kind)
	assert.Equal(t, "EAIP_SM", got[1].WMS.Layers)
	assert.Equal(t, layers.KindGroup, got[2].Kind)
	require.Len(t, got[2].Items, 2)
	assert.Equal(t, "[QPV] Rouen : Pasteur", got[2].Items[0].Label)
}

func TestResolveLayersInvalid(t *testing.T) {
	api := testAPI(t)

	resp := api.Post("/api/v1/maps/demo/layers", map[string]any{"basemap": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/v1/maps/demo/layers", map[string]any{"basemap": "positron", "datasets": []string{"zai"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Post("/api/v1/maps/nope/layers", map[string]any{"basemap": "positron"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetDataset(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/maps/demo/datasets/qpv")
	require.Equal(t, http.StatusOK, resp.Code)

	var g zones.Group
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &g))
	assert.Equal(t, "qpv", g.ID)
	require.Len(t, g.Items, 2)
	assert.Equal(t, []string{"COMMUNE : Elbeuf", "NOM : Puchot"}, g.Items[1].Popup)

	assert.Equal(t, http.StatusNotFound, api.Get("/api/v1/maps/demo/datasets/zai").Code)
}

func TestSources(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/sources")
	require.Equal(t, http.StatusOK, resp.Code)

	var files []service.SourceFile
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "qpv.geojson", files[0].Name)
	assert.Equal(t, 2, files[0].Features)
}

func TestSearch(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/api/v1/maps/demo/search?q=elbeuf")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Query string   `json:"query"`
		Hits  []db.Hit `json:"hits"`
		Count int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "[QPV] Elbeuf : Puchot", body.Hits[0].Label)
	assert.Equal(t, 1, body.Hits[0].Index)

	assert.Equal(t, http.StatusNotFound, api.Get("/api/v1/maps/nope/search?q=x").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.Get("/api/v1/maps/demo/search").Code)
}

func TestSearchWithoutDatabase(t *testing.T) {
	_, maps := testServices(t)
	_, api := humatest.New(t)
	NewSearchHandler(nil, maps).RegisterRoutes(api)

	assert.Equal(t, http.StatusServiceUnavailable, api.Get("/api/v1/maps/demo/search?q=x").Code)
}

func TestTiles(t *testing.T) {
	api := testAPI(t)

	resp := api.Get("/tiles/demo/qpv/4/8/5")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, MVTContentType, resp.Header().Get("Content-Type"))
	assert.Equal(t, "gzip", resp.Header().Get("Content-Encoding"))
	assert.NotEmpty(t, resp.Body.Bytes())

	assert.Equal(t, http.StatusNoContent, api.Get("/tiles/demo/qpv/4/0/0").Code)
	assert.Equal(t, http.StatusNotFound, api.Get("/tiles/demo/zai/4/8/5").Code)
	assert.Equal(t, http.StatusNotFound, api.Get("/tiles/nope/qpv/4/8/5").Code)
	assert.Equal(t, http.StatusBadRequest, api.Get("/tiles/demo/qpv/1/5/0").Code)
}
