package zones

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-zones/internal/config"
)

func qpvDataset(path string) config.Dataset {
	return config.Dataset{
		ID:        "qpv",
		Label:     "QPV",
		Path:      path,
		Color:     "yellow",
		Prefix:    "[QPV] ",
		Opacity:   0.8,
		LabelKeys: [2]string{"COMMUNE_QP", "NOM_QP"},
	}
}

func TestLoadFixture(t *testing.T) {
	g, err := Load(qpvDataset("qpv.geojson"), "testdata")
	require.NoError(t, err)

	assert.Equal(t, "qpv", g.ID)
	assert.Equal(t, "QPV", g.Label)
	require.Len(t, g.Items, 3)

	labels := []string{g.Items[0].Label, g.Items[1].Label, g.Items[2].Label}
	assert.Equal(t, []string{
		"[QPV] Rouen : Pasteur",
		"[QPV] Le Havre : Caucriauville",
		"[QPV] Evreux : La Madeleine",
	}, labels)

	for _, it := range g.Items {
		assert.Equal(t, Style{Color: "yellow", FillOpacity: 0.8, Weight: 0.1, Stroke: true}, it.Style)
	}

	// bounds span every feature: south-west, north-east as [lat, lon]
	assert.Equal(t, [2]LatLng{{49.01, 0.16}, {49.53, 1.16}}, g.Bounds)
}

func TestTransformSwapsAxes(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"COMMUNE_QP":"Rouen","NOM_QP":"Pasteur"},
		 "geometry":{"type":"Polygon","coordinates":[[[1.5,49.25],[2.5,48.75]]]}}]}`)

	items, err := Transform(qpvDataset(""), data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []LatLng{{49.25, 1.5}, {48.75, 2.5}}, items[0].Positions)
	assert.Equal(t, "[QPV] Rouen : Pasteur", items[0].Label)
}

func TestTransformFlattensRings(t *testing.T) {
	g, err := Load(qpvDataset("qpv.geojson"), "testdata")
	require.NoError(t, err)

	// polygon with a hole: exterior (5 vertices) then hole (4 vertices)
	withHole := g.Items[1].Positions
	require.Len(t, withHole, 9)
	assert.Equal(t, LatLng{49.50, 0.16}, withHole[0])
	assert.Equal(t, LatLng{49.51, 0.17}, withHole[5])

	// multipolygon: both polygons concatenated in order
	multi := g.Items[2].Positions
	require.Len(t, multi, 8)
	assert.Equal(t, LatLng{49.01, 1.13}, multi[0])
	assert.Equal(t, LatLng{49.03, 1.15}, multi[4])
	assert.IsType(t, orb.MultiPolygon{}, g.Items[2].Geometry)
}

func TestTransformKeepsPropertyOrder(t *testing.T) {
	g, err := Load(qpvDataset("qpv.geojson"), "testdata")
	require.NoError(t, err)

	assert.Equal(t, []Property{
		{Key: "NOM_QP", Value: "Pasteur"},
		{Key: "CODE_QP", Value: "QP076021"},
		{Key: "COMMUNE_QP", Value: "Rouen"},
		{Key: "POP", Value: "4521"},
		{Key: "ACTIF", Value: "true"},
	}, g.Items[0].Properties)
	assert.Equal(t, []string{
		"NOM_QP : Pasteur",
		"CODE_QP : QP076021",
		"COMMUNE_QP : Rouen",
		"POP : 4521",
		"ACTIF : true",
	}, g.Items[0].Popup)

	assert.Equal(t, []string{
		"COMMUNE_QP : Le Havre",
		"NOM_QP : Caucriauville",
		"ZONE : ",
		`TAGS : ["a","b"]`,
	}, g.Items[1].Popup)
}

func TestTransformCenter(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"COMMUNE_QP":"A","NOM_QP":"B"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,2],[0,2],[0,0]]]}}]}`)

	items, err := Transform(qpvDataset(""), data)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, items[0].Center[0], 1e-9)
	assert.InDelta(t, 1.0, items[0].Center[1], 1e-9)
}

func TestTransformEmptyCollection(t *testing.T) {
	items, err := Transform(qpvDataset(""), []byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr error
	}{
		{"missing label key", "missing_key.geojson", ErrMissingProperty},
		{"point geometry", "point.geojson", ErrUnsupportedGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(qpvDataset(tt.file), "testdata")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "qpv", le.Dataset)
			assert.Equal(t, filepath.Join("testdata", tt.file), le.Path)
		})
	}
}

func TestTransformRejectsNonCollection(t *testing.T) {
	_, err := Transform(qpvDataset(""), []byte(`{"type":"Feature"}`))
	assert.ErrorIs(t, err, ErrNotFeatureCollection)
}

func TestTransformNullGeometry(t *testing.T) {
	_, err := Transform(qpvDataset(""), []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"COMMUNE_QP":"A","NOM_QP":"B"},"geometry":null}]}`))
	assert.ErrorIs(t, err, ErrUnsupportedGeometry)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(qpvDataset("malformed.geojson"), "testdata")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `loading dataset "qpv" from testdata/malformed.geojson`)
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	groups, err := LoadAll([]config.Dataset{
		qpvDataset("qpv.geojson"),
		{ID: "cucs", Path: "does-not-exist.geojson", LabelKeys: [2]string{"COMMUNES", "QUARTIER"}},
	}, "testdata")

	require.Error(t, err)
	assert.Nil(t, groups)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), `"cucs"`)
	assert.Contains(t, err.Error(), "does-not-exist.geojson")
}

func TestLoadAbsolutePath(t *testing.T) {
	abs, err := filepath.Abs(filepath.Join("testdata", "qpv.geojson"))
	require.NoError(t, err)

	g, err := Load(qpvDataset(abs), "/nonexistent")
	require.NoError(t, err)
	assert.Len(t, g.Items, 3)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"Rouen"`, "Rouen"},
		{`"café"`, "café"},
		{`12`, "12"},
		{`1.50`, "1.50"},
		{`false`, "false"},
		{`null`, ""},
		{`{ "a" : 1 }`, `{"a":1}`},
		{`[1, 2]`, `[1,2]`},
	}
	for _, tt := range tests {
		got, err := FormatValue(json.RawMessage(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestTransformNonStringLabels(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"COMMUNE_QP":null,"NOM_QP":true,"N":1.50},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`)

	items, err := Transform(qpvDataset(""), data)
	require.NoError(t, err)
	assert.Equal(t, "[QPV]  : true", items[0].Label)
	assert.Equal(t, []string{"COMMUNE_QP : ", "NOM_QP : true", "N : 1.50"}, items[0].Popup)
}

func TestDuplicateKeysLastWins(t *testing.T) {
	data := []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"COMMUNE_QP":"A","NOM_QP":"B","COMMUNE_QP":"C"},
		 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`)

	items, err := Transform(qpvDataset(""), data)
	require.NoError(t, err)
	assert.Equal(t, "[QPV] C : B", items[0].Label)
	assert.Len(t, items[0].Popup, 3)
}
