// Package service contains the map business logic of plat-zones.
package service

import (
	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/layers"
)

// MapSummary is the list view of a map profile.
type MapSummary struct {
	ID       string `json:"id" doc:"Map identifier" example:"qpv"`
	Title    string `json:"title" doc:"Page title"`
	Datasets int    `json:"datasets" doc:"Number of zone datasets"`
	Overlays int    `json:"overlays" doc:"Number of WMS overlays"`
	Features int    `json:"features" doc:"Total number of loaded zone polygons"`
	Page     string `json:"page" doc:"Browser page path" example:"/maps/qpv"`
}

// MapDetail is a full map profile together with its initial control state.
type MapDetail struct {
	config.Map
	Initial  layers.State   `json:"initial" doc:"Control state of a fresh page"`
	Counts   map[string]int `json:"counts" doc:"Loaded polygons per dataset"`
	Page     string         `json:"page" doc:"Browser page path"`
	TilesURL string         `json:"tilesUrl" doc:"Vector tile URL template, {dataset} is replaced by the dataset id"`
}

// SourceFile describes the GeoJSON file behind a dataset.
type SourceFile struct {
	Map      string `json:"map" doc:"Map identifier" example:"qpv"`
	Dataset  string `json:"dataset" doc:"Dataset identifier" example:"qpv"`
	Name     string `json:"name" doc:"File name" example:"qpv.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	Features int    `json:"features" doc:"Number of loaded polygons"`
}
