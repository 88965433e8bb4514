package config

import (
	"net/url"
	"strings"
)

const wmsVersion = "1.3.0"

// LegendURL builds a WMS GetLegendGraphic request for the overlay.
func (o Overlay) LegendURL() string {
	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", wmsVersion)
	q.Set("REQUEST", "GetLegendGraphic")
	q.Set("LAYER", o.Layers)
	q.Set("FORMAT", o.format())
	return withQuery(o.URL, q)
}

func (o Overlay) format() string {
	if o.Format == "" {
		return "image/png"
	}
	return o.Format
}

func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
