package ui

import (
	"log/slog"
	"net/http"

	"github.com/skip2/go-qrcode"

	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/humastar"
	"github.com/joeblew999/plat-zones/internal/layers"
	"github.com/joeblew999/plat-zones/internal/service"
)

// qrSize is the side of the share QR code in pixels.
const qrSize = 256

// PageData is the data of the map page template.
type PageData struct {
	Map      config.Map
	Maps     []service.MapSummary
	Datastar humastar.PageData
	Initial  []layers.Layer
	ShareURL string
}

// RegisterPages registers the HTML routes on mux.
func (h *Handler) RegisterPages(mux *http.ServeMux) {
	mux.HandleFunc("GET /maps/{map}", h.Page)
	mux.HandleFunc("GET /maps/{map}/share.png", h.Share)
	mux.HandleFunc("GET /{$}", h.Home)
}

// Page renders the map page with its controls set to the map defaults.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("map")
	c, err := h.maps.Catalog(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if h.Reload {
		if err := h.Renderer.Reload(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	initial := c.DefaultState()
	toggle := humastar.OperationPath(h.api, ToggleOperation, map[string]string{"map": id})
	pd, err := humastar.NewPageData(SignalsFromState(c, initial), toggle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := PageData{
		Map:      c.Config(),
		Maps:     h.maps.List(),
		Datastar: pd,
		Initial:  c.Resolve(initial),
		ShareURL: service.PagePath(id) + "/share.png",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Renderer.Execute(w, "map-page", data); err != nil {
		slog.Error("rendering map page", "map", id, "err", err)
	}
}

// Share returns a QR code PNG of the absolute page URL.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("map")
	if _, err := h.maps.Catalog(id); err != nil {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(PageURL(r, id), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// Home redirects to the first configured map.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	maps := h.maps.List()
	if len(maps) == 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, maps[0].Page, http.StatusFound)
}

// PageURL is the absolute URL of a map page as seen by the client.
func PageURL(r *http.Request, id string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + service.PagePath(id)
}
