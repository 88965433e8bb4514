package server

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/CAFxX/httpcompression"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-zones/internal/api"
	"github.com/joeblew999/plat-zones/internal/api/ui"
	"github.com/joeblew999/plat-zones/internal/config"
	"github.com/joeblew999/plat-zones/internal/db"
	"github.com/joeblew999/plat-zones/internal/logger"
	"github.com/joeblew999/plat-zones/internal/service"
	"github.com/joeblew999/plat-zones/internal/templates"
	"github.com/joeblew999/plat-zones/web"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	ConfigPath string // Map profiles YAML; empty uses the built-in profiles
	DataDir    string // Directory dataset paths are relative to
	WebDir     string // Optional web/ directory overriding the embedded templates and static files
}

// Server is the zones HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	renderer *templates.Renderer
}

// New loads every map profile and dataset and wires the routes. Any dataset
// that fails to load is returned as an error; the search index is optional.
func New(cfg Config) (*Server, error) {
	profiles, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	maps, err := service.NewMapService(profiles, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	fsys := fs.FS(web.FS)
	if cfg.WebDir != "" {
		fsys = os.DirFS(cfg.WebDir)
	}
	renderer, err := templates.New(fsys)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-zones API", "1.0.0")
	humaConfig.Info.Description = "Zone maps API: map profiles, layer resolution, zone datasets, search and vector tiles."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		services: &api.Services{
			Maps:   maps,
			Tiles:  service.NewTileService(maps),
			Source: service.NewSourceService(maps),
		},
		renderer: renderer,
		db:       openIndex(cfg.DataDir, maps),
	}

	if err := s.routes(fsys); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openIndex builds the DuckDB search index. Search is disabled when DuckDB
// cannot be opened or filled.
func openIndex(dataDir string, maps *service.MapService) *sql.DB {
	conn, err := db.Open(db.Config{DataDir: dataDir, DBName: "zones"})
	if err != nil {
		slog.Warn("search disabled", "err", err)
		return nil
	}
	for _, c := range maps.Catalogs() {
		if err := db.Index(context.Background(), conn, c.ID(), c.Groups()); err != nil {
			slog.Warn("search disabled", "map", c.ID(), "err", err)
			conn.Close()
			return nil
		}
	}
	return conn
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Maps returns the loaded map service.
func (s *Server) Maps() *service.MapService {
	return s.services.Maps
}

// SearchEnabled reports whether the DuckDB index is available.
func (s *Server) SearchEnabled() bool {
	return s.db != nil
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) routes(fsys fs.FS) error {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	api.NewInfoHandler(s.config.DataDir, len(s.services.Maps.List()), s.db != nil).RegisterRoutes(s.humaAPI)
	api.NewSearchHandler(s.db, s.services.Maps).RegisterRoutes(s.humaAPI)
	api.NewTileHandler(s.services.Tiles).RegisterRoutes(s.humaAPI)

	// Map pages and their Datastar SSE routes
	pages := ui.NewHandler(s.services.Maps, s.renderer)
	pages.Reload = s.config.WebDir != ""
	pages.RegisterRoutes(s.humaAPI)
	pages.RegisterPages(s.mux)

	static, err := fs.Sub(fsys, "static")
	if err != nil {
		return fmt.Errorf("static files: %w", err)
	}
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Tiles, SSE streams and PNGs are sent as-is.
	compress, err := httpcompression.DefaultAdapter(
		httpcompression.ContentTypes([]string{"text/event-stream", api.MVTContentType, "image/png"}, true),
	)
	if err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	s.handler = logger.AccessMiddleware(slog.Default())(compress(s.mux))
	return nil
}
