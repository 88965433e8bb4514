// Package db keeps a DuckDB index of zone labels and properties for search.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/joeblew999/plat-zones/internal/zones"
)

// Config holds database configuration. An empty DataDir opens an in-memory database.
type Config struct {
	DataDir string
	DBName  string
}

// Hit is one search result.
type Hit struct {
	Map     string       `json:"map" doc:"Map identifier"`
	Dataset string       `json:"dataset" doc:"Dataset identifier"`
	Index   int          `json:"index" doc:"Item position within the dataset"`
	Label   string       `json:"label" doc:"Tooltip text"`
	Center  zones.LatLng `json:"center" doc:"Item centroid as [lat, lon]"`
}

const schema = `CREATE TABLE IF NOT EXISTS features (
	map_id     VARCHAR NOT NULL,
	dataset_id VARCHAR NOT NULL,
	ord        INTEGER NOT NULL,
	idx        INTEGER NOT NULL,
	label      VARCHAR NOT NULL,
	props      VARCHAR NOT NULL,
	lat        DOUBLE,
	lon        DOUBLE
)`

// Open opens DuckDB and creates the features table.
func Open(cfg Config) (*sql.DB, error) {
	dsn := ""
	if cfg.DataDir != "" {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
		name := cfg.DBName
		if name == "" {
			name = "zones"
		}
		dsn = filepath.Join(duckdbDir, name+".duckdb")
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating features table: %w", err)
	}
	return conn, nil
}

// Index replaces the rows of a map with its groups. Group order becomes the
// result order of Search.
func Index(ctx context.Context, conn *sql.DB, mapID string, groups []zones.Group) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM features WHERE map_id = ?`, mapID); err != nil {
		return fmt.Errorf("clearing map %q: %w", mapID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO features VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for ord, g := range groups {
		for i, it := range g.Items {
			if _, err := stmt.ExecContext(ctx, mapID, g.ID, ord, i, it.Label, strings.Join(it.Popup, "\n"), it.Center[0], it.Center[1]); err != nil {
				return fmt.Errorf("indexing %s/%s[%d]: %w", mapID, g.ID, i, err)
			}
		}
	}
	return tx.Commit()
}

// Search returns items of a map whose label or properties contain q,
// ignoring case.
func Search(ctx context.Context, conn *sql.DB, mapID, q string, limit int) ([]Hit, error) {
	pattern := "%" + escapeLike(q) + "%"
	rows, err := conn.QueryContext(ctx, `
		SELECT dataset_id, idx, label, lat, lon
		FROM features
		WHERE map_id = ? AND (label ILIKE ? ESCAPE '\' OR props ILIKE ? ESCAPE '\')
		ORDER BY ord, idx
		LIMIT `+strconv.Itoa(limit), mapID, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", mapID, err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		h := Hit{Map: mapID}
		if err := rows.Scan(&h.Dataset, &h.Index, &h.Label, &h.Center[0], &h.Center[1]); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
