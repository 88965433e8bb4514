package service

import (
	"fmt"
	"os"
	"path/filepath"
)

// SourceService reports on the GeoJSON files behind the loaded datasets.
type SourceService struct {
	maps *MapService
}

// NewSourceService creates a new source service.
func NewSourceService(maps *MapService) *SourceService {
	return &SourceService{maps: maps}
}

// List returns one entry per dataset of every map.
func (s *SourceService) List() ([]SourceFile, error) {
	files := []SourceFile{}
	for _, c := range s.maps.Catalogs() {
		m := c.Config()
		for _, ds := range m.Datasets {
			g, _ := c.Group(ds.ID)

			size := "-"
			if info, err := os.Stat(s.path(ds.Path)); err == nil {
				size = formatSize(info.Size())
			} else if !os.IsNotExist(err) {
				return nil, err
			}

			files = append(files, SourceFile{
				Map:      m.ID,
				Dataset:  ds.ID,
				Name:     filepath.Base(ds.Path),
				Size:     size,
				Features: len(g.Items),
			})
		}
	}
	return files, nil
}

func (s *SourceService) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.maps.DataDir(), p)
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
