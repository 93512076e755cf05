// Package basemap holds the catalog of tile layers a dashboard session can
// switch between.
package basemap

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultID is the basemap selected when a session opens.
const DefaultID = "dark"

// Basemap describes a raster tile layer.
type Basemap struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	URL         string `yaml:"url" json:"url"`
	Attribution string `yaml:"attribution" json:"attribution"`
	MaxZoom     int    `yaml:"max_zoom" json:"max_zoom"`
}

// Catalog is an ordered, read-only set of basemaps keyed by id.
type Catalog struct {
	defaultID string
	order     []string
	byID      map[string]Basemap
}

var defaults = []Basemap{
	{
		ID:          "dark",
		Name:        "Dark",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: "© OpenStreetMap © CARTO",
		MaxZoom:     19,
	},
	{
		ID:          "satellite",
		Name:        "Satellite",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "© Esri",
		MaxZoom:     19,
	},
	{
		ID:          "terrain",
		Name:        "Terrain",
		URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "© OpenTopoMap",
		MaxZoom:     17,
	},
	{
		ID:          "light",
		Name:        "Light",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: "© OpenStreetMap © CARTO",
		MaxZoom:     19,
	},
}

// Default returns the built-in catalog: dark, satellite, terrain, light.
func Default() *Catalog {
	c, err := New(DefaultID, defaults)
	if err != nil {
		panic(err)
	}
	return c
}

// New builds a catalog. Ids must be unique and non-empty, and defaultID
// must name one of the entries.
func New(defaultID string, maps []Basemap) (*Catalog, error) {
	if len(maps) == 0 {
		return nil, errors.New("basemap catalog is empty")
	}
	c := &Catalog{
		defaultID: defaultID,
		order:     make([]string, 0, len(maps)),
		byID:      make(map[string]Basemap, len(maps)),
	}
	for i, m := range maps {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, fmt.Errorf("basemap %d: id is required", i)
		}
		if m.URL == "" {
			return nil, fmt.Errorf("basemap %q: url is required", m.ID)
		}
		if c.Has(m.ID) {
			return nil, fmt.Errorf("basemap %q: duplicate id", m.ID)
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		if m.MaxZoom <= 0 {
			m.MaxZoom = 19
		}
		c.order = append(c.order, m.ID)
		c.byID[m.ID] = m
	}
	if !c.Has(defaultID) {
		return nil, fmt.Errorf("default basemap %q is not in the catalog", defaultID)
	}
	return c, nil
}

type catalogFile struct {
	Default  string    `yaml:"default"`
	Basemaps []Basemap `yaml:"basemaps"`
}

// LoadFile reads a YAML catalog. When the file omits "default", DefaultID
// is used.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read basemap catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse basemap catalog %s: %w", path, err)
	}
	if f.Default == "" {
		f.Default = DefaultID
	}
	c, err := New(f.Default, f.Basemaps)
	if err != nil {
		return nil, fmt.Errorf("basemap catalog %s: %w", path, err)
	}
	return c, nil
}

// Get returns the basemap with the given id.
func (c *Catalog) Get(id string) (Basemap, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// DefaultID returns the id of the basemap new sessions start on.
func (c *Catalog) DefaultID() string { return c.defaultID }

// List returns the basemaps in catalog order.
func (c *Catalog) List() []Basemap {
	out := make([]Basemap, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IDs returns the basemap ids in catalog order.
func (c *Catalog) IDs() []string { return slices.Clone(c.order) }
