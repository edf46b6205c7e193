package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

//go:embed defaults/projects.json
var defaultProjectsJSON []byte

// ProjectsFile is the catalog file name looked up inside a config directory.
const ProjectsFile = "projects.json"

type Catalogs struct {
	Projects ProjectCatalog
}

type ProjectCatalog struct {
	// Order preserves the file order for listings.
	Order  []string
	ByID   map[string]ProjectDef
	Digest string
}

type ProjectDef struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	WoodCost    int    `json:"wood_cost"`
	MetalCost   int    `json:"metal_cost"`
	BuildDays   int    `json:"build_days"`
	Effect      Effect `json:"effect"`
	EndsGame    bool   `json:"ends_game,omitempty"`
}

// Effect is the standing addition a completed building grants.
type Effect struct {
	WoodPerDay  int `json:"wood_per_day,omitempty"`
	MetalPerDay int `json:"metal_per_day,omitempty"`
	FoodPerDay  int `json:"food_per_day,omitempty"`
	MaxWorkers  int `json:"max_workers,omitempty"`
}

func (e Effect) IsZero() bool { return e == Effect{} }

// Load reads projects.json from configDir. A missing file falls back to the
// embedded defaults.
func Load(configDir string) (*Catalogs, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, ProjectsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromJSON(raw)
}

// Default returns the catalog compiled into the binary. It panics if the
// embedded file does not validate.
func Default() *Catalogs {
	c, err := FromJSON(defaultProjectsJSON)
	if err != nil {
		panic("catalogs: embedded projects.json: " + err.Error())
	}
	return c
}

func FromJSON(raw []byte) (*Catalogs, error) {
	var c Catalogs
	if err := loadProjects(raw, &c.Projects); err != nil {
		return nil, err
	}
	return &c, nil
}

// Project resolves a project type by id.
func (c *Catalogs) Project(id string) (ProjectDef, bool) {
	if c == nil {
		return ProjectDef{}, false
	}
	d, ok := c.Projects.ByID[id]
	return d, ok
}

// ProjectIDs lists project ids in catalog order.
func (c *Catalogs) ProjectIDs() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.Projects.Order...)
}

// CanonicalJSON returns the definitions sorted by id, for indexing.
func (c *Catalogs) CanonicalJSON() []byte {
	defs := make([]ProjectDef, 0, len(c.Projects.ByID))
	for _, d := range c.Projects.ByID {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	b, _ := json.Marshal(defs)
	return b
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadProjects(raw []byte, out *ProjectCatalog) error {
	if err := validateProjects(raw); err != nil {
		return fmt.Errorf("%s: %w", ProjectsFile, err)
	}
	out.Digest = sha256Hex(bytes.TrimSpace(raw))

	var defs []ProjectDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("%s: %w", ProjectsFile, err)
	}
	out.ByID = make(map[string]ProjectDef, len(defs))
	out.Order = make([]string, 0, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("%s: empty id", ProjectsFile)
		}
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("%s: duplicate id %q", ProjectsFile, d.ID)
		}
		out.ByID[d.ID] = d
		out.Order = append(out.Order, d.ID)
	}
	return nil
}
