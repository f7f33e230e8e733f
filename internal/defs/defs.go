// Package defs loads entity definitions: the templates placement classes
// are built from and the names the runtime spawns.
package defs

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/seed/internal/geom"
	"github.com/udisondev/seed/internal/spawnargs"
)

// Category capabilities. Resolved once per definition.
type Category struct {
	Combinable bool
	Movable    bool
	Static     bool
}

// categories is the declarative capability table. Anything that moves,
// animates or carries per-object state cannot be merged into a combined model.
var categories = map[string]Category{
	"static":     {Combinable: true, Static: true},
	"generic":    {Combinable: true},
	"movable":    {Movable: true},
	"mover":      {},
	"door":       {},
	"breakable":  {},
	"target":     {},
	"actor":      {},
	"ragdoll":    {},
	"attachment": {},
	"animated":   {},
	"weapon":     {},
	"light":      {},
}

// DefaultCategory is used when a definition does not name one.
const DefaultCategory = "generic"

// CategoryFor returns the capabilities of a category name.
func CategoryFor(name string) (Category, bool) {
	c, ok := categories[name]
	return c, ok
}

// CategoryNames returns the known category names, sorted.
func CategoryNames() []string {
	names := make([]string, 0, len(categories))
	for n := range categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Definition is one spawnable entity definition.
type Definition struct {
	Name     string
	Category string
	Model    string
	Size     geom.Vec3
	// Clip names a dedicated collision model; empty uses Model.
	Clip string
	Args spawnargs.Dict

	Caps Category
}

// Table holds definitions by name.
type Table struct {
	defs map[string]Definition
}

// NewTable builds a table, resolving every definition's category.
func NewTable(list []Definition) *Table {
	t := &Table{defs: make(map[string]Definition, len(list))}
	for _, d := range list {
		t.Add(d)
	}
	return t
}

// Add inserts or replaces a definition.
func (t *Table) Add(d Definition) {
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	caps, ok := CategoryFor(d.Category)
	if !ok {
		slog.Warn("unknown definition category, using generic",
			"definition", d.Name,
			"category", d.Category,
			"hint", spawnargs.Hint(d.Category, CategoryNames()))
		d.Category = DefaultCategory
		caps = categories[DefaultCategory]
	}
	d.Caps = caps
	t.defs[d.Name] = d
}

// Lookup returns the definition with the given name.
func (t *Table) Lookup(name string) (Definition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Names returns all definition names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.defs))
	for n := range t.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of definitions.
func (t *Table) Len() int { return len(t.defs) }

type fileFormat struct {
	Definitions []struct {
		Name     string            `yaml:"name"`
		Category string            `yaml:"category"`
		Model    string            `yaml:"model"`
		Size     [3]float64        `yaml:"size"`
		Clip     string            `yaml:"clip"`
		Args     map[string]string `yaml:"args"`
	} `yaml:"definitions"`
}

// Load reads a YAML definition file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing definitions %s: %w", path, err)
	}
	slog.Info("definitions loaded", "path", path, "count", t.Len())
	return t, nil
}

// Parse decodes definitions from YAML bytes.
func Parse(data []byte) (*Table, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	list := make([]Definition, 0, len(f.Definitions))
	for i, d := range f.Definitions {
		if d.Name == "" {
			return nil, fmt.Errorf("definition #%d has no name", i)
		}
		list = append(list, Definition{
			Name:     d.Name,
			Category: d.Category,
			Model:    d.Model,
			Size:     geom.V(d.Size[0], d.Size[1], d.Size[2]),
			Clip:     d.Clip,
			Args:     spawnargs.Dict(d.Args),
		})
	}
	return NewTable(list), nil
}
