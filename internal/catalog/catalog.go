// Package catalog holds the static exercise reference table.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed exercises.yaml
var embedded []byte

// Catalog is an immutable exercise table indexed by id and by name.
type Catalog struct {
	exercises []models.Exercise
	byID      map[string]int
	byName    map[string]int
}

type catalogFile struct {
	Exercises []models.Exercise `yaml:"exercises"`
}

var defaultCatalog = mustLoad(embedded)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	return defaultCatalog
}

// Load parses a YAML catalog. Ids must be unique and non-empty; names and
// aliases must not collide.
func Load(r io.Reader) (*Catalog, error) {
	var f catalogFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		exercises: f.Exercises,
		byID:      make(map[string]int, len(f.Exercises)),
		byName:    make(map[string]int, len(f.Exercises)*2),
	}
	for i, e := range f.Exercises {
		if e.ID == "" {
			return nil, fmt.Errorf("exercise %d: missing id", i)
		}
		if e.MuscleGroup == "" {
			return nil, fmt.Errorf("exercise %q: missing muscle_group", e.ID)
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("exercise %q: duplicate id", e.ID)
		}
		c.byID[e.ID] = i
		for _, n := range append([]string{e.Name}, e.Aliases...) {
			key := normalizeName(n)
			if key == "" {
				continue
			}
			if j, dup := c.byName[key]; dup && j != i {
				return nil, fmt.Errorf("exercise %q: name %q already used by %q", e.ID, n, c.exercises[j].ID)
			}
			c.byName[key] = i
		}
	}
	return c, nil
}

func mustLoad(data []byte) *Catalog {
	c, err := Load(bytes.NewReader(data))
	if err != nil {
		panic("catalog: " + err.Error())
	}
	return c
}

// All returns a copy of every exercise in file order.
func (c *Catalog) All() []models.Exercise {
	out := make([]models.Exercise, len(c.exercises))
	copy(out, c.exercises)
	return out
}

// Get looks up an exercise by id.
func (c *Catalog) Get(id string) (models.Exercise, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Exercise{}, false
	}
	return c.exercises[i], true
}

// FindByName matches an exercise name or alias, ignoring case and punctuation.
func (c *Catalog) FindByName(name string) (models.Exercise, bool) {
	i, ok := c.byName[normalizeName(name)]
	if !ok {
		return models.Exercise{}, false
	}
	return c.exercises[i], true
}

// ByMuscleGroup returns the exercises training the given group (case-insensitive).
func (c *Catalog) ByMuscleGroup(group string) []models.Exercise {
	var out []models.Exercise
	for _, e := range c.exercises {
		if strings.EqualFold(e.MuscleGroup, group) {
			out = append(out, e)
		}
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a display name into an id-like key: "Hack Squats · Machine" -> "hack-squats-machine".
func Slug(name string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func normalizeName(name string) string {
	return strings.ReplaceAll(Slug(name), "-", "")
}
