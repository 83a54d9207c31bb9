// Package location holds the bundled district -> upazila catalog that drives
// the cascading location selects of requests, registration and donor search.
package location

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed districts.yaml
var bundled []byte

type district struct {
	Name     string   `yaml:"name"`
	Upazilas []string `yaml:"upazilas"`
}

type catalogFile struct {
	Districts []district `yaml:"districts"`
}

// Catalog is a read-only lookup table. Safe for concurrent use.
type Catalog struct {
	districts []string
	upazilas  map[string][]string // folded district -> ordered upazilas
	names     map[string]string   // folded district -> display name
}

// Default returns the catalog compiled into the binary
func Default() *Catalog {
	c, err := Parse(bundled)
	if err != nil {
		panic(fmt.Sprintf("location: bundled catalog is invalid: %v", err))
	}
	return c
}

// Parse builds a Catalog from YAML data in the bundled file's format
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Districts) == 0 {
		return nil, fmt.Errorf("catalog has no districts")
	}

	c := &Catalog{
		upazilas: make(map[string][]string, len(f.Districts)),
		names:    make(map[string]string, len(f.Districts)),
	}
	for _, d := range f.Districts {
		name := strings.TrimSpace(d.Name)
		key := fold(name)
		if key == "" {
			return nil, fmt.Errorf("catalog has a district without a name")
		}
		if _, dup := c.names[key]; dup {
			return nil, fmt.Errorf("duplicate district %q", name)
		}
		c.names[key] = name
		c.districts = append(c.districts, name)
		c.upazilas[key] = append([]string(nil), d.Upazilas...)
	}
	sort.Strings(c.districts)
	return c, nil
}

// Districts returns every district in alphabetical order
func (c *Catalog) Districts() []string {
	return append([]string(nil), c.districts...)
}

// Upazilas returns the upazilas of district, or an empty slice when the district is unknown
func (c *Catalog) Upazilas(district string) []string {
	ups, ok := c.upazilas[fold(district)]
	if !ok {
		return []string{}
	}
	return append([]string(nil), ups...)
}

// HasDistrict reports whether district is part of the catalog
func (c *Catalog) HasDistrict(district string) bool {
	_, ok := c.names[fold(district)]
	return ok
}

// Contains reports whether upazila is declared under district
func (c *Catalog) Contains(district, upazila string) bool {
	want := fold(upazila)
	if want == "" {
		return false
	}
	for _, u := range c.upazilas[fold(district)] {
		if fold(u) == want {
			return true
		}
	}
	return false
}

// Canonical returns the catalog spelling of a district/upazila pair
func (c *Catalog) Canonical(district, upazila string) (string, string, bool) {
	key := fold(district)
	name, ok := c.names[key]
	if !ok {
		return "", "", false
	}
	want := fold(upazila)
	for _, u := range c.upazilas[key] {
		if fold(u) == want {
			return name, u, true
		}
	}
	return "", "", false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
