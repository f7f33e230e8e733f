// Package spawnargs reads named string parameters with fallback chains.
//
// A class reads its parameters from its own template first, then from the
// volume that owns it, then falls back to a hard-coded default.
package spawnargs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/udisondev/seed/internal/geom"
)

// Dict is one layer of named parameters.
type Dict map[string]string

// Get returns the raw value for key.
func (d Dict) Get(key string) (string, bool) {
	v, ok := d[key]
	return v, ok
}

// Set stores a value, allocating the map on first use.
func (d *Dict) Set(key, value string) {
	if *d == nil {
		*d = make(Dict)
	}
	(*d)[key] = value
}

// Layers looks keys up front to back. Nil layers are skipped.
type Layers []Dict

// Get returns the value from the first layer that has key.
func (l Layers) Get(key string) (string, bool) {
	for _, d := range l {
		if v, ok := d[key]; ok {
			return v, true
		}
	}
	return "", false
}

// Has reports whether any layer defines key.
func (l Layers) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// FirstOf returns the value of the first key in the chain that is defined.
func (l Layers) FirstOf(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := l.Get(k); ok {
			return v, true
		}
	}
	return "", false
}

// String returns the value for key or def.
func (l Layers) String(key, def string) string {
	if v, ok := l.Get(key); ok {
		return v
	}
	return def
}

// Float returns the value for key parsed as float64, or def when missing or malformed.
func (l Layers) Float(key string, def float64) float64 {
	v, ok := l.Get(key)
	if !ok {
		return def
	}
	return ParseFloat(v, def)
}

// FloatOf walks a key chain and parses the first defined value.
func (l Layers) FloatOf(def float64, keys ...string) float64 {
	v, ok := l.FirstOf(keys...)
	if !ok {
		return def
	}
	return ParseFloat(v, def)
}

// Int returns the value for key parsed as int, or def.
func (l Layers) Int(key string, def int) int {
	v, ok := l.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		// "1.0" and friends still count
		f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if ferr != nil {
			return def
		}
		return int(f)
	}
	return n
}

// Bool returns the value for key as a boolean. Numbers are true when non-zero.
func (l Layers) Bool(key string, def bool) bool {
	v, ok := l.Get(key)
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off", "":
		return false
	}
	return ParseFloat(v, 0) != 0
}

// Vector returns the value for key parsed as "x y z". Missing components are zero.
func (l Layers) Vector(key string, def geom.Vec3) geom.Vec3 {
	v, ok := l.Get(key)
	if !ok {
		return def
	}
	return ParseVector(v)
}

// KeyValue is one matched parameter.
type KeyValue struct {
	Key   string
	Value string
}

// WithPrefix returns every parameter whose key starts with prefix, merged
// across layers (front layers win) and sorted by key.
func (l Layers) WithPrefix(prefix string) []KeyValue {
	seen := make(map[string]struct{})
	var out []KeyValue
	for _, d := range l {
		for k, v := range d {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, KeyValue{Key: k, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ParseFloat parses s leniently, returning def when s is not a number.
func ParseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

// ParseVector parses up to three whitespace separated numbers.
func ParseVector(s string) geom.Vec3 {
	var c [3]float64
	for i, f := range strings.Fields(s) {
		if i >= 3 {
			break
		}
		c[i] = ParseFloat(f, 0)
	}
	return geom.Vec3{X: c[0], Y: c[1], Z: c[2]}
}
