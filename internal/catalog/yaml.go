package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes catalog overrides from r and merges them over the built-in data.
// Entries replace built-in entries with the same kind; new kinds are appended.
// A non-empty consumption list replaces the built-in table wholesale.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var overrides Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(Merge(DefaultData(), overrides))
}

// LoadFile reads catalog overrides from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}

// Merge overlays o onto base.
func Merge(base, o Data) Data {
	base.Resources = mergeByKey(base.Resources, o.Resources, func(r ResourceDef) string { return string(r.Kind) })
	base.Facilities = mergeByKey(base.Facilities, o.Facilities, func(f FacilityDef) string { return string(f.Kind) })
	base.Bodies = mergeByKey(base.Bodies, o.Bodies, func(b BodyDef) string { return string(b.Kind) })
	base.Features = mergeByKey(base.Features, o.Features, func(f FeatureDef) string { return string(f.Kind) })
	base.States = mergeByKey(base.States, o.States, func(s StateDef) string { return string(s.Kind) })
	if len(o.Consumption) > 0 {
		base.Consumption = o.Consumption
	}
	return base
}

func mergeByKey[T any](base, over []T, key func(T) string) []T {
	idx := make(map[string]int, len(base))
	for i, v := range base {
		idx[key(v)] = i
	}
	for _, v := range over {
		if i, ok := idx[key(v)]; ok {
			base[i] = v
			continue
		}
		idx[key(v)] = len(base)
		base = append(base, v)
	}
	return base
}
