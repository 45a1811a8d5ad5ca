package zarr

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Arrays can be organized into groups which can also contain other groups.
// A group is created by storing group ArrayMeta under the “.zgroup” key under
// some logical path. E.g., a group exists at the root of an array store if the
// “.zgroup” key exists in the store, and a group exists at logical path
// “foo/bar” if the “foo/bar/.zgroup” key exists in the store.
type Group struct {
	ZarrFormat int `json:"zarr_format"`

	path  Path
	store Store
}

func (*Group) MetaType() MetaType { return MTGroup }

// CreateGroup stores a new group at path. It fails with ErrExists if a group
// or array is already stored there.
func CreateGroup(store Store, path string) (*Group, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	for _, mt := range []MetaType{MTGroup, MTArray} {
		exists, err := Has(store, p.Join(string(mt)).String())
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, p)
		}
	}

	g := &Group{ZarrFormat: Version, path: p, store: store}
	if err := putJSON(store, p.Join(string(MTGroup)).String(), g); err != nil {
		return nil, err
	}
	return g, nil
}

// OpenGroup attaches to the group stored at path, failing with ErrNotfound if
// none exists
func OpenGroup(store Store, path string) (*Group, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	f, err := store.Get(p.Join(string(MTGroup)).String())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g := &Group{path: p, store: store}
	if err := json.NewDecoder(f).Decode(g); err != nil {
		return nil, fmt.Errorf("decoding group %s: %w", p, err)
	}
	return g, nil
}

// OpenOrCreateGroup opens the group at path, creating it if it's missing
func OpenOrCreateGroup(store Store, path string) (*Group, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}
	exists, err := Has(store, p.Join(string(MTGroup)).String())
	if err != nil {
		return nil, err
	}
	if exists {
		return OpenGroup(store, path)
	}
	return CreateGroup(store, path)
}

func (g *Group) Path() string { return g.path.String() }

func (g *Group) Store() Store { return g.store }

func (g *Group) arrayPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid array name %q", name)
	}
	return g.path.Join(name).String(), nil
}

// CreateArray stores a new array called name in g
func (g *Group) CreateArray(name string, m *ArrayMeta) (*Array, error) {
	p, err := g.arrayPath(name)
	if err != nil {
		return nil, err
	}
	return Create(g.store, p, m)
}

// OpenArray attaches to the array called name in g
func (g *Group) OpenArray(name string, mode PersistenceMode) (*Array, error) {
	p, err := g.arrayPath(name)
	if err != nil {
		return nil, err
	}
	return Open(g.store, p, mode)
}

// ArrayExists reports whether g holds an array called name
func (g *Group) ArrayExists(name string) (bool, error) {
	p, err := g.arrayPath(name)
	if err != nil {
		return false, err
	}
	return Has(g.store, p+"/"+string(MTArray))
}

// GroupExists reports whether g holds a child group called name
func (g *Group) GroupExists(name string) (bool, error) {
	p, err := g.arrayPath(name)
	if err != nil {
		return false, err
	}
	return Has(g.store, p+"/"+string(MTGroup))
}

// RemoveArray deletes the array called name from g, including its
// attributes and every stored chunk
func (g *Group) RemoveArray(name string) error {
	a, err := g.OpenArray(name, ModeReadWrite)
	if err != nil {
		return err
	}
	return a.remove()
}

// ArrayNames lists the arrays stored directly in g, sorted
func (g *Group) ArrayNames() ([]string, error) {
	prefix := ""
	if len(g.path) > 0 {
		prefix = g.path.String() + "/"
	}
	keys, err := g.store.List(prefix)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, k := range keys {
		rel, err := NewPath(strings.TrimPrefix(k, prefix))
		if err != nil {
			return nil, err
		}
		if len(rel) == 2 && rel[1] == string(MTArray) {
			names = append(names, rel[0])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Consolidate writes the metadata of g and every array directly in it to the
// group's ".zmetadata" key and returns it
func (g *Group) Consolidate() (*ConsolidatedMetadata, error) {
	names, err := g.ArrayNames()
	if err != nil {
		return nil, err
	}
	cm := &ConsolidatedMetadata{
		ConsolidatedFormat: 1,
		Metadata:           map[string]MetaTyper{string(MTGroup): g},
	}
	for _, name := range names {
		a, err := g.OpenArray(name, ModeRead)
		if err != nil {
			return nil, err
		}
		cm.Metadata[name+"/"+string(MTArray)] = a.meta
		attrs, err := a.Attributes()
		if err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			cm.Metadata[name+"/"+string(MTAttributes)] = attrs
		}
	}
	if err := putJSON(g.store, g.path.Join(string(MTMetadata)).String(), cm); err != nil {
		return nil, err
	}
	return cm, nil
}
