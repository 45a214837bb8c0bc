package fstree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andreyvit/objtree"
)

// Dir exposes a directory as an ordered map of its entries. Subdirectories
// and files appear as bound nodes of their own, inheriting this node's access
// mode, and load only when touched.
type Dir struct {
	objtree.SourceBase
	path     string
	registry *Registry
}

// NewDir builds a directory adapter. A nil registry uses DefaultRegistry.
func NewDir(path string, registry *Registry) *Dir {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Dir{path: path, registry: registry}
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) Meta() objtree.SourceMeta {
	return objtree.SourceMeta{Kind: objtree.OMap, MultiLevel: true}
}

func (d *Dir) NewInstance(origin objtree.Origin) objtree.DataSource {
	cp := *d
	return &cp
}

func (d *Dir) Read() (objtree.Object, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return objtree.Object{}, fmt.Errorf("read %s: %w", d.path, err)
	}
	inherited := objtree.Options{Mode: objtree.ModeInherit}
	out := objtree.NewOMap()
	for _, e := range entries {
		full := filepath.Join(d.path, e.Name())
		var adapter objtree.DataSource
		if e.IsDir() {
			adapter = NewDir(full, d.registry)
		} else {
			factory := d.registry.factoryFor(full)
			if factory == nil {
				continue
			}
			adapter = factory(full)
		}
		out.Set(e.Name(), objtree.NewSource(adapter, objtree.OriginSource, inherited))
	}
	return out, nil
}

// Write creates the directory, writes entries that are not bound nodes (bound
// entries save themselves), and removes filesystem entries absent from data.
func (d *Dir) Write(data objtree.Object) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	keep := make(map[string]bool)
	it := data.IterItems()
	for it.Next() {
		item := it.Item()
		name := item.Key.ToStr()
		keep[name] = true
		if item.Value.IsBound() {
			continue
		}
		full := filepath.Join(d.path, name)
		if item.Value.Kind().IsMap() {
			sub := NewDir(full, d.registry)
			if err := sub.Write(item.Value); err != nil {
				return err
			}
			continue
		}
		factory := d.registry.factoryFor(full)
		if factory == nil {
			continue
		}
		if err := factory(full).Write(item.Value); err != nil {
			return err
		}
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	for _, e := range entries {
		if !keep[e.Name()] {
			if err := os.RemoveAll(filepath.Join(d.path, e.Name())); err != nil {
				return fmt.Errorf("write %s: %w", d.path, err)
			}
		}
	}
	return nil
}

// pathed is implemented by every adapter in this package.
type pathed interface{ Path() string }

// FSPath returns the filesystem path a node corresponds to, following the
// parent chain to the nearest filesystem-backed ancestor and appending the
// keys below it. Nodes outside a filesystem-backed tree return "".
func FSPath(o objtree.Object) string {
	base := o.FindAncestor(func(n objtree.Object) bool {
		_, ok := n.Source().(pathed)
		return ok
	})
	if base.IsEmpty() {
		return ""
	}
	parts := []string{base.Source().(pathed).Path()}
	for _, k := range o.PathFrom(base).Keys() {
		parts = append(parts, k.ToStr())
	}
	return filepath.Join(parts...)
}

// Root binds a directory tree rooted at path.
func Root(path string, opts objtree.Options) objtree.Object {
	return objtree.NewSource(NewDir(path, nil), objtree.OriginSource, opts)
}

func init() {
	objtree.RegisterScheme("file", func(uri objtree.URI, opts objtree.Options) (objtree.DataSource, error) {
		path := uri.Path
		if path == "" {
			return nil, fmt.Errorf("file URI has no path")
		}
		st, err := os.Stat(path)
		if err == nil && st.IsDir() {
			return NewDir(path, nil), nil
		}
		reg := DefaultRegistry()
		factory := reg.factoryFor(path)
		return factory(path), nil
	})
}
