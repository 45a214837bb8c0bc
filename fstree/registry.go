// Package fstree binds filesystem trees as objtree data sources: a directory
// becomes an ordered map of its entries, and files parse according to their
// extension. Nested directories and files stay unloaded until touched, so a
// large tree costs only what is actually visited.
package fstree

import (
	"path/filepath"
	"strings"

	"github.com/andreyvit/objtree"
)

// Factory builds a file adapter for a path.
type Factory func(path string) objtree.DataSource

// Registry decides which adapter handles which directory entry, by file
// extension. Entries with no association are skipped when a directory loads.
type Registry struct {
	byExt       map[string]Factory
	fileDefault Factory
}

func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Factory)}
}

// Associate routes files with the given extension (".json") to the factory.
func (r *Registry) Associate(ext string, factory Factory) *Registry {
	r.byExt[strings.ToLower(ext)] = factory
	return r
}

// DefaultFile routes files with no associated extension to the factory.
// Without one, such files are skipped.
func (r *Registry) DefaultFile(factory Factory) *Registry {
	r.fileDefault = factory
	return r
}

func (r *Registry) factoryFor(path string) Factory {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := r.byExt[ext]; ok {
		return f
	}
	return r.fileDefault
}

// DefaultRegistry wires the built-in file adapters: .json, .yaml/.yml, .txt
// and .msgpack, with unknown extensions loaded as raw text.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Associate(".json", func(path string) objtree.DataSource { return NewJSONFile(path) }).
		Associate(".yaml", func(path string) objtree.DataSource { return NewYAMLFile(path) }).
		Associate(".yml", func(path string) objtree.DataSource { return NewYAMLFile(path) }).
		Associate(".txt", func(path string) objtree.DataSource { return NewTextFile(path) }).
		Associate(".msgpack", func(path string) objtree.DataSource { return NewMsgpackFile(path) }).
		DefaultFile(func(path string) objtree.DataSource { return NewTextFile(path) })
}
