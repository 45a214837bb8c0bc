package fstree

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/objtree"
)

// fileBase carries the path and the complete-kind plumbing shared by every
// file adapter. Read/write failures report with the path attached.
type fileBase struct {
	objtree.SourceBase
	path string
}

func (f *fileBase) Path() string { return f.path }

func (f *fileBase) load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, nil
}

func (f *fileBase) store(data []byte) error {
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// JSONFile loads and stores a whole JSON document.
type JSONFile struct {
	fileBase
	// SortedMaps parses objects into sorted maps instead of preserving the
	// document's key order.
	SortedMaps bool
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{fileBase: fileBase{path: path}}
}

func (f *JSONFile) Meta() objtree.SourceMeta { return objtree.SourceMeta{} }

func (f *JSONFile) NewInstance(origin objtree.Origin) objtree.DataSource {
	cp := *f
	return &cp
}

func (f *JSONFile) Read() (objtree.Object, error) {
	data, err := f.load()
	if err != nil {
		return objtree.Object{}, err
	}
	obj, err := objtree.ParseJSON(string(data), objtree.JSONOptions{SortedMaps: f.SortedMaps})
	if err != nil {
		return objtree.Object{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return obj, nil
}

func (f *JSONFile) Write(data objtree.Object) error {
	return f.store([]byte(data.ToJSON()))
}

// YAMLFile loads and stores a whole YAML document, preserving mapping key
// order.
type YAMLFile struct {
	fileBase
}

func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{fileBase: fileBase{path: path}}
}

func (f *YAMLFile) Meta() objtree.SourceMeta { return objtree.SourceMeta{} }

func (f *YAMLFile) NewInstance(origin objtree.Origin) objtree.DataSource {
	cp := *f
	return &cp
}

func (f *YAMLFile) Read() (objtree.Object, error) {
	data, err := f.load()
	if err != nil {
		return objtree.Object{}, err
	}
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return objtree.Object{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return fromYAML(v), nil
}

func (f *YAMLFile) Write(data objtree.Object) error {
	out, err := yaml.Marshal(toYAML(data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	return f.store(out)
}

func fromYAML(v any) objtree.Object {
	switch v := v.(type) {
	case yaml.MapSlice:
		kv := make([]any, 0, len(v)*2)
		for _, item := range v {
			kv = append(kv, keyFromYAML(item.Key), fromYAML(item.Value))
		}
		return objtree.NewOMap(kv...)
	case map[string]any:
		kv := make([]any, 0, len(v)*2)
		for k, val := range v {
			kv = append(kv, k, fromYAML(val))
		}
		return objtree.NewSMap(kv...)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = fromYAML(item)
		}
		return objtree.NewList(items...)
	default:
		return objtree.New(v)
	}
}

func keyFromYAML(v any) any {
	switch v.(type) {
	case nil, bool, int, int64, uint64, float64, string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func toYAML(o objtree.Object) any {
	switch o.Kind() {
	case objtree.List:
		var out []any
		it := o.IterValues()
		for it.Next() {
			out = append(out, toYAML(it.Value()))
		}
		return out
	case objtree.SMap, objtree.OMap:
		var out yaml.MapSlice
		it := o.IterItems()
		for it.Next() {
			item := it.Item()
			out = append(out, yaml.MapItem{Key: item.Key.ToStr(), Value: toYAML(item.Value)})
		}
		return out
	default:
		return o.Interface()
	}
}

// TextFile loads and stores a whole file as a string.
type TextFile struct {
	fileBase
}

func NewTextFile(path string) *TextFile {
	return &TextFile{fileBase: fileBase{path: path}}
}

func (f *TextFile) Meta() objtree.SourceMeta {
	return objtree.SourceMeta{Kind: objtree.Str}
}

func (f *TextFile) NewInstance(origin objtree.Origin) objtree.DataSource {
	cp := *f
	return &cp
}

func (f *TextFile) Read() (objtree.Object, error) {
	data, err := f.load()
	if err != nil {
		return objtree.Object{}, err
	}
	return objtree.New(string(data)), nil
}

func (f *TextFile) Write(data objtree.Object) error {
	return f.store([]byte(data.ToStr()))
}

// MsgpackFile loads and stores a whole file as one msgpack value.
type MsgpackFile struct {
	fileBase
}

func NewMsgpackFile(path string) *MsgpackFile {
	return &MsgpackFile{fileBase: fileBase{path: path}}
}

func (f *MsgpackFile) Meta() objtree.SourceMeta { return objtree.SourceMeta{} }

func (f *MsgpackFile) NewInstance(origin objtree.Origin) objtree.DataSource {
	cp := *f
	return &cp
}

func (f *MsgpackFile) Read() (objtree.Object, error) {
	data, err := f.load()
	if err != nil {
		return objtree.Object{}, err
	}
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return objtree.Object{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return fromMsgpack(v), nil
}

func (f *MsgpackFile) Write(data objtree.Object) error {
	out, err := msgpack.Marshal(data.Interface())
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	return f.store(out)
}

func fromMsgpack(v any) objtree.Object {
	switch v := v.(type) {
	case map[string]any:
		kv := make([]any, 0, len(v)*2)
		for k, val := range v {
			kv = append(kv, k, fromMsgpack(val))
		}
		return objtree.NewSMap(kv...)
	case map[any]any:
		kv := make([]any, 0, len(v)*2)
		for k, val := range v {
			kv = append(kv, k, fromMsgpack(val))
		}
		return objtree.NewSMap(kv...)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = fromMsgpack(item)
		}
		return objtree.NewList(items...)
	default:
		return objtree.New(v)
	}
}
