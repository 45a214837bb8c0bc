package objtree

import (
	"fmt"
	"strings"
)

// Origin tells whether a bound node's content came from the backing store or
// was created in memory and has never been saved.
type Origin uint8

const (
	OriginSource Origin = iota
	OriginMemory
)

// Mode is a bitset of permissions governing access through a bound node.
// The zero Mode means read and write.
type Mode uint8

const (
	ModeRead Mode = 1 << iota
	ModeWrite
	// ModeClobber additionally allows operations that discard data wholesale:
	// replacing or clearing an entire sparse store.
	ModeClobber
	// ModeInherit defers to the nearest bound ancestor's mode.
	ModeInherit
)

func (m Mode) String() string {
	var b strings.Builder
	if m&ModeRead != 0 {
		b.WriteByte('r')
	}
	if m&ModeWrite != 0 {
		b.WriteByte('w')
	}
	if m&ModeClobber != 0 {
		b.WriteByte('c')
	}
	if m&ModeInherit != 0 {
		b.WriteByte('i')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// ErrorMode selects how adapter failures surface: as panics carrying a
// *DataSourceError, as a recorded failure with a log line, or as a silently
// recorded failure. Recorded read failures make IsValid report false.
type ErrorMode uint8

const (
	ErrorPanic ErrorMode = iota
	ErrorSticky
	ErrorQuiet
)

// Options configure a binding.
type Options struct {
	Mode        Mode
	ReadErrors  ErrorMode
	WriteErrors ErrorMode
}

func (o Options) normalized() Options {
	if o.Mode == 0 {
		o.Mode = ModeRead | ModeWrite
	}
	return o
}

// SourceMeta describes an adapter's shape. A sparse adapter loads and stores
// keys individually; a complete adapter transfers the whole value at once.
// Kind declares the content kind when it is known up front, letting the cache
// be seeded without touching the store. MultiLevel marks adapters whose
// subtree may contain further bound nodes, such as directories.
type SourceMeta struct {
	Sparse     bool
	Kind       Kind
	MultiLevel bool
}

// DataSource is the adapter contract behind bound nodes. Meta, NewInstance
// and Read must be implemented; the rest can be inherited from SourceBase.
// Sparse adapters additionally implement the per-key methods and cursors.
//
// ReadKey reports a missing key by returning an empty Object and no error.
// DeleteKey may buffer; Commit is called once per save so adapters can flush
// batched work.
type DataSource interface {
	Meta() SourceMeta
	NewInstance(origin Origin) DataSource
	ReadType() (Kind, error)
	Read() (Object, error)
	ReadKey(key Key) (Object, error)
	Write(data Object) error
	WriteKey(key Key, value Object) error
	DeleteKey(key Key) error
	Commit(data Object, deleted []Key) error
	IterKeys(s Slice) (KeyCursor, error)
	IterItems(s Slice) (ItemCursor, error)
}

// SourceBase provides default implementations of the optional DataSource
// methods. Embed it in adapters and override what the adapter supports.
type SourceBase struct{}

func (SourceBase) ReadType() (Kind, error) { return Empty, nil }

func (SourceBase) ReadKey(Key) (Object, error) {
	return Object{}, errUnsupported("ReadKey")
}

func (SourceBase) Write(Object) error { return errUnsupported("Write") }

func (SourceBase) WriteKey(Key, Object) error { return errUnsupported("WriteKey") }

func (SourceBase) DeleteKey(Key) error { return errUnsupported("DeleteKey") }

func (SourceBase) Commit(Object, []Key) error { return nil }

func (SourceBase) IterKeys(Slice) (KeyCursor, error) {
	return nil, errUnsupported("IterKeys")
}

func (SourceBase) IterItems(Slice) (ItemCursor, error) {
	return nil, errUnsupported("IterItems")
}

func errUnsupported(op string) error {
	return fmt.Errorf("objtree: %s not supported by adapter", op)
}

// proxy sits between a bound Object and its adapter: it owns the cache, the
// dirty flags, and the load/save choreography.
type proxy struct {
	adapter     DataSource
	meta        SourceMeta
	opts        Options
	origin      Origin
	cache       Object
	fullyCached bool
	unsaved     bool
	readFailed  bool
	writeFailed bool
}

// NewSource returns a node bound to the adapter. A memory origin marks the
// node unsaved; a complete memory-origin node is also fully cached, since
// there is nothing to load.
func NewSource(adapter DataSource, origin Origin, opts Options) Object {
	return Object{kind: DSrc, blk: &block{ds: newProxy(adapter, origin, opts)}}
}

func newProxy(adapter DataSource, origin Origin, opts Options) *proxy {
	meta := adapter.Meta()
	px := &proxy{
		adapter:     adapter,
		meta:        meta,
		opts:        opts.normalized(),
		origin:      origin,
		cache:       newObjectOfKind(meta.Kind),
		fullyCached: !meta.Sparse && origin == OriginMemory,
		unsaved:     origin == OriginMemory,
	}
	return px
}

// Bind attaches an existing node to an adapter, preserving the node's place
// in its tree: the returned bound node replaces obj under obj's parent. The
// binding starts fully cached and unsaved, so the next Save writes it out.
func Bind(obj Object, adapter DataSource, opts Options) Object {
	meta := adapter.Meta()
	if meta.Kind != Empty && obj.kind != meta.Kind {
		panic(wrongType(obj.kind, meta.Kind))
	}
	px := newProxy(adapter, OriginMemory, opts)
	bound := Object{kind: DSrc, blk: &block{ds: px}}

	par := obj.Parent()
	var key Key
	if !par.IsEmpty() {
		key = par.KeyOf(obj)
		obj.clearParent()
	}
	px.cache = obj
	px.fullyCached = true
	px.unsaved = true
	for _, child := range containerChildren(obj) {
		child.setParent(bound)
	}
	if !par.IsEmpty() {
		par.Set(key, bound)
	}
	return bound
}

func newObjectOfKind(k Kind) Object {
	switch k {
	case Empty:
		return Object{}
	case Nil:
		return nilValue
	case Bool:
		return boolObject(false)
	case Int:
		return intObject(0)
	case Uint:
		return uintObject(0)
	case Float:
		return floatObject(0)
	case Str:
		return strObject("")
	case List, SMap, OMap:
		return newContainer(k)
	}
	panic(wrongType(k))
}

// markDirty flags the nearest bound ancestor as unsaved. Mutations that land
// on plain containers inside a bound subtree still need to reach the store on
// the next Save.
func markDirty(o Object) {
	for p := o; !p.IsEmpty(); p = p.Parent() {
		if p.kind == DSrc {
			p.blk.ds.unsaved = true
			return
		}
	}
}

func (px *proxy) readError(target Object, err error) {
	switch px.opts.ReadErrors {
	case ErrorPanic:
		panic(&DataSourceError{Op: "read", Err: err})
	case ErrorSticky:
		px.readFailed = true
		logger.Warn("objtree: read failed", "error", err)
	case ErrorQuiet:
		px.readFailed = true
	}
}

func (px *proxy) writeError(target Object, err error) {
	px.writeFailed = true
	switch px.opts.WriteErrors {
	case ErrorPanic:
		panic(&DataSourceError{Op: "write", Err: err})
	case ErrorSticky:
		logger.Warn("objtree: write failed", "error", err)
	case ErrorQuiet:
	}
}

// resolveMode returns the effective mode, following ModeInherit up to the
// nearest bound ancestor.
func (px *proxy) resolveMode(target Object) Mode {
	mode := px.opts.Mode
	if mode&ModeInherit != 0 {
		for p := target.Parent(); !p.IsEmpty(); p = p.Parent() {
			if p.kind == DSrc {
				return p.blk.ds.resolveMode(p)
			}
		}
	}
	return mode
}

func (px *proxy) requireWrite(target Object) Mode {
	mode := px.resolveMode(target)
	if mode&ModeWrite == 0 {
		panic(&WriteProtectedError{})
	}
	return mode
}

// probeType seeds an empty cache by asking the adapter for the content kind.
func (px *proxy) probeType(target Object) {
	if !px.cache.IsEmpty() {
		return
	}
	k, err := px.adapter.ReadType()
	if err != nil {
		px.readError(target, err)
		return
	}
	if k != Empty {
		px.cache = newObjectOfKind(k)
	}
}

// seedSparse readies the sparse cache for use.
func (px *proxy) seedSparse(target Object) { px.probeType(target) }

func (px *proxy) kind(target Object) Kind {
	if px.cache.IsEmpty() {
		px.probeType(target)
	}
	return px.cache.kind
}

// insureFullyCached loads the whole value once, reparenting the loaded
// children to the bound node. Later calls are no-ops until Reset.
func (px *proxy) insureFullyCached(target Object) {
	if px.fullyCached {
		return
	}
	data, err := px.adapter.Read()
	if err != nil {
		px.readError(target, err)
		px.fullyCached = true
		if px.cache.IsEmpty() {
			px.cache = NewOMap()
		}
		return
	}
	if !data.Parent().IsEmpty() {
		data = data.Copy()
	}
	px.cache = data
	px.fullyCached = true
	for _, child := range containerChildren(data) {
		child.setParent(target)
	}
}

// cached returns the fully loaded cache.
func (px *proxy) cached(target Object) Object {
	px.insureFullyCached(target)
	return px.cache
}

func (px *proxy) get(target Object, k Key) Object {
	if px.meta.Sparse {
		px.probeType(target)
		if v, ok := px.cacheRaw(k); ok {
			if v.isDeleted() {
				return nilValue
			}
			return v
		}
		if px.fullyCached {
			return nilValue
		}
		rv, err := px.adapter.ReadKey(k)
		if err != nil {
			px.readError(target, err)
			return nilValue
		}
		if rv.IsEmpty() {
			rv = nilValue
		}
		px.cache.Set(k, rv)
		rv.setParent(target)
		return rv
	}
	px.insureFullyCached(target)
	return px.cache.Get(k)
}

// hasKey probes membership without caching the probed value. Sparse adapters
// report missing keys as nil, so a stored nil reads as not present, whether
// or not the slot has been memoized.
func (px *proxy) hasKey(target Object, k Key) bool {
	if px.meta.Sparse {
		px.probeType(target)
		if v, ok := px.cacheRaw(k); ok {
			return !v.isDeleted() && !v.IsNil()
		}
		if px.fullyCached {
			return false
		}
		rv, err := px.adapter.ReadKey(k)
		if err != nil {
			px.readError(target, err)
			return false
		}
		return !rv.IsEmpty() && !rv.IsNil()
	}
	px.insureFullyCached(target)
	return px.cache.HasKey(k)
}

func (px *proxy) cacheRaw(k Key) (Object, bool) {
	switch px.cache.kind {
	case SMap:
		return px.cache.blk.smap.get(k)
	case OMap:
		return px.cache.blk.omap.get(k)
	}
	return Object{}, false
}

func (px *proxy) set(target Object, k Key, v Object) Object {
	px.requireWrite(target)
	px.unsaved = true
	if px.meta.Sparse {
		px.probeType(target)
	} else {
		px.insureFullyCached(target)
	}
	out := px.cache.Set(k, v)
	out.setParent(target)
	return out
}

// setAll replaces the entire cached content, which on a sparse store
// clobbers data that was never loaded.
func (px *proxy) setAll(target Object, v Object) {
	mode := px.requireWrite(target)
	if px.meta.Sparse && mode&ModeClobber == 0 {
		panic(&ClobberProtectedError{})
	}
	px.unsaved = true
	if !v.Parent().IsEmpty() {
		v = v.Copy()
	}
	px.cache = v
	px.fullyCached = true
	for _, child := range containerChildren(v) {
		child.setParent(target)
	}
}

func (px *proxy) del(target Object, k Key) {
	px.requireWrite(target)
	px.unsaved = true
	if px.meta.Sparse {
		px.probeType(target)
		if v, ok := px.cacheRaw(k); ok {
			v.clearParent()
		}
		px.cache.Set(k, Object{kind: Del})
	} else {
		px.insureFullyCached(target)
		px.cache.Del(k)
	}
}

// clear tombstones every key of a sparse store, both cached and not yet
// loaded, so the next Save deletes them all. Complete stores just empty the
// cache.
func (px *proxy) clear(target Object) {
	mode := px.requireWrite(target)
	if px.meta.Sparse {
		if mode&ModeClobber == 0 {
			panic(&ClobberProtectedError{})
		}
		px.unsaved = true
		px.probeType(target)
		keys := make(map[Key]bool)
		if px.cache.kind.IsMap() {
			px.cache.each(func(k Key, v Object) {
				if !v.isDeleted() {
					v.clearParent()
				}
				keys[k.canon()] = true
			})
		}
		if !px.fullyCached {
			cur, err := px.adapter.IterKeys(All())
			if err != nil {
				px.readError(target, err)
			} else {
				for cur.Next() {
					keys[cur.Key().canon()] = true
				}
				if err := cur.Err(); err != nil {
					px.readError(target, err)
				}
			}
		}
		for k := range keys {
			px.cache.Set(k, Object{kind: Del})
		}
		return
	}
	px.unsaved = true
	px.insureFullyCached(target)
	px.cache.Clear()
	px.fullyCached = true
}

func (px *proxy) size(target Object) int {
	if px.meta.Sparse {
		px.probeType(target)
		if px.fullyCached {
			n := 0
			px.cache.each(func(_ Key, v Object) {
				if !v.isDeleted() {
					n++
				}
			})
			return n
		}
		deleted := make(map[Key]bool)
		if px.cache.kind.IsMap() {
			px.cache.each(func(k Key, v Object) {
				if v.isDeleted() {
					deleted[k.canon()] = true
				}
			})
		}
		cur, err := px.adapter.IterKeys(All())
		if err != nil {
			px.readError(target, err)
			return 0
		}
		n := 0
		for cur.Next() {
			if !deleted[cur.Key().canon()] {
				n++
			}
		}
		if err := cur.Err(); err != nil {
			px.readError(target, err)
		}
		return n
	}
	px.insureFullyCached(target)
	return px.cache.Size()
}

func (px *proxy) keyOf(child Object) Key {
	if px.cache.kind.IsContainer() && px.cache.kind != DSrc {
		return px.cache.KeyOf(child)
	}
	return Key{}
}

func (px *proxy) setSlice(target Object, s Slice, vals []Object) {
	px.requireWrite(target)
	px.unsaved = true
	if px.meta.Sparse {
		px.probeType(target)
	} else {
		px.insureFullyCached(target)
	}
	px.cache.SetSlice(s, NewList(anySlice(vals)...))
	for _, child := range containerChildren(px.cache) {
		child.setParent(target)
	}
}

func anySlice(vals []Object) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func (px *proxy) delSlice(target Object, s Slice) {
	px.requireWrite(target)
	px.unsaved = true
	if px.meta.Sparse {
		px.probeType(target)
		keys := make(map[Key]bool)
		if px.cache.kind.IsMap() {
			px.cache.each(func(k Key, v Object) {
				if s.Contains(k) {
					if !v.isDeleted() {
						v.clearParent()
					}
					keys[k.canon()] = true
				}
			})
		}
		if !px.fullyCached {
			cur, err := px.adapter.IterKeys(s)
			if err != nil {
				px.readError(target, err)
			} else {
				for cur.Next() {
					keys[cur.Key().canon()] = true
				}
				if err := cur.Err(); err != nil {
					px.readError(target, err)
				}
			}
		}
		for k := range keys {
			px.cache.Set(k, Object{kind: Del})
		}
		return
	}
	px.insureFullyCached(target)
	px.cache.DelSlice(s)
}

// save writes dirty state back to the store. A fully cached node writes the
// whole value; a sparse node writes every live cached key and deletes the
// tombstoned ones, keeping keys that were never loaded intact. Commit fires
// once at the end so adapters can flush batches. The unsaved flag survives a
// failed write.
func (px *proxy) save(target Object) {
	if px.resolveMode(target)&ModeWrite == 0 {
		panic(&WriteProtectedError{})
	}
	if px.cache.IsEmpty() || !px.unsaved {
		return
	}
	px.writeFailed = false

	if px.meta.Sparse {
		// every cached entry goes out, changed or not; per-key dirty
		// tracking is deliberately not kept
		var deleted []Key
		px.cache.each(func(k Key, v Object) {
			if v.isDeleted() {
				if err := px.adapter.DeleteKey(k); err != nil {
					px.writeError(target, err)
				} else {
					deleted = append(deleted, k)
				}
			} else {
				if err := px.adapter.WriteKey(k, v); err != nil {
					px.writeError(target, err)
				}
			}
		})
		for _, k := range deleted {
			px.cache.Del(k)
		}
		px.commit(target, deleted)
	} else if px.fullyCached {
		if err := px.adapter.Write(px.cache); err != nil {
			px.writeError(target, err)
		}
		px.commit(target, nil)
	}

	if !px.writeFailed {
		px.unsaved = false
	}
}

func (px *proxy) commit(target Object, deleted []Key) {
	if err := px.adapter.Commit(px.cache, deleted); err != nil {
		px.writeError(target, err)
	}
}

// reset discards cached state and flags; the next access reloads.
func (px *proxy) reset() {
	px.fullyCached = false
	px.unsaved = false
	px.readFailed = false
	px.writeFailed = false
	px.cache = newObjectOfKind(px.meta.Kind)
}

// resetKey evicts one key from a sparse cache; on a complete store it resets
// everything.
func (px *proxy) resetKey(k Key) {
	if px.meta.Sparse {
		if !px.cache.IsEmpty() {
			px.cache.Del(k)
		}
	} else {
		px.reset()
	}
}

// refresh reloads a loaded node from the store, discarding unsaved changes.
// Unloaded nodes are left alone.
func (px *proxy) refresh(target Object) {
	if !px.fullyCached {
		return
	}
	px.reset()
	px.insureFullyCached(target)
}

func (px *proxy) refreshKey(target Object, k Key) {
	if px.meta.Sparse {
		if !px.cache.IsEmpty() {
			px.cache.Del(k)
		}
		px.get(target, k)
	} else {
		px.refresh(target)
	}
}

func (px *proxy) isValid(target Object) bool {
	if px.meta.Sparse {
		px.probeType(target)
	} else {
		px.insureFullyCached(target)
	}
	return !px.readFailed
}

// copyObject clones the binding with a memory origin and a deep copy of the
// fully loaded content.
func (px *proxy) copyObject(target Object) Object {
	data := px.cached(target).Copy()
	out := NewSource(px.adapter.NewInstance(OriginMemory), OriginMemory, px.opts)
	cp := out.blk.ds
	cp.cache = data
	cp.fullyCached = true
	cp.unsaved = true
	for _, child := range containerChildren(data) {
		child.setParent(out)
	}
	return out
}

// each iterates the raw cache entries of a map-kind cache, tombstones
// included.
func (o Object) each(fn func(Key, Object)) {
	switch o.kind {
	case SMap:
		o.blk.smap.each(fn)
	case OMap:
		o.blk.omap.each(fn)
	}
}

// Save writes every unsaved bound node in this subtree back to its store.
// Loaded multi-level sources are entered so nested bindings save too, but
// saving never causes a load.
func (o Object) Save() {
	walkTree(o, func(n Object) bool {
		if n.kind == DSrc {
			px := n.blk.ds
			return px.meta.MultiLevel && px.fullyCached
		}
		return true
	}, func(n Object) {
		if n.kind == DSrc {
			n.blk.ds.save(n)
		}
	})
}

// Reset discards cached data and dirty state, so the next access reloads from
// the store. No-op on unbound nodes.
func (o Object) Reset() {
	if o.kind == DSrc {
		o.blk.ds.reset()
	}
}

// ResetKey evicts a single key from a sparse bound node's cache.
func (o Object) ResetKey(key any) {
	if o.kind == DSrc {
		o.blk.ds.resetKey(NewKey(key))
	}
}

// Refresh reloads a loaded bound node from its store, discarding unsaved
// changes.
func (o Object) Refresh() {
	if o.kind == DSrc {
		o.blk.ds.refresh(o)
	}
}

// RefreshKey reloads a single key of a sparse bound node.
func (o Object) RefreshKey(key any) {
	if o.kind == DSrc {
		o.blk.ds.refreshKey(o, NewKey(key))
	}
}

// IsFullyCached reports whether a bound node has its entire value in memory.
// Unbound nodes are trivially cached.
func (o Object) IsFullyCached() bool {
	if o.kind == DSrc {
		return o.blk.ds.fullyCached
	}
	return true
}

// IsUnsaved reports whether a bound node has changes not yet written to its
// store.
func (o Object) IsUnsaved() bool {
	if o.kind == DSrc {
		return o.blk.ds.unsaved
	}
	return false
}
