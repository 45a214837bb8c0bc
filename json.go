package objtree

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ToJSON renders the subtree as JSON. Maps of either flavor emit as JSON
// objects in their iteration order; non-string keys render through their text
// form. Bound nodes emit their loaded content.
func (o Object) ToJSON() string {
	var b strings.Builder
	writeJSON(&b, o)
	return b.String()
}

func writeJSON(b *strings.Builder, o Object) {
	r := o.resolve()
	switch r.kind {
	case Empty, Nil:
		b.WriteString("null")
	case Bool:
		if r.i != 0 {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(r.i, 10))
	case Uint:
		b.WriteString(strconv.FormatUint(uint64(r.i), 10))
	case Float:
		b.WriteString(strconv.FormatFloat(r.f, 'g', -1, 64))
	case Str:
		writeJSONString(b, r.blk.str)
	case List:
		b.WriteByte('[')
		for i, child := range r.blk.list {
			if i > 0 {
				b.WriteString(", ")
			}
			writeJSON(b, child)
		}
		b.WriteByte(']')
	case SMap, OMap:
		b.WriteByte('{')
		first := true
		r.each(func(k Key, v Object) {
			if v.isDeleted() {
				return
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			writeJSONString(b, k.ToStr())
			b.WriteString(": ")
			writeJSON(b, v)
		})
		b.WriteByte('}')
	default:
		panic(wrongType(r.kind))
	}
}

func writeJSONString(b *strings.Builder, s string) {
	enc, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	b.Write(enc)
}

// JSONOptions control parsing.
type JSONOptions struct {
	// SortedMaps stores JSON objects as sorted maps instead of
	// insertion-ordered maps.
	SortedMaps bool
}

// ParseJSON parses a JSON document into an Object. Objects preserve their key
// order by default. Numbers become Int when they fit, Uint when they are
// integral but too large, and Float otherwise.
func ParseJSON(src string, opts ...JSONOptions) (Object, error) {
	var opt JSONOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	obj, err := decodeJSONValue(dec, opt)
	if err != nil {
		return Object{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Object{}, fmt.Errorf("objtree: trailing data after JSON value at offset %d", dec.InputOffset())
	}
	return obj, nil
}

// MustParseJSON is ParseJSON for literals in code; it panics on error.
func MustParseJSON(src string, opts ...JSONOptions) Object {
	obj, err := ParseJSON(src, opts...)
	if err != nil {
		panic(err)
	}
	return obj
}

func decodeJSONValue(dec *json.Decoder, opt JSONOptions) (Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return Object{}, jsonErr(dec, err)
	}
	return decodeJSONToken(dec, tok, opt)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token, opt JSONOptions) (Object, error) {
	switch tok := tok.(type) {
	case nil:
		return nilValue, nil
	case bool:
		return boolObject(tok), nil
	case string:
		return strObject(tok), nil
	case json.Number:
		return numberObject(tok), nil
	case json.Delim:
		switch tok {
		case '[':
			out := newContainer(List)
			for dec.More() {
				v, err := decodeJSONValue(dec, opt)
				if err != nil {
					return Object{}, err
				}
				v.setParent(out)
				out.blk.list = append(out.blk.list, v)
			}
			if _, err := dec.Token(); err != nil {
				return Object{}, jsonErr(dec, err)
			}
			return out, nil
		case '{':
			kind := OMap
			if opt.SortedMaps {
				kind = SMap
			}
			out := newContainer(kind)
			for dec.More() {
				ktok, err := dec.Token()
				if err != nil {
					return Object{}, jsonErr(dec, err)
				}
				key := StrKey(ktok.(string))
				v, err := decodeJSONValue(dec, opt)
				if err != nil {
					return Object{}, err
				}
				v.setParent(out)
				switch kind {
				case SMap:
					out.blk.smap.put(key, v)
				case OMap:
					out.blk.omap.put(key, v)
				}
			}
			if _, err := dec.Token(); err != nil {
				return Object{}, jsonErr(dec, err)
			}
			return out, nil
		}
	}
	return Object{}, fmt.Errorf("objtree: unexpected JSON token %v", tok)
}

func numberObject(n json.Number) Object {
	if i, err := n.Int64(); err == nil {
		return intObject(i)
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return uintObject(u)
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nilValue
	}
	return floatObject(f)
}

func jsonErr(dec *json.Decoder, err error) error {
	if err == io.EOF {
		return fmt.Errorf("objtree: unexpected end of JSON input")
	}
	return fmt.Errorf("objtree: invalid JSON at offset %d: %w", dec.InputOffset(), err)
}
