package boltstore

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/objtree"
)

// Keys encode as one tag byte plus an order-preserving payload, so a bolt
// cursor walks same-kind keys in Key order. Kinds sort by tag: nil, bool,
// int, uint, float, string.
const (
	tagNil   = 0x01
	tagBool  = 0x02
	tagInt   = 0x03
	tagUint  = 0x04
	tagFloat = 0x05
	tagStr   = 0x06
)

func encodeKey(k objtree.Key) []byte {
	switch k.Kind() {
	case objtree.Nil:
		return []byte{tagNil}
	case objtree.Bool:
		if k.Bool() {
			return []byte{tagBool, 1}
		}
		return []byte{tagBool, 0}
	case objtree.Int:
		var buf [9]byte
		buf[0] = tagInt
		// flipping the sign bit makes big-endian bytes sort numerically
		binary.BigEndian.PutUint64(buf[1:], uint64(k.Int())^(1<<63))
		return buf[:]
	case objtree.Uint:
		var buf [9]byte
		buf[0] = tagUint
		binary.BigEndian.PutUint64(buf[1:], k.Uint())
		return buf[:]
	case objtree.Float:
		var buf [9]byte
		buf[0] = tagFloat
		binary.BigEndian.PutUint64(buf[1:], sortableFloatBits(k.Float()))
		return buf[:]
	case objtree.Str:
		s := k.Str()
		buf := make([]byte, 1+len(s))
		buf[0] = tagStr
		copy(buf[1:], s)
		return buf
	}
	panic(fmt.Sprintf("boltstore: cannot encode %v key", k.Kind()))
}

// sortableFloatBits maps float bits so unsigned byte order matches numeric
// order: positive floats get the sign bit set, negative floats are inverted.
func sortableFloatBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func floatFromSortableBits(bits uint64) float64 {
	if bits&(1<<63) != 0 {
		return math.Float64frombits(bits &^ (1 << 63))
	}
	return math.Float64frombits(^bits)
}

func decodeKey(data []byte) (objtree.Key, error) {
	if len(data) == 0 {
		return objtree.Key{}, fmt.Errorf("boltstore: empty key")
	}
	switch data[0] {
	case tagNil:
		return objtree.NewKey(nil), nil
	case tagBool:
		if len(data) != 2 {
			break
		}
		return objtree.BoolKey(data[1] != 0), nil
	case tagInt:
		if len(data) != 9 {
			break
		}
		return objtree.IntKey(int64(binary.BigEndian.Uint64(data[1:]) ^ (1 << 63))), nil
	case tagUint:
		if len(data) != 9 {
			break
		}
		return objtree.UintKey(binary.BigEndian.Uint64(data[1:])), nil
	case tagFloat:
		if len(data) != 9 {
			break
		}
		return objtree.FloatKey(floatFromSortableBits(binary.BigEndian.Uint64(data[1:]))), nil
	case tagStr:
		return objtree.StrKey(string(data[1:])), nil
	}
	return objtree.Key{}, fmt.Errorf("boltstore: malformed key %x", data)
}

func encodeValue(v objtree.Object) ([]byte, error) {
	return msgpack.Marshal(v.Interface())
}

func decodeValue(data []byte) (objtree.Object, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return objtree.Object{}, fmt.Errorf("boltstore: malformed value: %w", err)
	}
	return fromAny(v), nil
}

func fromAny(v any) objtree.Object {
	switch v := v.(type) {
	case map[string]any:
		kv := make([]any, 0, len(v)*2)
		for k, val := range v {
			kv = append(kv, k, fromAny(val))
		}
		return objtree.NewSMap(kv...)
	case map[any]any:
		kv := make([]any, 0, len(v)*2)
		for k, val := range v {
			kv = append(kv, k, fromAny(val))
		}
		return objtree.NewSMap(kv...)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = fromAny(item)
		}
		return objtree.NewList(items...)
	default:
		return objtree.New(v)
	}
}
