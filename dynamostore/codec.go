package dynamostore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/objtree"
)

// Partition keys encode as a kind digit, a colon, and the key's text form,
// so every key kind round-trips through the table's string attribute.
func encodeKey(k objtree.Key) string {
	switch k.Kind() {
	case objtree.Nil:
		return "0:"
	case objtree.Bool:
		return "1:" + k.ToStr()
	case objtree.Int:
		return "2:" + strconv.FormatInt(k.Int(), 10)
	case objtree.Uint:
		return "3:" + strconv.FormatUint(k.Uint(), 10)
	case objtree.Float:
		return "4:" + strconv.FormatFloat(k.Float(), 'g', -1, 64)
	case objtree.Str:
		return "5:" + k.Str()
	}
	panic(fmt.Sprintf("dynamostore: cannot encode %v key", k.Kind()))
}

func decodeKey(s string) (objtree.Key, error) {
	tag, rest, ok := strings.Cut(s, ":")
	if !ok || len(tag) != 1 {
		return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
	}
	switch tag[0] {
	case '0':
		return objtree.NewKey(nil), nil
	case '1':
		b, err := strconv.ParseBool(rest)
		if err != nil {
			return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
		}
		return objtree.BoolKey(b), nil
	case '2':
		i, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
		}
		return objtree.IntKey(i), nil
	case '3':
		u, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
		}
		return objtree.UintKey(u), nil
	case '4':
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
		}
		return objtree.FloatKey(f), nil
	case '5':
		return objtree.StrKey(rest), nil
	}
	return objtree.Key{}, fmt.Errorf("dynamostore: malformed key %q", s)
}

func encodeValue(v objtree.Object) ([]byte, error) {
	return msgpack.Marshal(v.Interface())
}

func decodeValue(data []byte) (objtree.Object, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return objtree.Object{}, fmt.Errorf("dynamostore: malformed value: %w", err)
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
