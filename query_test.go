package objtree

import "testing"

func TestQueryFindAll(t *testing.T) {
	root := MustParseJSON(`{
		"users": [
			{"name": "ann", "age": 34},
			{"name": "bob", "age": 42},
			{"name": "cyd", "age": 17}
		],
		"total": 3
	}`)

	q := MustCompileQuery(`key == "age" and value > 30`)
	found, err := root.FindAll(q)
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, len(found), 2)
	deepEqual(t, found[0].Int(), int64(34))
	deepEqual(t, found[1].Int(), int64(42))
}

func TestQueryFindFirst(t *testing.T) {
	root := MustParseJSON(`{"a": {"b": 1}, "c": 2}`)

	q := MustCompileQuery(`kind == "int"`)
	found, err := root.Find(q)
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, found.Int(), int64(1))
	deepEqual(t, found.Path().String(), "a.b")
}

func TestQueryByPathAndSize(t *testing.T) {
	root := MustParseJSON(`{"xs": [1, 2, 3], "ys": [4]}`)

	q := MustCompileQuery(`kind == "list" and size > 2`)
	found, err := root.FindAll(q)
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, len(found), 1)
	deepEqual(t, found[0].Path().String(), "xs")

	q = MustCompileQuery(`path == "ys[0]"`)
	one, err := root.Find(q)
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, one.Int(), int64(4))
}

func TestQueryNoMatch(t *testing.T) {
	root := MustParseJSON(`{"a": 1}`)
	found, err := root.Find(MustCompileQuery(`value == 99`))
	if err != nil {
		t.Fatal(err)
	}
	deepEqual(t, found.IsEmpty(), true)
}

func TestQueryCompileError(t *testing.T) {
	if _, err := CompileQuery(`kind ==`); err == nil {
		t.Errorf("** malformed expression should not compile")
	}
}
