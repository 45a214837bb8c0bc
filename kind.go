package objtree

// Kind identifies the representation of an Object or Key.
//
// The zero Kind is Empty: an Object carrying no value at all. Nil is a real
// value (the null of the data model). Del marks a pending sparse delete inside
// a data-source cache and is never returned to callers.
type Kind uint8

const (
	Empty Kind = iota
	Nil
	Bool
	Int
	Uint
	Float
	Str
	List
	SMap
	OMap
	DSrc
	Del
)

var kindNames = [...]string{
	Empty: "empty",
	Nil:   "nil",
	Bool:  "bool",
	Int:   "int",
	Uint:  "uint",
	Float: "float",
	Str:   "str",
	List:  "list",
	SMap:  "smap",
	OMap:  "omap",
	DSrc:  "source",
	Del:   "deleted",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsScalar reports whether the kind is an inline scalar (no backing block).
func (k Kind) IsScalar() bool {
	switch k {
	case Nil, Bool, Int, Uint, Float:
		return true
	}
	return false
}

// IsContainer reports whether the kind holds child values.
func (k Kind) IsContainer() bool {
	switch k {
	case List, SMap, OMap, DSrc:
		return true
	}
	return false
}

// IsMap reports whether the kind is one of the two map representations.
func (k Kind) IsMap() bool {
	return k == SMap || k == OMap
}
