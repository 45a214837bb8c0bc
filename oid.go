package objtree

import (
	"fmt"
	"math"
	"sync/atomic"
)

// ID identifies a node. Strings, containers and bound nodes receive a
// process-unique serial number on first use; other scalars are identified by
// kind and value, so equal scalars share an ID.
type ID struct {
	tag uint8
	id  uint64
}

var blockSerial atomic.Uint64

func (b *block) serial() uint64 {
	if b.id == 0 {
		b.id = blockSerial.Add(1)
	}
	return b.id
}

// ID returns a stable identifier for the node: equal for all handles on the
// same node, distinct across nodes with identity.
func (o Object) ID() ID {
	switch o.kind {
	case Empty, Nil:
		return ID{tag: uint8(o.kind)}
	case Bool, Int, Uint:
		return ID{tag: uint8(o.kind), id: uint64(o.i)}
	case Float:
		return ID{tag: uint8(Float), id: math.Float64bits(o.f)}
	default:
		return ID{tag: uint8(o.kind), id: o.blk.serial()}
	}
}

func (d ID) String() string {
	return fmt.Sprintf("%x.%x", d.tag, d.id)
}
