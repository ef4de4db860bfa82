// Package value implements the engine's value universe: an immutable,
// tagged-union Value (string, list, map, or the invalid sentinel) allocated
// inside a caller-owned [Arena]. Values are cheap to copy by reference within
// one arena; moving a value to a different arena is an explicit, separate
// operation (see [Arena.Import]).
package value

import (
	"fmt"

	"github.com/ncdlang/ncd/strindex"
)

// Kind identifies the tag of a Value's tagged union.
type Kind uint8

const (
	// Invalid marks the error sentinel value; it carries no payload.
	Invalid Kind = iota
	// String is a byte string, optionally carrying an interned ID for
	// O(1) comparisons against other interned strings.
	String
	// List is an ordered sequence of Values.
	List
	// Map is an unordered key-to-value mapping; keys are themselves
	// Values (in practice always String values).
	Map
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Value is an immutable member of one [Arena]. The zero Value is Invalid.
type Value struct {
	kind  Kind
	str   string
	hasID bool
	id    strindex.ID
	list  []Value
	pairs []pair
}

type pair struct {
	key Value
	val Value
}

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v is anything other than the Invalid sentinel.
func (v Value) IsValid() bool { return v.kind != Invalid }

// Str returns the raw bytes of a String value. It panics if v is not a
// String — callers must check Kind first, matching the engine's convention
// of checking module-declared argument types before use.
func (v Value) Str() string {
	if v.kind != String {
		panic(fmt.Sprintf("value: Str called on %s value", v.kind))
	}
	return v.str
}

// StrID returns the interned ID of a String value and whether it has one.
func (v Value) StrID() (strindex.ID, bool) {
	if v.kind != String {
		return 0, false
	}
	return v.id, v.hasID
}

// List returns the elements of a List value.
func (v Value) List() []Value {
	if v.kind != List {
		panic(fmt.Sprintf("value: List called on %s value", v.kind))
	}
	return v.list
}

// Len returns the number of elements (List) or entries (Map); it is 0 for
// String and Invalid.
func (v Value) Len() int {
	switch v.kind {
	case List:
		return len(v.list)
	case Map:
		return len(v.pairs)
	default:
		return 0
	}
}

// MapGet looks up key by value equality in a Map value, returning the
// matched value and whether it was found.
func (v Value) MapGet(key Value) (Value, bool) {
	if v.kind != Map {
		return Value{}, false
	}
	for _, p := range v.pairs {
		if Equal(p.key, key) {
			return p.val, true
		}
	}
	return Value{}, false
}

// Equal reports whether a and b are the same value: same kind, and for
// strings, an ID-or-bytes comparison; for lists/maps, deep structural
// equality of their elements under the same rule.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Invalid:
		return true
	case String:
		return strindex.Equal(a.id, a.hasID, a.str, b.id, b.hasID, b.str)
	case List:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case Map:
		if len(a.pairs) != len(b.pairs) {
			return false
		}
		for _, ap := range a.pairs {
			bv, ok := b.MapGet(ap.key)
			if !ok || !Equal(ap.val, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Arena is a bump-style allocation scope for Values: a reference returned by
// an Arena method is valid only for the Arena's own lifetime. Arenas are
// not safe for concurrent use; the engine
// creates one per statement's argument evaluation and one per process for
// its `_args`, each confined to the single reactor goroutine.
type Arena struct {
	idx      *strindex.Index
	released bool
}

// NewArena creates an Arena that interns strings through idx. idx may be
// shared across arenas (it is the process-wide String Index); the Arena
// itself is not shared.
func NewArena(idx *strindex.Index) *Arena {
	return &Arena{idx: idx}
}

// Release marks the arena as finished. After Release, any further call that
// allocates through the Arena panics via [Arena.checkReleased] — the
// poisoning is unconditional, not a debug-only build, since the check costs
// one boolean comparison against the cost of silently handing out Values
// tied to a scope the caller already considers over.
func (a *Arena) Release() {
	a.released = true
}

// checkReleased panics if a has already been released. Called at the top
// of every method that allocates a Value.
func (a *Arena) checkReleased() {
	if a.released {
		panic("value: use of Arena after Release")
	}
}

// NewString allocates a String value, interning s through the Arena's
// String Index so later comparisons can use the fast ID path.
func (a *Arena) NewString(s string) Value {
	a.checkReleased()
	id := a.idx.Intern(s)
	return Value{kind: String, str: s, id: id, hasID: true}
}

// NewStringNoIntern allocates a String value without interning — used for
// values unlikely to be compared repeatedly (e.g. module-internal scratch
// strings), where paying for interning buys nothing.
func (a *Arena) NewStringNoIntern(s string) Value {
	a.checkReleased()
	return Value{kind: String, str: s}
}

// NewList allocates a List value from elems. elems is copied defensively so
// the caller's backing array can be reused.
func (a *Arena) NewList(elems []Value) Value {
	a.checkReleased()
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: List, list: cp}
}

// NewMap allocates a Map value from the given key/value pairs, in order.
func (a *Arena) NewMap(keys, vals []Value) Value {
	a.checkReleased()
	if len(keys) != len(vals) {
		panic("value: NewMap keys/vals length mismatch")
	}
	pairs := make([]pair, len(keys))
	for i := range keys {
		pairs[i] = pair{key: keys[i], val: vals[i]}
	}
	return Value{kind: Map, pairs: pairs}
}

// Invalid returns the Invalid sentinel value used to mark an error result.
func (a *Arena) Invalid() Value {
	a.checkReleased()
	return Value{kind: Invalid}
}

// Import deep-copies v (allocated in some other arena, or none) into a,
// re-interning any String payloads through a's own String Index. This is
// the engine's only sanctioned way to move a value across an arena
// boundary: deep copy is always explicit.
func (a *Arena) Import(v Value) Value {
	a.checkReleased()
	switch v.kind {
	case Invalid:
		return a.Invalid()
	case String:
		return a.NewString(v.str)
	case List:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			out[i] = a.Import(e)
		}
		return Value{kind: List, list: out}
	case Map:
		keys := make([]Value, len(v.pairs))
		vals := make([]Value, len(v.pairs))
		for i, p := range v.pairs {
			keys[i] = a.Import(p.key)
			vals[i] = a.Import(p.val)
		}
		return a.NewMap(keys, vals)
	default:
		return a.Invalid()
	}
}
