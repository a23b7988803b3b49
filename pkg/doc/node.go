// Package doc is a small JSON-shaped document tree with clone-on-write
// mutation by path.
package doc

import (
	"math"
	"sort"
	"strconv"
)

// Kind identifies which variant a Node holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindSeq
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindSeq:
		return "seq"
	}
	return "unknown"
}

// Node is one value in a document tree. The zero value is null.
//
// Maps remember insertion order so documents round-trip with their
// fields where the author put them.
type Node struct {
	kind Kind
	str  string
	num  float64
	b    bool
	keys []string
	m    map[string]Node
	seq  []Node
}

func Null() Node { return Node{} }
func String(s string) Node { return Node{kind: KindString, str: s} }
func Number(n float64) Node { return Node{kind: KindNumber, num: n} }
func Bool(b bool) Node { return Node{kind: KindBool, b: b} }
func Int(n int) Node { return Number(float64(n)) }
func NewMap() Node { return Node{kind: KindMap, m: map[string]Node{}} }
func NewSeq(items ...Node) Node {
	seq := make([]Node, len(items))
	for i, it := range items {
		seq[i] = it.Clone()
	}
	return Node{kind: KindSeq, seq: seq}
}

// Strings builds a sequence of string nodes.
func Strings(items []string) Node {
	seq := make([]Node, len(items))
	for i, s := range items {
		seq[i] = String(s)
	}
	return Node{kind: KindSeq, seq: seq}
}

// Field is a key/value pair used by MapOf.
type Field struct {
	Key   string
	Value Node
}

// MapOf builds a map preserving the order of fields.
func MapOf(fields ...Field) Node {
	n := NewMap()
	for _, f := range fields {
		n.setKey(f.Key, f.Value.Clone())
	}
	return n
}

func (n Node) Kind() Kind { return n.kind }
func (n Node) IsNull() bool { return n.kind == KindNull }
func (n Node) IsMap() bool { return n.kind == KindMap }
func (n Node) IsSeq() bool { return n.kind == KindSeq }
func (n Node) IsString() bool { return n.kind == KindString }
func (n Node) IsNumber() bool { return n.kind == KindNumber }

// Str returns the string value when n is a string.
func (n Node) Str() (string, bool) {
	if n.kind != KindString {
		return "", false
	}
	return n.str, true
}

// Num returns the numeric value when n is a number.
func (n Node) Num() (float64, bool) {
	if n.kind != KindNumber {
		return 0, false
	}
	return n.num, true
}

// BoolValue returns the boolean value when n is a bool.
func (n Node) BoolValue() (bool, bool) {
	if n.kind != KindBool {
		return false, false
	}
	return n.b, true
}

// Text renders scalars as display text. Null and containers render empty.
func (n Node) Text() string {
	switch n.kind {
	case KindString:
		return n.str
	case KindNumber:
		return formatNumber(n.num)
	case KindBool:
		return strconv.FormatBool(n.b)
	}
	return ""
}

// Truthy reports whether n counts as set: non-empty strings, non-zero
// numbers, true, and any container.
func (n Node) Truthy() bool {
	switch n.kind {
	case KindString:
		return n.str != ""
	case KindNumber:
		return n.num != 0 && !math.IsNaN(n.num)
	case KindBool:
		return n.b
	case KindMap, KindSeq:
		return true
	}
	return false
}

// Len is the number of entries of a map or sequence.
func (n Node) Len() int {
	switch n.kind {
	case KindMap:
		return len(n.keys)
	case KindSeq:
		return len(n.seq)
	}
	return 0
}

// Keys returns the map keys in insertion order.
func (n Node) Keys() []string {
	if n.kind != KindMap {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Field returns the value stored under key in a map.
func (n Node) Field(key string) (Node, bool) {
	if n.kind != KindMap {
		return Node{}, false
	}
	v, ok := n.m[key]
	return v, ok
}

// At returns the i-th element of a sequence.
func (n Node) At(i int) (Node, bool) {
	if n.kind != KindSeq || i < 0 || i >= len(n.seq) {
		return Node{}, false
	}
	return n.seq[i], true
}

// Items returns the elements of a sequence. The slice is a copy; the
// elements share storage with n and must not be mutated.
func (n Node) Items() []Node {
	if n.kind != KindSeq {
		return nil
	}
	out := make([]Node, len(n.seq))
	copy(out, n.seq)
	return out
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	switch n.kind {
	case KindMap:
		c := Node{kind: KindMap, keys: make([]string, len(n.keys)), m: make(map[string]Node, len(n.m))}
		copy(c.keys, n.keys)
		for k, v := range n.m {
			c.m[k] = v.Clone()
		}
		return c
	case KindSeq:
		c := Node{kind: KindSeq, seq: make([]Node, len(n.seq))}
		for i, v := range n.seq {
			c.seq[i] = v.Clone()
		}
		return c
	}
	return n
}

// Equal reports deep equality. Map key order is ignored.
func (n Node) Equal(o Node) bool {
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindNull:
		return true
	case KindString:
		return n.str == o.str
	case KindNumber:
		return n.num == o.num
	case KindBool:
		return n.b == o.b
	case KindMap:
		if len(n.m) != len(o.m) {
			return false
		}
		for k, v := range n.m {
			ov, ok := o.m[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case KindSeq:
		if len(n.seq) != len(o.seq) {
			return false
		}
		for i := range n.seq {
			if !n.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// setKey mutates n in place; callers own n.
func (n *Node) setKey(key string, v Node) {
	if n.m == nil {
		n.m = map[string]Node{}
	}
	if _, ok := n.m[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.m[key] = v
}

func (n *Node) deleteKey(key string) {
	if _, ok := n.m[key]; !ok {
		return
	}
	delete(n.m, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i:i], n.keys[i+1:]...)
			break
		}
	}
}

// FromAny converts decoded Go values (as produced by encoding/json or
// yaml.v3) into a Node. Map keys of plain Go maps are sorted since their
// order is not known.
func FromAny(v any) Node {
	switch t := v.(type) {
	case nil:
		return Null()
	case Node:
		return t.Clone()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case []string:
		return Strings(t)
	case []any:
		n := Node{kind: KindSeq, seq: make([]Node, len(t))}
		for i, it := range t {
			n.seq[i] = FromAny(it)
		}
		return n
	case map[string]string:
		n := NewMap()
		for _, k := range sortedKeys(t) {
			n.setKey(k, String(t[k]))
		}
		return n
	case map[string]any:
		n := NewMap()
		for _, k := range sortedKeys(t) {
			n.setKey(k, FromAny(t[k]))
		}
		return n
	}
	n, err := FromValue(v)
	if err != nil {
		return Null()
	}
	return n
}

// Interface converts n into plain Go values.
func (n Node) Interface() any {
	switch n.kind {
	case KindString:
		return n.str
	case KindNumber:
		return n.num
	case KindBool:
		return n.b
	case KindMap:
		out := make(map[string]any, len(n.m))
		for k, v := range n.m {
			out[k] = v.Interface()
		}
		return out
	case KindSeq:
		out := make([]any, len(n.seq))
		for i, v := range n.seq {
			out[i] = v.Interface()
		}
		return out
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
