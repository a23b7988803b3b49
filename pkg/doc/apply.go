package doc

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrIndexRange is returned by Reachable for an index more than one past
// the end of its sequence.
var ErrIndexRange = errors.New("index out of range")

// Apply returns a copy of document with value stored at path. The input is
// never modified and the result shares no storage with it.
//
// Missing intermediates are created: a sequence when the next key is an
// index, a mapping otherwise. Scalars and nulls in the way are replaced by
// the container the next key needs. Indexing past the end of a sequence pads
// it with nulls; a negative index appends. An index applied to a mapping uses
// its decimal text as the key, and a name applied to a sequence replaces the
// sequence with a mapping.
func Apply(document Node, path Path, value Node) Node {
	if len(path) == 0 {
		return value.Clone()
	}
	return set(document.Clone(), path, value.Clone())
}

// Reachable checks that Apply at path grows each sequence on the way by at
// most one element. Indices into mappings are keys and always pass.
func Reachable(document Node, path Path) error {
	cur, exists := document, true
	for i, k := range path {
		if k.IsIndex && k.Index >= 0 && (!exists || cur.kind != KindMap) {
			n := 0
			if exists && cur.kind == KindSeq {
				n = len(cur.seq)
			}
			if k.Index > n {
				return fmt.Errorf("%w: %s (%d items)", ErrIndexRange, path[:i+1], n)
			}
		}
		if exists {
			cur, exists = child(cur, k)
		}
	}
	return nil
}

// Get reads the node at path.
func Get(document Node, path Path) (Node, bool) {
	cur := document
	for _, k := range path {
		var ok bool
		cur, ok = child(cur, k)
		if !ok {
			return Node{}, false
		}
	}
	return cur, true
}

// GetText reads the node at path and renders it with Text.
func GetText(document Node, path Path) string {
	n, _ := Get(document, path)
	return n.Text()
}

// Remove returns a copy of document without the node at path. Removing from
// a sequence shifts later elements down. Missing paths are a no-op.
func Remove(document Node, path Path) Node {
	if len(path) == 0 {
		return Null()
	}
	out := document.Clone()
	parent, ok := Get(out, path[:len(path)-1])
	if !ok {
		return out
	}
	last := path[len(path)-1]
	switch {
	case parent.kind == KindSeq && last.IsIndex:
		if last.Index < 0 || last.Index >= len(parent.seq) {
			return out
		}
		seq := make([]Node, 0, len(parent.seq)-1)
		seq = append(seq, parent.seq[:last.Index]...)
		seq = append(seq, parent.seq[last.Index+1:]...)
		parent.seq = seq
	case parent.kind == KindMap:
		parent.deleteKey(mapKey(last))
	default:
		return out
	}
	if len(path) == 1 {
		return parent
	}
	return set(out, path[:len(path)-1], parent)
}

// Append returns a copy of document with value appended to the sequence at
// path, creating it when missing.
func Append(document Node, path Path, value Node) Node {
	return Apply(document, path.Append(Index(-1)), value)
}

func set(cur Node, path Path, value Node) Node {
	key := path[0]
	c := container(cur, key)
	if len(path) == 1 {
		return put(c, key, value)
	}
	next, _ := child(c, key)
	return put(c, key, set(next, path[1:], value))
}

// container returns cur when it can hold key, or a fresh container that can.
func container(cur Node, key Key) Node {
	switch cur.kind {
	case KindMap:
		return cur
	case KindSeq:
		if key.IsIndex {
			return cur
		}
		return NewMap()
	}
	if key.IsIndex {
		return Node{kind: KindSeq}
	}
	return NewMap()
}

func put(c Node, key Key, value Node) Node {
	if c.kind == KindMap {
		c.setKey(mapKey(key), value)
		return c
	}
	i := key.Index
	if i < 0 {
		i = len(c.seq)
	}
	for len(c.seq) <= i {
		c.seq = append(c.seq, Null())
	}
	c.seq[i] = value
	return c
}

func child(cur Node, key Key) (Node, bool) {
	switch cur.kind {
	case KindMap:
		v, ok := cur.m[mapKey(key)]
		return v, ok
	case KindSeq:
		if !key.IsIndex {
			return Node{}, false
		}
		return cur.At(key.Index)
	}
	return Node{}, false
}

func mapKey(k Key) string {
	if k.IsIndex {
		return strconv.Itoa(k.Index)
	}
	return k.Name
}
