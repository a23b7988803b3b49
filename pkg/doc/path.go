package doc

import (
	"strconv"
	"strings"
)

// Key is one step of a Path: a mapping key or a sequence index.
type Key struct {
	Name    string
	Index   int
	IsIndex bool
}

// Name returns a mapping key.
func Name(s string) Key { return Key{Name: s} }

// Index returns a sequence index key.
func Index(i int) Key { return Key{Index: i, IsIndex: true} }

func (k Key) String() string {
	if k.IsIndex {
		return strconv.Itoa(k.Index)
	}
	return k.Name
}

// Path addresses a node inside a document.
type Path []Key

// ParsePath splits a dotted path. Segments made only of ASCII digits are
// indices: "experience.0.facts.1.metric".
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		if isDigits(part) {
			n, err := strconv.Atoi(part)
			if err == nil {
				p[i] = Index(n)
				continue
			}
		}
		p[i] = Name(part)
	}
	return p
}

// P builds a path from strings and ints.
func P(keys ...any) Path {
	p := make(Path, 0, len(keys))
	for _, k := range keys {
		switch v := k.(type) {
		case int:
			p = append(p, Index(v))
		case string:
			p = append(p, Name(v))
		case Key:
			p = append(p, v)
		}
	}
	return p
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, k := range p {
		parts[i] = k.String()
	}
	return strings.Join(parts, ".")
}

// Append returns a new path with keys added. p is left untouched.
func (p Path) Append(keys ...Key) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

// Pattern replaces every index with "*", e.g. "experience.*.facts.*.metric".
func (p Path) Pattern() string {
	parts := make([]string, len(p))
	for i, k := range p {
		if k.IsIndex {
			parts[i] = "*"
		} else {
			parts[i] = k.Name
		}
	}
	return strings.Join(parts, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
