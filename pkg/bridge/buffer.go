package bridge

import (
	"math"
	"strconv"
	"strings"

	"github.com/xrsl/cvago/pkg/doc"
)

// Binding ties a piece of editable text to a document. Compose derives the
// text, Decompose writes text back and returns the new document.
type Binding struct {
	Compose   func(d doc.Node) string
	Decompose func(d doc.Node, text string) doc.Node
}

// Buffer holds the text of one field while it is being edited. Typing only
// changes the buffer; the document is written on Commit.
type Buffer struct {
	binding Binding
	text    string
	open    bool
	dirty   bool
}

func NewBuffer(b Binding) *Buffer {
	return &Buffer{binding: b}
}

// Open re-derives the text from d, discarding any pending edit.
func (b *Buffer) Open(d doc.Node) {
	b.text = b.binding.Compose(d)
	b.open = true
	b.dirty = false
}

func (b *Buffer) IsOpen() bool { return b.open }
func (b *Buffer) Dirty() bool { return b.dirty }
func (b *Buffer) Text() string { return b.text }

// SetText replaces the buffered text.
func (b *Buffer) SetText(s string) {
	if s == b.text {
		return
	}
	b.text = s
	b.dirty = true
}

// Commit writes pending text into d. A clean buffer returns d unchanged.
func (b *Buffer) Commit(d doc.Node) doc.Node {
	if !b.open || !b.dirty {
		return d
	}
	b.dirty = false
	return b.binding.Decompose(d, b.text)
}

// Close commits and closes the buffer.
func (b *Buffer) Close(d doc.Node) doc.Node {
	d = b.Commit(d)
	b.open = false
	return d
}

// Presentation binds the narrative headline, core identity and career goal
// under base.
func Presentation(base doc.Path) Binding {
	h, c, g := base.Append(doc.Name("headline")), base.Append(doc.Name("coreIdentity")), base.Append(doc.Name("careerGoal"))
	return Binding{
		Compose: func(d doc.Node) string {
			return ComposePresentation(doc.GetText(d, h), doc.GetText(d, c), doc.GetText(d, g))
		},
		Decompose: func(d doc.Node, text string) doc.Node {
			headline, core, goal := DecomposePresentation(text)
			d = doc.Apply(d, h, doc.String(headline))
			d = doc.Apply(d, c, doc.String(core))
			return doc.Apply(d, g, doc.String(goal))
		},
	}
}

// List binds a string sequence edited one item per line (commas also split).
func List(p doc.Path) Binding {
	return Binding{
		Compose:   func(d doc.Node) string { return JoinList(StringsAt(d, p)) },
		Decompose: func(d doc.Node, text string) doc.Node { return doc.Apply(d, p, doc.Strings(SplitList(text))) },
	}
}

// Comma binds a string sequence edited as a comma separated line.
func Comma(p doc.Path) Binding {
	return Binding{
		Compose:   func(d doc.Node) string { return JoinComma(StringsAt(d, p)) },
		Decompose: func(d doc.Node, text string) doc.Node { return doc.Apply(d, p, doc.Strings(SplitComma(text))) },
	}
}

// Lines binds a string sequence edited one item per line.
func Lines(p doc.Path) Binding {
	return Binding{
		Compose:   func(d doc.Node) string { return JoinList(StringsAt(d, p)) },
		Decompose: func(d doc.Node, text string) doc.Node { return doc.Apply(d, p, doc.Strings(SplitLines(text))) },
	}
}

// Text binds a plain string field.
func Text(p doc.Path) Binding {
	return Binding{
		Compose:   func(d doc.Node) string { return doc.GetText(d, p) },
		Decompose: func(d doc.Node, text string) doc.Node { return doc.Apply(d, p, doc.String(text)) },
	}
}

// Number binds a numeric field. Text that does not parse stores 0.
func Number(p doc.Path) Binding {
	return Binding{
		Compose: func(d doc.Node) string { return doc.GetText(d, p) },
		Decompose: func(d doc.Node, text string) doc.Node {
			f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				f = 0
			}
			return doc.Apply(d, p, doc.Number(f))
		},
	}
}

// Bool binds a boolean field; "true", "yes" and "1" are true.
func Bool(p doc.Path) Binding {
	return Binding{
		Compose: func(d doc.Node) string {
			n, _ := doc.Get(d, p)
			if b, ok := n.BoolValue(); ok {
				return strconv.FormatBool(b)
			}
			return "false"
		},
		Decompose: func(d doc.Node, text string) doc.Node {
			switch strings.ToLower(strings.TrimSpace(text)) {
			case "true", "yes", "1", "y":
				return doc.Apply(d, p, doc.Bool(true))
			}
			return doc.Apply(d, p, doc.Bool(false))
		},
	}
}

// StringsAt returns the items of the string sequence at p. Non-string
// scalars are rendered as text; anything else is skipped.
func StringsAt(d doc.Node, p doc.Path) []string {
	n, ok := doc.Get(d, p)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range n.Items() {
		if s := it.Text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
