package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xrsl/cvago/pkg/bridge"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/schema"
)

// field is one open editor: the schema entry, its buffer and the widget
// the text is typed into. Typing only reaches the buffer.
type field struct {
	entry   schema.Entry
	buf     *bridge.Buffer
	options []schema.Option
	input   textinput.Model
	area    textarea.Model
}

func newField(sch *schema.Schema, e schema.Entry, d doc.Node, width int) *field {
	f := &field{entry: e, buf: bridge.NewBuffer(e.Binding), options: sch.OptionsFor(e.Field)}
	f.buf.Open(d)
	switch {
	case f.choice():
	case e.Field.Kind.Multiline():
		f.area = textarea.New()
		f.area.ShowLineNumbers = false
		f.area.CharLimit = 0
		f.area.Placeholder = e.Field.Placeholder
		f.area.SetWidth(width)
		f.area.SetHeight(4)
		f.area.SetValue(f.buf.Text())
		f.area.Blur()
	default:
		f.input = textinput.New()
		f.input.Prompt = ""
		f.input.Placeholder = e.Field.Placeholder
		f.input.Width = width
		f.input.SetValue(f.buf.Text())
		f.input.Blur()
	}
	return f
}

// choice reports whether the field is picked rather than typed.
func (f *field) choice() bool {
	return len(f.options) > 0 || f.entry.Field.Kind == schema.KindBool
}

func (f *field) multiline() bool {
	return !f.choice() && f.entry.Field.Kind.Multiline()
}

func (f *field) focus() tea.Cmd {
	switch {
	case f.choice():
		return nil
	case f.multiline():
		return f.area.Focus()
	}
	return f.input.Focus()
}

func (f *field) blur() {
	if f.multiline() {
		f.area.Blur()
	} else if !f.choice() {
		f.input.Blur()
	}
}

// update forwards msg to the widget and copies its text into the buffer.
func (f *field) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case f.choice():
		return nil
	case f.multiline():
		f.area, cmd = f.area.Update(msg)
		f.buf.SetText(f.area.Value())
	default:
		f.input, cmd = f.input.Update(msg)
		f.buf.SetText(f.input.Value())
	}
	return cmd
}

// cycle moves a choice field by step options, wrapping around.
func (f *field) cycle(step int) {
	if f.entry.Field.Kind == schema.KindBool && len(f.options) == 0 {
		v, _ := strconv.ParseBool(f.buf.Text())
		f.buf.SetText(strconv.FormatBool(!v))
		return
	}
	values := make([]string, 0, len(f.options)+1)
	hasEmpty := false
	for _, o := range f.options {
		values = append(values, o.Value)
		hasEmpty = hasEmpty || o.Value == ""
	}
	// An unset select can always go back to empty.
	if !hasEmpty {
		values = append([]string{""}, values...)
	}
	cur := 0
	for i, v := range values {
		if v == f.buf.Text() {
			cur = i
			break
		}
	}
	next := (cur + step + len(values)) % len(values)
	f.buf.SetText(values[next])
}

func (f *field) label() string {
	l := f.entry.Field.Label
	if l == "" {
		l = f.entry.Field.Path
	}
	list, i, ok := itemList(f.entry.Path)
	// Fields of the experience entry itself carry no number.
	if ok && list.String() != "experience" {
		l = fmt.Sprintf("%s #%d", l, i+1)
	}
	if f.entry.Field.Immutable {
		l += " (kept as is)"
	}
	return l
}

// display is the current value as shown for a choice field.
func (f *field) display(sch *schema.Schema) string {
	v := f.buf.Text()
	if v == "" {
		return "—"
	}
	return sch.Label(f.entry.Field, v)
}

func (f *field) view() string {
	if f.multiline() {
		return f.area.View()
	}
	return f.input.View()
}

// itemList returns the path of the list holding the item the entry at p
// belongs to, and the item index.
func itemList(p doc.Path) (doc.Path, int, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].IsIndex {
			return p[:i], p[i].Index, true
		}
	}
	return nil, 0, false
}
