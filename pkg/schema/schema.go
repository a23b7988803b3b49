// Package schema describes the profile editor: which fields each section
// shows, how they are edited and which values a select offers.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xrsl/cvago/pkg/bridge"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/profile"
)

// Kind selects the editor widget and the bridge used for a field.
type Kind string

const (
	KindText         Kind = "text"
	KindTextarea     Kind = "textarea"
	KindNumber       Kind = "number"
	KindBool         Kind = "bool"
	KindSelect       Kind = "select"
	KindList         Kind = "list"
	KindComma        Kind = "comma"
	KindLines        Kind = "lines"
	KindMetric       Kind = "metric"
	KindPresentation Kind = "presentation"
	KindSeniority    Kind = "seniority"
	KindTechnology   Kind = "technology"
)

// Multiline reports whether the field is edited in a text area.
func (k Kind) Multiline() bool {
	switch k {
	case KindTextarea, KindList, KindLines, KindPresentation:
		return true
	}
	return false
}

type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Field is one editable value. Path is relative to the section's item
// when the section has Items.
type Field struct {
	Path        string `yaml:"path"`
	Label       string `yaml:"label"`
	Kind        Kind   `yaml:"kind"`
	Options     string `yaml:"options"`
	Placeholder string `yaml:"placeholder"`
	Immutable   bool   `yaml:"immutable"`
	// When hides the field unless the value at the path before "=" equals
	// the text after it.
	When string `yaml:"when"`
}

// Section is a group of fields edited together.
type Section struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Hint     string   `yaml:"hint"`
	Items    string   `yaml:"items"`
	Template doc.Node `yaml:"template"`
	Fields   []Field  `yaml:"fields"`
}

// Repeated reports whether the section edits the elements of a list.
func (s Section) Repeated() bool { return s.Items != "" }

type Experience struct {
	Fields []Field   `yaml:"fields"`
	Groups []Section `yaml:"groups"`
}

// Schema is the parsed editor layout.
type Schema struct {
	Options    map[string][]Option `yaml:"options"`
	Sections   []Section           `yaml:"sections"`
	Experience Experience          `yaml:"experience"`

	byPattern map[string]Field
}

// Load parses an editor schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return Parse(data)
}

// Parse parses editor schema YAML.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) index() error {
	s.byPattern = map[string]Field{}
	add := func(prefix string, fields []Field) error {
		for i := range fields {
			f := &fields[i]
			if f.Path == "" {
				return fmt.Errorf("schema: field %q has no path", f.Label)
			}
			if f.Kind == "" {
				f.Kind = KindText
			}
			if f.Options != "" {
				if _, ok := s.Options[f.Options]; !ok {
					return fmt.Errorf("schema: field %s uses unknown options %q", f.Path, f.Options)
				}
			}
			s.byPattern[prefix+f.Path] = *f
		}
		return nil
	}
	for _, sec := range s.Sections {
		prefix := ""
		if sec.Repeated() {
			prefix = sec.Items + ".*."
		}
		if err := add(prefix, sec.Fields); err != nil {
			return err
		}
	}
	if err := add("experience.*.", s.Experience.Fields); err != nil {
		return err
	}
	for _, g := range s.Experience.Groups {
		if err := add("experience.*."+g.Items+".*.", g.Fields); err != nil {
			return err
		}
	}
	return nil
}

// Section returns the section with the given id.
func (s *Schema) Section(id string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}

// Group returns the experience group with the given id.
func (s *Schema) Group(id string) (Section, bool) {
	for _, g := range s.Experience.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Section{}, false
}

// OptionsFor returns the choices of a select field.
func (s *Schema) OptionsFor(f Field) []Option {
	return s.Options[f.Options]
}

// FieldForPath finds the field that edits the concrete path p.
func (s *Schema) FieldForPath(p doc.Path) (Field, bool) {
	f, ok := s.byPattern[p.Pattern()]
	return f, ok
}

// Allowed reports whether value is valid for f. Fields without options
// accept anything.
func (s *Schema) Allowed(f Field, value string) bool {
	opts := s.OptionsFor(f)
	if len(opts) == 0 {
		return true
	}
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Label returns the display label of value for a select field, or value.
func (s *Schema) Label(f Field, value string) string {
	for _, o := range s.OptionsFor(f) {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// Entry is a field bound to a concrete path of a document.
type Entry struct {
	Field   Field
	Path    doc.Path
	Binding bridge.Binding
}

// Entries expands section id over d: one entry per field, or per field
// and list element for repeated sections. Fields whose When condition is
// false are left out.
func (s *Schema) Entries(id string, d doc.Node) []Entry {
	sec, ok := s.Section(id)
	if !ok {
		return nil
	}
	if !sec.Repeated() {
		return s.bind(nil, sec.Fields, d, false)
	}
	base := doc.ParsePath(sec.Items)
	var out []Entry
	list, _ := doc.Get(d, base)
	for i := 0; i < list.Len(); i++ {
		out = append(out, s.bind(base.Append(doc.Index(i)), sec.Fields, d, false)...)
	}
	return out
}

// ExperienceEntries expands the fields and groups of experience[i].
func (s *Schema) ExperienceEntries(i int, d doc.Node) []Entry {
	base := profile.PathExperience.Append(doc.Index(i))
	out := s.bind(base, s.Experience.Fields, d, false)
	for _, g := range s.Experience.Groups {
		out = append(out, s.GroupEntries(i, g.ID, d)...)
	}
	return out
}

// GroupEntries expands one experience group of experience[i].
func (s *Schema) GroupEntries(i int, id string, d doc.Node) []Entry {
	g, ok := s.Group(id)
	if !ok {
		return nil
	}
	base := profile.PathExperience.Append(doc.Index(i)).Append(doc.ParsePath(g.Items)...)
	tech := g.ID == "technologies"
	list, _ := doc.Get(d, base)
	var out []Entry
	for j := 0; j < list.Len(); j++ {
		out = append(out, s.bind(base.Append(doc.Index(j)), g.Fields, d, tech)...)
	}
	return out
}

func (s *Schema) bind(base doc.Path, fields []Field, d doc.Node, technology bool) []Entry {
	var out []Entry
	for _, f := range fields {
		if !visible(f, base, d) {
			continue
		}
		p := base.Append(doc.ParsePath(f.Path)...)
		b := Binding(f, p)
		if technology {
			b = profile.TechnologyField(base, b)
		}
		out = append(out, Entry{Field: f, Path: p, Binding: b})
	}
	return out
}

func visible(f Field, base doc.Path, d doc.Node) bool {
	if f.When == "" {
		return true
	}
	path, want, _ := strings.Cut(f.When, "=")
	return doc.GetText(d, base.Append(doc.ParsePath(path)...)) == want
}

// Binding returns the bridge that edits f at path p.
func Binding(f Field, p doc.Path) bridge.Binding {
	switch f.Kind {
	case KindNumber:
		return bridge.Number(p)
	case KindBool:
		return bridge.Bool(p)
	case KindList:
		return bridge.List(p)
	case KindComma:
		return bridge.Comma(p)
	case KindLines:
		return bridge.Lines(p)
	case KindMetric:
		return profile.Metric(p)
	case KindPresentation:
		return bridge.Presentation(p)
	case KindSeniority:
		return profile.Seniority()
	case KindTechnology:
		item := p[:len(p)-1]
		return bridge.Binding{
			Compose: func(d doc.Node) string {
				t, _ := doc.Get(d, item)
				return profile.TechnologyName(t)
			},
			Decompose: bridge.Text(p).Decompose,
		}
	}
	return bridge.Text(p)
}

// NewItem returns a fresh element for a repeated section.
func (s Section) NewItem() doc.Node {
	if s.Template.IsMap() {
		return s.Template.Clone()
	}
	return doc.NewMap()
}

// BindingForPath returns the field and bridge that edit the concrete path
// p. Technology fields normalize their entry first.
func (s *Schema) BindingForPath(p doc.Path) (Field, bridge.Binding, bool) {
	f, ok := s.FieldForPath(p)
	if !ok {
		return Field{}, bridge.Binding{}, false
	}
	b := Binding(f, p)
	if len(p) == 5 && strings.HasPrefix(p.Pattern(), "experience.*.technologies.*.") {
		b = profile.TechnologyField(p[:4], b)
	}
	return f, b, true
}

// NewItemFor returns the element appended to the list at p, or false
// when p is not an editable list of records.
func (s *Schema) NewItemFor(p doc.Path) (doc.Node, bool) {
	switch p.Pattern() {
	case "experience":
		return profile.NewExperience(), true
	case "experience.*.facts":
		return profile.NewFact(), true
	case "experience.*.capabilities":
		return profile.NewCapability(), true
	case "experience.*.technologies":
		return profile.NewTechnology(""), true
	}
	for _, sec := range s.Sections {
		if sec.Repeated() && sec.Items == p.String() {
			return sec.NewItem(), true
		}
	}
	return doc.Node{}, false
}
