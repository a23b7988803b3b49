package profile

import (
	"math"
	"strconv"
	"strings"

	"github.com/xrsl/cvago/pkg/bridge"
	"github.com/xrsl/cvago/pkg/doc"
)

// ParseMetric turns metric text into a finite number, or null when the text
// is empty or not a number.
func ParseMetric(text string) doc.Node {
	s := strings.TrimSpace(text)
	if s == "" {
		return doc.Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return doc.Null()
	}
	return doc.Number(f)
}

// FactPath addresses facts[fact] of experience[exp].
func FactPath(exp, fact int) doc.Path {
	return doc.P("experience", exp, "facts", fact)
}

// CapabilityPath addresses capabilities[c] of experience[exp].
func CapabilityPath(exp, c int) doc.Path {
	return doc.P("experience", exp, "capabilities", c)
}

// TechnologyPath addresses technologies[t] of experience[exp].
func TechnologyPath(exp, t int) doc.Path {
	return doc.P("experience", exp, "technologies", t)
}

// SetMetric stores parsed metric text on a fact.
func SetMetric(d doc.Node, exp, fact int, text string) doc.Node {
	return doc.Apply(d, FactPath(exp, fact).Append(doc.Name("metric")), ParseMetric(text))
}

// Metric binds a fact metric for text editing.
func Metric(p doc.Path) bridge.Binding {
	return bridge.Binding{
		Compose: func(d doc.Node) string {
			n, _ := doc.Get(d, p)
			if _, ok := n.Num(); ok {
				return n.Text()
			}
			return ""
		},
		Decompose: func(d doc.Node, text string) doc.Node {
			return doc.Apply(d, p, ParseMetric(text))
		},
	}
}

// NewExperience is the template for an added experience entry.
func NewExperience() doc.Node {
	return doc.MapOf(
		doc.Field{Key: "immutable", Value: doc.MapOf(
			doc.Field{Key: "company", Value: doc.String("")},
			doc.Field{Key: "officialTitle", Value: doc.String("")},
			doc.Field{Key: "start", Value: doc.String("")},
			doc.Field{Key: "end", Value: doc.String("")},
		)},
		doc.Field{Key: "raw", Value: doc.String("")},
		doc.Field{Key: "facts", Value: doc.NewSeq()},
		doc.Field{Key: "capabilities", Value: doc.NewSeq()},
		doc.Field{Key: "technologies", Value: doc.NewSeq()},
	)
}

// NewFact is the template for an added fact.
func NewFact() doc.Node {
	return doc.MapOf(
		doc.Field{Key: "what", Value: doc.String("")},
		doc.Field{Key: "metric", Value: doc.Null()},
		doc.Field{Key: "scope", Value: doc.String("")},
		doc.Field{Key: "myRole", Value: doc.String("")},
	)
}

// NewCapability is the template for an added capability.
func NewCapability() doc.Node {
	return doc.MapOf(
		doc.Field{Key: "name", Value: doc.String("")},
		doc.Field{Key: "evidence", Value: doc.NewSeq()},
	)
}

// NewTechnology is the record form of a technology named name.
func NewTechnology(name string) doc.Node {
	return doc.MapOf(
		doc.Field{Key: "name", Value: doc.String(name)},
		doc.Field{Key: "yearsInThisRole", Value: doc.Int(0)},
		doc.Field{Key: "usedInProduction", Value: doc.Bool(false)},
		doc.Field{Key: "depth", Value: doc.String("")},
		doc.Field{Key: "contexts", Value: doc.NewSeq()},
	)
}

// NormalizeTechnology returns the record form of t. Bare names become
// default records; records are returned as they are.
func NormalizeTechnology(t doc.Node) doc.Node {
	if t.IsMap() {
		return t
	}
	return NewTechnology(t.Text())
}

// SetTechnologyField normalizes technologies[ti] of experience[exp] to a
// record and then stores value under field.
func SetTechnologyField(d doc.Node, exp, ti int, field string, value doc.Node) doc.Node {
	p := TechnologyPath(exp, ti)
	cur, _ := doc.Get(d, p)
	d = doc.Apply(d, p, NormalizeTechnology(cur))
	return doc.Apply(d, p.Append(doc.Name(field)), value)
}

// TechnologyField wraps a binding on a technology field so the entry is
// normalized before the write.
func TechnologyField(item doc.Path, inner bridge.Binding) bridge.Binding {
	return bridge.Binding{
		Compose: inner.Compose,
		Decompose: func(d doc.Node, text string) doc.Node {
			cur, _ := doc.Get(d, item)
			d = doc.Apply(d, item, NormalizeTechnology(cur))
			return inner.Decompose(d, text)
		},
	}
}

// TechnologyName reads a technology's name whatever its form.
func TechnologyName(t doc.Node) string {
	if t.IsMap() {
		n, _ := t.Field("name")
		return n.Text()
	}
	return t.Text()
}

// AddItem appends tmpl to the sequence at p.
func AddItem(d doc.Node, p doc.Path, tmpl doc.Node) doc.Node {
	return doc.Append(d, p, tmpl)
}

// RemoveItem deletes element i of the sequence at p.
func RemoveItem(d doc.Node, p doc.Path, i int) doc.Node {
	return doc.Remove(d, p.Append(doc.Index(i)))
}

func AddFact(d doc.Node, exp int) doc.Node {
	return AddItem(d, doc.P("experience", exp, "facts"), NewFact())
}

func AddCapability(d doc.Node, exp int) doc.Node {
	return AddItem(d, doc.P("experience", exp, "capabilities"), NewCapability())
}

func AddTechnology(d doc.Node, exp int) doc.Node {
	return AddItem(d, doc.P("experience", exp, "technologies"), NewTechnology(""))
}

// SetSeniority stores a seniority choice. Any choice other than the custom
// sentinel clears seniorityCustom.
func SetSeniority(d doc.Node, value string) doc.Node {
	d = doc.Apply(d, PathSeniority, doc.String(value))
	if value != SeniorityCustom {
		d = doc.Apply(d, PathSeniorityCustom, doc.String(""))
	}
	return d
}

// Seniority binds the seniority select.
func Seniority() bridge.Binding {
	return bridge.Binding{
		Compose:   func(d doc.Node) string { return doc.GetText(d, PathSeniority) },
		Decompose: func(d doc.Node, text string) doc.Node { return SetSeniority(d, strings.TrimSpace(text)) },
	}
}

// ResolveSeniority returns the copy of d that is sent to the server: the
// custom sentinel is replaced by seniorityCustom (or ""). d is not changed.
func ResolveSeniority(d doc.Node) doc.Node {
	if doc.GetText(d, PathSeniority) != SeniorityCustom {
		return d.Clone()
	}
	return doc.Apply(d, PathSeniority, doc.String(doc.GetText(d, PathSeniorityCustom)))
}

// EffectiveSeniority is the seniority value as the server will see it.
func EffectiveSeniority(d doc.Node) string {
	return doc.GetText(ResolveSeniority(d), PathSeniority)
}

// NormalizeMetrics replaces every fact metric that is not a finite number.
// Numeric strings are parsed; anything else becomes null.
func NormalizeMetrics(d doc.Node) doc.Node {
	exps, _ := doc.Get(d, PathExperience)
	for i, e := range exps.Items() {
		facts, _ := e.Field("facts")
		for j, f := range facts.Items() {
			m, ok := f.Field("metric")
			if !ok {
				continue
			}
			if v, isNum := m.Num(); isNum && !math.IsNaN(v) && !math.IsInf(v, 0) {
				continue
			}
			if m.IsNull() {
				continue
			}
			d = SetMetric(d, i, j, m.Text())
		}
	}
	return d
}
