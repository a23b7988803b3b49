package profile

import (
	"fmt"
	"strings"

	"github.com/xrsl/cvago/pkg/doc"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a document.
type Issue struct {
	Path     string
	Severity Severity
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Severity, i.Path, i.Message)
}

// Validate checks the invariants a profile must keep before it is saved.
func Validate(d doc.Node) []Issue {
	var issues []Issue
	if !d.IsMap() {
		return []Issue{{Path: "", Severity: SeverityError, Message: "profile must be an object"}}
	}

	for _, name := range []string{"personal", "narrative", "skills", "strategy"} {
		if n, ok := d.Field(name); ok && !n.IsNull() && !n.IsMap() {
			issues = append(issues, Issue{Path: name, Severity: SeverityError, Message: "must be an object"})
		}
	}
	for _, name := range []string{"experience", "education", "languages"} {
		if n, ok := d.Field(name); ok && !n.IsNull() && !n.IsSeq() {
			issues = append(issues, Issue{Path: name, Severity: SeverityError, Message: "must be a list"})
		}
	}

	exps, _ := doc.Get(d, PathExperience)
	for i, e := range exps.Items() {
		base := fmt.Sprintf("experience.%d", i)
		if strings.TrimSpace(doc.GetText(e, doc.P("immutable", "company"))) == "" {
			issues = append(issues, Issue{Path: base + ".immutable.company", Severity: SeverityWarning, Message: "company is empty"})
		}
		facts, _ := e.Field("facts")
		for j, f := range facts.Items() {
			m, _ := f.Field("metric")
			if m.IsNull() {
				continue
			}
			if !m.IsNumber() {
				issues = append(issues, Issue{
					Path:     fmt.Sprintf("%s.facts.%d.metric", base, j),
					Severity: SeverityError,
					Message:  fmt.Sprintf("metric must be a number or null, got %s %q", m.Kind(), m.Text()),
				})
			}
		}
		techs, _ := e.Field("technologies")
		for j, t := range techs.Items() {
			if !t.IsString() && !t.IsMap() {
				issues = append(issues, Issue{
					Path:     fmt.Sprintf("%s.technologies.%d", base, j),
					Severity: SeverityError,
					Message:  "technology must be a name or a record",
				})
			}
		}
	}

	if doc.GetText(d, PathSeniority) == SeniorityCustom && strings.TrimSpace(doc.GetText(d, PathSeniorityCustom)) == "" {
		issues = append(issues, Issue{
			Path:     PathSeniorityCustom.String(),
			Severity: SeverityWarning,
			Message:  "custom seniority selected but no value given; it will be sent empty",
		})
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
