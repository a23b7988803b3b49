package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/workflow"
)

func printProfile(w io.Writer, d doc.Node, now time.Time) error {
	p, err := profile.Decode(d)
	if err != nil {
		return err
	}
	s := profile.Summarize(p, now)

	name := s.FullName
	if name == "" {
		name = "(no name)"
	}
	fmt.Fprintf(w, "%s\n", style.Heading(name))
	if s.Headline != "" {
		fmt.Fprintf(w, "%s\n", s.Headline)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", style.Field("Email", s.Email))
	fmt.Fprintf(w, "  %s\n", style.Field("Phone", s.Phone))
	fmt.Fprintf(w, "  %s\n", style.Field("Location", s.Location))
	years := ""
	if s.HasYears {
		years = fmt.Sprintf("%d", s.TotalYears)
	}
	fmt.Fprintf(w, "  %s\n", style.Field("Years of experience", years))
	fmt.Fprintf(w, "  %s\n", style.Field("Seniority", s.Seniority))
	fmt.Fprintf(w, "  %s\n", style.Field("Work mode", s.WorkMode))
	fmt.Fprintf(w, "  %s\n", style.Field("Target roles", strings.Join(s.TargetRoles, ", ")))
	fmt.Fprintf(w, "  %s\n", style.Field("Languages", strings.Join(s.Languages, ", ")))
	for _, l := range s.Links {
		fmt.Fprintf(w, "  %s\n", style.Field(l.Name, l.URL))
	}

	if len(p.Experience) > 0 {
		fmt.Fprintf(w, "\n%s\n", style.Heading("Experience"))
		for i, e := range p.Experience {
			end := string(e.Immutable.End)
			if end == "" {
				end = "present"
			}
			fmt.Fprintf(w, "  %s %s @ %s %s\n",
				style.Muted(fmt.Sprintf("[%d]", i)),
				style.B(string(e.Immutable.OfficialTitle)),
				e.Immutable.Company,
				style.Muted(fmt.Sprintf("(%s – %s)", e.Immutable.Start, end)))
			for _, f := range e.Facts {
				line := string(f.What)
				if f.Metric.Valid {
					line += " " + style.Muted("["+f.Metric.String()+"]")
				}
				fmt.Fprintf(w, "      • %s\n", line)
			}
			if len(e.Technologies) > 0 {
				var names []string
				for _, t := range e.Technologies {
					names = append(names, string(t.Name))
				}
				fmt.Fprintf(w, "      %s\n", style.Field("Technologies", strings.Join(names, ", ")))
			}
		}
	}

	if len(p.Skills.Technical) > 0 || len(p.Skills.Soft) > 0 {
		fmt.Fprintf(w, "\n%s\n", style.Heading("Skills"))
		var tech []string
		for _, sk := range p.Skills.Technical {
			entry := string(sk.Name)
			if sk.Level != "" {
				entry += " (" + string(sk.Level) + ")"
			}
			tech = append(tech, entry)
		}
		fmt.Fprintf(w, "  %s\n", style.Field("Technical", strings.Join(tech, ", ")))
		fmt.Fprintf(w, "  %s\n", style.Field("Soft", strings.Join(profile.Strings(p.Skills.Soft), ", ")))
	}

	if len(p.Education) > 0 {
		fmt.Fprintf(w, "\n%s\n", style.Heading("Education"))
		for _, e := range p.Education {
			fmt.Fprintf(w, "  %s — %s (%s)\n", e.Degree, e.Institution, e.Year)
		}
	}
	return nil
}

// fitLabel names a seniority fit value.
func fitLabel(fit string) string {
	switch fit {
	case api.FitMatch:
		return style.Good("matches the position")
	case api.FitOverqualified:
		return style.Warn("overqualified")
	case api.FitUnderqualified:
		return style.Warn("underqualified")
	}
	return fit
}

func printMatch(w io.Writer, m api.MatchResult) {
	verdict := style.Bad("not approved")
	if m.Approved {
		verdict = style.Good("approved")
	}
	fmt.Fprintf(w, "%s %s  %s\n", style.Heading("Match:"), verdict,
		style.Muted(fmt.Sprintf("score %g / threshold %g", m.Score, m.Threshold)))
	if m.SeniorityFit != "" {
		fmt.Fprintf(w, "  %s\n", style.Field("Seniority", fitLabel(m.SeniorityFit)))
	}
	if m.Recommendation != "" {
		fmt.Fprintf(w, "  %s\n", m.Recommendation)
	}
	for _, r := range m.ReasonsFor {
		fmt.Fprintf(w, "  %s %s\n", style.Good("+"), r)
	}
	for _, r := range m.ReasonsAgainst {
		fmt.Fprintf(w, "  %s %s\n", style.Bad("−"), r)
	}
}

func printSnapshot(w io.Writer, s workflow.Snapshot) {
	if text := s.SummaryText(); text != "" {
		fmt.Fprintf(w, "%s\n%s\n\n", style.Heading("Position summary"), text)
	}
	switch s.Match.Status {
	case workflow.Succeeded:
		printMatch(w, s.Match.Result)
	case workflow.Failed:
		fmt.Fprintf(w, "%s%s\n", style.Failure("Match"), s.Match.Message())
	case workflow.Idle:
		if !s.HasProfile {
			fmt.Fprintln(w, style.Muted("No saved profile: the match was skipped."))
		}
	}
	fmt.Fprintln(w)
	switch {
	case s.Approved():
		fmt.Fprintf(w, "%s run %s\n", style.Success("Next"), style.Command("cvago generate"))
	case s.CanGenerate:
		fmt.Fprintf(w, "%s generation allowed without an approved match\n", style.Warn("Override:"))
	default:
		fmt.Fprintf(w, "%s the match is not approved. Run %s to generate anyway.\n",
			style.Warn("Advisory:"), style.Command("cvago generate --force"))
	}
}

func printIssues(w io.Writer, issues []profile.Issue) {
	for _, is := range issues {
		mark := style.Warn("!")
		if is.Severity == profile.SeverityError {
			mark = style.Bad("✗")
		}
		path := is.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(w, "%s %s: %s\n", mark, path, is.Message)
	}
}
