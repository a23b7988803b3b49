package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/editstate"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/style"
	"github.com/xrsl/cvago/pkg/workflow"
)

var (
	accentStyle   = lipgloss.NewStyle().Foreground(style.ColorAccent)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(style.ColorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(style.ColorMuted)
	goodStyle     = lipgloss.NewStyle().Foreground(style.ColorGood)
	warnStyle     = lipgloss.NewStyle().Foreground(style.ColorWarn)
	badStyle      = lipgloss.NewStyle().Foreground(style.ColorBad)
	labelStyle    = lipgloss.NewStyle().Foreground(style.ColorInfo)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(style.ColorAccent)
	stepStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(style.ColorMuted)
	stepOnStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true).Foreground(style.ColorAccent)
	advisoryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(style.ColorWarn).Padding(0, 1)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(style.ColorMuted).Padding(0, 1)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.viewStepper())
	b.WriteString("\n\n")
	switch a.gate.Step() {
	case workflow.StepProfile:
		b.WriteString(a.viewProfile())
	case workflow.StepPosition:
		b.WriteString(a.viewPosition())
	case workflow.StepAdapted:
		b.WriteString(a.viewAdapted())
	}
	b.WriteString("\n")
	b.WriteString(a.viewStatus())
	return b.String()
}

func (a *App) viewStepper() string {
	var parts []string
	for _, s := range workflow.Steps {
		text := fmt.Sprintf("%d %s", s, s)
		if s == a.gate.Step() {
			parts = append(parts, stepOnStyle.Render(text))
		} else {
			parts = append(parts, stepStyle.Render(text))
		}
	}
	line := titleStyle.Render("cvago") + "  " + strings.Join(parts, mutedStyle.Render("›"))
	if a.snap.Saved {
		line += "  " + goodStyle.Render("✓ Saved")
	}
	if a.snap.Busy() {
		label := a.snap.Label
		if label == "" {
			label = "Working…"
		}
		line += "  " + a.spinner.View() + mutedStyle.Render(label)
	}
	return line
}

func (a *App) viewStatus() string {
	var help string
	switch {
	case a.focus == focusEditor:
		help = "tab/shift+tab move · ←/→ change choice · ctrl+a add · ctrl+d remove · ctrl+f/k/t add fact/capability/technology · esc done · ctrl+s save"
	case a.focus == focusJD:
		help = "ctrl+r analyze · esc leave the text"
	case a.focus == focusUpload:
		help = "enter upload · esc cancel"
	case a.gate.Step() == workflow.StepProfile && a.snap.HasDraft:
		help = "↑/↓ move · enter open · tab edit fields · a add item · D remove experience · s save · u upload · X discard · 1/2/3 steps · q quit"
	case a.gate.Step() == workflow.StepProfile:
		help = "e edit · u upload résumé · r reload · 1/2/3 steps · q quit"
	case a.gate.Step() == workflow.StepPosition:
		help = "i edit text · r analyze · p continue (approved) · o generate anyway · 1/2/3 steps · q quit"
	default:
		help = "g generate · L language · d download · o generate anyway · 1/2/3 steps · q quit"
	}
	out := mutedStyle.Render(help)
	if a.status != "" {
		st := goodStyle
		if a.statusErr {
			st = badStyle
		}
		out = st.Render(a.status) + "\n" + out
	}
	return out
}

// Step 1.

func (a *App) viewProfile() string {
	var b strings.Builder
	if a.focus == focusUpload {
		b.WriteString(a.upload.View() + "\n\n")
	}
	if v := a.snap.Parse; v.Status == workflow.Failed {
		b.WriteString(badStyle.Render("Upload failed: "+v.Message()) + "\n\n")
	}
	if v := a.snap.Save; v.Status == workflow.Failed {
		b.WriteString(badStyle.Render("Save failed: "+v.Message()) + "\n\n")
	}
	if !a.snap.HasDraft {
		committed, ok := a.orch.Store().Committed()
		switch {
		case a.snap.Load.Status == workflow.InFlight:
			b.WriteString(mutedStyle.Render("Loading profile…"))
		case ok:
			b.WriteString(a.viewSummary(committed))
		default:
			b.WriteString(mutedStyle.Render("No profile loaded."))
		}
		return b.String()
	}

	nav := a.viewNav()
	editor := a.viewEditor()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(nav), " ", editor))
	return b.String()
}

func (a *App) viewSummary(d doc.Node) string {
	p, err := profile.Decode(d)
	if err != nil {
		return badStyle.Render("The saved profile could not be read: " + err.Error())
	}
	s := profile.Summarize(p, a.opts.Now())

	var b strings.Builder
	name := s.FullName
	if name == "" {
		name = "(no name)"
	}
	b.WriteString(titleStyle.Render(name) + "\n")
	if s.Headline != "" {
		b.WriteString(s.Headline + "\n")
	}
	b.WriteString("\n")
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = mutedStyle.Render("—")
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-14s", label)), value)
	}
	row("Email", s.Email)
	row("Phone", s.Phone)
	row("Location", s.Location)
	years := ""
	if s.HasYears {
		years = fmt.Sprintf("%d", s.TotalYears)
	}
	row("Experience", years)
	row("Seniority", s.Seniority)
	row("Work mode", a.optionLabel("workMode", s.WorkMode))
	row("Target roles", strings.Join(s.TargetRoles, ", "))
	row("Languages", strings.Join(s.Languages, ", "))
	for _, l := range s.Links {
		row(l.Name, l.URL)
	}
	row("Positions", fmt.Sprintf("%d", s.Experiences))
	return b.String()
}

func (a *App) optionLabel(catalog, value string) string {
	for _, o := range a.sch.Options[catalog] {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func (a *App) viewNav() string {
	var b strings.Builder
	open, _ := a.tracker.Experience()
	exp := false
	for i, r := range a.rows() {
		if r.experience >= 0 && !exp {
			b.WriteString("\n" + mutedStyle.Render("Experience") + "\n")
			exp = true
		}
		if r.experience == -2 && !exp {
			b.WriteString("\n")
		}
		marker := "  "
		if (r.experience == -1 && a.tracker.IsEditing(r.section)) || (r.experience >= 0 && r.experience == open) {
			marker = "▾ "
		}
		line := " " + marker + r.label
		if i == a.cursor && a.focus == focusNav {
			line = selectedStyle.Render("›" + marker + r.label)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) viewEditor() string {
	if len(a.fields) == 0 {
		if a.tracker.Open() == editstate.None {
			return mutedStyle.Render("Open a section or an experience entry to edit it.")
		}
		return mutedStyle.Render("Nothing to edit here yet: press a to add an item.")
	}
	var b strings.Builder
	if sec, ok := a.sch.Section(string(a.tracker.Open())); ok && sec.Hint != "" {
		b.WriteString(mutedStyle.Render(sec.Hint) + "\n\n")
	}
	for i, f := range a.fields {
		label := labelStyle.Render(f.label())
		if i == a.active && a.focus == focusEditor {
			label = selectedStyle.Render("› " + f.label())
		}
		b.WriteString(label + "\n")
		if f.choice() {
			b.WriteString("  ‹ " + f.display(a.sch) + " ›\n")
		} else {
			b.WriteString(f.view() + "\n")
		}
	}
	return b.String()
}

// Step 2.

func (a *App) viewPosition() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Job description") + "\n")
	b.WriteString(a.jd.View() + "\n\n")

	switch a.snap.Summary.Status {
	case workflow.InFlight:
		b.WriteString(a.spinner.View() + a.snap.Label + "\n")
		return b.String()
	case workflow.Failed:
		b.WriteString(badStyle.Render("Analysis failed: "+a.snap.Summary.Message()) + "\n")
		return b.String()
	case workflow.Idle:
		b.WriteString(mutedStyle.Render("Paste a job description, then press ctrl+r to analyze it.") + "\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render("Position summary") + "\n")
	b.WriteString(lipgloss.NewStyle().Width(max(40, a.width-4)).Render(a.snap.SummaryText()) + "\n\n")

	switch a.snap.Match.Status {
	case workflow.InFlight:
		b.WriteString(a.spinner.View() + a.snap.Label + "\n")
	case workflow.Failed:
		b.WriteString(badStyle.Render("Match failed: "+a.snap.Match.Message()) + "\n")
	case workflow.Idle:
		if !a.snap.HasProfile {
			b.WriteString(mutedStyle.Render("No saved profile: the match was skipped.") + "\n")
		}
	case workflow.Succeeded:
		b.WriteString(viewMatch(a.snap.Match.Result))
	}

	b.WriteString("\n")
	switch {
	case a.gate.CanProceed(a.snap):
		b.WriteString(goodStyle.Render("Approved.") + " Press enter to continue to the adapted résumé.\n")
	case a.snap.Overridden:
		b.WriteString(warnStyle.Render("Generating anyway.") + " Go to step 3.\n")
	default:
		b.WriteString(mutedStyle.Render("Not approved. Press o to generate anyway.") + "\n")
	}
	return b.String()
}

func viewMatch(m api.MatchResult) string {
	var b strings.Builder
	verdict := badStyle.Render("not approved")
	if m.Approved {
		verdict = goodStyle.Render("approved")
	}
	fmt.Fprintf(&b, "%s %s  %s\n", titleStyle.Render("Match"), verdict,
		mutedStyle.Render(fmt.Sprintf("score %g / threshold %g", m.Score, m.Threshold)))
	switch m.SeniorityFit {
	case api.FitMatch:
		b.WriteString(labelStyle.Render("Seniority ") + goodStyle.Render("matches the position") + "\n")
	case api.FitOverqualified:
		b.WriteString(labelStyle.Render("Seniority ") + warnStyle.Render("overqualified") + "\n")
	case api.FitUnderqualified:
		b.WriteString(labelStyle.Render("Seniority ") + warnStyle.Render("underqualified") + "\n")
	}
	if m.Recommendation != "" {
		b.WriteString(m.Recommendation + "\n")
	}
	for _, r := range m.ReasonsFor {
		b.WriteString(goodStyle.Render("+ ") + r + "\n")
	}
	for _, r := range m.ReasonsAgainst {
		b.WriteString(badStyle.Render("− ") + r + "\n")
	}
	return b.String()
}

// Step 3.

func (a *App) viewAdapted() string {
	var b strings.Builder
	if a.gate.Advisory(a.snap) {
		msg := "Generation is not available yet. Analyze a position with an approved match, or press o to generate anyway."
		if a.snap.SummaryText() == "" {
			msg = "Analyze a position first (step 2)."
		}
		b.WriteString(advisoryStyle.Render(warnStyle.Render("Advisory: ")+msg) + "\n\n")
	}

	lang := a.snap.Language
	other := "en"
	if lang == "en" {
		other = "es"
	}
	fmt.Fprintf(&b, "%s %s %s\n\n", labelStyle.Render("Language"), selectedStyle.Render(lang), mutedStyle.Render("("+other+" with L)"))

	switch {
	case a.snap.Generate.Status == workflow.InFlight:
		b.WriteString(a.spinner.View() + "Generating résumé…\n")
	case a.gate.GenerateEnabled(a.snap):
		b.WriteString(goodStyle.Render("[ Generate ]") + mutedStyle.Render(" press g") + "\n")
	default:
		b.WriteString(mutedStyle.Render("[ Generate ]") + "\n")
	}

	switch v := a.snap.Generate; v.Status {
	case workflow.Failed:
		b.WriteString("\n" + badStyle.Render("Generation failed: "+v.Message()) + "\n")
	case workflow.Succeeded:
		b.WriteString("\n" + titleStyle.Render("Files") + "\n")
		if v.Result.Summary != "" {
			b.WriteString(v.Result.Summary + "\n")
		}
		for _, f := range v.Result.Files() {
			link := ""
			if a.opts.Downloader != nil {
				link = mutedStyle.Render(" " + a.opts.Downloader.DownloadURL(f, true))
			}
			b.WriteString("  " + f + link + "\n")
		}
		if len(v.Result.Files()) == 0 {
			b.WriteString(mutedStyle.Render("  The server returned no files.") + "\n")
		} else {
			b.WriteString(mutedStyle.Render("Press d to download them.") + "\n")
		}
	}
	for _, p := range a.downloads {
		b.WriteString(goodStyle.Render("✓ ") + p + "\n")
	}
	return b.String()
}
