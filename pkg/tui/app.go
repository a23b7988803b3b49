// Package tui is the interactive console: a three step workflow (profile,
// position, adapted résumé) on top of the workflow orchestrator.
//
// Actions run in tea.Cmds; the orchestrator publishes snapshots that reach
// Update as messages, so rendering stays on the program's goroutine.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/editstate"
	"github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
	"github.com/xrsl/cvago/pkg/schema"
	"github.com/xrsl/cvago/pkg/workflow"
)

// Downloader fetches generated files.
type Downloader interface {
	DownloadTo(ctx context.Context, filename, dir string, inline bool) (string, int64, error)
	DownloadURL(filename string, inline bool) string
}

// Options configures the console.
type Options struct {
	Schema      *schema.Schema
	Downloader  Downloader
	DownloadDir string
	// OnSession receives the analysis state after an analysis or an
	// override so it can be kept between runs.
	OnSession func(workflow.Session)
	Now       func() time.Time
}

type focus int

const (
	focusNav focus = iota
	focusEditor
	focusJD
	focusUpload
)

type (
	snapshotMsg workflow.Snapshot
	doneMsg     struct {
		action string
		err    error
	}
	downloadedMsg struct {
		paths []string
		err   error
	}
)

// App is the console model.
type App struct {
	ctx     context.Context
	orch    *workflow.Orchestrator
	sch     *schema.Schema
	opts    Options
	gate    *workflow.Gate
	tracker *editstate.Tracker

	snap   workflow.Snapshot
	focus  focus
	cursor int
	fields []*field
	active int

	jd      textarea.Model
	upload  textinput.Model
	spinner spinner.Model

	status    string
	statusErr bool
	downloads []string

	width  int
	height int
}

func New(ctx context.Context, orch *workflow.Orchestrator, opts Options) *App {
	if opts.Schema == nil {
		opts.Schema = schema.MustDefault()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	jd := textarea.New()
	jd.Placeholder = "Paste the job description here…"
	jd.ShowLineNumbers = false
	jd.CharLimit = 0
	jd.SetWidth(80)
	jd.SetHeight(10)

	upload := textinput.New()
	upload.Placeholder = "path/to/resume.pdf"
	upload.Prompt = "File: "
	upload.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = accentStyle

	a := &App{
		ctx:     ctx,
		orch:    orch,
		sch:     opts.Schema,
		opts:    opts,
		gate:    workflow.NewGate(),
		tracker: editstate.New(),
		snap:    orch.Snapshot(),
		jd:      jd,
		upload:  upload,
		spinner: spin,
		width:   100,
		height:  30,
	}
	a.jd.SetValue(a.snap.JD)
	for _, s := range editstate.Sections {
		// Leaving a section writes whatever its editors still hold.
		a.tracker.OnClose(s, a.commitFields)
	}
	return a
}

// Listener returns the orchestrator listener that feeds snapshots to p.
// Send blocks while Update runs, so delivery happens off the caller's
// goroutine and Update drops snapshots older than the one it has.
func Listener(p *tea.Program) func(workflow.Snapshot) {
	return func(s workflow.Snapshot) {
		go p.Send(snapshotMsg(s))
	}
}

// Run starts the console and blocks until it quits.
func Run(ctx context.Context, orch *workflow.Orchestrator, opts Options) error {
	app := New(ctx, orch, opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	orch.SetListener(Listener(p))
	defer orch.SetListener(nil)
	_, err := p.Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.do("load", a.orch.LoadProfile))
}

// do runs fn as a command and reports its error back to Update.
func (a *App) do(action string, fn func(context.Context) error) tea.Cmd {
	ctx := a.ctx
	return func() tea.Msg {
		return doneMsg{action: action, err: fn(ctx)}
	}
}

func (a *App) refresh() {
	if s := a.orch.Snapshot(); s.Seq >= a.snap.Seq {
		a.snap = s
	}
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status, a.statusErr = msg, isErr
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.jd.SetWidth(max(20, msg.Width-4))
		a.jd.SetHeight(max(4, msg.Height/3))
		return a, nil

	case snapshotMsg:
		if msg.Seq >= a.snap.Seq {
			a.snap = workflow.Snapshot(msg)
		}
		return a, nil

	case doneMsg:
		a.refresh()
		return a, a.handleDone(msg)

	case downloadedMsg:
		if msg.err != nil {
			a.setStatus("Download failed: "+msg.err.Error(), true)
		} else {
			a.downloads = append(a.downloads, msg.paths...)
			a.setStatus("Downloaded "+strings.Join(msg.paths, ", "), false)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	return a, a.forward(msg)
}

// forward passes non-key messages (cursor blink) to the focused widget.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusJD:
		a.jd, cmd = a.jd.Update(msg)
	case focusUpload:
		a.upload, cmd = a.upload.Update(msg)
	case focusEditor:
		if f := a.current(); f != nil {
			cmd = f.update(msg)
		}
	}
	return cmd
}

func (a *App) handleDone(msg doneMsg) tea.Cmd {
	if msg.err != nil {
		log.Debug("console action failed", "action", msg.action, "error", msg.err)
	}
	switch msg.action {
	case "load":
		if msg.err != nil && api.StatusOf(msg.err) == 404 {
			a.setStatus("No saved profile yet: press e to start one or u to upload a résumé.", false)
			return nil
		}
	case "analyze":
		if a.opts.OnSession != nil {
			if s, ok := a.orch.Session(); ok {
				a.opts.OnSession(s)
			}
		}
		// Phase errors are shown in their slots.
		return nil
	case "parse":
		if msg.err == nil {
			a.resetEditors()
			a.setStatus("Résumé parsed into the draft.", false)
		}
		return nil
	case "save":
		if msg.err == nil {
			a.resetEditors()
			a.setStatus("", false)
		}
		return nil
	case "generate":
		return nil
	}
	if msg.err != nil {
		a.setStatus(msg.err.Error(), true)
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "ctrl+c":
		a.commitAll()
		return tea.Quit
	case "alt+1", "alt+2", "alt+3":
		return a.selectStep(workflow.Step(key[len(key)-1] - '0'))
	}

	switch a.focus {
	case focusJD:
		return a.keyJD(msg)
	case focusUpload:
		return a.keyUpload(msg)
	case focusEditor:
		return a.keyEditor(msg)
	}

	switch key {
	case "q":
		a.commitAll()
		return tea.Quit
	case "1", "2", "3":
		return a.selectStep(workflow.Step(key[0] - '0'))
	case "right", "l":
		return a.selectStep(a.gate.Step() + 1)
	case "left", "h":
		return a.selectStep(a.gate.Step() - 1)
	}

	switch a.gate.Step() {
	case workflow.StepProfile:
		return a.keyProfile(key)
	case workflow.StepPosition:
		return a.keyPosition(key)
	case workflow.StepAdapted:
		return a.keyAdapted(key)
	}
	return nil
}

func (a *App) selectStep(s workflow.Step) tea.Cmd {
	a.commitAll()
	a.blurAll()
	a.gate.Select(s)
	if a.gate.Step() == workflow.StepPosition && a.snap.SummaryText() == "" && !a.snap.Analyzing {
		a.focus = focusJD
		return a.jd.Focus()
	}
	return nil
}

func (a *App) blurAll() {
	if f := a.current(); f != nil {
		f.blur()
	}
	a.jd.Blur()
	a.upload.Blur()
	a.focus = focusNav
}

// Step 1: profile.

func (a *App) keyProfile(key string) tea.Cmd {
	if !a.snap.HasDraft {
		switch key {
		case "e":
			if err := a.orch.BeginEdit(); err != nil {
				// Nothing saved yet: start from an empty document.
				a.orch.ReplaceDraft(doc.NewMap())
			}
			a.refresh()
			a.cursor = 0
		case "r":
			return a.do("load", a.orch.LoadProfile)
		case "u":
			return a.startUpload()
		}
		return nil
	}

	rows := a.rows()
	a.cursor = min(a.cursor, len(rows)-1)
	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(rows)-1 {
			a.cursor++
		}
	case "enter", " ":
		return a.toggleRow(rows[a.cursor])
	case "tab":
		if len(a.fields) > 0 {
			return a.focusField(a.active)
		}
	case "a":
		if sec, ok := a.sch.Section(string(a.tracker.Open())); ok && sec.Repeated() && rows[a.cursor].experience == -1 {
			a.addItem(doc.ParsePath(sec.Items))
			return nil
		}
		a.addItem(profile.PathExperience)
		if n := a.experienceCount(); n > 0 {
			a.tracker.CloseExperience()
			a.tracker.ToggleExperience(n - 1)
			a.rebuild()
			a.cursor = len(editstate.Sections) + n - 1
		}
	case "D":
		if r := rows[a.cursor]; r.experience >= 0 {
			a.commitAll()
			a.orch.ReplaceDraft(profile.RemoveItem(a.draft(), profile.PathExperience, r.experience))
			a.tracker.ExperienceRemoved(r.experience)
			a.rebuild()
			a.cursor = min(a.cursor, len(a.rows())-1)
		}
	case "s", "ctrl+s":
		return a.save()
	case "u":
		return a.startUpload()
	case "X":
		a.resetEditors()
		a.orch.DiscardDraft()
		a.refresh()
		a.setStatus("Draft discarded.", false)
	}
	return nil
}

// row is one line of the profile navigator: a section, an experience
// entry or the add-experience action.
type row struct {
	section    editstate.Section
	experience int
	label      string
}

func (a *App) rows() []row {
	var out []row
	for _, s := range editstate.Sections {
		label := string(s)
		if sec, ok := a.sch.Section(string(s)); ok && sec.Title != "" {
			label = sec.Title
		}
		out = append(out, row{section: s, experience: -1, label: label})
	}
	d := a.draft()
	exps, _ := doc.Get(d, profile.PathExperience)
	for i := 0; i < exps.Len(); i++ {
		base := profile.PathExperience.Append(doc.Index(i), doc.Name("immutable"))
		title := strings.TrimSpace(doc.GetText(d, base.Append(doc.Name("officialTitle"))))
		company := strings.TrimSpace(doc.GetText(d, base.Append(doc.Name("company"))))
		label := strings.Trim(title+" · "+company, " ·")
		if label == "" {
			label = fmt.Sprintf("Experience %d", i+1)
		}
		out = append(out, row{experience: i, label: label})
	}
	return append(out, row{experience: -2, label: "+ Add experience"})
}

func (a *App) experienceCount() int {
	exps, _ := doc.Get(a.draft(), profile.PathExperience)
	return exps.Len()
}

func (a *App) toggleRow(r row) tea.Cmd {
	switch {
	case r.experience == -2:
		return a.keyProfile("a")
	case r.experience >= 0:
		a.commitAll()
		a.tracker.ToggleExperience(r.experience)
	default:
		d := a.draft()
		next := a.tracker.Toggle(r.section, d)
		a.replaceIfChanged(d, next)
	}
	a.rebuild()
	return nil
}

func (a *App) draft() doc.Node {
	d, ok := a.orch.Store().Draft()
	if !ok {
		return doc.NewMap()
	}
	return d
}

func (a *App) replaceIfChanged(before, after doc.Node) {
	if !after.Equal(before) {
		a.orch.ReplaceDraft(after)
		a.refresh()
	}
}

// rebuild reopens the editors of the open section and experience entry
// from the draft.
func (a *App) rebuild() {
	d := a.draft()
	width := max(20, a.width/2)
	var entries []schema.Entry
	if s := a.tracker.Open(); s != editstate.None {
		entries = append(entries, a.sch.Entries(string(s), d)...)
	}
	if i, ok := a.tracker.Experience(); ok {
		entries = append(entries, a.sch.ExperienceEntries(i, d)...)
	}
	a.fields = a.fields[:0]
	for _, e := range entries {
		a.fields = append(a.fields, newField(a.sch, e, d, width))
	}
	if a.active >= len(a.fields) {
		a.active = max(0, len(a.fields)-1)
	}
	if len(a.fields) == 0 && a.focus == focusEditor {
		a.focus = focusNav
	}
}

// resetEditors drops the editors without writing them, for when the
// draft was replaced underneath them.
func (a *App) resetEditors() {
	a.fields = nil
	a.active = 0
	a.tracker.Close(a.draft())
	a.tracker.CloseExperience()
	if a.focus == focusEditor {
		a.focus = focusNav
	}
	a.cursor = 0
}

// commitFields writes every open editor into d.
func (a *App) commitFields(d doc.Node) doc.Node {
	for _, f := range a.fields {
		d = f.buf.Commit(d)
	}
	return d
}

func (a *App) commitAll() {
	if !a.orch.Store().HasDraft() || len(a.fields) == 0 {
		return
	}
	d := a.draft()
	a.replaceIfChanged(d, a.commitFields(d))
}

func (a *App) commitCurrent() {
	f := a.current()
	if f == nil || !a.orch.Store().HasDraft() {
		return
	}
	d := a.draft()
	a.replaceIfChanged(d, f.buf.Commit(d))
}

func (a *App) current() *field {
	if a.active < 0 || a.active >= len(a.fields) {
		return nil
	}
	return a.fields[a.active]
}

func (a *App) focusField(i int) tea.Cmd {
	if len(a.fields) == 0 {
		return nil
	}
	if f := a.current(); f != nil {
		f.blur()
	}
	a.active = (i + len(a.fields)) % len(a.fields)
	a.focus = focusEditor
	return a.fields[a.active].focus()
}

func (a *App) keyEditor(msg tea.KeyMsg) tea.Cmd {
	f := a.current()
	if f == nil {
		a.focus = focusNav
		return nil
	}
	switch msg.String() {
	case "esc":
		a.commitCurrent()
		f.blur()
		a.focus = focusNav
		return nil
	case "tab", "down":
		if msg.String() == "down" && f.multiline() {
			break
		}
		a.commitCurrent()
		return a.focusField(a.active + 1)
	case "shift+tab", "up":
		if msg.String() == "up" && f.multiline() {
			break
		}
		a.commitCurrent()
		return a.focusField(a.active - 1)
	case "ctrl+s":
		a.commitAll()
		a.blurAll()
		return a.save()
	case "ctrl+a":
		if list, _, ok := itemList(f.entry.Path); ok {
			a.addItem(list)
		}
		return nil
	case "ctrl+d":
		if list, i, ok := itemList(f.entry.Path); ok && list.String() != "experience" {
			a.commitAll()
			a.orch.ReplaceDraft(profile.RemoveItem(a.draft(), list, i))
			a.refresh()
			a.rebuild()
			if len(a.fields) > 0 {
				return a.focusField(a.active)
			}
		}
		return nil
	case "ctrl+f", "ctrl+k", "ctrl+t":
		if i, ok := a.tracker.Experience(); ok {
			group := map[string]string{"ctrl+f": "facts", "ctrl+k": "capabilities", "ctrl+t": "technologies"}[msg.String()]
			a.addItem(profile.PathExperience.Append(doc.Index(i), doc.Name(group)))
		}
		return nil
	}

	if f.choice() {
		switch msg.String() {
		case "left", "h":
			f.cycle(-1)
		case "right", "l", " ", "enter":
			f.cycle(1)
		default:
			return nil
		}
		// Choices take effect at once; they can show or hide other fields.
		a.commitCurrent()
		a.rebuild()
		return nil
	}
	return f.update(msg)
}

// addItem appends a fresh element to the list at p and reopens the
// editors on it.
func (a *App) addItem(p doc.Path) {
	item, ok := a.sch.NewItemFor(p)
	if !ok {
		a.setStatus("Nothing to add here.", true)
		return
	}
	a.commitAll()
	a.orch.ReplaceDraft(profile.AddItem(a.draft(), p, item))
	a.refresh()
	a.rebuild()
}

func (a *App) save() tea.Cmd {
	a.commitAll()
	issues := profile.Validate(a.draft())
	if profile.HasErrors(issues) {
		a.setStatus("Cannot save: "+issues[0].String(), true)
		return nil
	}
	a.setStatus("Saving…", false)
	return a.do("save", a.orch.Save)
}

func (a *App) startUpload() tea.Cmd {
	a.commitAll()
	a.blurAll()
	a.focus = focusUpload
	a.upload.SetValue("")
	return a.upload.Focus()
}

func (a *App) keyUpload(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.blurAll()
		return nil
	case "enter":
		path := strings.TrimSpace(a.upload.Value())
		a.blurAll()
		if path == "" {
			return nil
		}
		a.setStatus("Parsing "+filepath.Base(path)+"…", false)
		return a.do("parse", func(ctx context.Context) error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return a.orch.ParseAndEnrich(ctx, filepath.Base(path), f)
		})
	}
	var cmd tea.Cmd
	a.upload, cmd = a.upload.Update(msg)
	return cmd
}

// Step 2: position.

func (a *App) keyJD(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.blurAll()
		return nil
	case "ctrl+r":
		return a.analyze()
	}
	var cmd tea.Cmd
	a.jd, cmd = a.jd.Update(msg)
	return cmd
}

func (a *App) keyPosition(key string) tea.Cmd {
	switch key {
	case "i", "enter":
		if key == "enter" && a.gate.CanProceed(a.snap) {
			a.gate.Proceed(a.snap)
			return nil
		}
		a.focus = focusJD
		return a.jd.Focus()
	case "ctrl+r", "r":
		return a.analyze()
	case "p":
		a.gate.Proceed(a.snap)
	case "o":
		return a.override()
	}
	return nil
}

func (a *App) analyze() tea.Cmd {
	text := a.jd.Value()
	if strings.TrimSpace(text) == "" {
		a.setStatus(workflow.ErrEmptyInput.Error(), true)
		return nil
	}
	a.blurAll()
	a.setStatus("", false)
	return a.do("analyze", func(ctx context.Context) error {
		return a.orch.Analyze(ctx, text)
	})
}

func (a *App) override() tea.Cmd {
	if a.snap.SummaryText() == "" {
		a.setStatus("Analyze a position first.", true)
		return nil
	}
	a.orch.Override()
	a.refresh()
	if a.opts.OnSession != nil {
		if s, ok := a.orch.Session(); ok {
			a.opts.OnSession(s)
		}
	}
	a.gate.Select(workflow.StepAdapted)
	return nil
}

// Step 3: adapted résumé.

func (a *App) keyAdapted(key string) tea.Cmd {
	switch key {
	case "L":
		lang := "es"
		if a.snap.Language == "es" {
			lang = "en"
		}
		if err := a.orch.SetLanguage(lang); err != nil {
			a.setStatus(err.Error(), true)
		}
		a.refresh()
	case "g", "enter":
		if !a.gate.GenerateEnabled(a.snap) {
			return nil
		}
		return a.do("generate", func(ctx context.Context) error {
			return a.orch.Generate(ctx, "")
		})
	case "o":
		return a.override()
	case "d":
		return a.download()
	}
	return nil
}

func (a *App) download() tea.Cmd {
	files := a.snap.Generate.Result.Files()
	if a.snap.Generate.Status != workflow.Succeeded || len(files) == 0 || a.opts.Downloader == nil {
		return nil
	}
	ctx, dl, dir := a.ctx, a.opts.Downloader, a.opts.DownloadDir
	a.setStatus("Downloading…", false)
	return func() tea.Msg {
		var paths []string
		for _, f := range files {
			p, _, err := dl.DownloadTo(ctx, f, dir, false)
			if err != nil {
				return downloadedMsg{paths: paths, err: err}
			}
			paths = append(paths, p)
		}
		return downloadedMsg{paths: paths}
	}
}
