// Package editstate tracks which profile section, and which experience
// entry, is open for editing.
package editstate

import (
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/log"
)

// Section names an editable block of the profile.
type Section string

const (
	None      Section = ""
	Personal  Section = "personal"
	Narrative Section = "narrative"
	Education Section = "education"
	Skills    Section = "skills"
	Soft      Section = "soft"
	Languages Section = "languages"
	Strategy  Section = "strategy"
)

// Sections lists the editable sections in display order.
var Sections = []Section{Personal, Narrative, Education, Skills, Soft, Languages, Strategy}

// Hook runs when a section opens or closes. It receives the document and
// returns the document to keep.
type Hook func(d doc.Node) doc.Node

// Tracker holds at most one open section and, independently, at most one
// open experience entry.
type Tracker struct {
	section    Section
	experience int
	onOpen     map[Section]Hook
	onClose    map[Section]Hook
}

func New() *Tracker {
	return &Tracker{
		experience: -1,
		onOpen:     map[Section]Hook{},
		onClose:    map[Section]Hook{},
	}
}

// OnOpen registers h to run after s opens.
func (t *Tracker) OnOpen(s Section, h Hook) { t.onOpen[s] = h }

// OnClose registers h to run before s closes, whatever closes it.
func (t *Tracker) OnClose(s Section, h Hook) { t.onClose[s] = h }

// Open returns the section being edited, or None.
func (t *Tracker) Open() Section { return t.section }

func (t *Tracker) IsEditing(s Section) bool { return s != None && t.section == s }

// Toggle closes s when it is open and opens it otherwise, closing whatever
// was open before.
func (t *Tracker) Toggle(s Section, d doc.Node) doc.Node {
	if t.section == s {
		return t.Close(d)
	}
	return t.Switch(s, d)
}

// Switch opens s, closing the previous section first.
func (t *Tracker) Switch(s Section, d doc.Node) doc.Node {
	if t.section == s {
		return d
	}
	d = t.Close(d)
	if s == None {
		return d
	}
	t.section = s
	log.Debug("section opened", "section", s)
	if h := t.onOpen[s]; h != nil {
		d = h(d)
	}
	return d
}

// Close closes the open section, running its close hook.
func (t *Tracker) Close(d doc.Node) doc.Node {
	prev := t.section
	if prev == None {
		return d
	}
	if h := t.onClose[prev]; h != nil {
		d = h(d)
	}
	t.section = None
	log.Debug("section closed", "section", prev)
	return d
}

// Experience returns the open experience index.
func (t *Tracker) Experience() (int, bool) {
	return t.experience, t.experience >= 0
}

// ToggleExperience opens entry i, or closes it when already open.
func (t *Tracker) ToggleExperience(i int) {
	if t.experience == i {
		t.experience = -1
		return
	}
	t.experience = i
}

func (t *Tracker) CloseExperience() { t.experience = -1 }

// ExperienceRemoved keeps the open index pointing at the same entry after
// entry i was removed.
func (t *Tracker) ExperienceRemoved(i int) {
	switch {
	case t.experience == i:
		t.experience = -1
	case t.experience > i:
		t.experience--
	}
}
