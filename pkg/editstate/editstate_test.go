package editstate

import (
	"reflect"
	"testing"

	"github.com/xrsl/cvago/pkg/bridge"
	"github.com/xrsl/cvago/pkg/doc"
)

func TestAtMostOneSection(t *testing.T) {
	tr := New()
	d := doc.NewMap()
	for _, s := range Sections {
		d = tr.Toggle(s, d)
		for _, other := range Sections {
			if got := tr.IsEditing(other); got != (other == s) {
				t.Fatalf("after opening %s, IsEditing(%s) = %v", s, other, got)
			}
		}
	}
	d = tr.Toggle(Strategy, d)
	if tr.Open() != None {
		t.Errorf("Open() = %q after toggling the open section", tr.Open())
	}
	_ = d
}

func TestExperienceIndependentOfSection(t *testing.T) {
	tr := New()
	tr.Toggle(Personal, doc.NewMap())
	tr.ToggleExperience(2)
	if i, ok := tr.Experience(); !ok || i != 2 {
		t.Fatalf("Experience() = %d, %v", i, ok)
	}
	if !tr.IsEditing(Personal) {
		t.Error("opening an experience closed the section")
	}
	tr.ToggleExperience(0)
	if i, _ := tr.Experience(); i != 0 {
		t.Errorf("Experience() = %d, want 0", i)
	}
	tr.ToggleExperience(0)
	if _, ok := tr.Experience(); ok {
		t.Error("toggle of open entry should close it")
	}
}

func TestExperienceRemoved(t *testing.T) {
	tr := New()
	tr.ToggleExperience(3)
	tr.ExperienceRemoved(1)
	if i, _ := tr.Experience(); i != 2 {
		t.Errorf("Experience() = %d, want 2", i)
	}
	tr.ExperienceRemoved(2)
	if _, ok := tr.Experience(); ok {
		t.Error("removing the open entry should close it")
	}
}

func strategyTracker(buf *bridge.Buffer) *Tracker {
	tr := New()
	tr.OnOpen(Strategy, func(d doc.Node) doc.Node {
		buf.Open(d)
		return d
	})
	tr.OnClose(Strategy, buf.Close)
	return tr
}

func TestStrategyCommitsOnToggleClose(t *testing.T) {
	p := doc.ParsePath("strategy.targetRoles")
	buf := bridge.NewBuffer(bridge.List(p))
	tr := strategyTracker(buf)

	d := tr.Toggle(Strategy, doc.NewMap())
	buf.SetText("Tech Lead, Staff Engineer")
	d = tr.Toggle(Strategy, d)

	if got := bridge.StringsAt(d, p); !reflect.DeepEqual(got, []string{"Tech Lead", "Staff Engineer"}) {
		t.Errorf("targetRoles = %q", got)
	}
}

func TestStrategyCommitsWhenSwitchingAway(t *testing.T) {
	p := doc.ParsePath("strategy.targetRoles")
	buf := bridge.NewBuffer(bridge.List(p))
	tr := strategyTracker(buf)

	d := tr.Toggle(Strategy, doc.NewMap())
	buf.SetText("Principal\nArchitect")
	d = tr.Toggle(Personal, d)

	if got := bridge.StringsAt(d, p); !reflect.DeepEqual(got, []string{"Principal", "Architect"}) {
		t.Errorf("targetRoles = %q", got)
	}
	if !tr.IsEditing(Personal) {
		t.Error("personal not open after switch")
	}
}

func TestOpenHookReseedsBuffer(t *testing.T) {
	p := doc.ParsePath("strategy.targetRoles")
	buf := bridge.NewBuffer(bridge.List(p))
	tr := strategyTracker(buf)

	d := doc.Apply(doc.NewMap(), p, doc.Strings([]string{"A", "B"}))
	tr.Toggle(Strategy, d)
	if buf.Text() != "A\nB" {
		t.Errorf("buffer = %q, want one role per line", buf.Text())
	}
}
