package bridge

import (
	"reflect"
	"testing"

	"github.com/xrsl/cvago/pkg/doc"
)

func TestComposePresentation(t *testing.T) {
	got := ComposePresentation("  Backend engineer ", "Builds APIs", "\tLead a team\n")
	want := "Backend engineer\n\nBuilds APIs\n\nLead a team"
	if got != want {
		t.Errorf("ComposePresentation = %q, want %q", got, want)
	}
}

func TestDecomposePresentation(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		h, core, goal string
	}{
		{"empty", "", "", "", ""},
		{"headline only", "  Engineer  ", "Engineer", "", ""},
		{"two parts", "A\n\nB", "A", "B", ""},
		{"blank slot keeps its place", "A\n\n\n\nB\n\nC", "A", "", "B\n\nC"},
		{"extra paragraphs go to goal", "A\n\nB\n\nC\n\nD", "A", "B", "C\n\nD"},
		{"single newline stays in field", "A\nstill A\n\nB", "A\nstill A", "B", ""},
		{"empty middle stays empty", ComposePresentation("A", "", "C"), "A", "", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, c, g := DecomposePresentation(tt.text)
			if h != tt.h || c != tt.core || g != tt.goal {
				t.Errorf("DecomposePresentation(%q) = (%q, %q, %q), want (%q, %q, %q)", tt.text, h, c, g, tt.h, tt.core, tt.goal)
			}
		})
	}
}

func TestPresentationRoundTrip(t *testing.T) {
	values := [3]string{"Head", "Core\nline", "Goal"}
	for mask := 0; mask < 8; mask++ {
		var in [3]string
		for i := range in {
			if mask&(1<<i) != 0 {
				in[i] = values[i]
			}
		}
		h, c, g := DecomposePresentation(ComposePresentation(in[0], in[1], in[2]))
		if got := [3]string{h, c, g}; got != in {
			t.Errorf("round trip %q = %q", in, got)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"Tech Lead\nStaff Engineer", []string{"Tech Lead", "Staff Engineer"}},
		{"Tech Lead, Staff Engineer", []string{"Tech Lead", "Staff Engineer"}},
		{" a ,, \n\n b ,a", []string{"a", "b", "a"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitVariants(t *testing.T) {
	if got := SplitComma("led migration, wrote RFC\nsecond line"); !reflect.DeepEqual(got, []string{"led migration", "wrote RFC\nsecond line"}) {
		t.Errorf("SplitComma = %q", got)
	}
	if got := SplitLines("payments, billing\n\nsearch"); !reflect.DeepEqual(got, []string{"payments, billing", "search"}) {
		t.Errorf("SplitLines = %q", got)
	}
	if got := JoinComma([]string{"a", "b"}); got != "a, b" {
		t.Errorf("JoinComma = %q", got)
	}
}

func TestListRoundTripIsStable(t *testing.T) {
	items := SplitList("x\ny, z")
	if got := SplitList(JoinList(items)); !reflect.DeepEqual(got, items) {
		t.Errorf("SplitList(JoinList(%q)) = %q", items, got)
	}
}

func TestBufferCommitPoints(t *testing.T) {
	p := doc.ParsePath("strategy.targetRoles")
	d := doc.Apply(doc.NewMap(), p, doc.Strings([]string{"Lead"}))
	buf := NewBuffer(List(p))
	buf.Open(d)
	if buf.Text() != "Lead" {
		t.Fatalf("Open text = %q", buf.Text())
	}

	buf.SetText("Lead\nStaff,")
	if got := bufferRoles(d, p); !reflect.DeepEqual(got, []string{"Lead"}) {
		t.Fatalf("document changed before commit: %q", got)
	}
	// the trailing comma stays in the buffer while typing
	if buf.Text() != "Lead\nStaff," {
		t.Errorf("buffer text = %q", buf.Text())
	}

	d2 := buf.Commit(d)
	if got := bufferRoles(d2, p); !reflect.DeepEqual(got, []string{"Lead", "Staff"}) {
		t.Errorf("committed roles = %q", got)
	}
	if got := bufferRoles(d, p); !reflect.DeepEqual(got, []string{"Lead"}) {
		t.Errorf("input document mutated: %q", got)
	}
	if buf.Dirty() {
		t.Error("buffer still dirty after commit")
	}
	if d3 := buf.Commit(d2); !d3.Equal(d2) {
		t.Error("second commit changed the document")
	}
}

func TestBufferOpenDiscardsPending(t *testing.T) {
	p := doc.ParsePath("name")
	d := doc.Apply(doc.NewMap(), p, doc.String("a"))
	buf := NewBuffer(Text(p))
	buf.Open(d)
	buf.SetText("b")
	buf.Open(d)
	if buf.Dirty() || buf.Text() != "a" {
		t.Errorf("after reopen text=%q dirty=%v", buf.Text(), buf.Dirty())
	}
}

func TestPresentationBinding(t *testing.T) {
	base := doc.ParsePath("narrative")
	buf := NewBuffer(Presentation(base))
	buf.Open(doc.NewMap())
	buf.SetText("Head\n\nCore\n\n\nGoal one\n\nGoal two")
	d := buf.Close(doc.NewMap())
	want := `{"narrative":{"headline":"Head","coreIdentity":"Core","careerGoal":"Goal one\n\nGoal two"}}`
	b, _ := d.MarshalJSON()
	if string(b) != want {
		t.Errorf("narrative = %s, want %s", b, want)
	}
	if buf.IsOpen() {
		t.Error("buffer open after Close")
	}
}

func TestScalarBindings(t *testing.T) {
	p := doc.ParsePath("x")
	num := NewBuffer(Number(p))
	num.Open(doc.NewMap())
	num.SetText("abc")
	if n, _ := doc.Get(num.Commit(doc.NewMap()), p); n.Text() != "0" {
		t.Errorf("Number(abc) = %q", n.Text())
	}

	bl := NewBuffer(Bool(p))
	bl.Open(doc.NewMap())
	if bl.Text() != "false" {
		t.Errorf("Bool compose of missing = %q", bl.Text())
	}
	bl.SetText("yes")
	if n, _ := doc.Get(bl.Commit(doc.NewMap()), p); n.Text() != "true" {
		t.Errorf("Bool(yes) = %q", n.Text())
	}
}

func bufferRoles(d doc.Node, p doc.Path) []string {
	return StringsAt(d, p)
}
