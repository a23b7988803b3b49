package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/xrsl/cvago/pkg/bridge"
	"github.com/xrsl/cvago/pkg/doc"
)

const sample = `{
  "personal": {"firstName": "Lucía", "lastName": "Pérez", "email": "lucia@example.com",
    "links": {"linkedin": "https://linkedin.com/in/lucia", "github": "", "portfolio": "https://lucia.dev"}},
  "narrative": {"headline": "Backend engineer", "coreIdentity": "Builds APIs", "careerGoal": "Lead a platform team"},
  "experience": [
    {"immutable": {"company": "Acme", "officialTitle": "SWE", "start": "2016-03", "end": "2020"},
     "facts": [{"what": "Cut latency", "metric": 40, "scope": "", "myRole": "owner"}],
     "capabilities": [{"name": "Mentoring", "evidence": ["ran onboarding"]}],
     "technologies": ["Go", {"name": "PostgreSQL", "yearsInThisRole": 3, "usedInProduction": true, "depth": "architecture", "contexts": ["billing"]}]},
    {"immutable": {"company": "Globex", "start": 2020}, "facts": [{"what": "x", "metric": "30%"}]}
  ],
  "languages": [{"language": "Spanish", "level": "native"}, {"language": "English"}],
  "skills": {"technical": [{"name": "Go", "level": "avanzado", "usedInProduction": "true", "yearsTotal": "7"}], "soft": ["Communication"]},
  "strategy": {"targetRoles": ["Tech Lead"], "workMode": "remoto", "seniority": "_custom", "seniorityCustom": "Principal"}
}`

func sampleDoc(t *testing.T) doc.Node {
	t.Helper()
	d, err := doc.ParseJSON([]byte(sample))
	if err != nil {
		t.Fatalf("ParseJSON error = %v", err)
	}
	return d
}

func TestDecodeTolerant(t *testing.T) {
	p, err := Decode(sampleDoc(t))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	techs := p.Experience[0].Technologies
	if !techs[0].Bare || techs[0].Name != "Go" {
		t.Errorf("bare technology = %+v", techs[0])
	}
	if techs[1].Bare || techs[1].YearsInThisRole.Value != 3 || !bool(techs[1].UsedInProduction) {
		t.Errorf("record technology = %+v", techs[1])
	}
	if p.Experience[1].Immutable.Start != "2020" {
		t.Errorf("numeric start = %q", p.Experience[1].Immutable.Start)
	}
	if f := p.Experience[1].Facts[0].Metric; f.Valid {
		t.Errorf("string metric decoded as %+v", f)
	}
	if s := p.Skills.Technical[0]; !bool(s.UsedInProduction) || s.YearsTotal.Value != 7 {
		t.Errorf("technical skill = %+v", s)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "null"},
		{"   ", "null"},
		{"40", "40"},
		{" 12.5 ", "12.5"},
		{"0", "0"},
		{"-3", "-3"},
		{"30%", "null"},
		{"abc", "null"},
		{"NaN", "null"},
		{"Inf", "null"},
	}
	for _, tt := range tests {
		b, _ := ParseMetric(tt.in).MarshalJSON()
		if string(b) != tt.want {
			t.Errorf("ParseMetric(%q) = %s, want %s", tt.in, b, tt.want)
		}
	}
}

func TestSetMetricNeverStoresString(t *testing.T) {
	d := sampleDoc(t)
	for _, text := range []string{"", "abc", "15"} {
		out := SetMetric(d, 0, 0, text)
		m, _ := doc.Get(out, FactPath(0, 0).Append(doc.Name("metric")))
		if m.IsString() {
			t.Errorf("SetMetric(%q) stored a string", text)
		}
	}
}

func TestMetricBinding(t *testing.T) {
	p := FactPath(0, 0).Append(doc.Name("metric"))
	buf := bridge.NewBuffer(Metric(p))
	buf.Open(sampleDoc(t))
	if buf.Text() != "40" {
		t.Errorf("metric text = %q", buf.Text())
	}
	buf.SetText("n/a")
	out := buf.Commit(sampleDoc(t))
	if m, _ := doc.Get(out, p); !m.IsNull() {
		t.Errorf("metric = %v, want null", m.Kind())
	}
}

func TestNormalizeMetrics(t *testing.T) {
	d := doc.Apply(sampleDoc(t), doc.ParsePath("experience.0.facts.0.metric"), doc.String("25"))
	out := NormalizeMetrics(d)
	if m, _ := doc.Get(out, doc.ParsePath("experience.0.facts.0.metric")); m.Text() != "25" || !m.IsNumber() {
		t.Errorf("numeric string metric = %s %q", m.Kind(), m.Text())
	}
	if m, _ := doc.Get(out, doc.ParsePath("experience.1.facts.0.metric")); !m.IsNull() {
		t.Errorf("non-numeric metric = %s", m.Kind())
	}
	if issues := Validate(out); HasErrors(issues) {
		t.Errorf("normalized doc has errors: %v", issues)
	}
}

func TestSetTechnologyFieldNormalizes(t *testing.T) {
	d := sampleDoc(t)
	out := SetTechnologyField(d, 0, 0, "depth", doc.String("implementation"))
	got, _ := doc.Get(out, TechnologyPath(0, 0))
	want := `{"name":"Go","yearsInThisRole":0,"usedInProduction":false,"depth":"implementation","contexts":[]}`
	if b, _ := got.MarshalJSON(); string(b) != want {
		t.Errorf("technology = %s, want %s", b, want)
	}
	if orig, _ := doc.Get(d, TechnologyPath(0, 0)); !orig.IsString() {
		t.Error("input document mutated")
	}

	rec := SetTechnologyField(d, 0, 1, "depth", doc.String("basic"))
	if n, _ := doc.Get(rec, TechnologyPath(0, 1).Append(doc.Name("yearsInThisRole"))); n.Text() != "3" {
		t.Errorf("existing record lost fields: yearsInThisRole = %q", n.Text())
	}
}

func TestTechnologyFieldBinding(t *testing.T) {
	item := TechnologyPath(0, 0)
	buf := bridge.NewBuffer(TechnologyField(item, bridge.Lines(item.Append(doc.Name("contexts")))))
	buf.Open(sampleDoc(t))
	buf.SetText("payments\nsearch")
	out := buf.Commit(sampleDoc(t))
	got, _ := doc.Get(out, item)
	if !got.IsMap() || TechnologyName(got) != "Go" {
		t.Fatalf("technology = %s", got.Kind())
	}
	if ctx := bridge.StringsAt(out, item.Append(doc.Name("contexts"))); len(ctx) != 2 {
		t.Errorf("contexts = %q", ctx)
	}
}

func TestAddRemoveItems(t *testing.T) {
	d := sampleDoc(t)
	d = AddFact(d, 0)
	d = AddCapability(d, 0)
	d = AddTechnology(d, 1)

	facts, _ := doc.Get(d, doc.P("experience", 0, "facts"))
	if facts.Len() != 2 {
		t.Fatalf("facts = %d", facts.Len())
	}
	added, _ := facts.At(1)
	if b, _ := added.MarshalJSON(); string(b) != `{"what":"","metric":null,"scope":"","myRole":""}` {
		t.Errorf("new fact = %s", b)
	}
	if caps, _ := doc.Get(d, doc.P("experience", 0, "capabilities")); caps.Len() != 2 {
		t.Errorf("capabilities = %d", caps.Len())
	}
	if techs, _ := doc.Get(d, doc.P("experience", 1, "technologies")); techs.Len() != 1 {
		t.Errorf("technologies created = %d", techs.Len())
	}

	d = RemoveItem(d, doc.P("experience", 0, "facts"), 0)
	facts, _ = doc.Get(d, doc.P("experience", 0, "facts"))
	first, _ := facts.At(0)
	if facts.Len() != 1 || doc.GetText(first, doc.P("what")) != "" {
		t.Errorf("after remove facts = %d", facts.Len())
	}
}

func TestSeniority(t *testing.T) {
	d := sampleDoc(t)

	sent := ResolveSeniority(d)
	if got := doc.GetText(sent, PathSeniority); got != "Principal" {
		t.Errorf("resolved seniority = %q", got)
	}
	if got := doc.GetText(d, PathSeniority); got != SeniorityCustom {
		t.Errorf("draft seniority changed to %q", got)
	}

	noCustom := doc.Remove(d, PathSeniorityCustom)
	if got := EffectiveSeniority(noCustom); got != "" {
		t.Errorf("missing custom value resolves to %q", got)
	}

	out := SetSeniority(d, "senior")
	if doc.GetText(out, PathSeniority) != "senior" || doc.GetText(out, PathSeniorityCustom) != "" {
		t.Errorf("SetSeniority(senior) kept custom value %q", doc.GetText(out, PathSeniorityCustom))
	}
	kept := SetSeniority(d, SeniorityCustom)
	if doc.GetText(kept, PathSeniorityCustom) != "Principal" {
		t.Error("choosing the custom sentinel cleared the custom value")
	}
}

func TestValidate(t *testing.T) {
	issues := Validate(sampleDoc(t))
	var sawMetric bool
	for _, i := range issues {
		if i.Path == "experience.1.facts.0.metric" && i.Severity == SeverityError {
			sawMetric = true
		}
	}
	if !sawMetric {
		t.Errorf("string metric not reported: %v", issues)
	}

	d := doc.Apply(doc.NewMap(), PathSeniority, doc.String(SeniorityCustom))
	issues = Validate(d)
	if len(issues) != 1 || issues[0].Severity != SeverityWarning {
		t.Errorf("empty custom seniority issues = %v", issues)
	}
	if !HasErrors(Validate(doc.String("x"))) {
		t.Error("scalar root should be an error")
	}
}

func TestSummarize(t *testing.T) {
	p, err := Decode(sampleDoc(t))
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(p, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if s.FullName != "Lucía Pérez" {
		t.Errorf("FullName = %q", s.FullName)
	}
	if !s.HasYears || s.TotalYears != 10 {
		t.Errorf("TotalYears = %d, %v", s.TotalYears, s.HasYears)
	}
	if s.Seniority != "Principal" {
		t.Errorf("Seniority = %q", s.Seniority)
	}
	if len(s.Links) != 2 || s.Links[0].Name != "linkedin" || s.Links[1].Name != "portfolio" {
		t.Errorf("Links = %+v", s.Links)
	}
	if len(s.Languages) != 2 || s.Languages[0] != "Spanish (native)" || s.Languages[1] != "English" {
		t.Errorf("Languages = %q", s.Languages)
	}
}

func TestTotalYearsWithoutStarts(t *testing.T) {
	if _, ok := TotalYears([]Experience{{}}, time.Now()); ok {
		t.Error("expected no total without start dates")
	}
}

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	if _, err := s.BeginEdit(); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("BeginEdit without profile err = %v", err)
	}

	s.SetCommitted(sampleDoc(t))
	draft, err := s.BeginEdit()
	if err != nil {
		t.Fatal(err)
	}
	s.Replace(doc.Apply(draft, doc.P("personal", "firstName"), doc.String("Ana")))

	committed, _ := s.Committed()
	if doc.GetText(committed, doc.P("personal", "firstName")) != "Lucía" {
		t.Error("editing the draft changed the committed profile")
	}

	d, _ := s.Draft()
	s.Replace(doc.Apply(d, doc.P("personal", "lastName"), doc.String("Ruiz")))
	if s.Promote(d) {
		t.Error("promote cleared a draft edited after it was taken")
	}
	if got, _ := s.Draft(); doc.GetText(got, doc.P("personal", "lastName")) != "Ruiz" {
		t.Error("pending edit lost on promote")
	}

	d, _ = s.Draft()
	if !s.Promote(d) {
		t.Error("promote kept an unchanged draft")
	}
	if _, ok := s.Draft(); ok {
		t.Error("draft not cleared after promote")
	}
	committed, _ = s.Committed()
	if doc.GetText(committed, doc.P("personal", "firstName")) != "Ana" {
		t.Error("promote did not commit the draft")
	}
	if err := s.Update(func(d doc.Node) doc.Node { return d }); !errors.Is(err, ErrNoDraft) {
		t.Errorf("Update without draft err = %v", err)
	}
}
