package doc

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func mustJSON(t *testing.T, s string) Node {
	t.Helper()
	n, err := ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON(%q) error = %v", s, err)
	}
	return n
}

func jsonOf(t *testing.T, n Node) string {
	t.Helper()
	b, err := n.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error = %v", err)
	}
	return string(b)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", nil},
		{"a", Path{Name("a")}},
		{"experience.0.facts.1.metric", Path{Name("experience"), Index(0), Name("facts"), Index(1), Name("metric")}},
		{"a.01", Path{Name("a"), Index(1)}},
		{"a.-1", Path{Name("a"), Name("-1")}},
		{"a.1x", Path{Name("a"), Name("1x")}},
	}
	for _, tt := range tests {
		got := ParsePath(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("ParsePath(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParsePath(%q)[%d] = %+v, want %+v", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestPathPattern(t *testing.T) {
	p := ParsePath("experience.3.technologies.0.name")
	if got := p.Pattern(); got != "experience.*.technologies.*.name" {
		t.Errorf("Pattern() = %q", got)
	}
	if got := p.String(); got != "experience.3.technologies.0.name" {
		t.Errorf("String() = %q", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		path  string
		value Node
		want  string
	}{
		{"set existing", `{"a":1}`, "a", Int(2), `{"a":2}`},
		{"add key keeps order", `{"b":1,"a":2}`, "c", String("x"), `{"b":1,"a":2,"c":"x"}`},
		{"create map intermediates", `{}`, "personal.links.github", String("gh"), `{"personal":{"links":{"github":"gh"}}}`},
		{"create seq intermediate", `{}`, "strategy.targetRoles.0", String("Lead"), `{"strategy":{"targetRoles":["Lead"]}}`},
		{"pad with nulls", `{"xs":[1]}`, "xs.3", Int(4), `{"xs":[1,null,null,4]}`},
		{"replace scalar intermediate with map", `{"a":"text"}`, "a.b", Bool(true), `{"a":{"b":true}}`},
		{"replace null intermediate with seq", `{"a":null}`, "a.1", Int(7), `{"a":[null,7]}`},
		{"index on map uses string key", `{"a":{"x":1}}`, "a.0", Int(9), `{"a":{"x":1,"0":9}}`},
		{"name on seq replaces it", `{"a":[1,2]}`, "a.b", Int(3), `{"a":{"b":3}}`},
		{"root scalar becomes map", `"s"`, "a", Int(1), `{"a":1}`},
		{"nested in seq of maps", `{"e":[{"facts":[{"metric":null}]}]}`, "e.0.facts.0.metric", Number(12.5), `{"e":[{"facts":[{"metric":12.5}]}]}`},
		{"empty path replaces root", `{"a":1}`, "", String("x"), `"x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustJSON(t, tt.doc)
			before := jsonOf(t, d)
			got := Apply(d, ParsePath(tt.path), tt.value)
			if s := jsonOf(t, got); s != tt.want {
				t.Errorf("Apply = %s, want %s", s, tt.want)
			}
			if after := jsonOf(t, d); after != before {
				t.Errorf("input mutated: %s -> %s", before, after)
			}
		})
	}
}

func TestApplySharesNoStorage(t *testing.T) {
	d := mustJSON(t, `{"experience":[{"facts":[{"what":"a"}]}],"other":{"k":[1,2]}}`)
	out := Apply(d, ParsePath("experience.0.facts.0.what"), String("b"))

	// Mutating the result through another Apply-free path must not leak.
	other, _ := Get(out, ParsePath("other.k"))
	other.seq[0] = Int(99)
	out.m["other"].m["k"].seq[1] = Int(100)

	if got := jsonOf(t, d); got != `{"experience":[{"facts":[{"what":"a"}]}],"other":{"k":[1,2]}}` {
		t.Errorf("input changed after mutating result: %s", got)
	}
}

func TestApplyValueIsCopied(t *testing.T) {
	v := mustJSON(t, `{"x":[1]}`)
	out := Apply(NewMap(), ParsePath("a"), v)
	v.m["x"].seq[0] = Int(2)
	if got := jsonOf(t, out); got != `{"a":{"x":[1]}}` {
		t.Errorf("result aliased value: %s", got)
	}
}

func TestGet(t *testing.T) {
	d := mustJSON(t, `{"a":[{"b":"x"}],"m":{"0":"zero"}}`)
	if n, ok := Get(d, ParsePath("a.0.b")); !ok || n.Text() != "x" {
		t.Errorf("Get a.0.b = %v, %v", n, ok)
	}
	if _, ok := Get(d, ParsePath("a.1.b")); ok {
		t.Error("Get out of range should fail")
	}
	if n, ok := Get(d, ParsePath("m.0")); !ok || n.Text() != "zero" {
		t.Errorf("Get m.0 = %v, %v", n, ok)
	}
	if _, ok := Get(d, ParsePath("a.b")); ok {
		t.Error("name on sequence should fail")
	}
}

func TestRemove(t *testing.T) {
	d := mustJSON(t, `{"xs":[1,2,3],"m":{"a":1,"b":2}}`)
	if got := jsonOf(t, Remove(d, ParsePath("xs.1"))); got != `{"xs":[1,3],"m":{"a":1,"b":2}}` {
		t.Errorf("Remove xs.1 = %s", got)
	}
	if got := jsonOf(t, Remove(d, ParsePath("m.a"))); got != `{"xs":[1,2,3],"m":{"b":2}}` {
		t.Errorf("Remove m.a = %s", got)
	}
	if got := jsonOf(t, Remove(d, ParsePath("xs"))); got != `{"m":{"a":1,"b":2}}` {
		t.Errorf("Remove xs = %s", got)
	}
	if got := jsonOf(t, Remove(d, ParsePath("xs.9"))); got != `{"xs":[1,2,3],"m":{"a":1,"b":2}}` {
		t.Errorf("Remove out of range = %s", got)
	}
	if got := jsonOf(t, d); got != `{"xs":[1,2,3],"m":{"a":1,"b":2}}` {
		t.Errorf("input mutated: %s", got)
	}
}

func TestReachable(t *testing.T) {
	d := mustJSON(t, `{"xs":[1,2],"m":{"a":1}}`)
	tests := []struct {
		path string
		ok   bool
	}{
		{"xs.1", true},
		{"xs.2", true},
		{"xs.3", false},
		{"xs.999999999", false},
		{"ys.0.name", true},
		{"ys.1", false},
		{"ys.0.zs.1", false},
		{"m.7", true},
	}
	for _, tt := range tests {
		err := Reachable(d, ParsePath(tt.path))
		if tt.ok && err != nil {
			t.Errorf("Reachable(%s) = %v", tt.path, err)
		}
		if !tt.ok && !errors.Is(err, ErrIndexRange) {
			t.Errorf("Reachable(%s) = %v, want ErrIndexRange", tt.path, err)
		}
	}
}

func TestAppend(t *testing.T) {
	d := mustJSON(t, `{"xs":[1]}`)
	got := Append(Append(d, ParsePath("xs"), Int(2)), ParsePath("ys"), String("a"))
	if s := jsonOf(t, got); s != `{"xs":[1,2],"ys":["a"]}` {
		t.Errorf("Append = %s", s)
	}
}

func TestJSONRoundTripKeepsOrder(t *testing.T) {
	in := `{"z":1,"a":{"y":[true,null,"s",1.5],"b":{}},"m":[]}`
	if got := jsonOf(t, mustJSON(t, in)); got != in {
		t.Errorf("round trip = %s, want %s", got, in)
	}
}

func TestJSONRejectsTrailingData(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"a":1} {}`)); err == nil {
		t.Error("expected error for trailing data")
	}
	if _, err := ParseJSON([]byte(`<html>`)); err == nil {
		t.Error("expected error for non-JSON")
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	src := "name: Ana\nyears: 7\nratio: 0.5\nactive: true\nroles:\n  - Lead\n  - Staff\nnothing: null\n"
	n, err := ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseYAML error = %v", err)
	}
	if got := jsonOf(t, n); got != `{"name":"Ana","years":7,"ratio":0.5,"active":true,"roles":["Lead","Staff"],"nothing":null}` {
		t.Errorf("ParseYAML = %s", got)
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		t.Fatalf("yaml.Marshal error = %v", err)
	}
	if !strings.HasPrefix(string(out), "name: Ana\nyears: 7\n") {
		t.Errorf("yaml.Marshal = %q", out)
	}
}

func TestEqualAndTruthy(t *testing.T) {
	a := mustJSON(t, `{"a":1,"b":[1,"x"]}`)
	b := mustJSON(t, `{"b":[1,"x"],"a":1}`)
	if !a.Equal(b) {
		t.Error("Equal should ignore key order")
	}
	if a.Equal(mustJSON(t, `{"a":1,"b":[1]}`)) {
		t.Error("different docs compared equal")
	}

	truthy := map[string]bool{`true`: true, `false`: false, `0`: false, `3`: true, `""`: false, `"x"`: true, `null`: false, `[]`: true, `{}`: true}
	for src, want := range truthy {
		if got := mustJSON(t, src).Truthy(); got != want {
			t.Errorf("Truthy(%s) = %v, want %v", src, got, want)
		}
	}
}

func TestFromAny(t *testing.T) {
	n := FromAny(map[string]any{"b": []any{1, "x"}, "a": nil})
	if got := jsonOf(t, n); got != `{"a":null,"b":[1,"x"]}` {
		t.Errorf("FromAny = %s", got)
	}
	type rec struct {
		Name string `json:"name"`
	}
	if got := jsonOf(t, FromAny(rec{Name: "Go"})); got != `{"name":"Go"}` {
		t.Errorf("FromAny(struct) = %s", got)
	}
}
