// Package profile describes the profile document: its typed read view, the
// invariants edits must keep, and the committed/draft store.
package profile

import (
	"encoding/json"
	"strconv"

	"github.com/xrsl/cvago/pkg/doc"
)

// SeniorityCustom is the seniority value meaning "use seniorityCustom".
const SeniorityCustom = "_custom"

// Well-known paths.
var (
	PathNarrative       = doc.P("narrative")
	PathExperience      = doc.P("experience")
	PathEducation       = doc.P("education")
	PathTechnical       = doc.P("skills", "technical")
	PathSoft            = doc.P("skills", "soft")
	PathLanguages       = doc.P("languages")
	PathTargetRoles     = doc.P("strategy", "targetRoles")
	PathWorkMode        = doc.P("strategy", "workMode")
	PathSeniority       = doc.P("strategy", "seniority")
	PathSeniorityCustom = doc.P("strategy", "seniorityCustom")
)

// ImmutableFields are the experience fields the server treats as fixed.
// The editor labels them but does not lock them.
var ImmutableFields = []string{"company", "officialTitle", "start", "end"}

// Profile is a read-only typed view of a profile document. Documents come
// from the server and may hold loosely typed values, so scalar fields use
// tolerant types.
type Profile struct {
	Personal   Personal     `json:"personal"`
	Narrative  Narrative    `json:"narrative"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     Skills       `json:"skills"`
	Languages  []Language   `json:"languages"`
	Strategy   Strategy     `json:"strategy"`
}

type Personal struct {
	FirstName Text            `json:"firstName"`
	LastName  Text            `json:"lastName"`
	Email     Text            `json:"email"`
	Phone     Text            `json:"phone"`
	Location  Text            `json:"location"`
	Links     map[string]Text `json:"links"`
}

type Narrative struct {
	Headline     Text `json:"headline"`
	CoreIdentity Text `json:"coreIdentity"`
	CareerGoal   Text `json:"careerGoal"`
}

type Experience struct {
	Immutable    Immutable    `json:"immutable"`
	Raw          Text         `json:"raw"`
	Facts        []Fact       `json:"facts"`
	Capabilities []Capability `json:"capabilities"`
	Technologies []Technology `json:"technologies"`
}

type Immutable struct {
	Company       Text `json:"company"`
	OfficialTitle Text `json:"officialTitle"`
	Start         Text `json:"start"`
	End           Text `json:"end"`
}

type Fact struct {
	What   Text  `json:"what"`
	Metric Float `json:"metric"`
	Scope  Text  `json:"scope"`
	MyRole Text  `json:"myRole"`
}

type Capability struct {
	Name     Text   `json:"name"`
	Evidence []Text `json:"evidence"`
}

// Technology is either a bare name or a full record. Bare reports which.
type Technology struct {
	Name             Text   `json:"name"`
	YearsInThisRole  Float  `json:"yearsInThisRole"`
	UsedInProduction Flag   `json:"usedInProduction"`
	Depth            Text   `json:"depth"`
	Contexts         []Text `json:"contexts"`
	Bare             bool   `json:"-"`
}

func (t *Technology) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Technology{Name: Text(s), Bare: true}
		return nil
	}
	type plain Technology
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Technology(p)
	return nil
}

type Education struct {
	Degree      Text `json:"degree"`
	Institution Text `json:"institution"`
	Year        Text `json:"year"`
	Notes       Text `json:"notes"`
}

type Skills struct {
	Technical []TechnicalSkill `json:"technical"`
	Soft      []Text           `json:"soft"`
}

type TechnicalSkill struct {
	Name             Text  `json:"name"`
	Level            Text  `json:"level"`
	UsedInProduction Flag  `json:"usedInProduction"`
	YearsTotal       Float `json:"yearsTotal"`
	LastUsed         Text  `json:"lastUsed"`
}

type Language struct {
	Language Text `json:"language"`
	Level    Text `json:"level"`
}

type Strategy struct {
	TargetRoles     []Text `json:"targetRoles"`
	WorkMode        Text   `json:"workMode"`
	Seniority       Text   `json:"seniority"`
	SeniorityCustom Text   `json:"seniorityCustom"`
}

// Decode builds the typed view of d.
func Decode(d doc.Node) (Profile, error) {
	var p Profile
	if err := doc.Decode(d, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Text accepts any JSON scalar and keeps its textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var n doc.Node
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Text(n.Text())
	return nil
}

func (t Text) String() string { return string(t) }

// Float accepts numbers and numeric strings. Anything else is unset.
type Float struct {
	Value float64
	Valid bool
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var n doc.Node
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = Float{}
	if v, ok := n.Num(); ok {
		*f = Float{Value: v, Valid: true}
	} else if s, ok := n.Str(); ok {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*f = Float{Value: v, Valid: true}
		}
	}
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return doc.Number(f.Value).MarshalJSON()
}

func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// Flag accepts booleans and "true"/"false" strings.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var n doc.Node
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	if b, ok := n.BoolValue(); ok {
		*f = Flag(b)
		return nil
	}
	b, _ := strconv.ParseBool(n.Text())
	*f = Flag(b)
	return nil
}

// Strings converts a Text slice.
func Strings(ts []Text) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		if t != "" {
			out = append(out, string(t))
		}
	}
	return out
}
