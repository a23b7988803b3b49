package profile

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Link is a named personal link with a value.
type Link struct {
	Name string
	URL  string
}

// Summary is the read-only overview shown for a committed profile.
type Summary struct {
	FullName    string
	Email       string
	Phone       string
	Location    string
	Headline    string
	TotalYears  int
	HasYears    bool
	Seniority   string
	WorkMode    string
	TargetRoles []string
	Languages   []string
	Links       []Link
	Experiences int
}

// Summarize builds the overview of p as of now.
func Summarize(p Profile, now time.Time) Summary {
	s := Summary{
		FullName:    strings.TrimSpace(string(p.Personal.FirstName) + " " + string(p.Personal.LastName)),
		Email:       string(p.Personal.Email),
		Phone:       string(p.Personal.Phone),
		Location:    string(p.Personal.Location),
		Headline:    string(p.Narrative.Headline),
		WorkMode:    string(p.Strategy.WorkMode),
		TargetRoles: Strings(p.Strategy.TargetRoles),
		Experiences: len(p.Experience),
	}
	s.TotalYears, s.HasYears = TotalYears(p.Experience, now)

	s.Seniority = string(p.Strategy.Seniority)
	if s.Seniority == SeniorityCustom {
		s.Seniority = string(p.Strategy.SeniorityCustom)
	}

	for _, l := range p.Languages {
		if l.Language == "" {
			continue
		}
		entry := string(l.Language)
		if l.Level != "" {
			entry += " (" + string(l.Level) + ")"
		}
		s.Languages = append(s.Languages, entry)
	}

	names := make([]string, 0, len(p.Personal.Links))
	for name := range p.Personal.Links {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if url := strings.TrimSpace(string(p.Personal.Links[name])); url != "" {
			s.Links = append(s.Links, Link{Name: name, URL: url})
		}
	}
	return s
}

// TotalYears counts whole calendar years since the earliest experience
// start. Starts are read by their leading year ("2016-03" is 2016).
func TotalYears(exps []Experience, now time.Time) (int, bool) {
	earliest := 0
	for _, e := range exps {
		y, ok := leadingYear(string(e.Immutable.Start))
		if !ok {
			continue
		}
		if earliest == 0 || y < earliest {
			earliest = y
		}
	}
	if earliest == 0 {
		return 0, false
	}
	return now.Year() - earliest, true
}

func leadingYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	y, err := strconv.Atoi(s[:end])
	if err != nil || y <= 0 {
		return 0, false
	}
	return y, true
}
