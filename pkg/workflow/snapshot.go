package workflow

import (
	"time"

	"github.com/xrsl/cvago/pkg/api"
)

// Snapshot is an immutable copy of the workflow state.
type Snapshot struct {
	// Seq increases with every published change; consumers can drop
	// snapshots older than one they already have.
	Seq uint64

	Summary  View[string]
	Match    View[api.MatchResult]
	Generate View[api.AdaptResult]
	Parse    View[struct{}]
	Save     View[struct{}]
	Load     View[struct{}]

	Analyzing   bool
	Label       string
	JD          string
	CanGenerate bool
	Overridden  bool
	Saved       bool
	Language    string

	HasProfile bool
	HasDraft   bool
}

// SummaryText is the current position summary, or "".
func (s Snapshot) SummaryText() string {
	if s.Summary.Status != Succeeded {
		return ""
	}
	return s.Summary.Result
}

// MatchResult returns the assessment of a succeeded match.
func (s Snapshot) MatchResult() (api.MatchResult, bool) {
	if s.Match.Status != Succeeded {
		return api.MatchResult{}, false
	}
	return s.Match.Result, true
}

// Approved reports an approved match.
func (s Snapshot) Approved() bool {
	m, ok := s.MatchResult()
	return ok && m.Approved
}

// GenerateEnabled reports whether the generate control is usable.
func (s Snapshot) GenerateEnabled() bool {
	return s.SummaryText() != "" && s.CanGenerate && s.Generate.Status != InFlight
}

// Busy reports whether any action is in flight.
func (s Snapshot) Busy() bool {
	return s.Analyzing || s.Generate.Status == InFlight || s.Parse.Status == InFlight ||
		s.Save.Status == InFlight || s.Load.Status == InFlight
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		Seq:         o.seq,
		Summary:     o.summary.View(),
		Match:       o.match.View(),
		Generate:    o.generate.View(),
		Parse:       o.parse.View(),
		Save:        o.save.View(),
		Load:        o.load.View(),
		Analyzing:   o.analyzing,
		Label:       o.label,
		JD:          o.jd,
		CanGenerate: o.canGenerate,
		Overridden:  o.overridden,
		Saved:       o.saved,
		Language:    o.language,
		HasProfile:  o.store.HasCommitted(),
		HasDraft:    o.store.HasDraft(),
	}
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Session is the part of the analysis state worth keeping between CLI
// invocations.
type Session struct {
	JD          string           `json:"jd"`
	Summary     string           `json:"summary"`
	Match       *api.MatchResult `json:"match,omitempty"`
	CanGenerate bool             `json:"can_generate"`
	Overridden  bool             `json:"overridden"`
	Language    string           `json:"language"`
	AnalyzedAt  time.Time        `json:"analyzed_at"`
}

// Session returns the analysis state once a summary exists.
func (o *Orchestrator) Session() (Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	summary, ok := o.summary.Result()
	if !ok {
		return Session{}, false
	}
	s := Session{
		JD:          o.jd,
		Summary:     summary,
		CanGenerate: o.canGenerate,
		Overridden:  o.overridden,
		Language:    o.language,
		AnalyzedAt:  o.analyzedAt,
	}
	if m, ok := o.match.Result(); ok {
		s.Match = &m
	}
	return s, true
}

// Restore loads a saved Session. It does nothing while Analyze runs.
func (o *Orchestrator) Restore(s Session) {
	o.update(func() bool {
		if o.analyzing {
			return false
		}
		o.jd = s.JD
		o.summary.Restore(s.Summary)
		if s.Match != nil {
			o.match.Restore(*s.Match)
		} else {
			o.match.Reset()
		}
		o.canGenerate = s.CanGenerate
		o.overridden = s.Overridden
		o.analyzedAt = s.AnalyzedAt
		if api.ValidLanguage(s.Language) {
			o.language = s.Language
		}
		return true
	})
}
