package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xrsl/cvago/pkg/api"
	"github.com/xrsl/cvago/pkg/doc"
	"github.com/xrsl/cvago/pkg/log"
	"github.com/xrsl/cvago/pkg/profile"
)

// Progress labels shown while Analyze runs.
const (
	LabelSummarizing = "Analyzing position…"
	LabelMatching    = "Evaluating match…"
)

const (
	DefaultSummaryTimeout      = 60 * time.Second
	DefaultSavedIndicatorDelay = 3 * time.Second
	DefaultLanguage            = "es"
)

var (
	ErrEmptyInput          = errors.New("paste the job description first")
	ErrInFlight            = errors.New("already running")
	ErrNotAllowed          = errors.New("generation is not allowed yet: analyze an approved position or choose generate anyway")
	ErrUnsupportedLanguage = errors.New("language must be es or en")
)

// Server is the part of the API the workflow needs.
type Server interface {
	GetProfile(ctx context.Context) (doc.Node, error)
	SaveProfile(ctx context.Context, p doc.Node) error
	Summarize(ctx context.Context, req api.SummaryRequest) (string, error)
	Match(ctx context.Context, profile doc.Node, jd string) (api.MatchResult, error)
	Adapt(ctx context.Context, language string) (api.AdaptResult, error)
	ParseAndEnrich(ctx context.Context, filename string, r io.Reader) (doc.Node, error)
}

// Options configures an Orchestrator. Zero fields take defaults.
type Options struct {
	SummaryTimeout      time.Duration
	SavedIndicatorDelay time.Duration
	Language            string
	Clock               Clock
	// OnChange receives every published Snapshot. It is called without
	// the orchestrator's lock held.
	OnChange func(Snapshot)
}

// Orchestrator owns the workflow state: one Phase per action, the generate
// gate and the transient saved indicator.
type Orchestrator struct {
	server Server
	store  *profile.Store
	opts   Options

	mu          sync.Mutex
	seq         uint64
	summary     Phase[string]
	match       Phase[api.MatchResult]
	generate    Phase[api.AdaptResult]
	parse       Phase[struct{}]
	save        Phase[struct{}]
	load        Phase[struct{}]
	analyzing   bool
	label       string
	jd          string
	analyzedAt  time.Time
	canGenerate bool
	overridden  bool
	saved       bool
	savedGen    int
	language    string
}

func New(server Server, store *profile.Store, opts Options) *Orchestrator {
	if opts.SummaryTimeout <= 0 {
		opts.SummaryTimeout = DefaultSummaryTimeout
	}
	if opts.SavedIndicatorDelay <= 0 {
		opts.SavedIndicatorDelay = DefaultSavedIndicatorDelay
	}
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if !api.ValidLanguage(opts.Language) {
		opts.Language = DefaultLanguage
	}
	if store == nil {
		store = profile.NewStore()
	}
	return &Orchestrator{server: server, store: store, opts: opts, language: opts.Language}
}

// Store returns the profile store the orchestrator reads and writes.
func (o *Orchestrator) Store() *profile.Store { return o.store }

// SetListener replaces the snapshot listener.
func (o *Orchestrator) SetListener(fn func(Snapshot)) {
	o.mu.Lock()
	o.opts.OnChange = fn
	o.mu.Unlock()
}

// update runs fn under the lock and publishes a snapshot when fn reports a
// change.
func (o *Orchestrator) update(fn func() bool) {
	o.mu.Lock()
	if !fn() {
		o.mu.Unlock()
		return
	}
	o.seq++
	snap := o.snapshotLocked()
	listener := o.opts.OnChange
	o.mu.Unlock()
	if listener != nil {
		listener(snap)
	}
}

func (o *Orchestrator) touch() {
	o.update(func() bool { return true })
}

// Analyze summarizes the pasted job description and, when a committed
// profile exists, assesses the match.
func (o *Orchestrator) Analyze(ctx context.Context, text string) error {
	return o.AnalyzePosition(ctx, api.SummaryRequest{Text: text})
}

// AnalyzePosition is Analyze for a request that may name a posting URL for
// the server to fetch instead of pasted text.
func (o *Orchestrator) AnalyzePosition(ctx context.Context, req api.SummaryRequest) error {
	req.Text = strings.TrimSpace(req.Text)
	req.URL = strings.TrimSpace(req.URL)
	if req.Text == "" && req.URL == "" {
		return ErrEmptyInput
	}

	var (
		busy       bool
		committed  doc.Node
		hasProfile bool
	)
	o.update(func() bool {
		if o.analyzing {
			busy = true
			return false
		}
		o.analyzing = true
		o.label = LabelSummarizing
		o.summary.Start()
		o.match.Reset()
		o.canGenerate = false
		o.overridden = false
		o.jd = req.Text
		committed, hasProfile = o.store.Committed()
		return true
	})
	if busy {
		return ErrInFlight
	}
	defer o.update(func() bool {
		o.analyzing = false
		o.label = ""
		return true
	})

	sctx, cancel := context.WithTimeout(ctx, o.opts.SummaryTimeout)
	summary, err := o.server.Summarize(sctx, req)
	if err != nil && !errors.Is(err, api.ErrTimeout) && errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = api.ErrTimeout
	}
	cancel()
	if err != nil {
		log.Warn("position summary failed", "error", err)
		o.update(func() bool {
			o.summary.Fail(err)
			return true
		})
		return err
	}
	log.Info("position summarized", "chars", len(summary))

	o.update(func() bool {
		o.summary.Succeed(summary)
		o.analyzedAt = o.opts.Clock.Now()
		if hasProfile {
			o.label = LabelMatching
			o.match.Start()
		}
		return true
	})
	if !hasProfile {
		log.Debug("no committed profile, skipping match")
		return nil
	}

	// A posting the server fetched itself is matched against its summary.
	jd := req.Text
	if jd == "" {
		jd = summary
	}
	result, err := o.server.Match(ctx, committed, jd)
	if err != nil {
		log.Warn("match failed", "error", err)
		o.update(func() bool {
			o.match.Fail(err)
			o.canGenerate = false
			return true
		})
		return fmt.Errorf("match: %w", err)
	}
	log.Info("match assessed", "approved", result.Approved, "score", result.Score)
	o.update(func() bool {
		o.match.Succeed(result)
		o.canGenerate = result.Approved
		return true
	})
	return nil
}

// Override opens the generate gate without an approved match.
func (o *Orchestrator) Override() {
	o.update(func() bool {
		o.canGenerate = true
		o.overridden = true
		return true
	})
}

// SetLanguage selects the language of generated résumés.
func (o *Orchestrator) SetLanguage(lang string) error {
	if !api.ValidLanguage(lang) {
		return ErrUnsupportedLanguage
	}
	o.update(func() bool {
		changed := o.language != lang
		o.language = lang
		return changed
	})
	return nil
}

// Generate produces the adapted résumé in lang ("" keeps the current
// language). It is refused while the gate is closed.
func (o *Orchestrator) Generate(ctx context.Context, lang string) error {
	if lang != "" && !api.ValidLanguage(lang) {
		return ErrUnsupportedLanguage
	}
	var refusal error
	o.update(func() bool {
		switch {
		case o.generate.InFlight():
			refusal = ErrInFlight
		case !o.generateAllowedLocked():
			refusal = ErrNotAllowed
		default:
			if lang != "" {
				o.language = lang
			}
			lang = o.language
			o.generate.Start()
			return true
		}
		return false
	})
	if refusal != nil {
		return refusal
	}

	result, err := o.server.Adapt(ctx, lang)
	if err != nil {
		log.Warn("generation failed", "error", err)
		o.update(func() bool {
			o.generate.Fail(err)
			return true
		})
		return err
	}
	log.Info("résumé generated", "language", lang, "files", result.Files())
	o.update(func() bool {
		o.generate.Succeed(result)
		return true
	})
	return nil
}

func (o *Orchestrator) generateAllowedLocked() bool {
	summary, _ := o.summary.Result()
	return summary != "" && o.canGenerate
}

// ParseAndEnrich uploads a résumé and replaces the draft with the result.
// On failure the existing draft is kept.
func (o *Orchestrator) ParseAndEnrich(ctx context.Context, filename string, r io.Reader) error {
	var busy bool
	o.update(func() bool {
		if o.parse.InFlight() {
			busy = true
			return false
		}
		o.parse.Start()
		o.saved = false
		return true
	})
	if busy {
		return ErrInFlight
	}

	parsed, err := o.server.ParseAndEnrich(ctx, filename, r)
	if err != nil {
		log.Warn("parse and enrich failed", "file", filename, "error", err)
		o.update(func() bool {
			o.parse.Fail(err)
			return true
		})
		return err
	}
	o.store.Replace(profile.NormalizeMetrics(parsed))
	log.Info("résumé parsed", "file", filename)
	o.update(func() bool {
		o.parse.Succeed(struct{}{})
		return true
	})
	return nil
}

// Save sends the draft, with the custom seniority resolved, and on success
// makes it the committed profile. The saved indicator clears itself after
// SavedIndicatorDelay.
func (o *Orchestrator) Save(ctx context.Context) error {
	var (
		refusal error
		draft   doc.Node
	)
	o.update(func() bool {
		if o.save.InFlight() {
			refusal = ErrInFlight
			return false
		}
		d, ok := o.store.Draft()
		if !ok {
			refusal = profile.ErrNoDraft
			return false
		}
		draft = d
		o.saved = false
		o.save.Start()
		return true
	})
	if refusal != nil {
		return refusal
	}

	if err := o.server.SaveProfile(ctx, profile.ResolveSeniority(draft)); err != nil {
		log.Warn("save failed", "error", err)
		o.update(func() bool {
			o.save.Fail(err)
			return true
		})
		return err
	}
	if !o.store.Promote(draft) {
		log.Debug("draft changed while saving, keeping it")
	}
	log.Info("profile saved")

	var gen int
	o.update(func() bool {
		o.save.Succeed(struct{}{})
		o.saved = true
		o.savedGen++
		gen = o.savedGen
		return true
	})
	o.opts.Clock.AfterFunc(o.opts.SavedIndicatorDelay, func() {
		o.update(func() bool {
			if o.savedGen != gen || !o.saved {
				return false
			}
			o.saved = false
			return true
		})
	})
	return nil
}

// LoadProfile fetches the stored profile into the committed slot.
func (o *Orchestrator) LoadProfile(ctx context.Context) error {
	var busy bool
	o.update(func() bool {
		if o.load.InFlight() {
			busy = true
			return false
		}
		o.load.Start()
		return true
	})
	if busy {
		return ErrInFlight
	}

	p, err := o.server.GetProfile(ctx)
	if err != nil {
		log.Warn("loading profile failed", "error", err)
		o.update(func() bool {
			o.load.Fail(err)
			return true
		})
		return err
	}
	o.store.SetCommitted(profile.NormalizeMetrics(p))
	o.update(func() bool {
		o.load.Succeed(struct{}{})
		return true
	})
	return nil
}

// BeginEdit copies the committed profile into the draft.
func (o *Orchestrator) BeginEdit() error {
	if _, err := o.store.BeginEdit(); err != nil {
		return err
	}
	o.touch()
	return nil
}

// ReplaceDraft stores d as the whole draft.
func (o *Orchestrator) ReplaceDraft(d doc.Node) {
	o.store.Replace(d)
	o.touch()
}

// EditDraft applies fn to the draft.
func (o *Orchestrator) EditDraft(fn func(doc.Node) doc.Node) error {
	if err := o.store.Update(fn); err != nil {
		return err
	}
	o.touch()
	return nil
}

// DiscardDraft drops unsaved edits.
func (o *Orchestrator) DiscardDraft() {
	o.store.DiscardDraft()
	o.touch()
}
