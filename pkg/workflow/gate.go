package workflow

// Step is one of the three screens of the workflow.
type Step int

const (
	StepProfile Step = iota + 1
	StepPosition
	StepAdapted
)

// Steps lists the steps in order.
var Steps = []Step{StepProfile, StepPosition, StepAdapted}

func (s Step) String() string {
	switch s {
	case StepProfile:
		return "Profile"
	case StepPosition:
		return "Position"
	case StepAdapted:
		return "Adapted résumé"
	}
	return "unknown"
}

// Gate tracks the visible step. Navigation is never blocked; only the
// generate action depends on the workflow state.
type Gate struct {
	step Step
}

func NewGate() *Gate {
	return &Gate{step: StepProfile}
}

func (g *Gate) Step() Step { return g.step }

// Select moves to s. Unknown steps are ignored.
func (g *Gate) Select(s Step) {
	if s < StepProfile || s > StepAdapted {
		return
	}
	g.step = s
}

// Next and Prev move one step, stopping at the ends.
func (g *Gate) Next() { g.Select(g.step + 1) }
func (g *Gate) Prev() { g.Select(g.step - 1) }

// Advisory reports whether step 3 must explain that generation is not yet
// allowed: no approved match and no override.
func (g *Gate) Advisory(s Snapshot) bool {
	return g.step == StepAdapted && !s.CanGenerate
}

// CanProceed reports whether the approved-path action is available.
func (g *Gate) CanProceed(s Snapshot) bool {
	return s.Approved()
}

// Proceed takes the approved path to step 3.
func (g *Gate) Proceed(s Snapshot) bool {
	if !g.CanProceed(s) {
		return false
	}
	g.step = StepAdapted
	return true
}

// GenerateEnabled reports whether the generate control is usable.
func (g *Gate) GenerateEnabled(s Snapshot) bool {
	return s.GenerateEnabled()
}
