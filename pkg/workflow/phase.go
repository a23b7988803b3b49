package workflow

// Status is the state of one Phase.
type Status int

const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Phase is the state of one asynchronous operation and its outcome.
// The zero value is idle.
type Phase[T any] struct {
	status Status
	result T
	err    error
}

// Start moves the phase in flight and drops any previous outcome.
func (p *Phase[T]) Start() {
	var zero T
	p.status = InFlight
	p.result = zero
	p.err = nil
}

// Succeed records a result. It is ignored unless the phase is in flight.
func (p *Phase[T]) Succeed(v T) {
	if p.status != InFlight {
		return
	}
	p.status = Succeeded
	p.result = v
}

// Fail records an error. It is ignored unless the phase is in flight.
func (p *Phase[T]) Fail(err error) {
	if p.status != InFlight {
		return
	}
	p.status = Failed
	p.err = err
}

// Reset returns the phase to idle.
func (p *Phase[T]) Reset() {
	*p = Phase[T]{}
}

// Restore sets a succeeded phase directly, for state loaded from disk.
func (p *Phase[T]) Restore(v T) {
	p.status = Succeeded
	p.result = v
	p.err = nil
}

func (p *Phase[T]) Status() Status { return p.status }
func (p *Phase[T]) InFlight() bool { return p.status == InFlight }
func (p *Phase[T]) Err() error { return p.err }

// Result returns the result of a succeeded phase.
func (p *Phase[T]) Result() (T, bool) {
	if p.status != Succeeded {
		var zero T
		return zero, false
	}
	return p.result, true
}

// View is a copy of a phase's state.
type View[T any] struct {
	Status Status
	Result T
	Err    error
}

func (p *Phase[T]) View() View[T] {
	return View[T]{Status: p.status, Result: p.result, Err: p.err}
}

// Message is the error text of a failed phase, or "".
func (v View[T]) Message() string {
	if v.Err == nil {
		return ""
	}
	return v.Err.Error()
}
