package orchestrator

import (
	"errors"

	"neogen/internal/domain"
	"neogen/internal/replicate"
)

// State is the position of one job in the bounded polling lifecycle.
type State int

const (
	StatePending State = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateCanceled
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Done reports whether no further event can change the state.
func (s State) Done() bool {
	return s >= StateSucceeded
}

type eventKind int

const (
	eventSubmitted eventKind = iota
	eventSubmitFailed
	eventPolled
	eventPollFailed
	eventCanceled
	eventBudgetExhausted
)

type event struct {
	kind   eventKind
	handle domain.JobHandle
	job    *domain.JobRecord
	err    error
}

// machine holds the state of one run. next returns a new value and never
// mutates the receiver.
type machine struct {
	state       State
	handle      domain.JobHandle
	job         *domain.JobRecord
	attempts    int
	maxAttempts int
	err         error
}

func newMachine(maxAttempts int) machine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return machine{state: StatePending, maxAttempts: maxAttempts}
}

func (m machine) next(ev event) machine {
	if m.state.Done() {
		return m
	}
	switch ev.kind {
	case eventCanceled:
		m.state = StateCanceled
		m.err = domain.Canceled(ev.err)
	case eventBudgetExhausted:
		m.state = StateTimedOut
		m.err = domain.Timeout(m.job, m.attempts)
	case eventSubmitFailed:
		m.state = StateFailed
		m.err = remoteFailure(domain.SubmitFailed, ev.err)
	case eventSubmitted:
		if m.state != StatePending {
			return m
		}
		m.handle = ev.handle
		m.job = ev.job
		if m.job == nil {
			m.job = &domain.JobRecord{ID: ev.handle.ID, Status: ev.handle.Status}
		}
		switch {
		case m.job.Status.Terminal():
			return m.settle()
		case m.handle.PollURL == "":
			m.state = StateFailed
			m.err = domain.NoPollHandle(m.handle.ID)
		default:
			m.state = StatePolling
		}
	case eventPollFailed:
		m.state = StateFailed
		m.err = remoteFailure(domain.PollFailed, ev.err)
	case eventPolled:
		if m.state != StatePolling || ev.job == nil {
			return m
		}
		m.attempts++
		m.job = ev.job
		switch {
		case m.job.Status.Terminal():
			return m.settle()
		case m.attempts >= m.maxAttempts:
			m.state = StateTimedOut
			m.err = domain.Timeout(m.job, m.attempts)
		}
	}
	return m
}

func (m machine) settle() machine {
	if m.job.Status == domain.JobStatusSucceeded {
		m.state = StateSucceeded
		m.err = nil
		return m
	}
	m.state = StateFailed
	m.err = domain.JobUnsuccessful(m.job)
	return m
}

func (m machine) result() (*domain.JobRecord, error) {
	switch {
	case m.state == StateSucceeded:
		return m.job.Clone(), nil
	case m.err != nil:
		return nil, m.err
	default:
		return nil, errors.New("orchestrator: run stopped in state " + m.state.String())
	}
}

func remoteFailure(build func(int, string, error) error, err error) error {
	var apiErr *replicate.APIError
	if errors.As(err, &apiErr) {
		return build(apiErr.StatusCode, apiErr.Body, err)
	}
	return build(0, "", err)
}
