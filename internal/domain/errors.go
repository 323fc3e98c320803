package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification via errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConfigMissing   = errors.New("config missing")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSubmitFailed    = errors.New("submit failed")
	ErrNoPollHandle    = errors.New("no poll handle")
	ErrPollFailed      = errors.New("poll failed")
	ErrTimeout         = errors.New("timeout")
	ErrJobUnsuccessful = errors.New("job unsuccessful")
	ErrNoLocatorFound  = errors.New("no locator found")
	ErrCanceled        = errors.New("canceled")
)

// Error carries the taxonomy kind together with remote diagnostics.
type Error struct {
	Kind       error
	Message    string
	StatusCode int
	Body       string
	// Job is the last known snapshot for Timeout and JobUnsuccessful.
	Job   *JobRecord
	Cause error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func ConfigMissing(names ...string) error {
	return &Error{
		Kind:    ErrConfigMissing,
		Message: "missing configuration: " + strings.Join(names, ", "),
	}
}

func InvalidInput(message string) error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// SubmitFailed reports a failed creation call. statusCode is 0 for transport failures.
func SubmitFailed(statusCode int, body string, cause error) error {
	return &Error{
		Kind:       ErrSubmitFailed,
		Message:    remoteMessage("submit failed", statusCode, body, cause),
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

func NoPollHandle(jobID string) error {
	return &Error{
		Kind:    ErrNoPollHandle,
		Message: fmt.Sprintf("job %q returned no status url", jobID),
	}
}

// PollFailed reports a failed status query. statusCode is 0 for transport failures.
func PollFailed(statusCode int, body string, cause error) error {
	return &Error{
		Kind:       ErrPollFailed,
		Message:    remoteMessage("poll failed", statusCode, body, cause),
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

func Timeout(last *JobRecord, attempts int) error {
	status := JobStatus("unknown")
	if last != nil {
		status = last.Status
	}
	return &Error{
		Kind:    ErrTimeout,
		Message: fmt.Sprintf("job still %s after %d polls", status, attempts),
		Job:     last.Clone(),
	}
}

func JobUnsuccessful(job *JobRecord) error {
	msg := "job did not succeed"
	if job != nil {
		msg = fmt.Sprintf("job %s", job.Status)
		if detail := strings.TrimSpace(job.ErrorDetail); detail != "" {
			msg += ": " + detail
		}
	}
	return &Error{Kind: ErrJobUnsuccessful, Message: msg, Job: job.Clone()}
}

func NoLocatorFound(job *JobRecord) error {
	return &Error{Kind: ErrNoLocatorFound, Message: "no image produced", Job: job.Clone()}
}

func Canceled(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return &Error{Kind: ErrCanceled, Message: "generation canceled", Cause: cause}
}

// Code maps an error onto its stable snake_case taxonomy tag.
// Errors outside the taxonomy map to "internal".
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigMissing):
		return "config_missing"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrSubmitFailed):
		return "submit_failed"
	case errors.Is(err, ErrNoPollHandle):
		return "no_poll_handle"
	case errors.Is(err, ErrPollFailed):
		return "poll_failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrJobUnsuccessful):
		return "job_unsuccessful"
	case errors.Is(err, ErrNoLocatorFound):
		return "no_locator_found"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// JobFromError returns the job snapshot attached to err, if any.
func JobFromError(err error) *JobRecord {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Job
	}
	return nil
}

func remoteMessage(prefix string, statusCode int, body string, cause error) string {
	body = strings.TrimSpace(body)
	switch {
	case statusCode > 0 && body != "":
		return fmt.Sprintf("%s: status %d: %s", prefix, statusCode, body)
	case statusCode > 0:
		return fmt.Sprintf("%s: status %d", prefix, statusCode)
	case cause != nil:
		return fmt.Sprintf("%s: %v", prefix, cause)
	default:
		return prefix
	}
}
