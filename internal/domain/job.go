package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// JobStatus enumerates the remote prediction lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusStarting   JobStatus = "starting"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSucceeded  JobStatus = "succeeded"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCanceled   JobStatus = "canceled"
)

// NormalizeJobStatus lowercases and trims a status reported by the remote service.
// Unknown values are kept verbatim and treated as non-terminal.
func NormalizeJobStatus(status string) JobStatus {
	return JobStatus(strings.ToLower(strings.TrimSpace(status)))
}

// Terminal reports whether the job will not change any further.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCanceled:
		return true
	default:
		return false
	}
}

// JobHandle is what the remote service hands back when a job is created.
type JobHandle struct {
	ID      string
	PollURL string
	Status  JobStatus
}

// JobRecord is one snapshot of a remote job.
type JobRecord struct {
	ID          string
	Status      JobStatus
	Output      json.RawMessage
	ErrorDetail string
	// Raw holds the full response body the snapshot was decoded from.
	Raw       json.RawMessage
	FetchedAt time.Time
}

// Clone returns a deep copy so callers can keep a snapshot after the owner moves on.
func (j *JobRecord) Clone() *JobRecord {
	if j == nil {
		return nil
	}
	out := *j
	if j.Output != nil {
		out.Output = append(json.RawMessage(nil), j.Output...)
	}
	if j.Raw != nil {
		out.Raw = append(json.RawMessage(nil), j.Raw...)
	}
	return &out
}
