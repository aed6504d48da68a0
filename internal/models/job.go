package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the backend-reported lifecycle status of an analysis.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ParseJobStatus normalises the wire value.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusQueued, StatusRunning, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// rank orders statuses so updates can be checked for regressions.
func (s JobStatus) rank() int {
	switch s {
	case StatusQueued:
		return 1
	case StatusRunning:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	default:
		return 0
	}
}

// Terminal reports whether no further backend transitions happen after s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AnalysisJob tracks one submitted analysis from the client's point of view.
type AnalysisJob struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Symbol       string     `json:"symbol"`
	Market       Market     `json:"market"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
}

// StatusUpdate is one observation of the job reported by the backend.
type StatusUpdate struct {
	Status      JobStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	HasResult   bool
	Error       string
}

// Apply merges an update into the job. Updates that would move the status
// backwards, or away from a terminal status, are ignored and Apply returns false.
func (j *AnalysisJob) Apply(u StatusUpdate) bool {
	if j.Status.Terminal() && u.Status != j.Status {
		return false
	}
	if u.Status.rank() < j.Status.rank() {
		return false
	}
	j.Status = u.Status
	if u.StartedAt != nil && j.StartedAt == nil {
		j.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil && j.CompletedAt == nil {
		j.CompletedAt = u.CompletedAt
	}
	if u.Error != "" {
		j.ErrorMessage = u.Error
	}
	return true
}

// Elapsed is the wall time between creation and completion, or now when still running.
func (j *AnalysisJob) Elapsed(now time.Time) time.Duration {
	if j.CreatedAt.IsZero() {
		return 0
	}
	end := now
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	if end.Before(j.CreatedAt) {
		return 0
	}
	return end.Sub(j.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants the backend emits, with or without an offset.
// Values without an offset are read in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
