package domain

import "time"

// JobState enumerates the video job lifecycle.
type JobState string

const (
	JobStateSubmitting JobState = "submitting"
	JobStatePolling    JobState = "polling"
	JobStateSucceeded  JobState = "succeeded"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether no further transition is possible.
func (s JobState) Terminal() bool {
	return s == JobStateSucceeded || s == JobStateFailed
}

// JobResult references produced media held in local memory.
type JobResult struct {
	ResourceLocator string `json:"resource_locator"`
	BlobID          string `json:"blob_id"`
	MIMEType        string `json:"mime_type"`
	Size            int    `json:"size"`
}

// Job is the caller-facing record of a video generation job.
type Job struct {
	ID           string
	Kind         RequestKind
	State        JobState
	AspectRatio  AspectRatio
	Polls        int
	LastMessage  string
	Result       *JobResult
	ErrorKind    ErrorKind
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
