package videojob

import (
	"errors"
	"fmt"

	"genstudio/internal/domain"
)

// EventKind enumerates what can happen to a job between two snapshots.
type EventKind int

const (
	EventSubmitted EventKind = iota + 1
	EventSubmitFailed
	EventPolled
	EventPollFailed
	EventPollLimitReached
	EventDownloaded
	EventDownloadFailed
	EventAbandoned
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitted:
		return "submitted"
	case EventSubmitFailed:
		return "submit_failed"
	case EventPolled:
		return "polled"
	case EventPollFailed:
		return "poll_failed"
	case EventPollLimitReached:
		return "poll_limit_reached"
	case EventDownloaded:
		return "downloaded"
	case EventDownloadFailed:
		return "download_failed"
	case EventAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input to Next.
type Event struct {
	Kind      EventKind
	Operation *domain.Operation
	Result    domain.JobResult
	Err       error
}

// Snapshot is the complete state of a job at one point in time.
type Snapshot struct {
	State     domain.JobState
	Polls     int
	Operation *domain.Operation
	// VideoURI is the remote locator found when the job succeeded. The result
	// is final once the media behind it has been downloaded.
	VideoURI string
	Result   *domain.JobResult
	Err      *domain.JobError
}

// Initial is the snapshot of a job that has not been submitted yet.
func Initial() Snapshot {
	return Snapshot{State: domain.JobStateSubmitting}
}

// Resolved reports whether the job has reached its final value.
func (s Snapshot) Resolved() bool {
	switch s.State {
	case domain.JobStateFailed:
		return true
	case domain.JobStateSucceeded:
		return s.Result != nil
	default:
		return false
	}
}

const (
	NoVideoMessage   = "Video generation succeeded, but no download link was found."
	pollLimitMessage = "Video generation did not finish after %d status checks."
)

// ErrPollLimit is wrapped by the failure produced when MaxPolls is exceeded.
var ErrPollLimit = errors.New("videojob: poll limit reached")

// Next is the transition function of the job state machine. It performs no
// I/O. Events that do not apply to the current state leave it unchanged, and
// resolved snapshots absorb every event.
func Next(s Snapshot, e Event) Snapshot {
	if s.Resolved() {
		return s
	}
	if e.Kind == EventAbandoned {
		return fail(s, domain.NewJobError(domain.ErrorUnknown, "", abandonCause(e.Err)))
	}

	switch s.State {
	case domain.JobStateSubmitting:
		switch e.Kind {
		case EventSubmitted:
			s.Operation = e.Operation
			if e.Operation != nil && e.Operation.Done {
				return complete(s, e.Operation)
			}
			s.State = domain.JobStatePolling
			return s
		case EventSubmitFailed:
			return fail(s, domain.ClassifyRemote(e.Err))
		}

	case domain.JobStatePolling:
		switch e.Kind {
		case EventPolled:
			s.Polls++
			if e.Operation != nil {
				s.Operation = e.Operation
			}
			if s.Operation != nil && s.Operation.Done {
				return complete(s, s.Operation)
			}
			return s
		case EventPollFailed:
			s.Polls++
			return fail(s, domain.ClassifyRemote(e.Err))
		case EventPollLimitReached:
			return fail(s, domain.NewJobError(domain.ErrorTransient, fmt.Sprintf(pollLimitMessage, s.Polls), ErrPollLimit))
		}

	case domain.JobStateSucceeded:
		switch e.Kind {
		case EventDownloaded:
			result := e.Result
			s.Result = &result
			return s
		case EventDownloadFailed:
			return fail(s, domain.NewJobError(domain.ErrorDownloadFailed, downloadMessage(e.Err), e.Err))
		}
	}
	return s
}

func complete(s Snapshot, op *domain.Operation) Snapshot {
	if op.Err != nil {
		return fail(s, domain.ClassifyRemote(op.Err))
	}
	uri := op.FirstVideoURI()
	if uri == "" {
		return fail(s, domain.NewJobError(domain.ErrorNoOutput, NoVideoMessage, nil))
	}
	s.State = domain.JobStateSucceeded
	s.VideoURI = uri
	return s
}

func fail(s Snapshot, err *domain.JobError) Snapshot {
	s.State = domain.JobStateFailed
	s.Err = err
	return s
}

// downloadMessage renders "Failed to fetch video file: <reason>".
func downloadMessage(err error) string {
	var status interface{ StatusText() string }
	if errors.As(err, &status) {
		return "Failed to fetch video file: " + status.StatusText()
	}
	if err != nil {
		return "Failed to fetch video file: " + err.Error()
	}
	return "Failed to fetch video file."
}

func abandonCause(err error) error {
	if err == nil {
		return ErrAbandoned
	}
	return err
}
