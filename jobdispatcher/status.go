package jobdispatcher

import "strings"

// Status is the dispatcher-side state of a job.
type Status int

const (
	StatusRunning Status = iota
	StatusFinished
	StatusNotFound
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "RUNNING"
	case StatusFinished:
		return "FINISHED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus maps a dispatcher status token to a Status.
func ParseStatus(token string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "RUNNING", "QUEUED", "PENDING":
		return StatusRunning, true
	case "FINISHED":
		return StatusFinished, true
	case "NOT_FOUND":
		return StatusNotFound, true
	case "ERROR", "FAILURE", "FAILED":
		return StatusFailed, true
	default:
		return 0, false
	}
}
