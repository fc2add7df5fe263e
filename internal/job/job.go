// Package job implements the job record, its lifecycle transitions, and
// the document-classification pipeline that drives a vendor codec's
// function vector page-by-page.
package job

import (
	"sync"
	"time"
)

// State is a job's position in its lifecycle.
type State int

const (
	StateHeld State = iota
	StatePending
	StateProcessing
	StateStopped
	StateCanceled
	StateAborted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateHeld:
		return "held"
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	case StateCanceled:
		return "canceled"
	case StateAborted:
		return "aborted"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateCanceled || s == StateAborted || s == StateCompleted
}

// Job is one print request. Scratch is the vendor codec's driver-private
// state for the duration of processing; it is set by the pipeline and
// cleared once REndJob has run.
type Job struct {
	mu sync.Mutex

	ID                    uint32
	RequestingUser        string
	Name                  string
	Format                string
	ImpressionsRequested  int
	ImpressionsCompleted  int
	state                 State
	cancel                bool
	SpoolFilename         string
	Created               time.Time
	Processing            time.Time
	Completed             time.Time
	Attributes            map[string]interface{}

	Scratch interface{}
}

// New creates a job in the held state, as the IPP front-end does when it
// opens a request before the document is fully spooled.
func New(id uint32, user, name, format string) *Job {
	return &Job{
		ID:             id,
		RequestingUser: user,
		Name:           name,
		Format:         format,
		state:          StateHeld,
		Created:        time.Now(),
		Attributes:     map[string]interface{}{},
	}
}

// MarkSpooled transitions a held job to pending once its document is
// fully written to the spool file.
func (j *Job) MarkSpooled(spoolFilename string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.SpoolFilename = spoolFilename
	j.state = StatePending
}

// State returns the job's current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cancel sets the job's cancellation flag; the pipeline observes it at
// the next scanline boundary and finalizes the job as canceled.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancel = true
}

// Canceled reports whether Cancel has been called.
func (j *Job) Canceled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancel
}

// finalize transitions the job to a terminal state and stamps the
// completion time.
func (j *Job) finalize(s State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = s
	j.Completed = time.Now()
}

// startProcessing transitions the job to processing and stamps the start
// time.
func (j *Job) startProcessing() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = StateProcessing
	j.Processing = time.Now()
}
