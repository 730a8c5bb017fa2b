package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// OutcomeStatus represents the result of attempting one step's install action.
type OutcomeStatus string

const (
	// OutcomeStatusInstalled indicates the install action brought the step to its goal state.
	OutcomeStatusInstalled OutcomeStatus = "installed"
	// OutcomeStatusSkipped indicates the step goal state already held and nothing was done.
	OutcomeStatusSkipped OutcomeStatus = "skipped"
	// OutcomeStatusFailed indicates the install action failed or was unavailable.
	OutcomeStatusFailed OutcomeStatus = "failed"
)

// FailureReason classifies why a step failed or is unsatisfied.
type FailureReason string

const (
	FailureReasonNone           FailureReason = ""
	FailureReasonInstallFailed  FailureReason = "install_failed"
	FailureReasonActionNotFound FailureReason = "action_not_found"
	FailureReasonTimeout        FailureReason = "timeout"
	FailureReasonCheckFailed    FailureReason = "check_failed"
	FailureReasonCancelled      FailureReason = "cancelled"
)

// RunOutcome is the immutable result of attempting one step's install action.
type RunOutcome struct {
	StepID      string
	Description string
	Status      OutcomeStatus
	Reason      FailureReason
	Diagnostic  string
	Duration    time.Duration
}

// RunReport is the ordered collection of install outcomes of a provisioning run.
// Outcomes are in registry order, exactly one per step.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []RunOutcome
}

// CountByStatus counts run outcomes by status.
func (r RunReport) CountByStatus() (installed, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case OutcomeStatusInstalled:
			installed++
		case OutcomeStatusSkipped:
			skipped++
		case OutcomeStatusFailed:
			failed++
		}
	}
	return
}

// RunMode is the kind of operation a persisted run represents.
type RunMode string

const (
	RunModeApply  RunMode = "apply"
	RunModeVerify RunMode = "verify"
)

// Run is a persisted provisioning run: the install report (when the run applied
// changes) and the verification report that closed it.
type Run struct {
	ID           string
	Mode         RunMode
	CreatedAt    time.Time
	Report       *RunReport
	Verification *VerificationReport
}

// NewID returns a new unique, lexicographically sortable ID.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
