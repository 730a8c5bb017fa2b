package model

import "time"

// CheckResult represents the result of a single step verification check.
type CheckResult struct {
	StepID      string
	Description string
	Satisfied   bool
	Reason      FailureReason // Set only when not satisfied because of an error (check failure, timeout...).
	Diagnostic  string        // Human-readable detail (version string, error message...).
}

// VerificationReport is the ordered collection of check results of a verification
// pass. Results are in registry order, exactly one per step.
type VerificationReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []CheckResult
}

// Counts counts check results by satisfied state.
func (r VerificationReport) Counts() (satisfied, unsatisfied int) {
	for _, c := range r.Results {
		if c.Satisfied {
			satisfied++
		} else {
			unsatisfied++
		}
	}
	return
}

// AllSatisfied returns true if every step check reported satisfied.
func (r VerificationReport) AllSatisfied() bool {
	_, unsatisfied := r.Counts()
	return unsatisfied == 0
}
