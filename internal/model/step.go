package model

// StepSummary is the report-facing identity of a provisioning step.
type StepSummary struct {
	ID           string
	Description  string
	InstallBound bool
	CheckBound   bool
}
