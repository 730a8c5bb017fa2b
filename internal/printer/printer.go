package printer

import "github.com/slok/devrig/internal/model"

// Printer knows how to print provisioning information in different formats.
// The table printer is the guaranteed-available fallback, richer printers are
// optional enhancements selected once at startup.
type Printer interface {
	PrintSteps(steps []model.StepSummary) error
	PrintRun(report *model.RunReport) error
	PrintVerification(report *model.VerificationReport) error
	// PrintApply prints a full provisioning run: install outcomes, verification
	// results and the aggregate summary. The verification report is the ground
	// truth for the final satisfied count, install outcomes are surfaced next
	// to it so disagreements (e.g. install failed but already satisfied from a
	// previous partial run) stay visible.
	PrintApply(run *model.RunReport, verification *model.VerificationReport) error
	PrintHistory(runs []model.Run) error
	PrintMessage(msg string) error
}
