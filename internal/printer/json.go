package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/devrig/internal/model"
)

// JSONPrinter prints provisioning information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// stepItem represents a registry step in the steps output.
type stepItem struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	InstallBound bool   `json:"install_bound"`
	CheckBound   bool   `json:"check_bound"`
}

// outcomeItem represents one step install outcome.
type outcomeItem struct {
	StepID      string `json:"step_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Diagnostic  string `json:"diagnostic,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// checkItem represents one step check result.
type checkItem struct {
	StepID      string `json:"step_id"`
	Description string `json:"description"`
	Satisfied   bool   `json:"satisfied"`
	Reason      string `json:"reason,omitempty"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

// runOutput represents a run report output.
type runOutput struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Installed  int           `json:"installed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Outcomes   []outcomeItem `json:"outcomes"`
}

// verificationOutput represents a verification report output.
type verificationOutput struct {
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Satisfied   int         `json:"satisfied"`
	Unsatisfied int         `json:"unsatisfied"`
	Results     []checkItem `json:"results"`
}

// applyOutput represents a full provisioning run output.
type applyOutput struct {
	Run          runOutput          `json:"run"`
	Verification verificationOutput `json:"verification"`
	AllSatisfied bool               `json:"all_satisfied"`
}

// historyItem represents a persisted run in the history output.
type historyItem struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"`
	CreatedAt   time.Time `json:"created_at"`
	Installed   int       `json:"installed"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Satisfied   int       `json:"satisfied"`
	Unsatisfied int       `json:"unsatisfied"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintSteps prints the registry steps in JSON format.
func (j *JSONPrinter) PrintSteps(steps []model.StepSummary) error {
	items := make([]stepItem, len(steps))
	for i, s := range steps {
		items[i] = stepItem{
			ID:           s.ID,
			Description:  s.Description,
			InstallBound: s.InstallBound,
			CheckBound:   s.CheckBound,
		}
	}

	return j.encode(items)
}

// PrintRun prints install outcomes in JSON format.
func (j *JSONPrinter) PrintRun(report *model.RunReport) error {
	return j.encode(newRunOutput(report))
}

// PrintVerification prints check results in JSON format.
func (j *JSONPrinter) PrintVerification(report *model.VerificationReport) error {
	return j.encode(newVerificationOutput(report))
}

// PrintApply prints a full provisioning run in JSON format.
func (j *JSONPrinter) PrintApply(run *model.RunReport, verification *model.VerificationReport) error {
	return j.encode(applyOutput{
		Run:          newRunOutput(run),
		Verification: newVerificationOutput(verification),
		AllSatisfied: verification.AllSatisfied(),
	})
}

// PrintHistory prints persisted runs in JSON format.
func (j *JSONPrinter) PrintHistory(runs []model.Run) error {
	items := make([]historyItem, len(runs))
	for i, r := range runs {
		item := historyItem{
			ID:        r.ID,
			Mode:      string(r.Mode),
			CreatedAt: r.CreatedAt.UTC(),
		}
		if r.Report != nil {
			item.Installed, item.Skipped, item.Failed = r.Report.CountByStatus()
		}
		if r.Verification != nil {
			item.Satisfied, item.Unsatisfied = r.Verification.Counts()
		}
		items[i] = item
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v interface{}) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRunOutput(report *model.RunReport) runOutput {
	installed, skipped, failed := report.CountByStatus()
	out := runOutput{
		StartedAt:  report.StartedAt.UTC(),
		FinishedAt: report.FinishedAt.UTC(),
		Installed:  installed,
		Skipped:    skipped,
		Failed:     failed,
		Outcomes:   make([]outcomeItem, len(report.Outcomes)),
	}
	for i, o := range report.Outcomes {
		out.Outcomes[i] = outcomeItem{
			StepID:      o.StepID,
			Description: o.Description,
			Status:      string(o.Status),
			Reason:      string(o.Reason),
			Diagnostic:  o.Diagnostic,
			DurationMS:  o.Duration.Milliseconds(),
		}
	}

	return out
}

func newVerificationOutput(report *model.VerificationReport) verificationOutput {
	satisfied, unsatisfied := report.Counts()
	out := verificationOutput{
		StartedAt:   report.StartedAt.UTC(),
		FinishedAt:  report.FinishedAt.UTC(),
		Satisfied:   satisfied,
		Unsatisfied: unsatisfied,
		Results:     make([]checkItem, len(report.Results)),
	}
	for i, c := range report.Results {
		out.Results[i] = checkItem{
			StepID:      c.StepID,
			Description: c.Description,
			Satisfied:   c.Satisfied,
			Reason:      string(c.Reason),
			Diagnostic:  c.Diagnostic,
		}
	}

	return out
}
