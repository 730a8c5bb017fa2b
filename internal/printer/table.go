package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/slok/devrig/internal/model"
)

// TablePrinter prints provisioning information in a plain table format. It is
// the always-available fallback printer.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintSteps prints the registry steps in a table format.
func (t *TablePrinter) PrintSteps(steps []model.StepSummary) error {
	if len(steps) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tDESCRIPTION\tINSTALL\tCHECK")

	// Print rows.
	for _, s := range steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Description, boundLabel(s.InstallBound), boundLabel(s.CheckBound))
	}

	return nil
}

// PrintRun prints install outcomes in a table format.
func (t *TablePrinter) PrintRun(report *model.RunReport) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "STEP\tRESULT\tDETAIL")
	for _, o := range report.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Description, o.Status, outcomeDetail(o))
	}
	tw.Flush()

	installed, skipped, failed := report.CountByStatus()
	fmt.Fprintf(t.writer, "\n%d installed, %d skipped, %d failed\n", installed, skipped, failed)

	return nil
}

// PrintVerification prints check results in a table format.
func (t *TablePrinter) PrintVerification(report *model.VerificationReport) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "STEP\tSTATE\tDETAIL")
	for _, c := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Description, satisfiedLabel(c.Satisfied), c.Diagnostic)
	}
	tw.Flush()

	satisfied, _ := report.Counts()
	fmt.Fprintf(t.writer, "\n%d of %d steps satisfied\n", satisfied, len(report.Results))

	return nil
}

// PrintApply prints a full provisioning run in a table format.
func (t *TablePrinter) PrintApply(run *model.RunReport, verification *model.VerificationReport) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "STEP\tINSTALL\tVERIFIED\tDETAIL")
	for i, o := range run.Outcomes {
		verified := "unknown"
		detail := outcomeDetail(o)
		if i < len(verification.Results) {
			c := verification.Results[i]
			verified = satisfiedLabel(c.Satisfied)
			if c.Diagnostic != "" {
				detail = c.Diagnostic
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Description, o.Status, verified, detail)
	}
	tw.Flush()

	satisfied, _ := verification.Counts()
	fmt.Fprintf(t.writer, "\n%d of %d steps satisfied\n", satisfied, len(verification.Results))

	return nil
}

// PrintHistory prints persisted runs in a table format.
func (t *TablePrinter) PrintHistory(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tMODE\tINSTALLED\tSKIPPED\tFAILED\tSATISFIED\tCREATED")
	for _, r := range runs {
		var installed, skipped, failed int
		if r.Report != nil {
			installed, skipped, failed = r.Report.CountByStatus()
		}
		satisfied := "-"
		if r.Verification != nil {
			s, _ := r.Verification.Counts()
			satisfied = fmt.Sprintf("%d/%d", s, len(r.Verification.Results))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.Mode, installed, skipped, failed, satisfied, TimeAgo(r.CreatedAt))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func boundLabel(bound bool) string {
	if bound {
		return "bound"
	}
	return "missing"
}

func satisfiedLabel(satisfied bool) string {
	if satisfied {
		return "ok"
	}
	return "unsatisfied"
}

func outcomeDetail(o model.RunOutcome) string {
	if o.Reason != model.FailureReasonNone && o.Diagnostic != "" {
		return fmt.Sprintf("%s: %s", o.Reason, o.Diagnostic)
	}
	if o.Diagnostic != "" {
		return o.Diagnostic
	}
	return string(o.Reason)
}
