package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/slok/devrig/internal/model"
)

// styles groups the lipgloss styles used by the styled printer.
type styles struct {
	header  lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	summary lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		summary: lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// StyledPrinter prints provisioning information with terminal styling. It is
// an optional enhancement over the table printer, selected at startup when the
// output is a terminal, never required for correctness.
type StyledPrinter struct {
	writer io.Writer
	styles styles
}

// NewStyledPrinter creates a new styled printer.
func NewStyledPrinter(w io.Writer) *StyledPrinter {
	return &StyledPrinter{writer: w, styles: defaultStyles()}
}

// PrintSteps prints the registry steps with terminal styling.
func (s *StyledPrinter) PrintSteps(steps []model.StepSummary) error {
	if len(steps) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(s.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, s.styles.header.Render("ID\tDESCRIPTION\tINSTALL\tCHECK"))
	for _, st := range steps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", st.ID, st.Description, s.renderBound(st.InstallBound), s.renderBound(st.CheckBound))
	}

	return nil
}

// PrintRun prints install outcomes with terminal styling.
func (s *StyledPrinter) PrintRun(report *model.RunReport) error {
	for _, o := range report.Outcomes {
		fmt.Fprintf(s.writer, "%s %s %s\n", s.renderOutcome(o.Status), o.Description, s.styles.muted.Render(outcomeDetail(o)))
	}

	installed, skipped, failed := report.CountByStatus()
	s.renderSummary(fmt.Sprintf("%d installed, %d skipped, %d failed", installed, skipped, failed), failed == 0)

	return nil
}

// PrintVerification prints check results with terminal styling.
func (s *StyledPrinter) PrintVerification(report *model.VerificationReport) error {
	for _, c := range report.Results {
		fmt.Fprintf(s.writer, "%s %s %s\n", s.renderSatisfied(c.Satisfied), c.Description, s.styles.muted.Render(c.Diagnostic))
	}

	satisfied, unsatisfied := report.Counts()
	s.renderSummary(fmt.Sprintf("%d of %d steps satisfied", satisfied, len(report.Results)), unsatisfied == 0)

	return nil
}

// PrintApply prints a full provisioning run with terminal styling.
func (s *StyledPrinter) PrintApply(run *model.RunReport, verification *model.VerificationReport) error {
	for i, o := range run.Outcomes {
		verified := s.styles.muted.Render("??")
		detail := outcomeDetail(o)
		if i < len(verification.Results) {
			c := verification.Results[i]
			verified = s.renderSatisfied(c.Satisfied)
			if c.Diagnostic != "" {
				detail = c.Diagnostic
			}
		}
		fmt.Fprintf(s.writer, "%s %s (%s) %s\n", verified, o.Description, o.Status, s.styles.muted.Render(detail))
	}

	satisfied, unsatisfied := verification.Counts()
	s.renderSummary(fmt.Sprintf("%d of %d steps satisfied", satisfied, len(verification.Results)), unsatisfied == 0)

	return nil
}

// PrintHistory prints persisted runs, delegating to the plain table layout.
func (s *StyledPrinter) PrintHistory(runs []model.Run) error {
	return NewTablePrinter(s.writer).PrintHistory(runs)
}

// PrintMessage prints a simple text message.
func (s *StyledPrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(s.writer, msg)
	return err
}

func (s *StyledPrinter) renderSummary(msg string, allOK bool) {
	style := s.styles.summary.BorderForeground(lipgloss.Color("2"))
	if !allOK {
		style = s.styles.summary.BorderForeground(lipgloss.Color("1"))
	}
	fmt.Fprintln(s.writer, style.Render(msg))
}

func (s *StyledPrinter) renderOutcome(status model.OutcomeStatus) string {
	switch status {
	case model.OutcomeStatusInstalled:
		return s.styles.ok.Render("OK")
	case model.OutcomeStatusSkipped:
		return s.styles.warn.Render("--")
	default:
		return s.styles.fail.Render("XX")
	}
}

func (s *StyledPrinter) renderSatisfied(satisfied bool) string {
	if satisfied {
		return s.styles.ok.Render("OK")
	}
	return s.styles.fail.Render("XX")
}

func (s *StyledPrinter) renderBound(bound bool) string {
	if bound {
		return s.styles.ok.Render("bound")
	}
	return s.styles.fail.Render("missing")
}
