package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/spf13/cobra"
)

// errValidationFailed makes the command exit non-zero once the report has
// already been printed.
var errValidationFailed = errors.New("validation failed")

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a feed for malformed records and aggregate consistency",
		Long: "validate decodes the feed, reports every skipped record, checks value ranges, " +
			"and verifies that the histograms and major-event list agree with the raw events.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			phases := []*phase{
				validateDecoding(l.malformed),
				validateRanges(l.events, opts),
				validateAggregates(l.events, opts),
			}
			cmd.SilenceErrors = true
			if !report(cmd.OutOrStdout(), phases, len(l.events)) {
				return errValidationFailed
			}
			return nil
		},
	}
}

func validateDecoding(malformed []*domain.MalformedRecordError) *phase {
	p := &phase{name: "Feature decoding"}
	for _, m := range malformed {
		p.errorf("%v", m)
	}
	return p
}

func validateRanges(events []domain.Event, opts *options) *phase {
	p := &phase{name: "Value ranges"}
	now := opts.clock.Now()
	for _, e := range events {
		if e.Magnitude < domain.MinThreshold || e.Magnitude > domain.MaxThreshold {
			p.errorf("%s: magnitude %.2f outside [%.0f, %.0f]", e.ID, e.Magnitude, domain.MinThreshold, domain.MaxThreshold)
		}
		if e.Time.After(now) {
			p.errorf("%s: time %s is in the future", e.ID, e.Time.Format("2006-01-02T15:04:05Z07:00"))
		}
		// Catalogs report shallow events above sea level as small negative depths.
		if d, ok := e.Depth(); ok && (d < -10 || d > 800) {
			p.errorf("%s: depth %.1f km outside [-10, 800]", e.ID, d)
		}
		if e.Place == "" {
			p.errorf("%s: empty place", e.ID)
		}
	}
	return p
}

func validateAggregates(events []domain.Event, opts *options) *phase {
	p := &phase{name: "Aggregate consistency"}

	inRange := 0
	for _, e := range events {
		if e.Magnitude >= 2.5 {
			inRange++
		}
	}
	histTotal := 0
	for _, r := range domain.MagnitudeHistogram(events) {
		histTotal += r.Count
	}
	if histTotal != inRange {
		p.errorf("magnitude histogram counts %d events, want %d at M 2.5+", histTotal, inRange)
	}

	months := domain.MonthlyHistogram(events, opts.loc)
	monthTotal := 0
	for _, c := range months.Counts {
		monthTotal += c
	}
	if monthTotal != len(events) {
		p.errorf("monthly histogram counts %d events, want %d", monthTotal, len(events))
	}
	if !slices.IsSorted(months.Keys) {
		p.errorf("month keys are not chronological: %v", months.Keys)
	}

	majors := domain.MajorEvents(events, opts.loc)
	wantMajors := 0
	for _, e := range events {
		if domain.IsMajor(e.Magnitude) {
			wantMajors++
		}
	}
	if len(majors) != wantMajors {
		p.errorf("major-event list has %d events, want %d", len(majors), wantMajors)
	}
	for i := 1; i < len(majors); i++ {
		if majors[i].Magnitude > majors[i-1].Magnitude {
			p.errorf("major-event list out of order at %d: %.1f after %.1f", i, majors[i].Magnitude, majors[i-1].Magnitude)
		}
	}

	s := domain.Summarize(events)
	if len(events) > 0 && math.Abs(s.MaxMagnitude-maxMagnitude(events)) > 1e-9 {
		p.errorf("summary max magnitude %.1f does not match events", s.MaxMagnitude)
	}
	return p
}

func maxMagnitude(events []domain.Event) float64 {
	m := math.Inf(-1)
	for _, e := range events {
		m = max(m, e.Magnitude)
	}
	return m
}

func report(w io.Writer, phases []*phase, records int) bool {
	fmt.Fprintln(w, "=== Earthquake Feed Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-30s %s\n", p.name, status)
	}
	fmt.Fprintf(w, "\nRecords: %d loaded\n", records)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return true
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return false
}
