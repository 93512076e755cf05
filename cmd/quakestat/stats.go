package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Total, max and average magnitude, average depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			s := domain.Summarize(l.events)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, s)
			}
			tw := newTable(out)
			fmt.Fprintf(tw, "Total events\t%d\n", s.Total)
			fmt.Fprintf(tw, "Max magnitude\t%s\n", formatOrDash(s.Total, domain.FormatMagnitude(s.MaxMagnitude)))
			fmt.Fprintf(tw, "Avg magnitude\t%s\n", formatOrDash(s.Total, fmt.Sprintf("%.1f", s.AvgMagnitude)))
			fmt.Fprintf(tw, "Avg depth\t%s\n", formatOrDash(s.Total, fmt.Sprintf("%.1f km", s.AvgDepthKm)))
			return tw.Flush()
		},
	}
}

func newHistogramCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "histogram",
		Short: "Event counts per magnitude bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rows := domain.MagnitudeHistogram(l.events)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, rows)
			}
			tw := newTable(out)
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Label, r.Count, bar(r.Percent))
			}
			return tw.Flush()
		},
	}
}

func newTimelineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Event counts per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			series := domain.MonthlyHistogram(l.events, opts.loc)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, series)
			}
			if series.Len() == 0 {
				_, err := fmt.Fprintln(out, "No events.")
				return err
			}
			tw := newTable(out)
			for i := range series.Keys {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", series.Keys[i], series.Labels[i], series.Counts[i])
			}
			return tw.Flush()
		},
	}
}

func newMajorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "major",
		Short: "Events of magnitude 5.0 and above, largest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := opts.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			majors := domain.MajorEvents(l.events, opts.loc)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, majors)
			}
			if len(majors) == 0 {
				_, err := fmt.Fprintln(out, "No major earthquakes (M 5.0+).")
				return err
			}
			tw := newTable(out)
			for _, m := range majors {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					domain.FormatMagnitude(m.Magnitude), m.Severity, m.Date, m.Place, m.ID)
			}
			return tw.Flush()
		},
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// bar renders a percentage as a 20-cell text bar.
func bar(percent float64) string {
	return strings.Repeat("#", int(percent/5+0.5))
}

func formatOrDash(total int, s string) string {
	if total == 0 {
		return "-"
	}
	return s
}
