// Command quakestat prints dashboard statistics for an earthquake feed
// without starting the server.
//
// Usage:
//
//	quakestat summary   --feed query.json
//	quakestat histogram --feed query.json --min-mag 3
//	quakestat timeline  --feed https://example.org/query.geojson --timezone Asia/Yangon
//	quakestat major     --feed query.json --json
//	quakestat validate  --feed query.json
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/feed"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(clockwork.NewRealClock()).Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand.
type options struct {
	feed     string
	timeout  time.Duration
	timezone string
	minMag   float64
	json     bool
	verbose  bool

	clock clockwork.Clock
	loc   *time.Location
}

func newRootCmd(clock clockwork.Clock) *cobra.Command {
	opts := &options{clock: clock}

	root := &cobra.Command{
		Use:           "quakestat",
		Short:         "Earthquake feed statistics",
		Long:          "quakestat computes the dashboard summary, histograms, and major-event list for a GeoJSON earthquake feed.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			loc, err := loadLocation(opts.timezone)
			if err != nil {
				return fmt.Errorf("invalid --timezone: %w", err)
			}
			opts.loc = loc
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.feed, "feed", "query.json", "earthquake feed: local path or http(s) URL")
	pf.DurationVar(&opts.timeout, "feed-timeout", 15*time.Second, "HTTP timeout when the feed is a URL")
	pf.StringVar(&opts.timezone, "timezone", "Local", "display timezone for months and dates")
	pf.Float64Var(&opts.minMag, "min-mag", domain.MinThreshold, "only include events at or above this magnitude")
	pf.BoolVar(&opts.json, "json", false, "print JSON instead of a table")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped records")

	root.AddCommand(
		newSummaryCmd(opts),
		newHistogramCmd(opts),
		newTimelineCmd(opts),
		newMajorCmd(opts),
		newValidateCmd(opts),
	)
	return root
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" || name == "local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if o.verbose {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loaded is a decoded feed plus the records the decoder rejected.
type loaded struct {
	events    []domain.Event
	malformed []*domain.MalformedRecordError
}

func (o *options) load(ctx context.Context, stderr io.Writer) (loaded, error) {
	src := feed.NewSource(o.feed, o.timeout)
	data, err := src.Fetch(ctx)
	if err != nil {
		return loaded{}, &domain.FetchError{Feed: domain.FeedEarthquakes, Source: src.String(), Err: err}
	}
	events, malformed, err := feed.DecodeEvents(data)
	if err != nil {
		return loaded{}, &domain.FetchError{Feed: domain.FeedEarthquakes, Source: src.String(), Err: err}
	}

	logger := o.logger(stderr)
	for _, m := range malformed {
		logger.Warn("skipping malformed feature", "error", m)
	}
	return loaded{
		events:    domain.VisibleSubset(events, o.minMag),
		malformed: malformed,
	}, nil
}
