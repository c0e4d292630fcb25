// Package source loads calendar events from multiple configured sources.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/config"
	"github.com/cpuguy83/calgrid/internal/filter"
)

// Window bounds the occurrences generated for recurring events.
type Window struct {
	Start time.Time
	End   time.Time
}

// Source is a calendar event source.
type Source interface {
	Name() string
	Fetch(ctx context.Context, w Window) ([]calendar.Event, error)
}

// sourceWithFilter pairs a calendar source with its optional filter.
type sourceWithFilter struct {
	source Source
	filter *filter.Filter
}

// Loader loads events from multiple sources.
type Loader struct {
	sources  []sourceWithFilter
	filter   *filter.Filter
	user     string
	location *time.Location
	back     time.Duration
	ahead    time.Duration
	schedule string
}

// NewLoader creates a new Loader from configuration.
func NewLoader(cfg *config.Config) (*Loader, error) {
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	sources, err := createSources(cfg.Sources, loc)
	if err != nil {
		return nil, err
	}

	f, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}

	return &Loader{
		sources:  sources,
		filter:   f,
		user:     cfg.Calendar.User,
		location: loc,
		back:     cfg.Calendar.ExpandBack,
		ahead:    cfg.Calendar.ExpandAhead,
		schedule: cfg.Refresh,
	}, nil
}

// SourceCount returns the number of configured sources.
func (l *Loader) SourceCount() int {
	return len(l.sources)
}

// Window returns the expansion window used when loading around t.
func (l *Loader) Window(t time.Time) Window {
	return Window{Start: t.Add(-l.back), End: t.Add(l.ahead)}
}

// Load fetches all sources, applies per-source filters, the global filter
// and the user selection, and returns merged events. Recurring events are
// expanded around the given time.
func (l *Loader) Load(ctx context.Context, around time.Time) ([]calendar.Event, error) {
	slog.Info("loading sources", "sources", len(l.sources))
	w := l.Window(around)

	// Fetch from all sources in parallel, applying per-source filters
	type result struct {
		index    int
		events   []calendar.Event
		name     string
		fetched  int // count before filtering
		filtered int // count after filtering
		err      error
	}

	results := make(chan result, len(l.sources))
	var wg sync.WaitGroup

	for i, swf := range l.sources {
		wg.Go(func() {
			name := swf.source.Name()
			slog.Debug("fetching source", "name", name)

			events, err := swf.source.Fetch(ctx, w)
			if err != nil {
				results <- result{index: i, name: name, err: err}
				return
			}

			fetched := len(events)

			// Apply per-source filter (if no rules, all events pass through)
			if swf.filter != nil {
				events = swf.filter.Apply(events)
			}

			results <- result{
				index:    i,
				events:   events,
				name:     name,
				fetched:  fetched,
				filtered: len(events),
			}
		})
	}

	// Close results channel when all goroutines complete
	go func() {
		wg.Wait()
		close(results)
	}()

	// Sets stay in configuration order so Merge keeps copies from the first source.
	sets := make([][]calendar.Event, len(l.sources))
	var firstErr error
	for r := range results {
		if r.err != nil {
			slog.Warn("failed to fetch source", "name", r.name, "error", r.err)
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		slog.Info("fetched source", "name", r.name, "fetched", r.fetched, "after_filter", r.filtered)
		sets[r.index] = r.events
	}

	events := l.filter.Apply(calendar.Merge(sets...))
	events = filter.ByUser(events, l.user)

	slog.Info("load complete", "events", len(events), "user", l.user)

	// Return events even if some sources failed (partial success)
	// Only return error if we got zero events and there was an error
	if len(events) == 0 && firstErr != nil {
		return nil, firstErr
	}

	return events, nil
}

// Run loads once, then again on every tick of the refresh schedule, calling
// onLoad after each load. Without a schedule it returns after the first
// load; otherwise it blocks until the context is cancelled.
func (l *Loader) Run(ctx context.Context, around func() time.Time, onLoad func([]calendar.Event, error)) error {
	events, err := l.Load(ctx, around())
	onLoad(events, err)

	if l.schedule == "" {
		return nil
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(l.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(l.schedule, func() {
		events, err := l.Load(ctx, around())
		onLoad(events, err)
	}); err != nil {
		return fmt.Errorf("parse refresh schedule: %w", err)
	}

	slog.Debug("refresh scheduled", "schedule", l.schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// createSources creates calendar sources with their per-source filters from configuration.
func createSources(cfgs []config.SourceConfig, loc *time.Location) ([]sourceWithFilter, error) {
	var sources []sourceWithFilter

	for _, cfg := range cfgs {
		src, err := NewICSFile(cfg, loc)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}

		// Create per-source filter (if no rules, filter passes everything through)
		f, err := filter.New(cfg.Filters)
		if err != nil {
			return nil, fmt.Errorf("source %s filters: %w", cfg.Name, err)
		}

		sources = append(sources, sourceWithFilter{
			source: src,
			filter: f,
		})
	}

	return sources, nil
}

// ICSFile is a source backed by a local iCalendar file.
type ICSFile struct {
	name     string
	path     string
	color    calendar.Color
	user     *calendar.User
	location *time.Location
}

// NewICSFile creates an ICS file source from configuration.
func NewICSFile(cfg config.SourceConfig, loc *time.Location) (*ICSFile, error) {
	src := &ICSFile{
		name:     cfg.Name,
		path:     cfg.Path,
		location: loc,
	}
	if cfg.Color != "" {
		c, err := calendar.ParseColor(cfg.Color)
		if err != nil {
			return nil, err
		}
		src.color = c
	}
	if cfg.User != "" {
		name := cfg.UserName
		if name == "" {
			name = cfg.User
		}
		src.user = &calendar.User{ID: cfg.User, Name: name}
	}
	return src, nil
}

// Name returns the source name.
func (s *ICSFile) Name() string {
	return s.name
}

// Fetch reads and parses the file.
func (s *ICSFile) Fetch(ctx context.Context, w Window) ([]calendar.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return calendar.ReadICS(s.path, calendar.ParseOptions{
		Source:       s.name,
		Location:     s.location,
		RangeStart:   w.Start,
		RangeEnd:     w.End,
		DefaultColor: s.color,
		DefaultUser:  s.user,
	})
}

// cronLogger routes scheduler messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
