// calgrid lays out calendar events as day, week and month views.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/config"
	"github.com/cpuguy83/calgrid/internal/layout"
	"github.com/cpuguy83/calgrid/internal/render"
	"github.com/cpuguy83/calgrid/internal/source"
	"github.com/cpuguy83/calgrid/internal/view"
)

// defaultWatchRefresh is used by -watch when the config has no refresh schedule.
const defaultWatchRefresh = "*/5 * * * *"

// options are the command line settings that override the config file.
type options struct {
	view   string
	date   string
	offset int
	user   string
	format string
	watch  bool
}

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/calgrid/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
		opts       options
	)
	flag.StringVar(&opts.view, "view", "", "view to show: day, week or month (default from config)")
	flag.StringVar(&opts.date, "date", "", "date to show as YYYY-MM-DD (default: today)")
	flag.IntVar(&opts.offset, "offset", 0, "move the date by this many views (e.g. -1 for the previous month)")
	flag.StringVar(&opts.user, "user", "", "only show events of this user ID (\"all\" for everyone)")
	flag.StringVar(&opts.format, "format", "text", "output format: text or json")
	flag.BoolVar(&opts.watch, "watch", false, "keep running and print again on every refresh")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.ics ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Setup logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Extra files given on the command line
	for _, path := range flag.Args() {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			Name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Path:    path,
			Filters: config.FilterConfig{Mode: "or"},
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts); err != nil {
		slog.Error("calgrid failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	name := opts.view
	if name == "" {
		name = cfg.Calendar.View
	}
	v, err := layout.ParseView(name)
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	date := time.Now().In(loc)
	if opts.date != "" {
		date, err = time.ParseInLocation(time.DateOnly, opts.date, loc)
		if err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
	}
	dir := layout.Next
	if opts.offset < 0 {
		dir = layout.Previous
	}
	for range abs(opts.offset) {
		date = layout.Navigate(date, v, dir)
	}

	if opts.user != "" {
		cfg.Calendar.User = opts.user
	}
	if opts.watch && cfg.Refresh == "" {
		cfg.Refresh = defaultWatchRefresh
	}

	loader, err := source.NewLoader(cfg)
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}
	if loader.SourceCount() == 0 {
		return errors.New("no calendar sources configured")
	}

	slog.Debug("starting calgrid",
		"view", v,
		"date", date.Format(time.DateOnly),
		"sources", loader.SourceCount(),
		"week_start", cfg.Calendar.WeekStart,
	)

	settings := view.Settings{
		WeekStart:  cfg.Calendar.WeekStart,
		Boundaries: cfg.Calendar.DayBoundaries,
		Geometry:   layout.Geometry{CellHeight: cfg.Calendar.CellHeight},
		Allocator:  layout.Allocator{MaxStack: cfg.Calendar.MaxEventStack},
	}

	draw := func(events []calendar.Event) error {
		now := time.Now().In(loc)
		settings.Now = now
		l, err := view.Build(v, date, events, settings)
		if err != nil {
			return err
		}
		return render.Write(os.Stdout, format, l, now)
	}

	if !opts.watch {
		events, err := loader.Load(ctx, date)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		return draw(events)
	}

	return loader.Run(ctx, func() time.Time { return date }, func(events []calendar.Event, err error) {
		if err != nil {
			slog.Error("load failed", "error", err)
			return
		}
		if err := draw(events); err != nil {
			slog.Error("draw failed", "error", err)
		}
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
