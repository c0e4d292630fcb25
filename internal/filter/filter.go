// Package filter selects the calendar events to lay out.
package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/config"
)

// Filter keeps the events matched by its rules.
type Filter struct {
	all   bool
	rules []rule
}

type rule struct {
	value func(calendar.Event) string
	match func(string) bool
}

// fields maps rule field names to the event text they read.
var fields = map[string]func(calendar.Event) string{
	"title":       func(e calendar.Event) string { return e.Title },
	"description": func(e calendar.Event) string { return e.Description },
	"color":       func(e calendar.Event) string { return string(e.Color) },
	"source":      func(e calendar.Event) string { return e.Source },
	"user": func(e calendar.Event) string {
		if e.User == nil {
			return ""
		}
		return e.User.ID
	},
	"user_name": func(e calendar.Event) string {
		if e.User == nil {
			return ""
		}
		return e.User.Name
	},
}

// aliases are alternative names accepted for fields.
var aliases = map[string]string{
	"summary":  "title",
	"calendar": "source",
}

var errNoPattern = errors.New("no match pattern specified (use contains, exact, prefix, suffix, or regex)")

// New creates a filter from configuration. A filter without rules keeps
// every event.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{}
	switch cfg.Mode {
	case "", "or":
	case "and":
		f.all = true
	default:
		return nil, fmt.Errorf("unknown filter mode %q", cfg.Mode)
	}

	for i, r := range cfg.Rules {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, compiled)
	}
	return f, nil
}

func compileRule(r config.FilterRule) (rule, error) {
	name := r.Field
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	value, ok := fields[name]
	if !ok {
		return rule{}, fmt.Errorf("unknown field %q", r.Field)
	}

	if r.Regex != "" {
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return rule{}, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		return rule{value: value, match: re.MatchString}, nil
	}

	var (
		pattern string
		cmp     func(s, pattern string) bool
	)
	switch {
	case r.Exact != "":
		pattern, cmp = r.Exact, func(s, p string) bool { return s == p }
	case r.Prefix != "":
		pattern, cmp = r.Prefix, strings.HasPrefix
	case r.Suffix != "":
		pattern, cmp = r.Suffix, strings.HasSuffix
	case r.Contains != "":
		pattern, cmp = r.Contains, strings.Contains
	default:
		return rule{}, errNoPattern
	}

	fold := r.CaseInsensitive
	if fold {
		pattern = strings.ToLower(pattern)
	}
	return rule{
		value: value,
		match: func(s string) bool {
			if fold {
				s = strings.ToLower(s)
			}
			return cmp(s, pattern)
		},
	}, nil
}

// Apply returns the events matched by the rules: any rule in "or" mode,
// every rule in "and" mode.
func (f *Filter) Apply(events []calendar.Event) []calendar.Event {
	if len(f.rules) == 0 {
		return events
	}

	var kept []calendar.Event
	for _, e := range events {
		if f.keep(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

func (f *Filter) keep(e calendar.Event) bool {
	for _, r := range f.rules {
		if r.match(r.value(e)) != f.all {
			return !f.all
		}
	}
	return f.all
}

// AllUsers selects every user in ByUser.
const AllUsers = "all"

// ByUser returns the events owned by the user with the given ID. An empty ID
// or AllUsers keeps every event. Events without a user only pass the
// everyone selection.
func ByUser(events []calendar.Event, userID string) []calendar.Event {
	if userID == "" || userID == AllUsers {
		return events
	}

	var kept []calendar.Event
	for _, e := range events {
		if e.User != nil && e.User.ID == userID {
			kept = append(kept, e)
		}
	}
	return kept
}
