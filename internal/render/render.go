// Package render prints a view.Layout for the terminal.
package render

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/layout"
	"github.com/cpuguy83/calgrid/internal/links"
	"github.com/cpuguy83/calgrid/internal/timeutil"
	"github.com/cpuguy83/calgrid/internal/view"
)

// ErrUnknownFormat is returned for output formats other than text and json.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Write renders l to w in format f. now is used for relative day labels.
func Write(w io.Writer, f Format, l *view.Layout, now time.Time) error {
	switch f {
	case FormatJSON:
		return JSON(w, l)
	case FormatText:
		return Text(w, l, now)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// JSON writes l as indented JSON.
func JSON(w io.Writer, l *view.Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// Text writes l as plain text: a table for the month view, a listing of
// columns for day and week views.
func Text(w io.Writer, l *view.Layout, now time.Time) error {
	bw := bufio.NewWriter(w)

	var lines []string
	lines = append(lines, header(l))
	if l.Month != nil {
		lines = append(lines, formatMonth(l, now)...)
	} else {
		for _, d := range l.Days {
			lines = append(lines, "")
			lines = append(lines, formatDay(d, now)...)
		}
	}

	for _, line := range lines {
		bw.WriteString(strings.TrimRight(line, " "))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return nil
}

func header(l *view.Layout) string {
	count := "1 event"
	if l.Count != 1 {
		count = fmt.Sprintf("%d events", l.Count)
	}
	return fmt.Sprintf("━━━━ %s (%s) ━━━━", l.RangeText, count)
}

// cellWidth is the width of one month table column, separator included.
const cellWidth = 16

// formatMonth lays the month out as a table, one block of rows per week:
// the day numbers, one row per stacking slot, then the "+N more" row.
func formatMonth(l *view.Layout, now time.Time) []string {
	m := l.Month
	lines := []string{"", row(l.Headers)}

	for w := 0; w < len(m.Cells); w += layout.DaysInWeek {
		week := m.Cells[w:min(w+layout.DaysInWeek, len(m.Cells))]

		days := make([]string, len(week))
		for i, c := range week {
			days[i] = dayNumber(c, now)
		}
		lines = append(lines, row(days))

		for slot := 0; slot < m.MaxStack; slot++ {
			labels := make([]string, len(week))
			empty := true
			for i, c := range week {
				labels[i] = slotLabel(c, slot, i == 0)
				if labels[i] != "" {
					empty = false
				}
			}
			if !empty {
				lines = append(lines, row(labels))
			}
		}

		more := make([]string, len(week))
		overflow := false
		for i, c := range week {
			if c.Overflow > 0 {
				more[i] = fmt.Sprintf("+%d more", c.Overflow)
				overflow = true
			}
		}
		if overflow {
			lines = append(lines, row(more))
		}
		lines = append(lines, "")
	}
	return lines
}

func row(cells []string) string {
	var sb strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&sb, "%-*s", cellWidth, truncate(c, cellWidth-1))
	}
	return sb.String()
}

// dayNumber marks today with brackets and days of adjacent months with
// parentheses.
func dayNumber(c view.MonthCell, now time.Time) string {
	switch {
	case !now.IsZero() && timeutil.SameDay(c.Date, now):
		return fmt.Sprintf("[%d]", c.Day)
	case !c.CurrentMonth:
		return fmt.Sprintf("(%d)", c.Day)
	default:
		return fmt.Sprintf(" %d", c.Day)
	}
}

// slotLabel returns the text of a cell's slot row. Bars continuing from the
// previous day are drawn as a rule, except at the start of a week row.
func slotLabel(c view.MonthCell, slot int, weekStart bool) string {
	for _, se := range c.Events {
		if se.Slot != slot {
			continue
		}
		switch se.Position {
		case layout.SpanMiddle, layout.SpanLast:
			if !weekStart {
				return strings.Repeat("─", cellWidth-1)
			}
			return "… " + se.Event.Title
		default:
			return "• " + se.Event.Title
		}
	}
	return ""
}

func formatDay(d view.Day, now time.Time) []string {
	lines := []string{fmt.Sprintf("━━━━ %s ━━━━", dayLabel(d.Date, now))}

	for _, b := range d.Banners {
		line := "  All Day  " + b.Event.Title
		if span := formatSpan(&b.Event, now); span != "" {
			line += fmt.Sprintf(" (%s)", span)
		}
		lines = append(lines, line+eventSuffix(&b.Event))
	}

	blocks := make([]view.Block, len(d.Blocks))
	copy(blocks, d.Blocks)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Event.Start.Before(blocks[j].Event.Start)
	})

	nowShown := d.Timeline == nil
	for i := range blocks {
		b := &blocks[i]
		if !nowShown && b.Event.Start.After(now) {
			lines = append(lines, timelineLine(now, *d.Timeline))
			nowShown = true
		}
		lines = append(lines, formatBlock(b))
	}
	if !nowShown {
		lines = append(lines, timelineLine(now, *d.Timeline))
	}

	if len(d.Banners) == 0 && len(blocks) == 0 {
		lines = append(lines, "  No events")
	}
	return lines
}

func timelineLine(now time.Time, top int) string {
	return fmt.Sprintf("  ──── now %s ──── %dpx", now.Format("15:04"), top)
}

// formatBlock formats a timed event with its grid position.
func formatBlock(b *view.Block) string {
	e := &b.Event
	line := fmt.Sprintf("  %s-%s  %s (%s)",
		e.Start.Format("15:04"), e.End.Format("15:04"),
		truncate(e.Title, 40), formatDuration(e.Duration()))
	if b.TotalColumns > 1 {
		line += fmt.Sprintf("  [col %d/%d]", b.Column+1, b.TotalColumns)
	}
	line += fmt.Sprintf("  top=%s height=%s left=%s width=%s",
		b.Style.Top, b.Style.Height, b.Style.Left, b.Style.Width)
	if b.Link != "" {
		line += fmt.Sprintf("  🔗 %s", links.Service(b.Link))
	}
	return line + eventSuffix(e)
}

func eventSuffix(e *calendar.Event) string {
	var s string
	if e.User != nil && e.User.Name != "" {
		s += fmt.Sprintf("  👤 %s", e.User.Name)
	}
	if e.Source != "" {
		s += fmt.Sprintf("  📁 %s", e.Source)
	}
	return s
}

// dayLabel returns a human-readable day label.
func dayLabel(t time.Time, now time.Time) string {
	if now.IsZero() {
		return t.Format("Mon, Jan 2")
	}
	today := timeutil.StartOfDay(now.In(t.Location()))
	day := timeutil.StartOfDay(t)

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(timeutil.NextDay(today)):
		return "Tomorrow"
	default:
		return t.Format("Mon, Jan 2")
	}
}

// formatSpan returns the day range of an event lasting more than one day,
// or "" for a single day. The end is exclusive.
func formatSpan(e *calendar.Event, now time.Time) string {
	if !layout.IsMultiDay(*e) {
		return ""
	}
	last := e.End
	if last.After(e.Start) {
		last = last.Add(-time.Nanosecond)
	}
	return fmt.Sprintf("%s – %s", dayLabel(e.Start, now), dayLabel(last, now))
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := d.Hours()
	if hours == float64(int(hours)) {
		return fmt.Sprintf("%dh", int(hours))
	}
	return fmt.Sprintf("%.1fh", hours)
}

// truncate truncates a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
