package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cpuguy83/calgrid/internal/calendar"
	"github.com/cpuguy83/calgrid/internal/timeutil"
)

const (
	// DefaultCellHeight is the height of one visible hour in pixels.
	DefaultCellHeight = 96

	minutesInHour = 60
	minutesInDay  = 24 * minutesInHour

	// CompactThreshold is the duration below which event blocks use the compact layout.
	CompactThreshold = 35 * time.Minute
	// MinDurationForTime is the duration from which event blocks show their time range.
	MinDurationForTime = 25 * time.Minute
)

// ErrInvalidBoundaries is returned by DayBoundaries.Validate.
var ErrInvalidBoundaries = errors.New("invalid day boundaries")

// DayBoundaries is the visible hour window of day and week views. EndHour is
// the last displayed hour and is shown in full.
type DayBoundaries struct {
	StartHour int `json:"startHour" yaml:"start_hour"`
	EndHour   int `json:"endHour" yaml:"end_hour"`
}

// Validate rejects hours outside 0..23 and windows that end before they start.
func (b DayBoundaries) Validate() error {
	if b.StartHour < 0 || b.StartHour > 23 || b.EndHour < 0 || b.EndHour > 23 {
		return fmt.Errorf("%w: hours must be within 0..23, got %d..%d", ErrInvalidBoundaries, b.StartHour, b.EndHour)
	}
	if b.StartHour > b.EndHour {
		return fmt.Errorf("%w: start hour %d is after end hour %d", ErrInvalidBoundaries, b.StartHour, b.EndHour)
	}
	return nil
}

// window returns the visible minutes [start, end). Nil means the whole day.
func window(b *DayBoundaries) (int, int) {
	if b == nil {
		return 0, minutesInDay
	}
	return b.StartHour * minutesInHour, b.EndHour*minutesInHour + minutesInHour
}

// DisplayHours returns the hours drawn on the time axis.
func DisplayHours(b *DayBoundaries) []int {
	start, end := window(b)
	hours := make([]int, 0, (end-start)/minutesInHour)
	for h := start / minutesInHour; h < end/minutesInHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Geometry maps times to pixels on the day/week time grid.
type Geometry struct {
	// CellHeight is the height of one hour in pixels.
	CellHeight int
}

// DefaultGeometry returns a Geometry using DefaultCellHeight.
func DefaultGeometry() Geometry {
	return Geometry{CellHeight: DefaultCellHeight}
}

func (g Geometry) cellHeight() int {
	if g.CellHeight <= 0 {
		return DefaultCellHeight
	}
	return g.CellHeight
}

// MinBlockHeight is the smallest height a block is drawn with, so zero and
// very short events stay visible and clickable.
func (g Geometry) MinBlockHeight() int {
	return g.cellHeight() / 2
}

// CalendarHeight returns the total pixel height of the time grid.
func (g Geometry) CalendarHeight(b *DayBoundaries) int {
	return len(DisplayHours(b)) * g.cellHeight()
}

// Block is the absolute position of an event on the time grid. Top and Height
// are pixels, Left and Width are percentages of the day column.
type Block struct {
	Top    int     `json:"top"`
	Height int     `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Style is a Block rendered as CSS values.
type Style struct {
	Top    string `json:"top"`
	Height string `json:"height"`
	Left   string `json:"left"`
	Width  string `json:"width"`
}

// Style formats the block as CSS pixel and percentage strings.
func (b Block) Style() Style {
	return Style{
		Top:    strconv.Itoa(b.Top) + "px",
		Height: strconv.Itoa(b.Height) + "px",
		Left:   strconv.FormatFloat(b.Left, 'f', -1, 64) + "%",
		Width:  strconv.FormatFloat(b.Width, 'f', -1, 64) + "%",
	}
}

// Block positions ev in column of totalColumns on its start day.
//
// Start and end are taken as wall-clock minutes since midnight of the start
// day (an end on a later day counts as midnight) and clamped to the visible
// window. Events entirely outside the window must be filtered out by the
// caller first, see VisibleInWindow.
func (g Geometry) Block(ev calendar.Event, column, totalColumns int, b *DayBoundaries) Block {
	if totalColumns < 1 {
		totalColumns = 1
	}
	visibleStart, visibleEnd := window(b)

	startMin := timeutil.MinutesSinceMidnight(ev.Start)
	endMin := minutesInDay
	if end := ev.End.In(ev.Start.Location()); timeutil.SameDay(ev.Start, end) {
		endMin = timeutil.MinutesSinceMidnight(end)
	}

	clampedStart := clamp(startMin, visibleStart, visibleEnd)
	clampedEnd := clamp(endMin, visibleStart, visibleEnd)

	minuteHeight := float64(g.cellHeight()) / minutesInHour
	top := float64(clampedStart-visibleStart) * minuteHeight
	height := float64(clampedEnd-clampedStart) * minuteHeight

	width := 100 / float64(totalColumns)
	return Block{
		Top:    int(math.Round(top)),
		Height: max(int(math.Round(height)), g.MinBlockHeight()),
		Left:   width * float64(column),
		Width:  width,
	}
}

// TimelineTop returns the pixel offset of the current-time indicator and
// whether it falls inside the visible window.
func (g Geometry) TimelineTop(now time.Time, b *DayBoundaries) (int, bool) {
	visibleStart, visibleEnd := window(b)
	m := timeutil.MinutesSinceMidnight(now)
	if m < visibleStart || m >= visibleEnd {
		return 0, false
	}
	minuteHeight := float64(g.cellHeight()) / minutesInHour
	return int(math.Round(float64(m-visibleStart) * minuteHeight)), true
}

// VisibleInWindow reports whether ev intersects the visible hours of day.
// Nil boundaries make the whole day visible.
func VisibleInWindow(ev calendar.Event, day time.Time, b *DayBoundaries) bool {
	start, end := windowOn(day, b)
	return EventOverlapsRange(&ev, start, end)
}

// windowOn returns the visible window of day as absolute times.
func windowOn(day time.Time, b *DayBoundaries) (time.Time, time.Time) {
	midnight := timeutil.StartOfDay(day)
	if b == nil {
		return midnight, timeutil.NextDay(midnight)
	}
	y, m, d := midnight.Date()
	loc := midnight.Location()
	start := time.Date(y, m, d, b.StartHour, 0, 0, 0, loc)
	end := time.Date(y, m, d, b.EndHour+1, 0, 0, 0, loc)
	return start, end
}

// BlockTraits are rendering hints for an event block.
type BlockTraits struct {
	// Compact blocks put title and time on one line.
	Compact bool `json:"compact"`
	// ShowTime reports whether the block is tall enough to show its time range.
	ShowTime bool `json:"showTime"`
}

// TraitsFor returns the rendering hints for ev.
func TraitsFor(ev calendar.Event) BlockTraits {
	d := ev.Duration()
	return BlockTraits{
		Compact:  d < CompactThreshold,
		ShowTime: d >= MinDurationForTime,
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
