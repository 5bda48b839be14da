package ledger

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// RangeKind names a quick export range.
type RangeKind string

const (
	RangeToday       RangeKind = "today"
	RangeYesterday   RangeKind = "yesterday"
	RangeThisMonth   RangeKind = "this_month"
	RangeLast3Months RangeKind = "last_3_months"
	RangeThisYear    RangeKind = "this_year"
	RangeAllData     RangeKind = "all_data"
	RangeCustom      RangeKind = "custom"
)

// wireAll is how the reporting endpoint spells RangeAllData.
const wireAll = "all"

// QuickRanges lists the named ranges in display order.
var QuickRanges = []RangeKind{RangeToday, RangeYesterday, RangeThisMonth, RangeLast3Months, RangeThisYear, RangeAllData}

var (
	// ErrUnknownRange indicates an unsupported range token.
	ErrUnknownRange = errors.New("ledger: unknown export range")
	// ErrRangeIncomplete indicates a custom range without both bounds.
	ErrRangeIncomplete = errors.New("ledger: custom range requires start and end")
	// ErrRangeInverted indicates a custom range whose start is after its end.
	ErrRangeInverted = errors.New("ledger: custom range start is after end")
)

// ParseRangeKind maps a token to a RangeKind. "all" is accepted for all_data.
func ParseRangeKind(token string) (RangeKind, error) {
	if token == wireAll {
		return RangeAllData, nil
	}
	kind := RangeKind(token)
	switch kind {
	case RangeToday, RangeYesterday, RangeThisMonth, RangeLast3Months, RangeThisYear, RangeAllData, RangeCustom:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, token)
}

// Range is an export request as chosen by the operator. Start and End are
// YYYY-MM-DD strings and are only read for RangeCustom.
type Range struct {
	Kind  RangeKind
	Start string
	End   string
}

// Window is a resolved, inclusive span of ledger days.
type Window struct {
	Kind      RangeKind
	Start     time.Time
	End       time.Time
	Unbounded bool
}

// WireType is the type token sent to the reporting endpoint.
func (w Window) WireType() string {
	if w.Kind == RangeAllData {
		return wireAll
	}
	return string(w.Kind)
}

// Params shapes the query parameters for the reporting endpoint.
func (w Window) Params() url.Values {
	v := url.Values{}
	v.Set("type", w.WireType())
	if !w.Unbounded {
		v.Set("start", w.Start.Format(DayLayout))
		v.Set("end", w.End.Format(DayLayout))
	}
	return v
}

// Resolve maps r to concrete day bounds relative to now.
func Resolve(r Range, now time.Time, cal Calendar) (Window, error) {
	today := cal.StartOfDay(now)
	w := Window{Kind: r.Kind, End: today}
	switch r.Kind {
	case RangeToday:
		w.Start = today
	case RangeYesterday:
		w.Start = today.AddDate(0, 0, -1)
		w.End = w.Start
	case RangeThisMonth:
		w.Start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	case RangeLast3Months:
		w.Start = monthsBefore(today, 3)
	case RangeThisYear:
		w.Start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
	case RangeAllData:
		return Window{Kind: RangeAllData, Unbounded: true}, nil
	case RangeCustom:
		return resolveCustom(r, cal)
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownRange, r.Kind)
	}
	return w, nil
}

func resolveCustom(r Range, cal Calendar) (Window, error) {
	if r.Start == "" || r.End == "" {
		return Window{}, ErrRangeIncomplete
	}
	start, err := cal.ParseDay(r.Start)
	if err != nil {
		return Window{}, err
	}
	end, err := cal.ParseDay(r.End)
	if err != nil {
		return Window{}, err
	}
	if start.After(end) {
		return Window{}, ErrRangeInverted
	}
	return Window{Kind: RangeCustom, Start: start, End: end}, nil
}

// monthsBefore steps back n months, clamping to the last day of the target month.
func monthsBefore(day time.Time, n int) time.Time {
	firstOfTarget := time.Date(day.Year(), day.Month()-time.Month(n), 1, 0, 0, 0, 0, day.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	d := day.Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, day.Location())
}

// WindowFromQuery resolves the reporting endpoint's query parameters.
// Explicit start and end take precedence over the type token.
func WindowFromQuery(q url.Values, now time.Time, cal Calendar) (Window, error) {
	kind, err := ParseRangeKind(q.Get("type"))
	if err != nil {
		return Window{}, err
	}
	start, end := q.Get("start"), q.Get("end")
	if start != "" || end != "" {
		w, err := resolveCustom(Range{Kind: RangeCustom, Start: start, End: end}, cal)
		if err != nil {
			return Window{}, err
		}
		w.Kind = kind
		return w, nil
	}
	return Resolve(Range{Kind: kind}, now, cal)
}
