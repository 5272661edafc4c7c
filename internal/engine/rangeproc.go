package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-engine/internal/core/domain"
)

// RangeFlags tune how a range processor recognises its marker.
type RangeFlags uint32

// Range processor flags.
const (
	// RangeSuffix expects the marker after the bound instead of before it.
	RangeSuffix RangeFlags = 1
	// RangeRepeated allows the marker on both bounds.
	RangeRepeated RangeFlags = 2
	// RangeDatePreferMDY reads ambiguous dates as month/day/year.
	RangeDatePreferMDY RangeFlags = 4
)

// StripMarker checks a range expression for marker and removes it.
// ok is false when the expression does not carry the marker.
func StripMarker(begin, end, marker string, flags RangeFlags) (b, e string, ok bool) {
	if marker == "" {
		return begin, end, true
	}
	repeated := flags&RangeRepeated != 0
	if flags&RangeSuffix != 0 {
		switch {
		case strings.HasSuffix(end, marker):
			end = strings.TrimSuffix(end, marker)
			if repeated {
				begin = strings.TrimSuffix(begin, marker)
			}
			return begin, end, true
		case end == "" && strings.HasSuffix(begin, marker):
			return strings.TrimSuffix(begin, marker), end, true
		}
		return begin, end, false
	}
	switch {
	case strings.HasPrefix(begin, marker):
		begin = strings.TrimPrefix(begin, marker)
		if repeated {
			end = strings.TrimPrefix(end, marker)
		}
		return begin, end, true
	case begin == "" && strings.HasPrefix(end, marker):
		return begin, strings.TrimPrefix(end, marker), true
	}
	return begin, end, false
}

func openBound(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}

type rangeBase struct {
	slot   domain.Slot
	marker string
	flags  RangeFlags
}

// Slot returns the value slot the processor queries.
func (r rangeBase) Slot() domain.Slot { return r.slot }

// Marker returns the marker that selects this processor.
func (r rangeBase) Marker() string { return r.marker }

// Flags returns the marker flags.
func (r rangeBase) Flags() RangeFlags { return r.flags }

// StringRangeProcessor compares bounds as raw bytes.
type StringRangeProcessor struct {
	rangeBase
}

var _ RangeProcessor = (*StringRangeProcessor)(nil)

// NewStringRangeProcessor returns a processor for slot.
func NewStringRangeProcessor(slot domain.Slot, marker string, flags RangeFlags) *StringRangeProcessor {
	return &StringRangeProcessor{rangeBase{slot, marker, flags}}
}

// ProcessRange builds a value query over the raw bounds.
func (p *StringRangeProcessor) ProcessRange(begin, end string) (*Query, error) {
	b, e, ok := StripMarker(begin, end, p.marker, p.flags)
	if !ok {
		return nil, nil
	}
	return NewRangeQuery(p.slot, openBound(b), openBound(e)), nil
}

// NumberRangeProcessor parses bounds as numbers and compares them in
// SortableSerialise form.
type NumberRangeProcessor struct {
	rangeBase
}

var _ RangeProcessor = (*NumberRangeProcessor)(nil)

// NewNumberRangeProcessor returns a processor for slot.
func NewNumberRangeProcessor(slot domain.Slot, marker string, flags RangeFlags) *NumberRangeProcessor {
	return &NumberRangeProcessor{rangeBase{slot, marker, flags}}
}

// ProcessRange builds a value query over the serialised numbers.
func (p *NumberRangeProcessor) ProcessRange(begin, end string) (*Query, error) {
	b, e, ok := StripMarker(begin, end, p.marker, p.flags)
	if !ok {
		return nil, nil
	}
	lo, ok := parseNumberBound(b)
	if !ok {
		return nil, nil
	}
	hi, ok := parseNumberBound(e)
	if !ok {
		return nil, nil
	}
	return NewRangeQuery(p.slot, lo, hi), nil
}

func parseNumberBound(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return domain.SortableSerialise(v), true
}

// DateRangeProcessor parses bounds as dates and compares them as YYYYMMDD.
// It accepts YYYY-MM-DD, YYYYMMDD, and D/M/Y or M/D/Y (RangeDatePreferMDY)
// with two- or four-digit years.
type DateRangeProcessor struct {
	rangeBase
	epochYear int
}

var _ RangeProcessor = (*DateRangeProcessor)(nil)

// NewDateRangeProcessor returns a processor for slot. Two-digit years are
// placed in the century starting at epochYear; zero means 1970.
func NewDateRangeProcessor(slot domain.Slot, marker string, flags RangeFlags, epochYear int) *DateRangeProcessor {
	if epochYear == 0 {
		epochYear = 1970
	}
	return &DateRangeProcessor{rangeBase: rangeBase{slot, marker, flags}, epochYear: epochYear}
}

// ProcessRange builds a value query over YYYYMMDD bounds.
func (p *DateRangeProcessor) ProcessRange(begin, end string) (*Query, error) {
	b, e, ok := StripMarker(begin, end, p.marker, p.flags)
	if !ok {
		return nil, nil
	}
	lo, ok := p.parseBound(b)
	if !ok {
		return nil, nil
	}
	hi, ok := p.parseBound(e)
	if !ok {
		return nil, nil
	}
	return NewRangeQuery(p.slot, lo, hi), nil
}

func (p *DateRangeProcessor) parseBound(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	t, err := p.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return []byte(t.Format("20060102")), true
}

// ParseDate parses s in any of the accepted date forms.
func (p *DateRangeProcessor) ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '.' || r == '-' })
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]
	if p.flags&RangeDatePreferMDY != 0 {
		day, month = month, day
	}
	if month > 12 && day <= 12 {
		day, month = month, day
	}
	if len(parts[2]) <= 2 {
		century := p.epochYear - p.epochYear%100
		year += century
		if year < p.epochYear {
			year += 100
		}
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// DateTimeLayout is the stored form of date-time values. Byte order is
// chronological order.
const DateTimeLayout = "20060102150405"

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	DateTimeLayout,
	"2006-01-02",
}

// ParseDateTime parses an ISO 8601 date-time. Times with a zone are
// converted to UTC; a bare date means midnight.
func ParseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date-time %q", domain.ErrInvalidInput, s)
}

// DateTimeRangeProcessor parses bounds as date-times and compares them in
// DateTimeLayout form.
type DateTimeRangeProcessor struct {
	rangeBase
}

var _ RangeProcessor = (*DateTimeRangeProcessor)(nil)

// NewDateTimeRangeProcessor returns a processor for slot.
func NewDateTimeRangeProcessor(slot domain.Slot, marker string, flags RangeFlags) *DateTimeRangeProcessor {
	return &DateTimeRangeProcessor{rangeBase{slot, marker, flags}}
}

// ProcessRange builds a value query over DateTimeLayout bounds.
func (p *DateTimeRangeProcessor) ProcessRange(begin, end string) (*Query, error) {
	b, e, ok := StripMarker(begin, end, p.marker, p.flags)
	if !ok {
		return nil, nil
	}
	lo, ok := parseDateTimeBound(b)
	if !ok {
		return nil, nil
	}
	hi, ok := parseDateTimeBound(e)
	if !ok {
		return nil, nil
	}
	return NewRangeQuery(p.slot, lo, hi), nil
}

func parseDateTimeBound(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	t, err := ParseDateTime(s)
	if err != nil {
		return nil, false
	}
	return []byte(t.Format(DateTimeLayout)), true
}
