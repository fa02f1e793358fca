package timeentry

import (
	"math"
	"time"
)

// BreakLedger is the chronological list of breaks inside one shift.
// At most one interval is active and it is always the last one.
type BreakLedger []BreakInterval

// OnBreak reports whether the last interval is still running.
func (l BreakLedger) OnBreak() bool {
	return len(l) > 0 && l[len(l)-1].Active()
}

// Start appends a new active break beginning at now.
func (l *BreakLedger) Start(now time.Time) error {
	if l.OnBreak() {
		return ErrAlreadyOnBreak
	}
	*l = append(*l, BreakInterval{Start: now})
	return nil
}

// End closes the active break at now and records its rounded duration.
func (l *BreakLedger) End(now time.Time) error {
	if !l.OnBreak() {
		return ErrNotOnBreak
	}
	last := &(*l)[len(*l)-1]
	end := now
	if end.Before(last.Start) {
		end = last.Start
	}
	minutes := roundMinutes(end.Sub(last.Start))
	last.End = &end
	last.DurationMinutes = &minutes
	return nil
}

// CompletedMinutes sums the recorded durations of ended breaks.
func (l BreakLedger) CompletedMinutes() int {
	total := 0
	for _, b := range l {
		if b.Active() {
			continue
		}
		if b.DurationMinutes != nil {
			total += *b.DurationMinutes
		} else {
			total += roundMinutes(b.End.Sub(b.Start))
		}
	}
	return total
}

// ActiveDuration is how long the running break has lasted at now, or 0.
// A break starting after now has not lasted at all.
func (l BreakLedger) ActiveDuration(now time.Time) time.Duration {
	if !l.OnBreak() {
		return 0
	}
	return max(0, now.Sub(l[len(l)-1].Start))
}

// Validate checks ordering and the single-active-break invariant against the
// shift bounds. clockOut may be nil for an open shift, which is then bounded
// by now: no break may start or end in the future.
func (l BreakLedger) Validate(clockIn time.Time, clockOut *time.Time, now time.Time) error {
	bound := now
	if clockOut != nil {
		bound = *clockOut
	}
	var prevEnd time.Time
	for i, b := range l {
		if b.Start.Before(clockIn) || b.Start.After(bound) {
			return ErrInvalidBreaks
		}
		if i > 0 && b.Start.Before(prevEnd) {
			return ErrInvalidBreaks
		}
		if b.Active() {
			if i != len(l)-1 || clockOut != nil {
				return ErrInvalidBreaks
			}
			continue
		}
		if b.End.Before(b.Start) {
			return ErrInvalidBreaks
		}
		if b.End.After(bound) {
			return ErrInvalidBreaks
		}
		prevEnd = *b.End
	}
	return nil
}

// Normalize fills in missing durations of ended breaks.
func (l BreakLedger) Normalize() BreakLedger {
	out := make(BreakLedger, len(l))
	for i, b := range l {
		if !b.Active() && b.DurationMinutes == nil {
			m := roundMinutes(b.End.Sub(b.Start))
			b.DurationMinutes = &m
		}
		out[i] = b
	}
	return out
}

// LedgerFromLegacy converts the old single break_start/break_end pair into a
// one-element ledger.
func LedgerFromLegacy(start *time.Time, end *time.Time) BreakLedger {
	if start == nil {
		return BreakLedger{}
	}
	b := BreakInterval{Start: *start}
	if end != nil {
		e := *end
		b.End = &e
	}
	return BreakLedger{b}.Normalize()
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
