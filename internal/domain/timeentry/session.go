package timeentry

import "time"

// EnsureMutable rejects any change to a locked entry.
func (e *TimeEntry) EnsureMutable() error {
	if e.Locked {
		return ErrEntryLocked
	}
	return nil
}

// StartBreak moves an open shift to on-break.
func (e *TimeEntry) StartBreak(now time.Time) error {
	if err := e.EnsureMutable(); err != nil {
		return err
	}
	if !e.IsOpen() {
		return ErrNotClockedIn
	}
	return e.Breaks.Start(now)
}

// EndBreak moves an on-break shift back to open.
func (e *TimeEntry) EndBreak(now time.Time) error {
	if err := e.EnsureMutable(); err != nil {
		return err
	}
	if !e.IsOpen() {
		return ErrNotClockedIn
	}
	return e.Breaks.End(now)
}

// Close clocks the shift out at now. An active break is ended at now and
// counted as a completed break. A clamped negative elapsed time is returned as
// a warning; the clock-out itself still happens.
func (e *TimeEntry) Close(now time.Time) (*ClockSkewWarning, error) {
	if err := e.EnsureMutable(); err != nil {
		return nil, err
	}
	if !e.IsOpen() {
		return nil, ErrNotClockedIn
	}
	if e.Breaks.OnBreak() {
		if err := e.Breaks.End(now); err != nil {
			return nil, err
		}
	}

	clockOut := now
	if clockOut.Before(e.ClockIn) {
		// Never move clock-out before clock-in; the skew is surfaced below.
		clockOut = e.ClockIn
	}
	e.ClockOut = &clockOut

	elapsed, warning := e.netElapsed(now, now)
	hours := elapsed.Hours()
	e.HoursWorked = &hours
	if warning != nil {
		e.flagReview(warning.Error())
	}
	return warning, nil
}

// NetElapsed is worked time at now: gross shift length minus completed breaks
// minus the running break. It is a pure recomputation and never negative.
func (e *TimeEntry) NetElapsed(now time.Time) (time.Duration, *ClockSkewWarning) {
	end := now
	if e.ClockOut != nil {
		end = *e.ClockOut
	}
	return e.netElapsed(end, now)
}

// HoursAt is NetElapsed in fractional hours.
func (e *TimeEntry) HoursAt(now time.Time) float64 {
	d, _ := e.NetElapsed(now)
	return d.Hours()
}

func (e *TimeEntry) netElapsed(end time.Time, now time.Time) (time.Duration, *ClockSkewWarning) {
	elapsed := end.Sub(e.ClockIn)
	elapsed -= time.Duration(e.Breaks.CompletedMinutes()) * time.Minute
	if e.ClockOut == nil {
		elapsed -= e.Breaks.ActiveDuration(now)
	}
	if elapsed < 0 {
		return 0, &ClockSkewWarning{EntryID: e.ID, Computed: elapsed}
	}
	return elapsed, nil
}

// ReplaceBreaks swaps the break list after validating it against the shift
// and recomputes hours for a closed shift. now bounds the breaks of an open
// shift.
func (e *TimeEntry) ReplaceBreaks(breaks BreakLedger, now time.Time) (*ClockSkewWarning, error) {
	if err := e.EnsureMutable(); err != nil {
		return nil, err
	}
	normalized := breaks.Normalize()
	if err := normalized.Validate(e.ClockIn, e.ClockOut, now); err != nil {
		return nil, err
	}
	e.Breaks = normalized
	if e.ClockOut == nil {
		return nil, nil
	}
	elapsed, warning := e.NetElapsed(*e.ClockOut)
	hours := elapsed.Hours()
	e.HoursWorked = &hours
	if warning != nil {
		e.flagReview(warning.Error())
	}
	return warning, nil
}

func (e *TimeEntry) flagReview(reason string) {
	e.NeedsReview = true
	e.ReviewReason = &reason
}

// FlagForReview marks the entry for manual review without changing times.
func (e *TimeEntry) FlagForReview(reason string) {
	e.flagReview(reason)
}
