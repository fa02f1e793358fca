package timeentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func TestBreakLedger_StartEnd(t *testing.T) {
	var l BreakLedger

	require.NoError(t, l.Start(t0))
	assert.True(t, l.OnBreak())
	assert.ErrorIs(t, l.Start(t0.Add(time.Minute)), ErrAlreadyOnBreak)

	require.NoError(t, l.End(t0.Add(14*time.Minute+31*time.Second)))
	assert.False(t, l.OnBreak())
	require.NotNil(t, l[0].DurationMinutes)
	assert.Equal(t, 15, *l[0].DurationMinutes, "rounded to nearest minute")

	assert.ErrorIs(t, l.End(t0.Add(time.Hour)), ErrNotOnBreak)
}

func TestBreakLedger_RoundsHalfUp(t *testing.T) {
	var l BreakLedger
	require.NoError(t, l.Start(t0))
	require.NoError(t, l.End(t0.Add(10*time.Minute+29*time.Second)))
	assert.Equal(t, 10, *l[0].DurationMinutes)

	require.NoError(t, l.Start(t0.Add(time.Hour)))
	require.NoError(t, l.End(t0.Add(time.Hour+10*time.Minute+30*time.Second)))
	assert.Equal(t, 11, *l[1].DurationMinutes)
	assert.Equal(t, 21, l.CompletedMinutes())
}

func TestBreakLedger_ActiveIsAlwaysLast(t *testing.T) {
	var l BreakLedger
	for i := 0; i < 4; i++ {
		start := t0.Add(time.Duration(i) * time.Hour)
		require.NoError(t, l.Start(start))
		if i < 3 {
			require.NoError(t, l.End(start.Add(10*time.Minute)))
		}
	}

	active := 0
	for i, b := range l {
		if b.Active() {
			active++
			assert.Equal(t, len(l)-1, i)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, 5*time.Minute, l.ActiveDuration(t0.Add(3*time.Hour+5*time.Minute)))
	assert.NoError(t, l.Validate(t0, nil, t0.Add(3*time.Hour+5*time.Minute)))
}

func TestBreakLedger_ActiveDurationNeverNegative(t *testing.T) {
	l := BreakLedger{{Start: t0.Add(time.Hour)}}
	assert.Equal(t, time.Duration(0), l.ActiveDuration(t0))
}

func TestBreakLedger_EndBeforeStartIsClamped(t *testing.T) {
	var l BreakLedger
	require.NoError(t, l.Start(t0))
	require.NoError(t, l.End(t0.Add(-time.Minute)))
	assert.Equal(t, 0, *l[0].DurationMinutes)
	assert.Equal(t, t0, *l[0].End)
}

func TestBreakLedger_Validate(t *testing.T) {
	end := func(d time.Duration) *time.Time { v := t0.Add(d); return &v }
	clockOut := end(8 * time.Hour)
	now := t0.Add(6 * time.Hour)

	cases := []struct {
		name     string
		ledger   BreakLedger
		clockOut *time.Time
		wantErr  bool
	}{
		{"empty", BreakLedger{}, clockOut, false},
		{"ordered", BreakLedger{{Start: t0.Add(time.Hour), End: end(time.Hour + 15*time.Minute)}, {Start: t0.Add(4 * time.Hour), End: end(5 * time.Hour)}}, clockOut, false},
		{"before clock-in", BreakLedger{{Start: t0.Add(-time.Minute), End: end(time.Minute)}}, clockOut, true},
		{"overlapping", BreakLedger{{Start: t0.Add(time.Hour), End: end(2 * time.Hour)}, {Start: t0.Add(90 * time.Minute), End: end(3 * time.Hour)}}, clockOut, true},
		{"active not last", BreakLedger{{Start: t0.Add(time.Hour)}, {Start: t0.Add(2 * time.Hour), End: end(3 * time.Hour)}}, nil, true},
		{"active on closed shift", BreakLedger{{Start: t0.Add(time.Hour)}}, clockOut, true},
		{"active on open shift", BreakLedger{{Start: t0.Add(time.Hour)}}, nil, false},
		{"ends after clock-out", BreakLedger{{Start: t0.Add(7 * time.Hour), End: end(9 * time.Hour)}}, clockOut, true},
		{"end before start", BreakLedger{{Start: t0.Add(2 * time.Hour), End: end(time.Hour)}}, clockOut, true},
		{"closed shift ignores now", BreakLedger{{Start: t0.Add(7 * time.Hour), End: end(7*time.Hour + 30*time.Minute)}}, clockOut, false},
		{"open shift, active break in the future", BreakLedger{{Start: t0.Add(9 * time.Hour)}}, nil, true},
		{"open shift, ended break in the future", BreakLedger{{Start: t0.Add(5 * time.Hour), End: end(7 * time.Hour)}}, nil, true},
		{"open shift, break ending now", BreakLedger{{Start: t0.Add(5 * time.Hour), End: end(6 * time.Hour)}}, nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.ledger.Validate(t0, c.clockOut, now)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBreaks)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLedgerFromLegacy(t *testing.T) {
	assert.Empty(t, LedgerFromLegacy(nil, nil))

	start := t0.Add(time.Hour)
	end := start.Add(30 * time.Minute)
	l := LedgerFromLegacy(&start, &end)
	require.Len(t, l, 1)
	assert.Equal(t, 30, *l[0].DurationMinutes)

	open := LedgerFromLegacy(&start, nil)
	require.Len(t, open, 1)
	assert.True(t, open.OnBreak())
}
