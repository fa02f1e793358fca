package timeentry

import (
	"testing"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
	"github.com/stretchr/testify/assert"
)

func weekOf(hours ...float64) []timeentry.TimeEntry {
	entries := make([]timeentry.TimeEntry, 0, len(hours))
	for i, h := range hours {
		clockIn := monday.Add(time.Duration(i) * 24 * time.Hour)
		entries = append(entries, closedEntry("e", "tech-1", clockIn, time.Duration(h*float64(time.Hour))))
	}
	return entries
}

func TestPayrollSplitter_Overtime(t *testing.T) {
	week := timeentry.Window{From: monday, To: monday.Add(7 * 24 * time.Hour)}
	entries := weekOf(9, 9, 9, 9, 9)

	split := NewPayrollSplitter().Split("tech-1", entries, 20, week, week.To)

	assert.InDelta(t, 40.0, split.RegularHours, 1e-9)
	assert.InDelta(t, 5.0, split.OvertimeHours, 1e-9)
	assert.InDelta(t, 800.0, split.RegularPay, 1e-9)
	assert.InDelta(t, 150.0, split.OvertimePay, 1e-9)
	assert.InDelta(t, 950.0, split.TotalPay, 1e-9)
	assert.Equal(t, week.From, split.PeriodStart)
	assert.Equal(t, week.To, split.PeriodEnd)
}

func TestPayrollSplitter_UnderThreshold(t *testing.T) {
	week := timeentry.Window{From: monday, To: monday.Add(7 * 24 * time.Hour)}

	split := NewPayrollSplitter().Split("tech-1", weekOf(8, 8), 25, week, week.To)

	assert.InDelta(t, 16.0, split.RegularHours, 1e-9)
	assert.Equal(t, 0.0, split.OvertimeHours)
	assert.Equal(t, 0.0, split.OvertimePay)
	assert.InDelta(t, 400.0, split.TotalPay, 1e-9)
}

func TestPayrollSplitter_Idempotent(t *testing.T) {
	week := timeentry.Window{From: monday, To: monday.Add(7 * 24 * time.Hour)}
	entries := weekOf(10, 11.25, 9.5, 12, 7.75)
	open := timeentry.TimeEntry{TechnicianID: "tech-1", ClockIn: monday.Add(5 * 24 * time.Hour)}
	entries = append(entries, open)
	asOf := monday.Add(5*24*time.Hour + 3*time.Hour)

	splitter := NewPayrollSplitter()
	first := splitter.Split("tech-1", entries, 22.5, week, asOf)
	second := splitter.Split("tech-1", entries, 22.5, week, asOf)

	assert.Equal(t, first, second)
	assert.Nil(t, open.ClockOut)
}

func TestPayrollSplitter_WithPolicy(t *testing.T) {
	threshold := 35.0
	policy := shop.PayrollPolicy{OvertimeThresholdHours: &threshold}

	splitter := NewPayrollSplitter().WithPolicy(policy)

	assert.Equal(t, 35.0, splitter.ThresholdHours)
	assert.Equal(t, DefaultOvertimeMultiplier, splitter.OvertimeMultiplier)
}

func TestPayrollSplitter_WithPolicyIgnoresInvalidOverrides(t *testing.T) {
	negative := -5.0
	zero := 0.0
	discount := 0.5

	cases := []shop.PayrollPolicy{
		{OvertimeThresholdHours: &negative, OvertimeMultiplier: &discount},
		{OvertimeThresholdHours: &zero, OvertimeMultiplier: &negative},
	}
	for _, policy := range cases {
		splitter := NewPayrollSplitter().WithPolicy(policy)
		assert.Equal(t, DefaultOvertimeThresholdHours, splitter.ThresholdHours)
		assert.Equal(t, DefaultOvertimeMultiplier, splitter.OvertimeMultiplier)

		split := splitter.Split("tech-1", nil, 20, timeentry.Window{}, monday)
		assert.GreaterOrEqual(t, split.RegularPay, 0.0)
	}
}
