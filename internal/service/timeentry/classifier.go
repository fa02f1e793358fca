package timeentry

import (
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
)

// Classify splits one entry's net hours at now. A work-order link makes all
// of them billable; there is no proration across partial linkage.
func Classify(entry timeentry.TimeEntry, now time.Time) (billable float64, nonBillable float64) {
	hours := entry.HoursAt(now)
	if entry.Billable() {
		return hours, 0
	}
	return 0, hours
}

// Aggregate sums billable and non-billable hours of a technician's entries
// whose clock-in falls inside window.
func Aggregate(technicianID string, entries []timeentry.TimeEntry, window timeentry.Window, now time.Time) timeentry.HoursSummary {
	summary := timeentry.HoursSummary{
		TechnicianID: technicianID,
		From:         window.From,
		To:           window.To,
	}
	for _, e := range entries {
		if e.TechnicianID != technicianID || !window.Contains(e.ClockIn) {
			continue
		}
		b, nb := Classify(e, now)
		summary.BillableHours += b
		summary.NonBillableHours += nb
		summary.EntryCount++
	}
	summary.TotalHours = summary.BillableHours + summary.NonBillableHours
	return summary
}
