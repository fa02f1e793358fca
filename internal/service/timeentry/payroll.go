package timeentry

import (
	"math"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/domain/timeentry"
)

const (
	DefaultOvertimeThresholdHours = 40.0
	DefaultOvertimeMultiplier     = 1.5
)

// PayrollSplitter applies a weekly overtime rule. Threshold and multiplier
// vary by jurisdiction and shop policy.
type PayrollSplitter struct {
	ThresholdHours     float64
	OvertimeMultiplier float64
}

func NewPayrollSplitter() PayrollSplitter {
	return PayrollSplitter{
		ThresholdHours:     DefaultOvertimeThresholdHours,
		OvertimeMultiplier: DefaultOvertimeMultiplier,
	}
}

// WithPolicy returns a copy with the shop's overrides applied. A threshold
// must be positive and a multiplier at least 1; other values are ignored.
func (p PayrollSplitter) WithPolicy(policy shop.PayrollPolicy) PayrollSplitter {
	if policy.OvertimeThresholdHours != nil && *policy.OvertimeThresholdHours > 0 {
		p.ThresholdHours = *policy.OvertimeThresholdHours
	}
	if policy.OvertimeMultiplier != nil && *policy.OvertimeMultiplier >= 1 {
		p.OvertimeMultiplier = *policy.OvertimeMultiplier
	}
	return p
}

// Split sums net hours of entries and divides them into regular and overtime
// pay. Open entries count up to asOf. The inputs are not modified, so
// repeated calls with the same arguments give identical results.
func (p PayrollSplitter) Split(technicianID string, entries []timeentry.TimeEntry, hourlyRate float64, period timeentry.Window, asOf time.Time) timeentry.PayrollPeriodSplit {
	var total float64
	for i := range entries {
		total += entries[i].HoursAt(asOf)
	}

	regular := math.Min(total, p.ThresholdHours)
	overtime := math.Max(0, total-p.ThresholdHours)
	regularPay := regular * hourlyRate
	overtimePay := overtime * hourlyRate * p.OvertimeMultiplier

	return timeentry.PayrollPeriodSplit{
		TechnicianID:  technicianID,
		PeriodStart:   period.From,
		PeriodEnd:     period.To,
		RegularHours:  regular,
		OvertimeHours: overtime,
		HourlyRate:    hourlyRate,
		RegularPay:    regularPay,
		OvertimePay:   overtimePay,
		TotalPay:      regularPay + overtimePay,
	}
}
