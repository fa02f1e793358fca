package timeentry

import (
	"testing"
	"time"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/shop"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter_Validate(t *testing.T) {
	f := ListFilter{From: "2024-03-04", To: "2024-03-11"}
	require.NoError(t, f.Validate())
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), f.Window().From)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), f.Window().To)

	f = ListFilter{From: "2024-03-04T08:00:00+02:00", To: "2024-03-04T18:00:00Z"}
	require.NoError(t, f.Validate())
	assert.Equal(t, time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC), f.Window().From)

	f = ListFilter{From: "2024-03-11", To: "2024-03-04"}
	var errs validator.ValidationErrors
	require.ErrorAs(t, f.Validate(), &errs)
	assert.Contains(t, errs.ToMap(), "to")

	f = ListFilter{From: "yesterday", To: ""}
	require.ErrorAs(t, f.Validate(), &errs)
	assert.Len(t, errs, 2)
}

func TestClockInRequest_Validate(t *testing.T) {
	ok := ClockInRequest{Coordinate: &shop.GeoCoordinate{Latitude: 40, Longitude: -75}}
	assert.NoError(t, ok.Validate())
	assert.NoError(t, (&ClockInRequest{}).Validate())

	bad := ClockInRequest{Coordinate: &shop.GeoCoordinate{Latitude: 95, Longitude: -190}}
	var errs validator.ValidationErrors
	require.ErrorAs(t, bad.Validate(), &errs)
	assert.Len(t, errs, 2)

	blank := "  "
	assert.Error(t, (&ClockInRequest{WorkOrderID: &blank}).Validate())
}

func TestUpdateTimeEntryRequest_Validate(t *testing.T) {
	notes := "replaced brake pads"
	assert.NoError(t, (&UpdateTimeEntryRequest{ID: "e1", Notes: &notes}).Validate())

	assert.Error(t, (&UpdateTimeEntryRequest{ID: "e1"}).Validate(), "no changes")
	assert.Error(t, (&UpdateTimeEntryRequest{Notes: &notes}).Validate(), "missing id")

	start := t0
	both := UpdateTimeEntryRequest{ID: "e1", Breaks: []BreakInput{{Start: t0}}, BreakStart: &start}
	assert.Error(t, both.Validate())

	wo := "wo-1"
	assert.Error(t, (&UpdateTimeEntryRequest{ID: "e1", WorkOrderID: &wo, ClearWorkOrder: true}).Validate())

	emptyList := UpdateTimeEntryRequest{ID: "e1", Breaks: []BreakInput{}}
	assert.NoError(t, emptyList.Validate(), "empty list clears breaks")
	assert.True(t, emptyList.ReplacesBreaks())
}

func TestUpdateTimeEntryRequest_LegacyBreakBecomesList(t *testing.T) {
	start := t0.Add(time.Hour)
	end := start.Add(20 * time.Minute)
	req := UpdateTimeEntryRequest{ID: "e1", BreakStart: &start, BreakEnd: &end}
	require.NoError(t, req.Validate())

	l := req.Ledger()
	require.Len(t, l, 1)
	assert.Equal(t, 20, *l[0].DurationMinutes)
}

func TestOutOfRangeError_Is(t *testing.T) {
	var err error = &OutOfRangeError{DistanceMeters: 42.5, RadiusMeters: 30.48}
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "42.5m")
}
