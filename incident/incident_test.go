package incident_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/rule-engine/incident"
	"github.com/fleetops/rule-engine/trip"
)

func valid() incident.Report {
	return incident.Report{
		TripID:      "trip-1",
		TripStatus:  trip.StatusOngoing,
		Kind:        incident.KindBreakdown,
		Description: "engine overheated on the highway",
	}
}

func TestValidate_Passes(t *testing.T) {
	assert.NoError(t, incident.Validate(valid()))

	// Location stays optional.
	withLocation := valid()
	withLocation.Location = "Km 42, Highway 1"
	assert.NoError(t, incident.Validate(withLocation))
}

func TestValidate_TerminalTripsRejected(t *testing.T) {
	for _, status := range []trip.Status{trip.StatusCompleted, trip.StatusCancelled} {
		r := valid()
		r.TripStatus = status

		err := incident.Validate(r)
		var notReportable *incident.ErrTripNotReportable
		require.ErrorAs(t, err, &notReportable, "status %s", status)
		assert.Equal(t, "trip-1", notReportable.TripID)
		assert.Equal(t, status, notReportable.Status)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	r := valid()
	r.Kind = "WEATHER"

	var unknown *incident.ErrUnknownKind
	require.ErrorAs(t, incident.Validate(r), &unknown)
	assert.Equal(t, incident.Kind("WEATHER"), unknown.Kind)
}

func TestValidate_DescriptionTooShort(t *testing.T) {
	r := valid()
	r.Description = "  flat tire  " // 9 runes after trimming

	var short *incident.ErrDescriptionTooShort
	require.ErrorAs(t, incident.Validate(r), &short)
	assert.Equal(t, 9, short.Length)
}

func TestValidate_CheckOrder(t *testing.T) {
	// A report failing everything surfaces the trip gate first.
	r := incident.Report{
		TripID:      "trip-1",
		TripStatus:  trip.StatusCompleted,
		Kind:        "NOPE",
		Description: "short",
	}

	var notReportable *incident.ErrTripNotReportable
	assert.ErrorAs(t, incident.Validate(r), &notReportable)
}

func TestViolations_CollectsAll(t *testing.T) {
	r := incident.Report{
		TripID:      "trip-1",
		TripStatus:  trip.StatusCancelled,
		Kind:        "NOPE",
		Description: "short",
	}

	violations := incident.Violations(r)
	require.Len(t, violations, 3)

	var gate *incident.ErrTripNotReportable
	assert.ErrorAs(t, violations[0], &gate)
	var unknown *incident.ErrUnknownKind
	assert.ErrorAs(t, violations[1], &unknown)
	var short *incident.ErrDescriptionTooShort
	assert.ErrorAs(t, violations[2], &short)
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"BREAKDOWN", "ACCIDENT", "TRAFFIC", "CUSTOMER", "OTHER"} {
		k, err := incident.ParseKind(s)
		require.NoError(t, err)
		assert.Equal(t, incident.Kind(s), k)
	}

	_, err := incident.ParseKind(strings.ToLower("BREAKDOWN"))
	assert.Error(t, err, "kinds are case sensitive")
}
