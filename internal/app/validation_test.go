package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eventmesh-lab/events-service/internal/clock"
)

func TestRequestValidator(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	v := NewRequestValidator(clock.NewFixed(now))

	fields := func(vs []FieldViolation) map[string]string {
		out := make(map[string]string, len(vs))
		for _, fv := range vs {
			out[fv.Field] = fv.Message
		}
		return out
	}

	t.Run("valid create command", func(t *testing.T) {
		t.Parallel()
		require.Empty(t, v.Validate(validCreateCommand(now)))
	})

	t.Run("collects every violation", func(t *testing.T) {
		t.Parallel()
		cmd := CreateEventCommand{
			Name:          " ",
			Date:          now.AddDate(0, 0, -1),
			DurationHours: -1,
			Sections: []SectionInput{
				{Name: "", Capacity: 0, Price: decimal.RequireFromString("-1")},
			},
		}
		got := fields(v.Validate(cmd))
		require.Equal(t, "must not be blank", got["name"])
		require.Equal(t, "must be today or in the future", got["date"])
		require.Equal(t, "must be greater than or equal to 0", got["durationHours"])
		require.Equal(t, "must not be blank", got["sections[0].name"])
		require.Equal(t, "must be greater than 0", got["sections[0].capacity"])
		require.Equal(t, "must be greater than or equal to 0", got["sections[0].price"])
	})

	t.Run("missing and empty sections", func(t *testing.T) {
		t.Parallel()
		cmd := validCreateCommand(now)
		cmd.Sections = nil
		require.Equal(t, "is required", fields(v.Validate(cmd))["sections"])

		cmd.Sections = []SectionInput{}
		require.Equal(t, "must contain at least 1 item(s)", fields(v.Validate(cmd))["sections"])
	})

	t.Run("zero date is required", func(t *testing.T) {
		t.Parallel()
		cmd := validCreateCommand(now)
		cmd.Date = time.Time{}
		require.Equal(t, "is required", fields(v.Validate(cmd))["date"])
	})

	t.Run("earlier today is not in the past", func(t *testing.T) {
		t.Parallel()
		cmd := validCreateCommand(now)
		cmd.Date = time.Date(2026, 6, 1, 0, 30, 0, 0, time.UTC)
		require.Empty(t, v.Validate(cmd))
	})

	t.Run("name too long", func(t *testing.T) {
		t.Parallel()
		cmd := validCreateCommand(now)
		name := make([]byte, 201)
		for i := range name {
			name[i] = 'a'
		}
		cmd.Name = string(name)
		require.Equal(t, "must be at most 200 characters", fields(v.Validate(cmd))["name"])
	})

	t.Run("event id must be a uuid", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "is required", fields(v.Validate(PublishEventCommand{}))["eventId"])
		require.Equal(t, "must be a valid UUID", fields(v.Validate(PublishEventCommand{EventID: "abc"}))["eventId"])
		require.Empty(t, v.Validate(CancelEventCommand{EventID: "6f1c7f0e-8a3b-4d7e-9a44-2f0c1b9d5e11"}))
	})
}
