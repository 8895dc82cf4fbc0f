package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func makeEvent(date time.Time, start string, end string) *Event {
	e := &Event{Date: DateOnly{Time: date}}
	st, _ := time.Parse("15:04", start)
	e.StartTime = ClockTime{Time: st}
	if end != "" {
		et, _ := time.Parse("15:04", end)
		e.EndTime = &ClockTime{Time: et}
	}
	return e
}

func TestEventHasStarted(t *testing.T) {
	event := makeEvent(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), "19:00", "")

	assert.False(t, event.HasStarted(time.Date(2026, 6, 10, 18, 59, 0, 0, time.UTC)))
	assert.True(t, event.HasStarted(time.Date(2026, 6, 10, 19, 0, 0, 0, time.UTC)))
	assert.True(t, event.HasStarted(time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC)))
}

func TestEventHasFinished(t *testing.T) {
	tests := []struct {
		name string
		end  string
		now  time.Time
		want bool
	}{
		{
			name: "before end time",
			end:  "22:00",
			now:  time.Date(2026, 6, 10, 21, 30, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "after end time",
			end:  "22:00",
			now:  time.Date(2026, 6, 10, 22, 1, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "no end time, same day",
			end:  "",
			now:  time.Date(2026, 6, 10, 23, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "no end time, next day",
			end:  "",
			now:  time.Date(2026, 6, 11, 0, 0, 1, 0, time.UTC),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := makeEvent(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), "19:00", tt.end)
			assert.Equal(t, tt.want, event.HasFinished(tt.now))
		})
	}
}

func TestEventCanModify(t *testing.T) {
	event := makeEvent(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), "19:00", "")

	// more than four days out
	assert.True(t, event.CanModify(time.Date(2026, 6, 5, 12, 0, 0, 0, time.UTC)))
	// exactly four days out the window has closed
	assert.False(t, event.CanModify(time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)))
	assert.False(t, event.CanModify(time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC)))
}

func TestEventIsHostedBy(t *testing.T) {
	hostID := int64(7)
	event := &Event{HostID: &hostID}

	assert.True(t, event.IsHostedBy(7))
	assert.False(t, event.IsHostedBy(8))

	event.HostID = nil
	assert.False(t, event.IsHostedBy(7))
}

func TestProfileAge(t *testing.T) {
	profile := &Profile{Birthdate: DateOnly{Time: time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)}}

	assert.Equal(t, 25, profile.Age(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, profile.Age(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, profile.Age(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateOnlyJSON(t *testing.T) {
	var d DateOnly
	err := d.UnmarshalJSON([]byte(`"2026-06-10"`))
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.June, d.Month())

	out, err := d.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"2026-06-10"`, string(out))

	err = d.UnmarshalJSON([]byte(`"10.06.2026"`))
	assert.Error(t, err)
}

func TestClockTimeScan(t *testing.T) {
	var c ClockTime
	assert.NoError(t, c.Scan("19:30:00"))
	assert.Equal(t, 19, c.Hour())
	assert.Equal(t, 30, c.Minute())

	assert.NoError(t, c.Scan([]byte("08:15")))
	assert.Equal(t, 8, c.Hour())

	assert.Error(t, c.Scan(42))
}
