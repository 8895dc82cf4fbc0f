package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/pkg/geomaps"
)

func TestParseEventTimes(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		start   string
		end     string
		wantErr bool
	}{
		{name: "full times", date: "2026-06-10", start: "19:00", end: "22:30"},
		{name: "no end time", date: "2026-06-10", start: "19:00"},
		{name: "bad date format", date: "10.06.2026", start: "19:00", wantErr: true},
		{name: "bad start time", date: "2026-06-10", start: "7pm", wantErr: true},
		{name: "bad end time", date: "2026-06-10", start: "19:00", end: "late", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, start, end, err := parseEventTimes(tt.date, tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidInput)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.date, date.Format("2006-01-02"))
			assert.Equal(t, tt.start, start.Format("15:04"))
			if tt.end != "" {
				require.NotNil(t, end)
				assert.Equal(t, tt.end, end.Format("15:04"))
			} else {
				assert.Nil(t, end)
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	valid := func() *entity.Event {
		return testEvent(1, time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC))
	}

	tests := []struct {
		name    string
		mutate  func(*entity.Event)
		wantErr error
	}{
		{
			name:   "valid event",
			mutate: func(*entity.Event) {},
		},
		{
			name:    "negative price",
			mutate:  func(e *entity.Event) { e.PriceCents = -1 },
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "zero capacity",
			mutate:  func(e *entity.Event) { e.Capacity = 0 },
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "negative minimum age",
			mutate:  func(e *entity.Event) { e.MinAge = -1 },
			wantErr: entity.ErrInvalidInput,
		},
		{
			name:    "zero minimum age",
			mutate:  func(e *entity.Event) { e.MinAge = 0 },
			wantErr: entity.ErrInvalidInput,
		},
		{
			name: "end before start",
			mutate: func(e *entity.Event) {
				end, _ := time.Parse("15:04", "18:00")
				e.EndTime = &entity.ClockTime{Time: end}
			},
			wantErr: entity.ErrEventTimeOrder,
		},
		{
			name: "end equal to start",
			mutate: func(e *entity.Event) {
				end, _ := time.Parse("15:04", "19:00")
				e.EndTime = &entity.ClockTime{Time: end}
			},
			wantErr: entity.ErrEventTimeOrder,
		},
		{
			name:    "date in the past",
			mutate:  func(e *entity.Event) { e.Date = entity.DateOnly{Time: time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)} },
			wantErr: entity.ErrEventDatePast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := valid()
			tt.mutate(event)
			assert.ErrorIs(t, validateEvent(event, now), tt.wantErr)
		})
	}
}

// An event later today is still valid: only dates strictly before the
// current day are rejected.
func TestValidateEventToday(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	event := testEvent(1, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, validateEvent(event, now))
}

func TestEventDatePastMessage(t *testing.T) {
	assert.EqualError(t, entity.ErrEventDatePast, "event cannot start in the past")
}

type fakeSearchEventRepo struct {
	repository.EventRepository
	results []*entity.EventWithAttendance
}

func (f *fakeSearchEventRepo) Search(ctx context.Context, filter *repository.EventFilter) ([]*entity.EventWithAttendance, error) {
	return f.results, nil
}

type fakeDistancer struct {
	distances []int64
}

func (f *fakeDistancer) Distances(ctx context.Context, origin string, destinations []string) ([]int64, error) {
	return f.distances, nil
}

func nearbyFixture(distances []int64) EventService {
	events := []*entity.EventWithAttendance{
		{Event: entity.Event{ID: 1, Location: "Plaza Mayor, Madrid"}},
		{Event: entity.Event{ID: 2, Location: "Atlantis"}},
		{Event: entity.Event{ID: 3, Location: "Retiro, Madrid"}},
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewEventService(
		&fakeSearchEventRepo{results: events}, nil, nil, nil, nil, nil, nil,
		&fakeDistancer{distances: distances},
		logrus.New(), func() time.Time { return now },
	)
}

// A radius filters by reachable distance: destinations the maps API
// cannot route to never count as "inside" it.
func TestNearbyEventsRadiusDropsUnroutable(t *testing.T) {
	svc := nearbyFixture([]int64{4000, geomaps.Unreachable, 1500})

	events, err := svc.NearbyEvents(context.Background(), &NearbyEventsRequest{
		Origin:       "Sol, Madrid",
		RadiusMeters: 5000,
	})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, int64(3), events[0].ID)
	assert.Equal(t, int64(1), events[1].ID)
}

// Without a radius nothing is dropped; unroutable events sort after the
// ranked ones.
func TestNearbyEventsUnroutableSortLast(t *testing.T) {
	svc := nearbyFixture([]int64{4000, geomaps.Unreachable, 1500})

	events, err := svc.NearbyEvents(context.Background(), &NearbyEventsRequest{Origin: "Sol, Madrid"})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, int64(3), events[0].ID)
	assert.Equal(t, int64(1), events[1].ID)
	assert.Equal(t, int64(2), events[2].ID)
}
