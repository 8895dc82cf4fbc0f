package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventWithAttendanceColumns = `
	e.id, e.host_id, e.category_id, e.title, e.description, e.date, e.start_time, e.end_time,
	e.location, e.picture, e.language, e.pets, e.parking_nearby, e.extra_info,
	e.price_cents, e.capacity, e.min_age, e.created_at, e.updated_at,
	COALESCE(SUM(CASE WHEN en.status = 'ACCEPTED' THEN 1 ELSE 0 END), 0) as attendee_count`

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (host_id, category_id, title, description, date, start_time, end_time,
			location, picture, language, pets, parking_nearby, extra_info,
			price_cents, capacity, min_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`

	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		event.HostID,
		event.CategoryID,
		event.Title,
		event.Description,
		event.Date,
		event.StartTime,
		event.EndTime,
		event.Location,
		event.Picture,
		event.Language,
		event.Pets,
		event.ParkingNear,
		event.ExtraInfo,
		event.PriceCents,
		event.Capacity,
		event.MinAge,
		now,
		now,
	).Scan(&event.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entity.EventWithAttendance, error) {
	query := `
		SELECT ` + eventWithAttendanceColumns + `
		FROM events e
		LEFT JOIN enrollments en ON e.id = en.event_id
		WHERE e.id = $1
		GROUP BY e.id
	`

	var event entity.EventWithAttendance
	err := r.scanEventWithAttendance(r.db.QueryRowContext(ctx, query, id), &event)
	if err == sql.ErrNoRows {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %v", err)
	}

	return &event, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *eventRepository) scanEventWithAttendance(row rowScanner, event *entity.EventWithAttendance) error {
	err := row.Scan(
		&event.ID,
		&event.HostID,
		&event.CategoryID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.Picture,
		&event.Language,
		&event.Pets,
		&event.ParkingNear,
		&event.ExtraInfo,
		&event.PriceCents,
		&event.Capacity,
		&event.MinAge,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.AttendeeCount,
	)
	if err != nil {
		return err
	}
	event.FreeSeats = event.Capacity - event.AttendeeCount
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Search builds one query from the optional filter criteria instead of
// keeping a method per filter combination.
func (r *eventRepository) Search(ctx context.Context, filter *EventFilter) ([]*entity.EventWithAttendance, error) {
	var (
		conditions []string
		args       []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Keyword != "" {
		p := arg("%" + filter.Keyword + "%")
		conditions = append(conditions, "(e.title ILIKE "+p+" OR e.description ILIKE "+p+")")
	}
	if filter.CategoryID != 0 {
		conditions = append(conditions, "e.category_id = "+arg(filter.CategoryID))
	}
	if filter.Location != "" {
		conditions = append(conditions, "e.location ILIKE "+arg("%"+filter.Location+"%"))
	}
	if !filter.DateFrom.IsZero() {
		conditions = append(conditions, "e.date >= "+arg(filter.DateFrom))
	}
	if !filter.DateTo.IsZero() {
		conditions = append(conditions, "e.date <= "+arg(filter.DateTo))
	}
	if filter.StartHour > 0 {
		conditions = append(conditions, "EXTRACT(HOUR FROM e.start_time) >= "+arg(filter.StartHour))
	}
	if filter.MinPriceCents > 0 {
		conditions = append(conditions, "e.price_cents >= "+arg(filter.MinPriceCents))
	}
	if filter.MaxPriceCents > 0 {
		conditions = append(conditions, "e.price_cents <= "+arg(filter.MaxPriceCents))
	}
	if filter.OnlyUpcoming {
		now := filter.Now
		if now.IsZero() {
			now = time.Now()
		}
		// The column is a DATE, so compare against the day, not the
		// instant: today's events are upcoming until the day ends.
		conditions = append(conditions, "e.date >= "+arg(startOfDay(now)))
	}

	query := `
		SELECT ` + eventWithAttendanceColumns + `
		FROM events e
		LEFT JOIN enrollments en ON e.id = en.event_id
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY e.id ORDER BY e.date ASC, e.start_time ASC"

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer rows.Close()

	return r.collectEvents(rows)
}

func (r *eventRepository) collectEvents(rows *sql.Rows) ([]*entity.EventWithAttendance, error) {
	var events []*entity.EventWithAttendance
	for rows.Next() {
		var event entity.EventWithAttendance
		if err := r.scanEventWithAttendance(rows, &event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (r *eventRepository) GetByHost(ctx context.Context, hostID int64) ([]*entity.EventWithAttendance, error) {
	query := `
		SELECT ` + eventWithAttendanceColumns + `
		FROM events e
		LEFT JOIN enrollments en ON e.id = en.event_id
		WHERE e.host_id = $1
		GROUP BY e.id
		ORDER BY e.date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, hostID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosted events: %w", err)
	}
	defer rows.Close()

	return r.collectEvents(rows)
}

func (r *eventRepository) GetEnrolledByUser(ctx context.Context, userID int64) ([]*entity.EventWithAttendance, error) {
	query := `
		SELECT ` + eventWithAttendanceColumns + `
		FROM events e
		LEFT JOIN enrollments en ON e.id = en.event_id
		WHERE e.id IN (SELECT event_id FROM enrollments WHERE user_id = $1 AND status <> 'REJECTED')
		GROUP BY e.id
		ORDER BY e.date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrolled events: %w", err)
	}
	defer rows.Close()

	return r.collectEvents(rows)
}

func (r *eventRepository) Update(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET category_id = $1, title = $2, description = $3, date = $4, start_time = $5,
			end_time = $6, location = $7, picture = $8, language = $9, pets = $10,
			parking_nearby = $11, extra_info = $12, price_cents = $13, capacity = $14,
			min_age = $15, updated_at = $16
		WHERE id = $17
	`

	result, err := r.db.ExecContext(ctx, query,
		event.CategoryID,
		event.Title,
		event.Description,
		event.Date,
		event.StartTime,
		event.EndTime,
		event.Location,
		event.Picture,
		event.Language,
		event.Pets,
		event.ParkingNear,
		event.ExtraInfo,
		event.PriceCents,
		event.Capacity,
		event.MinAge,
		time.Now(),
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEventNotFound
	}

	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrEventNotFound
	}

	return nil
}

func (r *eventRepository) DeleteByHostAfter(ctx context.Context, hostID int64, after time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE host_id = $1 AND date > $2`, hostID, after)
	if err != nil {
		return 0, fmt.Errorf("failed to delete hosted events: %w", err)
	}
	return result.RowsAffected()
}

func (r *eventRepository) DetachHost(ctx context.Context, hostID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET host_id = NULL, location = '', updated_at = $1 WHERE host_id = $2`,
		time.Now(), hostID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach host: %w", err)
	}
	return result.RowsAffected()
}

func (r *eventRepository) GetFinishedUnsettled(ctx context.Context, before time.Time, limit int) ([]*entity.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT DISTINCT e.id, e.host_id, e.category_id, e.title, e.description, e.date,
			e.start_time, e.end_time, e.location, e.picture, e.language, e.pets,
			e.parking_nearby, e.extra_info, e.price_cents, e.capacity,
			e.min_age, e.created_at, e.updated_at
		FROM events e
		JOIN transactions t ON t.event_id = e.id
		WHERE e.date < $1 AND t.is_paid_for = FALSE AND t.reversed = FALSE
		ORDER BY e.date ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsettled events: %w", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		var event entity.Event
		err := rows.Scan(
			&event.ID,
			&event.HostID,
			&event.CategoryID,
			&event.Title,
			&event.Description,
			&event.Date,
			&event.StartTime,
			&event.EndTime,
			&event.Location,
			&event.Picture,
			&event.Language,
			&event.Pets,
			&event.ParkingNear,
			&event.ExtraInfo,
			&event.PriceCents,
			&event.Capacity,
			&event.MinAge,
			&event.CreatedAt,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
