package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
	"github.com/eventshow/eventshow/pkg/geomaps"
	"github.com/eventshow/eventshow/pkg/payment"
)

type eventService struct {
	eventRepo       repository.EventRepository
	userRepo        repository.UserRepository
	enrollmentRepo  repository.EnrollmentRepository
	transactionRepo repository.TransactionRepository
	categoryRepo    repository.CategoryRepository
	queue           TaskPublisher
	provider        payment.Provider
	distancer       geomaps.Distancer
	log             *logrus.Logger
	now             Clock
}

func NewEventService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	enrollmentRepo repository.EnrollmentRepository,
	transactionRepo repository.TransactionRepository,
	categoryRepo repository.CategoryRepository,
	queue TaskPublisher,
	provider payment.Provider,
	distancer geomaps.Distancer,
	log *logrus.Logger,
	now Clock,
) EventService {
	if now == nil {
		now = time.Now
	}
	return &eventService{
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		enrollmentRepo:  enrollmentRepo,
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		queue:           queue,
		provider:        provider,
		distancer:       distancer,
		log:             log,
		now:             now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, hostID int64, req *CreateEventRequest) (*entity.Event, error) {
	user, err := s.userRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, err
	}
	profile, err := s.userRepo.GetProfile(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if !profile.IsComplete(user.FirstName, user.LastName) {
		return nil, fmt.Errorf("%w: complete your profile before hosting events", entity.ErrForbidden)
	}

	if _, err := s.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	date, start, end, err := parseEventTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	minAge := req.MinAge
	if minAge == 0 {
		minAge = 1
	}

	event := &entity.Event{
		HostID:      &hostID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Location:    req.Location,
		Picture:     req.Picture,
		Language:    req.Language,
		Pets:        req.Pets,
		ParkingNear: req.ParkingNear,
		ExtraInfo:   req.ExtraInfo,
		PriceCents:  req.PriceCents,
		Capacity:    req.Capacity,
		MinAge:      minAge,
	}

	if err := validateEvent(event, s.now()); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"host_id":  hostID,
	}).Info("event created")

	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id int64) (*entity.EventWithAttendance, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *eventService) UpdateEvent(ctx context.Context, hostID, id int64, req *UpdateEventRequest) (*entity.Event, error) {
	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event := &existing.Event

	if !event.IsHostedBy(hostID) {
		return nil, entity.ErrForbidden
	}
	now := s.now()
	if event.HasStarted(now) || !event.CanModify(now) {
		return nil, entity.ErrEventLocked
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		event.CategoryID = *req.CategoryID
	}
	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.Picture != nil {
		event.Picture = *req.Picture
	}
	if req.Language != nil {
		event.Language = *req.Language
	}
	if req.Pets != nil {
		event.Pets = *req.Pets
	}
	if req.ParkingNear != nil {
		event.ParkingNear = *req.ParkingNear
	}
	if req.ExtraInfo != nil {
		event.ExtraInfo = *req.ExtraInfo
	}
	if req.PriceCents != nil {
		event.PriceCents = *req.PriceCents
	}
	if req.Capacity != nil {
		event.Capacity = *req.Capacity
	}
	if req.MinAge != nil {
		event.MinAge = *req.MinAge
	}

	dateStr := event.Date.Format("2006-01-02")
	if req.Date != nil {
		dateStr = *req.Date
	}
	startStr := event.StartTime.Format("15:04")
	if req.StartTime != nil {
		startStr = *req.StartTime
	}
	endStr := ""
	if event.EndTime != nil {
		endStr = event.EndTime.Format("15:04")
	}
	if req.EndTime != nil {
		endStr = *req.EndTime
	}

	date, start, end, err := parseEventTimes(dateStr, startStr, endStr)
	if err != nil {
		return nil, err
	}
	event.Date = date
	event.StartTime = start
	event.EndTime = end

	if err := validateEvent(event, now); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// DeleteEvent removes a hosted event. Inside the modification cutoff the
// host pays a penalty of one platform fee per accepted attendee before the
// event goes away; attendees always get their money and points back.
func (s *eventService) DeleteEvent(ctx context.Context, hostID, id int64) error {
	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	event := &existing.Event

	if !event.IsHostedBy(hostID) {
		return entity.ErrForbidden
	}
	now := s.now()
	if event.HasStarted(now) {
		return entity.ErrEventLocked
	}

	if !event.CanModify(now) {
		accepted, err := s.enrollmentRepo.CountAttendees(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count attendees: %w", err)
		}
		if accepted > 0 {
			penalty := Fee(event.PriceCents) * int64(accepted)
			profile, err := s.userRepo.GetProfile(ctx, hostID)
			if err != nil {
				return err
			}
			desc := fmt.Sprintf("late cancellation penalty for event %d", id)
			if _, err := s.provider.Charge(ctx, profile.PaymentCustomerID, penalty, desc); err != nil {
				return fmt.Errorf("%w: penalty charge failed", entity.ErrPaymentFailed)
			}
		}
	}

	s.reverseEventTransactions(ctx, event)
	s.notifyAttendees(ctx, event)

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"event_id": id,
		"host_id":  hostID,
	}).Info("event deleted")

	return nil
}

func (s *eventService) SearchEvents(ctx context.Context, req *SearchEventsRequest) ([]*entity.EventWithAttendance, error) {
	filter := &repository.EventFilter{
		Keyword:       req.Keyword,
		CategoryID:    req.Category,
		Location:      req.City,
		StartHour:     req.StartHour,
		MinPriceCents: req.MinPrice,
		MaxPriceCents: req.MaxPrice,
		OnlyUpcoming:  req.Upcoming,
		Now:           s.now(),
		Limit:         req.Limit,
		Offset:        req.Offset,
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", entity.ErrInvalidInput)
		}
		filter.DateFrom = date
		filter.DateTo = date
	}

	return s.eventRepo.Search(ctx, filter)
}

// NearbyEvents ranks upcoming events by travel distance from the caller's
// position. When a radius is given only reachable events inside it are
// returned; without one, unroutable events sort last instead.
func (s *eventService) NearbyEvents(ctx context.Context, req *NearbyEventsRequest) ([]*entity.EventWithAttendance, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}

	events, err := s.eventRepo.Search(ctx, &repository.EventFilter{
		OnlyUpcoming: true,
		Now:          s.now(),
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return events, nil
	}

	destinations := make([]string, len(events))
	for i, event := range events {
		destinations[i] = event.Location
	}

	distances, err := s.distancer.Distances(ctx, req.Origin, destinations)
	if err != nil {
		s.log.WithError(err).Warn("distance ranking unavailable, returning unranked events")
		return events, nil
	}

	type ranked struct {
		event    *entity.EventWithAttendance
		distance int64
	}
	var result []ranked
	for i, event := range events {
		if req.RadiusMeters > 0 && (distances[i] == geomaps.Unreachable || distances[i] > req.RadiusMeters) {
			continue
		}
		result = append(result, ranked{event: event, distance: distances[i]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].distance < result[j].distance
	})

	sorted := make([]*entity.EventWithAttendance, len(result))
	for i, r := range result {
		sorted[i] = r.event
	}
	return sorted, nil
}

func (s *eventService) GetHostedEvents(ctx context.Context, hostID int64) ([]*entity.EventWithAttendance, error) {
	return s.eventRepo.GetByHost(ctx, hostID)
}

func (s *eventService) GetEnrolledEvents(ctx context.Context, userID int64) ([]*entity.EventWithAttendance, error) {
	return s.eventRepo.GetEnrolledByUser(ctx, userID)
}

func (s *eventService) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	return s.categoryRepo.GetAll(ctx)
}

func (s *eventService) reverseEventTransactions(ctx context.Context, event *entity.Event) {
	transactions, err := s.transactionRepo.GetUnsettledByEvent(ctx, event.ID)
	if err != nil {
		s.log.WithError(err).WithField("event_id", event.ID).
			Error("failed to list transactions for reversal")
		return
	}

	for _, t := range transactions {
		if err := s.transactionRepo.ReverseAndCredit(ctx, t.ID); err != nil {
			if err != entity.ErrAlreadyReversed {
				s.log.WithError(err).WithField("transaction_id", t.ID).
					Error("failed to reverse transaction")
			}
			continue
		}

		if t.ChargeID != "" {
			if err := s.provider.Refund(ctx, t.ChargeID); err != nil {
				s.log.WithError(err).WithField("charge_id", t.ChargeID).
					Error("failed to refund charge")
			}
		}
	}
}

func (s *eventService) notifyAttendees(ctx context.Context, event *entity.Event) {
	enrollments, err := s.enrollmentRepo.GetByEvent(ctx, event.ID)
	if err != nil {
		s.log.WithError(err).WithField("event_id", event.ID).
			Error("failed to list attendees for notification")
		return
	}

	for _, enrollment := range enrollments {
		task := &Task{
			ID:   uuid.NewString(),
			Type: "cancellation_email",
			Data: map[string]interface{}{
				"user_id":     enrollment.UserID,
				"event_id":    event.ID,
				"event_title": event.Title,
			},
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			s.log.WithError(err).Warn("failed to queue cancellation email")
		}
	}
}

func parseEventTimes(dateStr, startStr, endStr string) (entity.DateOnly, entity.ClockTime, *entity.ClockTime, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return entity.DateOnly{}, entity.ClockTime{}, nil,
			fmt.Errorf("%w: date must be YYYY-MM-DD", entity.ErrInvalidInput)
	}

	start, err := time.Parse("15:04", startStr)
	if err != nil {
		return entity.DateOnly{}, entity.ClockTime{}, nil,
			fmt.Errorf("%w: start_time must be HH:MM", entity.ErrInvalidInput)
	}

	var end *entity.ClockTime
	if endStr != "" {
		t, err := time.Parse("15:04", endStr)
		if err != nil {
			return entity.DateOnly{}, entity.ClockTime{}, nil,
				fmt.Errorf("%w: end_time must be HH:MM", entity.ErrInvalidInput)
		}
		end = &entity.ClockTime{Time: t}
	}

	return entity.DateOnly{Time: date}, entity.ClockTime{Time: start}, end, nil
}

func validateEvent(event *entity.Event, now time.Time) error {
	if event.PriceCents < 0 {
		return fmt.Errorf("%w: price cannot be negative", entity.ErrInvalidInput)
	}
	if event.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", entity.ErrInvalidInput)
	}
	if event.MinAge < 1 {
		return fmt.Errorf("%w: minimum age must be at least 1", entity.ErrInvalidInput)
	}

	if end, ok := event.EndAt(); ok {
		if !end.After(event.StartAt()) {
			return entity.ErrEventTimeOrder
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if event.Date.Time.Before(today) {
		return entity.ErrEventDatePast
	}

	return nil
}
