package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
)

type ratingService struct {
	ratingRepo     repository.RatingRepository
	eventRepo      repository.EventRepository
	enrollmentRepo repository.EnrollmentRepository
	log            *logrus.Logger
	now            Clock
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	eventRepo repository.EventRepository,
	enrollmentRepo repository.EnrollmentRepository,
	log *logrus.Logger,
	now Clock,
) RatingService {
	if now == nil {
		now = time.Now
	}
	return &ratingService{
		ratingRepo:     ratingRepo,
		eventRepo:      eventRepo,
		enrollmentRepo: enrollmentRepo,
		log:            log,
		now:            now,
	}
}

// RateHost lets an accepted attendee score the host after the event.
func (s *ratingService) RateHost(ctx context.Context, reviewerID, eventID int64, req *RateRequest) (*entity.Rating, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event := &existing.Event

	attended := false
	if enrollment, err := s.enrollmentRepo.GetByEventAndUser(ctx, eventID, reviewerID); err == nil {
		attended = enrollment.IsAccepted()
	}

	var alreadyRated bool
	if event.HostID != nil {
		alreadyRated, err = s.ratingRepo.Exists(ctx, reviewerID, *event.HostID, eventID)
		if err != nil {
			return nil, err
		}
	}

	if err := CanRateHost(event, reviewerID, attended, alreadyRated, s.now()); err != nil {
		return nil, err
	}

	rating := &entity.Rating{
		ReviewerID: reviewerID,
		ReviewedID: *event.HostID,
		EventID:    eventID,
		Score:      req.Score,
		Comment:    req.Comment,
		Role:       entity.RoleHost,
	}
	if !rating.ValidScore() {
		return nil, entity.ErrInvalidScore
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"rating_id": rating.ID,
		"event_id":  eventID,
	}).Info("host rated")

	return rating, nil
}

// RateAttendee lets the host score an accepted attendee after the event.
func (s *ratingService) RateAttendee(ctx context.Context, reviewerID, eventID, attendeeID int64, req *RateRequest) (*entity.Rating, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event := &existing.Event

	accepted := false
	if enrollment, err := s.enrollmentRepo.GetByEventAndUser(ctx, eventID, attendeeID); err == nil {
		accepted = enrollment.IsAccepted()
	}

	alreadyRated, err := s.ratingRepo.Exists(ctx, reviewerID, attendeeID, eventID)
	if err != nil {
		return nil, err
	}

	if err := CanRateAttendee(event, reviewerID, attendeeID, accepted, alreadyRated, s.now()); err != nil {
		return nil, err
	}

	rating := &entity.Rating{
		ReviewerID: reviewerID,
		ReviewedID: attendeeID,
		EventID:    eventID,
		Score:      req.Score,
		Comment:    req.Comment,
		Role:       entity.RoleAttendee,
	}
	if !rating.ValidScore() {
		return nil, entity.ErrInvalidScore
	}

	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		return nil, err
	}

	return rating, nil
}

func (s *ratingService) GetUserRatings(ctx context.Context, userID int64, role entity.RatingRole) ([]*entity.Rating, *entity.RatingSummary, error) {
	ratings, err := s.ratingRepo.GetByReviewed(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	if role != "" {
		filtered := ratings[:0]
		for _, rating := range ratings {
			if rating.Role == role {
				filtered = append(filtered, rating)
			}
		}
		ratings = filtered
	}

	summary, err := s.ratingRepo.GetSummary(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return ratings, summary, nil
}
