package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/entity"
)

type messageService struct {
	messageRepo    repository.MessageRepository
	eventRepo      repository.EventRepository
	enrollmentRepo repository.EnrollmentRepository
	queue          TaskPublisher
	log            *logrus.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	eventRepo repository.EventRepository,
	enrollmentRepo repository.EnrollmentRepository,
	queue TaskPublisher,
	log *logrus.Logger,
) MessageService {
	return &messageService{
		messageRepo:    messageRepo,
		eventRepo:      eventRepo,
		enrollmentRepo: enrollmentRepo,
		queue:          queue,
		log:            log,
	}
}

// SendMessage broadcasts a note from the host to the event's attendees.
func (s *messageService) SendMessage(ctx context.Context, hostID, eventID int64, req *SendMessageRequest) (*entity.Message, error) {
	existing, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !existing.IsHostedBy(hostID) {
		return nil, entity.ErrForbidden
	}

	message := &entity.Message{
		EventID: eventID,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollmentRepo.GetByEventAndStatus(ctx, eventID, entity.EnrollmentAccepted)
	if err != nil {
		s.log.WithError(err).WithField("event_id", eventID).
			Error("failed to list attendees for message delivery")
		return message, nil
	}

	for _, enrollment := range enrollments {
		task := &Task{
			ID:   uuid.NewString(),
			Type: "message_email",
			Data: map[string]interface{}{
				"user_id":  enrollment.UserID,
				"event_id": eventID,
				"subject":  message.Subject,
				"body":     message.Body,
			},
		}
		if err := s.queue.Publish(ctx, task); err != nil {
			s.log.WithError(err).Warn("failed to queue message email")
		}
	}

	return message, nil
}

// GetLatestMessages returns the newest message per enrolled event.
func (s *messageService) GetLatestMessages(ctx context.Context, userID int64) ([]*entity.Message, error) {
	return s.messageRepo.GetLatestForUser(ctx, userID)
}
