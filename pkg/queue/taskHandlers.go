package queue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/pkg/mailer"
)

// TaskHandler turns queued notification tasks into outgoing emails.
type TaskHandler struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
}

func NewTaskHandler(userRepo repository.UserRepository, m mailer.Mailer) *TaskHandler {
	return &TaskHandler{
		userRepo: userRepo,
		mailer:   m,
	}
}

// HandleTask dispatches a task to the handler for its type.
func (h *TaskHandler) HandleTask(task *Task) error {
	logrus.Infof("Processing task %s of type %s (attempt %d/%d)",
		task.ID, task.Type, task.Attempts, task.MaxRetries)

	switch task.Type {
	case TaskTypeWelcomeEmail:
		return h.handleWelcomeEmail(task)
	case TaskTypeEnrollmentEmail:
		return h.handleEnrollmentEmail(task)
	case TaskTypeStatusEmail:
		return h.handleStatusEmail(task)
	case TaskTypeCancellationEmail:
		return h.handleCancellationEmail(task)
	case TaskTypeEventDeletedEmail:
		return h.handleEventDeletedEmail(task)
	case TaskTypeMessageEmail:
		return h.handleMessageEmail(task)
	case TaskTypeSettlementEmail:
		return h.handleSettlementEmail(task)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

func (h *TaskHandler) handleWelcomeEmail(task *Task) error {
	email := task.GetString("email")
	if email == "" {
		var err error
		email, err = h.recipientEmail(task)
		if err != nil {
			return err
		}
	}

	body := "Welcome to Eventshow!\n\n" +
		"Your account is ready. Complete your profile to start hosting events, " +
		"or browse what is happening around you and enroll."

	return h.mailer.Send(email, "Welcome to Eventshow", body)
}

func (h *TaskHandler) handleEnrollmentEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Your enrollment request for %q has been received.\n\n"+
			"The host will review your request. You will get another email "+
			"once it is accepted or rejected.",
		task.GetString("event_title"),
	)

	return h.mailer.Send(email, "Enrollment received", body)
}

func (h *TaskHandler) handleStatusEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	status := task.GetString("status")
	title := task.GetString("event_title")

	var subject, body string
	if status == "ACCEPTED" {
		subject = "Enrollment accepted"
		body = fmt.Sprintf("Good news! The host accepted your enrollment for %q. See you there!", title)
	} else {
		subject = "Enrollment rejected"
		body = fmt.Sprintf("Unfortunately the host rejected your enrollment for %q. Your payment will be refunded.", title)
	}

	return h.mailer.Send(email, subject, body)
}

func (h *TaskHandler) handleCancellationEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"The event %q has been cancelled by its host.\n\n"+
			"Your payment has been refunded and any points you spent were returned.",
		task.GetString("event_title"),
	)

	return h.mailer.Send(email, "Event cancelled", body)
}

func (h *TaskHandler) handleEventDeletedEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"The event %q is no longer taking place because its host left the platform.\n\n"+
			"Your payment has been refunded and any points you spent were returned.",
		task.GetString("event_title"),
	)

	return h.mailer.Send(email, "Event no longer available", body)
}

func (h *TaskHandler) handleMessageEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	subject := task.GetString("subject")
	body := task.GetString("body")
	if subject == "" {
		return fmt.Errorf("missing subject in task data")
	}

	return h.mailer.Send(email, subject, body)
}

func (h *TaskHandler) handleSettlementEmail(task *Task) error {
	email, err := h.recipientEmail(task)
	if err != nil {
		return err
	}

	payout := task.GetInt64("payout_cents")
	body := fmt.Sprintf(
		"Your event has finished and the proceeds were transferred to your payment account.\n\n"+
			"Amount: %d.%02d",
		payout/100, payout%100,
	)

	return h.mailer.Send(email, "Event proceeds transferred", body)
}

func (h *TaskHandler) recipientEmail(task *Task) (string, error) {
	userID := task.GetInt64("user_id")
	if userID == 0 {
		return "", fmt.Errorf("missing user_id in task data")
	}

	user, err := h.userRepo.GetByID(context.Background(), userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user %d: %v", userID, err)
	}
	return user.Email, nil
}
