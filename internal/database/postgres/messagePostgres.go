package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	query := `
		INSERT INTO messages (event_id, subject, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, message.EventID, message.Subject, message.Body, now).Scan(&message.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %v", err)
	}

	message.CreatedAt = now
	return nil
}

// GetLatestForUser returns the newest message of each event the user is
// enrolled in.
func (r *messageRepository) GetLatestForUser(ctx context.Context, userID int64) ([]*entity.Message, error) {
	query := `
		SELECT DISTINCT ON (m.event_id) m.id, m.event_id, m.subject, m.body, m.created_at
		FROM messages m
		JOIN enrollments en ON en.event_id = m.event_id
		WHERE en.user_id = $1 AND en.status <> 'REJECTED'
		ORDER BY m.event_id, m.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		var message entity.Message
		err := rows.Scan(
			&message.ID,
			&message.EventID,
			&message.Subject,
			&message.Body,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, rows.Err()
}
