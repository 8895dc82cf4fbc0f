package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type ratingRepository struct {
	db *sql.DB
}

func NewRatingRepository(db *sql.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, rating *entity.Rating) error {
	query := `
		INSERT INTO ratings (reviewer_id, reviewed_id, event_id, score, comment, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		rating.ReviewerID,
		rating.ReviewedID,
		rating.EventID,
		rating.Score,
		rating.Comment,
		rating.Role,
		now,
	).Scan(&rating.ID)
	if err != nil {
		return fmt.Errorf("failed to create rating: %v", err)
	}

	rating.CreatedAt = now
	return nil
}

func (r *ratingRepository) Exists(ctx context.Context, reviewerID, reviewedID, eventID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM ratings WHERE reviewer_id = $1 AND reviewed_id = $2 AND event_id = $3`
	err := r.db.QueryRowContext(ctx, query, reviewerID, reviewedID, eventID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check rating existence: %w", err)
	}
	return count > 0, nil
}

func (r *ratingRepository) GetByReviewed(ctx context.Context, reviewedID int64) ([]*entity.Rating, error) {
	query := `
		SELECT id, reviewer_id, reviewed_id, event_id, score, comment, role, created_at
		FROM ratings
		WHERE reviewed_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, reviewedID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []*entity.Rating
	for rows.Next() {
		var rating entity.Rating
		err := rows.Scan(
			&rating.ID,
			&rating.ReviewerID,
			&rating.ReviewedID,
			&rating.EventID,
			&rating.Score,
			&rating.Comment,
			&rating.Role,
			&rating.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, &rating)
	}

	return ratings, rows.Err()
}

func (r *ratingRepository) GetSummary(ctx context.Context, userID int64) (*entity.RatingSummary, error) {
	query := `SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE reviewed_id = $1`

	summary := entity.RatingSummary{UserID: userID}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&summary.Average, &summary.Count)
	if err == sql.ErrNoRows {
		return &summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}

	return &summary, nil
}
