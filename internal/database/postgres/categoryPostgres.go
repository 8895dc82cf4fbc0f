package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (name, picture, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, category.Name, category.Picture, now).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("failed to create category: %v", err)
	}

	category.CreatedAt = now
	return nil
}

func (r *categoryRepository) GetAll(ctx context.Context) ([]*entity.Category, error) {
	query := `SELECT id, name, picture, created_at FROM categories ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Picture, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	query := `SELECT id, name, picture, created_at FROM categories WHERE id = $1`

	var category entity.Category
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Picture, &category.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, entity.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %v", err)
	}

	return &category, nil
}
