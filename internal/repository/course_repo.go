package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/rs/zerolog"
)

// CourseRepository defines the interface for interacting with course data.
// The lecture sequence is stored as a JSONB document on the course row, so
// every mutation of the sequence is a single-row atomic update.
type CourseRepository interface {
	// ListCourses retrieves course metadata only; lecture bodies are excluded.
	ListCourses(ctx context.Context) ([]model.Course, error)
	CreateCourse(ctx context.Context, c *model.Course) error
	// GetCourseByID retrieves a course including its embedded lectures.
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// UpdateCourse updates the scalar fields of an existing course.
	UpdateCourse(ctx context.Context, c *model.Course) error
	// UpdateThumbnail swaps the thumbnail reference after an upload completes.
	UpdateThumbnail(ctx context.Context, courseID string, thumbnail model.MediaRef) error
	// ReplaceLectures writes the full lecture sequence; the stored count is
	// recomputed from the array length inside the same statement.
	ReplaceLectures(ctx context.Context, courseID string, lectures []model.Lecture) error
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseRepo struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB, logger zerolog.Logger) CourseRepository {
	return &courseRepo{db: db, logger: logger.With().Str("repository", "CourseRepository").Logger()}
}

// ListCourses retrieves all courses without their lecture bodies
func (r *courseRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	query := `
		SELECT id, title, description, category, thumbnail_public_id, thumbnail_secure_url,
		       number_of_lectures, created_by, created_at, updated_at
		FROM courses
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.CourseID, &c.Title, &c.Description, &c.Category,
			&c.Thumbnail.PublicID, &c.Thumbnail.SecureURL,
			&c.NumberOfLectures, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// If no courses found, return an empty slice, not nil
	if len(courses) == 0 {
		return []model.Course{}, nil
	}
	return courses, nil
}

// CreateCourse inserts a new course with an empty lecture sequence
func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	query := `
		INSERT INTO courses (title, description, category, thumbnail_public_id, thumbnail_secure_url, lectures, created_by)
		VALUES ($1, $2, $3, $4, $5, '[]'::jsonb, $6)
		RETURNING id, number_of_lectures, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		c.Title, c.Description, c.Category,
		c.Thumbnail.PublicID, c.Thumbnail.SecureURL, c.CreatedBy,
	).Scan(&c.CourseID, &c.NumberOfLectures, &c.CreatedAt, &c.UpdatedAt)
}

// GetCourseByID retrieves a course by its ID, lectures included
func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `
		SELECT id, title, description, category, thumbnail_public_id, thumbnail_secure_url,
		       lectures, number_of_lectures, created_by, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c model.Course
	var lecturesJSON []byte
	err := r.db.QueryRowContext(ctx, query, courseID).Scan(
		&c.CourseID, &c.Title, &c.Description, &c.Category,
		&c.Thumbnail.PublicID, &c.Thumbnail.SecureURL,
		&lecturesJSON, &c.NumberOfLectures, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(lecturesJSON, &c.Lectures); err != nil {
		return nil, fmt.Errorf("decode lectures document: %w", err)
	}
	return &c, nil
}

// UpdateCourse updates the scalar fields of an existing course record
func (r *courseRepo) UpdateCourse(ctx context.Context, c *model.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, category = $3, created_by = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, c.Title, c.Description, c.Category, c.CreatedBy, c.CourseID).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// UpdateThumbnail replaces the thumbnail reference on a course
func (r *courseRepo) UpdateThumbnail(ctx context.Context, courseID string, thumbnail model.MediaRef) error {
	query := `UPDATE courses SET thumbnail_public_id = $1, thumbnail_secure_url = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, thumbnail.PublicID, thumbnail.SecureURL, courseID)
	return err
}

// ReplaceLectures writes the lecture sequence and recomputes the derived
// count from the array itself, so count and sequence cannot diverge even
// under concurrent writers.
func (r *courseRepo) ReplaceLectures(ctx context.Context, courseID string, lectures []model.Lecture) error {
	if lectures == nil {
		lectures = []model.Lecture{}
	}
	doc, err := json.Marshal(lectures)
	if err != nil {
		return fmt.Errorf("encode lectures document: %w", err)
	}
	query := `
		UPDATE courses
		SET lectures = $1::jsonb, number_of_lectures = jsonb_array_length($1::jsonb), updated_at = NOW()
		WHERE id = $2
	`
	res, err := r.db.ExecContext(ctx, query, doc, courseID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteCourse removes a course; embedded lectures go with the row
func (r *courseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
