package service

import (
	"context"
	"database/sql"
	"errors"

	"app/internal/apperr"
	"app/internal/model"
	"app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CreateCourseInput carries a course creation request into the service.
type CreateCourseInput struct {
	Title       string
	Description string
	Category    string
	CreatedBy   string
	Thumbnail   *Upload
}

// UpdateCourseInput carries a field-level course update; nil means unchanged.
type UpdateCourseInput struct {
	Title       *string
	Description *string
	Category    *string
	CreatedBy   *string
}

// CourseService mediates course and embedded-lecture operations.
type CourseService interface {
	// ListCourses returns course metadata; lecture bodies are excluded.
	ListCourses(ctx context.Context) ([]model.Course, error)
	// GetLectures returns the embedded lecture sequence of a course.
	GetLectures(ctx context.Context, courseID string) ([]model.Lecture, error)
	CreateCourse(ctx context.Context, in CreateCourseInput) (*model.Course, error)
	UpdateCourse(ctx context.Context, courseID string, in UpdateCourseInput) (*model.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
	// AddLecture uploads the media first and appends the lecture only after
	// the upload succeeds; no lecture may exist without media.
	AddLecture(ctx context.Context, courseID, title, description string, media *Upload) (*model.Course, error)
	// RemoveLecture deletes a lecture from the course's sequence. External
	// media deletion is best-effort; local state wins.
	RemoveLecture(ctx context.Context, courseID, lectureID string) error
}

type courseService struct {
	repo   repository.CourseRepository
	media  MediaStorage
	logger zerolog.Logger
}

// NewCourseService creates a CourseService with a scoped logger.
func NewCourseService(repo repository.CourseRepository, media MediaStorage, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:   repo,
		media:  media,
		logger: logger.With().Str("service", "CourseService").Logger(),
	}
}

const courseMediaFolder = "lms"

func (s *courseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list courses", err)
	}
	return courses, nil
}

func (s *courseService) GetLectures(ctx context.Context, courseID string) ([]model.Lecture, error) {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch course", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.KindNotFound, "course with given id does not exist")
	}
	if course.Lectures == nil {
		return []model.Lecture{}, nil
	}
	return course.Lectures, nil
}

func (s *courseService) CreateCourse(ctx context.Context, in CreateCourseInput) (*model.Course, error) {
	course := &model.Course{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
		Thumbnail:   PlaceholderThumbnail,
		Lectures:    []model.Lecture{},
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create course", err)
	}

	// Create-then-enrich: the record exists with the placeholder thumbnail
	// before the upload runs. An upload failure is surfaced but the record
	// stays; there is no compensating delete.
	if in.Thumbnail != nil {
		ref, err := s.media.UploadMedia(ctx, courseMediaFolder, in.Thumbnail)
		if err != nil {
			s.logger.Error().Err(err).Str("course_id", course.CourseID).Msg("Thumbnail upload failed after course creation")
			return nil, apperr.Wrap(apperr.KindUpstream, "failed to upload thumbnail", err)
		}
		if err := s.repo.UpdateThumbnail(ctx, course.CourseID, ref); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to save thumbnail", err)
		}
		course.Thumbnail = ref
	}
	return course, nil
}

func (s *courseService) UpdateCourse(ctx context.Context, courseID string, in UpdateCourseInput) (*model.Course, error) {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch course", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.KindNotFound, "course with given id does not exist")
	}

	if in.Title != nil {
		course.Title = *in.Title
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.Category != nil {
		course.Category = *in.Category
	}
	if in.CreatedBy != nil {
		course.CreatedBy = *in.CreatedBy
	}

	if err := s.repo.UpdateCourse(ctx, course); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update course", err)
	}
	return course, nil
}

func (s *courseService) DeleteCourse(ctx context.Context, courseID string) error {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to fetch course", err)
	}
	if course == nil {
		return apperr.New(apperr.KindNotFound, "course with given id does not exist")
	}
	// Embedded lectures share the course's lifetime. Their external media is
	// not purged here; deletion of remote assets is an explicit per-lecture
	// operation.
	if err := s.repo.DeleteCourse(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "course with given id does not exist")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to delete course", err)
	}
	return nil
}

func (s *courseService) AddLecture(ctx context.Context, courseID, title, description string, media *Upload) (*model.Course, error) {
	if media == nil || len(media.Data) == 0 {
		return nil, apperr.New(apperr.KindValidation, "lecture media file is required")
	}

	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch course", err)
	}
	if course == nil {
		return nil, apperr.New(apperr.KindNotFound, "course with given id does not exist")
	}

	// Upload before touching the sequence: a lecture only ever exists with
	// its media attached.
	ref, err := s.media.UploadMedia(ctx, courseMediaFolder, media)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "failed to upload lecture media", err)
	}

	lecture := model.Lecture{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Media:       ref,
	}
	lectures := append(course.Lectures, lecture)
	if err := s.repo.ReplaceLectures(ctx, courseID, lectures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "course with given id does not exist")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to add lecture", err)
	}
	course.Lectures = lectures
	course.NumberOfLectures = len(lectures)
	return course, nil
}

func (s *courseService) RemoveLecture(ctx context.Context, courseID, lectureID string) error {
	course, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to fetch course", err)
	}
	if course == nil {
		return apperr.New(apperr.KindNotFound, "invalid id or course does not exist")
	}

	index := -1
	for i, l := range course.Lectures {
		if l.ID == lectureID {
			index = i
			break
		}
	}
	if index == -1 {
		return apperr.New(apperr.KindNotFound, "lecture does not exist")
	}

	// Best-effort remote deletion; a failure here never blocks removal of
	// the local record.
	if publicID := course.Lectures[index].Media.PublicID; publicID != "" {
		if err := s.media.DeleteMedia(ctx, publicID); err != nil {
			s.logger.Warn().Err(err).Str("public_id", publicID).Str("lecture_id", lectureID).Msg("Failed to delete lecture media, removing local record anyway")
		}
	}

	lectures := append(course.Lectures[:index], course.Lectures[index+1:]...)
	if err := s.repo.ReplaceLectures(ctx, courseID, lectures); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "invalid id or course does not exist")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to remove lecture", err)
	}
	return nil
}
