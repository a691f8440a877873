package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/apperr"
	"app/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCourseRepo struct {
	course *model.Course

	created        *model.Course
	replaced       [][]model.Lecture
	thumbnailSaved *model.MediaRef
	deleted        []string
	getCalls       int
}

func (s *stubCourseRepo) ListCourses(ctx context.Context) ([]model.Course, error) {
	if s.course == nil {
		return []model.Course{}, nil
	}
	return []model.Course{*s.course}, nil
}
func (s *stubCourseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	c.CourseID = "course-1"
	s.created = c
	return nil
}
func (s *stubCourseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	s.getCalls++
	if s.course != nil && s.course.CourseID == courseID {
		return s.course, nil
	}
	return nil, nil
}
func (s *stubCourseRepo) UpdateCourse(ctx context.Context, c *model.Course) error { return nil }
func (s *stubCourseRepo) UpdateThumbnail(ctx context.Context, courseID string, thumbnail model.MediaRef) error {
	s.thumbnailSaved = &thumbnail
	return nil
}
func (s *stubCourseRepo) ReplaceLectures(ctx context.Context, courseID string, lectures []model.Lecture) error {
	s.replaced = append(s.replaced, lectures)
	if s.course != nil {
		s.course.Lectures = lectures
		s.course.NumberOfLectures = len(lectures)
	}
	return nil
}
func (s *stubCourseRepo) DeleteCourse(ctx context.Context, courseID string) error {
	s.deleted = append(s.deleted, courseID)
	return nil
}

type stubMediaStorage struct {
	uploadErr error
	deleteErr error

	uploads []string
	deletes []string
}

func (s *stubMediaStorage) UploadMedia(ctx context.Context, folder string, upload *Upload) (model.MediaRef, error) {
	if s.uploadErr != nil {
		return model.MediaRef{}, s.uploadErr
	}
	s.uploads = append(s.uploads, upload.Filename)
	return model.MediaRef{PublicID: "lms/" + upload.Filename, SecureURL: "https://media.example.com/lms/" + upload.Filename}, nil
}
func (s *stubMediaStorage) DeleteMedia(ctx context.Context, publicID string) error {
	s.deletes = append(s.deletes, publicID)
	return s.deleteErr
}

func newCourseFixture(course *model.Course) (CourseService, *stubCourseRepo, *stubMediaStorage) {
	repo := &stubCourseRepo{course: course}
	media := &stubMediaStorage{}
	return NewCourseService(repo, media, zerolog.Nop()), repo, media
}

func sampleCourse(lectures ...model.Lecture) *model.Course {
	return &model.Course{
		CourseID:         "course-1",
		Title:            "Backend Engineering",
		Description:      "A course about backend engineering",
		Category:         "engineering",
		CreatedBy:        "staff",
		Thumbnail:        PlaceholderThumbnail,
		Lectures:         lectures,
		NumberOfLectures: len(lectures),
	}
}

func sampleLecture(id string) model.Lecture {
	return model.Lecture{
		ID:          id,
		Title:       "Lecture " + id,
		Description: "About " + id,
		Media:       model.MediaRef{PublicID: "lms/" + id, SecureURL: "https://media.example.com/lms/" + id},
	}
}

func TestCreateCourseWithoutThumbnail(t *testing.T) {
	svc, repo, media := newCourseFixture(nil)

	course, err := svc.CreateCourse(context.Background(), CreateCourseInput{
		Title: "Backend Engineering", Description: "A course about backend engineering",
		Category: "engineering", CreatedBy: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderThumbnail, course.Thumbnail)
	assert.Empty(t, media.uploads)
	require.NotNil(t, repo.created)
	assert.Equal(t, 0, repo.created.NumberOfLectures)
}

func TestCreateCourseWithThumbnail(t *testing.T) {
	svc, repo, media := newCourseFixture(nil)

	course, err := svc.CreateCourse(context.Background(), CreateCourseInput{
		Title: "Backend Engineering", Description: "A course about backend engineering",
		Category: "engineering", CreatedBy: "staff",
		Thumbnail: &Upload{Filename: "thumb.jpg", ContentType: "image/jpeg", Data: []byte{1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"thumb.jpg"}, media.uploads)
	require.NotNil(t, repo.thumbnailSaved)
	assert.Equal(t, *repo.thumbnailSaved, course.Thumbnail)
	assert.NotEqual(t, PlaceholderThumbnail, course.Thumbnail)
}

func TestCreateCourseThumbnailUploadFailure(t *testing.T) {
	// The record is persisted before the upload runs; an upload failure is
	// surfaced but leaves the created course in place with its placeholder.
	svc, repo, media := newCourseFixture(nil)
	media.uploadErr = errors.New("bucket unavailable")

	_, err := svc.CreateCourse(context.Background(), CreateCourseInput{
		Title: "Backend Engineering", Description: "A course about backend engineering",
		Category: "engineering", CreatedBy: "staff",
		Thumbnail: &Upload{Filename: "thumb.jpg", Data: []byte{1}},
	})
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	require.NotNil(t, repo.created)
	assert.Equal(t, PlaceholderThumbnail, repo.created.Thumbnail)
	assert.Nil(t, repo.thumbnailSaved)
}

func TestAddLectureRequiresMedia(t *testing.T) {
	svc, repo, _ := newCourseFixture(sampleCourse())

	for _, media := range []*Upload{nil, {Filename: "empty.mp4"}} {
		_, err := svc.AddLecture(context.Background(), "course-1", "Intro", "First lecture", media)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
	// Rejected before any course lookup or mutation.
	assert.Equal(t, 0, repo.getCalls)
	assert.Empty(t, repo.replaced)
}

func TestAddLectureAppendsAndCounts(t *testing.T) {
	svc, repo, media := newCourseFixture(sampleCourse(sampleLecture("l1")))

	course, err := svc.AddLecture(context.Background(), "course-1", "Intro", "First lecture",
		&Upload{Filename: "intro.mp4", ContentType: "video/mp4", Data: []byte{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, []string{"intro.mp4"}, media.uploads)
	require.Len(t, repo.replaced, 1)
	require.Len(t, course.Lectures, 2)
	assert.Equal(t, len(course.Lectures), course.NumberOfLectures)

	added := course.Lectures[1]
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "Intro", added.Title)
	assert.Equal(t, "lms/intro.mp4", added.Media.PublicID)
}

func TestAddLectureUploadFailureLeavesCourseUntouched(t *testing.T) {
	svc, repo, media := newCourseFixture(sampleCourse(sampleLecture("l1")))
	media.uploadErr = errors.New("bucket unavailable")

	_, err := svc.AddLecture(context.Background(), "course-1", "Intro", "First lecture",
		&Upload{Filename: "intro.mp4", Data: []byte{1}})
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Empty(t, repo.replaced)
	assert.Len(t, repo.course.Lectures, 1)
}

func TestAddLectureUnknownCourse(t *testing.T) {
	svc, _, _ := newCourseFixture(nil)

	_, err := svc.AddLecture(context.Background(), "missing", "Intro", "First lecture",
		&Upload{Filename: "intro.mp4", Data: []byte{1}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemoveLecture(t *testing.T) {
	svc, repo, media := newCourseFixture(sampleCourse(sampleLecture("l1"), sampleLecture("l2"), sampleLecture("l3")))

	err := svc.RemoveLecture(context.Background(), "course-1", "l2")
	require.NoError(t, err)

	assert.Equal(t, []string{"lms/l2"}, media.deletes)
	require.Len(t, repo.course.Lectures, 2)
	assert.Equal(t, "l1", repo.course.Lectures[0].ID)
	assert.Equal(t, "l3", repo.course.Lectures[1].ID)
	assert.Equal(t, 2, repo.course.NumberOfLectures)
}

func TestRemoveLectureMediaDeleteIsBestEffort(t *testing.T) {
	svc, repo, media := newCourseFixture(sampleCourse(sampleLecture("l1")))
	media.deleteErr = errors.New("bucket unavailable")

	err := svc.RemoveLecture(context.Background(), "course-1", "l1")
	require.NoError(t, err)
	assert.Empty(t, repo.course.Lectures)
	assert.Equal(t, 0, repo.course.NumberOfLectures)
}

func TestRemoveLectureUnknownLecture(t *testing.T) {
	svc, repo, media := newCourseFixture(sampleCourse(sampleLecture("l1")))

	err := svc.RemoveLecture(context.Background(), "course-1", "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, media.deletes)
	assert.Empty(t, repo.replaced)
}

func TestGetLectures(t *testing.T) {
	svc, _, _ := newCourseFixture(sampleCourse(sampleLecture("l1")))

	lectures, err := svc.GetLectures(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	assert.Equal(t, "l1", lectures[0].ID)
}

func TestGetLecturesEmptySequence(t *testing.T) {
	course := sampleCourse()
	course.Lectures = nil
	svc, _, _ := newCourseFixture(course)

	lectures, err := svc.GetLectures(context.Background(), "course-1")
	require.NoError(t, err)
	assert.NotNil(t, lectures)
	assert.Empty(t, lectures)
}

func TestGetLecturesUnknownCourse(t *testing.T) {
	svc, _, _ := newCourseFixture(nil)

	_, err := svc.GetLectures(context.Background(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateCourseAppliesOnlyProvidedFields(t *testing.T) {
	svc, _, _ := newCourseFixture(sampleCourse())

	title := "Distributed Systems"
	course, err := svc.UpdateCourse(context.Background(), "course-1", UpdateCourseInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Distributed Systems", course.Title)
	assert.Equal(t, "A course about backend engineering", course.Description)
}

func TestDeleteCourseUnknown(t *testing.T) {
	svc, repo, _ := newCourseFixture(nil)

	err := svc.DeleteCourse(context.Background(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, repo.deleted)
}
