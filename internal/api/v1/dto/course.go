package dto

import (
	"time"

	"app/internal/model"
)

// MediaRefDTO exposes an external media reference
type MediaRefDTO struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// CourseCreateDTO is the scalar part of a multipart course creation request;
// the optional thumbnail file travels alongside it.
type CourseCreateDTO struct {
	Title       string `json:"title" validate:"required,min=8,max=60"`
	Description string `json:"description" validate:"required,min=8,max=200"`
	Category    string `json:"category" validate:"required"`
	CreatedBy   string `json:"created_by" validate:"required"`
}

// CourseUpdateDTO is used for incoming course update requests
type CourseUpdateDTO struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=8,max=60"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=8,max=200"`
	Category    *string `json:"category,omitempty"`
	CreatedBy   *string `json:"created_by,omitempty"`
}

// LectureCreateDTO is the scalar part of a multipart add-lecture request;
// the media file is mandatory and checked by the service.
type LectureCreateDTO struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// LectureResponseDTO is returned when lecture content is served
type LectureResponseDTO struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Lecture     MediaRefDTO `json:"lecture"`
}

// CourseResponseDTO is returned in API responses for courses. Lectures are
// included only on subscriber-gated lookups, never in listings.
type CourseResponseDTO struct {
	CourseID         string               `json:"course_id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Category         string               `json:"category"`
	Thumbnail        MediaRefDTO          `json:"thumbnail"`
	Lectures         []LectureResponseDTO `json:"lectures,omitempty"`
	NumberOfLectures int                  `json:"number_of_lectures"`
	CreatedBy        string               `json:"created_by"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NewLectureResponse maps a lecture model to its response DTO.
func NewLectureResponse(l model.Lecture) LectureResponseDTO {
	return LectureResponseDTO{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Lecture:     MediaRefDTO{PublicID: l.Media.PublicID, SecureURL: l.Media.SecureURL},
	}
}

// NewCourseResponse maps a course model to its response DTO.
func NewCourseResponse(c *model.Course, includeLectures bool) CourseResponseDTO {
	resp := CourseResponseDTO{
		CourseID:         c.CourseID,
		Title:            c.Title,
		Description:      c.Description,
		Category:         c.Category,
		Thumbnail:        MediaRefDTO{PublicID: c.Thumbnail.PublicID, SecureURL: c.Thumbnail.SecureURL},
		NumberOfLectures: c.NumberOfLectures,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if includeLectures {
		resp.Lectures = make([]LectureResponseDTO, 0, len(c.Lectures))
		for _, l := range c.Lectures {
			resp.Lectures = append(resp.Lectures, NewLectureResponse(l))
		}
	}
	return resp
}
