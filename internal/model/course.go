package model

import "time"

// MediaRef points at an asset on the external media host: a stable identifier
// plus a retrievable URL.
type MediaRef struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Lecture is a titled unit of course content backed by an externally hosted
// media asset. Lectures are embedded in their course and share its lifetime.
type Lecture struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Media       MediaRef `json:"lecture"`
}

// Course is the aggregate root owning an ordered sequence of lectures.
// NumberOfLectures is derived; it is recomputed from the sequence on every
// mutation and never trusted independently.
type Course struct {
	CourseID         string    `db:"id" json:"course_id"`
	Title            string    `db:"title" json:"title"`
	Description      string    `db:"description" json:"description"`
	Category         string    `db:"category" json:"category"`
	Thumbnail        MediaRef  `json:"thumbnail"`
	Lectures         []Lecture `json:"lectures,omitempty"`
	NumberOfLectures int       `db:"number_of_lectures" json:"number_of_lectures"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
