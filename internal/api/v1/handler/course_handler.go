package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler handles course and embedded-lecture endpoints
type CourseHandler struct {
	courseService service.CourseService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService service.CourseService, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{courseService: courseService, validate: validate, logger: logger.With().Str("handler", "CourseHandler").Logger()}
}

// RegisterRoutes mounts course routes. Listing is public; lecture content is
// subscriber-gated; all mutations are admin-only.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	admin := auth.RequireRoles(model.RoleAdmin)

	createCourse := auth.Authenticate(admin(http.HandlerFunc(h.createCourse)))
	removeLecture := auth.Authenticate(admin(http.HandlerFunc(h.removeLecture)))
	getLectures := auth.Authenticate(auth.RequireSubscriber(http.HandlerFunc(h.getLectures)))
	updateCourse := auth.Authenticate(admin(http.HandlerFunc(h.updateCourse)))
	deleteCourse := auth.Authenticate(admin(http.HandlerFunc(h.deleteCourse)))
	addLecture := auth.Authenticate(admin(http.HandlerFunc(h.addLecture)))

	mux.Handle("/courses", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.listCourses(w, r)
		case http.MethodPost:
			createCourse.ServeHTTP(w, r)
		case http.MethodDelete:
			removeLecture.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	mux.Handle("/courses/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getLectures.ServeHTTP(w, r)
		case http.MethodPut:
			updateCourse.ServeHTTP(w, r)
		case http.MethodDelete:
			deleteCourse.ServeHTTP(w, r)
		case http.MethodPost:
			addLecture.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
}

func courseIDFromPath(r *http.Request) string {
	id := strings.TrimPrefix(r.URL.Path, "/courses/")
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// listCourses godoc
// @Summary List all courses
// @Description Returns course metadata for everyone; lecture bodies are excluded.
// @Tags courses
// @Produce json
// @Success 200 {array} dto.CourseResponseDTO
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courseService.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]dto.CourseResponseDTO, 0, len(courses))
	for i := range courses {
		resp = append(resp, dto.NewCourseResponse(&courses[i], false))
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "all courses",
		"courses": resp,
	})
}

// getLectures godoc
// @Summary Get a course's lectures
// @Description Returns the embedded lecture sequence. Requires an active subscription or the ADMIN role.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {array} dto.LectureResponseDTO
// @Failure 403 {string} string "Subscription required"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [get]
func (h *CourseHandler) getLectures(w http.ResponseWriter, r *http.Request) {
	courseID := courseIDFromPath(r)
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	lectures, err := h.courseService.GetLectures(r.Context(), courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]dto.LectureResponseDTO, 0, len(lectures))
	for _, l := range lectures {
		resp = append(resp, dto.NewLectureResponse(l))
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"message":  "course lectures fetched successfully",
		"lectures": resp,
	})
}

// createCourse godoc
// @Summary Create a new course
// @Description Persists the course first with a placeholder thumbnail, then attaches an uploaded thumbnail when provided.
// @Tags courses
// @Accept mpfd
// @Produce json
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {string} string "Validation failed"
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req dto.CourseCreateDTO
	var thumbnail *service.Upload
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart payload: "+err.Error())
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Category = r.FormValue("category")
		req.CreatedBy = r.FormValue("created_by")
		var err error
		if thumbnail, err = formUpload(r, "thumbnail"); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid thumbnail upload: "+err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
			return
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "all fields are required: "+err.Error())
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), service.CreateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "course created successfully",
		"course":  dto.NewCourseResponse(course, false),
	})
}

// updateCourse godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param course body dto.CourseUpdateDTO true "Course update request"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [put]
func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := courseIDFromPath(r)
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	var req dto.CourseUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	course, err := h.courseService.UpdateCourse(r.Context(), courseID, service.UpdateCourseInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "course updated successfully",
		"course":  dto.NewCourseResponse(course, false),
	})
}

// deleteCourse godoc
// @Summary Delete a course
// @Description Removes the course and its embedded lectures.
// @Tags courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {string} string "Course deleted successfully"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := courseIDFromPath(r)
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	if err := h.courseService.DeleteCourse(r.Context(), courseID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "course deleted successfully")
}

// addLecture godoc
// @Summary Add a lecture to a course
// @Description The media file is mandatory; the lecture is appended only after the upload succeeds.
// @Tags courses
// @Accept mpfd
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.CourseResponseDTO
// @Failure 400 {string} string "Missing media file"
// @Failure 404 {string} string "Course not found"
// @Router /courses/{courseId} [post]
func (h *CourseHandler) addLecture(w http.ResponseWriter, r *http.Request) {
	courseID := courseIDFromPath(r)
	if courseID == "" {
		http.NotFound(w, r)
		return
	}
	if !isMultipart(r) {
		writeMessage(w, http.StatusBadRequest, "multipart payload with a lecture file is required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart payload: "+err.Error())
		return
	}
	req := dto.LectureCreateDTO{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "all fields are required: "+err.Error())
		return
	}
	media, err := formUpload(r, "lecture")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid lecture upload: "+err.Error())
		return
	}

	course, err := h.courseService.AddLecture(r.Context(), courseID, req.Title, req.Description, media)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "lecture added successfully",
		"course":  dto.NewCourseResponse(course, true),
	})
}

// removeLecture godoc
// @Summary Remove a lecture from a course
// @Description Identified by courseId and lectureId query parameters. Remote media deletion is best-effort.
// @Tags courses
// @Produce json
// @Param courseId query string true "Course ID"
// @Param lectureId query string true "Lecture ID"
// @Success 200 {string} string "Lecture removed successfully"
// @Failure 404 {string} string "Course or lecture not found"
// @Router /courses [delete]
func (h *CourseHandler) removeLecture(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	lectureID := r.URL.Query().Get("lectureId")
	if courseID == "" {
		writeMessage(w, http.StatusBadRequest, "course id is required")
		return
	}
	if lectureID == "" {
		writeMessage(w, http.StatusBadRequest, "lecture id is required")
		return
	}

	if err := h.courseService.RemoveLecture(r.Context(), courseID, lectureID); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "course lecture removed successfully")
}
