package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles account and session endpoints
type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, validate: validate, logger: logger.With().Str("handler", "UserHandler").Logger()}
}

// RegisterRoutes mounts user routes
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, auth *middleware.Auth) {
	mux.Handle("/users/register", http.HandlerFunc(h.register))
	mux.Handle("/users/login", http.HandlerFunc(h.login))
	mux.Handle("/users/logout", http.HandlerFunc(h.logout))
	mux.Handle("/users/me", auth.Authenticate(http.HandlerFunc(h.me)))
	mux.Handle("/users/reset", http.HandlerFunc(h.forgotPassword))
	mux.Handle("/users/reset/", http.HandlerFunc(h.resetPassword))
	mux.Handle("/users/change-password", auth.Authenticate(http.HandlerFunc(h.changePassword)))
	mux.Handle("/users/", auth.Authenticate(http.HandlerFunc(h.updateUser)))
}

// register godoc
// @Summary Register a new account
// @Description Creates a LEARNER account, optionally with an avatar upload, and starts a session.
// @Tags users
// @Accept mpfd
// @Produce json
// @Success 201 {object} dto.UserResponseDTO
// @Failure 400 {string} string "Validation failed"
// @Router /users/register [post]
func (h *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req dto.UserRegisterDTO
	var avatar *service.Upload
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart payload: "+err.Error())
			return
		}
		req.FullName = r.FormValue("full_name")
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		var err error
		if avatar, err = formUpload(r, "avatar"); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid avatar upload: "+err.Error())
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

	user, token, err := h.userService.Register(r.Context(), req.FullName, req.Email, req.Password, avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "user registered successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// login godoc
// @Summary Log in
// @Description Verifies credentials and starts a 7-day session.
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body dto.UserLoginDTO true "Login request"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 400 {string} string "Invalid email or password"
// @Router /users/login [post]
func (h *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.UserLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "all fields are required: "+err.Error())
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "user logged in successfully",
		"token":   token,
		"user":    dto.NewUserResponse(user),
	})
}

func (h *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "user logged out successfully")
}

// me godoc
// @Summary Current user profile
// @Tags users
// @Produce json
// @Success 200 {object} dto.UserResponseDTO
// @Failure 401 {string} string "Unauthenticated"
// @Router /users/me [get]
func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}
	user, err := h.userService.GetProfile(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "user details",
		"user":    dto.NewUserResponse(user),
	})
}

func (h *UserHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.ForgotPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "email is required: "+err.Error())
		return
	}

	if err := h.userService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "reset password token has been sent to "+req.Email)
}

func (h *UserHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	resetToken := strings.TrimPrefix(r.URL.Path, "/users/reset/")
	if resetToken == "" || strings.Contains(resetToken, "/") {
		http.NotFound(w, r)
		return
	}
	var req dto.ResetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "password is required: "+err.Error())
		return
	}

	if err := h.userService.ResetPassword(r.Context(), resetToken, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "password reset successfully")
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}
	var req dto.ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "all fields are mandatory: "+err.Error())
		return
	}

	if err := h.userService.ChangePassword(r.Context(), identity.ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "password changed successfully")
}

// updateUser godoc
// @Summary Update a user profile
// @Description Learners may update only themselves; admins may update anyone.
// @Tags users
// @Accept mpfd
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 403 {string} string "Not authorized to update other users"
// @Router /users/{userId} [put]
func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	targetID := strings.TrimPrefix(r.URL.Path, "/users/")
	if targetID == "" || strings.Contains(targetID, "/") {
		http.NotFound(w, r)
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "unauthenticated, please login again")
		return
	}

	var req dto.UserUpdateDTO
	var avatar *service.Upload
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid multipart payload: "+err.Error())
			return
		}
		if v := r.FormValue("full_name"); v != "" {
			req.FullName = &v
		}
		var err error
		if avatar, err = formUpload(r, "avatar"); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid avatar upload: "+err.Error())
			return
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON payload: "+err.Error())
			return
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	fullName := ""
	if req.FullName != nil {
		fullName = *req.FullName
	}
	user, err := h.userService.UpdateUser(r.Context(), identity, targetID, fullName, avatar)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "user details updated successfully",
		"user":    dto.NewUserResponse(user),
	})
}
