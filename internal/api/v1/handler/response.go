package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"app/internal/apperr"
	"app/internal/service"
	"app/internal/util"
)

// maxUploadBytes bounds multipart bodies (thumbnails, avatars, lecture media).
const maxUploadBytes = 64 << 20

// envelope is the uniform response body shape.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": status < 400, "message": message})
}

// writeError translates a classified domain error into its HTTP response.
// Unclassified faults become a generic 500 rather than crashing the request.
func writeError(w http.ResponseWriter, err error) {
	writeMessage(w, apperr.Status(err), apperr.Message(err))
}

// isMultipart reports whether the request carries a multipart form body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formUpload reads an optional file field from a parsed multipart form.
// A missing field is not an error; it returns nil.
func formUpload(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// setSessionCookie stores the session token as an http-only secure cookie
// for the same 7-day window the token itself is valid.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(util.SessionTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
	})
}
