package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"floorida/internal/repo"
	"floorida/internal/service"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// writeServiceError maps service and repo errors onto the error envelope.
// subject names the looked-up resource in not-found messages unless the
// error itself says which row is missing.
func writeServiceError(w http.ResponseWriter, err error, subject string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "INVALID_DATE_RANGE", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Not allowed")
	case errors.Is(err, repo.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, repo.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Profile not found")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", subject+" not found")
	case errors.Is(err, repo.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "ALREADY_COMPLETED", "Floor already completed")
	case errors.Is(err, repo.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already in use")
	case errors.Is(err, repo.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already in use")
	case errors.Is(err, repo.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Insufficient funds")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}
