package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"floorida/internal/auth"
	"floorida/internal/models"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// FlexDate is a calendar date read from JSON. It accepts YYYY-MM-DD from
// <input type="date"> as well as full timestamps, keeping only the date.
type FlexDate struct {
	time.Time
}

func (fd *FlexDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	fd.Time = t
	return nil
}

// ToTimePtr returns nil for an absent or empty date.
func (fd *FlexDate) ToTimePtr() *time.Time {
	if fd == nil || fd.Time.IsZero() {
		return nil
	}
	t := fd.Time
	return &t
}

func parseDate(s string) (time.Time, error) {
	if t, err := models.ParseDate(s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return models.Date(t), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return models.Date(t), nil
	}
	return time.Time{}, errors.New("invalid date format, expected YYYY-MM-DD")
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type onboardingRequest struct {
	PlanningTendency string `json:"planning_tendency"`
	DailyStudyHours  string `json:"daily_study_hours"`
}

type entityResponse struct {
	ID string `json:"id"`
}

type meResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email, username and password required")
		return
	}
	user, err := a.Service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}
	writeJSON(w, http.StatusCreated, entityResponse{ID: user.ID})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		return
	}
	token, err := a.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "Bearer"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := a.Service.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: user.ID, Email: user.Email, Username: user.Username})
}

func (a *API) handlePoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	points, err := a.Service.GetPoints(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := a.Service.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req onboardingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.Service.EnsureSignupBonus(r.Context(), userID); err != nil {
		writeServiceError(w, err, "User")
		return
	}
	profile, err := a.Service.UpdateOnboarding(r.Context(), userID, req.PlanningTendency, req.DailyStudyHours)
	if err != nil {
		writeServiceError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *API) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid limit")
			return
		}
		limit = n
	}
	txs, err := a.Service.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err, "Profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (a *API) handleCharacter(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	char, err := a.Service.GetCharacter(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Character")
		return
	}
	writeJSON(w, http.StatusOK, char)
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
		return "", false
	}
	return userID, true
}

// pathID validates a uuid path segment, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, raw string) (string, bool) {
	if _, err := uuid.Parse(raw); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return "", false
	}
	return raw, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}
