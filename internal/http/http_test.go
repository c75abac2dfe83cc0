package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"floorida/internal/auth"
	"floorida/internal/repo"
	"floorida/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAPI wires a service without a store; every request used here is
// rejected before it would reach persistence.
func newTestAPI() (*API, *auth.Manager) {
	manager := auth.NewManager("test-secret")
	svc := service.New(nil, manager, nil)
	return &API{Service: svc, Auth: manager, Origins: []string{"https://app.example.com"}}, manager
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env errorResponse
	if rec.Code >= 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI()
	rec, _ := do(t, api.Router(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api, manager := newTestAPI()
	h := api.Router()

	expired, err := manager.GenerateToken("11111111-1111-1111-1111-111111111111", -time.Minute)
	require.NoError(t, err)

	paths := []string{"/api/me", "/api/schedules", "/api/floors/today", "/api/characters/me"}
	for _, p := range paths {
		rec, env := do(t, h, http.MethodGet, p, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, p)

		rec, env = do(t, h, http.MethodGet, p, "garbage", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, p)

		rec, env = do(t, h, http.MethodGet, p, expired, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p)
		assert.Equal(t, "TOKEN_EXPIRED", env.Error.Code, p)
	}

	rec, env := do(t, h, http.MethodPost, "/api/floors/11111111-1111-1111-1111-111111111111/complete", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestRequestValidation(t *testing.T) {
	api, manager := newTestAPI()
	h := api.Router()
	token, err := manager.GenerateToken("11111111-1111-1111-1111-111111111111", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name, method, path, body, code string
	}{
		{"bad schedule id", http.MethodGet, "/api/schedules/not-a-uuid", "", "VALIDATION_ERROR"},
		{"bad floor id", http.MethodPost, "/api/floors/42/complete", "", "VALIDATION_ERROR"},
		{"bad date", http.MethodGet, "/api/floors/date/2024-13-01", "", "VALIDATION_ERROR"},
		{"missing dates", http.MethodPost, "/api/schedules", `{"title":"x"}`, "VALIDATION_ERROR"},
		{"malformed date", http.MethodPost, "/api/schedules", `{"title":"x","start_date":"soon","end_date":"2024-01-01"}`, "INVALID_JSON"},
		{"bad team", http.MethodPost, "/api/schedules/ai", `{"goal":"x","start_date":"2024-01-01","end_date":"2024-01-02","team_id":"t"}`, "VALIDATION_ERROR"},
		{"bad json", http.MethodPost, "/api/schedules", `{`, "INVALID_JSON"},
		{"bad limit", http.MethodGet, "/api/me/transactions?limit=-1", "", "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, h, tc.method, tc.path, token, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	api, _ := newTestAPI()
	h := api.Router()

	rec, env := do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"a@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/api/auth/register", "", `{"email":"a@example.com","username":"alice","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/api/auth/login", "", `{"email":""}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
}

func TestCORSPreflight(t *testing.T) {
	api, _ := newTestAPI()
	req := httptest.NewRequest(http.MethodOptions, "/api/schedules", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: title is required", service.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{service.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("load: %w", repo.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{repo.ErrAlreadyCompleted, http.StatusConflict, "ALREADY_COMPLETED"},
		{repo.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{repo.ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
		{repo.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err, "Schedule")
		var env errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.code, env.Error.Code, tc.err.Error())
	}
}

func TestFlexDate(t *testing.T) {
	var req struct {
		A *FlexDate `json:"a"`
		B *FlexDate `json:"b"`
		C *FlexDate `json:"c"`
		D *FlexDate `json:"d"`
	}
	err := json.Unmarshal([]byte(`{"a":"2024-05-06","b":"2024-05-06T23:10:00Z","c":null,"d":""}`), &req)
	require.NoError(t, err)

	want := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	assert.True(t, req.A.Time.Equal(want))
	assert.True(t, req.B.Time.Equal(want))
	assert.Nil(t, req.C.ToTimePtr())
	assert.Nil(t, req.D.ToTimePtr())

	var bad struct {
		A FlexDate `json:"a"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"a":"06/05/2024"}`), &bad))
}

func TestNotFoundMessageNamesMissingRow(t *testing.T) {
	cases := []struct {
		err     error
		subject string
		message string
	}{
		{repo.ErrUserNotFound, "Schedule", "User not found"},
		{fmt.Errorf("complete: %w", repo.ErrProfileNotFound), "Floor", "Profile not found"},
		{repo.ErrNotFound, "Floor", "Floor not found"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err, tc.subject)
		var env errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
		assert.Equal(t, tc.message, env.Error.Message)
	}
}
