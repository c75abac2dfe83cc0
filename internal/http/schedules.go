package http

import (
	"net/http"
	"time"

	"floorida/internal/models"
	"floorida/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type floorDraftRequest struct {
	Title         string    `json:"title"`
	ScheduledDate *FlexDate `json:"scheduled_date"`
}

type scheduleRequest struct {
	Title        string              `json:"title"`
	OriginalGoal *string             `json:"original_goal"`
	GoalSummary  *string             `json:"goal_summary"`
	StartDate    *FlexDate           `json:"start_date"`
	EndDate      *FlexDate           `json:"end_date"`
	Color        string              `json:"color"`
	TeamID       *string             `json:"team_id"`
	Floors       []floorDraftRequest `json:"floors"`
}

type aiScheduleRequest struct {
	Goal      string    `json:"goal"`
	Title     string    `json:"title"`
	StartDate *FlexDate `json:"start_date"`
	EndDate   *FlexDate `json:"end_date"`
	Color     string    `json:"color"`
	TeamID    *string   `json:"team_id"`
}

type schedulePatchRequest struct {
	Title       *string   `json:"title"`
	GoalSummary *string   `json:"goal_summary"`
	Color       *string   `json:"color"`
	StartDate   *FlexDate `json:"start_date"`
	EndDate     *FlexDate `json:"end_date"`
}

type floorResponse struct {
	ID            string    `json:"id"`
	ScheduleID    string    `json:"schedule_id"`
	Title         string    `json:"title"`
	ScheduledDate *string   `json:"scheduled_date"`
	Position      int       `json:"position"`
	CreatedAt     time.Time `json:"created_at"`
}

type scheduleResponse struct {
	ID            string          `json:"id"`
	CreatorUserID string          `json:"creator_user_id"`
	TeamID        *string         `json:"team_id"`
	Title         string          `json:"title"`
	OriginalGoal  *string         `json:"original_goal"`
	GoalSummary   *string         `json:"goal_summary"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Color         string          `json:"color"`
	CreatedAt     time.Time       `json:"created_at"`
	Floors        []floorResponse `json:"floors"`
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func toFloorResponse(f models.Floor) floorResponse {
	return floorResponse{
		ID:            f.ID,
		ScheduleID:    f.ScheduleID,
		Title:         f.Title,
		ScheduledDate: formatDatePtr(f.ScheduledDate),
		Position:      f.Position,
		CreatedAt:     f.CreatedAt,
	}
}

func toScheduleResponse(s *models.Schedule) scheduleResponse {
	floors := make([]floorResponse, 0, len(s.Floors))
	for _, f := range s.Floors {
		floors = append(floors, toFloorResponse(f))
	}
	return scheduleResponse{
		ID:            s.ID,
		CreatorUserID: s.CreatorUserID,
		TeamID:        s.TeamID,
		Title:         s.Title,
		OriginalGoal:  s.OriginalGoal,
		GoalSummary:   s.GoalSummary,
		StartDate:     s.StartDate.Format(models.DateLayout),
		EndDate:       s.EndDate.Format(models.DateLayout),
		Color:         s.Color,
		CreatedAt:     s.CreatedAt,
		Floors:        floors,
	}
}

// requireRange writes a 400 unless both ends of a date range were supplied.
func requireRange(w http.ResponseWriter, start, end *FlexDate) (time.Time, time.Time, bool) {
	s, e := start.ToTimePtr(), end.ToTimePtr()
	if s == nil || e == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start_date and end_date required")
		return time.Time{}, time.Time{}, false
	}
	return *s, *e, true
}

func validTeamID(w http.ResponseWriter, teamID *string) bool {
	if teamID == nil {
		return true
	}
	if _, err := uuid.Parse(*teamID); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid team_id")
		return false
	}
	return true
}

func (a *API) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	schedules, err := a.Service.ListSchedules(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	out := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, toScheduleResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": out})
}

func (a *API) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, end, ok := requireRange(w, req.StartDate, req.EndDate)
	if !ok || !validTeamID(w, req.TeamID) {
		return
	}
	in := service.ManualScheduleInput{
		Title:        req.Title,
		OriginalGoal: req.OriginalGoal,
		GoalSummary:  req.GoalSummary,
		StartDate:    start,
		EndDate:      end,
		Color:        req.Color,
		TeamID:       req.TeamID,
	}
	for _, f := range req.Floors {
		in.Floors = append(in.Floors, service.FloorDraft{Title: f.Title, ScheduledDate: f.ScheduledDate.ToTimePtr()})
	}
	sched, err := a.Service.CreateManual(r.Context(), userID, in)
	if err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

func (a *API) handleCreateScheduleAI(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req aiScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, end, ok := requireRange(w, req.StartDate, req.EndDate)
	if !ok || !validTeamID(w, req.TeamID) {
		return
	}
	sched, err := a.Service.CreateWithAI(r.Context(), userID, service.AIScheduleInput{
		Goal:      req.Goal,
		Title:     req.Title,
		StartDate: start,
		EndDate:   end,
		Color:     req.Color,
		TeamID:    req.TeamID,
	})
	if err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
}

func (a *API) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	sched, err := a.Service.GetSchedule(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (a *API) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req schedulePatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sched, err := a.Service.UpdateSchedule(r.Context(), userID, id, service.SchedulePatch{
		Title:       req.Title,
		GoalSummary: req.GoalSummary,
		Color:       req.Color,
		StartDate:   req.StartDate.ToTimePtr(),
		EndDate:     req.EndDate.ToTimePtr(),
	})
	if err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusOK, toScheduleResponse(sched))
}

func (a *API) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := a.Service.DeleteSchedule(r.Context(), userID, id); err != nil {
		writeServiceError(w, err, "Schedule")
		return
	}
	writeJSON(w, http.StatusOK, entityResponse{ID: id})
}
