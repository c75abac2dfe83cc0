package http

import (
	"net/http"
	"time"

	"floorida/internal/models"

	"github.com/go-chi/chi/v5"
)

type dayFloorResponse struct {
	floorResponse
	ScheduleTitle string `json:"schedule_title"`
	ScheduleColor string `json:"schedule_color"`
	Completed     bool   `json:"completed"`
}

type completeResponse struct {
	FloorID       string `json:"floor_id"`
	Earned        int    `json:"earned"`
	Points        int    `json:"points"`
	PersonalLevel int    `json:"personal_level"`
	CompletedAt   string `json:"completed_at"`
}

func writeDayFloors(w http.ResponseWriter, floors []models.DayFloor) {
	out := make([]dayFloorResponse, 0, len(floors))
	for _, f := range floors {
		out = append(out, dayFloorResponse{
			floorResponse: toFloorResponse(f.Floor),
			ScheduleTitle: f.ScheduleTitle,
			ScheduleColor: f.ScheduleColor,
			Completed:     f.Completed,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"floors": out})
}

func (a *API) handleTodayFloors(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	floors, err := a.Service.ListTodayFloors(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err, "Floor")
		return
	}
	writeDayFloors(w, floors)
}

func (a *API) handleFloorsByDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	date, err := models.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Date must be YYYY-MM-DD")
		return
	}
	floors, err := a.Service.ListFloorsByDate(r.Context(), userID, date)
	if err != nil {
		writeServiceError(w, err, "Floor")
		return
	}
	writeDayFloors(w, floors)
}

func (a *API) handleCompleteFloor(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	res, err := a.Service.CompleteFloor(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err, "Floor")
		return
	}
	resp := completeResponse{
		FloorID:       id,
		Earned:        res.Earned,
		Points:        res.Profile.Points,
		PersonalLevel: res.Profile.PersonalLevel,
	}
	if res.Completion.CompletedAt != nil {
		resp.CompletedAt = res.Completion.CompletedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}
