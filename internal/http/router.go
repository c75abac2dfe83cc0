package http

import (
	"net/http"
	"time"

	"floorida/internal/auth"
	"floorida/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type API struct {
	Service *service.Service
	Auth    *auth.Manager
	Origins []string
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", a.handleRegister)
			r.Post("/login", a.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.authMiddleware)
			r.Route("/me", func(r chi.Router) {
				r.Get("/", a.handleMe)
				r.Get("/points", a.handlePoints)
				r.Get("/profile", a.handleProfile)
				r.Post("/onboarding", a.handleOnboarding)
				r.Get("/transactions", a.handleListTransactions)
			})
			r.Get("/characters/me", a.handleCharacter)

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", a.handleListSchedules)
				r.Post("/", a.handleCreateSchedule)
				r.Post("/ai", a.handleCreateScheduleAI)
				r.Get("/{id}", a.handleGetSchedule)
				r.Patch("/{id}", a.handleUpdateSchedule)
				r.Delete("/{id}", a.handleDeleteSchedule)
			})
			r.Route("/floors", func(r chi.Router) {
				r.Get("/today", a.handleTodayFloors)
				r.Get("/date/{date}", a.handleFloorsByDate)
				r.Post("/{id}/complete", a.handleCompleteFloor)
			})
		})
	})

	return r
}
