package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/eltiw/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/meta", h.Meta)
		r.Post("/boards", h.CreateBoard)
		r.Post("/import", h.ImportBoard)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/board", h.GetBoard)
			r.Delete("/board", h.DeleteBoard)
			r.Delete("/board/data", h.ClearData)
			r.Post("/board/sample", h.LoadSampleData)
			r.Get("/dashboard", h.GetDashboard)

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", h.ListGoals)
				r.Post("/", h.CreateGoal)
				r.Get("/stats", h.GetGoalStats)
				r.Get("/{goalID}", h.GetGoal)
				r.Patch("/{goalID}", h.UpdateGoal)
				r.Delete("/{goalID}", h.DeleteGoal)
				r.Post("/{goalID}/progress", h.AddProgress)
				r.Post("/{goalID}/toggle", h.ToggleGoal)
			})

			r.Route("/loans", func(r chi.Router) {
				r.Get("/", h.ListLoans)
				r.Post("/", h.CreateLoan)
				r.Get("/stats", h.GetLoanStats)
				r.Get("/{loanID}", h.GetLoan)
				r.Patch("/{loanID}", h.UpdateLoan)
				r.Delete("/{loanID}", h.DeleteLoan)
				r.Post("/{loanID}/payments", h.AddPayment)
				r.Post("/{loanID}/toggle", h.ToggleLoan)
			})

			r.Get("/share", h.GetShareLink)
			r.Post("/share/email", h.SendSnapshot)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
