package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(pollHandler *PollHandler, voteHandler *VoteHandler, suggestionHandler *SuggestionHandler, jwtSecret []byte) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	auth := AuthMiddleware(jwtSecret)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Route("/suggestions", func(r chi.Router) {
			r.Use(auth)
			r.Post("/", suggestionHandler.Submit)
			r.Get("/next", suggestionHandler.NextApproved)
			r.Get("/{id}", suggestionHandler.GetSuggestion)
		})

		r.Route("/polls/{id}", func(r chi.Router) {
			r.Use(auth)
			r.Get("/", pollHandler.GetPoll)
			r.Get("/suggestion", pollHandler.GetPollSuggestion)
			r.Get("/tally", pollHandler.Tally)

			r.Post("/votes", voteHandler.VoteOnPoll)
			r.Delete("/votes", voteHandler.Unvote)
			r.Post("/cancel", pollHandler.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(RequireFacilitator)
				r.Post("/close", pollHandler.Close)
				r.Post("/archive", pollHandler.Archive)
			})
		})
	})

	return r
}
