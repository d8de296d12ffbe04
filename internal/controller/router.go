package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIDMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		// pull mode: periodic GETs of room state, commands as plain POSTs
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", c.joinRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/", c.getRoomState)
				r.Get("/sync", c.requestSync)
				r.Delete("/participants/self", c.leaveRoom)
				r.Post("/source", c.setSource)
				r.Post("/play", c.play)
				r.Post("/pause", c.pause)
				r.Post("/seek", c.seek)
				r.Post("/rate", c.setRate)
				r.Post("/messages", c.postMessage)
			})
		})

		// push mode: persistent duplex channel per member
		r.Route("/ws/rooms", func(r chi.Router) {
			r.Get("/create", c.wsCreateRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/join", c.wsJoinRoom)
			})
		})
	})

	return r
}
