package router

import (
	"net/http"

	"euphro-assets/internal/http-server/handler/document"
	"euphro-assets/internal/http-server/handler/image"
	"euphro-assets/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ImageHandler    *image.ImageHandler
	DocumentHandler *document.DocumentHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Post("/", h.ImageHandler.Upload)
			r.Get("/crop", h.ImageHandler.Crop)
			r.Post("/markers", h.ImageHandler.Markers)
			r.Post("/annotate", h.ImageHandler.Annotate)
		})

		r.Post("/projects/{project}/documents", h.DocumentHandler.Upload)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
