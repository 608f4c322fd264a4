package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fele-systems/memendex/internal/memeservice"
	"github.com/fele-systems/memendex/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// broker, if non-nil, is published to on mutations and mounted at
// GET /events inside the auth group.
func NewRouter(svc *memeservice.Service, authEnabled bool, token string, broker *sse.Broker) chi.Router {
	h := NewHandler(svc, broker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/memes", func(r chi.Router) {
		r.Get("/list", h.ListMemes)
		r.Get("/search", h.SearchMemes)
		r.Post("/upload", h.Upload)
		r.Patch("/edit", h.Edit)
		r.Get("/{id}", h.GetMeme)
		r.Get("/{id}/thumbnail", h.Thumbnail)
		r.Get("/{id}/preview", h.Preview)
		r.Get("/{id}/download", h.Download)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/search", h.SearchTags)
		r.Get("/suggestions", h.SuggestTags)
	})

	if broker != nil {
		r.Method(http.MethodGet, "/events", broker)
	}

	return r
}
