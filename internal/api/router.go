package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/chemid/internal/lookup"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *lookup.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Name lookups.
	r.Get("/compounds/{name}", h.GetCompound)
	r.Get("/compounds/{name}/identity", h.ResolveIdentity)
	r.Get("/compounds/{name}/synonyms", h.GetSynonyms)
	r.Get("/compounds/{name}/cid", h.GetCompoundCID)

	// Identifier lookups.
	r.Get("/cids/{cid}/parent", h.GetParentCID)
	r.Get("/cids/{cid}/title", h.GetTitle)

	// Batched lookups.
	r.Get("/descriptions", h.GetDescriptions)
	r.Post("/titles", h.PostTitles)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
