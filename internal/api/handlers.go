package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/models"
	"github.com/starford/chemid/internal/parser"
)

// Handler holds API route handlers.
type Handler struct {
	svc *lookup.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *lookup.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns a decoded route parameter. Encoded slashes
// (e.g. "a%2Fb") reach the handler in raw form.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ResolveIdentity handles GET /api/compounds/{name}/identity.
//
//	@Summary		Resolve a compound name into its identity chain
//	@Tags			compounds
//	@Produce		json
//	@Param			name		path		string	true	"Compound name"
//	@Param			oldest		query		bool	false	"Order records by ascending CID first"
//	@Param			name_types	query		string	false	"Comma-separated name-type priority"
//	@Success		200			{object}	Identity
//	@Failure		404			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compounds/{name}/identity [get]
func (h *Handler) ResolveIdentity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts lookup.ResolveOptions
	if raw := q.Get("oldest"); raw != "" {
		oldest, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'oldest' must be a boolean"))
			return
		}
		opts.Oldest = oldest
	}
	opts.NameTypes = models.ParseNameTypes(q.Get("name_types"))

	id, err := h.svc.Resolve(r.Context(), pathParam(r, "name"), opts)
	if err != nil {
		writeError(w, r, "resolve identity", err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// GetCompound handles GET /api/compounds/{name}.
//
//	@Summary		Get the raw compound record list
//	@Tags			compounds
//	@Produce		json
//	@Param			name	path		string	true	"Compound name"
//	@Success		200		{object}	models.Compound
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compounds/{name} [get]
func (h *Handler) GetCompound(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Compound(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "get compound", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// GetSynonyms handles GET /api/compounds/{name}/synonyms.
//
//	@Summary		List synonyms of a compound
//	@Tags			compounds
//	@Produce		json
//	@Param			name	path		string	true	"Compound name"
//	@Success		200		{object}	models.Synonyms
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compounds/{name}/synonyms [get]
func (h *Handler) GetSynonyms(w http.ResponseWriter, r *http.Request) {
	syn, err := h.svc.Synonyms(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "get synonyms", err)
		return
	}
	writeJSON(w, http.StatusOK, syn)
}

// GetCompoundCID handles GET /api/compounds/{name}/cid.
//
//	@Summary		Look up the identifier of a compound name
//	@Tags			compounds
//	@Produce		json
//	@Param			name	path		string	true	"Compound name"
//	@Success		200		{object}	CIDResponse
//	@Failure		404		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compounds/{name}/cid [get]
func (h *Handler) GetCompoundCID(w http.ResponseWriter, r *http.Request) {
	cid, err := h.svc.CID(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeError(w, r, "get compound cid", err)
		return
	}
	writeJSON(w, http.StatusOK, CIDResponse{CID: cid})
}

// GetParentCID handles GET /api/cids/{cid}/parent.
//
//	@Summary		Look up the parent identifier
//	@Tags			cids
//	@Produce		json
//	@Param			cid	path		string	true	"Compound identifier"
//	@Success		200	{object}	ParentResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cids/{cid}/parent [get]
func (h *Handler) GetParentCID(w http.ResponseWriter, r *http.Request) {
	cid := pathParam(r, "cid")
	parent, err := h.svc.ParentCID(r.Context(), cid)
	if err != nil {
		writeError(w, r, "get parent cid", err)
		return
	}
	writeJSON(w, http.StatusOK, ParentResponse{CID: cid, Parent: parent})
}

// GetTitle handles GET /api/cids/{cid}/title.
//
//	@Summary		Get the title of an identifier
//	@Tags			cids
//	@Produce		json
//	@Param			cid	path		string	true	"Compound identifier"
//	@Success		200	{object}	TitleResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cids/{cid}/title [get]
func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	cid := pathParam(r, "cid")
	title, err := h.svc.Title(r.Context(), cid)
	if err != nil {
		writeError(w, r, "get title", err)
		return
	}
	writeJSON(w, http.StatusOK, TitleResponse{CID: cid, Title: title})
}

// GetDescriptions handles GET /api/descriptions.
//
//	@Summary		Fetch description records for identifiers
//	@Tags			cids
//	@Produce		json
//	@Param			cids	query		string	true	"Comma-separated identifiers"
//	@Success		200		{object}	DescriptionsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/descriptions [get]
func (h *Handler) GetDescriptions(w http.ResponseWriter, r *http.Request) {
	cids := parser.SplitList(r.URL.Query().Get("cids"))
	if len(cids) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'cids' is required"))
		return
	}
	ds, err := h.svc.Descriptions(r.Context(), cids)
	if err != nil {
		writeError(w, r, "get descriptions", err)
		return
	}
	writeJSON(w, http.StatusOK, DescriptionsResponse{Descriptions: ds})
}

// PostTitles handles POST /api/titles.
//
// The body is either JSON ({"cids": [...]}) or, with a text/plain or YAML
// content type, an identifier list.
//
//	@Summary		Fetch titles for identifiers
//	@Tags			cids
//	@Accept			json
//	@Accept			plain
//	@Produce		json
//	@Param			body	body		TitlesRequest	true	"Identifiers"
//	@Success		200		{object}	TitlesResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/titles [post]
func (h *Handler) PostTitles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var cids []string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/plain", "application/yaml", "application/x-yaml", "text/yaml":
		res, err := parser.Parse(body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		cids = res.Items
	default:
		var req TitlesRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
		cids = req.CIDs
	}

	res, err := h.svc.Titles(r.Context(), cids)
	if err != nil {
		writeError(w, r, "post titles", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
