package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/memeservice"
	"github.com/fele-systems/memendex/internal/models"
	"github.com/fele-systems/memendex/internal/sse"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Handler holds API route handlers.
type Handler struct {
	svc    *memeservice.Service
	broker *sse.Broker
}

// NewHandler creates a new Handler. broker may be nil; events are then
// simply not published.
func NewHandler(svc *memeservice.Service, broker *sse.Broker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

func (h *Handler) publish(kind string, id int64) {
	if h.broker != nil {
		h.broker.PublishMemeEvent(kind, id)
	}
}

// memeID extracts the {id} URL parameter.
func memeID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeError maps domain errors onto HTTP statuses: not-found is 404,
// invalid input 400, anything else 500 with the detail kept in the log.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetMeme handles GET /api/memes/{id}.
func (h *Handler) GetMeme(w http.ResponseWriter, r *http.Request) {
	id, err := memeID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid meme id"))
		return
	}
	detail, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		writeError(w, "get meme", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ListMemes handles GET /api/memes/list.
func (h *Handler) ListMemes(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	result, err := h.svc.List(r.Context(), page, size)
	if err != nil {
		writeError(w, "list memes", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SearchMemes handles GET /api/memes/search.
func (h *Handler) SearchMemes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'query' is required"))
		return
	}
	page, size := pageParams(r)
	result, err := h.svc.Search(r.Context(), query, page, size)
	if err != nil {
		writeError(w, "search memes", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Thumbnail handles GET /api/memes/{id}/thumbnail.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := memeID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid meme id"))
		return
	}
	data, contentType, err := h.svc.Thumbnail(r.Context(), id)
	if err != nil {
		writeError(w, "thumbnail", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Preview handles GET /api/memes/{id}/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := memeID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid meme id"))
		return
	}
	rc, contentType, err := h.svc.Preview(r.Context(), id)
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// Download handles GET /api/memes/{id}/download.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := memeID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid meme id"))
		return
	}
	rc, fileName, err := h.svc.Download(r.Context(), id)
	if err != nil {
		writeError(w, "download", err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// Upload handles POST /api/memes/upload (multipart/form-data).
// The "type" field selects the kind: "file" requires a "file" part,
// "link" a "link" field, "note" a "title" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	kind, err := models.KindFromName(r.FormValue("type"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	description := r.FormValue("description")

	var meme models.Meme
	switch kind {
	case models.KindFile:
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("for type `file`, the `file` form-part is required"))
			return
		}
		defer file.Close()
		meme, err = h.svc.SaveFile(r.Context(), header.Filename, description, header.Header.Get("Content-Type"), file)
		if err != nil {
			writeError(w, "upload file", err)
			return
		}
	case models.KindLink:
		link := r.FormValue("link")
		if link == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("for type `link`, the `link` form-part is required"))
			return
		}
		meme, err = h.svc.SaveLink(r.Context(), description, link)
		if err != nil {
			writeError(w, "upload link", err)
			return
		}
	case models.KindNote:
		title := r.FormValue("title")
		if title == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("for type `note`, the `title` form-part is required"))
			return
		}
		meme, err = h.svc.SaveNote(r.Context(), description, title)
		if err != nil {
			writeError(w, "upload note", err)
			return
		}
	}

	h.publish("created", meme.ID)
	writeJSON(w, http.StatusCreated, meme)
}

// Edit handles PATCH /api/memes/edit.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req EditMemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}

	patch := models.MemePatch{
		FileName:    req.FileName,
		Description: req.Description,
		Extension:   req.Extension,
	}
	detail, err := h.svc.Update(r.Context(), req.ID, patch, req.Tags)
	if err != nil {
		writeError(w, "edit meme", err)
		return
	}
	h.publish("updated", req.ID)
	writeJSON(w, http.StatusOK, detail)
}

// SearchTags handles GET /api/tags/search.
func (h *Handler) SearchTags(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	tags, err := h.svc.SearchTags(r.Context(), term)
	if err != nil {
		writeError(w, "search tags", err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// SuggestTags handles GET /api/tags/suggestions. A blank term returns
// the overall most-used tags.
func (h *Handler) SuggestTags(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	usages, err := h.svc.SuggestTags(r.Context(), term, 10)
	if err != nil {
		writeError(w, "suggest tags", err)
		return
	}
	if usages == nil {
		usages = []models.TagUsage{}
	}
	writeJSON(w, http.StatusOK, usages)
}

func pageParams(r *http.Request) (page, size int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	size, _ = strconv.Atoi(q.Get("size"))
	if page < 1 {
		page = 1
	}
	return page, size
}
