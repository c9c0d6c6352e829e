package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/service"
)

type DocumentHandler struct {
	service *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

func (h *DocumentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/documents", requireIdentity(h.Create))
	mux.HandleFunc("GET /v1/documents", requireIdentity(h.List))
	mux.HandleFunc("GET /v1/documents/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/documents/{id}", requireIdentity(h.Update))
	mux.HandleFunc("DELETE /v1/documents/{id}", requireIdentity(h.Delete))
	mux.HandleFunc("DELETE /v1/documents/{id}/erase", requireIdentity(h.Erase))
	mux.HandleFunc("GET /v1/documents/{id}/versions", h.Versions)
	mux.HandleFunc("POST /v1/documents/{id}/versions/{number}/restore", requireIdentity(h.Restore))
	mux.HandleFunc("GET /v1/documents/{id}/activities", h.DocumentFeed)
	mux.HandleFunc("POST /v1/documents/{id}/summarize", requireIdentity(h.ForceSummarize))
	mux.HandleFunc("POST /v1/documents/{id}/tags", requireIdentity(h.ForceTags))
	mux.HandleFunc("GET /v1/activities", h.Feed)
}

type createRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(service.KindValidation), "invalid request body")
		return
	}

	doc, err := h.service.Create(r.Context(), callerIdentity(r), service.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

type updateRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(service.KindValidation), "invalid request body")
		return
	}

	doc, err := h.service.Update(r.Context(), callerIdentity(r), r.PathValue("id"), service.UpdatePatch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), callerIdentity(r), pagination(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": page.Documents,
		"total":     page.Total,
		"hasMore":   page.HasMore,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), callerIdentity(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *DocumentHandler) Erase(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Erase(r.Context(), callerIdentity(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"erased": true})
}

func (h *DocumentHandler) Versions(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Versions(r.Context(), r.PathValue("id"), pagination(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"versions": page.Versions,
		"total":    page.Total,
		"hasMore":  page.HasMore,
	})
}

func (h *DocumentHandler) Restore(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseInt(r.PathValue("number"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(service.KindValidation), "invalid version number")
		return
	}

	doc, err := h.service.Restore(r.Context(), callerIdentity(r), r.PathValue("id"), number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ForceSummarize(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ForceSummarize(r.Context(), callerIdentity(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *DocumentHandler) ForceTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ForceTags(r.Context(), callerIdentity(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *DocumentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Feed(r.Context(), pagination(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activities": page.Activities,
		"total":      page.Total,
		"hasMore":    page.HasMore,
	})
}

func (h *DocumentHandler) DocumentFeed(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.DocumentFeed(r.Context(), r.PathValue("id"), pagination(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"activities": page.Activities,
		"total":      page.Total,
		"hasMore":    page.HasMore,
	})
}

func pagination(r *http.Request) service.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return service.Pagination{Page: page, Size: size}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]string{"kind": kind, "message": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindForbidden:
		status = http.StatusForbidden
	case service.KindConflict:
		status = http.StatusConflict
	}

	message := "the operation could not be completed"
	var e *service.Error
	if errors.As(err, &e) {
		message = e.Message
	}

	writeError(w, status, string(kind), message)
}
