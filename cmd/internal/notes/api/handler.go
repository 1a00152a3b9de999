// Package notesapi serves the note endpoints for authenticated callers.
package notesapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/guard"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/notes"
)

const maxBodyBytes int64 = 512 << 10

type Handler struct {
	log   *slog.Logger
	notes *notes.Service
	guard *guard.Guard
}

func NewHandler(log *slog.Logger, svc *notes.Service, g *guard.Guard) (*Handler, error) {
	if svc == nil || g == nil {
		return nil, errors.New("notesapi: nil dependency")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, notes: svc, guard: g}, nil
}

// Register wires note routes onto mux. Every route requires a principal.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.Handle("/api/notes/all", h.guard.Wrap(h.handleList))
	mux.Handle("/api/notes/get", h.guard.Wrap(h.handleGet))
	mux.Handle("/api/notes/create", h.guard.Wrap(h.handleCreate))
	mux.Handle("/api/notes/update", h.guard.Wrap(h.handleUpdate))
	mux.Handle("/api/notes/delete", h.guard.Wrap(h.handleDelete))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w, http.MethodGet)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())

	list, err := h.notes.List(r.Context(), p.Email)
	if err != nil {
		h.writeServiceError(w, r, "notes.list.fail", err)
		return
	}
	out := make([]noteResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNoteResponse(n))
	}
	httpx.WriteJSON(w, http.StatusOK, listEnvelope{Success: true, Notes: out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w, http.MethodGet)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())

	n, err := h.notes.Get(r.Context(), p.Email, mobileIDParam(r))
	if err != nil {
		h.writeServiceError(w, r, "notes.get.fail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteEnvelope{Success: true, Note: toNoteResponse(n)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())
	var req createRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.notes.Create(r.Context(), p.Email, notes.CreateInput{
		MobileID:   req.MobileID,
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
		Categories: req.Categories,
	})
	if err != nil {
		h.writeServiceError(w, r, "notes.create.fail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, noteEnvelope{Success: true, Note: toNoteResponse(n)})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httpx.MethodNotAllowed(w, http.MethodPut)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())
	var req updateRequest
	if !decode(w, r, &req) {
		return
	}

	n, err := h.notes.Update(r.Context(), p.Email, req.MobileID, req.patch())
	if err != nil {
		h.writeServiceError(w, r, "notes.update.fail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, noteEnvelope{Success: true, Note: toNoteResponse(n)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httpx.MethodNotAllowed(w, http.MethodDelete)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())

	if err := h.notes.Delete(r.Context(), p.Email, mobileIDParam(r)); err != nil {
		h.writeServiceError(w, r, "notes.delete.fail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "note deleted"})
}

func mobileIDParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("noteIdMobile"))
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	if err := httpx.ValidateStruct(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var fe *notes.FieldError
	switch {
	case errors.As(err, &fe):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", fe.Error())
	case errors.Is(err, notes.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, notes.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "note not found")
	case errors.Is(err, notes.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "a note with this noteIdMobile already exists")
	case errors.Is(err, context.Canceled):
	default:
		h.log.ErrorContext(r.Context(), msg, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
