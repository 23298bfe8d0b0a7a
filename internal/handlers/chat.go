package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"oriemap-backend/internal/middleware"
	"oriemap-backend/internal/models"
	"oriemap-backend/internal/services"
)

type ChatHandler struct {
	mentorService *services.MentorService
}

func NewChatHandler(mentorService *services.MentorService) *ChatHandler {
	return &ChatHandler{mentorService: mentorService}
}

// SendMessage submits one mentor turn. Partial reply snapshots are fanned
// out over the user's WebSocket connection while the call is in flight; the
// HTTP response carries the final result. When the model fails on an
// existing session the response still succeeds with degraded=true and the
// fallback reply.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	result, err := h.mentorService.SendTurn(r.Context(), userID, req.SessionID, req.Message, nil)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		case errors.Is(err, services.ErrTurnInFlight):
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A reply is already being generated for this conversation", r))
		case errors.Is(err, services.ErrMentorUnavailable):
			if result != nil {
				writeJSON(w, http.StatusOK, result)
				return
			}
			writeJSON(w, http.StatusBadGateway, errorResp("AI_ERROR", "Failed to get AI response", r))
		default:
			handleServiceError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessions, err := h.mentorService.ListSessions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	session, err := h.mentorService.GetSession(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *ChatHandler) RenameSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	var req models.RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.mentorService.RenameSession(r.Context(), userID, id, req.Title); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session renamed"})
}

func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.mentorService.DeleteSession(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

func (h *ChatHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	session, err := h.mentorService.ClearSession(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Greeting is public so the chat UI can render the opening message before
// the user signs in or starts a session.
func (h *ChatHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.mentorService.Greeting())
}
