package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"oriemap-backend/internal/models"
	"oriemap-backend/internal/repository"
	"oriemap-backend/internal/services"
)

type MajorHandler struct {
	majorRepo     *repository.MajorRepo
	geminiService *services.GeminiService
}

func NewMajorHandler(majorRepo *repository.MajorRepo, geminiService *services.GeminiService) *MajorHandler {
	return &MajorHandler{
		majorRepo:     majorRepo,
		geminiService: geminiService,
	}
}

func (h *MajorHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 20
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}

	filter := repository.MajorFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Block:    q.Get("block"),
		Location: q.Get("location"),
		Type:     q.Get("type"),
		Demand:   q.Get("demand"),
		SortBy:   q.Get("sort_by"),
		Limit:    limit,
		Offset:   offset,
	}

	majors, total, err := h.majorRepo.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"majors": majors,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *MajorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	major, err := h.majorRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Major not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, major)
}

// Suggest asks Gemini to rank catalogue entries against a free-text query
// such as "em thích vẽ và thiết kế". Queries shorter than two characters
// return an empty list without calling the model.
func (h *MajorHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req models.MajorSuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	majors, err := h.majorRepo.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	suggestions, err := h.geminiService.SuggestMajors(r.Context(), req.Query, majors)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("AI_ERROR", "Failed to get AI suggestions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}
