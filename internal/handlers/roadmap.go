package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"oriemap-backend/internal/middleware"
	"oriemap-backend/internal/models"
	"oriemap-backend/internal/repository"
)

type RoadmapHandler struct {
	roadmapRepo *repository.RoadmapRepo
	jobRepo     *repository.JobRepo
	redis       *redis.Client
}

func NewRoadmapHandler(roadmapRepo *repository.RoadmapRepo, jobRepo *repository.JobRepo, redisClient *redis.Client) *RoadmapHandler {
	return &RoadmapHandler{
		roadmapRepo: roadmapRepo,
		jobRepo:     jobRepo,
		redis:       redisClient,
	}
}

// Generate creates a pending roadmap and queues the generation job. The
// worker fills in the stages and pushes progress over WebSocket; clients
// poll GET /roadmaps/{id} or wait for the completed event.
func (h *RoadmapHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRoadmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.Grade == "" {
		fieldErrors["grade"] = "Grade is required"
	}
	if req.TargetMajor == "" {
		fieldErrors["target_major"] = "Target major is required"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	roadmap := &models.Roadmap{
		UserID:       userID,
		Grade:        req.Grade,
		Performance:  req.Performance,
		TargetMajor:  req.TargetMajor,
		TargetSchool: req.TargetSchool,
	}
	if err := h.roadmapRepo.Create(r.Context(), roadmap); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create roadmap", r))
		return
	}

	configBytes, _ := json.Marshal(req)

	job := &models.Job{
		UserID:      userID,
		Type:        "roadmap-generation",
		ReferenceID: roadmap.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if h.redis == nil {
		_ = h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Roadmap queue is unavailable", r))
		return
	}

	if err := h.redis.LPush(r.Context(), "queue:roadmap-generation", string(jobBytes)).Err(); err != nil {
		log.Printf("failed to enqueue roadmap-generation job %s: %v", job.ID, err)
		_ = h.jobRepo.UpdateStatus(r.Context(), job.ID, "failed")
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue roadmap job", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":     job.ID,
		"roadmap_id": roadmap.ID,
	})
}

func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid roadmap ID", r))
		return
	}

	roadmap, err := h.roadmapRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Roadmap not found", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	if roadmap.UserID != middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Access denied", r))
		return
	}

	writeJSON(w, http.StatusOK, roadmap)
}

func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	roadmaps, err := h.roadmapRepo.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"roadmaps": roadmaps})
}

func (h *RoadmapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid roadmap ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.roadmapRepo.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Roadmap deleted"})
}
