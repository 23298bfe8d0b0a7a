package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"oriemap-backend/internal/middleware"
	"oriemap-backend/internal/models"
	"oriemap-backend/internal/repository"
)

type DashboardHandler struct {
	majorRepo *repository.MajorRepo
	examRepo  *repository.ExamRepo
}

func NewDashboardHandler(majorRepo *repository.MajorRepo, examRepo *repository.ExamRepo) *DashboardHandler {
	return &DashboardHandler{
		majorRepo: majorRepo,
		examRepo:  examRepo,
	}
}

// Saved majors

func (h *DashboardHandler) ListSavedMajors(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	majors, err := h.majorRepo.ListSaved(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"majors": majors})
}

func (h *DashboardHandler) SaveMajor(w http.ResponseWriter, r *http.Request) {
	majorID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	// Make sure the catalogue entry exists before bookmarking it
	if _, err := h.majorRepo.GetByID(r.Context(), majorID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Major not found", r))
		return
	}

	if err := h.majorRepo.Save(r.Context(), userID, majorID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Major saved"})
}

func (h *DashboardHandler) UnsaveMajor(w http.ResponseWriter, r *http.Request) {
	majorID := chi.URLParam(r, "id")
	userID := middleware.GetUserID(r.Context())

	if err := h.majorRepo.Unsave(r.Context(), userID, majorID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Major removed"})
}

// Exam schedule

func (h *DashboardHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	exams, err := h.examRepo.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"exams": exams})
}

func (h *DashboardHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req models.ExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateExamRequest(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	exam := &models.Exam{
		UserID:   middleware.GetUserID(r.Context()),
		Subject:  req.Subject,
		Date:     req.Date,
		Time:     req.Time,
		Room:     req.Room,
		Building: req.Building,
	}

	if err := h.examRepo.Create(r.Context(), exam); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, exam)
}

func (h *DashboardHandler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid exam ID", r))
		return
	}

	var req models.ExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if fields := validateExamRequest(req); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.examRepo.Update(r.Context(), id, userID, req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Exam updated"})
}

func (h *DashboardHandler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid exam ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.examRepo.Delete(r.Context(), id, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Exam deleted"})
}

func validateExamRequest(req models.ExamRequest) map[string]string {
	fields := make(map[string]string)

	if req.Subject == "" {
		fields["subject"] = "Subject is required"
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		fields["date"] = "Date must be in YYYY-MM-DD format"
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		fields["time"] = "Time must be in HH:MM format"
	}

	return fields
}
