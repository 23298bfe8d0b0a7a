package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"oriemap-backend/internal/middleware"
	"oriemap-backend/internal/models"
	"oriemap-backend/internal/repository"
)

type QuizHandler struct {
	quizRepo *repository.QuizRepo
}

func NewQuizHandler(quizRepo *repository.QuizRepo) *QuizHandler {
	return &QuizHandler{quizRepo: quizRepo}
}

// recommendedFields maps the dominant answer trait to the field shown on
// the result screen.
var recommendedFields = map[string]string{
	"analyst":  "Khoa học dữ liệu và phân tích",
	"logical":  "Công nghệ thông tin",
	"tech":     "Công nghệ thông tin",
	"creative": "Nghệ thuật và thiết kế",
	"art":      "Nghệ thuật và thiết kế",
	"social":   "Khoa học xã hội và nhân văn",
	"business": "Kinh tế và quản trị",
}

func (h *QuizHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.quizRepo.ListQuestions(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	questions, err := h.quizRepo.ListQuestions(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if len(req.Answers) != len(questions) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"answers": "Every question must be answered"}, r))
		return
	}

	result := &models.QuizResult{
		UserID:           middleware.GetUserID(r.Context()),
		Answers:          req.Answers,
		RecommendedField: scoreAnswers(req.Answers),
	}

	if err := h.quizRepo.SaveResult(r.Context(), result); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *QuizHandler) LatestResult(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	result, err := h.quizRepo.LatestResult(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No quiz result yet", r))
			return
		}
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// scoreAnswers picks the most frequent trait; ties go to the trait that
// reached the top count first, keeping the result stable for a given
// answer order.
func scoreAnswers(answers []string) string {
	counts := make(map[string]int)
	best := ""
	bestCount := 0

	for _, a := range answers {
		counts[a]++
		if counts[a] > bestCount {
			best = a
			bestCount = counts[a]
		}
	}

	if field, ok := recommendedFields[best]; ok {
		return field
	}
	return "Chưa xác định"
}
