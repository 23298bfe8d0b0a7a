package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"oriemap-backend/internal/handlers"
	"oriemap-backend/internal/middleware"
	"oriemap-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	majorHandler *handlers.MajorHandler,
	roadmapHandler *handlers.RoadmapHandler,
	quizHandler *handlers.QuizHandler,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	// Mentor turns are expensive, cap them tighter (20 req/min per IP)
	chatLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Mentor Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Get("/greeting", chatHandler.Greeting) // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.With(chatLimiter.Middleware).Post("/send", chatHandler.SendMessage)
				r.Get("/sessions", chatHandler.ListSessions)
				r.Get("/sessions/{id}", chatHandler.GetSession)
				r.Put("/sessions/{id}", chatHandler.RenameSession)
				r.Delete("/sessions/{id}", chatHandler.DeleteSession)
				r.Post("/sessions/{id}/clear", chatHandler.ClearSession)
			})
		})

		// ──── Major Catalogue Routes ────
		r.Route("/majors", func(r chi.Router) {
			r.Get("/", majorHandler.List)       // Public
			r.Get("/{id}", majorHandler.Get)    // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/suggest", majorHandler.Suggest)
			})
		})

		// ──── Roadmap Routes ────
		r.Route("/roadmaps", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", roadmapHandler.Generate)
			r.Get("/", roadmapHandler.List)
			r.Get("/{id}", roadmapHandler.Get)
			r.Delete("/{id}", roadmapHandler.Delete)
		})

		// ──── Quiz Routes ────
		r.Route("/quiz", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/questions", quizHandler.Questions)
			r.Post("/submit", quizHandler.Submit)
			r.Get("/result", quizHandler.LatestResult)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Route("/saved-majors", func(r chi.Router) {
				r.Get("/", dashboardHandler.ListSavedMajors)
				r.Post("/{id}", dashboardHandler.SaveMajor)
				r.Delete("/{id}", dashboardHandler.UnsaveMajor)
			})

			r.Route("/exams", func(r chi.Router) {
				r.Get("/", dashboardHandler.ListExams)
				r.Post("/", dashboardHandler.CreateExam)
				r.Put("/{id}", dashboardHandler.UpdateExam)
				r.Delete("/{id}", dashboardHandler.DeleteExam)
			})
		})

		// ──── User & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.GetJob)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
