package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/quizforge/quizforge/internal/api/http"
	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db"
	"github.com/quizforge/quizforge/internal/grading"
	"github.com/quizforge/quizforge/internal/joincode"
	"github.com/quizforge/quizforge/internal/llm"
	"github.com/quizforge/quizforge/internal/quiz"
	"github.com/quizforge/quizforge/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	// --- Grading ---
	pool := llm.NewPool(cfg.AIAPIKeys, cfg.AIBaseURL, cfg.AIModel)
	subjective := grading.NewSubjective(pool)
	if len(pool) == 0 {
		log.Printf("no AI credentials configured; essay answers will need manual grading")
	}

	svc := quiz.NewService(store, joincode.New(cfg.CodeSecret), subjective)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", auth.RegisterHandler(authSvc, dbh))
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Post("/auth/guest", auth.GuestLoginHandler(authSvc, cfg.EnableGuestAuth))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Creator: authoring and review
		pr.With(rbac.Require("test:create")).
			Post("/tests", api.CreateTestHandler(svc))
		pr.With(rbac.Require("test:create")).
			Get("/tests", api.ListTestsHandler(svc))
		pr.With(rbac.Require("test:update")).
			Get("/tests/{testID}", api.GetTestHandler(svc))
		pr.With(rbac.Require("test:update")).
			Put("/questions/{questionID}", api.UpdateQuestionHandler(svc))
		pr.With(rbac.Require("test:update")).
			Post("/tests/{testID}/accepting", api.SetAcceptResponsesHandler(svc))
		pr.With(rbac.Require("participants:list")).
			Get("/tests/{testID}/participants", api.ListParticipantsHandler(svc))
		pr.With(rbac.Require("results:view")).
			Get("/participants/{participantID}/review", api.ReviewAnswersHandler(svc))
		pr.With(rbac.Require("answer:grade")).
			Put("/answers/{answerID}/grade", api.GradeManuallyHandler(svc))

		// Participant flow
		pr.With(rbac.Require("test:view")).
			Get("/join/{code}", api.PreviewTestHandler(svc))
		pr.With(rbac.Require("test:join")).
			Post("/join/{code}", api.JoinHandler(svc))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/session/{participantID}", api.SessionHandler(svc))
		pr.With(rbac.Require("answer:submit")).
			Put("/answers/{answerID}/essay", api.SubmitEssayHandler(svc))
		pr.With(rbac.Require("answer:submit")).
			Put("/answers/{answerID}/choice", api.SubmitChoiceHandler(svc))
		pr.With(rbac.Require("answer:submit")).
			Put("/answers/{answerID}/multiselect", api.SubmitMultiSelectHandler(svc))
		pr.With(rbac.Require("attempt:complete")).
			Post("/session/{participantID}/complete", api.CompleteHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
