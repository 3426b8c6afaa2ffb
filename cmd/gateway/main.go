package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/petitmaker/training-backend/internal/api/http"
	"github.com/petitmaker/training-backend/internal/audit"
	auth "github.com/petitmaker/training-backend/internal/auth/middleware"
	"github.com/petitmaker/training-backend/internal/config"
	"github.com/petitmaker/training-backend/internal/db"
	"github.com/petitmaker/training-backend/internal/document"
	"github.com/petitmaker/training-backend/internal/learner"
	"github.com/petitmaker/training-backend/internal/pdf"
	"github.com/petitmaker/training-backend/internal/progress"
	"github.com/petitmaker/training-backend/internal/questionnaire"
	"github.com/petitmaker/training-backend/internal/rbac"
	"github.com/petitmaker/training-backend/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	var logger *zap.Logger
	var err error
	if cfg.Mode == config.ModeProd {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}

	// --- Stores & services ---
	learnerStore := learner.NewSQLStore(dbh)
	qStore := questionnaire.NewSQLStore(dbh)
	docStore := document.NewSQLStore(dbh)
	events := audit.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath, publicFilesBase(cfg))
	if err != nil {
		logger.Fatal("blob store", zap.Error(err))
	}
	renderer := pdf.NewHTTPRenderer(cfg.PDFRenderURL, cfg.PDFRenderTimeout)

	qSvc := questionnaire.NewService(qStore, learnerStore, events, logger)
	docSvc := document.NewService(docStore, learnerStore, bs, renderer, events, logger)
	tracker := progress.NewTracker(learnerStore, qStore, logger)
	watches := api.NewWatchRegistry()

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, learnerStore, cfg.AdminUser, cfg.AdminPassHash))

	// blob serving (protected)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/files", func(fr chi.Router) {
			api.MountFiles(fr, bs)
		})
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Learner lifecycle
		pr.With(rbac.Require("progress:view")).
			Get("/progress", api.GetProgressHandler(tracker))
		pr.With(rbac.Require("progress:view")).
			Get("/progress/watch", api.WatchProgressHandler(tracker, watches, cfg.RefreshInterval))
		pr.With(rbac.Require("questionnaire:submit")).
			Post("/progress/internal-rules/acknowledge", api.AcknowledgeRulesHandler(tracker))

		pr.With(rbac.Require("questionnaire:view")).
			Get("/questionnaires/{category}", api.ActiveTemplateHandler(qSvc))
		pr.With(rbac.Require("questionnaire:submit")).
			Post("/responses", api.SubmitResponseHandler(qSvc))
		pr.With(rbac.Require("questionnaire:view")).
			Get("/responses", api.MyResponsesHandler(qSvc))

		pr.With(rbac.Require("document:view")).
			Get("/documents", api.ListDocumentsHandler(docStore))
		pr.With(rbac.Require("document:view")).
			Get("/documents/{docType}", api.ResolveDocumentHandler(docSvc))
		pr.With(rbac.Require("document:sign")).
			Post("/documents/{docType}/sign", api.SignDocumentHandler(docSvc))
		pr.With(rbac.Require("document:sign")).
			Post("/documents/{docType}/regenerate", api.RegenerateDocumentHandler(docSvc))
		pr.With(rbac.Require("document:view")).
			Post("/documents/view/open", api.OpenDocumentViewHandler(watches))
		pr.With(rbac.Require("document:view")).
			Post("/documents/view/close", api.CloseDocumentViewHandler(watches))

		// Trainer/admin surfaces
		pr.With(rbac.Require("template:manage")).
			Post("/admin/templates", api.SaveTemplateHandler(qStore))
		pr.With(rbac.Require("template:manage")).
			Get("/admin/trainings/{trainingID}/templates", api.ListTemplatesHandler(qStore))
		pr.With(rbac.Require("learner:list")).
			Get("/admin/learners", api.ListLearnersHandler(learnerStore))
		pr.With(rbac.Require("learner:manage")).
			Post("/admin/learners", api.UpsertLearnerHandler(learnerStore))
		pr.With(rbac.Require("company:manage")).
			Post("/admin/companies", api.UpsertCompanyHandler(learnerStore))
		pr.With(rbac.Require("company:manage")).
			Post("/admin/companies/{companyID}/validate", api.ValidateCompanyHandler(learnerStore, events))
		pr.With(rbac.Require("training:manage")).
			Post("/admin/trainings", api.UpsertTrainingHandler(learnerStore))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	logger.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("mode", string(cfg.Mode)),
		zap.String("db", cfg.DBDriver))
	logger.Fatal("server exited", zap.Error(http.ListenAndServe(cfg.HTTPAddr, r)))
}

func publicFilesBase(cfg config.Config) string {
	if cfg.PublicURL == "" {
		return ""
	}
	return cfg.PublicURL + "/files"
}
