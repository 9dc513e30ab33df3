package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/auth"
	"medcomm-trainer/internal/coach"
	"medcomm-trainer/internal/config"
	"medcomm-trainer/internal/consultation"
	"medcomm-trainer/internal/evaluation"
	"medcomm-trainer/internal/httpx"
	"medcomm-trainer/internal/log"
	"medcomm-trainer/internal/platform/paramstore"
	"medcomm-trainer/internal/platform/postgres"
	"medcomm-trainer/internal/platform/rediscache"
	"medcomm-trainer/internal/platform/telegram"
	"medcomm-trainer/internal/profile"
	"medcomm-trainer/internal/report"
	"medcomm-trainer/internal/rubric"
	"medcomm-trainer/internal/scenario"
)

func main() {
	cfg := config.FromEnv()
	log.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.L().Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.Component("server")

	// 1. Configuration and secrets
	if cfg.ParamPrefix != "" {
		params, err := paramstore.NewFromEnvironment(ctx)
		if err != nil {
			return err
		}
		if err := cfg.LoadSecrets(ctx, params); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Infrastructure
	db, err := postgres.Open(ctx, cfg.DatabaseURL, log.Component("postgres"))
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return err
	}
	logger.Info("migrations applied", "path", cfg.MigrationsPath)

	policies := agent.DefaultPolicies()

	var summaries consultation.SummaryCache
	if cfg.RedisURL != "" {
		cache, err := rediscache.New(cfg.RedisURL, cfg.SummaryCacheTTL)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			if err := policies.Check(logger, agent.CallCache, err); err != nil {
				return err
			}
		} else {
			summaries = cache
			logger.Info("summary cache enabled")
		}
	}

	// 3. Clients
	chatModel := agent.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel)
	tts := agent.NewElevenLabsTTS(cfg.ElevenLabsAPIKey)
	stt := agent.NewElevenLabsSTT(cfg.ElevenLabsAPIKey)
	identity := auth.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
	renderer := report.NewRenderer(cfg.ReportFontPath, log.Component("report"))

	var notifier evaluation.Notifier
	if cfg.ReportDeliveryEnabled() {
		tg := telegram.NewClient(cfg.TelegramBotToken)
		notifier = report.NewService(tg, renderer, cfg.InstructorChatID, log.Component("report"))
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN or INSTRUCTOR_CHAT_ID not set, evaluation reports will not be delivered")
	}

	// 4. Services
	scenarios := scenario.NewRepository(db)

	consultationSvc, err := consultation.NewService(consultation.Deps{
		Scenarios:      scenarios,
		Generator:      chatModel,
		Synthesizer:    tts,
		Transcriber:    stt,
		Cache:          summaries,
		Policies:       policies,
		DefaultVoiceID: cfg.DefaultVoiceID,
		Logger:         log.Component("consultation"),
	})
	if err != nil {
		return err
	}

	evaluationSvc, err := evaluation.NewService(evaluation.Deps{
		Scenarios: scenarios,
		Generator: chatModel,
		Store:     evaluation.NewRepository(db),
		Rubric:    rubric.Default(),
		Notifier:  notifier,
		Policies:  policies,
		Model:     cfg.EvalModel,
		Logger:    log.Component("evaluation"),
	})
	if err != nil {
		return err
	}

	coachSvc, err := coach.NewService(coach.Deps{
		Generator:   chatModel,
		Evaluations: evaluationSvc,
		Scenarios:   scenarios,
		Feedback:    coach.NewRepository(db),
		Policies:    policies,
		Logger:      log.Component("coach"),
	})
	if err != nil {
		return err
	}

	profileSvc := profile.NewService(profile.NewRepository(db), log.Component("profile"))

	requireUser := auth.RequireUser(identity, log.Component("auth"))

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		scenario.RegisterRoutes(r, scenario.NewHandler(scenarios))
		consultation.RegisterRoutes(r, consultation.NewHandler(consultationSvc))
		evaluation.RegisterRoutes(r, evaluation.NewHandler(evaluationSvc, renderer), requireUser)
		coach.RegisterRoutes(r, coach.NewHandler(coachSvc), requireUser)
		profile.RegisterRoutes(r, profile.NewHandler(profileSvc), requireUser)
		auth.RegisterRoutes(r, auth.NewHandler(identity))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
