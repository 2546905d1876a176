package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dbqr-qa/grader/internal/api"
	"github.com/dbqr-qa/grader/internal/config"
	"github.com/dbqr-qa/grader/internal/heuristic"
	"github.com/dbqr-qa/grader/internal/logging"
	"github.com/dbqr-qa/grader/internal/middleware"
	"github.com/dbqr-qa/grader/internal/services"
	"github.com/dbqr-qa/grader/internal/store"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}

	stages := []services.Stage{
		{Name: "practice", Samples: cfg.PracticeSamples},
		{Name: "training", Samples: cfg.TrainingSamples},
		{Name: "test", Samples: cfg.TestSamples},
	}
	classifier := services.NewStageClassifier(stages)
	quota := services.NewQuotaTracker(cfg.SubmissionLimit)
	evaluator := services.NewEvaluator(heuristic.Score)
	gold := store.NewGoldFiles(cfg.DataPath)

	secret := []byte(cfg.JWTSecret)
	router := api.NewRouter(
		st,
		services.NewAccountService(st, quota),
		services.NewSubmissionService(st, gold, classifier, quota, evaluator),
		services.NewHistoryService(st, quota, cfg.PageSize),
		services.NewLeaderboardService(st, stages),
		services.NewReviewService(st),
		services.NewAdminService(cfg.Admin.PasswordHash, middleware.NewAdminSigner(secret)),
		secret,
		logger,
	)

	mux := http.NewServeMux()
	router.Register(mux)

	handler := middleware.CORS(middleware.NoStore(middleware.RequestLogger(logger)(mux)))

	logger.Info("grader listening",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Driver),
		zap.String("data", cfg.DataPath))
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver == "sqlite" {
		return store.Open(cfg.Store.SQLitePath)
	}
	return store.NewFileStore(cfg.DataPath), nil
}
