package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medu1122/CAPTONE1-sub002/internal/application"
	analysisapp "github.com/medu1122/CAPTONE1-sub002/internal/application/analysis"
	treatmentapp "github.com/medu1122/CAPTONE1-sub002/internal/application/treatment"
	"github.com/medu1122/CAPTONE1-sub002/internal/config"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/analysis"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/degradation"
	"github.com/medu1122/CAPTONE1-sub002/internal/domain/treatment"
	aiclient "github.com/medu1122/CAPTONE1-sub002/internal/infra/ai/openai"
	"github.com/medu1122/CAPTONE1-sub002/internal/infra/cache"
	mysqlp "github.com/medu1122/CAPTONE1-sub002/internal/infra/db/mysql"
	postgresp "github.com/medu1122/CAPTONE1-sub002/internal/infra/db/postgres"
	"github.com/medu1122/CAPTONE1-sub002/internal/infra/httpserver"
	"github.com/medu1122/CAPTONE1-sub002/internal/infra/recognition/plantid"
	translate "github.com/medu1122/CAPTONE1-sub002/internal/infra/translate/google"
	minioStore "github.com/medu1122/CAPTONE1-sub002/internal/infra/storage"
	"github.com/medu1122/CAPTONE1-sub002/internal/logger"
	"github.com/medu1122/CAPTONE1-sub002/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()

	ctx := context.Background()

	// connect database (mysql default, postgres alternative)
	var db *sql.DB
	var repo analysis.Repository
	var knowledge treatment.Source
	var degradations degradation.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			zlog.Fatal("postgres connect error", zap.Error(err))
		}
		repo = postgresp.NewAnalysisRepository(db)
		knowledge = postgresp.NewKnowledgeRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			zlog.Fatal("mysql connect error", zap.Error(err))
		}
		repo = mysqlp.NewAnalysisRepository(db)
		knowledge = mysqlp.NewKnowledgeRepository(db)
		degradations = mysqlp.NewDegradationRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		zlog.Fatal("minio init error", zap.Error(err))
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}

	// optional redis cache in front of the knowledge base
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		knowledge = cache.NewTreatmentSource(knowledge, rdb, cfg.RedisTTL(), zlog)
		checkers["redis"] = &middleware.RedisHealthChecker{Client: rdb}
	}

	// external clients
	recognizer := plantid.New(cfg.Recognition.BaseURL, cfg.Recognition.APIKey,
		cfg.RecognitionTimeout(), cfg.Recognition.ReliableThreshold)
	translator := translate.New(cfg.Translate.BaseURL, cfg.Translate.TargetLang, cfg.TranslateTimeout())
	ai := aiclient.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.Recognition.ReliableThreshold)

	// init service
	svc := &analysisapp.Service{
		Recognizer:   recognizer,
		AI:           ai,
		Formatter:    analysisapp.NewFormatter(translator, cfg.TranslateTimeout(), zlog),
		Treatments:   treatmentapp.NewAggregator(knowledge, cfg.TreatmentTimeout(), zlog),
		Repo:         repo,
		Images:       store,
		Degradations: degradations,
		Clock:        application.SystemClock{},
		Logger:       zlog,
		Cfg: analysisapp.Config{
			PrecheckEnabled:    cfg.Recognition.PrecheckEnabled,
			TextMinLen:         3,
			TextMaxLen:         500,
			RecognitionTimeout: cfg.RecognitionTimeout(),
			AdvisoryTimeout:    cfg.AITimeout(),
			PersistTimeout:     10 * time.Second,
		},
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, checkers, cfg.Server.AllowedOrigins, zlog))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: the SSE endpoint holds its connection open
		IdleTimeout: 60 * time.Second,
	}

	// run server
	go func() {
		zlog.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	zlog.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}
