package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/arkhipov/post-service/internal/config"
	"github.com/arkhipov/post-service/internal/handler"
	"github.com/arkhipov/post-service/internal/jobs"
	"github.com/arkhipov/post-service/internal/mailer"
	"github.com/arkhipov/post-service/internal/repository"
	"github.com/arkhipov/post-service/internal/service"
	"github.com/arkhipov/post-service/internal/token"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	if err := repo.CreateTables(); err != nil {
		logger.Fatalf("Failed to initialize schema: %v", err)
	}
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTExpires)
	mail := mailer.NewSender(cfg, logger)
	svc := service.NewService(repo, tokens, mail, logger, cfg)
	h := handler.NewHandler(svc)

	// Setup router
	r := handler.NewRouter(h, tokens)

	// Start background jobs
	stats := jobs.NewStatsReporter(repo, logger)
	if err := stats.Start(); err != nil {
		logger.Fatalf("Failed to start stats reporter: %v", err)
	}
	defer stats.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
