package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepsheet/internal/api"
	"prepsheet/internal/api/middleware"
	"prepsheet/internal/app/service"
	"prepsheet/internal/app/worker"
	"prepsheet/internal/common/security"
	"prepsheet/internal/domain/repository"
	"prepsheet/internal/platform/config"
	"prepsheet/internal/platform/database"
	"prepsheet/internal/platform/logger"
	"prepsheet/internal/platform/mailer"
	"prepsheet/internal/platform/queue"
	"prepsheet/internal/platform/storage"

	"go.uber.org/zap"
)

func main() {
	config.Load()
	logger.Init()
	defer logger.Sync()
	log := logger.L

	security.InitJWT()

	database.Connect()
	defer database.Close()
	log.Info("database connected")

	queue.ConnectRedis()
	defer queue.CloseRedis()
	log.Info("redis connected")

	objectStorage, err := storage.NewMinioStorage()
	if err != nil {
		log.Fatal("failed to init object storage", zap.Error(err))
	}
	smtpMailer := mailer.NewSMTPMailer()

	userRepo := repository.NewPgUserRepository(database.DB)
	sheetRepo := repository.NewPgSheetRepository(database.DB)
	progressRepo := repository.NewPgProgressRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	blogRepo := repository.NewPgBlogRepository(database.DB)

	otpService := service.NewOTPService(queue.RDB, smtpMailer, log)
	mailService := service.NewMailService(queue.RDB, log)
	authService := service.NewAuthService(userRepo, otpService, mailService, log)
	userService := service.NewUserService(userRepo, progressRepo, submissionRepo, blogRepo, objectStorage, database.DB, log)
	sheetService := service.NewSheetService(sheetRepo, database.DB, log)
	progressService := service.NewProgressService(progressRepo, sheetRepo, log)
	problemService := service.NewProblemService(problemRepo, database.DB, log)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, log)
	blogService := service.NewBlogService(blogRepo, log)
	reportService := service.NewReportService(userRepo, sheetRepo, progressRepo, submissionRepo, blogRepo, log)

	mailWorker := worker.NewMailWorker(queue.RDB, smtpMailer, log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go mailWorker.Start(workerCtx)

	router := api.NewRouter(api.RouterDeps{
		Auth:       middleware.NewAuth(userRepo, log),
		AuthSvc:    authService,
		OTPSvc:     otpService,
		UserSvc:    userService,
		SheetSvc:   sheetService,
		ProgSvc:    progressService,
		ProblemSvc: problemService,
		SubSvc:     submissionService,
		BlogSvc:    blogService,
		ReportSvc:  reportService,
	})

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to listen", zap.Error(err))
		}
	}()

	<-stop

	log.Info("shutting down")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server shutdown failed", zap.Error(err))
	}
	log.Info("server and worker stopped")
}
