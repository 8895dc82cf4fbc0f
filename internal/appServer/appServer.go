package appServer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventshow/eventshow/config"
	repository "github.com/eventshow/eventshow/internal/database/postgres"
	"github.com/eventshow/eventshow/internal/service"
	"github.com/eventshow/eventshow/internal/transport"
	"github.com/eventshow/eventshow/internal/worker"

	"github.com/eventshow/eventshow/pkg/geomaps"
	"github.com/eventshow/eventshow/pkg/mailer"
	"github.com/eventshow/eventshow/pkg/payment"
	"github.com/eventshow/eventshow/pkg/postgres"
	"github.com/eventshow/eventshow/pkg/queue"
	"github.com/eventshow/eventshow/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize payment provider
	var provider payment.Provider
	if cfg.Payment.Enabled {
		provider = payment.NewClient(&cfg.Payment)
		logrus.Info("Payment provider initialized")
	} else {
		provider = payment.FakeProvider{}
		logrus.Warn("Payments disabled, using fake provider")
	}

	// Initialize distance matrix client
	var distancer geomaps.Distancer
	if cfg.Maps.Enabled {
		distancer = geomaps.NewClient(&cfg.Maps)
		logrus.Info("Maps client initialized")
	} else {
		distancer = geomaps.NoopDistancer{}
		logrus.Warn("Maps disabled, nearby search will be unranked")
	}

	// Initialize mailer
	var mail mailer.Mailer
	if cfg.Email.Enabled {
		mail = mailer.NewSMTPMailer(&cfg.Email)
		logrus.Info("SMTP mailer initialized")
	} else {
		mail = mailer.NoopMailer{}
		logrus.Warn("Email disabled, notifications will be dropped")
	}

	var redisQueue queue.Queue
	var taskPublisher service.TaskPublisher

	if cfg.Redis.Host != "" {
		queueConfig := queue.DefaultRedisQueueConfig()
		queueConfig.Addr = fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		queueConfig.Password = cfg.Redis.Password
		queueConfig.DB = cfg.Redis.DB

		retryManager := queue.NewRetryManager(3, 5*time.Second)
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
		dlqHandler := queue.NewDefaultDLQHandler(redisClient, queueConfig.DLQ, queueConfig.MainQueue)

		redisQueue, err = queue.NewRedisQueue(queueConfig, retryManager, dlqHandler)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
			redisQueue = nil
		} else {
			logrus.Info("Redis queue initialized")
			taskPublisher = service.NewQueueAdapter(redisQueue)
		}
	}

	if taskPublisher == nil {
		// adapter tolerates a missing queue and drops tasks
		taskPublisher = service.NewQueueAdapter(nil)
	}

	// Initialize services
	logger := logrus.StandardLogger()
	userService := service.NewUserService(userRepo, eventRepo, transactionRepo, taskPublisher, provider, cfg.JWT, cfg.Referral, logger, time.Now)
	eventService := service.NewEventService(eventRepo, userRepo, enrollmentRepo, transactionRepo, categoryRepo, taskPublisher, provider, distancer, logger, time.Now)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, eventRepo, userRepo, transactionRepo, taskPublisher, provider, cfg.Referral, logger, time.Now)
	ratingService := service.NewRatingService(ratingRepo, eventRepo, enrollmentRepo, logger, time.Now)
	messageService := service.NewMessageService(messageRepo, eventRepo, enrollmentRepo, taskPublisher, logger)

	// Initialize task handler if queue is available
	if redisQueue != nil {
		taskHandler := queue.NewTaskHandler(userRepo, mail)

		// Start queue consumer
		go func() {
			ctx := context.Background()
			if err := redisQueue.Subscribe(ctx, taskHandler.HandleTask); err != nil {
				logrus.Errorf("Queue subscriber error: %v", err)
			}
		}()
		logrus.Info("Queue subscriber started")
	}

	// Initialize and start settlement worker
	settlementWorker := worker.NewSettlementWorker(
		eventRepo, transactionRepo, userRepo, provider, redisQueue,
		cfg.Worker.SettlementInterval, cfg.Worker.BatchSize,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go settlementWorker.Start(ctx)
	logrus.Info("Settlement worker started")

	// Initialize handlers
	handlers := &transport.Handlers{
		Auth:       transport.NewAuthHandler(userService),
		Event:      transport.NewEventHandler(eventService),
		Enrollment: transport.NewEnrollmentHandler(enrollmentService),
		Rating:     transport.NewRatingHandler(ratingService),
		Profile:    transport.NewProfileHandler(userService),
		Message:    transport.NewMessageHandler(messageService),
	}

	// Setup HTTP server
	if cfg.Server.Env == "production" || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(handlers, cfg.JWT.Secret)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if redisQueue != nil {
		if err := redisQueue.Close(); err != nil {
			logrus.Errorf("error occured on queue shutting down: %s", err.Error())
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
