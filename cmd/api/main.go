package main

import (
	"fmt"
	"log"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"caterflow/internal/commands"
	"caterflow/internal/config"
	"caterflow/internal/events"
	"caterflow/internal/handler"
	outboxworker "caterflow/internal/outbox"
	"caterflow/internal/repository"
	"caterflow/internal/server"
	"caterflow/internal/services"
	"caterflow/pkg/database"
	"caterflow/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mode := logger.DevelopmentMode
	if cfg.Server.Environment == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	defer l.Sync()
	logger.SetGlobalLogger(l)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	db := database.DB
	bookingRepo := repository.NewBookingRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	eventRepo := repository.NewEventRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	ledgerRepo := repository.NewIdempotencyRepository(db)

	bookingSvc := services.NewBookingService(db, services.BookingRepos{
		Bookings:  bookingRepo,
		Customers: customerRepo,
		Events:    eventRepo,
		Outbox:    outboxRepo,
		Ledger:    ledgerRepo,
	}, cfg.Booking.SlotCapacity, cfg.Idempotency.TTL, l)

	paymentSvc := services.NewPaymentService(db, services.PaymentRepos{
		Bookings: bookingRepo,
		Payments: paymentRepo,
		Events:   eventRepo,
		Outbox:   outboxRepo,
		Ledger:   ledgerRepo,
	}, cfg.Idempotency.TTL, l)

	messageSvc := services.NewMessageService(db, services.MessageRepos{
		Threads: threadRepo,
		Events:  eventRepo,
		Outbox:  outboxRepo,
		Ledger:  ledgerRepo,
	}, cfg.Idempotency.TTL, l)

	bus := commands.NewBus()
	bookingSvc.RegisterHandlers(bus)
	paymentSvc.RegisterHandlers(bus)
	messageSvc.RegisterHandlers(bus)

	publisher := events.NewRedisPublisher(redisClient)
	locker := redislock.New(redisClient)
	workerID := fmt.Sprintf("api-%s", uuid.New().String()[:8])
	processor := outboxworker.NewProcessor(outboxRepo, publisher, locker, workerID,
		cfg.Outbox.BatchSize, cfg.Outbox.MaxAttempts, cfg.Outbox.LockTTL, l)
	runner := outboxworker.NewRunner(processor, ledgerRepo, cfg.Outbox.Interval, cfg.Idempotency.GCInterval, l)
	runner.Start()
	defer runner.Stop()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Booking: handler.NewBookingHandler(bus),
		Payment: handler.NewPaymentHandler(bus),
		Message: handler.NewMessageHandler(bus),
	})

	if err := srv.Start(); err != nil {
		l.Errorf("server shutdown: %v", err)
	}
}
