package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/tair/marketplace/internal/ai"
	"github.com/tair/marketplace/internal/invitation"
	"github.com/tair/marketplace/internal/listing/access"
	httpDelivery "github.com/tair/marketplace/internal/listing/delivery/http"
	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/internal/listing/repository"
	"github.com/tair/marketplace/internal/listing/usecase/command"
	"github.com/tair/marketplace/internal/mailer"
	"github.com/tair/marketplace/internal/payment"
	"github.com/tair/marketplace/internal/social"
	"github.com/tair/marketplace/internal/storage"
	"github.com/tair/marketplace/kafka"
	"github.com/tair/marketplace/pkg/database"
	"github.com/tair/marketplace/pkg/logger"
	"github.com/tair/marketplace/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "listing-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting listing service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "listingdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	gormRepo := repository.NewGormListingRepository(db)
	if err := gormRepo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Assemble the listing repository: gorm core, tracing, then an
	// optional Redis read-through cache.
	var listings domain.ListingRepository = repository.NewTracedListingRepository(gormRepo)
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		})
		listings = repository.NewCachedListingRepository(listings, redisClient)
		logger.Logger.Info().Str("addr", redisAddr).Msg("Redis listing cache enabled")
	}

	activities := repository.NewGormActivityRepository(db)

	// Access resolver, with the social graph collaborator when configured
	var socialGraph access.SocialGraph
	if socialURL := getEnv("SOCIAL_SERVICE_URL", ""); socialURL != "" {
		socialGraph = social.NewClient(socialURL)
		logger.Logger.Info().Str("url", socialURL).Msg("Social graph client enabled")
	}
	resolver := access.NewResolver(socialGraph)

	handler := httpDelivery.NewListingHandler(listings, activities, resolver)

	// Invitation emails
	if smtpHost := getEnv("SMTP_HOST", ""); smtpHost != "" {
		smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Invalid SMTP_PORT")
		}
		sender := mailer.NewSMTPMailer(mailer.Config{
			Host:     smtpHost,
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "noreply@marketplace.local"),
		})
		gateway := invitation.NewGateway(sender, activities, getEnv("PUBLIC_BASE_URL", "http://localhost:8080"))
		handler.WithInvitations(gateway)
		logger.Logger.Info().Str("host", smtpHost).Msg("Invitation mailer enabled")
	}

	// Payment intents
	if paymentURL := getEnv("PAYMENT_SERVICE_URL", ""); paymentURL != "" {
		handler.WithPayments(payment.NewClient(paymentURL, getEnv("PAYMENT_API_KEY", "")))
		logger.Logger.Info().Str("url", paymentURL).Msg("Payment client enabled")
	}

	// Description drafts
	if aiURL := getEnv("AI_SERVICE_URL", ""); aiURL != "" {
		handler.WithAI(ai.NewClient(aiURL, getEnv("AI_API_KEY", "")))
		logger.Logger.Info().Str("url", aiURL).Msg("Description generator enabled")
	}

	// Image uploads
	if minioEndpoint := getEnv("MINIO_ENDPOINT", ""); minioEndpoint != "" {
		images, err := storage.NewImageStore(storage.Config{
			Endpoint:  minioEndpoint,
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "listing-images"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
		})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize image store")
		}
		handler.WithImages(images)
	}

	// Kafka: publish listing.sold, consume payment.completed
	if brokersRaw := getEnv("KAFKA_BROKERS", ""); brokersRaw != "" {
		brokers := strings.Split(brokersRaw, ",")

		publisher, err := kafka.NewPublisher(brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer publisher.Close()
		handler.WithPublisher(publisher)

		consumer, err := kafka.NewConsumer(brokers, getEnv("KAFKA_GROUP_ID", "listing-service"), []string{kafka.TopicPaymentCompleted})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()

		markSold := command.NewMarkSoldHandler(listings, activities)
		consumer.RegisterHandler(kafka.EventTypePaymentCompleted, func(ctx context.Context, event kafka.PaymentCompletedEvent) error {
			_, err := markSold.Handle(ctx, command.MarkSoldCommand{
				ID:             event.ListingID,
				SalePriceCents: event.AmountCents,
			})
			if errors.Is(err, domain.ErrInvalidState) {
				// Redelivery after the listing is already sold is not a failure.
				logger.Warn(ctx).Str("listing_id", event.ListingID).Msg("Payment completion for non-active listing ignored")
				return nil
			}
			return err
		})

		consumerCtx, cancelConsumer := context.WithCancel(context.Background())
		defer cancelConsumer()
		if err := consumer.Start(consumerCtx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8080")
	startHTTPServer(handler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(handler *httpDelivery.ListingHandler, db *sql.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	// Register routes
	handler.RegisterRoutes(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Tracing and logging wrap the whole router
	wrapped := httpDelivery.TracingMiddleware("listing-service", httpDelivery.LoggingMiddleware(c.Handler(router)))

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	go func() {
		if err := http.ListenAndServe(":"+port, wrapped); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
